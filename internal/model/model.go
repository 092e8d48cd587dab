package model

// SectionKind identifies one labeled part of a research report.
type SectionKind string

const (
	KindNarrative    SectionKind = "article"
	KindSummary      SectionKind = "executive_summary"
	KindTimeline     SectionKind = "timeline_items"
	KindSources      SectionKind = "cited_sources"
	KindFacts        SectionKind = "raw_facts"
	KindPerspectives SectionKind = "perspectives"
	KindConflicts    SectionKind = "conflicting_info"
)

// AllKinds lists every section kind a report must carry, in DAG fan-out
// order. The order has no runtime meaning; generators run concurrently.
var AllKinds = []SectionKind{
	KindNarrative,
	KindSummary,
	KindTimeline,
	KindSources,
	KindFacts,
	KindPerspectives,
	KindConflicts,
}

// FetchedItem is one search/scrape result handed to the generators.
// Immutable once produced; owned by the workflow run that requested it.
type FetchedItem struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// Article is the narrative section of a report.
type Article struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	Excerpt      string `json:"excerpt"`
	Content      string `json:"content"`
	Category     string `json:"category"`
	PublishedAt  string `json:"publishedAt"`
	ReadTime     int    `json:"readTime"`
	SourceCount  int    `json:"sourceCount"`
	HeroImageURL string `json:"heroImageUrl"`
	AuthorName   string `json:"authorName,omitempty"`
	AuthorTitle  string `json:"authorTitle,omitempty"`
}

// ExecutiveSummary is a short bullet-point digest (4-6 points).
type ExecutiveSummary struct {
	ArticleID int64    `json:"articleId"`
	Points    []string `json:"points"`
}

// TimelineItem is one dated event.
type TimelineItem struct {
	ArticleID   int64  `json:"articleId"`
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	SourceLabel string `json:"sourceLabel"`
	SourceURL   string `json:"sourceUrl,omitempty"`
}

// CitedSource is one referenced outlet or document.
type CitedSource struct {
	ArticleID   int64  `json:"articleId"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	URL         string `json:"url"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// RawFacts groups verbatim facts by source.
type RawFacts struct {
	ArticleID int64    `json:"articleId"`
	Category  string   `json:"category"`
	Facts     []string `json:"facts"`
}

// Perspective is one distinct viewpoint on the story.
type Perspective struct {
	ArticleID      int64  `json:"articleId"`
	Viewpoint      string `json:"viewpoint"`
	Description    string `json:"description"`
	Source         string `json:"source,omitempty"`
	Quote          string `json:"quote,omitempty"`
	Color          string `json:"color"`
	URL            string `json:"url,omitempty"`
	Reasoning      string `json:"reasoning,omitempty"`
	Evidence       string `json:"evidence,omitempty"`
	ConflictSource string `json:"conflictSource,omitempty"`
	ConflictQuote  string `json:"conflictQuote,omitempty"`
	ConflictURL    string `json:"conflictUrl,omitempty"`
}

// ConflictSide is one party of a conflict entry.
type ConflictSide struct {
	Name  string `json:"name"`
	Quote string `json:"quote"`
	URL   string `json:"url"`
	Claim string `json:"claim"`
}

// Conflict is one factual dispute between two sources. An entry is
// atomic: it is kept or dropped whole during deduplication.
type Conflict struct {
	ArticleID           int64        `json:"articleId"`
	ConflictID          string       `json:"conflict_id"`
	ConflictType        string       `json:"conflict_type"`
	ConflictDescription string       `json:"conflict_description"`
	SourceA             ConflictSide `json:"source_a"`
	SourceB             ConflictSide `json:"source_b"`
	ResolutionStatus    string       `json:"resolution_status"`
	Severity            string       `json:"severity"`
}

// Report is the immutable, fully-assembled output of one workflow run.
type Report struct {
	Article          Article            `json:"article"`
	ExecutiveSummary ExecutiveSummary   `json:"executiveSummary"`
	TimelineItems    []TimelineItem     `json:"timelineItems"`
	CitedSources     []CitedSource      `json:"citedSources"`
	RawFacts         []RawFacts         `json:"rawFacts"`
	Perspectives     []Perspective      `json:"perspectives"`
	ConflictingInfo  []Conflict         `json:"conflictingInfo"`
}

// ImageSet carries the image references attached after the sources
// section completes.
type ImageSet struct {
	HeroImage    string
	SourceImages []string
}
