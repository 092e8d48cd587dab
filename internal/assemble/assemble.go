// Package assemble stitches generated sections into one immutable
// report. Missing sections get minimal placeholder payloads so a
// partially failed run still yields a servable report.
package assemble

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/factlens/research_radar/internal/images"
	"github.com/factlens/research_radar/internal/logger"
	"github.com/factlens/research_radar/internal/model"
)

// ValidationError reports structural problems in an assembled report.
// It is fatal for the run and is not retried.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("report validation failed: %s", strings.Join(e.Problems, "; "))
}

// NewArticleID returns a process-unique positive 31-bit identifier.
func NewArticleID() int64 {
	u := uuid.New()
	return int64(binary.BigEndian.Uint32(u[0:4]) & 0x7FFFFFFF)
}

// Input carries everything the assembler needs from a finished run.
type Input struct {
	Query       string
	Slug        string
	Sections    map[model.SectionKind]any
	Images      model.ImageSet
	SourceCount int
}

// Build produces a report from the run's sections, substituting a
// placeholder for every missing kind, stamping one article id across
// all sections, and attaching image references. The canonical job slug
// always wins over the title-derived one.
func Build(in Input) *model.Report {
	id := NewArticleID()
	report := &model.Report{}

	if a, ok := in.Sections[model.KindNarrative].(model.Article); ok {
		report.Article = a
	} else {
		logger.Log.Warnf("missing narrative section for %q, using placeholder", in.Slug)
		report.Article = placeholderArticle(in.Query)
	}
	report.Article.ID = id
	report.Article.Slug = in.Slug
	if report.Article.Title == "" {
		report.Article.Title = "Research Report: " + in.Query
	}
	if report.Article.PublishedAt == "" {
		report.Article.PublishedAt = time.Now().Format("2006-01-02")
	}
	if report.Article.Category == "" {
		report.Article.Category = "general"
	}
	if report.Article.ReadTime == 0 {
		report.Article.ReadTime = readTime(report.Article.Content)
	}
	report.Article.SourceCount = in.SourceCount

	if s, ok := in.Sections[model.KindSummary].(model.ExecutiveSummary); ok && len(s.Points) > 0 {
		report.ExecutiveSummary = s
	} else {
		logger.Log.Warnf("missing summary section for %q, using placeholder", in.Slug)
		report.ExecutiveSummary = placeholderSummary(in.Query)
	}
	report.ExecutiveSummary.ArticleID = id

	if items, ok := in.Sections[model.KindTimeline].([]model.TimelineItem); ok {
		report.TimelineItems = items
	} else {
		logger.Log.Warnf("missing timeline section for %q, using placeholder", in.Slug)
		report.TimelineItems = placeholderTimeline(in.Query)
	}
	for i := range report.TimelineItems {
		report.TimelineItems[i].ArticleID = id
	}

	if srcs, ok := in.Sections[model.KindSources].([]model.CitedSource); ok {
		report.CitedSources = srcs
	} else {
		logger.Log.Warnf("missing sources section for %q, using placeholder", in.Slug)
		report.CitedSources = placeholderSources(in.Query)
	}
	for i := range report.CitedSources {
		report.CitedSources[i].ArticleID = id
	}

	if facts, ok := in.Sections[model.KindFacts].([]model.RawFacts); ok {
		report.RawFacts = facts
	} else {
		logger.Log.Warnf("missing facts section for %q, using placeholder", in.Slug)
		report.RawFacts = placeholderFacts(in.Query)
	}
	for i := range report.RawFacts {
		report.RawFacts[i].ArticleID = id
	}

	if ps, ok := in.Sections[model.KindPerspectives].([]model.Perspective); ok {
		report.Perspectives = ps
	} else {
		logger.Log.Warnf("missing perspectives section for %q, using placeholder", in.Slug)
		report.Perspectives = placeholderPerspectives(in.Query)
	}
	for i := range report.Perspectives {
		report.Perspectives[i].ArticleID = id
	}

	if cs, ok := in.Sections[model.KindConflicts].([]model.Conflict); ok {
		report.ConflictingInfo = cs
	} else {
		// A report with no detected conflicts is valid, so the
		// placeholder for this kind is the empty list.
		logger.Log.Warnf("missing conflicts section for %q, using empty list", in.Slug)
		report.ConflictingInfo = []model.Conflict{}
	}
	for i := range report.ConflictingInfo {
		report.ConflictingInfo[i].ArticleID = id
	}

	attachImages(report, in.Images)
	return report
}

// Validate checks the assembled report's structural completeness.
func Validate(report *model.Report) error {
	var problems []string
	if report.Article.ID <= 0 {
		problems = append(problems, "article id missing")
	}
	if report.Article.Title == "" {
		problems = append(problems, "article title empty")
	}
	if report.Article.Slug == "" {
		problems = append(problems, "article slug empty")
	}
	if report.Article.Content == "" {
		problems = append(problems, "article content empty")
	}
	if len(report.ExecutiveSummary.Points) == 0 {
		problems = append(problems, "executive summary has no points")
	}
	if report.TimelineItems == nil {
		problems = append(problems, "timeline items nil")
	}
	if report.CitedSources == nil {
		problems = append(problems, "cited sources nil")
	}
	if report.RawFacts == nil {
		problems = append(problems, "raw facts nil")
	}
	if report.Perspectives == nil {
		problems = append(problems, "perspectives nil")
	}
	if report.ConflictingInfo == nil {
		problems = append(problems, "conflicting info nil")
	}
	for _, s := range report.CitedSources {
		if s.ArticleID != report.Article.ID {
			problems = append(problems, fmt.Sprintf("cited source %q carries foreign article id", s.Name))
			break
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// IsComplete reports whether a cached report still satisfies the
// structural checks. Used by the consistency scan to find entries that
// degraded silently.
func IsComplete(report *model.Report) bool {
	return Validate(report) == nil
}

func attachImages(report *model.Report, imgs model.ImageSet) {
	if report.Article.HeroImageURL == "" {
		report.Article.HeroImageURL = imgs.HeroImage
	}
	if report.Article.HeroImageURL == "" {
		report.Article.HeroImageURL = images.HeroPlaceholder
	}
	for i := range report.CitedSources {
		if report.CitedSources[i].ImageURL != "" {
			continue
		}
		if i < len(imgs.SourceImages) && imgs.SourceImages[i] != "" {
			report.CitedSources[i].ImageURL = imgs.SourceImages[i]
		} else {
			report.CitedSources[i].ImageURL = images.SourcePlaceholder
		}
	}
}

func readTime(content string) int {
	words := len(strings.Fields(content))
	minutes := words / 200
	if minutes < 1 {
		return 1
	}
	return minutes
}

func placeholderArticle(query string) model.Article {
	return model.Article{
		Title:    "Research Report: " + query,
		Excerpt:  fmt.Sprintf("An automatically generated report on %q.", query),
		Content:  fmt.Sprintf("# Research Report\n\nThe full narrative for %q could not be generated. Partial findings are available in the remaining sections.", query),
		Category: "general",
	}
}

func placeholderSummary(query string) model.ExecutiveSummary {
	return model.ExecutiveSummary{
		Points: []string{
			fmt.Sprintf("Summary generation for %q did not complete.", query),
			"Refer to the raw facts and cited sources for available findings.",
		},
	}
}

func placeholderTimeline(query string) []model.TimelineItem {
	return []model.TimelineItem{{
		Date:        time.Now().Format("2006-01-02"),
		Title:       "Report generated",
		Description: fmt.Sprintf("Timeline extraction for %q did not complete.", query),
		Type:        "info",
		SourceLabel: "System",
	}}
}

func placeholderSources(query string) []model.CitedSource {
	return []model.CitedSource{{
		Name:        "Pending verification",
		Type:        "system",
		Description: fmt.Sprintf("Source extraction for %q did not complete.", query),
		URL:         "",
	}}
}

func placeholderFacts(query string) []model.RawFacts {
	return []model.RawFacts{{
		Category: "System",
		Facts:    []string{fmt.Sprintf("Fact extraction for %q did not complete.", query)},
	}}
}

func placeholderPerspectives(query string) []model.Perspective {
	return []model.Perspective{
		{
			Viewpoint:   "Pending analysis",
			Description: fmt.Sprintf("Perspective analysis for %q did not complete.", query),
			Color:       "gray",
		},
		{
			Viewpoint:   "Further research needed",
			Description: "Additional viewpoints will appear once generation succeeds.",
			Color:       "gray",
		},
	}
}
