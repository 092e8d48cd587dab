// Package feed maintains the hot-topics list: trending headlines pulled
// from the search provider, keyword-categorized, illustrated, and
// cached for a refresh window. Each topic also seeds report generation.
package feed

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/factlens/research_radar/internal/images"
	"github.com/factlens/research_radar/internal/logger"
	"github.com/factlens/research_radar/internal/model"
	"github.com/factlens/research_radar/internal/search"
)

const (
	maxTopics          = 8
	resultsPerCategory = 3
	maxHeadlineLen     = 80
	maxDescriptionLen  = 200
)

// trendingQueries seed the feed, one per category.
var trendingQueries = []struct {
	query    string
	category string
}{
	{"breaking news today politics government", "politics"},
	{"technology AI innovation breakthrough today", "technology"},
	{"economy business markets finance today", "business"},
	{"health medical research breakthrough today", "health"},
	{"climate environment energy today", "environment"},
	{"international global affairs today", "international"},
}

var categoryKeywords = map[string][]string{
	"politics":      {"congress", "election", "government", "president", "senate", "policy"},
	"technology":    {"ai", "technology", "software", "digital", "innovation", "cyber"},
	"business":      {"economy", "market", "business", "finance", "stock", "trade"},
	"health":        {"health", "medical", "vaccine", "hospital", "treatment", "disease"},
	"environment":   {"climate", "environment", "carbon", "renewable", "energy"},
	"international": {"international", "global", "world", "foreign", "diplomacy"},
}

// Topic is one feed entry. Serialized shape matches the article list
// the read surface exposes.
type Topic struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Slug         string   `json:"slug"`
	Excerpt      string   `json:"excerpt"`
	Category     string   `json:"category"`
	PublishedAt  string   `json:"publishedAt"`
	ReadTime     int      `json:"readTime"`
	SourceCount  int      `json:"sourceCount"`
	HeroImageURL string   `json:"heroImageUrl"`
	AuthorName   string   `json:"authorName"`
	AuthorTitle  string   `json:"authorTitle"`
	Keywords     []string `json:"keywords"`
}

// Enqueuer is satisfied by *store.Service.
type Enqueuer interface {
	Enqueue(query string, force bool) string
}

// Extractor resolves an illustration URL for an article page. Empty
// string means not found.
type Extractor func(ctx context.Context, pageURL string) string

// Manager owns the topic cache. Concurrent refreshes for the same
// window collapse into one via singleflight.
type Manager struct {
	searcher search.Searcher
	enqueue  Enqueuer
	extract  Extractor
	window   time.Duration

	mu        sync.Mutex
	topics    []Topic
	generated time.Time

	group singleflight.Group
}

// NewManager builds a Manager. A nil extract falls back to category
// stock images only.
func NewManager(searcher search.Searcher, enqueue Enqueuer, extract Extractor, window time.Duration) *Manager {
	if extract == nil {
		extract = func(context.Context, string) string { return "" }
	}
	return &Manager{searcher: searcher, enqueue: enqueue, extract: extract, window: window}
}

// Topics returns the cached feed, regenerating it when stale or empty.
func (m *Manager) Topics(ctx context.Context) ([]Topic, error) {
	m.mu.Lock()
	fresh := len(m.topics) > 0 && time.Since(m.generated) < m.window
	cached := m.topics
	m.mu.Unlock()
	if fresh {
		return cached, nil
	}
	return m.refresh(ctx)
}

// ForceRefresh discards the cache and regenerates immediately.
func (m *Manager) ForceRefresh(ctx context.Context) ([]Topic, error) {
	m.mu.Lock()
	m.topics = nil
	m.generated = time.Time{}
	m.mu.Unlock()
	return m.refresh(ctx)
}

func (m *Manager) refresh(ctx context.Context) ([]Topic, error) {
	v, err, _ := m.group.Do("refresh", func() (any, error) {
		topics := m.generate(ctx)
		m.mu.Lock()
		m.topics = topics
		m.generated = time.Now()
		m.mu.Unlock()
		return topics, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Topic), nil
}

func (m *Manager) generate(ctx context.Context) []Topic {
	logger.Log.Info("generating hot topics")
	var topics []Topic

	for _, tq := range trendingQueries {
		if len(topics) >= maxTopics {
			break
		}
		resp, err := m.searcher.Search(ctx, &search.Request{
			Query:      tq.query,
			Topic:      "news",
			MaxResults: resultsPerCategory,
		})
		if err != nil {
			logger.Log.Warnf("trending search failed [%s]: %v", tq.category, err)
			continue
		}
		for _, r := range resp.Results {
			if len(topics) >= maxTopics {
				break
			}
			if r.Title == "" {
				continue
			}
			topics = append(topics, m.buildTopic(ctx, r, tq.category))
		}
	}

	for _, t := range topics {
		if m.enqueue != nil {
			m.enqueue.Enqueue(t.Title, false)
		}
	}

	logger.Log.Infof("generated %d hot topics", len(topics))
	return topics
}

func (m *Manager) buildTopic(ctx context.Context, r search.Result, seedCategory string) Topic {
	category := Categorize(r.Title, r.Content)
	if category == "general" {
		category = seedCategory
	}

	img := m.extract(ctx, r.URL)
	if img == "" {
		img = images.Fallback(category)
	}

	return Topic{
		ID:           uuid.New().String(),
		Title:        truncate(r.Title, maxHeadlineLen),
		Slug:         model.Slugify(r.Title),
		Excerpt:      truncate(r.Content, maxDescriptionLen),
		Category:     capitalize(category),
		PublishedAt:  time.Now().Format(time.RFC3339),
		ReadTime:     3,
		SourceCount:  1,
		HeroImageURL: img,
		AuthorName:   "Research Curator",
		AuthorTitle:  "Automated Analyst",
		Keywords:     extractKeywords(r.Title),
	}
}

// Categorize assigns the category whose keywords score highest in the
// text, or "general" when nothing matches.
func Categorize(title, content string) string {
	text := strings.ToLower(title + " " + content)

	best, bestScore := "general", 0
	names := make([]string, 0, len(categoryKeywords))
	for name := range categoryKeywords {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		score := 0
		for _, kw := range categoryKeywords[name] {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	return best
}

var wordRe = regexp.MustCompile(`\b[a-zA-Z]{4,}\b`)

var stopWords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {},
	"have": {}, "been": {}, "will": {}, "they": {}, "their": {},
}

func extractKeywords(text string) []string {
	var keywords []string
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if _, skip := stopWords[w]; skip {
			continue
		}
		keywords = append(keywords, w)
		if len(keywords) == 3 {
			break
		}
	}
	return keywords
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// truncate cuts s at no more than max bytes without splitting a
// multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
