package feed

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/factlens/research_radar/internal/search"
)

type fakeSearcher struct {
	mu      sync.Mutex
	calls   int
	results []search.Result
}

func (f *fakeSearcher) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return &search.Response{Results: f.results}, nil
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	slugs []string
}

func (f *fakeEnqueuer) Enqueue(query string, force bool) string {
	f.mu.Lock()
	f.slugs = append(f.slugs, query)
	f.mu.Unlock()
	return query
}

func TestTopicsGeneratesAndCaches(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "Congress Passes Election Reform", URL: "https://news.example/a", Content: "The senate approved new government policy."},
	}}
	enq := &fakeEnqueuer{}
	m := NewManager(searcher, enq, nil, time.Hour)

	topics, err := m.Topics(context.Background())
	if err != nil {
		t.Fatalf("topics failed: %v", err)
	}
	if len(topics) == 0 {
		t.Fatal("no topics generated")
	}
	if topics[0].Category != "Politics" {
		t.Errorf("category = %q", topics[0].Category)
	}
	if topics[0].Slug != "congress-passes-election-reform" {
		t.Errorf("slug = %q", topics[0].Slug)
	}
	if topics[0].HeroImageURL == "" {
		t.Error("no fallback image attached")
	}
	if len(enq.slugs) == 0 {
		t.Error("no report generation enqueued")
	}

	first := searcher.callCount()
	if _, err := m.Topics(context.Background()); err != nil {
		t.Fatalf("cached topics failed: %v", err)
	}
	if searcher.callCount() != first {
		t.Error("fresh cache triggered another search")
	}
}

func TestTopicsCappedAtMax(t *testing.T) {
	var many []search.Result
	for i := 0; i < 5; i++ {
		many = append(many, search.Result{Title: "Global Markets Update " + strings.Repeat("x", i+1), URL: "https://n.example", Content: "trade finance stock"})
	}
	m := NewManager(&fakeSearcher{results: many}, nil, nil, time.Hour)

	topics, err := m.Topics(context.Background())
	if err != nil {
		t.Fatalf("topics failed: %v", err)
	}
	if len(topics) > maxTopics {
		t.Errorf("topics = %d, want <= %d", len(topics), maxTopics)
	}
}

func TestForceRefreshRegenerates(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "AI Software Breakthrough", URL: "https://n.example", Content: "digital innovation"},
	}}
	m := NewManager(searcher, nil, nil, time.Hour)

	if _, err := m.Topics(context.Background()); err != nil {
		t.Fatal(err)
	}
	first := searcher.callCount()

	if _, err := m.ForceRefresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if searcher.callCount() <= first {
		t.Error("force refresh did not regenerate")
	}
}

func TestTopicsUsesExtractedImage(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "Climate Energy Deal", URL: "https://n.example/story", Content: "carbon renewable"},
	}}
	extract := func(ctx context.Context, pageURL string) string {
		return "https://cdn.example/card.jpg"
	}
	m := NewManager(searcher, nil, extract, time.Hour)

	topics, err := m.Topics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if topics[0].HeroImageURL != "https://cdn.example/card.jpg" {
		t.Errorf("image = %q", topics[0].HeroImageURL)
	}
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		title, content, want string
	}{
		{"Senate election results", "congress policy", "politics"},
		{"New vaccine trial", "hospital treatment results", "health"},
		{"Quiet local story", "nothing notable", "general"},
	}
	for _, c := range cases {
		if got := Categorize(c.title, c.content); got != c.want {
			t.Errorf("Categorize(%q) = %q, want %q", c.title, got, c.want)
		}
	}
}

func TestTruncatePreservesRuneBoundaries(t *testing.T) {
	// 3-byte runes, so an 80-byte cut would land mid-rune.
	title := strings.Repeat("日本語", 30)
	got := truncate(title, maxHeadlineLen)
	if !utf8.ValidString(got) {
		t.Errorf("truncated title is not valid UTF-8: %q", got)
	}
	if len(got) > maxHeadlineLen {
		t.Errorf("truncated to %d bytes, want <= %d", len(got), maxHeadlineLen)
	}
	if truncate("short", 80) != "short" {
		t.Error("short string modified")
	}
}

func TestFindMetaImage(t *testing.T) {
	html := `<html><head><meta property="og:image" content="//cdn.example/pic.png"></head></html>`
	if got := findMetaImage(html); got != "https://cdn.example/pic.png" {
		t.Errorf("got %q", got)
	}
	if got := findMetaImage("<html></html>"); got != "" {
		t.Errorf("got %q for page without meta image", got)
	}
}
