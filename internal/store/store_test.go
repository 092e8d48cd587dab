package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/factlens/research_radar/internal/gateway"
	"github.com/factlens/research_radar/internal/llm"
	"github.com/factlens/research_radar/internal/model"
	"github.com/factlens/research_radar/internal/search"
	"github.com/factlens/research_radar/internal/workflow"
)

type fakeRunner struct {
	mu      sync.Mutex
	calls   []string
	errs    []error // consumed one per call, nil entries succeed
	blocked chan struct{}
	release chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context, query, slug string) (*model.Report, error) {
	f.mu.Lock()
	n := len(f.calls)
	f.calls = append(f.calls, slug)
	var err error
	if n < len(f.errs) {
		err = f.errs[n]
	}
	f.mu.Unlock()

	if f.blocked != nil {
		f.blocked <- struct{}{}
		<-f.release
	}
	if err != nil {
		return nil, err
	}
	return &model.Report{
		Article: model.Article{
			ID:      int64(n + 1),
			Title:   "Report " + query,
			Slug:    slug,
			Content: fmt.Sprintf("run %d", n+1),
		},
	}, nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestEnqueueAtMostOneJobPerSlug(t *testing.T) {
	runner := &fakeRunner{blocked: make(chan struct{}), release: make(chan struct{})}
	s := New(runner, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	for i := 0; i < 5; i++ {
		s.Enqueue("city council budget vote", false)
	}
	<-runner.blocked

	// In flight now; further unforced enqueues are no-ops.
	for i := 0; i < 5; i++ {
		s.Enqueue("city council budget vote", false)
	}
	if st := s.Stats(); st.Queued != 0 {
		t.Errorf("queued = %d, want 0", st.Queued)
	}
	close(runner.release)

	waitFor(t, "report cached", func() bool {
		_, status := s.GetReport("city-council-budget-vote")
		return status == StatusReady
	})
	if got := runner.callCount(); got != 1 {
		t.Errorf("runner called %d times, want 1", got)
	}
	// Cached now; unforced enqueue stays a no-op.
	s.Enqueue("city council budget vote", false)
	time.Sleep(20 * time.Millisecond)
	if got := runner.callCount(); got != 1 {
		t.Errorf("runner called %d times after cached enqueue, want 1", got)
	}
}

func TestGetReportStates(t *testing.T) {
	runner := &fakeRunner{blocked: make(chan struct{}), release: make(chan struct{})}
	s := New(runner, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	if _, status := s.GetReport("nothing-here"); status != StatusNotFound {
		t.Errorf("status = %s, want not_found", status)
	}

	slug := s.Enqueue("pending topic", false)
	<-runner.blocked
	if _, status := s.GetReport(slug); status != StatusPending {
		t.Errorf("status = %s, want pending", status)
	}
	close(runner.release)

	waitFor(t, "report cached", func() bool {
		_, status := s.GetReport(slug)
		return status == StatusReady
	})
	report, _ := s.GetReport(slug)
	if report.Article.Slug != slug {
		t.Errorf("report slug = %q", report.Article.Slug)
	}
}

func TestForcedRegenerationReplacesEntry(t *testing.T) {
	runner := &fakeRunner{}
	s := New(runner, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	slug := s.Enqueue("hot topic", true)
	waitFor(t, "first run", func() bool { return runner.callCount() >= 1 })
	waitFor(t, "first report", func() bool {
		_, status := s.GetReport(slug)
		return status == StatusReady
	})

	s.Enqueue("hot topic", true)
	waitFor(t, "second run", func() bool { return runner.callCount() == 2 })
	waitFor(t, "replaced report", func() bool {
		report, _ := s.GetReport(slug)
		return report != nil && report.Article.Content == "run 2"
	})
}

func TestRateLimitedJobReEnqueued(t *testing.T) {
	rateErr := fmt.Errorf("%w after 3 attempts", llm.ErrRateLimitExceeded)
	runner := &fakeRunner{errs: []error{rateErr, nil}}
	s := New(runner, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	slug := s.Enqueue("rate limited topic", false)
	waitFor(t, "retry to succeed", func() bool {
		_, status := s.GetReport(slug)
		return status == StatusReady
	})
	if got := runner.callCount(); got != 2 {
		t.Errorf("runner called %d times, want 2", got)
	}
}

func TestFatalJobDropped(t *testing.T) {
	runner := &fakeRunner{errs: []error{errors.New("validation failed")}}
	s := New(runner, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	slug := s.Enqueue("broken topic", false)
	waitFor(t, "job processed", func() bool { return runner.callCount() == 1 })
	waitFor(t, "job dropped", func() bool {
		_, status := s.GetReport(slug)
		return status == StatusNotFound
	})
	if got := runner.callCount(); got != 1 {
		t.Errorf("runner called %d times, want 1", got)
	}
}

type scriptedSearcher struct {
	mu    sync.Mutex
	calls int
	errs  []error // consumed one per call, nil entries succeed
	resp  *search.Response
}

func (c *scriptedSearcher) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	c.mu.Lock()
	n := c.calls
	c.calls++
	c.mu.Unlock()
	if n < len(c.errs) && c.errs[n] != nil {
		return nil, c.errs[n]
	}
	return c.resp, nil
}

func (c *scriptedSearcher) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, kind model.SectionKind, query string, fetched []model.FetchedItem) (any, error) {
	switch kind {
	case model.KindNarrative:
		return model.Article{Title: "Report " + query, Content: "Generated narrative."}, nil
	case model.KindSummary:
		return model.ExecutiveSummary{Points: []string{"a", "b", "c", "d"}}, nil
	case model.KindTimeline:
		return []model.TimelineItem{}, nil
	case model.KindSources:
		return []model.CitedSource{}, nil
	case model.KindFacts:
		return []model.RawFacts{}, nil
	case model.KindPerspectives:
		return []model.Perspective{}, nil
	default:
		return []model.Conflict{}, nil
	}
}

type stubFinder struct{}

func (stubFinder) Find(ctx context.Context, query, category string) string { return "" }

// A provider 429 during research must exhaust the retry budget, surface
// as a rate-limit failure, and put the job back on the queue rather
// than dropping it.
func TestRateLimitedSearchReEnqueuesJob(t *testing.T) {
	rateErr := errors.New("tavily api error (status 429): too many requests")
	searcher := &scriptedSearcher{
		errs: []error{rateErr, rateErr, rateErr, nil},
		resp: &search.Response{Results: []search.Result{
			{URL: "https://a.example", Content: strings.Repeat("x", 600)},
		}},
	}
	gw := gateway.NewWithDeepener(searcher, nil, llm.Policy{MaxRetries: 3, BaseDelay: time.Millisecond})
	engine := workflow.New(gw, stubGenerator{}, stubFinder{})
	s := New(engine, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	slug := s.Enqueue("rate limited research", false)
	waitFor(t, "re-enqueued job to succeed", func() bool {
		_, status := s.GetReport(slug)
		return status == StatusReady
	})
	// First job burns the 3-call search budget, second job succeeds on
	// its first call.
	if got := searcher.callCount(); got != 4 {
		t.Errorf("search called %d times, want 4", got)
	}
}

func TestConsistencyScanRegeneratesIncompleteReports(t *testing.T) {
	runner := &fakeRunner{}
	s := New(runner, 0, nil)
	s.Preload(map[string]*model.Report{
		"broken-topic": {Article: model.Article{ID: 9, Title: "Broken Topic", Slug: "broken-topic"}},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	waitFor(t, "regeneration", func() bool {
		report, _ := s.GetReport("broken-topic")
		return report != nil && report.Article.Content == "run 1"
	})
	if got := runner.callCount(); got != 1 {
		t.Errorf("runner called %d times, want 1", got)
	}
}

type fakePersister struct {
	mu    sync.Mutex
	saved []string
}

func (f *fakePersister) SaveReport(ctx context.Context, report *model.Report) error {
	f.mu.Lock()
	f.saved = append(f.saved, report.Article.Slug)
	f.mu.Unlock()
	return nil
}

func TestWriteThroughPersistence(t *testing.T) {
	runner := &fakeRunner{}
	persist := &fakePersister{}
	s := New(runner, 0, persist)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	slug := s.Enqueue("durable topic", false)
	waitFor(t, "write-through", func() bool {
		persist.mu.Lock()
		defer persist.mu.Unlock()
		return len(persist.saved) == 1 && persist.saved[0] == slug
	})
}
