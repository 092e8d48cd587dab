// Package store owns the generation cache and the single-worker job
// queue. One background worker processes jobs sequentially so the
// external rate limit is respected holistically, not per call.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/factlens/research_radar/internal/assemble"
	"github.com/factlens/research_radar/internal/llm"
	"github.com/factlens/research_radar/internal/logger"
	"github.com/factlens/research_radar/internal/model"
)

// Runner is satisfied by *workflow.Engine.
type Runner interface {
	Run(ctx context.Context, query, slug string) (*model.Report, error)
}

// Persister writes completed reports through to durable storage.
// Optional; a nil Persister disables write-through.
type Persister interface {
	SaveReport(ctx context.Context, report *model.Report) error
}

// Status is the read-path answer for a slug.
type Status string

const (
	StatusReady    Status = "ready"
	StatusPending  Status = "pending"
	StatusNotFound Status = "not_found"
)

// Stats is a point-in-time view of the queue and cache.
type Stats struct {
	Queued   int    `json:"queued"`
	Cached   int    `json:"cached"`
	InFlight string `json:"inFlight,omitempty"`
}

type job struct {
	query string
	slug  string
	force bool
}

// Service is the process-wide cache/queue. Construct once, Start once.
// The worker goroutine is the only cache writer.
type Service struct {
	runner        Runner
	persist       Persister
	interJobDelay time.Duration

	mu       sync.Mutex
	cache    map[string]*model.Report
	queue    []job
	queued   map[string]struct{}
	inFlight string

	wake chan struct{}
}

// New builds the service. Call Start before enqueueing work.
func New(runner Runner, interJobDelay time.Duration, persist Persister) *Service {
	return &Service{
		runner:        runner,
		persist:       persist,
		interJobDelay: interJobDelay,
		cache:         make(map[string]*model.Report),
		queued:        make(map[string]struct{}),
		wake:          make(chan struct{}, 1),
	}
}

// Preload seeds the cache before Start, e.g. from durable storage.
// The consistency scan at Start picks up any seeded entry that is
// structurally incomplete.
func (s *Service) Preload(reports map[string]*model.Report) {
	s.mu.Lock()
	for slug, report := range reports {
		s.cache[slug] = report
	}
	s.mu.Unlock()
}

// Start launches the worker. It runs until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.ScanConsistency()
	go s.work(ctx)
}

// Enqueue requests report generation for query and returns its slug.
// Unforced enqueue is a no-op when the slug is already cached, queued,
// or in flight; forced enqueue only dedups against the queue itself.
func (s *Service) Enqueue(query string, force bool) string {
	slug := model.Slugify(query)
	s.enqueueJob(job{query: query, slug: slug, force: force})
	return slug
}

func (s *Service) enqueueJob(j job) {
	s.mu.Lock()
	_, isQueued := s.queued[j.slug]
	_, isCached := s.cache[j.slug]
	skip := isQueued || (!j.force && (isCached || s.inFlight == j.slug))
	if !skip {
		s.queue = append(s.queue, j)
		s.queued[j.slug] = struct{}{}
	}
	s.mu.Unlock()

	if skip {
		logger.Log.Infof("enqueue skipped [%s]: already cached or queued", j.slug)
		return
	}
	logger.Log.Infof("enqueued [%s] force=%v", j.slug, j.force)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// GetReport returns the cached report, or a pending/not-found signal.
// It never fails for a missing slug.
func (s *Service) GetReport(slug string) (*model.Report, Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if report, ok := s.cache[slug]; ok {
		return report, StatusReady
	}
	if _, ok := s.queued[slug]; ok || s.inFlight == slug {
		return nil, StatusPending
	}
	return nil, StatusNotFound
}

// Stats reports queue and cache sizes for operational visibility.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Queued: len(s.queue), Cached: len(s.cache), InFlight: s.inFlight}
}

// ScanConsistency re-enqueues every cached report that no longer passes
// structural validation, with force set. Self-healing against
// generators that degraded silently.
func (s *Service) ScanConsistency() {
	s.mu.Lock()
	var stale []job
	for slug, report := range s.cache {
		if !assemble.IsComplete(report) {
			stale = append(stale, job{query: report.Article.Title, slug: slug, force: true})
		}
	}
	s.mu.Unlock()

	for _, j := range stale {
		logger.Log.Warnf("cached report incomplete, regenerating [%s]", j.slug)
		s.enqueueJob(j)
	}
}

func (s *Service) work(ctx context.Context) {
	for {
		j, ok := s.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
				continue
			}
		}

		s.process(ctx, j)

		if s.interJobDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.interJobDelay):
			}
		}
	}
}

func (s *Service) pop() (job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return job{}, false
	}
	j := s.queue[0]
	s.queue = s.queue[1:]
	delete(s.queued, j.slug)
	s.inFlight = j.slug
	return j, true
}

func (s *Service) process(ctx context.Context, j job) {
	defer func() {
		s.mu.Lock()
		s.inFlight = ""
		s.mu.Unlock()
	}()

	if !j.force {
		s.mu.Lock()
		_, cached := s.cache[j.slug]
		s.mu.Unlock()
		if cached {
			logger.Log.Infof("skipping cached job [%s]", j.slug)
			return
		}
	}

	report, err := s.runner.Run(ctx, j.query, j.slug)
	if err != nil {
		if errors.Is(err, llm.ErrRateLimitExceeded) {
			logger.Log.Warnf("rate limited, re-enqueueing [%s]", j.slug)
			s.mu.Lock()
			s.queue = append(s.queue, j)
			s.queued[j.slug] = struct{}{}
			s.mu.Unlock()
			return
		}
		logger.Log.Errorf("generation failed, dropping job [%s]: %v", j.slug, err)
		return
	}

	s.mu.Lock()
	s.cache[j.slug] = report
	s.mu.Unlock()
	logger.Log.Infof("report cached [%s]", j.slug)

	if s.persist != nil {
		if err := s.persist.SaveReport(ctx, report); err != nil {
			logger.Log.Errorf("report persistence failed [%s]: %v", j.slug, err)
		}
	}
}
