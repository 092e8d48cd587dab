// Package workflow runs the report generation pipeline for one query:
// research, content fetch, a concurrent fan-out of section generators,
// image attachment, then aggregation into a validated report.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/factlens/research_radar/internal/assemble"
	"github.com/factlens/research_radar/internal/decode"
	"github.com/factlens/research_radar/internal/dedup"
	"github.com/factlens/research_radar/internal/images"
	"github.com/factlens/research_radar/internal/logger"
	"github.com/factlens/research_radar/internal/model"
)

// Fetcher is satisfied by *gateway.Gateway.
type Fetcher interface {
	Fetch(ctx context.Context, query string) ([]model.FetchedItem, error)
}

// SectionGenerator is satisfied by *sections.Generator.
type SectionGenerator interface {
	Generate(ctx context.Context, kind model.SectionKind, query string, fetched []model.FetchedItem) (any, error)
}

// Engine drives one run per query. Safe for concurrent Run calls; all
// per-run state lives on the stack.
type Engine struct {
	fetcher Fetcher
	gen     SectionGenerator
	finder  images.Finder
}

// New builds an Engine over the pipeline's collaborators.
func New(fetcher Fetcher, gen SectionGenerator, finder images.Finder) *Engine {
	return &Engine{fetcher: fetcher, gen: gen, finder: finder}
}

// state is the mutable accumulator for one run. Each generator branch
// owns exactly one key of sections; the mutex guards the single insert.
type state struct {
	mu       sync.Mutex
	sections map[model.SectionKind]any
	images   model.ImageSet
}

func (s *state) put(kind model.SectionKind, payload any) {
	s.mu.Lock()
	s.sections[kind] = payload
	s.mu.Unlock()
}

// Run executes the full pipeline and returns the assembled report.
// A fetch failure aborts the run; a failed generator branch only loses
// its section, which the assembler replaces with a placeholder.
func (e *Engine) Run(ctx context.Context, query, slug string) (*model.Report, error) {
	logger.Log.Infof("workflow start [%s]", slug)

	fetched, err := e.fetcher.Fetch(ctx, enhanceQuery(query))
	if err != nil {
		return nil, fmt.Errorf("research failed for %q: %w", slug, err)
	}
	logger.Log.Infof("fetched %d items [%s]", len(fetched), slug)

	st := &state{sections: make(map[model.SectionKind]any, len(model.AllKinds))}

	var wg sync.WaitGroup
	for _, kind := range model.AllKinds {
		wg.Add(1)
		go func(kind model.SectionKind) {
			defer wg.Done()
			payload, err := e.gen.Generate(ctx, kind, query, fetched)
			if err != nil {
				var de *decode.Error
				if errors.As(err, &de) {
					logger.Log.Warnf("section %s undecodable [%s]: %v", kind, slug, err)
				} else {
					logger.Log.Errorf("section %s failed [%s]: %v", kind, slug, err)
				}
				return
			}
			st.put(kind, payload)
			if kind == model.KindSources {
				e.attachImages(ctx, query, st)
			}
		}(kind)
	}
	wg.Wait()

	report := assemble.Build(assemble.Input{
		Query:       query,
		Slug:        slug,
		Sections:    st.sections,
		Images:      st.images,
		SourceCount: len(fetched),
	})
	dedup.Deduplicate(report)
	dedup.Verify(report)
	if err := assemble.Validate(report); err != nil {
		return nil, err
	}

	logger.Log.Infof("workflow complete [%s], %d/%d sections generated", slug, len(st.sections), len(model.AllKinds))
	return report, nil
}

// attachImages runs once, from the Sources branch, after its payload is
// merged. It is the sole writer of st.images.
func (e *Engine) attachImages(ctx context.Context, query string, st *state) {
	st.mu.Lock()
	srcs, _ := st.sections[model.KindSources].([]model.CitedSource)
	category := "general"
	if a, ok := st.sections[model.KindNarrative].(model.Article); ok && a.Category != "" {
		category = a.Category
	}
	st.mu.Unlock()

	set := model.ImageSet{
		HeroImage:    e.finder.Find(ctx, query, category),
		SourceImages: make([]string, len(srcs)),
	}
	for i, s := range srcs {
		set.SourceImages[i] = e.finder.Find(ctx, s.Name, category)
	}

	st.mu.Lock()
	st.images = set
	st.mu.Unlock()
}

// enhanceQuery focuses the search request on recent reporting.
func enhanceQuery(query string) string {
	return query + " latest news facts timeline"
}
