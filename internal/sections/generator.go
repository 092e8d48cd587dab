// Package sections produces one typed report section per kind by
// prompting the text-generation backend and decoding its output.
package sections

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/factlens/research_radar/internal/decode"
	"github.com/factlens/research_radar/internal/model"
)

// Completer is satisfied by *llm.Client.
type Completer interface {
	Complete(ctx context.Context, system, user string, history ...*schema.Message) (string, error)
}

// Generator turns fetched content into section payloads.
type Generator struct {
	client Completer
}

// NewGenerator builds a Generator over the rate-limited backend client.
func NewGenerator(client Completer) *Generator {
	return &Generator{client: client}
}

// Generate produces the payload for one section kind. The returned
// value's concrete type depends on kind (see decodePayload). A
// *decode.Error is generator-local and never fatal to the run.
func (g *Generator) Generate(ctx context.Context, kind model.SectionKind, query string, fetched []model.FetchedItem) (any, error) {
	raw, err := g.client.Complete(ctx, writerSystemPrompt, buildUserPrompt(kind, query, fetched))
	if err != nil {
		return nil, err
	}
	return decodePayload(kind, raw)
}

func decodePayload(kind model.SectionKind, raw string) (any, error) {
	switch kind {
	case model.KindNarrative:
		var v model.Article
		if err := decode.Lenient(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case model.KindSummary:
		var v model.ExecutiveSummary
		if err := decode.Lenient(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case model.KindTimeline:
		var v []model.TimelineItem
		if err := decode.Lenient(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case model.KindSources:
		var v []model.CitedSource
		if err := decode.Lenient(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case model.KindFacts:
		var v []model.RawFacts
		if err := decode.Lenient(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case model.KindPerspectives:
		var v []model.Perspective
		if err := decode.Lenient(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case model.KindConflicts:
		var v []model.Conflict
		if err := decode.Lenient(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown section kind: %s", kind)
	}
}
