// Package gateway turns a research query into a bounded set of
// (url, text) items, deepening thin search snippets by extracting the
// page body.
package gateway

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"

	"github.com/factlens/research_radar/internal/llm"
	"github.com/factlens/research_radar/internal/logger"
	"github.com/factlens/research_radar/internal/model"
	"github.com/factlens/research_radar/internal/search"
)

const (
	maxSearchResults = 15
	maxItems         = 6
	minSnippetLen    = 500  // below this, try fetching the full page
	minContentLen    = 100  // below this, the item is useless
	maxContentLen    = 5000 // truncate to keep prompts bounded
	deepenTimeout    = 30 * time.Second
)

// Deepener fetches the readable body of a single page.
type Deepener func(url string) (string, error)

// Gateway is the content-fetch boundary of the pipeline.
type Gateway struct {
	searcher search.Searcher
	deepen   Deepener
	policy   llm.Policy
}

// New builds a Gateway over the given search provider. Searches run
// through the retry policy like every other external call.
func New(searcher search.Searcher, policy llm.Policy) *Gateway {
	return &Gateway{searcher: searcher, deepen: fetchAndCleanContent, policy: policy}
}

// NewWithDeepener is New with a custom page fetcher, for tests.
func NewWithDeepener(searcher search.Searcher, deepen Deepener, policy llm.Policy) *Gateway {
	return &Gateway{searcher: searcher, deepen: deepen, policy: policy}
}

// Fetch runs the search and returns usable items. A rate-limited
// provider is retried under the policy and surfaces as
// ErrRateLimitExceeded once the budget is spent, so the queue can
// re-enqueue the job; other provider errors are returned as-is. Thin or
// unusable results degrade silently.
func (g *Gateway) Fetch(ctx context.Context, query string) ([]model.FetchedItem, error) {
	req := &search.Request{
		Query:      query,
		Topic:      "news",
		MaxResults: maxSearchResults,
	}

	var resp *search.Response
	err := llm.Invoke(ctx, g.policy, func() error {
		r, err := g.searcher.Search(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	var items []model.FetchedItem
	for _, r := range resp.Results {
		content := r.Content
		if len(content) < minSnippetLen {
			fetched, err := g.deepen(r.URL)
			if err == nil && len(fetched) > len(content) {
				content = fetched
			} else if err != nil {
				logger.Log.Warnf("page fetch failed, keeping snippet [%s]: %v", r.URL, err)
			}
		}
		if len(content) > maxContentLen {
			content = truncateToRune(content, maxContentLen)
		}
		if len(content) < minContentLen {
			continue
		}
		items = append(items, model.FetchedItem{URL: r.URL, Text: content})
		if len(items) >= maxItems {
			break
		}
	}

	return items, nil
}

// truncateToRune cuts s at no more than max bytes without splitting a
// multi-byte rune.
func truncateToRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func fetchAndCleanContent(url string) (string, error) {
	article, err := readability.FromURL(url, deepenTimeout)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}
