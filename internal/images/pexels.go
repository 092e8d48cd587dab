// Package images resolves advisory image references. Lookups are best
// effort: every failure degrades to a category placeholder, never an
// error.
package images

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/factlens/research_radar/internal/logger"
)

// HeroPlaceholder is used when no hero image can be found.
const HeroPlaceholder = "https://images.pexels.com/photos/12345/research-image.jpg"

// SourcePlaceholder is used when no image can be found for a cited source.
const SourcePlaceholder = "https://p-cdn.com/generic-source-logo.png"

// Finder locates an image reference for a query.
type Finder interface {
	Find(ctx context.Context, query, category string) string
}

const pexelsBaseURL = "https://api.pexels.com/v1/search"

// PexelsClient is a Pexels photo-search client.
type PexelsClient struct {
	apiKey string
	client *http.Client
}

// NewPexelsClient creates a Pexels client. An empty apiKey yields a
// client that always falls back to placeholders.
func NewPexelsClient(apiKey string) *PexelsClient {
	return &PexelsClient{
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

var _ Finder = (*PexelsClient)(nil)

type pexelsResponse struct {
	Photos []struct {
		Src struct {
			Original string `json:"original"`
		} `json:"src"`
	} `json:"photos"`
}

// Find returns the first photo URL for query, or the category fallback.
func (c *PexelsClient) Find(ctx context.Context, query, category string) string {
	if c.apiKey == "" {
		return Fallback(category)
	}

	u := fmt.Sprintf("%s?query=%s&page=1&per_page=5", pexelsBaseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return Fallback(category)
	}
	req.Header.Set("Authorization", c.apiKey)

	res, err := c.client.Do(req)
	if err != nil {
		logger.Log.Warnf("pexels request failed [%s]: %v", query, err)
		return Fallback(category)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		logger.Log.Warnf("pexels api error [%s]: status %d", query, res.StatusCode)
		return Fallback(category)
	}

	var pr pexelsResponse
	if err := json.NewDecoder(res.Body).Decode(&pr); err != nil || len(pr.Photos) == 0 {
		return Fallback(category)
	}
	return pr.Photos[0].Src.Original
}
