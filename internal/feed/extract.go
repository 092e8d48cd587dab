package feed

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/factlens/research_radar/internal/logger"
)

const (
	extractTimeout = 5 * time.Second
	maxPageBytes   = 512 * 1024
)

// The social-card tags appear in either attribute order.
var metaImageRes = []*regexp.Regexp{
	regexp.MustCompile(`<meta[^>]+property=["']og:image["'][^>]+content=["']([^"']+)["']`),
	regexp.MustCompile(`<meta[^>]+content=["']([^"']+)["'][^>]+property=["']og:image["']`),
	regexp.MustCompile(`<meta[^>]+name=["']twitter:image["'][^>]+content=["']([^"']+)["']`),
	regexp.MustCompile(`<meta[^>]+content=["']([^"']+)["'][^>]+name=["']twitter:image["']`),
}

// PageImageExtractor pulls the social-card image URL out of an article
// page. Best effort; any failure yields an empty string.
func PageImageExtractor(client *http.Client) Extractor {
	if client == nil {
		client = &http.Client{Timeout: extractTimeout}
	}
	return func(ctx context.Context, pageURL string) string {
		if !strings.HasPrefix(pageURL, "http") {
			return ""
		}
		req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
		if err != nil {
			return ""
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

		res, err := client.Do(req)
		if err != nil {
			logger.Log.Warnf("image extraction failed [%s]: %v", pageURL, err)
			return ""
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return ""
		}

		body, err := io.ReadAll(io.LimitReader(res.Body, maxPageBytes))
		if err != nil {
			return ""
		}
		return findMetaImage(string(body))
	}
}

func findMetaImage(html string) string {
	for _, re := range metaImageRes {
		if m := re.FindStringSubmatch(html); m != nil {
			img := m[1]
			if strings.HasPrefix(img, "//") {
				img = "https:" + img
			}
			if strings.HasPrefix(img, "http") {
				return img
			}
		}
	}
	return ""
}
