package scraper

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

const (
	staticUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	staticBodyLimit = 1 << 20
)

// Static fetches plain pages without a browser. Used for company sites
// and anything else that renders server side.
type Static struct {
	client *http.Client
}

// NewStatic creates a Static fetcher with sensible timeouts.
func NewStatic() *Static {
	return &Static{
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

// Fetch downloads a page and returns its visible text, one trimmed line
// per text chunk.
func (s *Static) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", eris.Wrap(err, "scraper: create request")
	}
	req.Header.Set("User-Agent", staticUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "scraper: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", eris.Errorf("scraper: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, staticBodyLimit))
	if err != nil {
		return "", eris.Wrap(err, "scraper: parse HTML")
	}

	doc.Find("script, style, nav, footer, noscript").Remove()
	return flattenText(doc.Find("body").Text()), nil
}

// flattenText splits page text into trimmed lines, breaking on runs of
// double spaces, and drops empty chunks.
func flattenText(text string) string {
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		for _, phrase := range strings.Split(strings.TrimSpace(line), "  ") {
			if p := strings.TrimSpace(phrase); p != "" {
				chunks = append(chunks, p)
			}
		}
	}
	return strings.Join(chunks, "\n")
}
