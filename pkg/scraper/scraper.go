// Package scraper collects profile and company page text for the outreach
// pipeline. Profile pages need a real browser session; everything else is
// fetched statically. Scrape-level failures travel in-band as sentinel text
// ("Error: ..." or "Auth Wall") so batch processing can record them per row
// instead of aborting.
package scraper

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// AuthWall is returned when the target site answers with a login wall
// instead of the profile. Callers may retry once after a pause.
const AuthWall = "Auth Wall"

const errorPrefix = "Error"

// Scraper fetches page text for a URL. Implementations keep a persistent
// session between calls; Init must be called before Scrape.
type Scraper interface {
	Init(ctx context.Context) error
	Scrape(ctx context.Context, url string) (string, error)
	Close() error
}

// IsAuthWall reports whether scraped text is the login-wall sentinel.
func IsAuthWall(text string) bool {
	return strings.TrimSpace(text) == AuthWall
}

// IsFailure reports whether scraped text is a failure sentinel rather
// than page content.
func IsFailure(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, errorPrefix) || t == AuthWall
}

// NormalizeURL trims a raw URL, prepends https:// when the scheme is
// missing, and rejects values too short to be a real address.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", eris.New("invalid URL provided")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	if !strings.Contains(raw, ".") || len(raw) <= 10 {
		return "", eris.Errorf("URL appears invalid: %s", raw)
	}
	return raw, nil
}

// IsProfileURL reports whether a URL points at an individual profile page
// (the kind that needs the browser session).
func IsProfileURL(url string) bool {
	return strings.Contains(url, "linkedin.com/in/")
}
