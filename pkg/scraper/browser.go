package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultScrapeTimeout = 90 * time.Second
	minSectionChars      = 10
	maxRecentPosts       = 5
)

// profileSections are the detail sub-pages scraped for every profile, in
// the order they appear in the assembled text.
var profileSections = []struct {
	name string
	slug string
}{
	{"Experience", "experience"},
	{"Education", "education"},
	{"Skills", "skills"},
	{"Certifications", "certifications"},
}

// Browser is a chromedp-backed Scraper holding one persistent headless
// Chrome session across a whole batch.
type Browser struct {
	log        *zap.Logger
	limiter    *rate.Limiter
	authCookie string
	headless   bool
	timeout    time.Duration

	browserCtx  context.Context
	allocCancel context.CancelFunc
	ctxCancel   context.CancelFunc

	static *Static
}

// BrowserOption configures a Browser.
type BrowserOption func(*Browser)

// WithAuthCookie sets the li_at session cookie applied after the first
// navigation. Without it most profile pages answer with an auth wall.
func WithAuthCookie(cookie string) BrowserOption {
	return func(b *Browser) { b.authCookie = cookie }
}

// WithHeadless toggles headless mode. Default is true.
func WithHeadless(headless bool) BrowserOption {
	return func(b *Browser) { b.headless = headless }
}

// WithScrapeTimeout overrides the per-profile deadline.
func WithScrapeTimeout(d time.Duration) BrowserOption {
	return func(b *Browser) { b.timeout = d }
}

// WithRateLimit paces profile navigations to at most one per interval.
func WithRateLimit(interval time.Duration) BrowserOption {
	return func(b *Browser) { b.limiter = rate.NewLimiter(rate.Every(interval), 1) }
}

// NewBrowser creates a Browser. Call Init before Scrape.
func NewBrowser(log *zap.Logger, opts ...BrowserOption) *Browser {
	b := &Browser{
		log:      log,
		limiter:  rate.NewLimiter(rate.Every(4*time.Second), 1),
		headless: true,
		timeout:  defaultScrapeTimeout,
		static:   NewStatic(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Init launches the Chrome session and applies the auth cookie. Safe to
// call twice; the second call is a no-op.
func (b *Browser) Init(ctx context.Context) error {
	if b.browserCtx != nil {
		return nil
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", b.headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	browserCtx, ctxCancel := chromedp.NewContext(allocCtx)

	b.log.Info("initializing browser session", zap.Bool("headless", b.headless))

	actions := []chromedp.Action{
		chromedp.Navigate("https://www.linkedin.com"),
		chromedp.WaitReady("body"),
	}
	if b.authCookie != "" {
		cookie := fmt.Sprintf("li_at=%s; domain=.linkedin.com; path=/; secure", b.authCookie)
		actions = append(actions,
			chromedp.Evaluate(fmt.Sprintf("document.cookie = %q", cookie), nil),
			chromedp.Reload(),
			chromedp.WaitReady("body"),
		)
	}
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		ctxCancel()
		allocCancel()
		return eris.Wrap(err, "scraper: init browser")
	}

	b.browserCtx = browserCtx
	b.allocCancel = allocCancel
	b.ctxCancel = ctxCancel
	return nil
}

// Close shuts the Chrome session down.
func (b *Browser) Close() error {
	if b.ctxCancel != nil {
		b.ctxCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	b.browserCtx = nil
	b.log.Info("browser session closed")
	return nil
}

// Scrape fetches page text for a URL. Profile URLs go through the browser
// session; other pages use the static fetcher. Failures are returned as
// sentinel text, not errors, so a batch can record them per row.
func (b *Browser) Scrape(ctx context.Context, rawURL string) (string, error) {
	url, err := NormalizeURL(rawURL)
	if err != nil {
		return "Error: " + err.Error(), nil
	}

	if !IsProfileURL(url) {
		text, err := b.static.Fetch(ctx, url)
		if err != nil {
			return fmt.Sprintf("Error: failed to fetch %s: %v", url, err), nil
		}
		return text, nil
	}

	if b.browserCtx == nil {
		return "", eris.New("scraper: browser not initialized")
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "scraper: rate limit wait")
	}

	text, err := b.scrapeProfile(url)
	if err != nil {
		b.log.Warn("profile scrape failed", zap.String("url", url), zap.Error(err))
		return fmt.Sprintf("Error scraping profile: %v", err), nil
	}
	return text, nil
}

func (b *Browser) scrapeProfile(url string) (string, error) {
	ctx, cancel := context.WithTimeout(b.browserCtx, b.timeout)
	defer cancel()

	var location string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
		chromedp.Location(&location),
	)
	if err != nil {
		return "", eris.Wrapf(err, "navigate %s", url)
	}
	if strings.Contains(location, "authwall") || strings.Contains(location, "signup") {
		return AuthWall, nil
	}

	// Expand collapsed text before reading anything.
	_ = chromedp.Run(ctx,
		chromedp.Evaluate(`document.querySelectorAll('.inline-show-more-text__button, .pv-profile-section__see-more-inline').forEach(b => b.click())`, nil),
		chromedp.Sleep(1*time.Second),
	)

	base := strings.TrimSuffix(strings.SplitN(url, "?", 2)[0], "/")

	var sections strings.Builder
	for _, s := range profileSections {
		content, err := b.scrapeSection(ctx, base, s.slug)
		if err != nil {
			b.log.Warn("section scrape failed",
				zap.String("section", s.name), zap.Error(err))
			continue
		}
		if len(strings.TrimSpace(content)) < minSectionChars {
			continue
		}
		fmt.Fprintf(&sections, "=== %s ===\n%s\n\n", strings.ToUpper(s.name), content)
	}

	header, err := b.scrapeHeader(ctx, url)
	if err != nil {
		return "", eris.Wrap(err, "profile header")
	}

	posts := b.scrapePosts(ctx, base)

	var out strings.Builder
	out.WriteString("=== PROFILE HEADER ===\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(sections.String())
	out.WriteString("=== RECENT_POSTS ===\n")
	out.WriteString(posts)
	return out.String(), nil
}

// scrapeSection loads a details sub-page and returns its main-column text.
// An empty string means the section does not exist for this profile.
func (b *Browser) scrapeSection(ctx context.Context, base, slug string) (string, error) {
	sectionURL := fmt.Sprintf("%s/details/%s/", base, slug)

	var location, title string
	err := chromedp.Run(ctx,
		chromedp.Navigate(sectionURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(1*time.Second),
		chromedp.Location(&location),
		chromedp.Title(&title),
	)
	if err != nil {
		return "", eris.Wrapf(err, "section %s", slug)
	}
	// Redirect back to the profile means the section is empty.
	if strings.TrimSuffix(location, "/") == base || strings.Contains(title, "404") {
		return "", nil
	}

	return b.innerText(ctx, ".scaffold-layout__main")
}

// scrapeHeader returns the top-card text plus the About section when present.
func (b *Browser) scrapeHeader(ctx context.Context, url string) (string, error) {
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return "", eris.Wrapf(err, "navigate %s", url)
	}

	var header strings.Builder
	top, err := b.innerText(ctx, ".pv-top-card")
	if err != nil {
		return "", err
	}
	header.WriteString(top)
	header.WriteString("\n")

	about, err := b.innerText(ctx, "div.pv-shared-text-with-see-more")
	if err == nil && strings.TrimSpace(about) != "" {
		header.WriteString("=== ABOUT ===\n")
		header.WriteString(about)
	}
	return header.String(), nil
}

// scrapePosts collects up to five recent feed items, dropping engagement
// counter lines. Never fails; post scraping is best effort.
func (b *Browser) scrapePosts(ctx context.Context, base string) string {
	postsURL := base + "/recent-activity/all/"

	err := chromedp.Run(ctx,
		chromedp.Navigate(postsURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(1*time.Second),
	)
	if err != nil {
		b.log.Warn("could not load recent posts", zap.Error(err))
		return "(No recent posts found)"
	}

	var raw []string
	js := fmt.Sprintf(`(() => {
		const selectors = [
			'li.profile-creator-shared-feed-update__container',
			'div.feed-shared-update-v2',
			'div.occludable-update',
		];
		for (const sel of selectors) {
			const items = document.querySelectorAll(sel);
			if (items.length) {
				return Array.from(items).slice(0, %d).map(el => el.innerText);
			}
		}
		return [];
	})()`, maxRecentPosts)
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &raw)); err != nil || len(raw) == 0 {
		return "(No recent posts found)"
	}

	posts := make([]string, 0, len(raw))
	for _, item := range raw {
		var lines []string
		for _, line := range strings.Split(strings.TrimSpace(item), "\n") {
			lower := strings.ToLower(line)
			if strings.Contains(lower, "likes") || strings.Contains(lower, "comments") ||
				strings.Contains(lower, "repost") || strings.Contains(lower, "followers") {
				continue
			}
			lines = append(lines, line)
		}
		if post := strings.TrimSpace(strings.Join(lines, "\n")); post != "" {
			posts = append(posts, post)
		}
	}
	if len(posts) == 0 {
		return "(No recent posts found)"
	}
	return strings.Join(posts, "\n---\n")
}

func (b *Browser) innerText(ctx context.Context, selector string) (string, error) {
	js := fmt.Sprintf(`(() => { const el = document.querySelector(%q); return el ? el.innerText : ""; })()`, selector)
	var text string
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &text)); err != nil {
		return "", eris.Wrapf(err, "read %s", selector)
	}
	return text, nil
}
