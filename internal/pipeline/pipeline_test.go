package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/generate"
	"github.com/sells-group/outreach-cli/internal/model"
)

const profileText = `=== PROFILE HEADER ===
Jane Doe
Senior Engineer at Acme Corp
Building data platforms for enterprise customers
=== EXPERIENCE ===
Acme Corp · Full-time
`

const profileURL = "https://www.linkedin.com/in/jane-doe-9f3a1"

type fakeScraper struct {
	texts     []string
	calls     int
	initCalls int
}

func (f *fakeScraper) Init(context.Context) error { f.initCalls++; return nil }
func (f *fakeScraper) Close() error               { return nil }

func (f *fakeScraper) Scrape(_ context.Context, _ string) (string, error) {
	i := f.calls
	f.calls++
	if i >= len(f.texts) {
		i = len(f.texts) - 1
	}
	return f.texts[i], nil
}

type fakeAnalyzer struct {
	rec   *model.ProfileRecord
	errs  []error
	calls int
}

func (f *fakeAnalyzer) Analyze(context.Context, string, string) (*model.ProfileRecord, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	rec := *f.rec
	rec.Normalize()
	return &rec, nil
}

type genCall struct {
	opts generate.Options
}

type fakeGenerator struct {
	bundles []*model.MessageBundle
	calls   []genCall
}

func (f *fakeGenerator) Campaign(_ context.Context, _ *model.ProfileRecord, _ string, opts generate.Options) (*model.MessageBundle, error) {
	i := len(f.calls)
	f.calls = append(f.calls, genCall{opts: opts})
	if i >= len(f.bundles) {
		i = len(f.bundles) - 1
	}
	if f.bundles[i] == nil {
		return nil, eris.New("generator down")
	}
	return f.bundles[i], nil
}

type savedProspect struct {
	rec  *model.ProfileRecord
	msgs *model.MessageBundle
	url  string
}

type fakeStore struct {
	prospects []model.Prospect
	saved     []savedProspect
}

func (f *fakeStore) SaveProspect(_ context.Context, rec *model.ProfileRecord, msgs *model.MessageBundle, url string) (*model.Prospect, error) {
	f.saved = append(f.saved, savedProspect{rec: rec, msgs: msgs, url: url})
	return &model.Prospect{ID: "test", Name: rec.Name}, nil
}

func (f *fakeStore) ListProspects(context.Context) ([]model.Prospect, error) {
	return f.prospects, nil
}

func (f *fakeStore) GetProspect(context.Context, string) (*model.Prospect, error) {
	return nil, nil
}

func (f *fakeStore) UpdateStatus(context.Context, string, model.ProspectStatus) error { return nil }
func (f *fakeStore) DeleteProspect(context.Context, string) error                     { return nil }
func (f *fakeStore) Stats(context.Context) (*model.KBStats, error) { return &model.KBStats{}, nil }
func (f *fakeStore) Migrate(context.Context) error                 { return nil }
func (f *fakeStore) Close() error                                  { return nil }

func goodRecord() *model.ProfileRecord {
	return &model.ProfileRecord{Name: "Jane Doe", Company: "Acme Corp", Role: "Senior Engineer"}
}

func goodBundle() *model.MessageBundle {
	return &model.MessageBundle{
		Email:    model.EmailMessage{Subject: "Quick question", Body: "Hi Jane"},
		LinkedIn: "Hello Jane",
	}
}

func newTestPipeline(s *fakeScraper, a *fakeAnalyzer, g *fakeGenerator, store *fakeStore) *Pipeline {
	var p *Pipeline
	if store == nil {
		p = New(s, a, g, nil, "engineering coaching", zap.NewNop())
	} else {
		p = New(s, a, g, store, "engineering coaching", zap.NewNop())
	}
	p.sleep = func(context.Context, time.Duration, time.Duration) error { return nil }
	p.pause = func(context.Context, time.Duration) error { return nil }
	return p
}

func TestProcessProfileSuccess(t *testing.T) {
	s := &fakeScraper{texts: []string{profileText}}
	a := &fakeAnalyzer{rec: goodRecord()}
	g := &fakeGenerator{bundles: []*model.MessageBundle{goodBundle()}}
	p := newTestPipeline(s, a, g, &fakeStore{})

	res := p.ProcessProfile(context.Background(), profileURL)

	assert.Equal(t, model.BatchStatusSuccess, res.Status)
	assert.Equal(t, "Jane Doe", res.Name)
	assert.Equal(t, "Acme Corp", res.Company)
	assert.Equal(t, "Senior Engineer", res.Role)
	assert.Equal(t, "Hi Jane", res.EmailBody)
	assert.Equal(t, "Hello Jane", res.LinkedInMsg)
}

func TestProcessTextSuccess(t *testing.T) {
	s := &fakeScraper{texts: []string{"unused"}}
	a := &fakeAnalyzer{rec: goodRecord()}
	g := &fakeGenerator{bundles: []*model.MessageBundle{goodBundle()}}
	p := newTestPipeline(s, a, g, &fakeStore{})

	res := p.ProcessText(context.Background(), profileText, "jane-doe.pdf")

	assert.Equal(t, model.BatchStatusSuccess, res.Status)
	assert.Equal(t, "jane-doe.pdf", res.URL)
	assert.Equal(t, "Jane Doe", res.Name)
	assert.Equal(t, "Hi Jane", res.EmailBody)
	assert.Zero(t, s.calls)
}

func TestProcessTextTooShort(t *testing.T) {
	p := newTestPipeline(&fakeScraper{texts: []string{"unused"}}, &fakeAnalyzer{rec: goodRecord()},
		&fakeGenerator{bundles: []*model.MessageBundle{goodBundle()}}, nil)

	res := p.ProcessText(context.Background(), "too short", "note.txt")

	assert.Equal(t, model.BatchStatusFailedScrape, res.Status)
	assert.Equal(t, "note.txt", res.URL)
}

func TestProcessProfileFailedScrape(t *testing.T) {
	s := &fakeScraper{texts: []string{"Error: URL appears invalid: foo"}}
	p := newTestPipeline(s, &fakeAnalyzer{rec: goodRecord()}, &fakeGenerator{bundles: []*model.MessageBundle{goodBundle()}}, nil)

	res := p.ProcessProfile(context.Background(), "foo")

	assert.Equal(t, model.BatchStatusFailedScrape, res.Status)
	assert.NotEmpty(t, res.Sample)
}

func TestProcessProfileAuthWallClears(t *testing.T) {
	s := &fakeScraper{texts: []string{"Auth Wall", profileText}}
	a := &fakeAnalyzer{rec: goodRecord()}
	g := &fakeGenerator{bundles: []*model.MessageBundle{goodBundle()}}
	p := newTestPipeline(s, a, g, nil)

	res := p.ProcessProfile(context.Background(), profileURL)

	assert.Equal(t, model.BatchStatusSuccess, res.Status)
	assert.Equal(t, 2, s.calls)
}

func TestProcessProfileAuthWallPersists(t *testing.T) {
	s := &fakeScraper{texts: []string{"Auth Wall", "Auth Wall"}}
	p := newTestPipeline(s, &fakeAnalyzer{rec: goodRecord()}, &fakeGenerator{bundles: []*model.MessageBundle{goodBundle()}}, nil)

	res := p.ProcessProfile(context.Background(), profileURL)

	assert.Equal(t, model.BatchStatusFailedScrape, res.Status)
	assert.Equal(t, 2, s.calls)
}

func TestProcessProfileAnalysisFails(t *testing.T) {
	s := &fakeScraper{texts: []string{profileText}}
	a := &fakeAnalyzer{
		rec:  goodRecord(),
		errs: []error{eris.New("model offline"), eris.New("model offline")},
	}
	g := &fakeGenerator{bundles: []*model.MessageBundle{goodBundle()}}
	p := newTestPipeline(s, a, g, nil)

	res := p.ProcessProfile(context.Background(), profileURL)

	assert.Equal(t, model.BatchStatusPartial, res.Status)
	assert.Equal(t, 2, a.calls)
	assert.Empty(t, g.calls, "generation must be skipped when analysis fails")
	// Cross-correction still recovers identity fields from the page text.
	assert.Equal(t, "Jane Doe", res.Name)
	assert.Empty(t, res.EmailBody)
}

func TestProcessProfileEmptyBundleRetry(t *testing.T) {
	s := &fakeScraper{texts: []string{profileText}}
	a := &fakeAnalyzer{rec: goodRecord()}
	g := &fakeGenerator{bundles: []*model.MessageBundle{{}, goodBundle()}}
	p := newTestPipeline(s, a, g, nil)

	res := p.ProcessProfile(context.Background(), profileURL)

	assert.Equal(t, model.BatchStatusSuccess, res.Status)
	assert.Len(t, g.calls, 2)
}

func TestProcessProfileHallucinationTwoStrikes(t *testing.T) {
	leaky := &model.MessageBundle{
		Email:    model.EmailMessage{Subject: "Hi", Body: "Loved your work at CloudScale, Sarah Jones!"},
		LinkedIn: "Hi Sarah",
	}
	s := &fakeScraper{texts: []string{profileText}}
	a := &fakeAnalyzer{rec: goodRecord()}
	g := &fakeGenerator{bundles: []*model.MessageBundle{leaky, leaky}}
	store := &fakeStore{prospects: []model.Prospect{{Name: "Amy Chen", Company: "Acme Corp"}}}
	p := newTestPipeline(s, a, g, store)

	res := p.ProcessProfile(context.Background(), profileURL)

	assert.Equal(t, model.BatchStatusPartial, res.Status)
	assert.Empty(t, res.EmailBody)
	assert.Empty(t, res.LinkedInMsg)

	require.Len(t, g.calls, 2)
	assert.NotEmpty(t, g.calls[0].opts.Context, "first attempt carries knowledge-base context")
	assert.Empty(t, g.calls[1].opts.Context, "regeneration must drop knowledge-base context")
}

func TestRunRetryPassUpgradesFailure(t *testing.T) {
	// Main pass fails to scrape; the retry succeeds and replaces the row.
	s := &fakeScraper{texts: []string{"Error: connection reset", profileText}}
	a := &fakeAnalyzer{rec: goodRecord()}
	g := &fakeGenerator{bundles: []*model.MessageBundle{goodBundle()}}
	store := &fakeStore{}
	p := newTestPipeline(s, a, g, store)

	summary, err := p.Run(context.Background(), []string{profileURL})
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	assert.Equal(t, model.BatchStatusSuccess, summary.Results[0].Status)
	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, summary.Saved)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "Jane Doe", store.saved[0].rec.Name)
	assert.Equal(t, profileURL, store.saved[0].url)
}

func TestRunRetryPassPartialReplacesFailedOnly(t *testing.T) {
	// Scrape recovers on retry but generation stays empty: Partial beats
	// Failed to Scrape.
	s := &fakeScraper{texts: []string{"Error: connection reset", profileText}}
	a := &fakeAnalyzer{rec: goodRecord()}
	g := &fakeGenerator{bundles: []*model.MessageBundle{{}}}
	p := newTestPipeline(s, a, g, &fakeStore{})

	summary, err := p.Run(context.Background(), []string{profileURL})
	require.NoError(t, err)

	assert.Equal(t, model.BatchStatusPartial, summary.Results[0].Status)
	assert.Equal(t, 1, summary.Partial)
	assert.Equal(t, 0, summary.Saved, "partial rows are not saved to the knowledge base")
}

type panicAnalyzer struct{}

func (panicAnalyzer) Analyze(context.Context, string, string) (*model.ProfileRecord, error) {
	panic("boom")
}

func TestRunRecoversFromPanic(t *testing.T) {
	s := &fakeScraper{texts: []string{profileText}}
	g := &fakeGenerator{bundles: []*model.MessageBundle{goodBundle()}}
	p := newTestPipeline(s, &fakeAnalyzer{rec: goodRecord()}, g, nil)
	p.analyzer = panicAnalyzer{}

	summary, err := p.Run(context.Background(), []string{profileURL})
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	assert.Contains(t, summary.Results[0].Status, "Error: boom")
	assert.Equal(t, 1, summary.Failed)
}

func TestRunCancelledContextStops(t *testing.T) {
	s := &fakeScraper{texts: []string{profileText}}
	a := &fakeAnalyzer{rec: goodRecord()}
	g := &fakeGenerator{bundles: []*model.MessageBundle{goodBundle()}}
	p := newTestPipeline(s, a, g, nil)

	ctx, cancel := context.WithCancel(context.Background())
	p.sleep = func(ctx context.Context, _, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	summary, err := p.Run(ctx, []string{profileURL, profileURL, profileURL})
	require.Error(t, err)
	assert.Len(t, summary.Results, 1, "processing stops at the first cancelled delay")
}
