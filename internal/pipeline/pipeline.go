// Package pipeline orchestrates the outreach flow for one profile URL:
// scrape, clean, extract, cross-correct, match against the knowledge base,
// and generate the message campaign. Batch runs add pacing, a retry pass,
// and knowledge-base auto-save.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/analyze"
	"github.com/sells-group/outreach-cli/internal/generate"
	"github.com/sells-group/outreach-cli/internal/kb"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/normalize"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/pkg/scraper"
)

const (
	analysisAttempts = 2
	minUsefulChars   = 50
	sampleLimit      = 200

	authWallPause = 5 * time.Second
	analysisPause = 2 * time.Second
	generatePause = 5 * time.Second
)

// Analyzer extracts a structured record from cleaned profile text.
type Analyzer interface {
	Analyze(ctx context.Context, normalized, offering string) (*model.ProfileRecord, error)
}

// Generator produces a message campaign for a profile record.
type Generator interface {
	Campaign(ctx context.Context, rec *model.ProfileRecord, offering string, opts generate.Options) (*model.MessageBundle, error)
}

// Pipeline wires the scraper, analyzer, generator, and knowledge base
// together. A nil store disables similar-prospect context and auto-save.
type Pipeline struct {
	scraper   scraper.Scraper
	analyzer  Analyzer
	generator Generator
	store     kb.Store
	offering  string
	log       *zap.Logger

	// Sleep hooks are injectable so tests run without real delays.
	sleep func(ctx context.Context, min, max time.Duration) error
	pause func(ctx context.Context, d time.Duration) error
}

// New creates a Pipeline.
func New(s scraper.Scraper, a Analyzer, g Generator, store kb.Store, offering string, log *zap.Logger) *Pipeline {
	return &Pipeline{
		scraper:   s,
		analyzer:  a,
		generator: g,
		store:     store,
		offering:  offering,
		log:       log,
		sleep:     resilience.RandomDelay,
		pause: func(ctx context.Context, d time.Duration) error {
			return resilience.RandomDelay(ctx, d, d)
		},
	}
}

// ProcessProfile runs the full per-profile flow and always returns a
// result row; failures are encoded in the Status field.
func (p *Pipeline) ProcessProfile(ctx context.Context, url string) model.BatchItemResult {
	raw, err := p.scraper.Scrape(ctx, url)
	if err != nil {
		return errorResult(url, err)
	}

	// A login wall sometimes clears after a pause and one more attempt.
	if strings.Contains(raw, scraper.AuthWall) {
		p.log.Warn("hit auth wall, retrying once", zap.String("url", url))
		if err := p.pause(ctx, authWallPause); err != nil {
			return errorResult(url, err)
		}
		if raw, err = p.scraper.Scrape(ctx, url); err != nil {
			return errorResult(url, err)
		}
	}

	cleaned := normalize.Clean(raw)

	isError := strings.HasPrefix(strings.TrimSpace(raw), "Error")
	isAuthWall := strings.Contains(raw, scraper.AuthWall)
	if isError || isAuthWall || len(strings.TrimSpace(cleaned)) <= minUsefulChars {
		return model.BatchItemResult{
			URL:    url,
			Status: model.BatchStatusFailedScrape,
			Sample: clamp(cleaned, sampleLimit),
		}
	}

	return p.processCleaned(ctx, cleaned, url)
}

// ProcessText runs the analysis and generation flow over text captured
// outside the scraper, such as an extracted document or pasted profile
// text. The label stands in for the URL in the result row.
func (p *Pipeline) ProcessText(ctx context.Context, text, label string) model.BatchItemResult {
	cleaned := normalize.Clean(text)
	if len(strings.TrimSpace(cleaned)) <= minUsefulChars {
		return model.BatchItemResult{
			URL:    label,
			Status: model.BatchStatusFailedScrape,
			Sample: clamp(cleaned, sampleLimit),
		}
	}
	return p.processCleaned(ctx, cleaned, label)
}

// processCleaned is the capture-independent tail of the flow: extract,
// generate, guard against example leakage, cross-correct.
func (p *Pipeline) processCleaned(ctx context.Context, cleaned, sourceRef string) model.BatchItemResult {
	rec, analysisErr := p.analyzeWithRetry(ctx, cleaned)

	var msgs *model.MessageBundle
	if analysisErr != nil {
		// Keep a minimal record so the capture is not lost; skip generation.
		rec = &model.ProfileRecord{Error: analysisErr.Error()}
		rec.Normalize()
	} else {
		msgs = p.generateWithRetry(ctx, rec)
	}

	// Two strikes on example leakage: regenerate once without
	// knowledge-base context, then give up on the whole bundle.
	if analyze.BundleLeaks(msgs) {
		p.log.Warn("example data detected in messages, regenerating", zap.String("source", sourceRef))
		if err := p.pause(ctx, generatePause); err == nil {
			regen, genErr := p.generator.Campaign(ctx, rec, p.offering, generate.Options{})
			if genErr != nil {
				msgs = nil
			} else {
				msgs = regen
			}
		}
		if analyze.BundleLeaks(msgs) {
			msgs = nil
		}
	}

	analyze.CrossCorrect(rec, cleaned, sourceRef)

	return buildResult(sourceRef, rec, msgs)
}

func (p *Pipeline) analyzeWithRetry(ctx context.Context, cleaned string) (*model.ProfileRecord, error) {
	var (
		rec *model.ProfileRecord
		err error
	)
	for attempt := 0; attempt < analysisAttempts; attempt++ {
		rec, err = p.analyzer.Analyze(ctx, cleaned, p.offering)
		if err == nil {
			return rec, nil
		}
		p.log.Warn("analysis failed", zap.Int("attempt", attempt+1), zap.Error(err))
		if attempt < analysisAttempts-1 {
			if perr := p.pause(ctx, analysisPause); perr != nil {
				return nil, err
			}
		}
	}
	return nil, err
}

// generateWithRetry generates the campaign with similar-prospect context
// and retries once when the bundle comes back empty.
func (p *Pipeline) generateWithRetry(ctx context.Context, rec *model.ProfileRecord) *model.MessageBundle {
	var matches []model.MatchCandidate
	if p.store != nil {
		if prospects, err := p.store.ListProspects(ctx); err != nil {
			p.log.Warn("could not load prospects for context", zap.Error(err))
		} else {
			matches = kb.FindSimilar(prospects, rec.Company, rec.Industry, rec.Role, p.offering)
		}
	}

	opts := generate.Options{Context: matches}
	msgs, err := p.generator.Campaign(ctx, rec, p.offering, opts)
	if err != nil {
		p.log.Warn("message generation failed", zap.Error(err))
		msgs = nil
	}
	if msgs.Empty() {
		if perr := p.pause(ctx, generatePause); perr != nil {
			return msgs
		}
		if retry, retryErr := p.generator.Campaign(ctx, rec, p.offering, opts); retryErr == nil {
			msgs = retry
		}
	}
	return msgs
}

func buildResult(url string, rec *model.ProfileRecord, msgs *model.MessageBundle) model.BatchItemResult {
	res := model.BatchItemResult{
		URL:     url,
		Name:    rec.Name,
		Company: rec.Company,
		Role:    rec.Role,
		Status:  model.BatchStatusPartial,
	}
	if msgs != nil {
		res.EmailSubject = msgs.Email.Subject
		res.EmailBody = msgs.Email.Body
		res.LinkedInMsg = msgs.LinkedIn
		res.WhatsAppMsg = msgs.WhatsApp
		res.SMSMsg = msgs.SMS
	}
	if !msgs.Empty() {
		res.Status = model.BatchStatusSuccess
	}
	return res
}

func errorResult(url string, err error) model.BatchItemResult {
	return model.BatchItemResult{
		URL:    url,
		Status: fmt.Sprintf("%s%v", model.BatchStatusErrorPrefix, err),
	}
}

func clamp(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
