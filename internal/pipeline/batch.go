package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
)

const (
	smallBatchDelay = 5 * time.Second
	largeBatchDelay = 8 * time.Second
	largeBatchSize  = 10
	delaySpread     = 4 * time.Second

	retryPassLead = 3 * time.Second
	retryDelayMin = 10 * time.Second
	retryDelayMax = 15 * time.Second
)

// Summary aggregates a batch run. Failed counts everything that is
// neither Success nor Partial.
type Summary struct {
	Results []model.BatchItemResult
	Success int
	Partial int
	Failed  int
	Saved   int
}

// Run processes a list of URLs sequentially with randomized pacing, then
// makes one retry pass over failed and partial rows. Successful rows with
// a known name are saved to the knowledge base afterwards.
func (p *Pipeline) Run(ctx context.Context, urls []string) (*Summary, error) {
	if err := p.scraper.Init(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = p.scraper.Close() }()

	base := smallBatchDelay
	if len(urls) > largeBatchSize {
		base = largeBatchDelay
	}

	results := make([]model.BatchItemResult, 0, len(urls))
	var runErr error
	for i, url := range urls {
		if i > 0 {
			if err := p.sleep(ctx, base, base+delaySpread); err != nil {
				runErr = err
				break
			}
		}
		p.log.Info("processing profile",
			zap.Int("index", i+1), zap.Int("total", len(urls)), zap.String("url", url))
		results = append(results, p.safeProcess(ctx, url))
	}

	if runErr == nil {
		p.retryPass(ctx, results)
	}

	summary := p.summarize(ctx, results)
	return summary, runErr
}

// retryPass re-attempts failed and partial rows once, with longer delays.
// A retry replaces the original only when it is strictly better: Success
// always wins, Partial only beats Failed or Error.
func (p *Pipeline) retryPass(ctx context.Context, results []model.BatchItemResult) {
	var retryIdx []int
	for i, r := range results {
		if r.Retryable() {
			retryIdx = append(retryIdx, i)
		}
	}
	if len(retryIdx) == 0 {
		return
	}

	p.log.Info("retrying failed profiles", zap.Int("count", len(retryIdx)))
	if err := p.pause(ctx, retryPassLead); err != nil {
		return
	}

	for _, idx := range retryIdx {
		if err := p.sleep(ctx, retryDelayMin, retryDelayMax); err != nil {
			return
		}
		retry := p.safeProcess(ctx, results[idx].URL)

		switch {
		case retry.Status == model.BatchStatusSuccess:
			results[idx] = retry
		case strings.HasPrefix(retry.Status, "Partial") &&
			(strings.HasPrefix(results[idx].Status, "Failed") || strings.HasPrefix(results[idx].Status, "Error")):
			results[idx] = retry
		}
	}
}

// safeProcess converts a panic inside the per-profile flow into an Error
// row so one bad profile cannot take the batch down.
func (p *Pipeline) safeProcess(ctx context.Context, url string) (res model.BatchItemResult) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("panic while processing profile",
				zap.String("url", url), zap.Any("panic", r))
			res = model.BatchItemResult{
				URL:    url,
				Status: fmt.Sprintf("%s%v", model.BatchStatusErrorPrefix, r),
			}
		}
	}()
	return p.ProcessProfile(ctx, url)
}

func (p *Pipeline) summarize(ctx context.Context, results []model.BatchItemResult) *Summary {
	s := &Summary{Results: results}
	for _, r := range results {
		switch {
		case r.Status == model.BatchStatusSuccess:
			s.Success++
		case strings.HasPrefix(r.Status, "Partial"):
			s.Partial++
		default:
			s.Failed++
		}
	}
	s.Saved = p.autoSave(ctx, results)
	return s
}

// autoSave writes successful rows with a resolved name to the knowledge
// base so future batches can use them as social proof.
func (p *Pipeline) autoSave(ctx context.Context, results []model.BatchItemResult) int {
	if p.store == nil {
		return 0
	}
	saved := 0
	for _, r := range results {
		if r.Status != model.BatchStatusSuccess || r.Name == "" || r.Name == model.Unknown {
			continue
		}
		rec := &model.ProfileRecord{Name: r.Name, Company: r.Company, Role: r.Role}
		rec.Normalize()
		msgs := &model.MessageBundle{
			Email:    model.EmailMessage{Subject: r.EmailSubject, Body: r.EmailBody},
			LinkedIn: r.LinkedInMsg,
			WhatsApp: r.WhatsAppMsg,
			SMS:      r.SMSMsg,
		}
		if _, err := p.store.SaveProspect(ctx, rec, msgs, r.URL); err != nil {
			p.log.Warn("could not save prospect", zap.String("name", r.Name), zap.Error(err))
			continue
		}
		saved++
	}
	if saved > 0 {
		p.log.Info("auto-saved successful profiles", zap.Int("count", saved))
	}
	return saved
}
