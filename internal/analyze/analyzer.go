package analyze

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/textgen"
)

const (
	extractMaxTokens   = 1000
	extractTemperature = 0.7
)

// Analyzer extracts a structured record from normalized profile text
// via the remote generation endpoint.
type Analyzer struct {
	llm textgen.Client
	log *zap.Logger
}

// NewAnalyzer creates an Analyzer backed by the given generation client.
func NewAnalyzer(llm textgen.Client, log *zap.Logger) *Analyzer {
	return &Analyzer{llm: llm, log: log}
}

// Analyze runs one extraction attempt: prompt, remote call, recovery.
// The returned record has been normalized but not yet cross-corrected;
// callers apply CrossCorrect once they know the source URL.
func (a *Analyzer) Analyze(ctx context.Context, normalized, offering string) (*model.ProfileRecord, error) {
	messages := BuildMessages(normalized, offering)
	response := a.llm.Chat(ctx, messages, extractMaxTokens, extractTemperature)

	rec, err := Parse(response, normalized)
	if err != nil {
		a.log.Warn("profile extraction failed",
			zap.Int("response_len", len(response)),
			zap.Error(err))
		return nil, err
	}
	if rec.ExtractionNote != "" {
		a.log.Warn("degraded extraction, regex fallback used",
			zap.String("name", rec.Name))
	}
	return rec, nil
}
