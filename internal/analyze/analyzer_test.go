package analyze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/pkg/textgen"
)

// stubLLM returns canned chat responses in order.
type stubLLM struct {
	responses []string
	calls     int
	prompts   [][]textgen.Message
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, maxNewTokens int, temperature float64) string {
	return s.next()
}

func (s *stubLLM) Chat(ctx context.Context, messages []textgen.Message, maxNewTokens int, temperature float64) string {
	s.prompts = append(s.prompts, messages)
	return s.next()
}

func (s *stubLLM) Ping(ctx context.Context) error { return nil }

func (s *stubLLM) next() string {
	if s.calls >= len(s.responses) {
		return ""
	}
	r := s.responses[s.calls]
	s.calls++
	return r
}

func TestAnalyzerAnalyze(t *testing.T) {
	llm := &stubLLM{responses: []string{`{"name": "Jane Doe", "company": "Acme", "role": "Engineer"}`}}
	a := NewAnalyzer(llm, zap.NewNop())

	rec, err := a.Analyze(context.Background(), "Jane Doe\nEngineer at Acme", "dev tooling")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", rec.Name)
	assert.Equal(t, "Acme", rec.Company)
	assert.NotNil(t, rec.Education)

	// The prompt carries both few-shot examples and the offering.
	require.Len(t, llm.prompts, 1)
	user := llm.prompts[0][1].Content
	assert.Contains(t, user, "Sarah Jones")
	assert.Contains(t, user, "Priya Nair")
	assert.Contains(t, user, "dev tooling")
	assert.Contains(t, user, "REAL JSON OUTPUT:")
}

func TestAnalyzerAnalyzeTransportError(t *testing.T) {
	llm := &stubLLM{responses: []string{"Error: Request timed out after 2 attempts"}}
	a := NewAnalyzer(llm, zap.NewNop())

	_, err := a.Analyze(context.Background(), "Jane Doe", "dev tooling")
	assert.Error(t, err)
}

func TestAnalyzerAnalyzeDegraded(t *testing.T) {
	llm := &stubLLM{responses: []string{"no json in this response at all"}}
	a := NewAnalyzer(llm, zap.NewNop())

	rec, err := a.Analyze(context.Background(), "Jane Doe\nEngineer @ Acme", "dev tooling")
	require.NoError(t, err)
	assert.Equal(t, DegradedNote, rec.ExtractionNote)
	assert.Equal(t, "Jane Doe", rec.Name)
}
