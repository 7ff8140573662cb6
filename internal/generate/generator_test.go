package generate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/textgen"
)

type stubLLM struct {
	response string
	prompts  [][]textgen.Message
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, maxNewTokens int, temperature float64) string {
	return s.response
}

func (s *stubLLM) Chat(ctx context.Context, messages []textgen.Message, maxNewTokens int, temperature float64) string {
	s.prompts = append(s.prompts, messages)
	return s.response
}

func (s *stubLLM) Ping(ctx context.Context) error { return nil }

func TestCampaign(t *testing.T) {
	llm := &stubLLM{response: `{"email": {"subject": "Hi", "body": "Hello Jane"}, "linkedin": "Hi Jane", "whatsapp": "w", "sms": "s", "instagram": "i", "analysis": {"personalization_score": "8/10", "reasoning": "good hooks"}}`}
	g := NewGenerator(llm, zap.NewNop())

	rec := &model.ProfileRecord{Name: "Jane Doe", Company: "Acme"}
	rec.Normalize()

	bundle, err := g.Campaign(context.Background(), rec, "dev tooling platform", Options{})
	require.NoError(t, err)
	assert.Equal(t, "Hello Jane", bundle.Email.Body)
	assert.Equal(t, "Hi Jane", bundle.LinkedIn)
	assert.Equal(t, "8/10", bundle.Analysis.PersonalizationScore)
	assert.False(t, bundle.Empty())

	require.Len(t, llm.prompts, 1)
	system := llm.prompts[0][0].Content
	assert.Contains(t, system, "dev tooling platform")
	assert.NotContains(t, system, "SOCIAL PROOF")
	assert.Contains(t, llm.prompts[0][1].Content, `"Jane Doe"`)
}

func TestCampaignTransportError(t *testing.T) {
	llm := &stubLLM{response: "Error: Request timed out after 2 attempts"}
	g := NewGenerator(llm, zap.NewNop())

	rec := &model.ProfileRecord{Name: "Jane Doe"}
	_, err := g.Campaign(context.Background(), rec, "offering", Options{})
	assert.Error(t, err)
}

func TestCampaignVariantInstruction(t *testing.T) {
	llm := &stubLLM{response: `{"linkedin": "Hi"}`}
	g := NewGenerator(llm, zap.NewNop())

	_, err := g.Campaign(context.Background(), &model.ProfileRecord{Name: "Jane Doe"}, "offering", Options{Variant: true})
	require.NoError(t, err)
	assert.Contains(t, llm.prompts[0][0].Content, "A/B test variant")
}

func TestSocialProofTiers(t *testing.T) {
	candidates := []model.MatchCandidate{
		{Prospect: model.Prospect{Name: "Amy Chen", Role: "Engineer", Company: "Acme"}, Reasons: []string{model.ReasonSameCompany}},
		{Prospect: model.Prospect{Name: "Raj Patel", Role: "Student", Company: "VIT"}, Reasons: []string{model.ReasonSimilarCareerStage}},
		{Prospect: model.Prospect{Name: "Lee Park", Role: "Engineer", Company: "Globex"}, Reasons: []string{model.ReasonSameIndustry}},
	}

	got := socialProof(candidates)
	assert.Contains(t, got, "DIRECT REFERENCE")
	assert.Contains(t, got, "Amy Chen")
	assert.Contains(t, got, "PEER REFERENCE")
	assert.Contains(t, got, "Raj Patel (VIT)")
	assert.Contains(t, got, "SOFT REFERENCE")
	assert.Contains(t, got, "Lee Park (Engineer at Globex)")
}

func TestSocialProofSkipsUnknownCompanies(t *testing.T) {
	candidates := []model.MatchCandidate{
		{Prospect: model.Prospect{Name: "Raj Patel", Company: model.Unknown}, Reasons: []string{model.ReasonSimilarSkills}},
		{Prospect: model.Prospect{Name: "Lee Park", Role: "Engineer", Company: model.Unknown}, Reasons: []string{model.ReasonSimilarRole}},
	}

	got := socialProof(candidates)
	// Peer names render without a company suffix; soft references with
	// unknown companies are dropped entirely.
	assert.Contains(t, got, "Raj Patel -")
	assert.NotContains(t, got, "SOFT REFERENCE")
}

func TestSocialProofEmpty(t *testing.T) {
	assert.Empty(t, socialProof(nil))
}
