// Package generate produces the five-channel outreach bundle for a
// validated profile, weaving in social proof from previously stored
// prospects.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/analyze"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/textgen"
)

const (
	campaignMaxTokens   = 1000
	campaignTemperature = 0.7

	// contextLimit caps how many stored prospects feed social proof.
	contextLimit = 3
)

// Options tune a single campaign generation.
type Options struct {
	// Context supplies scored historical prospects for social proof.
	Context []model.MatchCandidate
	// Variant requests an alternative "B" angle for A/B testing.
	Variant bool
}

// Generator turns a ProfileRecord into a MessageBundle via the remote
// generation endpoint.
type Generator struct {
	llm textgen.Client
	log *zap.Logger
}

// NewGenerator creates a Generator backed by the given client.
func NewGenerator(llm textgen.Client, log *zap.Logger) *Generator {
	return &Generator{llm: llm, log: log}
}

// Campaign generates one outreach bundle. The returned error covers
// transport failure and unrecoverable model output; hallucination
// checking and regeneration are the caller's concern.
func (g *Generator) Campaign(ctx context.Context, rec *model.ProfileRecord, offering string, opts Options) (*model.MessageBundle, error) {
	profileJSON, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "generate: marshal profile")
	}

	messages := []textgen.Message{
		{Role: "system", Content: systemPrompt(offering, opts)},
		{Role: "user", Content: userPrompt(string(profileJSON))},
	}

	response := g.llm.Chat(ctx, messages, campaignMaxTokens, campaignTemperature)
	if textgen.IsErrorText(response) {
		return nil, eris.New(response)
	}

	obj, ok := analyze.RecoverObject(response)
	if !ok {
		g.log.Warn("campaign response not recoverable JSON",
			zap.Int("response_len", len(response)))
		return nil, eris.New("generate: no recoverable JSON in response")
	}

	buf, err := json.Marshal(obj)
	if err != nil {
		return nil, eris.Wrap(err, "generate: re-marshal campaign object")
	}
	var bundle model.MessageBundle
	if err := json.Unmarshal(buf, &bundle); err != nil {
		return nil, eris.Wrap(err, "generate: decode campaign object")
	}
	return &bundle, nil
}

// socialProof renders the tiered "success stories" block from scored
// historical prospects. Same-company contacts are the strongest signal
// and must be referenced; peers at the same career stage come next;
// same-industry contacts are optional color.
func socialProof(candidates []model.MatchCandidate) string {
	if len(candidates) > contextLimit {
		candidates = candidates[:contextLimit]
	}

	var direct, peer, industry []model.Prospect
	for _, c := range candidates {
		switch {
		case hasReason(c.Reasons, model.ReasonSameCompany):
			direct = append(direct, c.Prospect)
		case hasReason(c.Reasons, model.ReasonSimilarCareerStage) || hasReason(c.Reasons, model.ReasonSimilarSkills):
			peer = append(peer, c.Prospect)
		case hasReason(c.Reasons, model.ReasonSameIndustry) || hasReason(c.Reasons, model.ReasonSimilarRole):
			industry = append(industry, c.Prospect)
		}
	}

	var parts []string
	if len(direct) > 0 {
		ref := direct[0]
		parts = append(parts, fmt.Sprintf(
			"DIRECT REFERENCE (USE THIS): We previously worked with %s (%s) at %s. "+
				"You MUST naturally mention this in email and LinkedIn - e.g., "+
				"'We recently collaborated with %s from your team at %s...' or "+
				"'Your colleague %s already uses our solution...'. Keep it warm and natural.",
			ref.Name, ref.Role, ref.Company, ref.Name, ref.Company, ref.Name))
	}
	if len(peer) > 0 {
		names := make([]string, 0, len(peer))
		for _, p := range peer {
			if p.Company != "" && p.Company != model.Unknown {
				names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.Company))
			} else {
				names = append(names, p.Name)
			}
		}
		parts = append(parts, fmt.Sprintf(
			"PEER REFERENCE (USE THIS): Students/professionals at a similar stage - %s - "+
				"have already benefited from our offering. You should reference this naturally - e.g., "+
				"'Your batchmate %s recently joined our program...'. "+
				"Make it feel relatable, like a peer recommendation.",
			strings.Join(names, ", "), peer[0].Name))
	}
	if len(industry) > 0 {
		names := make([]string, 0, len(industry))
		for _, p := range industry {
			if p.Company != "" && p.Company != model.Unknown {
				names = append(names, fmt.Sprintf("%s (%s at %s)", p.Name, p.Role, p.Company))
			}
		}
		if len(names) > 0 {
			parts = append(parts, fmt.Sprintf(
				"SOFT REFERENCE (optional): Professionals in similar roles - %s - have connected with us. "+
					"Mention subtly if relevant, e.g., 'Engineers at %s have used our platform...'.",
				strings.Join(names, ", "), industry[0].Company))
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return "\nSOCIAL PROOF FROM KNOWLEDGE BASE:\n" + strings.Join(parts, "\n")
}

func hasReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}

func systemPrompt(offering string, opts Options) string {
	variant := ""
	if opts.Variant {
		variant = "\nIMPORTANT: This is an A/B test variant. Try a DIFFERENT angle than usual " +
			"(e.g., if you usually lead with value, lead with a question, or be more direct)."
	}

	return fmt.Sprintf(`You are a world-class SDR and Copywriter.
Your task is to generate hyper-personalized outreach messages that feel warm and well-researched.

OFFERING CONTEXT:
"%s"

CRITICAL RULES:
1. MESSAGE LENGTH: ALL platform messages (LinkedIn, WhatsApp, SMS, Instagram) MUST be 4-5 lines minimum (not counting greeting/signature).
   - Each message should be comprehensive and compelling. Do NOT generate 1-liners.
2. NO FLUFF: Don't just list facts. Weave them into a narrative.
3. INTEGRATION: You must fluidly bridge the prospect's specific details (pain points, recent activity) with the 'OFFERING CONTEXT'. Do not just paste the offering; explain *why* it matters to *them*.
4. TONE: Professional yet conversational.
5. CALL TO ACTION: Clear next step.%s%s`, offering, socialProof(opts.Context), variant)
}

const exampleProfile = `{
  "name": "Sarah Jones",
  "company": "CloudScale",
  "role": "VP Marketing",
  "education": ["MBA, Stanford"],
  "certifications": ["Google Analytics"],
  "recent_activity": ["Posted about AI in Marketing"],
  "psychological_profile": {"pain_points": ["Scaling growth", "Data overload"]},
  "key_insights": ["Loves hiking"],
  "personalization_hooks": ["Mention Stanford", "Discuss AI post"]
}`

const exampleCampaign = `{
  "email": {
    "subject": "Thoughts on your AI post + Stanford connection?",
    "body": "Hi Sarah,\n\nI was just reading your recent post about AI in Marketing - couldn't agree more about the need for automation.\n\nNoticed you're a Stanford MBA grad as well. That rigorous analytical background really shows in your strategic approach.\n\nGiven your focus on scaling growth at CloudScale and handling data overload, our platform can help you build the right team to execute that vision.\n\nWould you be open to a quick chat next Tuesday about how we can support your scaling efforts?"
  },
  "linkedin": "Hi Sarah, loved your thoughts on AI in Marketing. As a fellow data-nerd (saw your Google Analytics cert!), I wanted to connect.\n\nI see you're tackling growth scaling at CloudScale. It's a tough challenge, but crucial.",
  "whatsapp": "Hi Sarah, saw your post on AI. We're building something similar for scaling teams...\n\nYour background at Stanford suggests you value high-leverage tools.\n\nWe help leaders like you cut through the noise and find top-tier talent instantly.\n\nWould love to send over a case study if you're interested?",
  "sms": "Sarah, quick question about your AI post. It really resonated with our team's mission.\n\nWe specialize in helping VPs like you scale growth without the burnout.\n\nFree for a 5-min call this week to discuss strategies?",
  "instagram": "Hey Sarah, huge fan of your content on AI - it's spot on!\n\nI noticed you're also into hiking; that's awesome.\n\nWe help marketing leaders automate the heavy lifting so they can focus on strategy (and trails!).\n\nCheck out our link if you need help scaling your team effectively.",
  "analysis": {
    "personalization_score": "9.5/10",
    "reasoning": "weaved in post + education + certs naturally."
  }
}`

func userPrompt(profileJSON string) string {
	return fmt.Sprintf(`EXAMPLE INPUT PROFILE:
%s

EXAMPLE JSON OUTPUT:
%s

REAL INPUT PROFILE:
%s

REAL JSON OUTPUT:
`, exampleProfile, exampleCampaign, profileJSON)
}
