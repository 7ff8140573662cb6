// Package analyze turns normalized profile text into a structured
// ProfileRecord: it prompts the generation endpoint, recovers JSON from
// whatever the model returns, and cross-corrects the fields against the
// source text and URL.
package analyze

import (
	"fmt"

	"github.com/sells-group/outreach-cli/pkg/textgen"
)

// promptInputLimit bounds how much normalized text is sent to the
// model, to keep the prompt within the context window.
const promptInputLimit = 8000

const systemPrompt = "You are an expert sales researcher. Extract structured data from profiles into JSON. " +
	"CRITICAL: The scraped text contains repeated sections. Each section starts with the profile OWNER's name and headline. " +
	"ONLY extract data for the profile owner (the FIRST name that appears). " +
	"IGNORE any other people's names, titles, or companies that appear later - those are sidebar suggestions, NOT the profile owner. " +
	"If multiple sections describe the same person, merge their information into a single record. " +
	"NEVER output null for any field: use \"Unknown\" for missing strings and [] for missing lists. " +
	"For student profiles, use the university or academic affiliation as the company."

const exampleProInput = `Name: Sarah Jones
Role: VP Marketing at CloudScale
Bio: 10 years driving growth for SaaS startups. Loves data-driven marketing and hiking.
Experience:
- VP Marketing, CloudScale (2020-Present)
- Director of Demand Gen, TechStart (2015-2020)
Education:
- MBA, Stanford University
- B.A. Communications, UCLA
Certifications:
- Google Analytics Certified
- HubSpot Inbound Marketing
Recent Activity:
- Shared a post about "The Future of AI in Marketing".`

const exampleProOutput = `{"name": "Sarah Jones", "company": "CloudScale", "role": "VP Marketing", "industry": "SaaS / Technology", "seniority": "Executive", "education": ["MBA, Stanford University", "B.A. Communications, UCLA"], "certifications": ["Google Analytics Certified", "HubSpot Inbound Marketing"], "recent_activity": ["Shared a post about 'The Future of AI in Marketing'"], "psychological_profile": {"decision_authority": "High", "pain_points": ["Scaling growth", "Data analytics"], "goals": ["Drive revenue", "Brand awareness"], "communication_preference": "Data-driven"}, "communication_style": {"formality": "Casual", "tone": "Enthusiastic", "vocabulary": "Simple"}, "key_insights": ["Experienced in SaaS growth", "Outdoor enthusiast"], "personalization_hooks": ["Mention Stanford MBA", "Discuss AI in Marketing post", "Ask about hiking"]}`

const exampleStudentInput = `Name: Priya Nair
Headline: Computer Science Student at VIT University | Aspiring Software Developer
About: Final-year B.Tech student passionate about backend development. Built two hackathon projects.
Experience:
- Software Development Intern, Zeta Labs (Summer 2024)
Education:
- B.Tech Computer Science, VIT University (2021-2025)
Certifications:
- AWS Cloud Practitioner
Recent Activity:
- Posted about winning the SmartHack 2024 hackathon.`

const exampleStudentOutput = `{"name": "Priya Nair", "company": "VIT University", "role": "Computer Science Student", "industry": "Education / Technology", "seniority": "Student", "education": ["B.Tech Computer Science, VIT University"], "certifications": ["AWS Cloud Practitioner"], "recent_activity": ["Posted about winning the SmartHack 2024 hackathon"], "psychological_profile": {"decision_authority": "Low", "pain_points": ["Landing a first full-time role", "Standing out to recruiters"], "goals": ["Become a backend developer", "Gain industry experience"], "communication_preference": "Friendly"}, "communication_style": {"formality": "Casual", "tone": "Eager", "vocabulary": "Simple"}, "key_insights": ["Hands-on hackathon experience", "Backend-focused student"], "personalization_hooks": ["Congratulate on SmartHack 2024 win", "Mention the Zeta Labs internship", "Ask about hackathon projects"]}`

// exampleMarkers are literal tokens from the few-shot examples above.
// Extracted fields equal to one of these, or generated messages
// containing one, are hallucinations echoing the prompt.
var exampleMarkers = []string{
	"sarah jones", "sarah", "cloudscale",
	"priya nair", "priya", "vit university", "zeta labs",
}

// ExampleMarkers returns the hallucination marker tokens.
func ExampleMarkers() []string {
	return exampleMarkers
}

// BuildMessages assembles the few-shot extraction prompt for one
// normalized profile. Only the leading prompt input limit of the text
// is included.
func BuildMessages(normalized, offering string) []textgen.Message {
	user := fmt.Sprintf(`EXAMPLE INPUT:
%s

EXAMPLE JSON OUTPUT:
%s

EXAMPLE INPUT:
%s

EXAMPLE JSON OUTPUT:
%s

OFFERING CONTEXT (what the sender sells, NOT part of the profile):
%s

REAL INPUT:
%s

REAL JSON OUTPUT:
`, exampleProInput, exampleProOutput, exampleStudentInput, exampleStudentOutput, offering, clamp(normalized, promptInputLimit))

	return []textgen.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: user},
	}
}

// clamp truncates s to at most n bytes.
func clamp(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
