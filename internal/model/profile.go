package model

import "time"

// Unknown is the sentinel for any absent or unusable scalar field.
// Records never carry empty strings or nulls in their core fields.
const Unknown = "Unknown"

// ProfileRecord is the canonical structured view of a person extracted
// from raw profile text. It is created by the response parser, repaired
// in place by the validator, and frozen once handed to a consumer.
type ProfileRecord struct {
	Name                 string       `json:"name"`
	Company              string       `json:"company"`
	Role                 string       `json:"role"`
	Industry             string       `json:"industry"`
	Seniority            string       `json:"seniority"`
	Education            []string     `json:"education"`
	Certifications       []string     `json:"certifications"`
	RecentActivity       []string     `json:"recent_activity"`
	PsychologicalProfile PsychProfile `json:"psychological_profile"`
	CommunicationStyle   CommStyle    `json:"communication_style"`
	KeyInsights          []string     `json:"key_insights"`
	PersonalizationHooks []string     `json:"personalization_hooks"`

	// ExtractionNote is set when the record was synthesized by the regex
	// fallback rather than parsed from model output.
	ExtractionNote string `json:"extraction_note,omitempty"`
	// RawPreview holds a sample of the unparseable model response for
	// human review of degraded extractions.
	RawPreview string `json:"raw_response,omitempty"`
	// Error signals extraction failure for this record.
	Error string `json:"error,omitempty"`
}

// PsychProfile captures inferred decision-making traits.
type PsychProfile struct {
	DecisionAuthority       string   `json:"decision_authority"`
	PainPoints              []string `json:"pain_points"`
	Goals                   []string `json:"goals"`
	CommunicationPreference string   `json:"communication_preference"`
}

// CommStyle captures inferred writing-style traits.
type CommStyle struct {
	Formality  string `json:"formality"`
	Tone       string `json:"tone"`
	Vocabulary string `json:"vocabulary"`
}

// Normalize enforces the no-null invariant: empty core scalars become
// the Unknown sentinel and nil slices become empty slices, recursively
// through the nested traits.
func (r *ProfileRecord) Normalize() {
	for _, f := range []*string{&r.Name, &r.Company, &r.Role, &r.Industry, &r.Seniority} {
		if *f == "" {
			*f = Unknown
		}
	}
	r.Education = nonNil(r.Education)
	r.Certifications = nonNil(r.Certifications)
	r.RecentActivity = nonNil(r.RecentActivity)
	r.KeyInsights = nonNil(r.KeyInsights)
	r.PersonalizationHooks = nonNil(r.PersonalizationHooks)
	r.PsychologicalProfile.PainPoints = nonNil(r.PsychologicalProfile.PainPoints)
	r.PsychologicalProfile.Goals = nonNil(r.PsychologicalProfile.Goals)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Failed reports whether the record carries an extraction error.
func (r *ProfileRecord) Failed() bool {
	return r.Error != ""
}

// EmailMessage is the email channel of a campaign bundle.
type EmailMessage struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// BundleAnalysis is the generator's self-assessment of a bundle.
type BundleAnalysis struct {
	PersonalizationScore string `json:"personalization_score"`
	Reasoning            string `json:"reasoning"`
}

// MessageBundle holds the generated outreach copy for all channels.
type MessageBundle struct {
	Email     EmailMessage   `json:"email"`
	LinkedIn  string         `json:"linkedin"`
	WhatsApp  string         `json:"whatsapp"`
	SMS       string         `json:"sms"`
	Instagram string         `json:"instagram"`
	Analysis  BundleAnalysis `json:"analysis"`
}

// Empty reports whether the bundle lacks both primary channels.
// A bundle with neither an email body nor a LinkedIn message is
// treated as a failed generation.
func (b *MessageBundle) Empty() bool {
	return b == nil || (b.Email.Body == "" && b.LinkedIn == "")
}

// ProspectStatus tracks the outreach lifecycle of a saved prospect.
type ProspectStatus string

const (
	ProspectStatusSent          ProspectStatus = "Sent"
	ProspectStatusOpened        ProspectStatus = "Opened"
	ProspectStatusReplied       ProspectStatus = "Replied"
	ProspectStatusMeetingBooked ProspectStatus = "Meeting Booked"
	ProspectStatusGhosted       ProspectStatus = "Ghosted"
)

// Prospect is a stored outreach target with its profile and the
// messages that were generated for it.
type Prospect struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Company   string         `json:"company"`
	Role      string         `json:"role"`
	Industry  string         `json:"industry"`
	Seniority string         `json:"seniority"`
	Summary   string         `json:"summary"`
	Profile   ProfileRecord  `json:"profile"`
	Messages  *MessageBundle `json:"messages,omitempty"`
	URL       string         `json:"url"`
	Status    ProspectStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// MatchCandidate is a stored prospect scored against a new record.
// Produced fresh per similarity query, never persisted.
type MatchCandidate struct {
	Prospect Prospect `json:"prospect"`
	Score    int      `json:"score"`
	Reasons  []string `json:"match_reasons"`
}

// Match reason tags attached by the similarity matcher.
const (
	ReasonSameCompany        = "same_company"
	ReasonSameIndustry       = "same_industry"
	ReasonSimilarRole        = "similar_role"
	ReasonSimilarCareerStage = "similar_career_stage"
	ReasonSimilarSkills      = "similar_skills"
)

// Batch item statuses. Error statuses carry the message after the
// prefix, e.g. "Error: context deadline exceeded".
const (
	BatchStatusSuccess      = "Success"
	BatchStatusPartial      = "Partial - Messages Empty"
	BatchStatusFailedScrape = "Failed to Scrape"
	BatchStatusErrorPrefix  = "Error: "
)

// BatchItemResult is the per-input outcome of one batch pass.
type BatchItemResult struct {
	URL          string `json:"url"`
	Name         string `json:"name"`
	Company      string `json:"company"`
	Role         string `json:"role"`
	EmailSubject string `json:"email_subject"`
	EmailBody    string `json:"email_body"`
	LinkedInMsg  string `json:"linkedin_msg"`
	WhatsAppMsg  string `json:"whatsapp_msg"`
	SMSMsg       string `json:"sms_msg"`
	Status       string `json:"status"`
	// Sample holds a slice of the rejected content when the item failed,
	// so the operator can see what the scraper actually returned.
	Sample string `json:"sample,omitempty"`
}

// Retryable reports whether a batch item should enter the retry pass.
func (r *BatchItemResult) Retryable() bool {
	for _, prefix := range []string{"Partial", "Failed", "Error"} {
		if len(r.Status) >= len(prefix) && r.Status[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// KBStats summarizes the knowledge base for reporting.
type KBStats struct {
	Total      int `json:"total"`
	Companies  int `json:"companies"`
	Industries int `json:"industries"`
}
