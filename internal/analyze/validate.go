package analyze

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/outreach-cli/internal/model"
)

// roleKeywords mark a string as a job title rather than a name or a
// company.
var roleKeywords = []string{
	"developer", "engineer", "manager", "designer", "analyst",
	"architect", "lead", "director", "vp", "intern", "student",
	"consultant", "founder", "cto", "ceo", "scientist",
	"specialist", "coordinator", "administrator", "associate",
	"officer", "joiner", "trainee", "executive",
}

// IsGarbage reports whether a value is a scraping artifact rather than
// real data: empty, the sentinel, a section delimiter fragment, purely
// numeric, or under two characters.
func IsGarbage(val string) bool {
	if val == "" || val == model.Unknown {
		return true
	}
	v := strings.TrimSpace(val)
	if strings.Contains(v, "===") {
		return true
	}
	if isAllDigits(v) {
		return true
	}
	return len(v) < 2
}

// SanitizeField collapses a multi-line field value to its last
// meaningful line. Literal backslash-n sequences are normalized to
// real newlines first since models emit both.
func SanitizeField(value string) string {
	if value == "" || value == model.Unknown {
		return model.Unknown
	}
	value = strings.ReplaceAll(value, `\n`, "\n")

	var lines []string
	for _, l := range strings.Split(value, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return model.Unknown
	}

	var clean []string
	for _, l := range lines {
		if !IsGarbage(l) {
			clean = append(clean, l)
		}
	}
	if len(clean) == 0 {
		return lines[len(lines)-1]
	}
	return clean[len(clean)-1]
}

// LooksLikeRole reports whether text contains a job-title keyword.
func LooksLikeRole(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range roleKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// LooksLikeName reports whether text resembles a person's name: one to
// five words, no role keywords, at least half the words capitalized.
func LooksLikeName(text string) bool {
	words := strings.Fields(text)
	if len(words) < 1 || len(words) > 5 {
		return false
	}
	if LooksLikeRole(text) {
		return false
	}
	capped := 0
	for _, w := range words {
		for _, r := range w {
			if unicode.IsUpper(r) {
				capped++
			}
			break
		}
	}
	return float64(capped) >= float64(len(words))*0.5
}

var (
	slugRe       = regexp.MustCompile(`linkedin\.com/in/([^/]+)`)
	slugHashRe   = regexp.MustCompile(`-[a-f0-9]{5,}$`)
	slugDigitsRe = regexp.MustCompile(`\d+$`)

	titleCaser = cases.Title(language.English)
)

// NameFromURL derives a candidate person name from a profile URL slug:
// trailing hash id and digits stripped, hyphens to spaces, title-cased.
// Returns the sentinel when no usable slug exists.
func NameFromURL(url string) string {
	m := slugRe.FindStringSubmatch(url)
	if m == nil {
		return model.Unknown
	}
	slug := slugHashRe.ReplaceAllString(m[1], "")
	slug = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(slug, "-", " "), "/", ""))
	slug = strings.TrimSpace(slugDigitsRe.ReplaceAllString(slug, ""))
	if len(slug) <= 2 {
		return model.Unknown
	}
	return titleCaser.String(slug)
}

var (
	// Company name stays on the employment-type line, so the class
	// deliberately excludes newlines.
	headerCompanyRe = regexp.MustCompile(`([A-Za-z0-9][A-Za-z0-9 \t&.,'\-]+?)[ \t]*·[ \t]*(?:Full-time|Part-time|Internship|Contract|Freelance|Apprenticeship)`)

	sectionMarkers   = []string{"=== EXPERIENCE ===", "=== EDUCATION ===", "=== SKILLS ==="}
	sectionWordSkip  = map[string]bool{"Experience": true, "Education": true, "Skills": true, "Licenses & certifications": true}
	employmentTokens = []string{"Full-time", "Part-time", "Internship", "Contract", "Freelance", "Apprenticeship"}
)

// extractFromSections pulls name, role, and company straight out of
// the normalized text's section structure: the name is the first
// usable line after a section marker, the company precedes an
// employment-type token, and the role is the line before that.
func extractFromSections(cleaned string) (name, role, company string) {
	name, role, company = model.Unknown, model.Unknown, model.Unknown

	for _, marker := range sectionMarkers {
		idx := strings.Index(cleaned, marker)
		if idx < 0 {
			continue
		}
		rest := strings.TrimLeft(cleaned[idx+len(marker):], " \t\n")
		candidate := rest
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			candidate = rest[:nl]
		}
		candidate = strings.TrimSpace(candidate)
		if candidate != "" && !IsGarbage(candidate) && !sectionWordSkip[candidate] {
			name = candidate
			break
		}
	}

	expStart := strings.Index(cleaned, "=== EXPERIENCE ===")
	if expStart < 0 {
		return name, role, company
	}
	expText := clamp(cleaned[expStart:], 1500)

	if m := headerCompanyRe.FindStringSubmatch(expText); m != nil {
		company = strings.TrimSpace(m[1])
	}

	expLines := strings.Split(expText, "\n")
	for i, line := range expLines {
		if !strings.Contains(line, "·") || !containsAny(line, employmentTokens) {
			continue
		}
		if i > 0 {
			candidate := strings.TrimSpace(expLines[i-1])
			if candidate != "" && !IsGarbage(candidate) && candidate != "Experience" {
				role = candidate
			}
		}
		break
	}
	return name, role, company
}

var (
	roleAtCompanyRe = regexp.MustCompile(`([A-Za-z \t\-/]+(?:Developer|Engineer|Manager|Designer|Analyst|Consultant|Architect|Intern|Student|Lead|Director|VP|Founder))\s+at\s+([A-Za-z0-9\s\-&.]+)`)
	rolePipeRe      = regexp.MustCompile(`([A-Za-z0-9 \t\-]+)[ \t]*\|[ \t]*([A-Za-z0-9\s\-&.]+)`)
	techRoleRe      = regexp.MustCompile(`(?i)((?:Senior\s+|Junior\s+|Lead\s+|Full[\s-]?Stack\s+)?(?:Software|Java|Python|Backend|Frontend|Web|Data|Cloud|DevOps|ML|AI|System|Network|QA|Test|Mobile|iOS|Android)\s+(?:Developer|Engineer|Architect|Analyst|Scientist|Designer))`)
	expCompanyRe    = regexp.MustCompile(`(?:EXPERIENCE|Experience).*?(?:at|·|-)\s*([A-Z][A-Za-z0-9\s&.]+?)(?:\n|$)`)
	profileHeaderRe = regexp.MustCompile(`=== PROFILE HEADER ===\s*(.+)`)
)

// CrossCorrect repairs a parsed record in place against the normalized
// source text and, when available, the source URL. Rules fire in a
// fixed order and each acts only when its precondition holds; the
// stage always terminates with best-effort values.
func CrossCorrect(rec *model.ProfileRecord, cleaned, sourceURL string) {
	name := SanitizeField(rec.Name)
	company := SanitizeField(rec.Company)
	role := SanitizeField(rec.Role)

	if IsGarbage(name) {
		name = model.Unknown
	}
	if IsGarbage(company) {
		company = model.Unknown
	}
	if IsGarbage(role) {
		role = model.Unknown
	}

	// Field-level hallucination reset, independent of the message guard.
	if isExampleMarker(name) {
		name = model.Unknown
	}
	if isExampleMarker(company) {
		company = model.Unknown
	}

	// URL cross-validation. A name sharing no words with the URL slug
	// was lifted from a sidebar card or the offering context, so the
	// whole header is re-derived from the section structure.
	urlName := NameFromURL(sourceURL)
	if name != model.Unknown && urlName != model.Unknown && !wordsIntersect(urlName, name) {
		hdrName, hdrRole, hdrCompany := extractFromSections(cleaned)
		if hdrName != model.Unknown {
			name = hdrName
		} else {
			name = urlName
		}
		if hdrCompany != model.Unknown {
			company = hdrCompany
		}
		if hdrRole != model.Unknown {
			role = hdrRole
		}
	}

	// Role/company swap correction.
	if company != model.Unknown && LooksLikeRole(company) {
		switch {
		case role == model.Unknown:
			role, company = company, model.Unknown
		case !LooksLikeRole(role):
			role, company = company, model.Unknown
		case LooksLikeName(role):
			if name == model.Unknown {
				name = role
			}
			role, company = company, model.Unknown
		}
	}
	if role != model.Unknown && name == model.Unknown && LooksLikeName(role) {
		name = role
		role = model.Unknown
	}

	// Regex fallbacks over a bounded prefix of the source text.
	if company == model.Unknown || role == model.Unknown {
		head := clamp(cleaned, 1000)

		if m := roleAtCompanyRe.FindStringSubmatch(head); m != nil {
			if role == model.Unknown {
				role = strings.TrimSpace(m[1])
			}
			if company == model.Unknown {
				company = firstLine(strings.TrimSpace(m[2]))
			}
		}
		if company == model.Unknown {
			if m := rolePipeRe.FindStringSubmatch(head); m != nil {
				if role == model.Unknown {
					role = strings.TrimSpace(m[1])
				}
				company = firstLine(strings.TrimSpace(m[2]))
			}
		}
		if role == model.Unknown {
			if m := techRoleRe.FindStringSubmatch(head); m != nil {
				role = strings.TrimSpace(m[1])
			}
		}
		if company == model.Unknown {
			if m := expCompanyRe.FindStringSubmatch(clamp(cleaned, 1500)); m != nil {
				company = strings.TrimSpace(m[1])
			}
		}

		// Section-structure adjacency as the last resort.
		if company == model.Unknown || role == model.Unknown {
			_, hdrRole, hdrCompany := extractFromSections(cleaned)
			if company == model.Unknown && hdrCompany != model.Unknown {
				company = hdrCompany
			}
			if role == model.Unknown && hdrRole != model.Unknown {
				role = hdrRole
			}
		}
	}

	// Name fallbacks: profile header line, then the URL slug.
	if name == model.Unknown {
		if m := profileHeaderRe.FindStringSubmatch(cleaned); m != nil {
			candidate := firstLine(strings.TrimSpace(m[1]))
			if !IsGarbage(candidate) && !isExampleMarker(candidate) {
				name = candidate
			}
		}
	}
	if name == model.Unknown {
		name = NameFromURL(sourceURL)
	}

	rec.Name = name
	rec.Company = company
	rec.Role = role
}

func isExampleMarker(val string) bool {
	lower := strings.ToLower(val)
	for _, m := range exampleMarkers {
		if lower == m {
			return true
		}
	}
	return false
}

func wordsIntersect(a, b string) bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(a)) {
		set[w] = true
	}
	for _, w := range strings.Fields(strings.ToLower(b)) {
		if set[w] {
			return true
		}
	}
	return false
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		return s[:nl]
	}
	return s
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
