package kb

import (
	"sort"
	"strings"

	"github.com/sells-group/outreach-cli/internal/model"
)

// OfferingType is the coarse class of what the sender is selling. It
// biases which similarity signals matter, nothing more.
type OfferingType string

const (
	OfferingBootcamp OfferingType = "bootcamp"
	OfferingTalent   OfferingType = "talent"
	OfferingDevtool  OfferingType = "devtool"
	OfferingGeneral  OfferingType = "general"
)

const maxMatches = 3

var bootcampKeywords = []string{
	"bootcamp", "course", "training", "learn", "student",
	"placement", "interview prep", "mentorship", "campus",
	"certification", "workshop", "curriculum", "teaching",
}

var talentKeywords = []string{
	"hire", "hiring", "talent", "recruit", "staffing",
	"developer", "engineer", "team", "scale", "on-demand",
	"vetted", "pre-vetted", "join", "joining", "career",
	"opportunity", "opening", "vacancy",
}

var devtoolKeywords = []string{
	"tool", "platform", "saas", "product", "software",
	"deploy", "ci/cd", "code review", "integration",
	"automate", "workflow", "api",
}

// eduKeywords mark a role as early-career or academic for
// bootcamp-offering scoring.
var eduKeywords = []string{
	"student", "sophomore", "junior", "senior", "freshman",
	"intern", "trainee", "graduate", "university", "institute",
	"college", "vit", "iit", "nit",
}

// SetKeywords replaces the offering-type keyword lists. Empty slices
// keep the built-in defaults. Called once at startup when a keywords
// file is configured.
func SetKeywords(bootcamp, talent, devtool, education []string) {
	if len(bootcamp) > 0 {
		bootcampKeywords = bootcamp
	}
	if len(talent) > 0 {
		talentKeywords = talent
	}
	if len(devtool) > 0 {
		devtoolKeywords = devtool
	}
	if len(education) > 0 {
		eduKeywords = education
	}
}

// roleStopwords are dropped before role-token overlap comparison.
var roleStopwords = map[string]bool{"at": true, "the": true, "and": true, "of": true, "in": true}

// DetectOfferingType classifies an offering description by keyword
// frequency voting. Ties break in the fixed order bootcamp, talent,
// devtool; no hits at all means general.
func DetectOfferingType(offering string) OfferingType {
	if offering == "" {
		return OfferingGeneral
	}
	text := strings.ToLower(offering)

	count := func(keywords []string) int {
		n := 0
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				n++
			}
		}
		return n
	}

	bootcamp := count(bootcampKeywords)
	talent := count(talentKeywords)
	devtool := count(devtoolKeywords)

	top := bootcamp
	if talent > top {
		top = talent
	}
	if devtool > top {
		top = devtool
	}
	switch {
	case top == 0:
		return OfferingGeneral
	case bootcamp == top:
		return OfferingBootcamp
	case talent == top:
		return OfferingTalent
	default:
		return OfferingDevtool
	}
}

// FindSimilar scores stored prospects against a new record and returns
// the top matches for social-proof context. An exact company match is
// always the strongest signal; the rest of the weight shifts with the
// offering class. Only strictly positive scores qualify; ties keep
// store order.
func FindSimilar(prospects []model.Prospect, company, industry, role, offering string) []model.MatchCandidate {
	if len(prospects) == 0 {
		return nil
	}

	offeringType := DetectOfferingType(offering)
	companyLower := strings.ToLower(company)
	industryLower := strings.ToLower(industry)

	var scored []model.MatchCandidate
	for _, p := range prospects {
		score := 0
		var reasons []string

		pCompany := strings.ToLower(p.Company)
		pIndustry := strings.ToLower(p.Industry)

		if company != "" && pCompany == companyLower {
			score += 4
			reasons = append(reasons, model.ReasonSameCompany)
		}

		switch offeringType {
		case OfferingBootcamp:
			if containsAnyKeyword(strings.ToLower(p.Role), eduKeywords) {
				score += 2
				reasons = append(reasons, model.ReasonSimilarCareerStage)
			}
			if rolesOverlap(role, p.Role, true) {
				score++
				reasons = append(reasons, model.ReasonSimilarSkills)
			}
		case OfferingTalent:
			if industry != "" && pIndustry == industryLower {
				score += 3
				reasons = append(reasons, model.ReasonSameIndustry)
			}
			if rolesOverlap(role, p.Role, true) {
				score += 2
				reasons = append(reasons, model.ReasonSimilarRole)
			}
		case OfferingDevtool:
			if industry != "" && pIndustry == industryLower {
				score += 2
				reasons = append(reasons, model.ReasonSameIndustry)
			}
			if rolesOverlap(role, p.Role, true) {
				score++
				reasons = append(reasons, model.ReasonSimilarRole)
			}
		default:
			if industry != "" && pIndustry == industryLower {
				score += 2
				reasons = append(reasons, model.ReasonSameIndustry)
			}
			if rolesOverlap(role, p.Role, false) {
				score++
				reasons = append(reasons, model.ReasonSimilarRole)
			}
		}

		if score > 0 {
			scored = append(scored, model.MatchCandidate{Prospect: p, Score: score, Reasons: reasons})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > maxMatches {
		scored = scored[:maxMatches]
	}
	return scored
}

func containsAnyKeyword(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// rolesOverlap reports whether the two role strings share a token,
// optionally ignoring connective stopwords.
func rolesOverlap(a, b string, dropStopwords bool) bool {
	if a == "" || b == "" {
		return false
	}
	set := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(a)) {
		set[w] = true
	}
	for _, w := range strings.Fields(strings.ToLower(b)) {
		if !set[w] {
			continue
		}
		if dropStopwords && roleStopwords[w] {
			continue
		}
		return true
	}
	return false
}
