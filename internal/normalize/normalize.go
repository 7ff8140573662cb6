// Package normalize strips navigation chrome, footer boilerplate, and
// viewer-context noise out of raw scraped profile text, leaving only
// lines that describe the profile owner.
package normalize

import (
	"strings"
	"unicode"
)

// noiseLines are chrome and boilerplate line prefixes dropped wherever
// they appear.
var noiseLines = []string{
	"0 notifications",
	"Home",
	"My Network",
	"Jobs",
	"Messaging",
	"Notifications",
	"Me",
	"For Business",
	"Try Premium",
	"Try Premium for",
	"Post",
	"Write an article",
	"Add a photo",
	"Add a video",
	"Send",
	"More",
	"Open to",
	"Add profile section",
	"Enhance profile",
	"Accessibility",
	"Talent Solutions",
	"Community Guidelines",
	"Careers",
	"Marketing Solutions",
	"Privacy & Terms",
	"Ad Choices",
	"Advertising",
	"Sales Solutions",
	"Mobile",
	"Small Business",
	"Safety Center",
	"LinkedIn Corporation",
	"Questions?",
	"Visit our Help Center",
	"Manage your account and privacy",
	"Go to your Settings",
	"Recommendation transparency",
	"Select language",
	"Status is online",
	"You are on the messaging overlay",
	"Compose message",
}

// footer markers: everything at and after these lines is page footer,
// never profile content.
var footerMarkers = []string{"Select language", "LinkedIn Corporation"}

// AddNoisePrefixes extends the denylist with site-specific prefixes from
// configuration. Called once at startup.
func AddNoisePrefixes(prefixes []string) {
	for _, p := range prefixes {
		if p = strings.TrimSpace(p); p != "" {
			noiseLines = append(noiseLines, p)
		}
	}
}

const dupCollapseMaxLen = 50

// Clean filters raw profile text line by line and returns the noise-free
// form. Lines are trimmed; the relative order of surviving lines is
// preserved.
func Clean(text string) string {
	var cleaned []string

lines:
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, m := range footerMarkers {
			if strings.Contains(line, m) {
				break lines
			}
		}
		if hasNoisePrefix(line) {
			continue
		}
		// Connection-degree badges belong to other people's cards.
		if strings.Contains(line, "· 1st") || strings.Contains(line, "· 2nd") || strings.Contains(line, "· 3rd") {
			continue
		}
		// A bare Follow button trails a suggested-profile card: the card
		// is the two preceding lines (name and headline).
		if line == "Follow" {
			if len(cleaned) >= 2 {
				cleaned = cleaned[:len(cleaned)-2]
			} else if len(cleaned) == 1 {
				cleaned = cleaned[:0]
			}
			continue
		}
		// Show more / Load more trail lists of suggested cards rendered
		// as name-then-headline pairs, where the headline carries a '|'.
		if line == "Show more" || line == "Load more" {
			for len(cleaned) >= 2 &&
				strings.Contains(cleaned[len(cleaned)-1], "|") &&
				len(strings.Fields(cleaned[len(cleaned)-2])) <= 5 &&
				startsUpper(cleaned[len(cleaned)-2]) &&
				!strings.HasPrefix(cleaned[len(cleaned)-2], "===") {
				cleaned = cleaned[:len(cleaned)-2]
			}
			continue
		}
		if line == "About" {
			continue
		}
		// Short bare counters (connection counts, badge numbers).
		if len(line) <= 2 && allDigits(line) {
			continue
		}
		cleaned = append(cleaned, line)
	}

	return strings.Join(collapseDuplicates(cleaned), "\n")
}

// collapseDuplicates drops consecutive repeats of short lines. Scraped
// pages duplicate names and headlines between the card and the header;
// long lines are left alone since repeated prose is real content.
func collapseDuplicates(lines []string) []string {
	out := lines[:0]
	for _, line := range lines {
		if len(out) > 0 && len(line) <= dupCollapseMaxLen && out[len(out)-1] == line {
			continue
		}
		out = append(out, line)
	}
	return out
}

func hasNoisePrefix(line string) bool {
	for _, n := range noiseLines {
		if strings.HasPrefix(line, n) {
			return true
		}
	}
	return false
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func allDigits(s string) bool {
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
