package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanDropsChromeAndFooter(t *testing.T) {
	raw := strings.Join([]string{
		"0 notifications",
		"My Network",
		"=== PROFILE HEADER ===",
		"Jane Doe",
		"Software Engineer at Acme",
		"Try Premium for free",
		"Select language",
		"English (English)",
		"LinkedIn Corporation © 2025",
	}, "\n")

	got := Clean(raw)
	assert.Equal(t, "=== PROFILE HEADER ===\nJane Doe\nSoftware Engineer at Acme", got)
}

func TestCleanDropsConnectionDegreeLines(t *testing.T) {
	raw := "Jane Doe\nBob Smith · 2nd\nAlice Wu · 1st degree connection\nAcme Corp"
	assert.Equal(t, "Jane Doe\nAcme Corp", Clean(raw))
}

func TestCleanFollowRemovesPrecedingCard(t *testing.T) {
	raw := strings.Join([]string{
		"=== PROFILE HEADER ===",
		"Jane Doe",
		"Bob Smith",
		"CTO | Builder of things",
		"Follow",
	}, "\n")
	assert.Equal(t, "=== PROFILE HEADER ===\nJane Doe", Clean(raw))

	// With a single preceding line only that line is removed.
	assert.Equal(t, "", Clean("Bob Smith\nFollow"))
}

func TestCleanShowMoreUnwindsSidebarPairs(t *testing.T) {
	raw := strings.Join([]string{
		"=== PROFILE HEADER ===",
		"Jane Doe",
		"Alice Wu",
		"Data Scientist | ML enthusiast",
		"Bob Smith",
		"CTO | Builder",
		"Show more",
		"=== ABOUT ===",
		"I build things.",
	}, "\n")

	got := Clean(raw)
	assert.Equal(t, "=== PROFILE HEADER ===\nJane Doe\n=== ABOUT ===\nI build things.", got)
}

func TestCleanShowMoreStopsAtSectionMarker(t *testing.T) {
	raw := strings.Join([]string{
		"=== SKILLS ===",
		"Go | Python | SQL",
		"Load more",
	}, "\n")
	// Second-last line starts with === so the pair survives.
	assert.Equal(t, "=== SKILLS ===\nGo | Python | SQL", Clean(raw))
}

func TestCleanDropsStandaloneAboutAndShortNumbers(t *testing.T) {
	raw := "Jane Doe\nAbout\n42\n500\nAcme"
	assert.Equal(t, "Jane Doe\n500\nAcme", Clean(raw))
}

func TestCleanCollapsesShortDuplicates(t *testing.T) {
	raw := "Jane Doe\nJane Doe\nJane Doe\nAcme Corp"
	assert.Equal(t, "Jane Doe\nAcme Corp", Clean(raw))

	long := strings.Repeat("x", 60)
	got := Clean(long + "\n" + long)
	assert.Equal(t, long+"\n"+long, got)
}

func TestCleanNoisePrefix(t *testing.T) {
	// Prefix matching catches variants of known chrome lines.
	assert.Equal(t, "", Clean("Messaging overlay is open\nNotifications (3)"))
}
