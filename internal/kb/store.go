// Package kb persists outreach prospects and answers similarity
// queries over them for social-proof context.
package kb

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Store defines the prospect persistence interface.
type Store interface {
	// SaveProspect inserts a prospect or, when an entry with the same
	// case-insensitive (name, company) pair exists, overwrites it while
	// preserving the original id and outreach status.
	SaveProspect(ctx context.Context, rec *model.ProfileRecord, msgs *model.MessageBundle, url string) (*model.Prospect, error)
	// GetProspect fetches a prospect by id.
	GetProspect(ctx context.Context, id string) (*model.Prospect, error)
	// ListProspects returns all stored prospects in insertion order.
	ListProspects(ctx context.Context) ([]model.Prospect, error)
	// UpdateStatus moves a prospect through the outreach lifecycle.
	UpdateStatus(ctx context.Context, id string, status model.ProspectStatus) error
	// DeleteProspect removes a prospect by id.
	DeleteProspect(ctx context.Context, id string) error
	// Stats summarizes the store, excluding sentinel values.
	Stats(ctx context.Context) (*model.KBStats, error)

	Migrate(ctx context.Context) error
	Close() error
}

// BuildSummary renders a one-line summary of a profile for listings.
func BuildSummary(rec *model.ProfileRecord) string {
	var parts []string
	if rec.Role != "" && rec.Role != model.Unknown {
		parts = append(parts, rec.Role)
	}
	if rec.Company != "" && rec.Company != model.Unknown {
		parts = append(parts, fmt.Sprintf("at %s", rec.Company))
	}
	if len(rec.KeyInsights) > 0 {
		insights := rec.KeyInsights
		if len(insights) > 2 {
			insights = insights[:2]
		}
		parts = append(parts, fmt.Sprintf("- %s", strings.Join(insights, ", ")))
	}
	if len(parts) == 0 {
		return "No summary"
	}
	return strings.Join(parts, " ")
}
