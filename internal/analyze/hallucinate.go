package analyze

import (
	"encoding/json"
	"strings"

	"github.com/sells-group/outreach-cli/internal/model"
)

// BundleLeaks reports whether a generated message bundle reproduces
// content from the extraction prompt's few-shot examples. The bundle
// is serialized and searched case-insensitively for the example
// markers; any hit means the model wrote about the example person
// instead of the real prospect.
//
// This is a pure check. Regeneration and the final discard decision
// belong to the caller.
func BundleLeaks(b *model.MessageBundle) bool {
	if b == nil {
		return false
	}
	buf, err := json.Marshal(b)
	if err != nil {
		return false
	}
	text := strings.ToLower(string(buf))
	for _, marker := range exampleMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
