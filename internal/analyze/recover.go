package analyze

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

// DegradedNote flags a record synthesized by the regex fallback after
// every structured recovery strategy failed.
const DegradedNote = "degraded extraction: response was not recoverable JSON"

const rawPreviewLimit = 200

// listFields are the record keys whose null values scrub to an empty
// list rather than the Unknown sentinel.
var listFields = map[string]bool{
	"education":             true,
	"certifications":        true,
	"recent_activity":       true,
	"key_insights":          true,
	"personalization_hooks": true,
	"pain_points":           true,
	"goals":                 true,
}

// recoveryStrategy attempts to pull a JSON object out of a raw model
// response. Strategies are tried in order; the first hit wins.
type recoveryStrategy struct {
	name string
	fn   func(raw string) (map[string]any, bool)
}

var recoveryChain = []recoveryStrategy{
	{"balanced-brace-scan", scanBalanced},
	{"fenced-block", fencedBlock},
	{"label-anchor", labelAnchor},
	{"whole-response", wholeResponse},
}

// RecoverObject runs the structured recovery chain over a raw model
// response and returns the extracted JSON object, nulls scrubbed. Used
// wherever a model is asked for a JSON answer, not only for profiles.
func RecoverObject(raw string) (map[string]any, bool) {
	for _, s := range recoveryChain {
		if obj, ok := s.fn(raw); ok {
			return scrubNulls(obj, "").(map[string]any), true
		}
	}
	return nil, false
}

// Parse recovers a ProfileRecord from a raw model response. Structured
// recovery is attempted first; if every strategy fails, a minimal
// record is synthesized from the normalized source text and flagged as
// degraded. An error is returned only when the response is an in-band
// transport failure or when there is nothing to synthesize from.
func Parse(raw, normalized string) (*model.ProfileRecord, error) {
	if strings.HasPrefix(strings.TrimSpace(raw), "Error:") {
		return nil, eris.New(strings.TrimSpace(raw))
	}

	if obj, ok := RecoverObject(raw); ok {
		if rec, err := decodeRecord(obj); err == nil {
			return rec, nil
		}
	}

	rec, ok := regexFallback(normalized, raw)
	if !ok {
		return nil, eris.New("analyze: no recoverable content in response")
	}
	return rec, nil
}

// scanBalanced scans left to right collecting every top-level balanced
// brace block that parses as JSON, and returns the last one. Scanning
// resumes after each validated block so objects nested inside an
// already-captured candidate are not counted separately. Braces inside
// string literals are ignored.
func scanBalanced(raw string) (map[string]any, bool) {
	text := strings.TrimSpace(raw)
	var last map[string]any
	found := false

	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		j := matchBrace(text, i)
		if j < 0 {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(text[i:j+1]), &obj); err == nil {
			last, found = obj, true
			i = j
		}
	}
	return last, found
}

// matchBrace returns the index of the brace balancing text[start], or
// -1 if the block never closes. String literals and escapes are
// respected so a '}' inside a string value does not end the block.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for j := start; j < len(text); j++ {
		c := text[j]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString:
			if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

var fenceRe = regexp.MustCompile("(?s)```json\\s*(.*?)```")

func fencedBlock(raw string) (map[string]any, bool) {
	m := fenceRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}
	return parseObject(m[1])
}

// outputLabels announce where the model put its answer.
var outputLabels = []string{"JSON OUTPUT:", "OUTPUT:", "JSON:"}

// labelAnchor takes the text after the first occurrence of a label, up
// to the next fence marker when one follows.
func labelAnchor(raw string) (map[string]any, bool) {
	for _, label := range outputLabels {
		idx := strings.Index(raw, label)
		if idx < 0 {
			continue
		}
		tail := raw[idx+len(label):]
		if fence := strings.Index(tail, "```"); fence >= 0 {
			tail = tail[:fence]
		}
		open := strings.Index(tail, "{")
		end := strings.LastIndex(tail, "}")
		if open < 0 || end <= open {
			continue
		}
		if obj, ok := parseObject(tail[open : end+1]); ok {
			return obj, true
		}
	}
	return nil, false
}

func wholeResponse(raw string) (map[string]any, bool) {
	stripped := strings.ReplaceAll(raw, "```json", "")
	stripped = strings.ReplaceAll(stripped, "```", "")
	return parseObject(stripped)
}

func parseObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// scrubNulls replaces JSON nulls per the sentinel rule: list-typed
// keys get an empty list, everything else gets Unknown. Applied
// recursively through nested maps and lists.
func scrubNulls(v any, key string) any {
	switch t := v.(type) {
	case nil:
		if listFields[key] {
			return []any{}
		}
		return model.Unknown
	case map[string]any:
		for k, inner := range t {
			t[k] = scrubNulls(inner, k)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = scrubNulls(inner, "")
		}
		return t
	default:
		return v
	}
}

func decodeRecord(obj map[string]any) (*model.ProfileRecord, error) {
	buf, err := json.Marshal(obj)
	if err != nil {
		return nil, eris.Wrap(err, "analyze: re-marshal recovered object")
	}
	var rec model.ProfileRecord
	if err := json.Unmarshal(buf, &rec); err != nil {
		return nil, eris.Wrap(err, "analyze: decode recovered object")
	}
	rec.Normalize()
	return &rec, nil
}

var fallbackNameRe = regexp.MustCompile(`\b([A-Z][a-z]+ [A-Z][a-z]+)\b`)

// regexFallback synthesizes a minimal record straight from the
// normalized source text when no strategy could recover JSON. The
// record carries a degraded-extraction note and a preview of the
// unparsed response so the failure stays visible downstream.
func regexFallback(normalized, raw string) (*model.ProfileRecord, bool) {
	if strings.TrimSpace(normalized) == "" {
		return nil, false
	}

	rec := &model.ProfileRecord{
		ExtractionNote: DegradedNote,
		RawPreview:     clamp(raw, rawPreviewLimit),
	}

	lines := strings.Split(normalized, "\n")
	for i, line := range lines {
		m := fallbackNameRe.FindString(line)
		if m == "" {
			continue
		}
		rec.Name = m
		if i+1 < len(lines) && strings.Contains(lines[i+1], "@") {
			parts := strings.SplitN(lines[i+1], "@", 2)
			rec.Role = strings.TrimSpace(parts[0])
			rec.Company = strings.TrimSpace(parts[1])
		}
		break
	}

	rec.Normalize()
	return rec, true
}
