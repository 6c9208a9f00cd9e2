// Package scorecard extracts the critic's structured status block from a
// free-form review and exposes the predicates the refinement loop keys on.
package scorecard

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Markers delimiting the status block inside a raw review. Matched
// case-insensitively; everything after the end marker is feedback.
const (
	StartMarker = "**REVIEWER_SCORECARD**"
	EndMarker   = "**END_SCORECARD**"
)

var (
	startRe = regexp.MustCompile(`(?i)\*\*REVIEWER_SCORECARD\*\*`)
	endRe   = regexp.MustCompile(`(?i)\*\*END_SCORECARD\*\*`)

	decoration = strings.NewReplacer("*", "", "[", "", "]", "")
)

// Fields is the keyed status map emitted by the critic. The schema is
// whatever the critic writes; keys keep their source casing with
// decoration stripped.
type Fields map[string]string

// Parse splits a raw review into its status fields and the trailing
// feedback text. It never fails: a review without a start marker yields an
// empty field map and the whole input as feedback, and a malformed field
// section degrades to whatever lines could be read.
func Parse(raw string) (Fields, string) {
	loc := startRe.FindStringIndex(raw)
	if loc == nil {
		return Fields{}, raw
	}

	section := raw[loc[1]:]
	feedback := ""
	if end := endRe.FindStringIndex(section); end != nil {
		feedback = strings.TrimSpace(section[end[1]:])
		section = section[:end[0]]
	}
	section = strings.TrimSpace(section)

	if strings.HasPrefix(section, "{") {
		if fields, ok := parseJSON(section); ok {
			return fields, feedback
		}
	}
	return parseLines(section), feedback
}

// parseJSON decodes a JSON object section. Scalar values that are not
// strings are stringified; nested values are re-encoded compactly.
func parseJSON(section string) (Fields, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(section), &obj); err != nil {
		return nil, false
	}
	fields := make(Fields, len(obj))
	for k, v := range obj {
		fields[k] = stringify(v)
	}
	return fields, true
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	case float64, bool:
		return fmt.Sprint(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// parseLines reads `key: value` lines. Emphasis and list decoration is
// stripped, the split happens at the first colon only, and a later
// duplicate key overwrites an earlier one.
func parseLines(section string) Fields {
	fields := Fields{}
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, ":") {
			continue
		}
		line = decoration.Replace(line)
		i := strings.Index(line, ":")
		if i <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:i])
		value := strings.TrimSpace(line[i+1:])
		fields[key] = value
	}
	return fields
}
