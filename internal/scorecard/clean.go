package scorecard

import (
	"regexp"
	"strings"
)

var (
	// Lettered section headers ("A. Kill List Status:") that critic
	// feedback sometimes carries. They pollute the carried state when
	// the feedback is re-injected into the next round.
	letteredHeader = regexp.MustCompile(`(?im)^[A-Z]\.\s+[^:\n]+:[ \t]*\n?`)
	blankRuns      = regexp.MustCompile(`\n{3,}`)
)

// Clean strips reviewer section headers from carried feedback and collapses
// runs of blank lines. Applied when feedback becomes the next round's
// outstanding-issues text, not during parsing.
func Clean(feedback string) string {
	if feedback == "" {
		return feedback
	}
	cleaned := letteredHeader.ReplaceAllString(feedback, "")
	cleaned = blankRuns.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}
