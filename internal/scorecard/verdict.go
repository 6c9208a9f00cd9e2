package scorecard

import "strings"

const (
	// ResolvedKey is the status field the critic uses to report whether the
	// previous round's outstanding issues were fixed.
	ResolvedKey = "Previous_Kill_List_Fixed"

	successToken   = "YES"
	rejectionToken = "REJECTED"
)

// Rejected reports whether the critic vetoed the candidate outright. The
// check is a case-insensitive substring match over the whole raw review,
// independent of the field map: an explicit rejection overrides any
// success signal the fields may carry.
func Rejected(raw string) bool {
	return strings.Contains(strings.ToUpper(raw), rejectionToken)
}

// IssuesResolved reports whether the critic confirmed every outstanding
// issue as fixed. A missing or unreadable field counts as unresolved.
func IssuesResolved(f Fields) bool {
	return strings.ToUpper(strings.TrimSpace(f[ResolvedKey])) == successToken
}
