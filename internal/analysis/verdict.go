package analysis

import "strings"

const (
	sufficientToken   = "SUFFICIENT"
	insufficientToken = "INSUFFICIENT"
)

// Sufficient reports whether the verifier accepted the current plan and
// code. The positive token must be present and the negative token absent;
// because "INSUFFICIENT" contains "SUFFICIENT", a bare negative verdict is
// correctly read as not sufficient.
func Sufficient(verdict string) bool {
	up := strings.ToUpper(verdict)
	return strings.Contains(up, sufficientToken) && !strings.Contains(up, insufficientToken)
}
