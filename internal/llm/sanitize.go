package llm

import (
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z0-9_+.-]*[ \t]*\n(.*?)```")

// ExtractCode pulls the body of the first fenced code block out of a
// model response. Providers often wrap generated scripts in markdown
// fences even when told not to; the interpreter needs them gone. When
// no fence is present the trimmed response is returned as-is.
func ExtractCode(s string) string {
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}
