// Package roles implements the LLM-backed collaborators of the
// refinement loops: drafter, critic and strategist for document runs;
// analyzer, planner, coder, verifier and finalizer for analysis runs.
// Each role owns its prompt template and tags its context so hooks and
// logs can attribute model traffic.
package roles

// Role names used for context tagging and transcript attribution.
const (
	RoleDrafter    = "drafter"
	RoleCritic     = "critic"
	RoleStrategist = "strategist"
	RoleAnalyzer   = "analyzer"
	RolePlanner    = "planner"
	RoleCoder      = "coder"
	RoleVerifier   = "verifier"
	RoleFinalizer  = "finalizer"
)

// head returns at most n characters of s, marking truncation the way
// the audit prompts expect.
func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
