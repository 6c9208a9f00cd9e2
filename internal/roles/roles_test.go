package roles

import (
	"refinery/internal/analysis"
	"refinery/internal/refine"
)

var (
	_ refine.Drafter    = (*Drafter)(nil)
	_ refine.Critic     = (*Critic)(nil)
	_ refine.Strategist = (*Strategist)(nil)

	_ analysis.Coder     = (*Coder)(nil)
	_ analysis.Verifier  = (*Verifier)(nil)
	_ analysis.Planner   = (*Planner)(nil)
	_ analysis.Finalizer = (*Finalizer)(nil)
)
