package roles

import (
	"context"
	"fmt"

	"refinery/internal/llm"
)

const verifierPrompt = `You are the Verifier (LLM-as-a-Judge). Evaluate whether the current plan, code, and results are SUFFICIENT to complete the analysis goals.

Analysis goals:
%s

Accumulated plan:
%s

Current code:
%s

Execution success: %t
Execution result:
%s

State your verdict as the single word SUFFICIENT or INSUFFICIENT on the first line, followed by:
- reasoning: detailed explanation of your decision
- missing_elements: what is missing (if INSUFFICIENT)`

// verifierPreviewLimit bounds the code and output excerpts embedded in
// the judgment prompt.
const verifierPreviewLimit = 1000

// Verifier judges whether a round's code and output satisfy the goals.
type Verifier struct {
	LLM llm.Client
}

func (v *Verifier) Evaluate(ctx context.Context, round int, goals, accumulatedPlan, code, output string, execOK bool) (string, error) {
	ctx = llm.WithRole(ctx, RoleVerifier)

	prompt := fmt.Sprintf(verifierPrompt,
		goals,
		accumulatedPlan,
		head(code, verifierPreviewLimit),
		execOK,
		head(output, verifierPreviewLimit),
	)
	return v.LLM.Generate(ctx, prompt)
}
