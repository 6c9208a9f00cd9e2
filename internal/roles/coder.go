package roles

import (
	"context"
	"fmt"
	"strings"

	"refinery/internal/llm"
)

const coderPrompt = `You are the Coder. Implement the current execution step as a self-contained Python script that can be executed independently.

Current step to implement:
%s

Full accumulated plan context:
%s

Available data files and descriptions:
%s

%s

Generate a complete, runnable Python script that:
1. Imports all necessary libraries
2. Implements the current step's actions
3. Prints intermediate results for verification
4. Handles errors gracefully
5. Saves any outputs to files (if applicable)

Return ONLY the Python code, no explanations.`

// Coder turns the current plan step into a runnable script. It keeps
// the previous round's script so revisions extend rather than restart.
type Coder struct {
	LLM llm.Client

	lastCode string
}

func (c *Coder) WriteScript(ctx context.Context, round int, step, accumulatedPlan, dataDesc string) (string, error) {
	ctx = llm.WithRole(ctx, RoleCoder)

	previous := ""
	if c.lastCode != "" {
		previous = "Previous code (for reference/extension):\n" + c.lastCode
	}
	out, err := c.LLM.Generate(ctx, fmt.Sprintf(coderPrompt, step, accumulatedPlan, dataDesc, previous))
	if err != nil {
		return "", err
	}
	code := llm.ExtractCode(out)
	if strings.TrimSpace(code) == "" {
		return "", llm.ErrEmptyResponse
	}
	c.lastCode = code
	return code, nil
}
