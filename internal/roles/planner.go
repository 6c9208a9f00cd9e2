package roles

import (
	"context"
	"fmt"
	"strings"

	"refinery/internal/llm"
)

const plannerInitialPrompt = `You are the Planner. Generate a simple, single initial execution step to begin working toward the analysis goals.

Analysis goals:
%s

Available data files and descriptions:
%s

Generate a highly granular initial step that:
1. Focuses on loading and exploring the most relevant data file
2. Performs basic data validation
3. Sets up the foundation for the analysis

Return the step as short plain text describing what to do.`

const plannerNextPrompt = `You are the Planner. Based on the router's feedback, generate the next execution step to address the identified shortcoming.

Router feedback:
%s

Current accumulated plan:
%s

Available data files and descriptions:
%s

Return the next step as short plain text describing what to do.`

const plannerRevisePrompt = `You are the Planner. Based on the router's feedback, correct the existing execution step to address the identified issue.

Current step to correct:
%s

Router feedback:
%s

Return the corrected step as short plain text describing what to do.`

// Planner generates and revises plan steps from router feedback.
type Planner struct {
	LLM llm.Client
}

// InitialStep seeds the plan before the first round.
func (p *Planner) InitialStep(ctx context.Context, goals, dataDesc string) (string, error) {
	ctx = llm.WithRole(ctx, RolePlanner)
	out, err := p.LLM.Generate(ctx, fmt.Sprintf(plannerInitialPrompt, goals, dataDesc))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (p *Planner) NextStep(ctx context.Context, round int, feedback, accumulatedPlan, dataDesc string) (string, error) {
	ctx = llm.WithRole(ctx, RolePlanner)
	out, err := p.LLM.Generate(ctx, fmt.Sprintf(plannerNextPrompt, feedback, accumulatedPlan, dataDesc))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (p *Planner) ReviseStep(ctx context.Context, round, index int, existing, feedback string) (string, error) {
	ctx = llm.WithRole(ctx, RolePlanner)
	out, err := p.LLM.Generate(ctx, fmt.Sprintf(plannerRevisePrompt, existing, feedback))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
