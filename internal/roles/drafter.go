package roles

import (
	"context"
	"fmt"

	"refinery/internal/llm"
)

const drafterSystemPrompt = `You are the Drafter, responsible for producing complete, high-quality documents.

## QUALITY REQUIREMENTS
- Every section the task calls for must be present and complete.
- All citations must reference reputable, verifiable sources.
- Claims must be backed by evidence; no hype language or unsupported superlatives.
- Structure and terminology must follow the task's conventions exactly.

## OUTPUT FORMAT
Your output must be the complete document in markdown, nothing else.

IMPORTANT: If a KILL LIST is provided, you MUST address every item on it before anything else. Ignored kill-list items lead to rejection.`

const drafterOutlinePrompt = `You are the Drafter, planning a document before writing it.

Produce a section-by-section outline for the task below. For each section give a one-line summary of its intended content. Do not write the document yet.

## TASK
%s`

const drafterFirstDraftPrompt = drafterSystemPrompt + `

## TASK
%s

## APPROVED OUTLINE
%s

Write the complete document now, following the outline.`

const drafterRevisionPrompt = drafterSystemPrompt + `

## TASK
%s

## INSTRUCTION
%s

## KILL LIST (MUST ADDRESS ALL ITEMS)
%s

## CURRENT DOCUMENT
%s

Produce the full revised document now. Output the complete document, not a diff.`

// Drafter produces candidate documents. The first round plans an
// outline and then writes the draft from it; later rounds revise the
// previous candidate under the strategist's instruction and the
// outstanding kill list.
type Drafter struct {
	LLM llm.Client

	lastDraft string
}

func (d *Drafter) Draft(ctx context.Context, round int, task, instruction, outstanding string) (string, error) {
	ctx = llm.WithRole(ctx, RoleDrafter)

	if round <= 1 || d.lastDraft == "" {
		outline, err := d.LLM.Generate(ctx, fmt.Sprintf(drafterOutlinePrompt, task))
		if err != nil {
			return "", fmt.Errorf("outline: %w", err)
		}
		draft, err := d.LLM.Generate(ctx, fmt.Sprintf(drafterFirstDraftPrompt, task, outline))
		if err != nil {
			return "", err
		}
		d.lastDraft = draft
		return draft, nil
	}

	if outstanding == "" {
		outstanding = "(none)"
	}
	draft, err := d.LLM.Generate(ctx, fmt.Sprintf(drafterRevisionPrompt, task, instruction, outstanding, d.lastDraft))
	if err != nil {
		return "", err
	}
	d.lastDraft = draft
	return draft, nil
}
