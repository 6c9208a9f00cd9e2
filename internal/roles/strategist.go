package roles

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"refinery/internal/llm"
	"refinery/internal/scorecard"
)

const strategistSystemPrompt = `You are the Strategist, a prompt engineering specialist responsible for steering the drafter.

Your mission is to analyze the audit failure and produce the single next instruction for the Drafter.

## ANALYSIS PROTOCOL
1. Root cause: identify the failure patterns (structural omissions, weak evidence, compliance violations, ignored feedback).
2. Priority: CRITICAL (previous kill list ignored) > HIGH (structural) > MEDIUM (evidence quality) > LOW (style).
3. Instruction: produce one clear, actionable instruction that:
   - starts with "Drafter:",
   - addresses CRITICAL and HIGH items first,
   - names the exact sections or locations to fix,
   - states measurable success criteria.

## OUTPUT FORMAT
Respond with the single instruction string and nothing else.`

// Strategist turns a failed audit into the next drafting instruction.
type Strategist struct {
	LLM llm.Client
}

// artifactPreviewLimit bounds how much of the failed document the
// strategist sees; the scorecard and feedback carry the defect detail.
const artifactPreviewLimit = 2000

func (s *Strategist) NextInstruction(ctx context.Context, round int, fields scorecard.Fields, feedback, artifact string) (string, error) {
	ctx = llm.WithRole(ctx, RoleStrategist)

	card, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		card = []byte("{}")
	}

	var b strings.Builder
	b.WriteString(strategistSystemPrompt)
	fmt.Fprintf(&b, "\n\n## REVIEWER_SCORECARD\n%s", card)
	fmt.Fprintf(&b, "\n\n## AUDIT_REPORT\n%s", feedback)
	fmt.Fprintf(&b, "\n\n## RAW_DOCUMENT (first %d chars)\n%s", artifactPreviewLimit, head(artifact, artifactPreviewLimit))
	b.WriteString("\n\nAnalyze the failure and generate the next instruction for the Drafter.")

	out, err := s.LLM.Generate(ctx, b.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
