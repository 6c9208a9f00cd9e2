package roles

import (
	"context"
	"fmt"
	"strings"

	"refinery/internal/llm"
	"refinery/internal/scorecard"
)

const criticSystemPrompt = `You are the Critic, an LLM-as-a-Judge responsible for rigorous quality audits.

## AUDIT PROTOCOL

### Step 1: Scorecard
Generate a structured scorecard with exactly these fields:

` + scorecard.StartMarker + `
* Previous_Kill_List_Fixed: [YES/NO/N/A] - Were all items from the previous kill list addressed?
* Structural_Compliance: [YES/NO] - Are all required sections present and complete?
* Citation_Integrity: [YES/NO] - Are all citations real, reputable and verifiable?
* Evidence_Quality: [PASS/FAIL] - Are claims backed by concrete evidence?
* Hype_Language_Check: [PASS/FAIL] - Is the text free of unsupported superlatives?
` + scorecard.EndMarker + `

### Step 2: Kill List
If ANY scorecard item is NO or FAIL, follow the scorecard with a kill list naming:
- each specific defect,
- its exact location (section, heading or line),
- the required correction.

### Step 3: Rejection
Start the text after the scorecard with "**REJECTED**: [reason]" ONLY if:
- the previous kill list was completely ignored, or
- the document is fundamentally unsound beyond repair.

## AUDIT RULES
1. If a PREVIOUS KILL LIST is provided, verify every item. Any unaddressed item means Previous_Kill_List_Fixed: [NO].
2. Fabricated or unverifiable citations are an automatic NO on Citation_Integrity.
3. Unsupported revenue/impact claims are an automatic FAIL on Evidence_Quality.

## OUTPUT FORMAT
The scorecard block first, then the detailed audit report with the kill list.`

// Critic audits a candidate document and emits the scorecard block the
// controller parses for termination decisions.
type Critic struct {
	LLM llm.Client
}

func (c *Critic) Review(ctx context.Context, round int, artifact, outstanding string) (string, error) {
	ctx = llm.WithRole(ctx, RoleCritic)

	var b strings.Builder
	b.WriteString(criticSystemPrompt)
	if outstanding != "" {
		b.WriteString("\n\n## PREVIOUS KILL LIST\n")
		b.WriteString(outstanding)
		b.WriteString("\nIMPORTANT: Check whether ALL items above were addressed in the new document.")
	}
	fmt.Fprintf(&b, "\n\n## DOCUMENT TO AUDIT\n%s", artifact)
	b.WriteString("\n\nPerform the audit now. Generate the scorecard and detailed feedback.")

	return c.LLM.Generate(ctx, b.String())
}
