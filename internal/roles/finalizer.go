package roles

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"refinery/internal/llm"
)

const finalizerPrompt = `You are the Finalizer. Format the final validated code for publication.

Final code:
%s

Analysis goals:
%s

Full plan executed:
%s

Generate a finalized version that:
1. Saves all results to clean CSV files
2. Saves all charts as PNG files
3. Includes a summary report in Markdown format

Return the enhanced final code with proper output formatting.`

// Finalizer polishes the winning script and writes it to the output
// directory.
type Finalizer struct {
	LLM    llm.Client
	OutDir string
}

// Finalize returns the path of the persisted final script.
func (f *Finalizer) Finalize(ctx context.Context, goals, accumulatedPlan, code string) (string, error) {
	ctx = llm.WithRole(ctx, RoleFinalizer)

	out, err := f.LLM.Generate(ctx, fmt.Sprintf(finalizerPrompt, code, goals, accumulatedPlan))
	if err != nil {
		return "", err
	}
	final := llm.ExtractCode(out)

	if err := os.MkdirAll(f.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("finalize: %w", err)
	}
	path := filepath.Join(f.OutDir, "final_analysis.py")
	if err := os.WriteFile(path, []byte(final), 0o644); err != nil {
		return "", fmt.Errorf("finalize: %w", err)
	}
	return path, nil
}
