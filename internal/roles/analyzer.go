package roles

import (
	"context"
	"fmt"

	"refinery/internal/analysis"
	"refinery/internal/llm"
)

const analyzerPrompt = `You are the Analyzer. Analyze the following data file and generate a concise data description that includes:
1. File structure (columns, data types, format)
2. Key statistical properties (if applicable)
3. Potential use cases for the analysis

File: %s
Preview (first %d chars):
%s

Return a structured data description covering:
- structure
- statistics
- use_cases`

// Analyzer produces a per-file description of the data files available
// to the analysis run. The descriptions are generated once, before the
// loop, and stay fixed for its whole duration.
type Analyzer struct {
	LLM llm.Client
}

func (a *Analyzer) DescribeFiles(ctx context.Context, files []analysis.DataFile) (map[string]string, error) {
	ctx = llm.WithRole(ctx, RoleAnalyzer)

	described := make(map[string]string, len(files))
	for _, f := range files {
		out, err := a.LLM.Generate(ctx, fmt.Sprintf(analyzerPrompt, f.Name, len(f.Preview), f.Preview))
		if err != nil {
			return nil, fmt.Errorf("describe %s: %w", f.Name, err)
		}
		described[f.Name] = out
	}
	return described, nil
}
