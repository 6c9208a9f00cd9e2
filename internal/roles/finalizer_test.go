package roles

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"refinery/internal/llm"
	"refinery/internal/tester"
)

func TestFinalizerWritesPolishedScript(t *testing.T) {
	dir := t.TempDir()
	fake := llm.NewFake("```python\nimport pandas as pd\npd.DataFrame().to_csv('out.csv')\n```")
	f := &Finalizer{LLM: fake, OutDir: dir}

	path, err := f.Finalize(context.Background(), "goals", "Step 0:\nplan", "print('draft')")
	tester.NoErr(t, err)
	tester.Eq(t, path, filepath.Join(dir, "final_analysis.py"))

	b, err := os.ReadFile(path)
	tester.NoErr(t, err)
	tester.Eq(t, string(b), "import pandas as pd\npd.DataFrame().to_csv('out.csv')")

	tester.Contains(t, fake.Prompts[0], "print('draft')")
	tester.Contains(t, fake.Prompts[0], "Step 0:\nplan")
}
