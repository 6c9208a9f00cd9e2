package roles

import (
	"context"
	"testing"

	"refinery/internal/llm"
	"refinery/internal/tester"
)

func TestCoderStripsFences(t *testing.T) {
	fake := llm.NewFake("```python\nimport csv\nprint('ok')\n```")
	c := &Coder{LLM: fake}

	code, err := c.WriteScript(context.Background(), 1, "load the csv", "Step 0:\nload the csv", "File: data.csv")
	tester.NoErr(t, err)
	tester.Eq(t, code, "import csv\nprint('ok')")

	prompt := fake.Prompts[0]
	tester.Contains(t, prompt, "load the csv")
	tester.Contains(t, prompt, "File: data.csv")
}

func TestCoderCarriesPreviousCode(t *testing.T) {
	fake := llm.NewFake("print('v1')", "print('v2')")
	c := &Coder{LLM: fake}

	_, err := c.WriteScript(context.Background(), 1, "step one", "plan", "")
	tester.NoErr(t, err)
	_, err = c.WriteScript(context.Background(), 2, "step two", "plan", "")
	tester.NoErr(t, err)

	tester.Contains(t, fake.Prompts[1], "Previous code (for reference/extension):")
	tester.Contains(t, fake.Prompts[1], "print('v1')")
}

func TestCoderRejectsEmptyScript(t *testing.T) {
	fake := llm.NewFake("```python\n\n```")
	c := &Coder{LLM: fake}

	_, err := c.WriteScript(context.Background(), 1, "step", "plan", "")
	tester.ErrIs(t, err, llm.ErrEmptyResponse)
}
