package roles

import (
	"context"
	"strings"
	"testing"

	"refinery/internal/llm"
	"refinery/internal/scorecard"
	"refinery/internal/tester"
)

func TestStrategistEmbedsAuditContext(t *testing.T) {
	fake := llm.NewFake("  Drafter: rebuild section 2 with IEEE citations  ")
	s := &Strategist{LLM: fake}

	fields := scorecard.Fields{
		"Previous_Kill_List_Fixed": "NO",
		"Citation_Integrity":       "NO",
	}
	out, err := s.NextInstruction(context.Background(), 2, fields, "two fabricated citations in section 2", "# Doc body")
	tester.NoErr(t, err)
	tester.Eq(t, out, "Drafter: rebuild section 2 with IEEE citations")

	prompt := fake.Prompts[0]
	tester.Contains(t, prompt, `"Previous_Kill_List_Fixed": "NO"`)
	tester.Contains(t, prompt, `"Citation_Integrity": "NO"`)
	tester.Contains(t, prompt, "two fabricated citations in section 2")
	tester.Contains(t, prompt, "# Doc body")
}

func TestStrategistTruncatesLongArtifacts(t *testing.T) {
	fake := llm.NewFake("Drafter: shorten it")
	s := &Strategist{LLM: fake}

	artifact := strings.Repeat("a", artifactPreviewLimit) + "TAIL-MARKER"
	_, err := s.NextInstruction(context.Background(), 3, scorecard.Fields{}, "fb", artifact)
	tester.NoErr(t, err)

	prompt := fake.Prompts[0]
	if strings.Contains(prompt, "TAIL-MARKER") {
		t.Fatal("artifact preview must be truncated")
	}
	tester.Contains(t, prompt, strings.Repeat("a", artifactPreviewLimit)+"...")
}
