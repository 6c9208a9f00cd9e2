package runner

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"refinery/internal/artifact"
	"refinery/internal/runctx"
)

// PromptSaver implements llm.PromptHook and persists every prompt and
// raw response as a run artifact, one transcript per round and role
// (prompts/round_02_critic.md). Saving is best effort: a failing store
// never interrupts the session.
type PromptSaver struct {
	Store artifact.Store
	RunID string

	mu   sync.Mutex
	logs map[string]*bytes.Buffer
}

func NewPromptSaver(store artifact.Store, runID string) *PromptSaver {
	return &PromptSaver{Store: store, RunID: runID, logs: make(map[string]*bytes.Buffer)}
}

func (p *PromptSaver) Before(ctx context.Context, role, prompt string) {
	if p == nil || p.Store == nil {
		return
	}
	p.append(ctx, role, func(buf *bytes.Buffer) {
		fmt.Fprintf(buf, "==== %s ====\n\n## PROMPT\n\n%s\n\n", time.Now().Format(time.RFC3339), prompt)
	})
}

func (p *PromptSaver) After(ctx context.Context, role, response string, err error) {
	if p == nil || p.Store == nil {
		return
	}
	p.append(ctx, role, func(buf *bytes.Buffer) {
		buf.WriteString("## RESPONSE\n\n")
		if err != nil {
			buf.WriteString("ERROR: " + err.Error())
		} else {
			buf.WriteString(response)
		}
		buf.WriteString("\n\n")
	})
}

func (p *PromptSaver) append(ctx context.Context, role string, write func(*bytes.Buffer)) {
	if role == "" {
		role = "unknown"
	}
	name := fmt.Sprintf("prompts/round_%02d_%s.md", runctx.RoundFrom(ctx), role)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.logs == nil {
		p.logs = make(map[string]*bytes.Buffer)
	}
	buf, ok := p.logs[name]
	if !ok {
		buf = &bytes.Buffer{}
		p.logs[name] = buf
	}
	write(buf)
	_ = p.Store.Put(ctx, p.RunID, name, buf.Bytes())
}
