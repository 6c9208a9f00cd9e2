package llm

import (
	"context"
	"sync"
)

// Fake replays a scripted sequence of responses for offline runs and
// tests, recording every prompt it receives. Once the script is
// exhausted the final response repeats.
type Fake struct {
	mu        sync.Mutex
	responses []string
	calls     int

	// Err, when set, is returned by every Generate call.
	Err error

	// Prompts records each prompt in call order.
	Prompts []string
}

func NewFake(responses ...string) *Fake {
	return &Fake{responses: responses}
}

func (f *Fake) Name() string { return "fake" }
func (f *Fake) Close() error { return nil }

func (f *Fake) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, prompt)
	f.calls++
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.responses) == 0 {
		return "", ErrEmptyResponse
	}
	i := f.calls - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

// Calls reports how many times Generate has been invoked.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
