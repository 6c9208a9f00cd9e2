package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// scripted returns one canned result per call, repeating the last.
type scripted struct {
	mu    sync.Mutex
	outs  []string
	errs  []error
	calls int
}

func (s *scripted) Name() string { return "scripted" }
func (s *scripted) Close() error { return nil }
func (s *scripted) Generate(context.Context, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i >= len(s.outs) {
		i = len(s.outs) - 1
	}
	if s.errs[i] != nil {
		return "", s.errs[i]
	}
	return s.outs[i], nil
}

func TestWrapOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next Client) Client {
			return clientFunc(func(ctx context.Context, prompt string) (string, error) {
				order = append(order, name)
				return next.Generate(ctx, prompt)
			})
		}
	}
	c := Wrap(NewFake("ok"), tag("outer"), tag("inner"))
	if _, err := c.Generate(context.Background(), "p"); err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Fatalf("unexpected order: %v", order)
	}
}

// clientFunc adapts a function to the Client interface for tests.
type clientFunc func(ctx context.Context, prompt string) (string, error)

func (f clientFunc) Name() string { return "func" }
func (f clientFunc) Close() error { return nil }
func (f clientFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func TestRetryRecoversFromTransientErrors(t *testing.T) {
	inner := &scripted{
		outs: []string{"", "", "third time lucky"},
		errs: []error{errors.New("503"), errors.New("503"), nil},
	}
	c := Wrap(inner, Retry(5, time.Millisecond))

	out, err := c.Generate(context.Background(), "p")
	if err != nil {
		t.Fatal(err)
	}
	if out != "third time lucky" {
		t.Fatalf("got %q", out)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	inner := &scripted{outs: []string{""}, errs: []error{boom}}
	c := Wrap(inner, Retry(3, time.Millisecond))

	_, err := c.Generate(context.Background(), "p")
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	perm := NewPermanentError(errors.New("context_length_exceeded"))
	inner := &scripted{outs: []string{""}, errs: []error{perm}}
	c := Wrap(inner, Retry(5, time.Millisecond))

	_, err := c.Generate(context.Background(), "p")
	var pErr *PermanentError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", inner.calls)
	}
}

func TestRetryHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inner := &scripted{outs: []string{""}, errs: []error{errors.New("503")}}
	c := Wrap(inner, Retry(5, time.Millisecond))

	_, err := c.Generate(ctx, "p")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", inner.calls)
	}
}

func TestCacheSkipsRepeatCalls(t *testing.T) {
	inner := NewFake("cached answer")
	c := Wrap(inner, Cache(8, 0))

	for i := 0; i < 3; i++ {
		out, err := c.Generate(context.Background(), "same prompt")
		if err != nil {
			t.Fatal(err)
		}
		if out != "cached answer" {
			t.Fatalf("got %q", out)
		}
	}
	if inner.Calls() != 1 {
		t.Fatalf("expected 1 provider call, got %d", inner.Calls())
	}

	if _, err := c.Generate(context.Background(), "other prompt"); err != nil {
		t.Fatal(err)
	}
	if inner.Calls() != 2 {
		t.Fatalf("expected 2 provider calls, got %d", inner.Calls())
	}
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	inner := &scripted{
		outs: []string{"", "recovered"},
		errs: []error{errors.New("503"), nil},
	}
	c := Wrap(inner, Cache(8, 0))

	if _, err := c.Generate(context.Background(), "p"); err == nil {
		t.Fatal("expected first call to fail")
	}
	out, err := c.Generate(context.Background(), "p")
	if err != nil {
		t.Fatal(err)
	}
	if out != "recovered" {
		t.Fatalf("got %q", out)
	}
	if inner.calls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", inner.calls)
	}
}

func TestCacheEntriesExpire(t *testing.T) {
	inner := NewFake("stale answer")
	c := Wrap(inner, Cache(8, 20*time.Millisecond))

	for i := 0; i < 2; i++ {
		if _, err := c.Generate(context.Background(), "p"); err != nil {
			t.Fatal(err)
		}
	}
	if inner.Calls() != 1 {
		t.Fatalf("expected 1 provider call before expiry, got %d", inner.Calls())
	}

	time.Sleep(60 * time.Millisecond)
	if _, err := c.Generate(context.Background(), "p"); err != nil {
		t.Fatal(err)
	}
	if inner.Calls() != 2 {
		t.Fatalf("expected a fresh provider call after expiry, got %d", inner.Calls())
	}
}

type recordingHook struct {
	roles     []string
	responses []string
	errs      []error
}

func (r *recordingHook) Before(_ context.Context, role, prompt string) {
	r.roles = append(r.roles, role)
}
func (r *recordingHook) After(_ context.Context, role, response string, err error) {
	r.responses = append(r.responses, response)
	r.errs = append(r.errs, err)
}

func TestWithHooksObservesExchange(t *testing.T) {
	hook := &recordingHook{}
	c := Wrap(NewFake("reply"), WithHooks())

	ctx := WithHook(WithRole(context.Background(), "critic"), hook)
	if _, err := c.Generate(ctx, "p"); err != nil {
		t.Fatal(err)
	}
	if len(hook.roles) != 1 || hook.roles[0] != "critic" {
		t.Fatalf("unexpected roles: %v", hook.roles)
	}
	if len(hook.responses) != 1 || hook.responses[0] != "reply" {
		t.Fatalf("unexpected responses: %v", hook.responses)
	}
	if hook.errs[0] != nil {
		t.Fatalf("unexpected hook error: %v", hook.errs[0])
	}
}

func TestWithHooksIsNoOpWithoutHook(t *testing.T) {
	c := Wrap(NewFake("reply"), WithHooks())
	out, err := c.Generate(context.Background(), "p")
	if err != nil || out != "reply" {
		t.Fatalf("got %q, %v", out, err)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// rps <= 0 disables the limiter entirely, so even a canceled
	// context passes straight through.
	c := Wrap(NewFake("ok"), RateLimit(0, 0))
	out, err := c.Generate(ctx, "p")
	if err != nil || out != "ok" {
		t.Fatalf("got %q, %v", out, err)
	}
}

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	inner := NewFake("ok")
	c := Wrap(inner, RateLimit(0.001, 1))

	if _, err := c.Generate(context.Background(), "p"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Generate(ctx, "p")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if inner.Calls() != 1 {
		t.Fatalf("expected 1 provider call, got %d", inner.Calls())
	}
}

func TestRoleFromDefaultsToUnknown(t *testing.T) {
	if got := RoleFrom(context.Background()); got != "unknown" {
		t.Fatalf("got %q", got)
	}
}
