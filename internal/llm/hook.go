package llm

import "context"

// PromptHook observes every model exchange. Implementations persist
// transcripts or feed live progress to watchers.
type PromptHook interface {
	Before(ctx context.Context, role, prompt string)
	After(ctx context.Context, role, response string, err error)
}

type ctxKeyHook struct{}
type ctxKeyRole struct{}

// WithHook attaches a PromptHook to the context used by Generate.
func WithHook(ctx context.Context, hook PromptHook) context.Context {
	return context.WithValue(ctx, ctxKeyHook{}, hook)
}

// WithRole tags the context with the collaborator role issuing the next
// model calls (drafter, critic, coder, ...).
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKeyRole{}, role)
}

// HookFrom returns the hook stored in the context.
func HookFrom(ctx context.Context) PromptHook {
	if v := ctx.Value(ctxKeyHook{}); v != nil {
		if h, ok := v.(PromptHook); ok {
			return h
		}
	}
	return nil
}

// RoleFrom returns the role string stored in the context.
func RoleFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyRole{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}
