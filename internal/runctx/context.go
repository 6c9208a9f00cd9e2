// Package runctx carries run-scoped identity (run ID, current round)
// through a context so hooks and emitters can label what they observe
// without threading extra parameters through every collaborator.
package runctx

import (
	"context"
	"strings"
)

type ctxKeyRunContext struct{}

type RunContext struct {
	RunID string
	Round int
}

func WithRunContext(ctx context.Context, rc RunContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	rc.RunID = strings.TrimSpace(rc.RunID)
	if rc.Round < 0 {
		rc.Round = 0
	}
	return context.WithValue(ctx, ctxKeyRunContext{}, rc)
}

func RunContextFrom(ctx context.Context) RunContext {
	if ctx != nil {
		if v := ctx.Value(ctxKeyRunContext{}); v != nil {
			if rc, ok := v.(RunContext); ok {
				return rc
			}
		}
	}
	return RunContext{}
}

func WithRunID(ctx context.Context, runID string) context.Context {
	rc := RunContextFrom(ctx)
	rc.RunID = runID
	return WithRunContext(ctx, rc)
}

func RunIDFrom(ctx context.Context) string {
	return RunContextFrom(ctx).RunID
}

func WithRound(ctx context.Context, round int) context.Context {
	rc := RunContextFrom(ctx)
	rc.Round = round
	return WithRunContext(ctx, rc)
}

func RoundFrom(ctx context.Context) int {
	return RunContextFrom(ctx).Round
}
