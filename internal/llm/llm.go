package llm

import (
	"context"
	"errors"
)

// Client is the minimal surface every model provider implements.
// Cross-cutting concerns (rate limiting, retries, caching, logging,
// hooks) are applied via Middleware, never inside a provider.
type Client interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

// ErrEmptyResponse reports a well-formed provider reply that carried no text.
var ErrEmptyResponse = errors.New("empty response from model")

// PermanentError indicates an error that will not resolve with retries,
// such as a prompt exceeding the provider's context window.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}
