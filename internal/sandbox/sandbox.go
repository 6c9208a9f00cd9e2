// Package sandbox runs generated script payloads in a child process under a
// hard wall-clock timeout. It is the boundary between loop control and
// arbitrary code: execution faults come back as results, never as errors.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// DefaultTimeout caps a single script run.
const DefaultTimeout = 60 * time.Second

// Runner persists each round's payload under Dir and executes it through
// the configured policy. The zero value is not usable; use NewRunner.
type Runner struct {
	dir     string
	timeout time.Duration
	policy  ExecPolicy
	logger  *log.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout overrides the wall-clock limit.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithPolicy sets the isolation policy used to build the child process.
func WithPolicy(p ExecPolicy) Option {
	return func(r *Runner) {
		if p != nil {
			r.policy = p
		}
	}
}

// WithLogger redirects runner diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewRunner(dir string, opts ...Option) *Runner {
	r := &Runner{
		dir:     dir,
		timeout: DefaultTimeout,
		policy:  LocalPolicy{},
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run persists payload as this round's script and executes it. The returned
// flag is true iff the process exited zero; the string is stdout followed
// by stderr, or an "ERROR: ..." diagnostic when the run could not complete.
// Run never returns an error value: timeouts and launch failures are
// results the verifier reasons about.
func (r *Runner) Run(ctx context.Context, payload string, round int) (bool, string) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return false, "ERROR: " + err.Error()
	}
	script := filepath.Join(r.dir, fmt.Sprintf("script_iter_%d.py", round))
	if err := os.WriteFile(script, []byte(payload), 0o644); err != nil {
		return false, "ERROR: " + err.Error()
	}
	r.logger.Printf("sandbox: round %d script saved to %s", round, script)

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := r.policy.Command(runCtx, script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	output := stdout.String() + stderr.String()

	if runCtx.Err() == context.DeadlineExceeded {
		r.logger.Printf("sandbox: round %d timed out after %s", round, r.timeout)
		return false, fmt.Sprintf("ERROR: script execution timed out after %s", r.timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The script ran and failed; its output is the evidence.
			return false, output
		}
		return false, "ERROR: " + err.Error()
	}
	return true, output
}
