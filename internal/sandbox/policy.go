package sandbox

import (
	"context"
	"os/exec"
	"path/filepath"
)

// ExecPolicy decides how a persisted script becomes a child process. The
// runner owns the timeout; the policy owns the isolation level.
type ExecPolicy interface {
	Command(ctx context.Context, script string) *exec.Cmd
}

// LocalPolicy executes the script with a local interpreter, no confinement
// beyond the timeout. This matches the reference behavior and is the
// default.
type LocalPolicy struct {
	// Interpreter defaults to "python3".
	Interpreter string
}

func (p LocalPolicy) Command(ctx context.Context, script string) *exec.Cmd {
	interp := p.Interpreter
	if interp == "" {
		interp = "python3"
	}
	cmd := exec.CommandContext(ctx, interp, script)
	cmd.Dir = filepath.Dir(script)
	return cmd
}

// DockerPolicy executes the script inside a throwaway container with the
// script directory mounted read-write at /workspace. Network stays at the
// docker default; tighten with ExtraArgs (e.g. "--network=none").
type DockerPolicy struct {
	Image string
	// Interpreter defaults to "python3".
	Interpreter string
	ExtraArgs   []string
}

func (p DockerPolicy) Command(ctx context.Context, script string) *exec.Cmd {
	interp := p.Interpreter
	if interp == "" {
		interp = "python3"
	}
	dir := filepath.Dir(script)
	args := []string{"run", "--rm", "-v", dir + ":/workspace", "-w", "/workspace"}
	args = append(args, p.ExtraArgs...)
	args = append(args, p.Image, interp, filepath.Base(script))
	return exec.CommandContext(ctx, "docker", args...)
}
