package sandbox

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"refinery/internal/tester"
)

// Tests drive the runner through /bin/sh so they do not depend on a Python
// interpreter being installed.
func newTestRunner(t *testing.T, opts ...Option) *Runner {
	t.Helper()
	base := []Option{
		WithPolicy(LocalPolicy{Interpreter: "/bin/sh"}),
		WithLogger(log.New(io.Discard, "", 0)),
	}
	return NewRunner(t.TempDir(), append(base, opts...)...)
}

func TestRunExitZero(t *testing.T) {
	r := newTestRunner(t)
	ok, out := r.Run(context.Background(), "echo hello\nexit 0\n", 1)
	tester.True(t, ok)
	tester.Contains(t, out, "hello")
}

func TestRunNonZeroExitCombinesStreams(t *testing.T) {
	r := newTestRunner(t)
	ok, out := r.Run(context.Background(), "echo on-stdout\necho on-stderr 1>&2\nexit 3\n", 2)
	tester.False(t, ok)
	tester.Contains(t, out, "on-stdout")
	tester.Contains(t, out, "on-stderr")
}

func TestRunStdoutPrecedesStderr(t *testing.T) {
	r := newTestRunner(t)
	_, out := r.Run(context.Background(), "echo err 1>&2\necho out\nexit 1\n", 1)
	// stdout is always first in the combined output, regardless of emit order.
	tester.Eq(t, out, "out\nerr\n")
}

func TestRunTimeout(t *testing.T) {
	r := newTestRunner(t, WithTimeout(150*time.Millisecond))
	start := time.Now()
	ok, out := r.Run(context.Background(), "sleep 5\n", 1)
	tester.False(t, ok)
	tester.Contains(t, out, "timed out")
	tester.True(t, time.Since(start) < 3*time.Second, "timeout was not enforced")
}

func TestRunLaunchFailure(t *testing.T) {
	r := NewRunner(t.TempDir(),
		WithPolicy(LocalPolicy{Interpreter: "/no/such/interpreter"}),
		WithLogger(log.New(io.Discard, "", 0)))
	ok, out := r.Run(context.Background(), "echo hi\n", 1)
	tester.False(t, ok)
	tester.Contains(t, out, "ERROR:")
}

func TestRunPersistsScriptPerRound(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner(dir,
		WithPolicy(LocalPolicy{Interpreter: "/bin/sh"}),
		WithLogger(log.New(io.Discard, "", 0)))
	r.Run(context.Background(), "exit 0\n", 1)
	r.Run(context.Background(), "exit 0\n", 2)

	for _, name := range []string{"script_iter_1.py", "script_iter_2.py"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to be persisted: %v", name, err)
		}
	}
}

func TestLocalPolicyDefaultsToPython(t *testing.T) {
	cmd := LocalPolicy{}.Command(context.Background(), "/tmp/s.py")
	tester.Contains(t, cmd.Path, "python3")
}

func TestDockerPolicyMountsScriptDir(t *testing.T) {
	cmd := DockerPolicy{Image: "python:3.12-slim"}.Command(context.Background(), "/work/run/script_iter_1.py")
	joined := ""
	for _, a := range cmd.Args {
		joined += a + " "
	}
	tester.Contains(t, joined, "/work/run:/workspace")
	tester.Contains(t, joined, "python:3.12-slim")
	tester.Contains(t, joined, "script_iter_1.py")
}
