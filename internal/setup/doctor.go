// Package setup verifies a machine before a session starts: provider
// key, sandbox interpreter, working directories, and the run store.
// The CLIs surface these findings behind their -doctor flags.
package setup

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"refinery/internal/config"
	"refinery/internal/runstore"
)

// Finding is one doctor check result.
type Finding struct {
	Name   string
	OK     bool
	Detail string
}

// Options selects what Doctor inspects. Store is optional.
type Options struct {
	Cfg   config.Config
	Store *runstore.Store
}

// Doctor runs every check and returns the findings in a stable order.
func Doctor(ctx context.Context, opts Options) []Finding {
	findings := []Finding{
		checkAPIKey(opts.Cfg),
		checkInterpreter(opts.Cfg),
		checkWorkDir(opts.Cfg.WorkDir),
		checkOutDir(opts.Cfg.OutDir),
	}
	if opts.Store != nil {
		findings = append(findings, checkStore(ctx, opts.Store))
	}
	return findings
}

// Healthy reports whether every finding passed.
func Healthy(findings []Finding) bool {
	for _, f := range findings {
		if !f.OK {
			return false
		}
	}
	return true
}

// Report writes findings as a checklist and reports overall health.
func Report(w io.Writer, findings []Finding) bool {
	for _, f := range findings {
		mark := "ok"
		if !f.OK {
			mark = "!!"
		}
		fmt.Fprintf(w, "[%s] %-20s %s\n", mark, f.Name, f.Detail)
	}
	return Healthy(findings)
}

func checkAPIKey(cfg config.Config) Finding {
	name := fmt.Sprintf("%s api key", cfg.Provider)
	key := cfg.APIKey()
	if key == "" {
		return Finding{Name: name, Detail: "not set"}
	}
	if looksLikePlaceholder(key) {
		return Finding{Name: name, Detail: "looks like a placeholder, replace it with a real key"}
	}
	return Finding{Name: name, OK: true, Detail: "set"}
}

func looksLikePlaceholder(key string) bool {
	lower := strings.ToLower(key)
	for _, marker := range []string{"your_", "your-", "changeme", "replace", "example", "placeholder", "xxxx"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return len(key) < 8
}

func checkInterpreter(cfg config.Config) Finding {
	if cfg.SandboxImage != "" {
		if path, err := exec.LookPath("docker"); err == nil {
			return Finding{Name: "sandbox docker", OK: true, Detail: path}
		}
		return Finding{Name: "sandbox docker", Detail: "docker not found on PATH"}
	}
	interp := cfg.Interpreter
	if interp == "" {
		interp = "python3"
	}
	path, err := exec.LookPath(interp)
	if err != nil {
		return Finding{Name: "sandbox interpreter", Detail: interp + " not found on PATH"}
	}
	return Finding{Name: "sandbox interpreter", OK: true, Detail: path}
}

func checkWorkDir(dir string) Finding {
	if strings.TrimSpace(dir) == "" {
		return Finding{Name: "workdir", Detail: "not set"}
	}
	info, err := os.Stat(dir)
	if err != nil {
		return Finding{Name: "workdir", Detail: fmt.Sprintf("%s: %v", dir, err)}
	}
	if !info.IsDir() {
		return Finding{Name: "workdir", Detail: dir + " is not a directory"}
	}
	return Finding{Name: "workdir", OK: true, Detail: dir}
}

func checkOutDir(dir string) Finding {
	if strings.TrimSpace(dir) == "" {
		return Finding{Name: "out dir", Detail: "not set"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Finding{Name: "out dir", Detail: fmt.Sprintf("%s: %v", dir, err)}
	}
	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return Finding{Name: "out dir", Detail: fmt.Sprintf("%s is not writable: %v", dir, err)}
	}
	_ = os.Remove(probe)
	return Finding{Name: "out dir", OK: true, Detail: dir}
}

func checkStore(ctx context.Context, store *runstore.Store) Finding {
	if err := store.Ping(ctx); err != nil {
		return Finding{Name: "run store", Detail: err.Error()}
	}
	return Finding{Name: "run store", OK: true, Detail: "reachable"}
}
