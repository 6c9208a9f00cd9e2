// Package runner hosts one refinement session end to end: it builds the
// provider client with its middleware chain, wires the roles into the
// right loop, and persists run records and artifacts as the session
// progresses. The CLIs and the HTTP service share it.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"refinery/internal/analysis"
	"refinery/internal/artifact"
	"refinery/internal/config"
	"refinery/internal/jsonutil"
	"refinery/internal/llm"
	"refinery/internal/plan"
	"refinery/internal/refine"
	"refinery/internal/roles"
	"refinery/internal/runctx"
	"refinery/internal/runstore"
	"refinery/internal/safeio"
	"refinery/internal/sandbox"
)

const retryAttempts = 3

// Runner executes document and analysis sessions. Artifacts and Runs
// are optional: without them the session still runs, it just leaves no
// trail.
type Runner struct {
	Cfg       config.Config
	Artifacts artifact.Store
	Runs      *runstore.Store
	Logger    *log.Logger

	// ClientFactory overrides provider construction. Tests inject fakes;
	// when nil the configured provider is used.
	ClientFactory func(ctx context.Context, model string) (llm.Client, error)
}

func New(cfg config.Config, artifacts artifact.Store, runs *runstore.Store, logger *log.Logger) *Runner {
	return &Runner{Cfg: cfg, Artifacts: artifacts, Runs: runs, Logger: logger}
}

// RunDocument drives one document-mode session to its terminal status.
func (r *Runner) RunDocument(ctx context.Context, runID, task string) (refine.Result, error) {
	logger := r.logger()
	r.recordStart(ctx, runID, runstore.ModeDocument, task)
	ctx = r.sessionContext(ctx, runID)

	primary, fast, err := r.clients(ctx)
	if err != nil {
		r.recordFailure(ctx, runID, err)
		return refine.Result{}, err
	}
	defer primary.Close()
	defer fast.Close()

	emitter := EmitterFrom(ctx)
	loop := &refine.Loop{
		Drafter:    &roles.Drafter{LLM: primary},
		Critic:     &roles.Critic{LLM: fast},
		Strategist: &roles.Strategist{LLM: primary},
		MaxRounds:  r.Cfg.DocumentRounds,
		Logger:     logger,
		OnRound: func(rd refine.Round) {
			emitter.EmitRound(rd.Index, string(rd.Decision))
		},
	}
	res, err := loop.Run(ctx, task)
	if err != nil {
		r.recordFailure(ctx, runID, err)
		EmitterFrom(ctx).Emit(RunEvent{Type: EventTypeError, Message: err.Error()})
		return res, err
	}

	r.putArtifact(ctx, runID, "final.md", []byte(res.Document))
	r.putJSON(ctx, runID, "report.json", res)
	r.recordResult(ctx, runID, documentStatus(res.Status), res)
	EmitterFrom(ctx).Emit(RunEvent{Type: EventTypeComplete, Message: string(res.Status)})
	return res, nil
}

// RunAnalysis drives one analysis-mode session: describe the workdir
// data, seed the plan, then iterate code/execute/verify rounds.
func (r *Runner) RunAnalysis(ctx context.Context, runID, goals string) (analysis.Result, error) {
	logger := r.logger()
	r.recordStart(ctx, runID, runstore.ModeAnalysis, goals)
	ctx = r.sessionContext(ctx, runID)

	primary, fast, err := r.clients(ctx)
	if err != nil {
		r.recordFailure(ctx, runID, err)
		return analysis.Result{}, err
	}
	defer primary.Close()
	defer fast.Close()

	dataDesc, err := r.describeData(ctx, fast)
	if err != nil {
		r.recordFailure(ctx, runID, err)
		return analysis.Result{}, err
	}

	planner := &roles.Planner{LLM: fast}
	first, err := planner.InitialStep(ctx, goals, dataDesc)
	if err != nil {
		err = fmt.Errorf("seed plan: %w", err)
		r.recordFailure(ctx, runID, err)
		return analysis.Result{}, err
	}

	emitter := EmitterFrom(ctx)
	loop := &analysis.Loop{
		Coder:     &roles.Coder{LLM: fast},
		Verifier:  &roles.Verifier{LLM: fast},
		Planner:   planner,
		Finalizer: &roles.Finalizer{LLM: primary, OutDir: r.Cfg.OutDir},
		Executor:  r.executor(logger),
		Plan:      plan.NewStore(first),
		MaxRounds: r.Cfg.AnalysisRounds,
		Logger:    logger,
		OnRound: func(rd analysis.Round) {
			emitter.EmitRound(rd.Index, rd.Action)
		},
	}
	res, err := loop.Run(ctx, goals, dataDesc)
	if err != nil {
		r.recordFailure(ctx, runID, err)
		EmitterFrom(ctx).Emit(RunEvent{Type: EventTypeError, Message: err.Error()})
		return res, err
	}

	if res.FinalPath != "" {
		if b, readErr := os.ReadFile(res.FinalPath); readErr == nil {
			r.putArtifact(ctx, runID, "final_analysis.py", b)
		} else {
			logger.Printf("runner: final script not readable: %v", readErr)
		}
	}
	r.putJSON(ctx, runID, "report.json", res)
	r.recordResult(ctx, runID, analysisStatus(res.Status), res)
	EmitterFrom(ctx).Emit(RunEvent{Type: EventTypeComplete, Message: string(res.Status)})
	return res, nil
}

func (r *Runner) sessionContext(ctx context.Context, runID string) context.Context {
	ctx = runctx.WithRunID(ctx, runID)
	if r.Artifacts != nil {
		ctx = llm.WithHook(ctx, NewPromptSaver(r.Artifacts, runID))
	}
	return ctx
}

// clients builds the two provider clients: the primary model carries
// the writing roles, the fast model the judging roles.
func (r *Runner) clients(ctx context.Context) (primary, fast llm.Client, err error) {
	primary, err = r.newClient(ctx, r.Cfg.PrimaryModel)
	if err != nil {
		return nil, nil, err
	}
	fast, err = r.newClient(ctx, r.Cfg.FastModel)
	if err != nil {
		_ = primary.Close()
		return nil, nil, err
	}
	return primary, fast, nil
}

func (r *Runner) newClient(ctx context.Context, model string) (llm.Client, error) {
	var (
		base llm.Client
		err  error
	)
	switch {
	case r.ClientFactory != nil:
		base, err = r.ClientFactory(ctx, model)
	case r.Cfg.Provider == "groq":
		base, err = llm.NewGroqClient(r.Cfg.GroqAPIKey, model)
	default:
		base, err = llm.NewGeminiClient(ctx, r.Cfg.GeminiAPIKey, model)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s client: %w", r.Cfg.Provider, err)
	}
	// Hooks observe every logical request, cache hits included; the
	// limiter only gates calls that actually reach the provider.
	return llm.Wrap(base,
		llm.WithHooks(),
		llm.WithLogging(r.logger()),
		llm.Cache(r.Cfg.CacheSize, r.Cfg.CacheTTL),
		llm.Retry(retryAttempts, 0),
		llm.RateLimit(r.Cfg.RateRPS, r.Cfg.RateBurst),
	), nil
}

func (r *Runner) describeData(ctx context.Context, cli llm.Client) (string, error) {
	fsys, err := safeio.NewSafeFS(r.Cfg.WorkDir)
	if err != nil {
		return "", fmt.Errorf("open workdir: %w", err)
	}
	files, err := analysis.CollectPreviews(fsys)
	if err != nil {
		return "", fmt.Errorf("collect data previews: %w", err)
	}
	analyzer := &roles.Analyzer{LLM: cli}
	described, err := analyzer.DescribeFiles(ctx, files)
	if err != nil {
		return "", err
	}
	return analysis.RenderDescriptions(described), nil
}

func (r *Runner) executor(logger *log.Logger) *sandbox.Runner {
	opts := []sandbox.Option{
		sandbox.WithTimeout(r.Cfg.SandboxTimeout),
		sandbox.WithLogger(logger),
	}
	if r.Cfg.SandboxImage != "" {
		opts = append(opts, sandbox.WithPolicy(sandbox.DockerPolicy{
			Image:       r.Cfg.SandboxImage,
			Interpreter: r.Cfg.Interpreter,
		}))
	} else {
		opts = append(opts, sandbox.WithPolicy(sandbox.LocalPolicy{Interpreter: r.Cfg.Interpreter}))
	}
	return sandbox.NewRunner(r.Cfg.WorkDir, opts...)
}

func (r *Runner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}

func documentStatus(s refine.Status) string {
	switch s {
	case refine.StatusSuccess:
		return runstore.StatusSucceeded
	case refine.StatusRejected:
		return runstore.StatusRejected
	default:
		return runstore.StatusExhausted
	}
}

func analysisStatus(s analysis.Status) string {
	if s == analysis.StatusSuccess {
		return runstore.StatusSucceeded
	}
	return runstore.StatusExhausted
}

func (r *Runner) recordStart(ctx context.Context, runID, mode, task string) {
	if r.Runs == nil {
		return
	}
	err := r.Runs.Put(ctx, runstore.Record{ID: runID, Mode: mode, Task: task, Status: runstore.StatusRunning})
	if err != nil {
		r.logger().Printf("runner: record start: %v", err)
	}
}

func (r *Runner) recordResult(ctx context.Context, runID, status string, result any) {
	if r.Runs == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		r.logger().Printf("runner: encode result: %v", err)
		raw = nil
	}
	_, err = r.Runs.Update(ctx, runID, func(rec *runstore.Record) {
		rec.Status = status
		rec.Result = raw
	})
	if err != nil {
		r.logger().Printf("runner: record result: %v", err)
	}
}

func (r *Runner) recordFailure(ctx context.Context, runID string, cause error) {
	if r.Runs == nil {
		return
	}
	_, err := r.Runs.Update(ctx, runID, func(rec *runstore.Record) {
		rec.Status = runstore.StatusFailed
		rec.Error = cause.Error()
	})
	if err != nil {
		r.logger().Printf("runner: record failure: %v", err)
	}
}

func (r *Runner) putArtifact(ctx context.Context, runID, name string, content []byte) {
	if r.Artifacts == nil {
		return
	}
	if err := r.Artifacts.Put(ctx, runID, name, content); err != nil {
		r.logger().Printf("runner: save %s: %v", name, err)
	}
}

func (r *Runner) putJSON(ctx context.Context, runID, name string, v any) {
	if r.Artifacts == nil {
		return
	}
	b, err := jsonutil.MarshalNoEscapeIndent(v, "", "  ")
	if err != nil {
		r.logger().Printf("runner: encode %s: %v", name, err)
		return
	}
	r.putArtifact(ctx, runID, name, b)
}
