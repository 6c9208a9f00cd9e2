// Package gateway exposes refinement sessions over HTTP: JSON endpoints
// to start and inspect runs, artifact downloads, and a websocket feed of
// live round events.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"refinery/internal/artifact"
	"refinery/internal/runner"
	"refinery/internal/runstore"
)

// ErrInvalidRun marks start requests rejected before any work began.
var ErrInvalidRun = errors.New("invalid run request")

// Service launches runs through the session runner and tracks their
// event feeds. Every run executes in its own goroutine; records and
// artifacts land in the runner's stores.
type Service struct {
	runner *runner.Runner
	hub    *hub
}

func NewService(run *runner.Runner) *Service {
	return &Service{runner: run, hub: newHub()}
}

// StartRun validates the request, records the pending run, and launches
// it in the background. The returned record is immediately readable via
// Run and List.
func (s *Service) StartRun(ctx context.Context, mode, task string) (runstore.Record, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = runstore.ModeDocument
	}
	if mode != runstore.ModeDocument && mode != runstore.ModeAnalysis {
		return runstore.Record{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidRun, mode)
	}
	task = strings.TrimSpace(task)
	if task == "" {
		return runstore.Record{}, fmt.Errorf("%w: task is required", ErrInvalidRun)
	}

	rec := runstore.Record{
		ID:     uuid.NewString(),
		Mode:   mode,
		Task:   task,
		Status: runstore.StatusPending,
	}
	if s.store() != nil {
		if err := s.store().Put(ctx, rec); err != nil {
			return runstore.Record{}, fmt.Errorf("record run: %w", err)
		}
	}

	s.hub.open(rec.ID)
	go s.execute(rec.ID, mode, task)
	return rec, nil
}

// execute drives one run to completion and closes its event feed. The
// run outlives the originating request, so it gets a fresh context.
func (s *Service) execute(runID, mode, task string) {
	defer s.hub.finish(runID)

	ctx := runner.WithEmitter(context.Background(), &hubEmitter{hub: s.hub, runID: runID})

	var err error
	switch mode {
	case runstore.ModeAnalysis:
		_, err = s.runner.RunAnalysis(ctx, runID, task)
	default:
		_, err = s.runner.RunDocument(ctx, runID, task)
	}
	if err != nil {
		s.logger().Printf("gateway: run %s: %v", runID, err)
	}
}

// Run returns one run record.
func (s *Service) Run(ctx context.Context, runID string) (runstore.Record, error) {
	return s.store().Get(ctx, runID)
}

// List returns all run records, newest first.
func (s *Service) List(ctx context.Context) ([]runstore.Record, error) {
	return s.store().List(ctx)
}

// Watch attaches to a run's live event feed. ok is false once the run
// has finished; callers then read the record instead.
func (s *Service) Watch(runID string) (<-chan runner.RunEvent, func(), bool) {
	return s.hub.subscribe(runID)
}

func (s *Service) store() *runstore.Store {
	return s.runner.Runs
}

func (s *Service) artifacts() artifact.Store {
	return s.runner.Artifacts
}

func (s *Service) logger() *log.Logger {
	if s.runner.Logger != nil {
		return s.runner.Logger
	}
	return log.Default()
}

// hubEmitter adapts the hub to the emitter the loops report through.
type hubEmitter struct {
	hub   *hub
	runID string
}

func (e *hubEmitter) Emit(ev runner.RunEvent) {
	ev.RunID = e.runID
	e.hub.publish(e.runID, ev)
}

func (e *hubEmitter) EmitLog(message string) {
	e.Emit(runner.RunEvent{Type: runner.EventTypeLog, Message: message})
}

func (e *hubEmitter) EmitRound(round int, message string) {
	e.Emit(runner.RunEvent{Type: runner.EventTypeRound, Round: round, Message: message})
}

func (e *hubEmitter) EmitProgress(percent int32, message string) {
	e.Emit(runner.RunEvent{Type: runner.EventTypeProgress, Progress: percent, Message: message})
}
