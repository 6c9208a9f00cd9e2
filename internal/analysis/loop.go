// Package analysis drives the plan-accumulating refinement loop: code the
// current step, execute it in the sandbox, verify sufficiency, and route a
// plan mutation until the verifier is satisfied or the budget runs out.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"

	"refinery/internal/plan"
	"refinery/internal/runctx"
)

// Status is the terminal outcome of an analysis session.
type Status string

const (
	StatusSuccess   Status = "SUCCESS"
	StatusExhausted Status = "EXHAUSTED"
)

// Collaborator contracts consumed by the loop. Implementations live in
// internal/roles; tests use scripted fakes.
type (
	// Coder turns the current plan step into an executable script payload.
	Coder interface {
		WriteScript(ctx context.Context, round int, step, accumulatedPlan, dataDesc string) (string, error)
	}

	// Verifier judges whether the executed plan satisfies the goals.
	Verifier interface {
		Evaluate(ctx context.Context, round int, goals, accumulatedPlan, code, output string, execOK bool) (string, error)
	}

	// Planner writes plan-step text from router feedback. Optional: without
	// one, the feedback text itself becomes the step.
	Planner interface {
		NextStep(ctx context.Context, round int, feedback, accumulatedPlan, dataDesc string) (string, error)
		ReviseStep(ctx context.Context, round int, index int, existing, feedback string) (string, error)
	}

	// Finalizer formats the accepted code into the final deliverable and
	// returns its location. Optional.
	Finalizer interface {
		Finalize(ctx context.Context, goals, accumulatedPlan, code string) (string, error)
	}

	// Executor runs one script payload for one round. The sandbox runner is
	// the production implementation.
	Executor interface {
		Run(ctx context.Context, payload string, round int) (bool, string)
	}
)

// Round records one completed iteration.
type Round struct {
	Index   int    `json:"index"`
	Step    string `json:"step"`
	Code    string `json:"code"`
	ExecOK  bool   `json:"exec_ok"`
	Output  string `json:"output"`
	Verdict string `json:"verdict"`
	Action  string `json:"action,omitempty"`
}

// Result is the terminal state of a session. For StatusExhausted the last
// round carries the diagnostic trail (code, output, verdict).
type Result struct {
	Status    Status  `json:"status"`
	FinalPath string  `json:"final_path,omitempty"`
	Code      string  `json:"code,omitempty"`
	Rounds    []Round `json:"rounds"`
}

// Loop owns one analysis session: the plan, the round counter, and the
// collaborators. Instances are single-use and not safe for concurrent use;
// run two sessions with two Loops.
type Loop struct {
	Coder     Coder
	Verifier  Verifier
	Planner   Planner   // optional
	Finalizer Finalizer // optional
	Executor  Executor
	Plan      *plan.Store
	MaxRounds int
	Logger    *log.Logger
	// OnRound observes each completed round as it is recorded. Optional.
	OnRound func(Round)
}

const DefaultMaxRounds = 15

// Run executes bounded refinement rounds over the seeded plan. Goals and
// the data description are immutable inputs. Collaborator errors abort the
// session; execution faults do not (they are evidence for the verifier).
func (l *Loop) Run(ctx context.Context, goals, dataDesc string) (Result, error) {
	if l.Coder == nil || l.Verifier == nil || l.Executor == nil {
		return Result{}, errors.New("analysis: coder, verifier and executor are required")
	}
	if l.Plan == nil || l.Plan.Len() == 0 {
		return Result{}, errors.New("analysis: plan must be seeded with an initial step")
	}
	logger := l.Logger
	if logger == nil {
		logger = log.Default()
	}
	maxRounds := l.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	currentStep := l.Plan.Step(l.Plan.Len() - 1)
	res := Result{Status: StatusExhausted}

	for round := 1; round <= maxRounds; round++ {
		rctx := runctx.WithRound(ctx, round)
		accumulated := l.Plan.Render()

		code, err := l.Coder.WriteScript(rctx, round, currentStep, accumulated, dataDesc)
		if err != nil {
			return res, fmt.Errorf("round %d: coder: %w", round, err)
		}
		execOK, output := l.Executor.Run(rctx, code, round)

		verdict, err := l.Verifier.Evaluate(rctx, round, goals, accumulated, code, output, execOK)
		if err != nil {
			return res, fmt.Errorf("round %d: verifier: %w", round, err)
		}

		rec := Round{Index: round, Step: currentStep, Code: code, ExecOK: execOK, Output: output, Verdict: verdict}

		if Sufficient(verdict) {
			rec.Action = "FINALIZE"
			res.Rounds = append(res.Rounds, rec)
			res.Status = StatusSuccess
			res.Code = code
			l.observe(rec)
			if l.Finalizer != nil {
				path, err := l.Finalizer.Finalize(rctx, goals, accumulated, code)
				if err != nil {
					return res, fmt.Errorf("round %d: finalizer: %w", round, err)
				}
				res.FinalPath = path
			}
			logger.Printf("analysis: sufficient after round %d (%d plan steps)", round, l.Plan.Len())
			return res, nil
		}

		dec := Decide(verdict, accumulated, execOK)
		currentStep, err = l.apply(rctx, round, dec, dataDesc, logger)
		if err != nil {
			return res, fmt.Errorf("round %d: planner: %w", round, err)
		}
		rec.Action = dec.Action.String()
		res.Rounds = append(res.Rounds, rec)
		l.observe(rec)

		res.Code = code
	}

	logger.Printf("analysis: budget exhausted after %d rounds (%d plan steps)", maxRounds, l.Plan.Len())
	return res, nil
}

func (l *Loop) observe(rec Round) {
	if l.OnRound != nil {
		l.OnRound(rec)
	}
}

// apply mutates the plan per the routing decision and returns the next
// current step. Out-of-range corrections and the declared-but-unshipped
// remove path both degrade to an append.
func (l *Loop) apply(ctx context.Context, round int, dec Decision, dataDesc string, logger *log.Logger) (string, error) {
	switch dec.Action {
	case ActionCorrect:
		if !l.Plan.InRange(dec.Index) {
			logger.Printf("analysis: step %d does not exist, adding new step instead", dec.Index)
			return l.addStep(ctx, round, dec.Feedback, dataDesc)
		}
		step, err := l.reviseStep(ctx, round, dec.Index, dec.Feedback)
		if err != nil {
			return "", err
		}
		l.Plan.Correct(dec.Index, step)
		return step, nil
	case ActionRemove:
		logger.Printf("analysis: REMOVE_STEP not implemented, adding step instead")
		return l.addStep(ctx, round, dec.Feedback, dataDesc)
	default:
		return l.addStep(ctx, round, dec.Feedback, dataDesc)
	}
}

func (l *Loop) addStep(ctx context.Context, round int, feedback, dataDesc string) (string, error) {
	step := feedback
	if l.Planner != nil {
		var err error
		step, err = l.Planner.NextStep(ctx, round, feedback, l.Plan.Render(), dataDesc)
		if err != nil {
			return "", err
		}
	}
	l.Plan.Add(step)
	return step, nil
}

func (l *Loop) reviseStep(ctx context.Context, round, index int, feedback string) (string, error) {
	if l.Planner == nil {
		return feedback, nil
	}
	return l.Planner.ReviseStep(ctx, round, index, l.Plan.Step(index), feedback)
}
