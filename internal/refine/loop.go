// Package refine drives the document refinement loop: a drafter
// produces candidates, a critic audits them, and a strategist turns
// failed audits into the next drafting instruction until the critic
// accepts, rejects, or the round budget runs out.
package refine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"refinery/internal/runctx"
	"refinery/internal/scorecard"
)

// Status is a terminal (or per-round) loop outcome.
type Status string

const (
	StatusSuccess   Status = "SUCCESS"
	StatusRejected  Status = "REJECTED"
	StatusExhausted Status = "EXHAUSTED"
	StatusContinue  Status = "CONTINUE"
)

// DefaultMaxRounds bounds a document run unless configured otherwise.
const DefaultMaxRounds = 5

// Drafter produces a candidate document. Round 1 receives an empty
// instruction; later rounds receive the strategist's instruction and
// the outstanding issues carried from the previous audit.
type Drafter interface {
	Draft(ctx context.Context, round int, task, instruction, outstanding string) (string, error)
}

// Critic audits a candidate and replies with raw text containing the
// scorecard block and the kill list.
type Critic interface {
	Review(ctx context.Context, round int, artifact, outstanding string) (string, error)
}

// Strategist turns a failed audit into the next drafting instruction.
type Strategist interface {
	NextInstruction(ctx context.Context, round int, fields scorecard.Fields, feedback, artifact string) (string, error)
}

// Round records one drafting/audit cycle.
type Round struct {
	Index     int              `json:"index"`
	Artifact  string           `json:"artifact"`
	CriticRaw string           `json:"critic_raw"`
	Fields    scorecard.Fields `json:"fields"`
	Feedback  string           `json:"feedback"`
	Decision  Status           `json:"decision"`
}

// Result is the loop outcome plus the diagnostic trail: on exhaustion
// the last instruction, field map and raw review identify where the
// refinement stalled.
type Result struct {
	Status          Status           `json:"status"`
	Document        string           `json:"document"`
	Rounds          []Round          `json:"rounds"`
	LastInstruction string           `json:"last_instruction,omitempty"`
	LastFields      scorecard.Fields `json:"last_fields,omitempty"`
	LastRaw         string           `json:"last_raw,omitempty"`
}

// Loop wires the document-mode collaborators.
type Loop struct {
	Drafter    Drafter
	Critic     Critic
	Strategist Strategist

	MaxRounds int
	Logger    *log.Logger
	// OnRound observes each completed round as it is recorded. Optional.
	OnRound func(Round)
}

// Run refines a document for the given task until the critic reports
// every prior issue resolved, vetoes the run, or the budget is spent.
// A critic rejection anywhere in the raw review text terminates
// immediately, even when the scorecard claims success.
func (l *Loop) Run(ctx context.Context, task string) (Result, error) {
	if l.Drafter == nil || l.Critic == nil || l.Strategist == nil {
		return Result{}, errors.New("refine: drafter, critic and strategist are required")
	}
	logger := l.Logger
	if logger == nil {
		logger = log.Default()
	}
	maxRounds := l.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	instruction := ""
	outstanding := ""
	res := Result{Status: StatusExhausted}

	for round := 1; round <= maxRounds; round++ {
		rctx := runctx.WithRound(ctx, round)

		artifact, err := l.Drafter.Draft(rctx, round, task, instruction, outstanding)
		if err != nil {
			return res, fmt.Errorf("round %d: drafter: %w", round, err)
		}

		raw, err := l.Critic.Review(rctx, round, artifact, outstanding)
		if err != nil {
			return res, fmt.Errorf("round %d: critic: %w", round, err)
		}

		fields, feedback := scorecard.Parse(raw)
		rec := Round{Index: round, Artifact: artifact, CriticRaw: raw, Fields: fields, Feedback: feedback}

		res.Document = artifact
		res.LastFields = fields
		res.LastRaw = raw

		// An explicit rejection vetoes the run no matter what the
		// scorecard says.
		if scorecard.Rejected(raw) {
			rec.Decision = StatusRejected
			res.Rounds = append(res.Rounds, rec)
			res.Status = StatusRejected
			l.observe(rec)
			logger.Printf("refine: rejected at round %d", round)
			return res, nil
		}
		if scorecard.IssuesResolved(fields) {
			rec.Decision = StatusSuccess
			res.Rounds = append(res.Rounds, rec)
			res.Status = StatusSuccess
			l.observe(rec)
			logger.Printf("refine: accepted at round %d", round)
			return res, nil
		}

		rec.Decision = StatusContinue
		res.Rounds = append(res.Rounds, rec)
		l.observe(rec)

		outstanding = scorecard.Clean(strings.TrimSpace(feedback))

		instruction, err = l.Strategist.NextInstruction(rctx, round, fields, feedback, artifact)
		if err != nil {
			return res, fmt.Errorf("round %d: strategist: %w", round, err)
		}
		res.LastInstruction = instruction
	}

	logger.Printf("refine: budget exhausted after %d rounds", maxRounds)
	return res, nil
}

func (l *Loop) observe(rec Round) {
	if l.OnRound != nil {
		l.OnRound(rec)
	}
}
