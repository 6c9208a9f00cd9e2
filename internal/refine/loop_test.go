package refine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"

	"refinery/internal/scorecard"
	"refinery/internal/tester"
)

type fakeDrafter struct {
	drafts       []string
	instructions []string
	outstandings []string
	err          error
}

func (f *fakeDrafter) Draft(_ context.Context, round int, _, instruction, outstanding string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.instructions = append(f.instructions, instruction)
	f.outstandings = append(f.outstandings, outstanding)
	i := round - 1
	if i >= len(f.drafts) {
		i = len(f.drafts) - 1
	}
	return f.drafts[i], nil
}

type fakeCritic struct {
	reviews      []string
	outstandings []string
	err          error
}

func (f *fakeCritic) Review(_ context.Context, round int, _, outstanding string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.outstandings = append(f.outstandings, outstanding)
	i := round - 1
	if i >= len(f.reviews) {
		i = len(f.reviews) - 1
	}
	return f.reviews[i], nil
}

type fakeStrategist struct {
	calls int
	err   error
}

func (f *fakeStrategist) NextInstruction(_ context.Context, round int, _ scorecard.Fields, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.calls++
	return fmt.Sprintf("instruction %d", round), nil
}

func review(fixed, feedback string) string {
	return scorecard.StartMarker +
		"\n* Previous_Kill_List_Fixed: [" + fixed + "]\n* Structural_Compliance: [NO]\n" +
		scorecard.EndMarker + "\n" + feedback
}

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

func TestLoopSucceedsOnceIssuesResolved(t *testing.T) {
	fb1 := "- section 2 has no citations"
	fb2 := "A. The Kill List Status:\n- fix the table\n\n\n- check citations"
	drafter := &fakeDrafter{drafts: []string{"draft 1", "draft 2", "draft 3"}}
	critic := &fakeCritic{reviews: []string{review("NO", fb1), review("PARTIAL", fb2), review("YES", "")}}
	strategist := &fakeStrategist{}

	loop := &Loop{Drafter: drafter, Critic: critic, Strategist: strategist, MaxRounds: 5, Logger: quiet()}
	res, err := loop.Run(context.Background(), "write the study")
	tester.NoErr(t, err)

	tester.Eq(t, res.Status, StatusSuccess)
	tester.Eq(t, res.Document, "draft 3")
	tester.Eq(t, len(res.Rounds), 3)
	tester.Eq(t, res.Rounds[0].Decision, StatusContinue)
	tester.Eq(t, res.Rounds[1].Decision, StatusContinue)
	tester.Eq(t, res.Rounds[2].Decision, StatusSuccess)
	tester.Eq(t, strategist.calls, 2)

	// Carried issues: round 2 sees round 1's feedback, round 3 sees
	// round 2's feedback with the lettered header scrubbed.
	tester.Eq(t, critic.outstandings, []string{"", fb1, "- fix the table\n\n- check citations"})
	tester.Eq(t, drafter.outstandings, critic.outstandings)
	tester.Eq(t, drafter.instructions, []string{"", "instruction 1", "instruction 2"})
}

func TestLoopRejectionVetoesScorecardSuccess(t *testing.T) {
	drafter := &fakeDrafter{drafts: []string{"draft 1"}}
	critic := &fakeCritic{reviews: []string{review("YES", "**REJECTED**: fabricated study data")}}
	strategist := &fakeStrategist{}

	loop := &Loop{Drafter: drafter, Critic: critic, Strategist: strategist, MaxRounds: 5, Logger: quiet()}
	res, err := loop.Run(context.Background(), "task")
	tester.NoErr(t, err)

	tester.Eq(t, res.Status, StatusRejected)
	tester.Eq(t, len(res.Rounds), 1)
	tester.Eq(t, res.Rounds[0].Decision, StatusRejected)
	tester.Eq(t, res.Document, "draft 1")
	tester.Eq(t, strategist.calls, 0)
}

func TestLoopRejectionIsCaseInsensitive(t *testing.T) {
	drafter := &fakeDrafter{drafts: []string{"d"}}
	critic := &fakeCritic{reviews: []string{review("NO", "this draft is rejected outright")}}

	loop := &Loop{Drafter: drafter, Critic: critic, Strategist: &fakeStrategist{}, Logger: quiet()}
	res, err := loop.Run(context.Background(), "task")
	tester.NoErr(t, err)
	tester.Eq(t, res.Status, StatusRejected)
}

func TestLoopExhaustsWithDiagnostics(t *testing.T) {
	drafter := &fakeDrafter{drafts: []string{"d1", "d2", "d3"}}
	critic := &fakeCritic{reviews: []string{review("NO", "still broken")}}
	strategist := &fakeStrategist{}

	loop := &Loop{Drafter: drafter, Critic: critic, Strategist: strategist, MaxRounds: 3, Logger: quiet()}
	res, err := loop.Run(context.Background(), "task")
	tester.NoErr(t, err)

	tester.Eq(t, res.Status, StatusExhausted)
	tester.Eq(t, len(res.Rounds), 3)
	// The strategist runs after every failed audit, including the last.
	tester.Eq(t, strategist.calls, 3)
	tester.Eq(t, res.LastInstruction, "instruction 3")
	tester.Eq(t, res.LastFields["Previous_Kill_List_Fixed"], "NO")
	tester.Eq(t, res.LastRaw, review("NO", "still broken"))
	tester.Eq(t, res.Document, "d3")
}

func TestLoopPropagatesCollaboratorFaults(t *testing.T) {
	boom := errors.New("boom")

	loop := &Loop{Drafter: &fakeDrafter{err: boom}, Critic: &fakeCritic{reviews: []string{"r"}}, Strategist: &fakeStrategist{}, Logger: quiet()}
	_, err := loop.Run(context.Background(), "task")
	tester.Err(t, err)
	tester.Contains(t, err.Error(), "round 1: drafter")
	tester.ErrIs(t, err, boom)

	loop = &Loop{Drafter: &fakeDrafter{drafts: []string{"d"}}, Critic: &fakeCritic{err: boom}, Strategist: &fakeStrategist{}, Logger: quiet()}
	_, err = loop.Run(context.Background(), "task")
	tester.Err(t, err)
	tester.Contains(t, err.Error(), "round 1: critic")

	loop = &Loop{Drafter: &fakeDrafter{drafts: []string{"d"}}, Critic: &fakeCritic{reviews: []string{review("NO", "fb")}}, Strategist: &fakeStrategist{err: boom}, Logger: quiet()}
	_, err = loop.Run(context.Background(), "task")
	tester.Err(t, err)
	tester.Contains(t, err.Error(), "round 1: strategist")
}

func TestLoopRequiresCollaborators(t *testing.T) {
	loop := &Loop{Critic: &fakeCritic{}, Strategist: &fakeStrategist{}}
	_, err := loop.Run(context.Background(), "task")
	tester.Err(t, err)
}
