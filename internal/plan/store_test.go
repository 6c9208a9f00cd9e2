package plan

import (
	"testing"

	"refinery/internal/tester"
)

func TestAddAssignsSequentialPositions(t *testing.T) {
	s := NewStore()
	tester.Eq(t, s.Add("load the data"), 0)
	tester.Eq(t, s.Add("aggregate by month"), 1)
	tester.Eq(t, s.Len(), 2)
	tester.Eq(t, s.Step(1), "aggregate by month")
}

func TestNewStoreSkipsBlankSeeds(t *testing.T) {
	s := NewStore("first", "  ", "")
	tester.Eq(t, s.Len(), 1)
	tester.Eq(t, s.Step(0), "first")
}

func TestCorrectReplacesInPlace(t *testing.T) {
	s := NewStore("load the data", "plot totals")
	s.Correct(1, "plot monthly totals")
	tester.Eq(t, s.Len(), 2)
	tester.Eq(t, s.Step(1), "plot monthly totals")
}

func TestInRange(t *testing.T) {
	s := NewStore("only step")
	tester.True(t, s.InRange(0))
	tester.False(t, s.InRange(1))
	tester.False(t, s.InRange(-1))
}

func TestRenderLabelsSteps(t *testing.T) {
	s := NewStore("load the data", "aggregate by month")
	tester.Eq(t, s.Render(), "Step 0:\nload the data\n\nStep 1:\naggregate by month")
}

func TestRenderEmpty(t *testing.T) {
	tester.Eq(t, NewStore().Render(), "")
}

func TestStepsReturnsCopy(t *testing.T) {
	s := NewStore("a")
	steps := s.Steps()
	steps[0] = "mutated"
	tester.Eq(t, s.Step(0), "a")
}
