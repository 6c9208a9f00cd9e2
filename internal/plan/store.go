// Package plan holds the ordered step sequence accumulated by the analysis
// refinement loop.
package plan

import (
	"fmt"
	"strings"
)

// Store is an ordered sequence of plan steps. Positions are 0-based and
// always match insertion order. A Store belongs to a single refinement
// session and is mutated only between rounds.
type Store struct {
	steps []string
}

func NewStore(initial ...string) *Store {
	s := &Store{}
	for _, step := range initial {
		if strings.TrimSpace(step) != "" {
			s.steps = append(s.steps, step)
		}
	}
	return s
}

// Add appends a step and returns its position.
func (s *Store) Add(step string) int {
	s.steps = append(s.steps, step)
	return len(s.steps) - 1
}

// Correct replaces the step at position i. The caller is responsible for
// range-checking first (see InRange); out-of-range corrections are expected
// to degrade to Add at the call site rather than fail here.
func (s *Store) Correct(i int, step string) {
	s.steps[i] = step
}

// InRange reports whether i addresses an existing step.
func (s *Store) InRange(i int) bool {
	return i >= 0 && i < len(s.steps)
}

// Len returns the number of steps.
func (s *Store) Len() int {
	return len(s.steps)
}

// Step returns the step at position i.
func (s *Store) Step(i int) string {
	return s.steps[i]
}

// Steps returns a copy of the step sequence.
func (s *Store) Steps() []string {
	out := make([]string, len(s.steps))
	copy(out, s.steps)
	return out
}

// Render joins the accumulated steps into a single labeled text block, the
// accumulation view handed to the coder and verifier each round.
func (s *Store) Render() string {
	parts := make([]string, len(s.steps))
	for i, step := range s.steps {
		parts[i] = fmt.Sprintf("Step %d:\n%s", i, step)
	}
	return strings.Join(parts, "\n\n")
}
