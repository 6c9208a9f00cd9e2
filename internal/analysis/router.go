package analysis

import (
	"regexp"
	"strconv"
	"strings"
)

// Action is the plan mutation selected for the next round.
type Action int

const (
	ActionAdd Action = iota
	ActionCorrect
	ActionRemove
)

func (a Action) String() string {
	switch a {
	case ActionCorrect:
		return "CORRECT_STEP"
	case ActionRemove:
		return "REMOVE_STEP"
	default:
		return "ADD_STEP"
	}
}

// Decision is the router's output: the selected action, the target step
// position for corrections and removals, and the feedback that motivated
// it (passed through for the planner).
type Decision struct {
	Action   Action
	Index    int
	Feedback string
}

var stepIndexRe = regexp.MustCompile(`(?i)step[\s_#]*(?:index)?[\s:#]*(\d+)`)

// Decide maps verifier feedback onto a plan mutation. Detection is a
// case-insensitive keyword search over the free text; anything ambiguous
// or malformed defaults to ActionAdd, so Decide cannot fail. The plan and
// execution flag are part of the routing contract; keyword routing does
// not consult them, and the caller range-checks the returned index.
func Decide(feedback, accumulatedPlan string, execOK bool) Decision {
	dec := Decision{Action: ActionAdd, Feedback: feedback}
	up := strings.ToUpper(feedback)
	switch {
	case strings.Contains(up, "CORRECT"):
		dec.Action = ActionCorrect
		dec.Index = targetIndex(feedback)
	case strings.Contains(up, "REMOVE"):
		dec.Action = ActionRemove
		dec.Index = targetIndex(feedback)
	}
	return dec
}

// targetIndex pulls a step position out of phrases like "correct step 2"
// or "step_index: 3". Feedback without an explicit position targets the
// first step, matching the reference behavior.
func targetIndex(feedback string) int {
	m := stepIndexRe.FindStringSubmatch(feedback)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
