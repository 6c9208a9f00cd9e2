package gateway

import (
	"testing"
	"time"

	"refinery/internal/runner"
	"refinery/internal/tester"
)

func recvEvent(t *testing.T, ch <-chan runner.RunEvent) runner.RunEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatalf("feed closed before event arrived")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return runner.RunEvent{}
}

func TestHubFansOutToEverySubscriber(t *testing.T) {
	h := newHub()
	h.open("run-1")

	a, cancelA, ok := h.subscribe("run-1")
	tester.True(t, ok)
	defer cancelA()
	b, cancelB, ok := h.subscribe("run-1")
	tester.True(t, ok)
	defer cancelB()

	h.publish("run-1", runner.RunEvent{Type: runner.EventTypeRound, Round: 1})

	tester.Eq(t, recvEvent(t, a).Round, 1)
	tester.Eq(t, recvEvent(t, b).Round, 1)
}

func TestHubFinishClosesFeeds(t *testing.T) {
	h := newHub()
	h.open("run-1")

	ch, cancel, ok := h.subscribe("run-1")
	tester.True(t, ok)

	h.finish("run-1")

	select {
	case _, open := <-ch:
		tester.False(t, open, "feed should be closed")
	case <-time.After(time.Second):
		t.Fatalf("feed not closed after finish")
	}

	// Detaching after finish must not double-close.
	cancel()

	_, _, ok = h.subscribe("run-1")
	tester.False(t, ok, "finished run should not accept subscribers")
}

func TestHubCancelDetachesSubscriber(t *testing.T) {
	h := newHub()
	h.open("run-1")

	ch, cancel, ok := h.subscribe("run-1")
	tester.True(t, ok)
	cancel()

	h.publish("run-1", runner.RunEvent{Type: runner.EventTypeLog, Message: "after cancel"})

	_, open := <-ch
	tester.False(t, open, "canceled feed should be closed")
}

func TestHubSlowSubscriberLosesOldestEvents(t *testing.T) {
	h := newHub()
	h.open("run-1")

	ch, cancel, ok := h.subscribe("run-1")
	tester.True(t, ok)
	defer cancel()

	total := subscriberBuffer + 5
	for i := 0; i < total; i++ {
		h.publish("run-1", runner.RunEvent{Type: runner.EventTypeRound, Round: i})
	}

	var got []runner.RunEvent
	for len(ch) > 0 {
		got = append(got, <-ch)
	}
	tester.Eq(t, len(got), subscriberBuffer)
	tester.Eq(t, got[0].Round, 5)
	tester.Eq(t, got[len(got)-1].Round, total-1)
}

func TestHubIgnoresUnknownRuns(t *testing.T) {
	h := newHub()
	h.publish("ghost", runner.RunEvent{Type: runner.EventTypeLog})
	h.finish("ghost")

	_, _, ok := h.subscribe("ghost")
	tester.False(t, ok)
}
