package gateway

import (
	"sync"
	"time"

	"refinery/internal/runner"
)

// completedFeedRetention keeps a finished run's feed registered a little
// longer so a watcher that connects just after completion gets a clean
// "not active" answer instead of a stale subscription.
const completedFeedRetention = 30 * time.Second

const subscriberBuffer = 32

// hub fans run events out to websocket watchers. One feed per active
// run; publishing never blocks the session that emits.
type hub struct {
	mu    sync.RWMutex
	feeds map[string]*feed
}

type feed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan runner.RunEvent
	done   bool
}

func newHub() *hub {
	return &hub{feeds: make(map[string]*feed)}
}

// open registers a feed for a starting run.
func (h *hub) open(runID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.feeds[runID] = &feed{subs: make(map[int]chan runner.RunEvent)}
}

// publish delivers an event to every subscriber of the run. A slow
// subscriber loses its oldest buffered event rather than stalling the
// session.
func (h *hub) publish(runID string, ev runner.RunEvent) {
	h.mu.RLock()
	f := h.feeds[runID]
	h.mu.RUnlock()
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return
	}
	for _, ch := range f.subs {
		pushEvent(ch, ev)
	}
}

// finish closes every subscriber channel and schedules the feed's
// removal from the registry.
func (h *hub) finish(runID string) {
	h.mu.RLock()
	f := h.feeds[runID]
	h.mu.RUnlock()
	if f == nil {
		return
	}
	f.mu.Lock()
	if !f.done {
		f.done = true
		for id, ch := range f.subs {
			close(ch)
			delete(f.subs, id)
		}
	}
	f.mu.Unlock()

	time.AfterFunc(completedFeedRetention, func() {
		h.mu.Lock()
		delete(h.feeds, runID)
		h.mu.Unlock()
	})
}

// subscribe attaches a watcher to a run's feed. The channel is closed
// when the run finishes; cancel detaches early and is safe to call
// after that close.
func (h *hub) subscribe(runID string) (<-chan runner.RunEvent, func(), bool) {
	h.mu.RLock()
	f := h.feeds[runID]
	h.mu.RUnlock()
	if f == nil {
		return nil, nil, false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return nil, nil, false
	}
	id := f.nextID
	f.nextID++
	ch := make(chan runner.RunEvent, subscriberBuffer)
	f.subs[id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(ch)
		}
	}
	return ch, cancel, true
}

func pushEvent(ch chan runner.RunEvent, ev runner.RunEvent) {
	select {
	case ch <- ev:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- ev:
	default:
	}
}
