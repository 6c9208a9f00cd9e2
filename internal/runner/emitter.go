package runner

import "context"

// RunEventType labels a streamable event from a running session.
type RunEventType string

const (
	EventTypeLog      RunEventType = "log"
	EventTypeProgress RunEventType = "progress"
	EventTypeRound    RunEventType = "round"
	EventTypeComplete RunEventType = "complete"
	EventTypeError    RunEventType = "error"
)

// RunEvent is one observation from a session: a log line, a finished
// round, a progress estimate, or the terminal outcome.
type RunEvent struct {
	Type     RunEventType `json:"type"`
	RunID    string       `json:"run_id,omitempty"`
	Message  string       `json:"message,omitempty"`
	Round    int          `json:"round,omitempty"`
	Progress int32        `json:"progress,omitempty"` // 0-100
}

// RunEventEmitter lets the loops report progress while they run.
type RunEventEmitter interface {
	Emit(event RunEvent)
	EmitLog(message string)
	EmitRound(round int, message string)
	EmitProgress(percent int32, message string)
}

type emitterKey struct{}

// WithEmitter attaches an emitter to the context.
func WithEmitter(ctx context.Context, emitter RunEventEmitter) context.Context {
	return context.WithValue(ctx, emitterKey{}, emitter)
}

// EmitterFrom retrieves the emitter from context, or returns a no-op
// emitter so call sites never branch.
func EmitterFrom(ctx context.Context) RunEventEmitter {
	if e, ok := ctx.Value(emitterKey{}).(RunEventEmitter); ok {
		return e
	}
	return noopEmitter{}
}

type noopEmitter struct{}

func (noopEmitter) Emit(RunEvent)              {}
func (noopEmitter) EmitLog(string)             {}
func (noopEmitter) EmitRound(int, string)      {}
func (noopEmitter) EmitProgress(int32, string) {}

// ChannelEmitter forwards events to a channel without ever blocking the
// session: if the consumer lags, events are dropped.
type ChannelEmitter struct {
	Ch    chan<- RunEvent
	RunID string
}

func (e *ChannelEmitter) Emit(event RunEvent) {
	event.RunID = e.RunID
	select {
	case e.Ch <- event:
	default:
	}
}

func (e *ChannelEmitter) EmitLog(message string) {
	e.Emit(RunEvent{Type: EventTypeLog, Message: message})
}

func (e *ChannelEmitter) EmitRound(round int, message string) {
	e.Emit(RunEvent{Type: EventTypeRound, Round: round, Message: message})
}

func (e *ChannelEmitter) EmitProgress(percent int32, message string) {
	e.Emit(RunEvent{Type: EventTypeProgress, Progress: percent, Message: message})
}
