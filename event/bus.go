// Package event is the synchronous publish/subscribe fan-out between the sequencer core and the
// collaborators that render its output.
//
// Every event kind is a Topic with its own payload type. Emit calls each handler in registration
// order on the caller's goroutine; there is no queue. A handler may emit again and the nested
// emit runs to completion before the outer one continues.
package event

// Topic holds the ordered handlers of a single event kind.
type Topic[T any] struct {
	handlers []func(T)
}

// Register appends fn to the handlers of the topic.
func (t *Topic[T]) Register(fn func(T)) {
	t.handlers = append(t.handlers, fn)
}

// Emit calls every registered handler with payload. Emitting a topic with no handlers is a no-op.
// Handlers registered while an emit is running are first called on the next emit.
func (t *Topic[T]) Emit(payload T) {
	for _, fn := range t.handlers {
		fn(payload)
	}
}

// Len returns the number of registered handlers.
func (t *Topic[T]) Len() int {
	return len(t.handlers)
}

// NoteEvent is a note-style trigger. Velocity 0 is a note-off, anything else a note-on.
type NoteEvent struct {
	Channel  uint8
	Pitch    uint8
	Velocity uint8
}

const (
	VelocityOff uint8 = 0
	VelocityOn  uint8 = 127
)

// IsNoteOn reports whether the event starts a note.
func (n NoteEvent) IsNoteOn() bool {
	return n.Velocity > 0
}

// Bus carries one topic per output kind of the sequencer.
//
// Slice payloads are only valid for the duration of the handler call.
type Bus struct {
	TempoChanged     Topic[int]
	ActiveStep       Topic[int]
	PatternChanged   Topic[uint16]
	AudioTriggers    Topic[[]bool]
	NoteEvents       Topic[[]NoteEvent]
	SequenceSelected Topic[int]
	SequenceSaving   Topic[bool]
	SequenceMode     Topic[bool]
}

// NewBus returns a bus with no handlers registered.
func NewBus() *Bus {
	return &Bus{}
}
