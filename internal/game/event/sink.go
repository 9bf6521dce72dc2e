package event

// Sink receives emitted events.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Buffer accumulates events until drained. The zero value is ready to use.
type Buffer struct {
	events []Event
}

// Emit appends e.
func (b *Buffer) Emit(e Event) { b.events = append(b.events, e) }

// Len returns the number of buffered events.
func (b *Buffer) Len() int { return len(b.events) }

// Truncate drops every event emitted after the first n.
func (b *Buffer) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n >= len(b.events) {
		return
	}
	clear(b.events[n:])
	b.events = b.events[:n]
}

// Drain returns the buffered events in emission order and empties the buffer.
func (b *Buffer) Drain() []Event {
	out := b.events
	b.events = nil
	return out
}

// Names returns the names of evs, in order.
func Names(evs []Event) []string {
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Name()
	}
	return out
}

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(Event) {})
