package eventlog

import (
	"sync"
	"time"
)

// Buffer is an in-process log with the same append contract as Log.
// Nothing is persisted; scenario runs and tests use it.
type Buffer struct {
	mu     sync.Mutex
	events []Event
	now    func() time.Time
}

// NewBuffer returns an empty in-process log.
func NewBuffer() *Buffer {
	return &Buffer{now: time.Now}
}

// Append records an event and returns it with its generated trace id.
func (b *Buffer) Append(kind string, content, meta map[string]any) (Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ev := Event{
		TS:      epochSeconds(b.now()),
		TraceID: NewTraceID(),
		Type:    kind,
		Content: orEmpty(content),
		Meta:    orEmpty(meta),
	}
	b.events = append(b.events, ev)
	return ev, nil
}

// Events returns a copy of the recorded events in append order.
func (b *Buffer) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}
