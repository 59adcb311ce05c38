package collector

import (
	"iter"
	"time"

	"github.com/gofrs/uuid"
)

// Event is a collected telemetry record. Scenario runs open a group event and
// every step, click, wait and log record collected under that context becomes a child.
type Event struct {
	ID uuid.UUID

	GroupID *uuid.UUID
	RunID   uuid.UUID

	Data any

	Start time.Time
	End   time.Time

	Children []*Event
}

// Identity implements Identifiable for indexed ring buffers.
func (e *Event) Identity() uuid.UUID {
	return e.ID
}

// Duration of the event, zero for point-in-time events.
func (e *Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Visit walks the event and all descendants depth-first.
func (e *Event) Visit() iter.Seq2[uuid.UUID, *Event] {
	return func(yield func(uuid.UUID, *Event) bool) {
		e.visit(yield)
	}
}

func (e *Event) visit(yield func(uuid.UUID, *Event) bool) bool {
	if !yield(e.ID, e) {
		return false
	}
	for _, child := range e.Children {
		if !child.visit(yield) {
			return false
		}
	}
	return true
}

// Count returns the number of events in the subtree whose data matches the predicate.
func (e *Event) Count(match func(data any) bool) int {
	n := 0
	for _, evt := range e.Visit() {
		if match(evt.Data) {
			n++
		}
	}
	return n
}

func newEventID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}
