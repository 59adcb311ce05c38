package collector

import (
	"context"

	"github.com/gofrs/uuid"
)

// EventStorage is the interface for event storage backends.
// Storages decide which events to capture and keep them.
type EventStorage interface {
	ID() uuid.UUID

	// ShouldCapture returns true if this storage wants events collected with ctx.
	ShouldCapture(ctx context.Context) bool

	Add(event *Event)

	GetEvent(id uuid.UUID) (*Event, bool)

	// GetEvents returns the most recent events, oldest first.
	GetEvents(limit uint64) []*Event

	Capacity() uint64

	// Subscribe returns a channel that receives newly added events until ctx is done.
	Subscribe(ctx context.Context) <-chan *Event

	Clear()

	Close()
}

// CaptureMode defines which events a CaptureStorage keeps.
type CaptureMode int

const (
	// CaptureModeRun keeps only events collected under a matching run ID.
	CaptureModeRun CaptureMode = iota
	// CaptureModeAll keeps every event.
	CaptureModeAll
)

func (m CaptureMode) String() string {
	switch m {
	case CaptureModeRun:
		return "run"
	case CaptureModeAll:
		return "all"
	default:
		return "unknown"
	}
}

// CaptureStorage is a bounded in-memory EventStorage.
type CaptureStorage struct {
	id    uuid.UUID
	runID uuid.UUID
	mode  CaptureMode

	buffer   *IndexedRingBuffer[*Event, uuid.UUID]
	notifier *Notifier[*Event]
}

// NewCaptureStorage creates a storage for the given run. The run ID is ignored in CaptureModeAll.
func NewCaptureStorage(runID uuid.UUID, capacity uint64, mode CaptureMode) *CaptureStorage {
	return &CaptureStorage{
		id:       newEventID(),
		runID:    runID,
		mode:     mode,
		buffer:   NewIndexedRingBuffer[*Event, uuid.UUID](capacity),
		notifier: NewNotifier[*Event](),
	}
}

func (s *CaptureStorage) ID() uuid.UUID {
	return s.id
}

func (s *CaptureStorage) RunID() uuid.UUID {
	return s.runID
}

func (s *CaptureStorage) CaptureMode() CaptureMode {
	return s.mode
}

func (s *CaptureStorage) ShouldCapture(ctx context.Context) bool {
	switch s.mode {
	case CaptureModeAll:
		return true
	case CaptureModeRun:
		runID, ok := RunIDFromContext(ctx)
		return ok && runID == s.runID
	default:
		return false
	}
}

func (s *CaptureStorage) Add(event *Event) {
	s.buffer.Add(event)
	s.notifier.Notify(event)
}

func (s *CaptureStorage) GetEvent(id uuid.UUID) (*Event, bool) {
	return s.buffer.Lookup(id)
}

func (s *CaptureStorage) GetEvents(limit uint64) []*Event {
	return s.buffer.GetRecords(limit)
}

func (s *CaptureStorage) Capacity() uint64 {
	return s.buffer.Capacity()
}

func (s *CaptureStorage) Subscribe(ctx context.Context) <-chan *Event {
	return s.notifier.Subscribe(ctx)
}

func (s *CaptureStorage) Clear() {
	s.buffer.Clear()
}

func (s *CaptureStorage) Close() {
	s.notifier.Close()
}

var _ EventStorage = (*CaptureStorage)(nil)
