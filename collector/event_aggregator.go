package collector

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid"
)

// EventAggregator groups events by context and dispatches finished top-level
// events to registered storages. It does not store events itself.
type EventAggregator struct {
	storages   map[uuid.UUID]EventStorage
	openGroups map[uuid.UUID]*Event

	mu sync.RWMutex
}

// NewEventAggregator creates a new EventAggregator.
func NewEventAggregator() *EventAggregator {
	return &EventAggregator{
		storages:   make(map[uuid.UUID]EventStorage),
		openGroups: make(map[uuid.UUID]*Event),
	}
}

// RegisterStorage registers a storage with the aggregator.
func (a *EventAggregator) RegisterStorage(storage EventStorage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.storages[storage.ID()] = storage
}

// UnregisterStorage removes a storage from the aggregator.
func (a *EventAggregator) UnregisterStorage(id uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.storages, id)
}

// ShouldCapture returns true if any registered storage captures events for the context.
func (a *EventAggregator) ShouldCapture(ctx context.Context) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, storage := range a.storages {
		if storage.ShouldCapture(ctx) {
			return true
		}
	}
	return false
}

// StartEvent opens a group and returns a context carrying its ID.
// Events collected with the returned context become children of the group.
// EndEvent must be called with the returned context to finish it.
func (a *EventAggregator) StartEvent(ctx context.Context) context.Context {
	evt := &Event{
		ID:    newEventID(),
		Start: time.Now(),
	}
	if runID, ok := RunIDFromContext(ctx); ok {
		evt.RunID = runID
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if outer, ok := groupIDFromContext(ctx); ok {
		evt.GroupID = &outer
	}
	a.openGroups[evt.ID] = evt

	return withGroupID(ctx, evt.ID)
}

// EndEvent finishes the group opened by StartEvent and attaches its data.
func (a *EventAggregator) EndEvent(ctx context.Context, data any) {
	groupID, ok := groupIDFromContext(ctx)
	if !ok {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	evt := a.openGroups[groupID]
	if evt == nil {
		return
	}
	delete(a.openGroups, groupID)

	evt.Data = data
	evt.End = time.Now()

	if evt.GroupID != nil {
		if parent := a.openGroups[*evt.GroupID]; parent != nil {
			parent.Children = append(parent.Children, evt)
			return
		}
	}
	a.dispatch(ctx, evt)
}

// CollectEvent records a point-in-time event. Inside an open group it becomes a
// child of that group, otherwise it is dispatched immediately.
func (a *EventAggregator) CollectEvent(ctx context.Context, data any) {
	now := time.Now()
	evt := &Event{
		ID:    newEventID(),
		Data:  data,
		Start: now,
		End:   now,
	}
	if runID, ok := RunIDFromContext(ctx); ok {
		evt.RunID = runID
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if groupID, ok := groupIDFromContext(ctx); ok {
		evt.GroupID = &groupID
		if parent := a.openGroups[groupID]; parent != nil {
			parent.Children = append(parent.Children, evt)
			return
		}
	}
	a.dispatch(ctx, evt)
}

// dispatch must be called with the lock held.
func (a *EventAggregator) dispatch(ctx context.Context, evt *Event) {
	for _, storage := range a.storages {
		if storage.ShouldCapture(ctx) {
			storage.Add(evt)
		}
	}
}

// Close closes all registered storages.
func (a *EventAggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, storage := range a.storages {
		storage.Close()
	}
	a.storages = make(map[uuid.UUID]EventStorage)
	a.openGroups = make(map[uuid.UUID]*Event)
}

// Stats holds aggregated statistics across all storages.
type Stats struct {
	EventCount   int
	OpenGroups   int
	StorageCount int
}

// CalculateStats counts distinct top-level events across storages.
func (a *EventAggregator) CalculateStats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{})
	for _, storage := range a.storages {
		for _, evt := range storage.GetEvents(storage.Capacity()) {
			seen[evt.ID] = struct{}{}
		}
	}

	return Stats{
		EventCount:   len(seen),
		OpenGroups:   len(a.openGroups),
		StorageCount: len(a.storages),
	}
}
