package collector

import "sync"

// RingBuffer is a thread-safe fixed capacity buffer that overwrites the oldest records.
type RingBuffer[T any] struct {
	records  []T
	capacity uint64
	size     uint64
	next     uint64

	// evicted is called with the overwritten record while the lock is held
	evicted func(T)

	mu sync.RWMutex
}

// NewRingBuffer creates a new ring buffer with the given capacity.
func NewRingBuffer[T any](capacity uint64) *RingBuffer[T] {
	if capacity == 0 {
		panic("capacity must be greater than 0")
	}
	return &RingBuffer[T]{
		records:  make([]T, capacity),
		capacity: capacity,
	}
}

// Add appends a record, evicting the oldest one when full.
func (rb *RingBuffer[T]) Add(record T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.add(record)
}

func (rb *RingBuffer[T]) add(record T) {
	idx := rb.next % rb.capacity
	if rb.size == rb.capacity && rb.evicted != nil {
		rb.evicted(rb.records[idx])
	}
	rb.records[idx] = record
	rb.next++
	if rb.size < rb.capacity {
		rb.size++
	}
}

// GetRecords returns up to n of the most recent records, oldest first.
func (rb *RingBuffer[T]) GetRecords(n uint64) []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	count := min(n, rb.size)
	result := make([]T, count)
	start := rb.next - count
	for i := range count {
		result[i] = rb.records[(start+i)%rb.capacity]
	}
	return result
}

// Clear drops all records.
func (rb *RingBuffer[T]) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	var zero T
	for i := range rb.records {
		rb.records[i] = zero
	}
	rb.size = 0
	rb.next = 0
}

func (rb *RingBuffer[T]) Size() uint64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.size
}

func (rb *RingBuffer[T]) Capacity() uint64 {
	return rb.capacity
}

// Identifiable is implemented by records stored in an IndexedRingBuffer.
type Identifiable[K comparable] interface {
	Identity() K
}

// IndexedRingBuffer is a RingBuffer that also supports lookup by identity.
type IndexedRingBuffer[T Identifiable[K], K comparable] struct {
	*RingBuffer[T]
	index map[K]T
}

// NewIndexedRingBuffer creates a new indexed ring buffer with the given capacity.
func NewIndexedRingBuffer[T Identifiable[K], K comparable](capacity uint64) *IndexedRingBuffer[T, K] {
	b := &IndexedRingBuffer[T, K]{
		RingBuffer: NewRingBuffer[T](capacity),
		index:      make(map[K]T, capacity),
	}
	b.evicted = func(old T) {
		delete(b.index, old.Identity())
	}
	return b
}

func (b *IndexedRingBuffer[T, K]) Add(record T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.add(record)
	b.index[record.Identity()] = record
}

// Lookup returns the record with the given identity if it is still buffered.
func (b *IndexedRingBuffer[T, K]) Lookup(id K) (T, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	record, ok := b.index[id]
	return record, ok
}

func (b *IndexedRingBuffer[T, K]) Clear() {
	b.RingBuffer.Clear()
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.index)
}
