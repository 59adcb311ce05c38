package collector

import (
	"context"
	"sync"
)

// Notifier fans out items to subscribers without ever blocking the producer.
// Slow subscribers miss items instead of stalling the harness.
type Notifier[T any] struct {
	subscribers map[<-chan T]chan T
	bufferSize  int
	notifyCh    chan T
	closed      bool

	closeOnce sync.Once
	mu        sync.RWMutex
}

// NotifierOptions configures a notifier
type NotifierOptions struct {
	// SubscriberBufferSize is the buffer size for each subscriber channel
	SubscriberBufferSize int

	// NotificationBufferSize is the buffer size for the internal notification channel
	NotificationBufferSize int
}

// DefaultNotifierOptions returns default options for a notifier
func DefaultNotifierOptions() NotifierOptions {
	return NotifierOptions{
		SubscriberBufferSize:   100,
		NotificationBufferSize: 1000,
	}
}

// NewNotifier creates a new notifier with default options
func NewNotifier[T any]() *Notifier[T] {
	return NewNotifierWithOptions[T](DefaultNotifierOptions())
}

// NewNotifierWithOptions creates a new notifier with specified options
func NewNotifierWithOptions[T any](options NotifierOptions) *Notifier[T] {
	n := &Notifier[T]{
		subscribers: make(map[<-chan T]chan T),
		bufferSize:  options.SubscriberBufferSize,
		notifyCh:    make(chan T, options.NotificationBufferSize),
	}
	go n.run()
	return n
}

// Subscribe returns a channel receiving notifications until ctx is done or the notifier is closed.
func (n *Notifier[T]) Subscribe(ctx context.Context) <-chan T {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan T, n.bufferSize)
	if n.closed {
		close(ch)
		return ch
	}
	n.subscribers[ch] = ch

	go func() {
		<-ctx.Done()
		n.Unsubscribe(ch)
	}()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (n *Notifier[T]) Unsubscribe(ch <-chan T) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if sub, ok := n.subscribers[ch]; ok {
		delete(n.subscribers, ch)
		close(sub)
	}
}

// SubscriberCount returns the number of active subscriptions.
func (n *Notifier[T]) SubscriberCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscribers)
}

// Notify queues an item for delivery. The item is dropped if the queue is full.
func (n *Notifier[T]) Notify(item T) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}

	select {
	case n.notifyCh <- item:
	default:
	}
}

// Close closes the notifier and all subscriber channels.
func (n *Notifier[T]) Close() {
	n.closeOnce.Do(func() {
		n.mu.Lock()
		defer n.mu.Unlock()

		n.closed = true
		for _, ch := range n.subscribers {
			close(ch)
		}
		n.subscribers = nil
		close(n.notifyCh)
	})
}

func (n *Notifier[T]) run() {
	for item := range n.notifyCh {
		n.mu.RLock()
		for _, ch := range n.subscribers {
			select {
			case ch <- item:
			default:
			}
		}
		n.mu.RUnlock()
	}
}
