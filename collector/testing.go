package collector

import (
	"context"
	"sync"
	"testing"
	"time"
)

// TestCollector collects items from a subscription channel for testing.
// This is a test helper that should only be used in tests.
type TestCollector[T any] struct {
	t       testing.TB
	items   []T
	cancel  func()
	timeout time.Duration
	added   chan struct{}
	mu      sync.Mutex
}

// Collect starts collecting from a subscription.
// Use Wait(n) to block until n items are received or timeout.
func Collect[T any](t testing.TB, subscribe func(context.Context) <-chan T) *TestCollector[T] {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	ch := subscribe(ctx)

	c := &TestCollector[T]{
		t:       t,
		cancel:  cancel,
		timeout: 3 * time.Second,
		added:   make(chan struct{}, 1),
	}

	go func() {
		for item := range ch {
			c.mu.Lock()
			c.items = append(c.items, item)
			c.mu.Unlock()
			select {
			case c.added <- struct{}{}:
			default:
			}
		}
	}()

	return c
}

// Wait blocks until at least n items are collected, then stops collecting.
// Fails the test on timeout.
func (c *TestCollector[T]) Wait(n int) []T {
	c.t.Helper()
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	for {
		c.mu.Lock()
		count := len(c.items)
		c.mu.Unlock()
		if count >= n {
			return c.Stop()
		}

		select {
		case <-c.added:
		case <-timer.C:
			c.Stop()
			c.t.Fatalf("timeout waiting for %d items, got %d", n, count)
			return nil
		}
	}
}

// Stop cancels collection and returns items collected so far.
func (c *TestCollector[T]) Stop() []T {
	c.cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return items
}
