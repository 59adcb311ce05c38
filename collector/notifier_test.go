package collector_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/surveyprobe/collector"
)

func TestNotifier_DeliversToAllSubscribers(t *testing.T) {
	t.Parallel()

	notifier := collector.NewNotifier[string]()
	defer notifier.Close()

	first := collector.Collect(t, notifier.Subscribe)
	second := collector.Collect(t, notifier.Subscribe)

	notifier.Notify("click")
	notifier.Notify("wait")

	assert.Equal(t, []string{"click", "wait"}, first.Wait(2))
	assert.Equal(t, []string{"click", "wait"}, second.Wait(2))
}

func TestNotifier_ContextCancellationUnsubscribes(t *testing.T) {
	t.Parallel()

	notifier := collector.NewNotifier[int]()
	defer notifier.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := notifier.Subscribe(ctx)
	require.Equal(t, 1, notifier.SubscriberCount())

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("subscription channel was not closed")
	}
	assert.Equal(t, 0, notifier.SubscriberCount())
}

func TestNotifier_SubscribeAfterCloseReturnsClosedChannel(t *testing.T) {
	t.Parallel()

	notifier := collector.NewNotifier[int]()
	notifier.Close()

	ch := notifier.Subscribe(context.Background())
	_, ok := <-ch
	assert.False(t, ok)

	// Notify after close is a no-op
	notifier.Notify(1)
}

func TestNotifier_SlowSubscriberDoesNotBlockProducer(t *testing.T) {
	t.Parallel()

	notifier := collector.NewNotifierWithOptions[int](collector.NotifierOptions{
		SubscriberBufferSize:   1,
		NotificationBufferSize: 1,
	})
	defer notifier.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = notifier.Subscribe(ctx)

	done := make(chan struct{})
	go func() {
		for i := range 1000 {
			notifier.Notify(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a slow subscriber")
	}
}
