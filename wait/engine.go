// Package wait implements bounded, polling waits on locators and the element
// actions built on them.
package wait

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/collector"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultInterval     = 100 * time.Millisecond
	DefaultClickTimeout = 2 * time.Second
)

// Recorder receives telemetry for waits and clicks.
type Recorder interface {
	RecordWait(ctx context.Context, evt collector.WaitEvent)
	RecordClick(ctx context.Context, evt collector.ClickEvent)
}

type nopRecorder struct{}

func (nopRecorder) RecordWait(context.Context, collector.WaitEvent)   {}
func (nopRecorder) RecordClick(context.Context, collector.ClickEvent) {}

// Engine polls locators until conditions hold.
type Engine struct {
	timeout      time.Duration
	interval     time.Duration
	clickTimeout time.Duration
	recorder     Recorder
	logger       *slog.Logger
}

type Option func(*Engine)

// WithTimeout sets the timeout used when a wait passes zero.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.interval = d
	}
}

// WithClickTimeout bounds a single native click attempt.
func WithClickTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.clickTimeout = d
	}
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func New(options ...Option) *Engine {
	e := &Engine{
		timeout:      DefaultTimeout,
		interval:     DefaultInterval,
		clickTimeout: DefaultClickTimeout,
		recorder:     nopRecorder{},
		logger:       slog.Default(),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Timeout returns the default timeout.
func (e *Engine) Timeout() time.Duration {
	return e.timeout
}

// Interval returns the poll interval.
func (e *Engine) Interval() time.Duration {
	return e.interval
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Poll calls probe immediately and then on every tick until it returns true or
// the timeout expires. It returns the number of probes and the context error on expiry.
func Poll(ctx context.Context, interval, timeout time.Duration, probe func() bool) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	polls := 0
	for {
		polls++
		if probe() {
			return polls, nil
		}
		select {
		case <-ctx.Done():
			return polls, ctx.Err()
		case <-ticker.C:
		}
	}
}

// WaitFor polls loc until cond holds and returns the satisfying elements.
// A zero timeout uses the engine default. Elements are re-queried on every poll.
func (e *Engine) WaitFor(ctx context.Context, page browser.Page, loc browser.Locator, cond Condition, timeout time.Duration) ([]browser.Element, error) {
	if timeout <= 0 {
		timeout = e.timeout
	}

	var (
		matched []browser.Element
		matches int
		lastErr error
	)
	start := time.Now()
	polls, err := Poll(ctx, e.interval, timeout, func() bool {
		elements, err := loc.Resolve(page)
		if err != nil {
			lastErr = err
			return false
		}
		lastErr = nil
		matches = len(elements)
		var ok bool
		matched, ok = cond.Match(elements)
		return ok
	})
	elapsed := time.Since(start)

	evt := collector.WaitEvent{
		Locator:   loc.String(),
		Condition: cond.Name,
		Outcome:   collector.WaitSatisfied,
		Elapsed:   elapsed,
		Polls:     polls,
	}
	switch {
	case err == nil:
		e.recorder.RecordWait(ctx, evt)
		return matched, nil
	case errors.Is(err, context.DeadlineExceeded):
		evt.Outcome = collector.WaitTimedOut
		e.recorder.RecordWait(ctx, evt)
		return nil, &TimeoutError{
			Locator:   loc.String(),
			Condition: cond.Name,
			Timeout:   timeout,
			Elapsed:   elapsed,
			Matches:   matches,
			LastErr:   lastErr,
		}
	default:
		evt.Outcome = collector.WaitCanceled
		e.recorder.RecordWait(ctx, evt)
		return nil, err
	}
}

// Present waits for at least one element and returns the first.
func (e *Engine) Present(ctx context.Context, page browser.Page, loc browser.Locator) (browser.Element, error) {
	elements, err := e.WaitFor(ctx, page, loc, Present, 0)
	if err != nil {
		return nil, err
	}
	return elements[0], nil
}

// Gone waits until no matching element is visible.
func (e *Engine) Gone(ctx context.Context, page browser.Page, loc browser.Locator) error {
	_, err := e.WaitFor(ctx, page, loc, Invisible, 0)
	return err
}

// Count returns the current number of matches without waiting.
func (e *Engine) Count(page browser.Page, loc browser.Locator) (int, error) {
	elements, err := loc.Resolve(page)
	return len(elements), err
}
