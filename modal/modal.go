// Package modal tracks dialog lifecycles so that field lookups are scoped to
// the open dialog and follow-up actions wait for it to detach.
package modal

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/wait"
)

// State of a modal dialog.
type State int

const (
	Absent State = iota
	Open
	Submitting
	Closing
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Open:
		return "open"
	case Submitting:
		return "submitting"
	case Closing:
		return "closing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	ErrInvalidTransition = errors.New("invalid modal transition")
	// ErrUnscopedWhileOpen is returned for page-wide field locators while a modal is open.
	ErrUnscopedWhileOpen = errors.New("unscoped field locator while a modal is open")
)

var transitions = map[State][]State{
	Absent:     {Open},
	Open:       {Submitting, Closing},
	Submitting: {Closing, Open},
	Closing:    {Absent, Open},
}

// Handle refers to one open dialog through its root locator.
type Handle struct {
	Name string
	Root browser.Locator

	state   State
	page    browser.Page
	tracker *Tracker
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.tracker.mu.Lock()
	defer h.tracker.mu.Unlock()
	return h.state
}

// Within scopes loc to the dialog root.
func (h *Handle) Within(loc browser.Locator) browser.Locator {
	return loc.Within(h.Root)
}

// Fill types text into a field inside the dialog.
func (h *Handle) Fill(ctx context.Context, field browser.Locator, text string) error {
	return h.tracker.engine.TypeInto(ctx, h.page, h.Within(field), text)
}

// Select picks an option of a select inside the dialog.
func (h *Handle) Select(ctx context.Context, field browser.Locator, label string) error {
	return h.tracker.engine.SelectOption(ctx, h.page, h.Within(field), label)
}

// Click clicks an element inside the dialog without changing its state.
func (h *Handle) Click(ctx context.Context, target browser.Locator) error {
	return h.tracker.engine.ResilientClick(ctx, h.page, h.Within(target))
}

// Submit clicks the submit control inside the dialog and waits for it to detach.
func (h *Handle) Submit(ctx context.Context, button browser.Locator) error {
	if err := h.tracker.transition(h, Submitting); err != nil {
		return err
	}
	if err := h.tracker.engine.ResilientClick(ctx, h.page, h.Within(button)); err != nil {
		_ = h.tracker.transition(h, Open)
		return fmt.Errorf("submitting %s: %w", h.Name, err)
	}
	return h.tracker.awaitDetached(ctx, h)
}

// Close clicks a control inside the dialog that dismisses it and waits for it to detach.
func (h *Handle) Close(ctx context.Context, button browser.Locator) error {
	return h.tracker.CloseAndAwaitDetached(ctx, h, func(ctx context.Context) error {
		return h.tracker.engine.ResilientClick(ctx, h.page, h.Within(button))
	})
}

// Tracker owns the stack of open dialogs of one page.
type Tracker struct {
	engine *wait.Engine
	open   []*Handle

	mu sync.Mutex
}

func NewTracker(engine *wait.Engine) *Tracker {
	return &Tracker{engine: engine}
}

// Open clicks trigger and waits until the dialog root is visible.
func (t *Tracker) Open(ctx context.Context, page browser.Page, name string, trigger, root browser.Locator) (*Handle, error) {
	if err := t.engine.ResilientClick(ctx, page, trigger); err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return t.Attach(ctx, page, name, root)
}

// Attach waits for a dialog opened by a previous action, such as a confirmation
// raised by a submit, and starts tracking it.
func (t *Tracker) Attach(ctx context.Context, page browser.Page, name string, root browser.Locator) (*Handle, error) {
	if _, err := t.engine.WaitFor(ctx, page, root, wait.Visible, 0); err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", name, err)
	}

	h := &Handle{Name: name, Root: root, page: page, tracker: t}
	if err := t.transition(h, Open); err != nil {
		return nil, err
	}
	t.engine.Logger().DebugContext(ctx, "Modal open", "modal", name, "root", root.String())
	return h, nil
}

// CloseAndAwaitDetached runs closeAction and returns once the dialog root is
// detached from the page. A root that is merely hidden still counts as open,
// the list behind it may not have refreshed yet. On failure the dialog is
// considered open again.
func (t *Tracker) CloseAndAwaitDetached(ctx context.Context, h *Handle, closeAction func(ctx context.Context) error) error {
	if err := t.transition(h, Closing); err != nil {
		return err
	}
	if err := closeAction(ctx); err != nil {
		_ = t.transition(h, Open)
		return fmt.Errorf("closing %s: %w", h.Name, err)
	}
	return t.awaitDetached(ctx, h)
}

func (t *Tracker) awaitDetached(ctx context.Context, h *Handle) error {
	if h.State() == Submitting {
		if err := t.transition(h, Closing); err != nil {
			return err
		}
	}
	if _, err := t.engine.WaitFor(ctx, h.page, h.Root, wait.Detached, 0); err != nil {
		_ = t.transition(h, Open)
		return fmt.Errorf("waiting for %s to close: %w", h.Name, err)
	}
	if err := t.transition(h, Absent); err != nil {
		return err
	}
	t.engine.Logger().DebugContext(ctx, "Modal closed", "modal", h.Name)
	return nil
}

func (t *Tracker) transition(h *Handle, to State) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !slices.Contains(transitions[h.state], to) {
		return fmt.Errorf("%w: %s from %s to %s", ErrInvalidTransition, h.Name, h.state, to)
	}
	h.state = to

	switch to {
	case Open:
		if !slices.Contains(t.open, h) {
			t.open = append(t.open, h)
		}
	case Absent:
		t.open = slices.DeleteFunc(t.open, func(o *Handle) bool { return o == h })
	}
	return nil
}

// Active returns the most recently opened dialog that is not yet absent, or nil.
func (t *Tracker) Active() *Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.open) == 0 {
		return nil
	}
	return t.open[len(t.open)-1]
}

// Global validates a page-wide locator. Field lookups by name or id must go
// through Handle.Within while any dialog is open, because the page behind it
// may hold fields with the same name.
func (t *Tracker) Global(loc browser.Locator) (browser.Locator, error) {
	if loc.Scoped() || t.Active() == nil {
		return loc, nil
	}
	switch loc.Strategy {
	case browser.StrategyName, browser.StrategyID:
		return loc, fmt.Errorf("%w: %s", ErrUnscopedWhileOpen, loc)
	default:
		return loc, nil
	}
}
