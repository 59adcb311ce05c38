package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/collector"
	"github.com/networkteam/surveyprobe/modal"
	"github.com/networkteam/surveyprobe/verify"
	"github.com/networkteam/surveyprobe/wait"
)

// Env is everything a scenario needs to drive the application.
type Env struct {
	Page    browser.Page
	Wait    *wait.Engine
	Modals  *modal.Tracker
	Verify  *verify.Verifier
	State   *State
	BaseURL string
	Logger  *slog.Logger
	// StrictPermissions turns missing permission checkboxes into failures.
	StrictPermissions bool

	observer Observer
	warnings []string
	mu       sync.Mutex
}

// URL joins a path to the base URL.
func (e *Env) URL(path string) string {
	return strings.TrimRight(e.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Fill types text into a page-level field. Name and id locators are refused
// while a dialog is open, fields inside it go through its handle.
func (e *Env) Fill(ctx context.Context, loc browser.Locator, text string) error {
	loc, err := e.global(loc)
	if err != nil {
		return err
	}
	return e.Wait.TypeInto(ctx, e.Page, loc, text)
}

// Click clicks a page-level target with the resilient click.
func (e *Env) Click(ctx context.Context, loc browser.Locator) error {
	loc, err := e.global(loc)
	if err != nil {
		return err
	}
	return e.Wait.ResilientClick(ctx, e.Page, loc)
}

func (e *Env) global(loc browser.Locator) (browser.Locator, error) {
	if e.Modals == nil {
		return loc, nil
	}
	return e.Modals.Global(loc)
}

// Step runs fn as a named step. Errors are wrapped with the step name.
func (e *Env) Step(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	e.Logger.DebugContext(ctx, "Step", "step", name)

	err := fn(ctx)
	evt := collector.StepEvent{Name: name, Detail: "ok"}
	if err != nil {
		evt.Detail = err.Error()
	}
	e.notify(ctx, evt)

	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Warn records a recoverable anomaly. Warnings are reported with the outcome.
func (e *Env) Warn(ctx context.Context, step, msg string) {
	e.Logger.WarnContext(ctx, msg, "step", step)

	e.mu.Lock()
	e.warnings = append(e.warnings, msg)
	e.mu.Unlock()

	e.notify(ctx, collector.StepEvent{Name: step, Detail: "warning", Warnings: []string{msg}})
}

func (e *Env) notify(ctx context.Context, evt collector.StepEvent) {
	if e.observer != nil {
		e.observer.Step(ctx, evt)
	}
}

func (e *Env) Warnings() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.warnings...)
}
