// Package browser holds the automation backend abstraction: pages, elements,
// locators and the session manager that owns browser lifetimes.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrClickIntercepted is returned by Element.Click when another element
	// (overlay, animation, sticky header) would receive the click.
	ErrClickIntercepted = errors.New("click intercepted")
	// ErrDetached is returned when an element is no longer attached to the DOM.
	ErrDetached = errors.New("element detached")
)

// Page is a single browser tab.
type Page interface {
	Goto(url string) error
	URL() string
	// QueryAll returns all elements matching a backend selector (see Locator.Selector).
	QueryAll(selector string) ([]Element, error)
	Close() error
}

// Element is a handle to a DOM element. Handles must not be kept across waits,
// re-resolve the Locator instead.
type Element interface {
	// Click performs a native pointer click, failing with ErrClickIntercepted if obstructed.
	Click(timeout time.Duration) error
	// DispatchClick fires a script-level click event on the element.
	DispatchClick() error
	// Fill clears the element and sets its value.
	Fill(text string) error
	// Type sends text as individual key strokes.
	Type(text string) error
	// Press sends a single named key such as "ArrowRight" or "Enter".
	Press(key string) error
	SelectOption(label string) error
	ScrollIntoView() error

	IsVisible() (bool, error)
	IsEnabled() (bool, error)
	// Text returns the rendered text of the element.
	Text() (string, error)
	// Attribute returns the attribute value, or "" if it is absent.
	Attribute(name string) (string, error)

	QueryAll(selector string) ([]Element, error)
}

// Browser is a launched browser instance with its own profile.
type Browser interface {
	Page() Page
	Close() error
}

// LaunchOptions are passed to a Launcher for a single browser instance.
type LaunchOptions struct {
	ProfileDir        string
	Headless          bool
	Args              []string
	IgnoreDefaultArgs []string
	NoViewport        bool
	SlowMo            time.Duration
}

// Launcher starts browser instances.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
}
