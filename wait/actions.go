package wait

import (
	"context"
	"errors"
	"fmt"

	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/collector"
)

// ResilientClick waits until loc is clickable and clicks it natively. If the
// click is intercepted it falls back to a script-level click on the same element.
// The path taken is recorded for every click. An absent target fails with
// *TimeoutError, a target that cannot be clicked either way with *InteractionError.
func (e *Engine) ResilientClick(ctx context.Context, page browser.Page, loc browser.Locator) error {
	var clickErr error
	// A detached element is re-resolved once before giving up.
	for attempt := 0; attempt < 2; attempt++ {
		elements, err := e.WaitFor(ctx, page, loc, Clickable, 0)
		if err != nil {
			return err
		}
		el := elements[0]
		if err := el.ScrollIntoView(); err != nil {
			e.logger.DebugContext(ctx, "Scroll into view failed", "locator", loc.String(), "error", err)
		}

		clickErr = el.Click(e.clickTimeout)
		switch {
		case clickErr == nil:
			e.recorder.RecordClick(ctx, collector.ClickEvent{Locator: loc.String(), Path: collector.ClickNative})
			return nil
		case errors.Is(clickErr, browser.ErrDetached):
			continue
		case errors.Is(clickErr, browser.ErrClickIntercepted):
			return e.fallbackClick(ctx, loc, el, clickErr)
		default:
			return e.clickFailed(ctx, loc, clickErr)
		}
	}
	return e.clickFailed(ctx, loc, clickErr)
}

func (e *Engine) fallbackClick(ctx context.Context, loc browser.Locator, el browser.Element, cause error) error {
	e.logger.WarnContext(ctx, "Native click intercepted, dispatching script click", "locator", loc.String(), "reason", cause)

	if err := el.DispatchClick(); err != nil {
		return e.clickFailed(ctx, loc, errors.Join(cause, err))
	}
	e.recorder.RecordClick(ctx, collector.ClickEvent{
		Locator: loc.String(),
		Path:    collector.ClickFallback,
		Reason:  cause.Error(),
	})
	return nil
}

func (e *Engine) clickFailed(ctx context.Context, loc browser.Locator, err error) error {
	e.recorder.RecordClick(ctx, collector.ClickEvent{
		Locator: loc.String(),
		Path:    collector.ClickFailed,
		Reason:  err.Error(),
	})
	return &InteractionError{Locator: loc.String(), Action: "click", Err: err}
}

// TypeInto waits for loc and replaces its value with text. It does not retry.
func (e *Engine) TypeInto(ctx context.Context, page browser.Page, loc browser.Locator, text string) error {
	el, err := e.Present(ctx, page, loc)
	if err != nil {
		return err
	}
	if err := el.Fill(text); err != nil {
		return &InteractionError{Locator: loc.String(), Action: "type", Err: err}
	}
	return nil
}

// Keystroke is either literal text typed key by key or a single named key.
type Keystroke struct {
	Text string
	Key  string
}

// Keys types a sequence of keystrokes into loc, used for segmented date and time inputs.
func (e *Engine) Keys(ctx context.Context, page browser.Page, loc browser.Locator, strokes ...Keystroke) error {
	el, err := e.Present(ctx, page, loc)
	if err != nil {
		return err
	}
	for _, s := range strokes {
		if s.Key != "" {
			err = el.Press(s.Key)
		} else {
			err = el.Type(s.Text)
		}
		if err != nil {
			return &InteractionError{Locator: loc.String(), Action: "keys", Err: err}
		}
	}
	return nil
}

// SelectOption waits for a select element and picks the option with the given label.
func (e *Engine) SelectOption(ctx context.Context, page browser.Page, loc browser.Locator, label string) error {
	el, err := e.Present(ctx, page, loc)
	if err != nil {
		return err
	}
	if err := el.SelectOption(label); err != nil {
		return &InteractionError{Locator: loc.String(), Action: fmt.Sprintf("select %q", label), Err: err}
	}
	return nil
}

// Text waits for loc and returns the rendered text of the first match.
func (e *Engine) Text(ctx context.Context, page browser.Page, loc browser.Locator) (string, error) {
	el, err := e.Present(ctx, page, loc)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", &InteractionError{Locator: loc.String(), Action: "read text", Err: err}
	}
	return text, nil
}

// Attribute waits for loc and returns an attribute of the first match.
func (e *Engine) Attribute(ctx context.Context, page browser.Page, loc browser.Locator, name string) (string, error) {
	el, err := e.Present(ctx, page, loc)
	if err != nil {
		return "", err
	}
	value, err := el.Attribute(name)
	if err != nil {
		return "", &InteractionError{Locator: loc.String(), Action: "read attribute " + name, Err: err}
	}
	return value, nil
}

// Navigate loads url in the page.
func (e *Engine) Navigate(ctx context.Context, page browser.Page, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := page.Goto(url); err != nil {
		return &InteractionError{Locator: url, Action: "navigate", Err: err}
	}
	return nil
}
