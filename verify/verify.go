// Package verify provides polling assertions that report the last observed
// value when they fail.
package verify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/wait"
)

// AssertionFailure is returned when an expected state was not observed in time.
type AssertionFailure struct {
	Message  string
	Expected string
	// Observed is the value seen at the last poll.
	Observed string
	Elapsed  time.Duration
	// Diff is a unified diff between Expected and Observed, empty if not applicable.
	Diff string
	// LastErr is the last error returned by the probe, if any.
	LastErr error
}

func (f *AssertionFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: expected %s, last observed %s after %s",
		f.Message, strconv.Quote(f.Expected), strconv.Quote(f.Observed), f.Elapsed.Round(time.Millisecond))
	if f.LastErr != nil {
		fmt.Fprintf(&b, " (%v)", f.LastErr)
	}
	return b.String()
}

func (f *AssertionFailure) Unwrap() error {
	return f.LastErr
}

// Probe observes the current state. It returns the observed value and whether it satisfies the assertion.
type Probe func(ctx context.Context) (observed string, ok bool, err error)

// Verifier runs assertions against a page using the wait engine's timing.
type Verifier struct {
	engine *wait.Engine
}

func New(engine *wait.Engine) *Verifier {
	return &Verifier{engine: engine}
}

// Eventually polls probe until it reports success. A zero timeout uses the
// engine default. On expiry it returns *AssertionFailure with the last
// observed value. Context cancellation is returned as is.
func (v *Verifier) Eventually(ctx context.Context, timeout time.Duration, message, expected string, probe Probe) error {
	if timeout <= 0 {
		timeout = v.engine.Timeout()
	}

	var (
		observed string
		lastErr  error
	)
	start := time.Now()
	_, err := wait.Poll(ctx, v.engine.Interval(), timeout, func() bool {
		value, ok, err := probe(ctx)
		if err != nil {
			lastErr = err
			return false
		}
		lastErr = nil
		observed = value
		return ok
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return &AssertionFailure{
		Message:  message,
		Expected: expected,
		Observed: observed,
		Elapsed:  time.Since(start),
		Diff:     Diff(expected, observed),
		LastErr:  lastErr,
	}
}

func (v *Verifier) text(page browser.Page, loc browser.Locator) (string, bool, error) {
	elements, err := loc.Resolve(page)
	if err != nil {
		return "", false, err
	}
	if len(elements) == 0 {
		return "", false, nil
	}
	text, err := elements[0].Text()
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(text), true, nil
}

// TextEquals asserts that the first match of loc eventually has exactly the given text.
func (v *Verifier) TextEquals(ctx context.Context, page browser.Page, loc browser.Locator, want string) error {
	return v.Eventually(ctx, 0, "text of "+loc.String(), want, func(ctx context.Context) (string, bool, error) {
		text, found, err := v.text(page, loc)
		if err != nil || !found {
			return "<absent>", false, err
		}
		return text, text == want, nil
	})
}

// TextContains asserts that the first match of loc eventually contains the given text.
func (v *Verifier) TextContains(ctx context.Context, page browser.Page, loc browser.Locator, want string) error {
	return v.Eventually(ctx, 0, "text of "+loc.String(), want, func(ctx context.Context) (string, bool, error) {
		text, found, err := v.text(page, loc)
		if err != nil || !found {
			return "<absent>", false, err
		}
		return text, strings.Contains(text, want), nil
	})
}

// AttributeContains asserts that an attribute of the first match eventually contains want.
func (v *Verifier) AttributeContains(ctx context.Context, page browser.Page, loc browser.Locator, name, want string) error {
	return v.Eventually(ctx, 0, fmt.Sprintf("attribute %s of %s", name, loc), want, func(ctx context.Context) (string, bool, error) {
		elements, err := loc.Resolve(page)
		if err != nil || len(elements) == 0 {
			return "<absent>", false, err
		}
		value, err := elements[0].Attribute(name)
		if err != nil {
			return "", false, err
		}
		return value, strings.Contains(value, want), nil
	})
}

// URLContains asserts that the page URL eventually contains fragment.
func (v *Verifier) URLContains(ctx context.Context, page browser.Page, fragment string) error {
	return v.Eventually(ctx, 0, "page URL", fragment, func(ctx context.Context) (string, bool, error) {
		url := page.URL()
		return url, strings.Contains(url, fragment), nil
	})
}

// URLNeverContains asserts that the page URL does not contain fragment during the whole window.
func (v *Verifier) URLNeverContains(ctx context.Context, page browser.Page, fragment string, window time.Duration) error {
	var observed string
	start := time.Now()
	_, err := wait.Poll(ctx, v.engine.Interval(), window, func() bool {
		observed = page.URL()
		return strings.Contains(observed, fragment)
	})
	if err == nil {
		return &AssertionFailure{
			Message:  "page URL",
			Expected: "no " + fragment,
			Observed: observed,
			Elapsed:  time.Since(start),
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Visible asserts that loc eventually has a visible match.
func (v *Verifier) Visible(ctx context.Context, page browser.Page, loc browser.Locator) error {
	return v.Eventually(ctx, 0, loc.String(), "visible", func(ctx context.Context) (string, bool, error) {
		elements, err := loc.Resolve(page)
		if err != nil {
			return "", false, err
		}
		_, ok := wait.Visible.Match(elements)
		if ok {
			return "visible", true, nil
		}
		return fmt.Sprintf("%d matches, none visible", len(elements)), false, nil
	})
}

// Gone asserts that loc eventually has no visible match.
func (v *Verifier) Gone(ctx context.Context, page browser.Page, loc browser.Locator) error {
	return v.Eventually(ctx, 0, loc.String(), "gone", func(ctx context.Context) (string, bool, error) {
		elements, err := loc.Resolve(page)
		if err != nil {
			return "", false, err
		}
		if _, ok := wait.Invisible.Match(elements); ok {
			return "gone", true, nil
		}
		return fmt.Sprintf("%d matches still visible", len(elements)), false, nil
	})
}

// Count asserts that loc eventually has at least n matches.
func (v *Verifier) Count(ctx context.Context, page browser.Page, loc browser.Locator, n int) error {
	return v.Eventually(ctx, 0, "matches of "+loc.String(), fmt.Sprintf("at least %d", n), func(ctx context.Context) (string, bool, error) {
		elements, err := loc.Resolve(page)
		if err != nil {
			return "", false, err
		}
		return strconv.Itoa(len(elements)), len(elements) >= n, nil
	})
}

// Diff returns a unified line diff between expected and observed, or "" if they are equal.
func Diff(expected, observed string) string {
	if expected == observed {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected + "\n"),
		B:        difflib.SplitLines(observed + "\n"),
		FromFile: "expected",
		ToFile:   "observed",
		Context:  1,
	})
	if err != nil {
		return ""
	}
	return diff
}
