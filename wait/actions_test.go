package wait_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/browser/browsertest"
	"github.com/networkteam/surveyprobe/collector"
	"github.com/networkteam/surveyprobe/wait"
)

func TestResilientClick_NativeClick(t *testing.T) {
	rec := &recorder{}
	engine := newEngine(rec)
	page := browsertest.NewPage()
	button := browsertest.NewElement("Submit")
	page.Set(submit.Selector(), button)

	err := engine.ResilientClick(context.Background(), page, submit)

	require.NoError(t, err)
	assert.Equal(t, 1, button.Clicks())
	assert.Equal(t, 0, button.Dispatches())
	require.Len(t, rec.clicks, 1)
	assert.Equal(t, collector.ClickNative, rec.clicks[0].Path)
}

func TestResilientClick_FallsBackWhenIntercepted(t *testing.T) {
	rec := &recorder{}
	engine := newEngine(rec)
	page := browsertest.NewPage()
	button := browsertest.NewElement("Submit")
	button.Obstructed = true
	activated := false
	button.OnClick = func() { activated = true }
	page.Set(submit.Selector(), button)

	err := engine.ResilientClick(context.Background(), page, submit)

	require.NoError(t, err)
	assert.True(t, activated, "element must be activated exactly once")
	assert.Equal(t, 0, button.Clicks())
	assert.Equal(t, 1, button.Dispatches())
	require.Len(t, rec.clicks, 1)
	assert.Equal(t, collector.ClickFallback, rec.clicks[0].Path)
	assert.NotEmpty(t, rec.clicks[0].Reason)
}

func TestResilientClick_LogsFailedScroll(t *testing.T) {
	var logs bytes.Buffer
	engine := wait.New(
		wait.WithTimeout(200*time.Millisecond),
		wait.WithInterval(5*time.Millisecond),
		wait.WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
	)
	page := browsertest.NewPage()
	button := browsertest.NewElement("Submit")
	button.ScrollErr = errors.New("element is outside of the viewport")
	page.Set(submit.Selector(), button)

	err := engine.ResilientClick(context.Background(), page, submit)

	require.NoError(t, err)
	assert.Equal(t, 1, button.Clicks())
	assert.Contains(t, logs.String(), "Scroll into view failed")
	assert.Contains(t, logs.String(), "element is outside of the viewport")
}

func TestResilientClick_BothPathsFail(t *testing.T) {
	rec := &recorder{}
	engine := newEngine(rec)
	page := browsertest.NewPage()
	button := browsertest.NewElement("Submit")
	button.Obstructed = true
	button.DispatchErr = errors.New("script blocked")
	page.Set(submit.Selector(), button)

	err := engine.ResilientClick(context.Background(), page, submit)

	var interactionErr *wait.InteractionError
	require.ErrorAs(t, err, &interactionErr)
	assert.Equal(t, "click", interactionErr.Action)
	assert.ErrorIs(t, err, browser.ErrClickIntercepted)
	assert.Equal(t, collector.ClickFailed, rec.clicks[0].Path)
}

func TestResilientClick_AbsentTargetTimesOut(t *testing.T) {
	rec := &recorder{}
	engine := newEngine(rec)

	err := engine.ResilientClick(context.Background(), browsertest.NewPage(), submit)

	var timeoutErr *wait.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Empty(t, rec.clicks, "an absent target is never clicked")
}

func TestResilientClick_DetachedElementIsResolvedAgain(t *testing.T) {
	engine := newEngine(&recorder{})
	page := browsertest.NewPage()
	stale := browsertest.NewElement("Submit")
	fresh := browsertest.NewElement("Submit")
	stale.ClickErr = browser.ErrDetached
	// The list re-renders between resolving and clicking
	stale.BeforeClick = func() { page.Set(submit.Selector(), fresh) }
	page.Set(submit.Selector(), stale)

	err := engine.ResilientClick(context.Background(), page, submit)

	require.NoError(t, err)
	assert.Equal(t, 0, stale.Clicks())
	assert.Equal(t, 1, fresh.Clicks())
}

func TestTypeInto(t *testing.T) {
	engine := newEngine(&recorder{})
	page := browsertest.NewPage()
	field := browsertest.NewElement("")
	page.Set(browser.Name("email").Selector(), field)

	err := engine.TypeInto(context.Background(), page, browser.Name("email"), "oumaima@gmail.com")

	require.NoError(t, err)
	assert.Equal(t, "oumaima@gmail.com", field.Value())
}

func TestTypeInto_FailureIsInteractionError(t *testing.T) {
	engine := newEngine(&recorder{})
	page := browsertest.NewPage()
	field := browsertest.NewElement("")
	field.SetEnabled(false)
	page.Set(browser.Name("email").Selector(), field)

	err := engine.TypeInto(context.Background(), page, browser.Name("email"), "x")

	var interactionErr *wait.InteractionError
	require.ErrorAs(t, err, &interactionErr)
	assert.Equal(t, "type", interactionErr.Action)
}

func TestKeys_SegmentedInput(t *testing.T) {
	engine := newEngine(&recorder{})
	page := browsertest.NewPage()
	deadline := browsertest.NewElement("")
	page.Set(browser.ID("deadline").Selector(), deadline)

	err := engine.Keys(context.Background(), page, browser.ID("deadline"),
		wait.Keystroke{Text: "23102025"},
		wait.Keystroke{Key: "ArrowRight"},
		wait.Keystroke{Text: "0209"},
	)

	require.NoError(t, err)
	assert.Equal(t, []string{"23102025", "ArrowRight", "0209"}, deadline.Keys())
}

func TestTextAndAttribute(t *testing.T) {
	engine := newEngine(&recorder{})
	page := browsertest.NewPage()
	lock := browsertest.NewElement("").WithAttr("title", "Survey is locked")
	heading := browsertest.NewElement("Dashboard")
	page.Set(browser.CSS("button.lock").Selector(), lock)
	page.Set(browser.Tag("h1").Selector(), heading)

	title, err := engine.Attribute(context.Background(), page, browser.CSS("button.lock"), "title")
	require.NoError(t, err)
	assert.Equal(t, "Survey is locked", title)

	text, err := engine.Text(context.Background(), page, browser.Tag("h1"))
	require.NoError(t, err)
	assert.Equal(t, "Dashboard", text)
}
