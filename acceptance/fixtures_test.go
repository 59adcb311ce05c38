//go:build acceptance
// +build acceptance

package acceptance

import (
	"testing"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/surveyprobe/survey"
)

// TestFixtures bundles all commonly needed test fixtures.
type TestFixtures struct {
	App     *TestApp
	Harness *Harness
	PW      *PlaywrightFixture
	Ctx     playwright.BrowserContext
}

// WithTestFixtures creates all fixtures, registers cleanup with t.Cleanup(), and calls the test function.
// The test app accepts the built-in administrator credentials.
func WithTestFixtures(t *testing.T, fn func(t *testing.T, f *TestFixtures)) {
	t.Helper()

	cfg := loadConfig(t)
	defaults := survey.DefaultFixtures()
	app := NewTestApp(t, defaults.Values[survey.KeyAdminEmail], defaults.Values[survey.KeyAdminPassword])
	t.Cleanup(func() { app.Close() })

	harness := NewHarness(t, app, cfg)
	t.Cleanup(func() { harness.Close() })

	pw := NewPlaywrightFixture(t, cfg)
	t.Cleanup(func() { pw.Close() })

	ctx := pw.NewContext(t)
	t.Cleanup(func() { ctx.Close() })

	fn(t, &TestFixtures{
		App:     app,
		Harness: harness,
		PW:      pw,
		Ctx:     ctx,
	})
}
