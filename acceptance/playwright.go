//go:build acceptance
// +build acceptance

package acceptance

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/surveyprobe/config"
)

// loadConfig reads HEADLESS, SLOW_MO and WAIT_TIMEOUT the same way the CLI does.
// Set HEADLESS=false to watch the dashboard and scenario browsers.
func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("", nil)
	require.NoError(t, err, "failed to load configuration")
	return cfg
}

// PlaywrightFixture drives the Chromium instance that inspects the dashboard.
// Scenario runs launch their own browsers through the harness.
type PlaywrightFixture struct {
	PW      *playwright.Playwright
	Browser playwright.Browser

	cfg *config.Config
}

func NewPlaywrightFixture(t *testing.T, cfg *config.Config) *PlaywrightFixture {
	t.Helper()

	pw, err := playwright.Run()
	require.NoError(t, err, "failed to start playwright")

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		SlowMo:   playwright.Float(float64(cfg.SlowMo.Milliseconds())),
	})
	require.NoError(t, err, "failed to launch browser")

	return &PlaywrightFixture{PW: pw, Browser: browser, cfg: cfg}
}

// NewContext opens a desktop-sized context whose locator waits share the harness wait timeout.
func (pf *PlaywrightFixture) NewContext(t *testing.T) playwright.BrowserContext {
	t.Helper()
	ctx, err := pf.Browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: 1280, Height: 900},
	})
	require.NoError(t, err, "failed to create browser context")
	ctx.SetDefaultTimeout(float64(pf.cfg.WaitTimeout.Milliseconds()))
	return ctx
}

func (pf *PlaywrightFixture) Close() {
	pf.Browser.Close()
	pf.PW.Stop()
}
