//go:build acceptance
// +build acceptance

package acceptance

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/networkteam/surveyprobe"
	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/collector"
	"github.com/networkteam/surveyprobe/config"
	"github.com/networkteam/surveyprobe/scenario"
	"github.com/networkteam/surveyprobe/survey"
	"github.com/networkteam/surveyprobe/wait"
)

const loginPage = `<!DOCTYPE html>
<html><body>
<form id="login">
  <input name="email" type="email">
  <input name="password" type="password">
  <button type="submit">Sign In</button>
</form>
<div id="error"></div>
%s
<script>
  const form = document.getElementById('login');
  form.addEventListener('submit', async (e) => {
    e.preventDefault();
    const resp = await fetch('/api/login', {method: 'POST', body: new URLSearchParams(new FormData(form))});
    if (resp.ok) {
      window.location.href = '/dashboard';
    } else {
      document.getElementById('error').innerHTML = '<div class="text-red-700">Invalid email or password</div>';
    }
  });
</script>
</body></html>`

// A banner covering the sign in button intercepts native clicks.
const obstructingBanner = `<div style="position:fixed;inset:0;background:transparent;z-index:10"></div>`

// TestApp is a minimal stand-in for the survey application's login flow.
type TestApp struct {
	Server *httptest.Server
	URL    string

	// Obstructed covers the login form with a banner.
	Obstructed bool
}

func NewTestApp(t *testing.T, email, password string) *TestApp {
	t.Helper()

	app := &TestApp{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		banner := ""
		if app.Obstructed {
			banner = obstructingBanner
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, loginPage, banner)
	})
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("email") != email || r.FormValue("password") != password {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /dashboard", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, `<!DOCTYPE html><html><body><h1>Dashboard</h1></body></html>`)
	})

	app.Server = httptest.NewServer(mux)
	app.URL = app.Server.URL
	return app
}

func (a *TestApp) Close() {
	a.Server.Close()
}

// Harness runs scenarios with a real Chromium and serves the dashboard of the collected events.
type Harness struct {
	Probe        *surveyprobe.Instance
	DashboardURL string

	app      *TestApp
	cfg      *config.Config
	launcher *browser.PlaywrightLauncher
	server   *httptest.Server
	logger   *slog.Logger
}

func NewHarness(t *testing.T, app *TestApp, cfg *config.Config) *Harness {
	t.Helper()

	probe := surveyprobe.New()
	logger := slog.New(probe.CollectSlogLogs(collector.CollectSlogLogsOptions{Level: slog.LevelDebug}))

	mux := http.NewServeMux()
	mux.Handle("/metrics", probe.MetricsHandler())
	mux.Handle("/_surveyprobe/", http.StripPrefix("/_surveyprobe", probe.DashboardHandler("/_surveyprobe")))
	server := httptest.NewServer(mux)

	return &Harness{
		Probe:        probe,
		DashboardURL: server.URL + "/_surveyprobe/",
		app:          app,
		cfg:          cfg,
		launcher:     &browser.PlaywrightLauncher{},
		server:       server,
		logger:       logger,
	}
}

// Run executes the named catalog scenarios against the test app.
func (h *Harness) Run(t *testing.T, fixtures scenario.Fixtures, only ...string) *scenario.Report {
	t.Helper()

	registry := scenario.NewRegistry()
	require.NoError(t, survey.Register(registry))

	engine := wait.New(
		wait.WithTimeout(5*time.Second),
		wait.WithClickTimeout(500*time.Millisecond),
		wait.WithRecorder(h.Probe.Telemetry()),
		wait.WithLogger(h.logger),
	)
	cfg := browser.DefaultConfig()
	cfg.Headless = h.cfg.Headless
	cfg.SlowMo = h.cfg.SlowMo
	cfg.ProfileRoot = t.TempDir()

	runner := scenario.NewRunner(registry, browser.NewManager(h.launcher, browser.WithLogger(h.logger)), engine, fixtures, h.app.URL,
		scenario.WithObserver(h.Probe.Telemetry()),
		scenario.WithSessionConfig(cfg),
		scenario.WithLogger(h.logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	report, err := runner.RunAll(ctx, scenario.RunOptions{Only: only})
	require.NoError(t, err)
	return report
}

func (h *Harness) Close() {
	h.server.Close()
	h.Probe.Close()
	h.launcher.Close()
}

// loginFixtures are the built-in fixtures with the administrator treated as signed up.
func loginFixtures() scenario.Fixtures {
	return survey.DefaultFixtures().Merge(scenario.Fixtures{
		Preexisting: []scenario.Key{survey.KeyOrgName, survey.KeyAdminEmail},
	})
}
