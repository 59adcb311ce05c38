package surveyprobe_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/surveyprobe"
	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/browser/browsertest"
	"github.com/networkteam/surveyprobe/collector"
	"github.com/networkteam/surveyprobe/scenario"
	"github.com/networkteam/surveyprobe/wait"
)

func TestInstance_RecordsRun(t *testing.T) {
	probe := surveyprobe.New()
	defer probe.Close()

	logger := slog.New(probe.CollectSlogLogs(collector.CollectSlogLogsOptions{Level: slog.LevelInfo}))

	launcher := &browsertest.Launcher{NewPage: func() *browsertest.Page {
		page := browsertest.NewPage()
		button := browsertest.NewElement("Sign In")
		button.Obstructed = true
		page.Set("xpath=//button[text()='Sign In']", button)
		return page
	}}

	registry := scenario.NewRegistry()
	registry.MustRegister(scenario.Scenario{Order: 1, Name: "login", Run: func(ctx context.Context, env *scenario.Env) error {
		return env.Step(ctx, "sign in", func(ctx context.Context) error {
			return env.Wait.ResilientClick(ctx, env.Page, browser.XPath("//button[text()='Sign In']"))
		})
	}})
	registry.MustRegister(scenario.Scenario{Order: 2, Name: "dashboard", Run: func(ctx context.Context, env *scenario.Env) error {
		return env.Verify.URLContains(ctx, env.Page, "/dashboard")
	}})

	cfg := browser.DefaultConfig()
	cfg.ProfileRoot = t.TempDir()
	engine := wait.New(
		wait.WithTimeout(50*time.Millisecond),
		wait.WithInterval(5*time.Millisecond),
		wait.WithRecorder(probe.Telemetry()),
	)
	runner := scenario.NewRunner(registry, browser.NewManager(launcher), engine, scenario.Fixtures{}, "http://localhost:3000/",
		scenario.WithObserver(probe.Telemetry()),
		scenario.WithSessionConfig(cfg),
		scenario.WithLogger(logger),
	)

	report, err := runner.RunAll(context.Background(), scenario.RunOptions{})
	require.NoError(t, err)
	require.True(t, report.Failed())

	var (
		groups    []*collector.Event
		scenarios []collector.ScenarioEvent
	)
	for _, evt := range probe.Events().GetEvents(100) {
		if data, ok := evt.Data.(collector.ScenarioEvent); ok {
			groups = append(groups, evt)
			scenarios = append(scenarios, data)
		}
	}
	require.Len(t, scenarios, 2)
	assert.Equal(t, collector.ScenarioPassed, scenarios[0].Status)
	assert.Equal(t, collector.ScenarioFailed, scenarios[1].Status)
	assert.Equal(t, string(scenario.KindAssertion), scenarios[1].ErrorKind)
	assert.NotEmpty(t, scenarios[1].Diff)

	login := groups[0]
	assert.Equal(t, 1, login.Count(func(data any) bool {
		click, ok := data.(collector.ClickEvent)
		return ok && click.Path == collector.ClickFallback
	}))
	assert.Equal(t, 1, login.Count(func(data any) bool {
		_, ok := data.(collector.StepEvent)
		return ok
	}))
	assert.Positive(t, login.Count(func(data any) bool {
		_, ok := data.(slog.Record)
		return ok
	}), "logs are grouped under the scenario")

	err = testutil.GatherAndCompare(probe.Gatherer(), strings.NewReader(`
# HELP surveyprobe_clicks_total Clicks issued by scenarios by the path that reached the target.
# TYPE surveyprobe_clicks_total counter
surveyprobe_clicks_total{path="fallback"} 1
`), "surveyprobe_clicks_total")
	assert.NoError(t, err)

	count, err := testutil.GatherAndCount(probe.Gatherer(), "surveyprobe_scenarios_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per status and kind")
}

func TestInstance_ProbeClient(t *testing.T) {
	probe := surveyprobe.New()
	defer probe.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := collector.Preflight(context.Background(), probe.ProbeClient(time.Second), server.URL)
	require.NoError(t, err)

	events := probe.Events().GetEvents(10)
	require.Len(t, events, 1)
	probeEvent, ok := events[0].Data.(collector.ProbeEvent)
	require.True(t, ok)
	assert.Equal(t, http.MethodGet, probeEvent.Method)
	assert.Equal(t, http.StatusOK, probeEvent.StatusCode)
}

func TestInstance_MetricsHandler(t *testing.T) {
	probe := surveyprobe.New()
	defer probe.Close()

	rec := httptest.NewRecorder()
	probe.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
