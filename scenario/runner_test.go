package scenario_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/browser/browsertest"
	"github.com/networkteam/surveyprobe/collector"
	"github.com/networkteam/surveyprobe/scenario"
	"github.com/networkteam/surveyprobe/verify"
	"github.com/networkteam/surveyprobe/wait"
)

type observer struct {
	started  []string
	finished []scenario.Outcome
	steps    []collector.StepEvent
	mu       sync.Mutex
}

func (o *observer) ScenarioStarted(ctx context.Context, s scenario.Scenario) context.Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, s.Name)
	return ctx
}

func (o *observer) ScenarioFinished(_ context.Context, _ scenario.Scenario, outcome scenario.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, outcome)
}

func (o *observer) Step(_ context.Context, evt collector.StepEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps = append(o.steps, evt)
}

func newRunner(t *testing.T, registry *scenario.Registry, launcher *browsertest.Launcher, obs scenario.Observer, fixtures scenario.Fixtures) *scenario.Runner {
	t.Helper()
	cfg := browser.DefaultConfig()
	cfg.ProfileRoot = t.TempDir()
	engine := wait.New(wait.WithTimeout(50*time.Millisecond), wait.WithInterval(5*time.Millisecond))
	return scenario.NewRunner(registry, browser.NewManager(launcher), engine, fixtures, "http://localhost:3000/",
		scenario.WithObserver(obs),
		scenario.WithSessionConfig(cfg),
	)
}

func TestRunner_ContinuesAfterFailureAndClassifies(t *testing.T) {
	registry := scenario.NewRegistry()
	registry.MustRegister(scenario.Scenario{Order: 1, Name: "signup", Produces: []scenario.Key{"org"}, Run: func(ctx context.Context, env *scenario.Env) error {
		return env.Step(ctx, "open signup", func(ctx context.Context) error {
			return env.Wait.Navigate(ctx, env.Page, env.URL("/signup"))
		})
	}})
	registry.MustRegister(scenario.Scenario{Order: 2, Name: "login-wrong", Run: func(ctx context.Context, env *scenario.Env) error {
		return env.Verify.TextContains(ctx, env.Page, browser.CSS("div.text-red-700"), "Invalid")
	}})
	registry.MustRegister(scenario.Scenario{Order: 3, Name: "create-role", Requires: []scenario.Key{"org"}, Run: func(ctx context.Context, env *scenario.Env) error {
		return env.Wait.ResilientClick(ctx, env.Page, browser.XPath("//button[text()='Add Role']"))
	}})
	registry.MustRegister(scenario.Scenario{Order: 4, Name: "last", Run: noop})

	launcher := &browsertest.Launcher{}
	obs := &observer{}
	report, err := newRunner(t, registry, launcher, obs, scenario.Fixtures{}).RunAll(context.Background(), scenario.RunOptions{})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 4)
	assert.Equal(t, collector.ScenarioPassed, report.Outcomes[0].Status)
	assert.Equal(t, scenario.KindAssertion, report.Outcomes[1].Kind)
	assert.NotEmpty(t, report.Outcomes[1].Diff)
	assert.Equal(t, scenario.KindTimeout, report.Outcomes[2].Kind)
	assert.Equal(t, collector.ScenarioPassed, report.Outcomes[3].Status, "run continues after failures")
	assert.True(t, report.Failed())
	assert.False(t, report.Aborted)

	assert.Equal(t, []string{"signup", "login-wrong", "create-role", "last"}, obs.started)
	require.Len(t, obs.steps, 1)
	assert.Equal(t, "open signup", obs.steps[0].Name)

	// One isolated browser per scenario, all released
	browsers := launcher.Browsers()
	require.Len(t, browsers, 4)
	for _, b := range browsers {
		assert.Equal(t, 1, b.Closes())
	}
	assert.Equal(t, "http://localhost:3000/signup", browsers[0].FakePage().URL())
}

func TestRunner_SetupFailureAbortsRun(t *testing.T) {
	registry := scenario.NewRegistry()
	registry.MustRegister(scenario.Scenario{Order: 1, Name: "a", Run: noop})
	registry.MustRegister(scenario.Scenario{Order: 2, Name: "b", Run: noop})

	launcher := &browsertest.Launcher{Err: errors.New("no chromium")}
	report, err := newRunner(t, registry, launcher, &observer{}, scenario.Fixtures{}).RunAll(context.Background(), scenario.RunOptions{})
	require.NoError(t, err)

	assert.True(t, report.Aborted)
	assert.True(t, report.SetupFailed())
	assert.Equal(t, scenario.KindSetup, report.Outcomes[0].Kind)
	assert.Equal(t, collector.ScenarioSkipped, report.Outcomes[1].Status)
	assert.Len(t, launcher.Launches(), 1, "no further sessions after a setup failure")
}

func TestRunner_StateFlowsBetweenScenarios(t *testing.T) {
	var seenCode string
	var removedVisible bool
	registry := scenario.NewRegistry()
	registry.MustRegister(scenario.Scenario{Order: 1, Name: "read-invite", Produces: []scenario.Key{"org"}, Run: func(ctx context.Context, env *scenario.Env) error {
		env.State.Set("inviteCode", "XYZ")
		return nil
	}})
	registry.MustRegister(scenario.Scenario{Order: 2, Name: "delete-survey", Requires: []scenario.Key{"org"}, Produces: []scenario.Key{"survey"}, Removes: []scenario.Key{"survey"}, Run: noop})
	registry.MustRegister(scenario.Scenario{Order: 3, Name: "join", Requires: []scenario.Key{"org"}, Run: func(ctx context.Context, env *scenario.Env) error {
		seenCode = env.State.Value("inviteCode")
		_, removedVisible = env.State.Lookup("survey")
		return nil
	}})

	fixtures := scenario.Fixtures{Values: map[scenario.Key]string{"survey": "Sondage Full Flow"}}
	report, err := newRunner(t, registry, &browsertest.Launcher{}, &observer{}, fixtures).RunAll(context.Background(), scenario.RunOptions{})
	require.NoError(t, err)

	assert.False(t, report.Failed())
	assert.Equal(t, "XYZ", seenCode)
	assert.False(t, removedVisible, "deleted fixtures are pruned")
}

func TestRunner_FailedProducerDoesNotEstablish(t *testing.T) {
	var established bool
	registry := scenario.NewRegistry()
	registry.MustRegister(scenario.Scenario{Order: 1, Name: "create-role", Produces: []scenario.Key{"role"}, Run: func(context.Context, *scenario.Env) error {
		return errors.New("boom")
	}})
	registry.MustRegister(scenario.Scenario{Order: 2, Name: "assign-role", Requires: []scenario.Key{"role"}, Run: func(ctx context.Context, env *scenario.Env) error {
		established = env.State.Established("role")
		return nil
	}})

	report, err := newRunner(t, registry, &browsertest.Launcher{}, &observer{}, scenario.Fixtures{}).RunAll(context.Background(), scenario.RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, scenario.KindError, report.Outcomes[0].Kind)
	assert.False(t, established)
}

func TestRunner_OnlySubset(t *testing.T) {
	registry := scenario.NewRegistry()
	registry.MustRegister(scenario.Scenario{Order: 1, Name: "a", Produces: []scenario.Key{"x"}, Run: noop})
	registry.MustRegister(scenario.Scenario{Order: 2, Name: "b", Requires: []scenario.Key{"x"}, Run: noop})

	launcher := &browsertest.Launcher{}
	obs := &observer{}
	runner := newRunner(t, registry, launcher, obs, scenario.Fixtures{})

	report, err := runner.RunAll(context.Background(), scenario.RunOptions{Only: []string{"b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, obs.started)
	assert.False(t, report.Failed())

	_, err = runner.RunAll(context.Background(), scenario.RunOptions{Only: []string{"zzz"}})
	assert.ErrorIs(t, err, scenario.ErrUnknown)
}

func TestRunner_WarningsAreReported(t *testing.T) {
	registry := scenario.NewRegistry()
	registry.MustRegister(scenario.Scenario{Order: 1, Name: "role", Run: func(ctx context.Context, env *scenario.Env) error {
		env.Warn(ctx, "permissions", "permission TEAM_READ not offered")
		return nil
	}})

	obs := &observer{}
	report, err := newRunner(t, registry, &browsertest.Launcher{}, obs, scenario.Fixtures{}).RunAll(context.Background(), scenario.RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"permission TEAM_READ not offered"}, report.Outcomes[0].Warnings)
	require.Len(t, obs.steps, 1)
	assert.Equal(t, []string{"permission TEAM_READ not offered"}, obs.steps[0].Warnings)
}

func TestRunner_CancellationSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	registry := scenario.NewRegistry()
	registry.MustRegister(scenario.Scenario{Order: 1, Name: "a", Run: func(context.Context, *scenario.Env) error {
		cancel()
		return nil
	}})
	registry.MustRegister(scenario.Scenario{Order: 2, Name: "b", Run: noop})

	report, err := newRunner(t, registry, &browsertest.Launcher{}, &observer{}, scenario.Fixtures{}).RunAll(ctx, scenario.RunOptions{})
	require.NoError(t, err)

	assert.True(t, report.Aborted)
	assert.Equal(t, collector.ScenarioSkipped, report.Outcomes[1].Status)
}

func TestReport_RenderAndJSON(t *testing.T) {
	report := &scenario.Report{
		Started:  time.Now().Add(-time.Second),
		Finished: time.Now(),
		Outcomes: []scenario.Outcome{
			{Order: 1, Name: "signup", Status: collector.ScenarioPassed, Duration: time.Second},
			{Order: 2, Name: "login-wrong", Status: collector.ScenarioFailed, Kind: scenario.KindAssertion,
				Err: &verify.AssertionFailure{Message: "text", Expected: "a", Observed: "b"}, Diff: "-a\n+b\n"},
		},
	}

	var table bytes.Buffer
	require.NoError(t, report.Render(&table))
	assert.Contains(t, table.String(), "login-wrong")
	assert.Contains(t, table.String(), "1 passed, 1 failed, 0 skipped")

	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf))
	var doc struct {
		Outcomes []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
			Kind   string `json:"kind"`
			Error  string `json:"error"`
		} `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Outcomes, 2)
	assert.Equal(t, "failed", doc.Outcomes[1].Status)
	assert.Equal(t, "assertion", doc.Outcomes[1].Kind)
	assert.NotEmpty(t, doc.Outcomes[1].Error)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, scenario.KindNone, scenario.Classify(nil))
	assert.Equal(t, scenario.KindSetup, scenario.Classify(&browser.SetupError{Op: "launch", Err: errors.New("x")}))
	assert.Equal(t, scenario.KindInteraction, scenario.Classify(&wait.InteractionError{Action: "click", Err: errors.New("x")}))
	assert.Equal(t, scenario.KindCanceled, scenario.Classify(context.Canceled))
	assert.Equal(t, scenario.KindError, scenario.Classify(errors.New("x")))
}
