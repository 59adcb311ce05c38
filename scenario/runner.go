package scenario

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofrs/uuid"

	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/collector"
	"github.com/networkteam/surveyprobe/modal"
	"github.com/networkteam/surveyprobe/verify"
	"github.com/networkteam/surveyprobe/wait"
)

// Observer receives scenario lifecycle notifications.
type Observer interface {
	// ScenarioStarted returns the context used for the scenario.
	ScenarioStarted(ctx context.Context, s Scenario) context.Context
	ScenarioFinished(ctx context.Context, s Scenario, outcome Outcome)
	Step(ctx context.Context, evt collector.StepEvent)
}

type nopObserver struct{}

func (nopObserver) ScenarioStarted(ctx context.Context, _ Scenario) context.Context { return ctx }
func (nopObserver) ScenarioFinished(context.Context, Scenario, Outcome)              {}
func (nopObserver) Step(context.Context, collector.StepEvent)                        {}

// Runner executes scenarios sequentially, each in its own browser session.
type Runner struct {
	registry      *Registry
	sessions      *browser.Manager
	sessionConfig browser.Config
	engine        *wait.Engine
	fixtures      Fixtures
	baseURL       string
	observer      Observer
	logger        *slog.Logger
}

type RunnerOption func(*Runner)

func WithObserver(o Observer) RunnerOption {
	return func(r *Runner) {
		r.observer = o
	}
}

func WithSessionConfig(cfg browser.Config) RunnerOption {
	return func(r *Runner) {
		r.sessionConfig = cfg
	}
}

func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

func NewRunner(registry *Registry, sessions *browser.Manager, engine *wait.Engine, fixtures Fixtures, baseURL string, options ...RunnerOption) *Runner {
	r := &Runner{
		registry:      registry,
		sessions:      sessions,
		sessionConfig: browser.DefaultConfig(),
		engine:        engine,
		fixtures:      fixtures,
		baseURL:       baseURL,
		observer:      nopObserver{},
		logger:        slog.Default(),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// RunOptions select what to run.
type RunOptions struct {
	// Only restricts the run to the named scenarios, in plan order.
	Only []string
	// RunID identifies the run in telemetry, generated if nil.
	RunID uuid.UUID
}

// RunAll plans and executes scenarios. It returns an error only if the plan
// cannot be built; scenario failures are reported in the Report.
// A setup failure aborts the run and marks the remaining scenarios skipped.
func (r *Runner) RunAll(ctx context.Context, opts RunOptions) (*Report, error) {
	plan, err := r.registry.Plan(r.fixtures.Preexisting...)
	if err != nil {
		return nil, err
	}
	selected, err := Select(plan, opts.Only)
	if err != nil {
		return nil, err
	}

	runID := opts.RunID
	if runID == uuid.Nil {
		runID = uuid.Must(uuid.NewV7())
	}
	ctx = collector.WithRunID(ctx, runID)

	state := r.fixtures.NewState()
	report := &Report{RunID: runID, Started: time.Now()}
	r.logger.InfoContext(ctx, "Starting run", "run", runID, "scenarios", len(selected))

	for i, s := range selected {
		if report.Aborted {
			report.Outcomes = append(report.Outcomes, skipped(s))
			continue
		}
		if ctx.Err() != nil {
			report.Aborted = true
			report.Outcomes = append(report.Outcomes, skipped(s))
			continue
		}

		outcome := r.run(ctx, s, state)
		report.Outcomes = append(report.Outcomes, outcome)

		if outcome.Kind == KindSetup {
			r.logger.ErrorContext(ctx, "Aborting run after setup failure", "scenario", s.Name, "error", outcome.Err, "remaining", len(selected)-i-1)
			report.Aborted = true
		}
	}

	report.Finished = time.Now()
	r.logger.InfoContext(ctx, "Run finished", "run", runID, "passed", report.Count(collector.ScenarioPassed),
		"failed", report.Count(collector.ScenarioFailed), "skipped", report.Count(collector.ScenarioSkipped))
	return report, nil
}

func (r *Runner) run(ctx context.Context, s Scenario, state *State) Outcome {
	logger := r.logger.With("scenario", s.Name)
	ctx = r.observer.ScenarioStarted(ctx, s)

	if missing := state.Missing(s.Requires); len(missing) > 0 {
		logger.WarnContext(ctx, "Required fixtures not produced in this run, relying on existing application state", "missing", missing)
	}

	start := time.Now()
	var env *Env
	err := r.sessions.WithSession(ctx, r.sessionConfig, func(ctx context.Context, sess *browser.Session) error {
		env = &Env{
			Page:              sess.Page(),
			Wait:              r.engine,
			Modals:            modal.NewTracker(r.engine),
			Verify:            verify.New(r.engine),
			State:             state,
			BaseURL:           r.baseURL,
			Logger:            logger,
			StrictPermissions: r.fixtures.StrictPermissions,
			observer:          r.observer,
		}
		logger.InfoContext(ctx, "Running scenario", "order", s.Order)
		return s.Run(ctx, env)
	})

	outcome := Outcome{
		Order:    s.Order,
		Name:     s.Name,
		Status:   collector.ScenarioPassed,
		Err:      err,
		Kind:     Classify(err),
		Duration: time.Since(start),
	}
	if env != nil {
		outcome.Warnings = env.Warnings()
	}
	var failure *verify.AssertionFailure
	if errors.As(err, &failure) {
		outcome.Diff = failure.Diff
	}

	if err != nil {
		outcome.Status = collector.ScenarioFailed
		logger.ErrorContext(ctx, "Scenario failed", "kind", outcome.Kind, "error", err, "duration", outcome.Duration)
	} else {
		state.Establish(s.Produces...)
		state.Prune(s.Removes...)
		logger.InfoContext(ctx, "Scenario passed", "duration", outcome.Duration)
	}

	r.observer.ScenarioFinished(ctx, s, outcome)
	return outcome
}

func skipped(s Scenario) Outcome {
	return Outcome{
		Order:  s.Order,
		Name:   s.Name,
		Status: collector.ScenarioSkipped,
	}
}
