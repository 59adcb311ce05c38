package surveyprobe

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/networkteam/surveyprobe/collector"
	"github.com/networkteam/surveyprobe/scenario"
	"github.com/networkteam/surveyprobe/wait"
)

const metricsNamespace = "surveyprobe"

// Telemetry turns harness notifications into collector events and metrics.
// It is both the wait engine's Recorder and the runner's Observer.
type Telemetry struct {
	aggregator *collector.EventAggregator
	logger     *slog.Logger

	clicks    *prometheus.CounterVec
	waits     *prometheus.HistogramVec
	scenarios *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	warnings  prometheus.Counter
}

func newTelemetry(aggregator *collector.EventAggregator, registerer prometheus.Registerer, logger *slog.Logger) *Telemetry {
	factory := promauto.With(registerer)
	return &Telemetry{
		aggregator: aggregator,
		logger:     logger,

		clicks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "clicks_total",
			Help:      "Clicks issued by scenarios by the path that reached the target.",
		}, []string{"path"}),
		waits: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "wait_duration_seconds",
			Help:      "Time spent waiting for locator conditions.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"condition", "outcome"}),
		scenarios: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "scenarios_total",
			Help:      "Finished scenarios by status and failure kind.",
		}, []string{"status", "kind"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "scenario_duration_seconds",
			Help:      "Wall time of a scenario including browser start and release.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}, []string{"scenario"}),
		warnings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "warnings_total",
			Help:      "Recoverable anomalies reported by scenario steps.",
		}),
	}
}

var (
	_ wait.Recorder     = (*Telemetry)(nil)
	_ scenario.Observer = (*Telemetry)(nil)
)

func (t *Telemetry) RecordWait(ctx context.Context, evt collector.WaitEvent) {
	t.waits.WithLabelValues(evt.Condition, string(evt.Outcome)).Observe(evt.Elapsed.Seconds())
	t.aggregator.CollectEvent(ctx, evt)
}

func (t *Telemetry) RecordClick(ctx context.Context, evt collector.ClickEvent) {
	t.clicks.WithLabelValues(string(evt.Path)).Inc()
	if evt.Path == collector.ClickFallback {
		t.logger.DebugContext(ctx, "Click fell back to script dispatch", "locator", evt.Locator, "reason", evt.Reason)
	}
	t.aggregator.CollectEvent(ctx, evt)
}

// ScenarioStarted opens an event group that collects everything the scenario emits.
func (t *Telemetry) ScenarioStarted(ctx context.Context, _ scenario.Scenario) context.Context {
	return t.aggregator.StartEvent(ctx)
}

func (t *Telemetry) ScenarioFinished(ctx context.Context, s scenario.Scenario, outcome scenario.Outcome) {
	t.scenarios.WithLabelValues(string(outcome.Status), string(outcome.Kind)).Inc()
	t.duration.WithLabelValues(s.Name).Observe(outcome.Duration.Seconds())

	evt := collector.ScenarioEvent{
		Order:     s.Order,
		Name:      s.Name,
		Status:    outcome.Status,
		ErrorKind: string(outcome.Kind),
		Diff:      outcome.Diff,
	}
	if outcome.Err != nil {
		evt.Error = outcome.Err.Error()
	}
	t.aggregator.EndEvent(ctx, evt)
}

func (t *Telemetry) Step(ctx context.Context, evt collector.StepEvent) {
	if len(evt.Warnings) > 0 {
		t.warnings.Add(float64(len(evt.Warnings)))
	}
	t.aggregator.CollectEvent(ctx, evt)
}
