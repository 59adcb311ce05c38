// Package surveyprobe wires the harness telemetry: collected events, metrics
// and the live dashboard.
package surveyprobe

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/networkteam/surveyprobe/collector"
	"github.com/networkteam/surveyprobe/dashboard"
)

type Instance struct {
	eventAggregator *collector.EventAggregator
	eventStorage    *collector.CaptureStorage
	logCollector    *collector.LogCollector
	telemetry       *Telemetry
	registry        *prometheus.Registry

	dashboardHandler *dashboard.Handler
}

func (i *Instance) Close() {
	i.logCollector.Close()
	if i.dashboardHandler != nil {
		i.dashboardHandler.Close()
	}
	i.eventAggregator.Close()
}

type Options struct {
	// EventCapacity is the maximum number of top-level events (scenarios, preflight probes) to keep.
	// Default: 1000
	EventCapacity uint64
	// LogCapacity is the maximum number of log entries to keep.
	// Default: 1000
	LogCapacity uint64
	// LogOptions are the options for the log collector.
	// Default: nil, will forward logs to the event aggregator
	LogOptions *collector.LogOptions
	// Logger is used for telemetry diagnostics.
	// Default: slog.Default()
	Logger *slog.Logger
}

// New creates a new instance with default options.
func New() *Instance {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a new instance with the specified options.
// Default options are the zero value of Options.
//
// All events are captured regardless of run, so the dashboard shows every run
// of the process.
func NewWithOptions(options Options) *Instance {
	if options.EventCapacity == 0 {
		options.EventCapacity = 1000
	}
	if options.LogCapacity == 0 {
		options.LogCapacity = 1000
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	eventAggregator := collector.NewEventAggregator()
	eventStorage := collector.NewCaptureStorage(uuid.Nil, options.EventCapacity, collector.CaptureModeAll)
	eventAggregator.RegisterStorage(eventStorage)

	logOptions := collector.LogOptions{}
	if options.LogOptions != nil {
		logOptions = *options.LogOptions
	}
	logOptions.Aggregator = eventAggregator

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	return &Instance{
		eventAggregator: eventAggregator,
		eventStorage:    eventStorage,
		logCollector:    collector.NewLogCollectorWithOptions(options.LogCapacity, logOptions),
		telemetry:       newTelemetry(eventAggregator, registry, logger),
		registry:        registry,
	}
}

// Telemetry is passed to the wait engine as Recorder and to the runner as Observer.
func (i *Instance) Telemetry() *Telemetry {
	return i.telemetry
}

// Events returns the storage holding all collected events.
func (i *Instance) Events() collector.EventStorage {
	return i.eventStorage
}

// CollectSlogLogs returns a slog.Handler that collects logs into the event stream.
//
// You can use this handler with slog.New(slogmulti.Fanout(...)) to collect logs in addition to another slog handler.
func (i *Instance) CollectSlogLogs(options collector.CollectSlogLogsOptions) slog.Handler {
	return collector.NewSlogLogCollectorHandler(i.logCollector, options)
}

// ProbeClient returns an HTTP client whose requests are recorded as probe events.
func (i *Instance) ProbeClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: collector.ProbeTransport(http.DefaultTransport, i.eventAggregator),
		Timeout:   timeout,
	}
}

// MetricsHandler serves the harness metrics in the Prometheus exposition format.
func (i *Instance) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(i.registry, promhttp.HandlerOpts{Registry: i.registry})
}

// Gatherer exposes the metrics registry, e.g. for tests.
func (i *Instance) Gatherer() prometheus.Gatherer {
	return i.registry
}

func (i *Instance) DashboardHandler(pathPrefix string) http.Handler {
	handler := dashboard.NewHandler(
		i.eventStorage,
		dashboard.WithPathPrefix(pathPrefix),
	)
	i.dashboardHandler = handler
	return handler
}
