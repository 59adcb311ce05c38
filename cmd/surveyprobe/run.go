package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"

	"github.com/networkteam/surveyprobe"
	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/collector"
	"github.com/networkteam/surveyprobe/config"
	"github.com/networkteam/surveyprobe/scenario"
	"github.com/networkteam/surveyprobe/survey"
	"github.com/networkteam/surveyprobe/wait"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scenarios against the application",
	Long: `Run executes the scenarios in plan order, each in a fresh browser profile.

Exit status is 0 when every scenario passed, 1 when any scenario failed and
2 when the run could not be set up.`,
	RunE: runRun,
}

var (
	onlyFlag       []string
	serveFlag      string
	reportJSONFlag string
	verboseFlag    bool
)

func init() {
	flags := runCmd.Flags()
	flags.StringSliceVar(&onlyFlag, "only", nil, "Run only the named scenarios, in plan order")
	flags.StringVar(&serveFlag, "serve", "", "Serve the live dashboard and /metrics on this address, e.g. :7070")
	flags.StringVar(&reportJSONFlag, "report-json", "", "Write the run report as JSON to this path")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "Log steps and waits to stderr")

	flags.String("base-url", "", "Base URL of the application (env BASE_URL or REACT_APP_URL)")
	flags.Bool("headless", true, "Run Chromium without a window (env HEADLESS)")
	flags.Duration("wait-timeout", wait.DefaultTimeout, "Timeout of every wait and assertion (env WAIT_TIMEOUT)")
	flags.Duration("poll-interval", wait.DefaultInterval, "Poll interval of waits (env POLL_INTERVAL)")
	flags.Duration("slow-mo", 0, "Delay between browser operations (env SLOW_MO)")
	flags.Bool("playwright-install", false, "Install the Chromium driver before the first launch (env PLAYWRIGHT_INSTALL)")
	flags.Bool("preflight", false, "Check that the application answers before starting browsers (env PREFLIGHT)")
}

func newLogger(probe *surveyprobe.Instance) *slog.Logger {
	level := slog.LevelInfo
	if verboseFlag {
		level = slog.LevelDebug
	}
	return slog.New(
		slogmulti.Fanout(
			probe.CollectSlogLogs(collector.CollectSlogLogsOptions{
				Level: slog.LevelDebug,
			}),
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			}),
		),
	)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(envFileFlag, cmd.Flags())
	if err != nil {
		return &exitError{code: exitSetup, err: err}
	}
	fixtures, err := loadFixtures(cfg)
	if err != nil {
		return &exitError{code: exitSetup, err: err}
	}

	probe := surveyprobe.New()
	defer probe.Close()

	logger := newLogger(probe)
	slog.SetDefault(logger)

	var server *http.Server
	if serveFlag != "" {
		server, err = serve(ctx, probe, serveFlag, logger)
		if err != nil {
			return &exitError{code: exitSetup, err: err}
		}
	}

	if cfg.Preflight {
		if err := collector.Preflight(ctx, probe.ProbeClient(5*time.Second), cfg.BaseURL); err != nil {
			return &exitError{code: exitSetup, err: fmt.Errorf("preflight: %w", err)}
		}
		logger.InfoContext(ctx, "Application is reachable", "url", cfg.BaseURL)
	}

	launcher := &browser.PlaywrightLauncher{Install: cfg.PlaywrightInstall}
	defer func() {
		if err := launcher.Close(); err != nil {
			logger.Warn("Stopping playwright failed", "error", err)
		}
	}()

	engine := wait.New(
		wait.WithTimeout(cfg.WaitTimeout),
		wait.WithInterval(cfg.PollInterval),
		wait.WithClickTimeout(cfg.ClickTimeout),
		wait.WithRecorder(probe.Telemetry()),
		wait.WithLogger(logger),
	)

	registry := scenario.NewRegistry()
	if err := survey.Register(registry); err != nil {
		return &exitError{code: exitSetup, err: err}
	}

	sessionConfig := browser.DefaultConfig()
	sessionConfig.Headless = cfg.Headless
	sessionConfig.SlowMo = cfg.SlowMo

	runner := scenario.NewRunner(registry, browser.NewManager(launcher, browser.WithLogger(logger)), engine, fixtures, cfg.BaseURL,
		scenario.WithObserver(probe.Telemetry()),
		scenario.WithSessionConfig(sessionConfig),
		scenario.WithLogger(logger),
	)

	report, err := runner.RunAll(ctx, scenario.RunOptions{Only: onlyFlag})
	if err != nil {
		return &exitError{code: exitSetup, err: err}
	}

	if err := report.Render(cmd.OutOrStdout()); err != nil {
		return &exitError{code: exitSetup, err: err}
	}
	if reportJSONFlag != "" {
		if err := writeReport(report, reportJSONFlag); err != nil {
			return &exitError{code: exitSetup, err: err}
		}
	}

	if server != nil {
		logger.Info("Run finished, dashboard stays available until interrupted", "addr", serveFlag)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}

	switch {
	case report.SetupFailed():
		return &exitError{code: exitSetup, err: errors.New("browser setup failed")}
	case report.Failed():
		return &exitError{code: exitFailed, err: fmt.Errorf("%d of %d scenarios did not pass",
			len(report.Outcomes)-report.Count(collector.ScenarioPassed), len(report.Outcomes))}
	}
	return nil
}

// serve starts the dashboard and metrics endpoint in the background.
func serve(ctx context.Context, probe *surveyprobe.Instance, addr string, logger *slog.Logger) (*http.Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", probe.MetricsHandler())
	mux.Handle("/_surveyprobe/", http.StripPrefix("/_surveyprobe", probe.DashboardHandler("/_surveyprobe")))
	mux.Handle("/{$}", http.RedirectHandler("/_surveyprobe/", http.StatusFound))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Dashboard server failed", "error", err)
		}
	}()
	logger.Info("Serving dashboard", "url", fmt.Sprintf("http://%s/_surveyprobe/", listener.Addr()))
	return server, nil
}

func writeReport(report *scenario.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := report.WriteJSON(f); err != nil {
		f.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	return f.Close()
}
