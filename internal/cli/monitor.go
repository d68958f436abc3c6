package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/aidash/internal/config"
	"github.com/rileyhilliard/aidash/internal/datasync"
	"github.com/rileyhilliard/aidash/internal/errors"
	"github.com/rileyhilliard/aidash/internal/logger"
	"github.com/rileyhilliard/aidash/internal/monitor"
	"github.com/rileyhilliard/aidash/internal/observability"
)

// MonitorOptions holds the flags of 'aidash monitor'.
type MonitorOptions struct {
	Selection   SelectionFlags
	MetricsAddr string
	Paused      bool
	LogFile     string
}

var monitorOpts MonitorOptions

// monitorCmd starts the TUI monitoring dashboard
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live metrics dashboard for a server",
	Long: `Start an interactive dashboard showing CPU, memory, disk, network and
GPU metrics for one server, refreshed in the background, plus the
notification feed.

Keyboard shortcuts:
  q / Ctrl+C  Quit
  r           Refresh now
  up/k        Previous server
  down/j      Next server
  t           Cycle history window (15m, 1h, 6h, 24h)
  l           Pause / resume live refresh
  n           Toggle notifications
  m           Mark all notifications read
  ?           Show help

Examples:
  aidash monitor
  aidash monitor --server gpu-01 --minutes 6h
  aidash monitor --metrics-addr 127.0.0.1:9464`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return monitorCommand(cmd.Context(), cfg, monitorOpts)
	},
}

func init() {
	AddSelectionFlags(monitorCmd, &monitorOpts.Selection, true)
	monitorCmd.Flags().StringVar(&monitorOpts.MetricsAddr, "metrics-addr", "", "serve Prometheus sync metrics on this address (e.g. 127.0.0.1:9464)")
	monitorCmd.Flags().BoolVar(&monitorOpts.Paused, "paused", false, "start with live refresh paused")
	monitorCmd.Flags().StringVar(&monitorOpts.LogFile, "log-file", "", "write logs here while the dashboard runs (default: log.file)")
	rootCmd.AddCommand(monitorCmd)
}

// monitorCommand wires the sync controllers to the dashboard and runs it
// until the user quits or ctx ends.
func monitorCommand(ctx context.Context, cfg *config.Config, opts MonitorOptions) error {
	params, err := opts.Selection.Params(cfg)
	if err != nil {
		return err
	}

	logFile := cfg.Log.File
	if opts.LogFile != "" {
		logFile = config.Expand(opts.LogFile)
	}
	restoreLog, err := redirectLog(logFile)
	if err != nil {
		return err
	}
	defer restoreLog()

	client, source, err := newClient(cfg)
	if err != nil {
		return err
	}
	logger.Default().Info("monitor starting: backend=%s server=%q minutes=%d session=%s",
		cfg.API.URL, params.Server, params.Minutes, sourceLabel(source))

	shutdown, err := observability.SetupTelemetry(ctx, &observability.TelemetryConfig{
		Enabled:  observability.IsTelemetryEnabled(cfg.Telemetry.Enabled),
		Endpoint: cfg.Telemetry.Endpoint,
		Version:  version,
		Commit:   commit,
		Backend:  cfg.API.URL,
	})
	if err != nil {
		logger.Default().Warn("telemetry disabled: %v", err)
		shutdown = func(context.Context) error { return nil }
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Default().Warn("telemetry shutdown: %v", err)
		}
	}()

	reg := prometheus.NewRegistry()
	metrics := datasync.NewMetrics(reg)
	if opts.MetricsAddr != "" {
		_, stop, err := serveMetrics(opts.MetricsAddr, reg)
		if err != nil {
			return err
		}
		defer stop()
	}

	dash := datasync.NewDashboard(client, datasync.DashboardConfig{
		Params:        params,
		LatestPeriod:  pollPeriod(cfg.Poll.Latest),
		HistoryPeriod: pollPeriod(cfg.Poll.History),
		Live:          cfg.Poll.Live && !opts.Paused,
		Timeout:       cfg.API.Timeout,
		Metrics:       metrics,
	})
	defer dash.Close()

	notes := datasync.NewNotifications(client, datasync.NotificationsConfig{
		Period:  pollPeriod(cfg.Poll.Notifications),
		Timeout: cfg.API.Timeout,
		Metrics: metrics,
	})
	defer notes.Close()

	dash.Start(ctx)
	notes.Start(ctx)

	model := monitor.NewModel(ctx, monitor.Options{
		Dashboard:     dash,
		Notifications: notes,
		Backend:       cfg.API.URL,
		Version:       formatVersion(version),
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if stderrors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return errors.WrapWithCode(err, errors.ErrConfig,
			"The dashboard stopped unexpectedly",
			"Check that the terminal supports full-screen programs, or use 'aidash snapshot'")
	}
	return nil
}

// redirectLog points the standard logger at path, or discards it when path
// is empty, so nothing writes over the dashboard. The returned func
// restores stderr.
func redirectLog(path string) (func(), error) {
	prevOut, prevFlags := log.Writer(), log.Flags()
	restore := func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	}

	if path == "" {
		log.SetOutput(io.Discard)
		return restore, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Can't create the log directory for "+path,
			"Check log.file or pass a different --log-file")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Can't open log file "+path,
			"Check log.file or pass a different --log-file")
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	return func() {
		restore()
		_ = f.Close()
	}, nil
}

// serveMetrics exposes reg on addr at /metrics until the returned stop
// func is called. It returns the address actually bound.
func serveMetrics(addr string, reg *prometheus.Registry) (string, func(), error) {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Can't listen on %s for metrics", addr),
			"Pick a free address with --metrics-addr, e.g. 127.0.0.1:9464")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.Default().Warn("metrics server: %v", err)
		}
	}()
	logger.Default().Info("serving metrics on http://%s/metrics", ln.Addr())

	return ln.Addr().String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
