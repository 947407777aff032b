package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-chart/internal/profiling"
	"github.com/opd-ai/go-chart/pkg/chart"
)

type runOptions struct {
	headless    bool
	title       string
	interval    time.Duration
	noWatch     bool
	strict      bool
	cpuProfile  string
	memProfile  string
	logLevel    string
	logJSON     bool
	debugAddr   string
	watchMemory time.Duration
}

func newRunCmd() *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <declaration.lua>",
		Short: "Open a window and render a chart declaration",
		Long: `Run loads a chart declaration and renders it until the window is closed
or the process receives SIGINT or SIGTERM. SIGHUP reloads the declaration
in place. Unless --no-watch is given, edits to the declaration or its
workbooks are picked up automatically.`,
		Example: `  chart-go run sales.lua
  chart-go run --headless --debug-addr localhost:6060 sales.lua`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChart(cmd.Context(), cmd.ErrOrStderr(), args[0], o)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&o.headless, "headless", false, "run without a window")
	f.StringVar(&o.title, "title", "", "override the window title")
	f.DurationVar(&o.interval, "interval", 0, "override update_interval")
	f.BoolVar(&o.noWatch, "no-watch", false, "do not watch the declaration and workbooks for changes")
	f.BoolVar(&o.strict, "strict", false, "treat validation warnings as errors")
	f.StringVar(&o.cpuProfile, "cpuprofile", "", "write a CPU profile to `file`")
	f.StringVar(&o.memProfile, "memprofile", "", "write a heap profile to `file` on exit")
	f.StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	f.BoolVar(&o.logJSON, "log-json", false, "write JSON log records")
	f.StringVar(&o.debugAddr, "debug-addr", "", "serve metrics at http://`addr`/debug/vars")
	f.DurationVar(&o.watchMemory, "watch-memory", 0, "sample memory growth at this interval")
	return cmd
}

func (o *runOptions) logger(w io.Writer) (chart.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", o.logLevel)
	}
	if o.logJSON {
		return chart.JSONLogger(w, level), nil
	}
	return chart.NewSlogAdapter(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}))), nil
}

func (o *runOptions) chartOptions(log chart.Logger, metrics *chart.Metrics) chart.Options {
	opts := chart.DefaultOptions()
	opts.Headless = o.headless
	opts.WindowTitle = o.title
	opts.UpdateInterval = o.interval
	opts.StrictValidation = o.strict
	opts.Logger = log
	opts.Metrics = metrics
	if o.noWatch {
		opts.WatchConfig = false
		opts.WatchData = false
	}
	return opts
}

func runChart(ctx context.Context, stderr io.Writer, path string, o *runOptions) error {
	log, err := o.logger(stderr)
	if err != nil {
		return err
	}

	session, err := profiling.Start(profiling.Config{
		CPUProfilePath: o.cpuProfile,
		MemProfilePath: o.memProfile,
	})
	if err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}
	defer func() {
		if err := session.Stop(); err != nil {
			log.Warn("failed to stop profiling", "error", err)
		}
	}()

	metrics := chart.NewMetrics()
	if o.debugAddr != "" {
		metrics.RegisterExpvar()
		srv := serveDebug(o.debugAddr, log)
		defer srv.Close()
	}

	opts := o.chartOptions(log, metrics)
	c, err := chart.New(path, &opts)
	if err != nil {
		return err
	}

	// The window can be closed by the user; that ends the run.
	stopped := make(chan struct{}, 1)
	c.SetEventHandler(func(e chart.Event) {
		log.Debug("event", "type", e.Type.String(), "message", e.Message)
		if e.Type == chart.EventStopped {
			select {
			case stopped <- struct{}{}:
			default:
			}
		}
	})

	if err := c.Start(); err != nil {
		return err
	}

	if o.watchMemory > 0 {
		gw := profiling.NewGrowthWatcher(profiling.WatchConfig{
			Interval: o.watchMemory,
			Elements: func() int { return c.Status().Elements },
		}, func(g profiling.Growth) {
			log.Warn("memory growth", "growth", g.String())
		})
		gw.Start()
		defer gw.Stop()
	}

	if ctx == nil {
		ctx = context.Background()
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				log.Info("received SIGHUP, reloading declaration")
				if err := c.ReloadConfig(); err != nil {
					log.Error("reload failed", "error", err)
				}
				continue
			}
			log.Info("shutting down", "signal", sig.String())
			return c.Stop()
		case <-stopped:
			return nil
		case <-ctx.Done():
			return c.Stop()
		}
	}
}

func serveDebug(addr string, log chart.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("debug server failed", "addr", addr, "error", err)
		}
	}()
	log.Info("serving metrics", "url", "http://"+addr+"/debug/vars")
	return srv
}
