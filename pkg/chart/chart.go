package chart

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/opd-ai/go-chart/internal/config"
)

// Chart is an embedded chart instance with full lifecycle control.
// It is safe for concurrent use from multiple goroutines.
type Chart interface {
	// Start loads the data sources, builds the chart and begins the
	// update loop. It returns once the loop is running.
	// Returns an error if already running or if initialization fails.
	Start() error

	// Stop gracefully shuts down the instance and waits for its
	// goroutines. Safe to call multiple times.
	Stop() error

	// Restart performs a stop followed by a start with the declaration
	// reloaded from its original source.
	Restart() error

	// ReloadConfig reloads the declaration and rebuilds the chart in
	// place. Unchanged data files are not reset. On error the previous
	// chart stays active.
	ReloadConfig() error

	// IsRunning returns true if the instance is currently running.
	IsRunning() bool

	// Status returns detailed status information about the instance.
	Status() Status

	// Append adds rows to the end of a source. The chart updates
	// incrementally. Safe from any goroutine.
	Append(source string, rows ...map[string]any) error

	// Replace swaps the contents of a source, forcing a full pass.
	Replace(source string, rows []map[string]any) error

	// SetAxisLimits fixes an axis' limits; NaN restores auto-scaling.
	SetAxisLimits(axis string, minimum, maximum float64) error

	// SetErrorHandler registers a callback for runtime errors.
	// The handler is invoked asynchronously; do not block in the handler.
	// Panics in the handler are recovered.
	SetErrorHandler(handler ErrorHandler)

	// SetEventHandler registers a callback for lifecycle events.
	SetEventHandler(handler EventHandler)

	// Health returns a health check result for the instance.
	Health() HealthCheck

	// Metrics returns the metrics collector for this instance.
	Metrics() *Metrics
}

// New creates a Chart from a Lua declaration on disk. Relative data file
// paths resolve against the declaration's directory. The instance is
// created but not started; call Start to begin operation.
//
// Example:
//
//	c, err := chart.New("sales.lua", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer c.Stop()
//	if err := c.Start(); err != nil {
//		log.Fatal(err)
//	}
func New(configPath string, opts *Options) (Chart, error) {
	load := func() (*config.Config, error) {
		return parseWith(func(p *config.Parser) (*config.Config, error) { return p.ParseFile(configPath) })
	}
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	return newChart(cfg, opts, configPath, abs, load), nil
}

// NewFromFS creates a Chart from a declaration in fsys, for example one
// bundled with the embed package. Data file paths are used as declared.
func NewFromFS(fsys fs.FS, configPath string, opts *Options) (Chart, error) {
	load := func() (*config.Config, error) {
		return parseWith(func(p *config.Parser) (*config.Config, error) { return p.ParseFromFS(fsys, configPath) })
	}
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("parse config from FS: %w", err)
	}
	return newChart(cfg, opts, "embedded:"+configPath, "", load), nil
}

// NewFromReader creates a Chart from declaration content. The content is
// read once and kept for reloads.
//
// Example:
//
//	decl := strings.NewReader(`
//		chart.sources = { s = { rows = { { v = 1 }, { v = 3 } } } }
//		chart.axes = { { name = "x", kind = "category" }, { name = "y", side = "left" } }
//		chart.series = { { kind = "line", source = "s", x_axis = "x", y_axis = "y", value_path = "v" } }
//	`)
//	c, err := chart.NewFromReader(decl, &chart.Options{Headless: true})
func NewFromReader(r io.Reader, opts *Options) (Chart, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	load := func() (*config.Config, error) {
		return parseWith(func(p *config.Parser) (*config.Config, error) { return p.ParseReader(bytes.NewReader(content)) })
	}
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return newChart(cfg, opts, "reader", "", load), nil
}

// parseWith runs parse with a fresh parser. Parsers are not shared so
// reloads from the watcher never race a caller's parse.
func parseWith(parse func(*config.Parser) (*config.Config, error)) (*config.Config, error) {
	p, err := config.NewParser()
	if err != nil {
		return nil, fmt.Errorf("parser init: %w", err)
	}
	defer p.Close()
	return parse(p)
}
