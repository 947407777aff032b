//go:build integration

// Package integration provides end-to-end integration tests for go-chart.
// These tests verify that declarations, data sources and the chart
// lifecycle work together correctly.
//
// Charts run headless; no display is needed.
package integration

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/opd-ai/go-chart/internal/config"
	"github.com/opd-ai/go-chart/internal/profiling"
	"github.com/opd-ai/go-chart/pkg/chart"
)

// getTestConfigsDir returns the path to the test configs directory.
// It calls t.Fatal if runtime.Caller fails.
func getTestConfigsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed to get current file path")
	}
	return filepath.Join(filepath.Dir(file), "..", "configs")
}

func headlessOptions() *chart.Options {
	return &chart.Options{
		Headless:        true,
		UpdateInterval:  10 * time.Millisecond,
		ShutdownTimeout: 2 * time.Second,
		Metrics:         chart.NewMetrics(),
		ErrorTracker:    chart.NewErrorTracker(chart.DefaultErrorTrackerConfig()),
		WatchDebounce:   20 * time.Millisecond,
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestDeclarationParsing parses every shipped declaration and checks its shape.
func TestDeclarationParsing(t *testing.T) {
	tests := []struct {
		file        string
		sources     int
		axes        int
		series      int
		decorations int
	}{
		{"line.lua", 1, 2, 2, 1},
		{"column.lua", 1, 2, 1, 1},
		{"pie.lua", 1, 0, 1, 0},
	}

	parser, err := config.NewParser()
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	defer parser.Close()

	for _, tc := range tests {
		t.Run(tc.file, func(t *testing.T) {
			cfg, err := parser.ParseFile(filepath.Join(getTestConfigsDir(t), tc.file))
			if err != nil {
				t.Fatalf("ParseFile failed: %v", err)
			}
			if err := config.ValidateConfig(cfg); err != nil {
				t.Errorf("ValidateConfig failed: %v", err)
			}
			got := [4]int{len(cfg.Sources), len(cfg.Axes), len(cfg.Series), len(cfg.Decorations)}
			want := [4]int{tc.sources, tc.axes, tc.series, tc.decorations}
			if got != want {
				t.Errorf("sources/axes/series/decorations = %v, want %v", got, want)
			}
		})
	}
}

// TestDeclarationErrors checks that validation reports every broken field.
func TestDeclarationErrors(t *testing.T) {
	parser, err := config.NewParser()
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	defer parser.Close()

	cfg, err := parser.ParseFile(filepath.Join(getTestConfigsDir(t), "invalid.lua"))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	err = config.ValidateConfig(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, field := range []string{"config.width", "series.orphan.source", "series.orphan.x_axis"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention %s", err, field)
		}
	}

	if _, err := parser.ParseFile(filepath.Join(getTestConfigsDir(t), "missing.lua")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

// TestWindowSettings checks hints and transparency from the column declaration.
func TestWindowSettings(t *testing.T) {
	parser, err := config.NewParser()
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	defer parser.Close()

	cfg, err := parser.ParseFile(filepath.Join(getTestConfigsDir(t), "column.lua"))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if cfg.Window.Background.A != 0xc0 {
		t.Errorf("background alpha = %#x, want 0xc0", cfg.Window.Background.A)
	}
	if !cfg.Window.HasHint(config.WindowHintAbove) || !cfg.Window.HasHint(config.WindowHintSticky) {
		t.Errorf("hints = %v, want above and sticky", cfg.Window.Hints)
	}
	if cfg.Window.HasHint(config.WindowHintBelow) {
		t.Error("unexpected below hint")
	}
}

// TestHeadlessLifecycle runs each declaration through start, updates and stop.
func TestHeadlessLifecycle(t *testing.T) {
	for _, file := range []string{"line.lua", "column.lua", "pie.lua"} {
		t.Run(file, func(t *testing.T) {
			c, err := chart.New(filepath.Join(getTestConfigsDir(t), file), headlessOptions())
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if err := c.Start(); err != nil {
				t.Fatalf("Start failed: %v", err)
			}
			waitFor(t, "elements", func() bool { return c.Status().Elements > 0 })

			before := c.Status().Elements
			source := c.Status().Sources[0]
			row := map[string]any{"day": "Thu", "web": 70, "app": 60, "q": "Q5", "v": 1, "k": "d"}
			if err := c.Append(source, row); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
			waitFor(t, "appended element", func() bool { return c.Status().Elements > before })

			if h := c.Health(); !h.IsHealthy() {
				t.Errorf("health = %s: %s", h.Status, h.Message)
			}
			if err := c.Stop(); err != nil {
				t.Fatalf("Stop failed: %v", err)
			}
			if c.IsRunning() {
				t.Error("still running after Stop")
			}
		})
	}
}

func writeWorkbook(t *testing.T, path string, rows [][]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	// Write next to the target and rename so the watcher sees one complete file.
	tmp := path + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
}

// TestWorkbookReload edits a workbook under a running chart and waits for
// the chart to pick up the new rows.
func TestWorkbookReload(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "sales.xlsx"), [][]any{
		{"month", "amount"},
		{"Jan", 3},
		{"Feb", 4},
	})
	decl := `
chart.config = { width = 320, height = 200 }
chart.sources = { sales = { file = "sales.xlsx", header = true } }
chart.axes = {
    { name = "month", kind = "category", label_path = "month" },
    { name = "amount", orientation = "vertical" },
}
chart.series = { { name = "sales", kind = "column", source = "sales", x_axis = "month", y_axis = "amount", value_path = "amount" } }
`
	path := filepath.Join(dir, "sales.lua")
	if err := os.WriteFile(path, []byte(decl), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := headlessOptions()
	opts.WatchData = true
	c, err := chart.New(path, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	reloaded := make(chan struct{}, 1)
	c.SetEventHandler(func(e chart.Event) {
		if e.Type == chart.EventDataReloaded {
			select {
			case reloaded <- struct{}{}:
			default:
			}
		}
	})
	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer c.Stop()
	waitFor(t, "elements", func() bool { return c.Status().Elements > 0 })
	before := c.Status().Elements

	writeWorkbook(t, filepath.Join(dir, "sales.xlsx"), [][]any{
		{"month", "amount"},
		{"Jan", 3},
		{"Feb", 4},
		{"Mar", 7},
		{"Apr", 2},
	})

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("no data reload after the workbook changed")
	}
	waitFor(t, "new columns", func() bool { return c.Status().Elements > before })
	if got := opts.Metrics.Snapshot().DataReloads; got == 0 {
		t.Error("DataReloads = 0")
	}
}

// TestNoGoroutineGrowth restarts a chart repeatedly and checks that its
// goroutines are released.
func TestNoGoroutineGrowth(t *testing.T) {
	path := filepath.Join(getTestConfigsDir(t), "line.lua")
	w := profiling.NewGrowthWatcher(profiling.WatchConfig{
		HeapRate:       float64(profiling.GB),
		GoroutineSlack: 3,
	}, nil)
	w.Take()

	for range 5 {
		c, err := chart.New(path, headlessOptions())
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if err := c.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		waitFor(t, "elements", func() bool { return c.Status().Elements > 0 })
		for i := range 20 {
			rows := []map[string]any{{"day": "Mon", "web": i, "app": i * 2}}
			if err := c.Replace("visits", rows); err != nil {
				t.Fatalf("Replace failed: %v", err)
			}
		}
		if err := c.Stop(); err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
	}

	// Handler goroutines finish asynchronously.
	time.Sleep(100 * time.Millisecond)
	w.Take()
	g, ok := w.Analyze()
	if !ok {
		t.Fatal("Analyze returned no result")
	}
	if g.Suspect {
		t.Errorf("suspect growth: %s (%s)", g.Reason, g)
	}
}
