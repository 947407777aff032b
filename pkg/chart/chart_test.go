package chart

import (
	"embed"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/go-chart/internal/layout"
)

//go:embed testdata/*
var testFS embed.FS

const lineChart = `
chart.config = { width = 320, height = 200, update_interval = 0.05 }
chart.sources = { s = { rows = { { m = "a", v = 1 }, { m = "b", v = 3 } } } }
chart.axes = {
    { name = "x", kind = "category", label_path = "m" },
    { name = "y", orientation = "vertical" },
}
chart.series = {
    { name = "line", source = "s", x_axis = "x", y_axis = "y", value_path = "v" },
}
`

const twoSeriesChart = `
chart.config = { width = 320, height = 200, update_interval = 0.05 }
chart.sources = { s = { rows = { { m = "a", v = 1 }, { m = "b", v = 3 } } } }
chart.axes = {
    { name = "x", kind = "category", label_path = "m" },
    { name = "y", orientation = "vertical" },
}
chart.series = {
    { name = "line", source = "s", x_axis = "x", y_axis = "y", value_path = "v" },
    { name = "bars", kind = "column", source = "s", x_axis = "x", y_axis = "y", value_path = "v" },
}
`

func testOptions() *Options {
	return &Options{
		Headless:        true,
		UpdateInterval:  10 * time.Millisecond,
		ShutdownTimeout: 2 * time.Second,
		Metrics:         NewMetrics(),
		ErrorTracker:    NewErrorTracker(DefaultErrorTrackerConfig()),
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func startChart(t *testing.T, c Chart) {
	t.Helper()
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Stop(); err != nil {
			t.Errorf("Stop: %v", err)
		}
	})
}

func passes(c Chart) int64 {
	var n int64
	for _, v := range c.Metrics().Snapshot().Passes {
		n += v
	}
	return n
}

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		eventType EventType
		expected  string
	}{
		{EventStarted, "started"},
		{EventStopped, "stopped"},
		{EventRestarted, "restarted"},
		{EventConfigReloaded, "config_reloaded"},
		{EventDataReloaded, "data_reloaded"},
		{EventError, "error"},
		{EventType(100), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.eventType.String(); got != tt.expected {
				t.Errorf("EventType.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if !opts.WatchConfig || !opts.WatchData {
		t.Errorf("watching disabled by default: %+v", opts)
	}
	if opts.Headless || opts.UpdateInterval != 0 || opts.ShutdownTimeout != 0 {
		t.Errorf("unexpected defaults: %+v", opts)
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New("/nonexistent/path/chart.lua", nil); err == nil {
		t.Error("New: expected error for a missing file")
	}
	if _, err := NewFromFS(testFS, "testdata/nonexistent.lua", nil); err == nil {
		t.Error("NewFromFS: expected error for a missing file")
	}
	_, err := NewFromReader(strings.NewReader(`chart.config = {`), nil)
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Errorf("NewFromReader: err = %v", err)
	}
}

func TestNewFromFS(t *testing.T) {
	c, err := NewFromFS(testFS, "testdata/line.lua", testOptions())
	if err != nil {
		t.Fatalf("NewFromFS: %v", err)
	}
	if got := c.Status().ConfigSource; got != "embedded:testdata/line.lua" {
		t.Errorf("ConfigSource = %q", got)
	}
	if c.IsRunning() {
		t.Error("new instance should not be running")
	}
}

func TestLifecycleHeadless(t *testing.T) {
	c, err := NewFromReader(strings.NewReader(lineChart), testOptions())
	if err != nil {
		t.Fatalf("NewFromReader: %v", err)
	}
	startChart(t, c)

	if !c.IsRunning() {
		t.Fatal("instance should be running after Start")
	}
	if err := c.Start(); err == nil {
		t.Error("second Start should fail")
	}

	waitFor(t, "first layout", func() bool {
		return c.Metrics().Snapshot().Passes[layout.Full] > 0
	})
	st := c.Status()
	if st.ConfigSource != "reader" || st.Components != 3 || st.Elements == 0 {
		t.Errorf("Status = %+v", st)
	}
	if len(st.Sources) != 1 || st.Sources[0] != "s" {
		t.Errorf("Sources = %v", st.Sources)
	}

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.IsRunning() {
		t.Error("instance should not be running after Stop")
	}
	if got := c.Status().Elements; got != 0 {
		t.Errorf("Elements after Stop = %d, want 0", got)
	}
	if err := c.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestAppendRunsAnotherPass(t *testing.T) {
	c, err := NewFromReader(strings.NewReader(lineChart), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	startChart(t, c)
	waitFor(t, "first layout", func() bool { return passes(c) > 0 })
	before := passes(c)

	if err := c.Append("s", map[string]any{"m": "c", "v": 7.0}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	waitFor(t, "pass after append", func() bool { return passes(c) > before })

	before = passes(c)
	if err := c.Replace("s", []map[string]any{{"m": "z", "v": 1.0}}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	waitFor(t, "pass after replace", func() bool { return passes(c) > before })

	if err := c.Append("missing", map[string]any{"v": 1}); err == nil {
		t.Error("Append to an unknown source should fail")
	}
	if err := c.Replace("missing", nil); err == nil {
		t.Error("Replace of an unknown source should fail")
	}
}

func TestSetAxisLimits(t *testing.T) {
	c, err := NewFromReader(strings.NewReader(lineChart), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetAxisLimits("y", 0, 10); err == nil {
		t.Error("SetAxisLimits before Start should fail")
	}
	startChart(t, c)
	waitFor(t, "first layout", func() bool { return passes(c) > 0 })
	before := c.Metrics().Snapshot().Passes[layout.Full]

	if err := c.SetAxisLimits("y", 0, 10); err != nil {
		t.Fatalf("SetAxisLimits: %v", err)
	}
	waitFor(t, "full pass after new limits", func() bool {
		return c.Metrics().Snapshot().Passes[layout.Full] > before
	})
	if err := c.SetAxisLimits("nope", 0, 1); err == nil {
		t.Error("unknown axis should fail")
	}
}

func TestReloadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chart.lua")
	writeFile(t, path, lineChart)

	c, err := New(path, testOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.ReloadConfig(); err == nil {
		t.Error("ReloadConfig before Start should fail")
	}
	startChart(t, c)
	if got := c.Status().Components; got != 3 {
		t.Fatalf("Components = %d, want 3", got)
	}

	writeFile(t, path, twoSeriesChart)
	if err := c.ReloadConfig(); err != nil {
		t.Fatalf("ReloadConfig: %v", err)
	}
	if got := c.Status().Components; got != 4 {
		t.Errorf("Components after reload = %d, want 4", got)
	}

	writeFile(t, path, `chart.series = { { kind = "radar" } }`)
	if err := c.ReloadConfig(); err == nil {
		t.Fatal("invalid declaration was accepted")
	}
	st := c.Status()
	if st.Components != 4 || !st.Running {
		t.Errorf("failed reload changed the chart: %+v", st)
	}
	if st.LastError == nil {
		t.Error("LastError not set by failed reload")
	}
	if got := c.Metrics().Snapshot().ConfigReloads; got != 1 {
		t.Errorf("ConfigReloads = %d, want 1", got)
	}
}

func TestWatchConfigReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chart.lua")
	writeFile(t, path, lineChart)

	opts := testOptions()
	opts.WatchConfig = true
	opts.WatchDebounce = 20 * time.Millisecond
	c, err := New(path, opts)
	if err != nil {
		t.Fatal(err)
	}
	startChart(t, c)
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte(twoSeriesChart), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "reload from watcher", func() bool { return c.Status().Components == 4 })
}

func TestRestart(t *testing.T) {
	c, err := NewFromReader(strings.NewReader(lineChart), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	startChart(t, c)
	if err := c.Restart(); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if !c.IsRunning() {
		t.Error("not running after Restart")
	}
	s := c.Metrics().Snapshot()
	if s.Starts != 2 || s.Stops != 1 || s.Restarts != 1 {
		t.Errorf("metrics = %+v", s)
	}
}

func TestStartRejectsInvalidDeclaration(t *testing.T) {
	decl := lineChart + `chart.series[1].source = "missing"`
	c, err := NewFromReader(strings.NewReader(decl), testOptions())
	if err != nil {
		t.Fatalf("NewFromReader: %v", err)
	}
	if err := c.Start(); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Errorf("Start err = %v", err)
	}
	if c.IsRunning() {
		t.Error("running after failed Start")
	}
}

func TestStrictValidation(t *testing.T) {
	// The unused source is only a warning unless validation is strict.
	decl := strings.Replace(lineChart, `chart.sources = {`, `chart.sources = { spare = { rows = {} },`, 1)
	opts := testOptions()
	opts.StrictValidation = true
	c, err := NewFromReader(strings.NewReader(decl), opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(); err == nil {
		c.Stop()
		t.Fatal("strict validation accepted an unused source")
	}

	lenient, err := NewFromReader(strings.NewReader(decl), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	startChart(t, lenient)
}

func TestHandlers(t *testing.T) {
	c, err := NewFromReader(strings.NewReader(lineChart), testOptions())
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var events []EventType
	c.SetEventHandler(func(e Event) {
		mu.Lock()
		events = append(events, e.Type)
		mu.Unlock()
		if e.Type == EventStarted {
			panic("recovered by the instance")
		}
	})
	errs := make(chan error, 4)
	c.SetErrorHandler(func(err error) { errs <- err })

	startChart(t, c)
	select {
	case err := <-errs:
		if !strings.Contains(err.Error(), "panic in event handler") {
			t.Errorf("error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("event handler panic was not reported")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(events) == 0 || events[0] != EventStarted {
		t.Errorf("events = %v", events)
	}
}

func TestHealth(t *testing.T) {
	c, err := NewFromReader(strings.NewReader(lineChart), testOptions())
	if err != nil {
		t.Fatal(err)
	}

	h := c.Health()
	if !h.IsUnhealthy() || h.Uptime != 0 {
		t.Errorf("stopped instance health = %+v", h)
	}
	if h.Components["pipeline"].Status != HealthUnhealthy {
		t.Errorf("pipeline = %+v", h.Components["pipeline"])
	}

	startChart(t, c)
	h = c.Health()
	if !h.IsHealthy() {
		t.Errorf("running instance health = %+v", h)
	}
	for _, name := range []string{"instance", "pipeline", "sources", "errors"} {
		if _, ok := h.Components[name]; !ok {
			t.Errorf("missing component %q", name)
		}
	}
}
