package profiling

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigEnabled(t *testing.T) {
	tests := []struct {
		cfg  Config
		want bool
	}{
		{Config{}, false},
		{Config{CPUProfilePath: "cpu.prof"}, true},
		{Config{MemProfilePath: "mem.prof"}, true},
	}
	for _, tt := range tests {
		if got := tt.cfg.Enabled(); got != tt.want {
			t.Errorf("%+v.Enabled() = %v, want %v", tt.cfg, got, tt.want)
		}
	}
}

func TestSessionWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		CPUProfilePath: filepath.Join(dir, "cpu.prof"),
		MemProfilePath: filepath.Join(dir, "mem.prof"),
	}
	s, err := Start(cfg)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
	for _, p := range []string{cfg.CPUProfilePath, cfg.MemProfilePath} {
		if info, err := os.Stat(p); err != nil || info.Size() == 0 {
			t.Errorf("profile %s missing or empty: %v", p, err)
		}
	}
}

func TestStartBadPath(t *testing.T) {
	if _, err := Start(Config{CPUProfilePath: filepath.Join(t.TempDir(), "missing", "cpu.prof")}); err == nil {
		t.Error("Start with an unwritable path should fail")
	}
	if err := WriteHeapProfile(filepath.Join(t.TempDir(), "missing", "mem.prof")); err == nil {
		t.Error("WriteHeapProfile with an unwritable path should fail")
	}
}

func TestGrowthCompare(t *testing.T) {
	w := NewGrowthWatcher(WatchConfig{HeapRate: 100, GoroutineSlack: 2}, nil)
	t0 := time.Unix(0, 0)
	tests := []struct {
		name        string
		first, last Sample
		suspect     bool
		reason      string
	}{
		{
			name:  "steady",
			first: Sample{Time: t0, HeapAlloc: 1000, Goroutines: 5, Elements: 10},
			last:  Sample{Time: t0.Add(10 * time.Second), HeapAlloc: 1500, Goroutines: 6, Elements: 10},
		},
		{
			name:    "goroutines",
			first:   Sample{Time: t0, Goroutines: 5},
			last:    Sample{Time: t0.Add(time.Second), Goroutines: 9},
			suspect: true,
			reason:  "goroutines grew by 4",
		},
		{
			name:    "heap without elements",
			first:   Sample{Time: t0, HeapAlloc: 0, Elements: 10},
			last:    Sample{Time: t0.Add(time.Second), HeapAlloc: 5000, Elements: 10},
			suspect: true,
			reason:  "element count did not",
		},
		{
			name:  "heap with elements",
			first: Sample{Time: t0, HeapAlloc: 0, Elements: 10},
			last:  Sample{Time: t0.Add(time.Second), HeapAlloc: 5000, Elements: 50},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ok := w.compare(tt.first, tt.last)
			if !ok {
				t.Fatal("compare rejected the samples")
			}
			if g.Suspect != tt.suspect || !strings.Contains(g.Reason, tt.reason) {
				t.Errorf("growth = %+v", g)
			}
		})
	}
	if _, ok := w.compare(Sample{Time: t0}, Sample{Time: t0}); ok {
		t.Error("zero span accepted")
	}
}

func TestGrowthWatcherSamples(t *testing.T) {
	elements := 3
	w := NewGrowthWatcher(WatchConfig{Keep: 2, Elements: func() int { return elements }}, nil)
	if _, ok := w.Analyze(); ok {
		t.Error("Analyze with no samples")
	}
	w.Take()
	elements = 4
	w.Take()
	w.Take()
	samples := w.Samples()
	if len(samples) != 2 || samples[1].Elements != 4 {
		t.Errorf("samples = %+v", samples)
	}
}

func TestGrowthWatcherStartStop(t *testing.T) {
	w := NewGrowthWatcher(WatchConfig{Interval: 5 * time.Millisecond}, nil)
	w.Start()
	w.Start()
	time.Sleep(30 * time.Millisecond)
	w.Stop()
	w.Stop()
	if n := len(w.Samples()); n < 2 {
		t.Errorf("took %d samples", n)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{2 * KB, "2.00 KB"},
		{3 * MB / 2, "1.50 MB"},
		{GB, "1.00 GB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGrowthString(t *testing.T) {
	g := Growth{Span: 90 * time.Second, HeapDelta: -2 * KB, GoroutineDelta: 1, ElementDelta: -3}
	want := "over 1m30s: heap -2.00 KB, goroutines +1, elements -3 (steady)"
	if got := g.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
