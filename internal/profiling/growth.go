package profiling

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

// Byte size constants for formatting.
const (
	KB = 1024
	MB = KB * 1024
	GB = MB * 1024
)

// Sample is one measurement of the process and the chart it hosts.
type Sample struct {
	Time       time.Time
	HeapAlloc  uint64
	HeapObjs   uint64
	Goroutines int
	// Elements is the number of visual elements attached to the chart.
	Elements int
}

// Growth compares the oldest and newest retained samples. A chart that
// keeps appending data legitimately grows; elements recycled across
// passes should keep the heap and goroutine counts flat otherwise.
type Growth struct {
	Span           time.Duration
	HeapDelta      int64
	HeapRate       float64 // bytes per second
	GoroutineDelta int
	ElementDelta   int
	Suspect        bool
	Reason         string
}

// WatchConfig configures a GrowthWatcher.
type WatchConfig struct {
	// Interval between samples. Default 10s.
	Interval time.Duration
	// Keep is the number of samples retained. Default 60.
	Keep int
	// HeapRate is the sustained heap growth, in bytes per second, above
	// which growth is suspect. Default 1 MB/s.
	HeapRate float64
	// GoroutineSlack is the goroutine increase tolerated. Default 10.
	GoroutineSlack int
	// Elements reports the chart's element count; nil records zero.
	Elements func() int
}

func (c *WatchConfig) setDefaults() {
	if c.Interval <= 0 {
		c.Interval = 10 * time.Second
	}
	if c.Keep < 2 {
		c.Keep = 60
	}
	if c.HeapRate <= 0 {
		c.HeapRate = MB
	}
	if c.GoroutineSlack <= 0 {
		c.GoroutineSlack = 10
	}
}

// GrowthWatcher samples memory periodically and reports suspect growth.
type GrowthWatcher struct {
	cfg     WatchConfig
	mu      sync.Mutex
	samples []Sample
	onGrow  func(Growth)
	stop    chan struct{}
	done    chan struct{}
}

// NewGrowthWatcher creates a watcher. onGrow, if set, is called from the
// sampling goroutine whenever the retained window looks suspect.
func NewGrowthWatcher(cfg WatchConfig, onGrow func(Growth)) *GrowthWatcher {
	cfg.setDefaults()
	return &GrowthWatcher{cfg: cfg, onGrow: onGrow}
}

// Take records a sample now and returns it.
func (w *GrowthWatcher) Take() Sample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s := Sample{
		Time:       time.Now(),
		HeapAlloc:  ms.HeapAlloc,
		HeapObjs:   ms.HeapObjects,
		Goroutines: runtime.NumGoroutine(),
	}
	if w.cfg.Elements != nil {
		s.Elements = w.cfg.Elements()
	}
	w.add(s)
	return s
}

func (w *GrowthWatcher) add(s Sample) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = append(w.samples, s)
	if over := len(w.samples) - w.cfg.Keep; over > 0 {
		w.samples = w.samples[over:]
	}
}

// Samples returns a copy of the retained samples, oldest first.
func (w *GrowthWatcher) Samples() []Sample {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Sample(nil), w.samples...)
}

// Analyze compares the oldest and newest samples. It returns false with
// fewer than two samples or a zero span.
func (w *GrowthWatcher) Analyze() (Growth, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.samples) < 2 {
		return Growth{}, false
	}
	return w.compare(w.samples[0], w.samples[len(w.samples)-1])
}

func (w *GrowthWatcher) compare(first, last Sample) (Growth, bool) {
	span := last.Time.Sub(first.Time)
	if span <= 0 {
		return Growth{}, false
	}
	g := Growth{
		Span:           span,
		HeapDelta:      int64(last.HeapAlloc) - int64(first.HeapAlloc),
		GoroutineDelta: last.Goroutines - first.Goroutines,
		ElementDelta:   last.Elements - first.Elements,
	}
	g.HeapRate = float64(g.HeapDelta) / span.Seconds()
	switch {
	case g.GoroutineDelta > w.cfg.GoroutineSlack:
		g.Suspect = true
		g.Reason = fmt.Sprintf("goroutines grew by %d (tolerated %d)", g.GoroutineDelta, w.cfg.GoroutineSlack)
	case g.HeapRate > w.cfg.HeapRate && g.ElementDelta <= 0:
		g.Suspect = true
		g.Reason = fmt.Sprintf("heap grew %s/s while the element count did not", FormatBytes(uint64(g.HeapRate)))
	}
	return g, true
}

// Start samples in a goroutine until Stop.
func (w *GrowthWatcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		return
	}
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.loop(w.stop, w.done)
}

// Stop ends sampling and waits for the goroutine.
func (w *GrowthWatcher) Stop() {
	w.mu.Lock()
	stop, done := w.stop, w.done
	w.stop, w.done = nil, nil
	w.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (w *GrowthWatcher) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()
	w.Take()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.Take()
			if g, ok := w.Analyze(); ok && g.Suspect && w.onGrow != nil {
				w.onGrow(g)
			}
		}
	}
}

// FormatBytes formats a byte count as a human-readable string.
func FormatBytes(bytes uint64) string {
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func (g Growth) String() string {
	status := "steady"
	if g.Suspect {
		status = "suspect: " + g.Reason
	}
	sign := ""
	heap := g.HeapDelta
	if heap < 0 {
		sign, heap = "-", -heap
	}
	return fmt.Sprintf("over %s: heap %s%s, goroutines %+d, elements %+d (%s)",
		g.Span.Round(time.Second), sign, FormatBytes(uint64(heap)), g.GoroutineDelta, g.ElementDelta, status)
}
