package chart

import (
	"expvar"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-chart/internal/layout"
)

// passKinds is the number of layout.PassKind values tracked.
const passKinds = int(layout.Component) + 1

// Metrics collects operational metrics of a chart instance. It implements
// pipeline.PassObserver, so every pass a chart runs is counted and timed.
// Metrics are exposed through expvar by RegisterExpvar.
//
// Thread-safe for concurrent use.
type Metrics struct {
	starts        atomic.Int64
	stops         atomic.Int64
	restarts      atomic.Int64
	configReloads atomic.Int64
	dataReloads   atomic.Int64
	updateCycles  atomic.Int64
	errorsTotal   atomic.Int64
	eventsEmitted atomic.Int64
	reports       atomic.Int64
	passFailures  atomic.Int64

	passCount   [passKinds]atomic.Int64
	passLatency [passKinds]atomic.Int64 // nanoseconds

	loadLatencyNs    atomic.Int64
	loadLatencyCount atomic.Int64

	running    atomic.Int32
	sources    atomic.Int32
	components atomic.Int32

	registered atomic.Bool
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RegisterExpvar publishes the metrics under the chart_ prefix. This makes
// them available at /debug/vars when an HTTP server is running. Safe to
// call multiple times; subsequent calls are no-ops.
func (m *Metrics) RegisterExpvar() {
	if m.registered.Swap(true) {
		return
	}
	counters := map[string]*atomic.Int64{
		"chart_starts_total":         &m.starts,
		"chart_stops_total":          &m.stops,
		"chart_restarts_total":       &m.restarts,
		"chart_config_reloads_total": &m.configReloads,
		"chart_data_reloads_total":   &m.dataReloads,
		"chart_update_cycles_total":  &m.updateCycles,
		"chart_errors_total":         &m.errorsTotal,
		"chart_events_emitted_total": &m.eventsEmitted,
		"chart_reports_total":        &m.reports,
		"chart_pass_failures_total":  &m.passFailures,
	}
	for name, c := range counters {
		expvar.Publish(name, expvar.Func(func() any { return c.Load() }))
	}
	expvar.Publish("chart_running", expvar.Func(func() any { return m.running.Load() }))
	expvar.Publish("chart_sources", expvar.Func(func() any { return m.sources.Load() }))
	expvar.Publish("chart_components", expvar.Func(func() any { return m.components.Load() }))
	expvar.Publish("chart_passes", expvar.Func(func() any {
		out := make(map[string]int64, passKinds)
		for k := range passKinds {
			out[layout.PassKind(k).String()] = m.passCount[k].Load()
		}
		return out
	}))
	expvar.Publish("chart_pass_latency_avg_ms", expvar.Func(func() any {
		out := make(map[string]float64, passKinds)
		for k := range passKinds {
			out[layout.PassKind(k).String()] = float64(m.passAverage(k)) / 1e6
		}
		return out
	}))
	expvar.Publish("chart_load_latency_avg_ms", expvar.Func(func() any {
		return float64(safeDivide(m.loadLatencyNs.Load(), m.loadLatencyCount.Load())) / 1e6
	}))
}

// PassCompleted records one pipeline pass.
func (m *Metrics) PassCompleted(kind layout.PassKind, elapsed time.Duration, err error) {
	if k := int(kind); k >= 0 && k < passKinds {
		m.passCount[k].Add(1)
		m.passLatency[k].Add(elapsed.Nanoseconds())
	}
	if err != nil {
		m.passFailures.Add(1)
	}
}

func (m *Metrics) passAverage(k int) time.Duration {
	return safeDivide(m.passLatency[k].Load(), m.passCount[k].Load())
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Starts:         m.starts.Load(),
		Stops:          m.stops.Load(),
		Restarts:       m.restarts.Load(),
		ConfigReloads:  m.configReloads.Load(),
		DataReloads:    m.dataReloads.Load(),
		UpdateCycles:   m.updateCycles.Load(),
		ErrorsTotal:    m.errorsTotal.Load(),
		EventsEmitted:  m.eventsEmitted.Load(),
		Reports:        m.reports.Load(),
		PassFailures:   m.passFailures.Load(),
		Running:        m.running.Load() > 0,
		Sources:        int(m.sources.Load()),
		Components:     int(m.components.Load()),
		Passes:         make(map[layout.PassKind]int64, passKinds),
		PassLatencyAvg: make(map[layout.PassKind]time.Duration, passKinds),
		LoadLatencyAvg: safeDivide(m.loadLatencyNs.Load(), m.loadLatencyCount.Load()),
	}
	for k := range passKinds {
		if n := m.passCount[k].Load(); n > 0 {
			s.Passes[layout.PassKind(k)] = n
			s.PassLatencyAvg[layout.PassKind(k)] = m.passAverage(k)
		}
	}
	return s
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	Starts        int64
	Stops         int64
	Restarts      int64
	ConfigReloads int64
	DataReloads   int64
	UpdateCycles  int64
	ErrorsTotal   int64
	EventsEmitted int64
	Reports       int64
	PassFailures  int64

	Running    bool
	Sources    int
	Components int

	// Passes counts passes by kind; kinds that never ran are absent.
	Passes         map[layout.PassKind]int64
	PassLatencyAvg map[layout.PassKind]time.Duration
	LoadLatencyAvg time.Duration
}

// IncrementStarts records a start operation.
func (m *Metrics) IncrementStarts() { m.starts.Add(1) }

// IncrementStops records a stop operation.
func (m *Metrics) IncrementStops() { m.stops.Add(1) }

// IncrementRestarts records a restart operation.
func (m *Metrics) IncrementRestarts() { m.restarts.Add(1) }

// IncrementConfigReloads records a declaration reload.
func (m *Metrics) IncrementConfigReloads() { m.configReloads.Add(1) }

// IncrementDataReloads records a data source resynchronization that
// changed at least one source.
func (m *Metrics) IncrementDataReloads() { m.dataReloads.Add(1) }

// IncrementUpdateCycles records a chart update.
func (m *Metrics) IncrementUpdateCycles() { m.updateCycles.Add(1) }

// IncrementErrors records an error occurrence.
func (m *Metrics) IncrementErrors() { m.errorsTotal.Add(1) }

// IncrementEventsEmitted records an event emission.
func (m *Metrics) IncrementEventsEmitted() { m.eventsEmitted.Add(1) }

// AddReports records delivered component reports.
func (m *Metrics) AddReports(n int) { m.reports.Add(int64(n)) }

// SetRunning updates the running state gauge.
func (m *Metrics) SetRunning(running bool) {
	if running {
		m.running.Store(1)
	} else {
		m.running.Store(0)
	}
}

// SetShape records the number of sources and components of the current chart.
func (m *Metrics) SetShape(sources, components int) {
	m.sources.Store(int32(sources))
	m.components.Store(int32(components))
}

// RecordLoadLatency records how long loading the data sources took.
func (m *Metrics) RecordLoadLatency(d time.Duration) {
	m.loadLatencyNs.Add(d.Nanoseconds())
	m.loadLatencyCount.Add(1)
}

// Reset clears all metrics. Useful for testing.
func (m *Metrics) Reset() {
	for _, c := range []*atomic.Int64{
		&m.starts, &m.stops, &m.restarts, &m.configReloads, &m.dataReloads,
		&m.updateCycles, &m.errorsTotal, &m.eventsEmitted, &m.reports, &m.passFailures,
		&m.loadLatencyNs, &m.loadLatencyCount,
	} {
		c.Store(0)
	}
	for k := range passKinds {
		m.passCount[k].Store(0)
		m.passLatency[k].Store(0)
	}
	m.running.Store(0)
	m.sources.Store(0)
	m.components.Store(0)
}

// safeDivide performs safe division, returning 0 for divide by zero.
func safeDivide(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total / count)
}

var defaultMetrics = NewMetrics()

// DefaultMetrics returns the global default Metrics instance.
func DefaultMetrics() *Metrics {
	return defaultMetrics
}
