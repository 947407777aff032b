package chart

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-chart/internal/config"
	"github.com/opd-ai/go-chart/internal/data"
	"github.com/opd-ai/go-chart/internal/geom"
	"github.com/opd-ai/go-chart/internal/pipeline"
	"github.com/opd-ai/go-chart/internal/visual"
)

// defaultUpdateInterval is the headless tick when neither the options nor
// the declaration set one.
const defaultUpdateInterval = time.Second

// window is the on-screen host of a running chart.
type window interface {
	apply(cfg *config.Config)
}

// errBox keeps atomic.Value stores of a single concrete type.
type errBox struct{ err error }

// chartImpl is the private implementation of the Chart interface.
type chartImpl struct {
	// Configuration
	cfg          *config.Config
	opts         Options
	configSource string
	configPath   string // absolute path of a declaration on disk, else empty
	configLoader func() (*config.Config, error)

	// Components
	registry *data.Registry
	metrics  *Metrics
	tracker  *ErrorTracker
	breaker  *CircuitBreaker
	log      Logger
	layer    visual.Layer
	watcher  *fileWatcher
	window   window

	// hostMu serializes the update thread against pipeline swaps.
	hostMu sync.Mutex
	pipe   *pipeline.Chart
	slots  []int
	size   geom.Size
	wake   chan struct{}

	// State
	running     atomic.Bool
	startTime   time.Time
	updateCount atomic.Uint64
	lastError   atomic.Value // stores errBox

	// Handlers
	errorHandler ErrorHandler
	eventHandler EventHandler

	// Synchronization
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Verify interface implementation at compile time.
var _ Chart = (*chartImpl)(nil)

func newChart(cfg *config.Config, opts *Options, source, path string, loader func() (*config.Config, error)) *chartImpl {
	c := &chartImpl{
		cfg:          cfg,
		configSource: source,
		configPath:   path,
		configLoader: loader,
		registry:     data.NewRegistry(),
		wake:         make(chan struct{}, 1),
	}
	if opts != nil {
		c.opts = *opts
	}
	c.log = c.opts.Logger
	if c.log == nil {
		c.log = NopLogger()
	}
	c.metrics = c.opts.Metrics
	if c.metrics == nil {
		c.metrics = DefaultMetrics()
	}
	c.tracker = c.opts.ErrorTracker
	if c.tracker == nil {
		c.tracker = DefaultErrorTracker()
	}
	c.breaker = NewCircuitBreaker(CircuitBreakerConfig{
		OnStateChange: func(from, to CircuitState) {
			c.log.Warn("data reload circuit changed state", "from", from, "to", to)
		},
	})
	return c
}

// Start loads the sources and begins the update loop.
func (c *chartImpl) Start() error {
	c.mu.Lock()

	if c.running.Load() {
		c.mu.Unlock()
		return fmt.Errorf("chart instance already running")
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())

	if err := c.initComponents(); err != nil {
		c.cancel()
		c.mu.Unlock()
		return fmt.Errorf("failed to initialize: %w", err)
	}

	// Set running state BEFORE starting goroutine to avoid race
	c.running.Store(true)
	c.startTime = time.Now()
	c.updateCount.Store(0)
	ctx := c.ctx

	c.metrics.IncrementStarts()
	c.metrics.SetRunning(true)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.cleanup()
		defer c.running.Store(false)
		defer c.metrics.SetRunning(false)

		if c.opts.Headless {
			c.runHeadless(ctx)
		} else {
			c.runRenderLoop()
			// The window may have been closed by the user.
			c.cancel()
		}

		c.emitEvent(EventStopped, "Instance stopped")
	}()

	c.mu.Unlock()

	c.emitEvent(EventStarted, "Instance started")
	return nil
}

// Stop gracefully shuts down the instance.
func (c *chartImpl) Stop() error {
	if !c.running.Load() {
		return nil
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	timeout := c.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	select {
	case <-done:
		c.metrics.IncrementStops()
		return nil
	case <-time.After(timeout):
		err := fmt.Errorf("shutdown timeout after %v: some goroutines did not stop", timeout)
		c.fail(err, ErrorCategoryUnknown, SeverityCritical)
		return err
	}
}

// Restart performs a stop followed by a start.
func (c *chartImpl) Restart() error {
	if err := c.Stop(); err != nil {
		return fmt.Errorf("stop failed: %w", err)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
	c.emitEvent(EventConfigReloaded, "Configuration reloaded")

	if err := c.Start(); err != nil {
		wrapped := fmt.Errorf("start failed: %w", err)
		c.fail(wrapped, ErrorCategoryUnknown, SeverityCritical)
		return wrapped
	}

	c.metrics.IncrementRestarts()
	c.emitEvent(EventRestarted, "Instance restarted")
	return nil
}

// ReloadConfig rebuilds the chart from a fresh declaration. Sources whose
// contents did not change keep their items, so only changed data forces
// work beyond the rebuild itself.
func (c *chartImpl) ReloadConfig() error {
	if !c.running.Load() {
		return fmt.Errorf("chart instance not running")
	}

	c.mu.RLock()
	ctx := c.ctx
	c.mu.RUnlock()
	id := NewCorrelationID()
	ctx = WithCorrelationID(ctx, id)
	log := CorrelatedLogger(ctx, c.log)

	cfg, err := c.loadConfig()
	if err != nil {
		log.Warn("reload rejected; keeping the current chart", "error", err)
		return err
	}

	changed, err := c.syncSources(ctx, cfg)
	if err != nil {
		wrapped := fmt.Errorf("config reload failed: %w", err)
		c.fail(wrapped, ErrorCategoryData, SeverityError)
		return wrapped
	}

	c.mu.Lock()
	c.cfg = cfg
	win := c.window
	c.mu.Unlock()

	c.rebuild(cfg)
	if win != nil {
		win.apply(cfg)
	}
	c.refreshWatch()

	log.Info("configuration reloaded", "changed_sources", changed, "components", len(c.slotsSnapshot()))
	c.metrics.IncrementConfigReloads()
	c.emitEvent(EventConfigReloaded, "Configuration reloaded in-place")
	return nil
}

// loadConfig reads and validates the declaration.
func (c *chartImpl) loadConfig() (*config.Config, error) {
	if c.configLoader == nil {
		return nil, fmt.Errorf("no config loader available")
	}
	cfg, err := c.configLoader()
	if err != nil {
		wrapped := fmt.Errorf("config reload failed: %w", err)
		c.fail(wrapped, ErrorCategoryConfig, SeverityError)
		return nil, wrapped
	}
	if err := c.validate(cfg); err != nil {
		wrapped := fmt.Errorf("config reload failed: %w", err)
		c.fail(wrapped, ErrorCategoryConfig, SeverityError)
		return nil, wrapped
	}
	return cfg, nil
}

func (c *chartImpl) validate(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}
	result := config.NewValidator().
		WithStrictMode(c.opts.StrictValidation).
		WithFileChecks(true).
		Validate(cfg)
	for _, w := range result.Warnings {
		c.log.Warn("configuration warning", "field", w.Field, "message", w.Message)
	}
	return result.Error()
}

// syncSources brings the registry in line with cfg and records the load
// latency.
func (c *chartImpl) syncSources(ctx context.Context, cfg *config.Config) ([]string, error) {
	start := time.Now()
	changed, err := c.registry.Sync(ctx, cfg.SourceSpecs())
	if err != nil {
		return nil, err
	}
	c.metrics.RecordLoadLatency(time.Since(start))
	return changed, nil
}

// reloadData re-reads the workbooks after a file change. Repeated
// failures open the circuit so a file that is still being written is not
// re-read on every event.
func (c *chartImpl) reloadData() {
	c.mu.RLock()
	ctx, cfg := c.ctx, c.cfg
	c.mu.RUnlock()

	var changed []string
	err := c.breaker.Execute(func() error {
		var err error
		changed, err = c.syncSources(ctx, cfg)
		return err
	})
	switch {
	case errors.Is(err, ErrCircuitOpen):
		c.log.Debug("data reload skipped", "state", c.breaker.State())
		return
	case err != nil:
		c.fail(fmt.Errorf("data reload failed: %w", err), ErrorCategoryData, SeverityWarning)
		return
	}
	if len(changed) == 0 {
		return
	}
	c.metrics.IncrementDataReloads()
	c.emitEvent(EventDataReloaded, "Data reloaded: "+strings.Join(changed, ", "))
}

// IsRunning returns true if the instance is currently running.
func (c *chartImpl) IsRunning() bool {
	return c.running.Load()
}

// Status returns detailed status information about the instance.
func (c *chartImpl) Status() Status {
	c.mu.RLock()
	startTime := c.startTime
	configSource := c.configSource
	layer := c.layer
	c.mu.RUnlock()

	st := Status{
		Running:      c.running.Load(),
		StartTime:    startTime,
		UpdateCount:  c.updateCount.Load(),
		LastError:    c.getError(),
		ConfigSource: configSource,
		Sources:      c.registry.Names(),
		Components:   len(c.slotsSnapshot()),
	}
	if l, ok := layer.(interface{ Len() int }); ok {
		st.Elements = l.Len()
	}
	return st
}

// Append adds rows to the end of a source.
func (c *chartImpl) Append(source string, rows ...map[string]any) error {
	src, ok := c.registry.Source(source)
	if !ok {
		return fmt.Errorf("unknown source %q", source)
	}
	src.Append(items(rows)...)
	return nil
}

// Replace swaps the contents of a source.
func (c *chartImpl) Replace(source string, rows []map[string]any) error {
	src, ok := c.registry.Source(source)
	if !ok {
		return fmt.Errorf("unknown source %q", source)
	}
	src.Reset(items(rows))
	return nil
}

func items(rows []map[string]any) []data.Item {
	out := make([]data.Item, len(rows))
	for i, r := range rows {
		out[i] = data.Item(r)
	}
	return out
}

// SetAxisLimits fixes an axis' limits on the running chart.
func (c *chartImpl) SetAxisLimits(axis string, minimum, maximum float64) error {
	c.hostMu.Lock()
	defer c.hostMu.Unlock()
	if c.pipe == nil {
		return fmt.Errorf("chart instance not running")
	}
	if _, ok := c.pipe.Axis(axis); !ok {
		return fmt.Errorf("unknown axis %q", axis)
	}
	c.pipe.SetAxisLimits(axis, minimum, maximum)
	return nil
}

// SetErrorHandler registers a callback for runtime errors.
func (c *chartImpl) SetErrorHandler(handler ErrorHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorHandler = handler
}

// SetEventHandler registers a callback for lifecycle events.
func (c *chartImpl) SetEventHandler(handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventHandler = handler
}

// initComponents validates the declaration, loads its sources and builds
// the first pipeline. Called with c.mu held.
func (c *chartImpl) initComponents() error {
	if err := c.validate(c.cfg); err != nil {
		return err
	}
	if _, err := c.syncSources(c.ctx, c.cfg); err != nil {
		return fmt.Errorf("load sources: %w", err)
	}

	c.layer = newLayer(c.opts.Headless)
	c.hostMu.Lock()
	c.size = geom.Size{}
	if c.opts.Headless {
		c.size = geom.Size{W: float64(c.cfg.Window.Width), H: float64(c.cfg.Window.Height)}
	}
	c.hostMu.Unlock()
	c.rebuild(c.cfg)

	if c.opts.WatchConfig || c.opts.WatchData {
		w, err := newFileWatcher(c.watchedFiles(), c.opts.WatchDebounce, c.onFilesChanged, func(err error) {
			c.fail(fmt.Errorf("watch: %w", err), ErrorCategoryIO, SeverityWarning)
		})
		if err != nil {
			// Watching is best effort; the chart still runs.
			c.log.Warn("file watching disabled", "error", err)
		} else {
			c.watcher = w
			w.Start()
		}
	}
	return nil
}

// rebuild replaces the pipeline with one built from cfg on the same layer
// and size. The old pipeline's elements are detached first.
func (c *chartImpl) rebuild(cfg *config.Config) {
	c.hostMu.Lock()
	defer c.hostMu.Unlock()
	if c.pipe != nil {
		c.pipe.Close()
	}
	p := pipeline.New(pipeline.Options{
		Layer:    c.layer,
		Sources:  c.registry,
		Logger:   c.log,
		Observer: c.metrics,
		OnReport: c.onReports,
		Padding:  cfg.Window.Padding,
	})
	c.slots = config.Build(cfg, p)
	if !c.size.Empty() {
		p.SetSize(c.size)
	}
	c.pipe = p
	c.metrics.SetShape(len(c.registry.Names()), len(c.slots))

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *chartImpl) slotsSnapshot() []int {
	c.hostMu.Lock()
	defer c.hostMu.Unlock()
	return slices.Clone(c.slots)
}

// update runs the pending passes. It is the update thread's entry point.
func (c *chartImpl) update() error {
	c.hostMu.Lock()
	defer c.hostMu.Unlock()
	if c.pipe == nil {
		return nil
	}
	c.updateCount.Add(1)
	c.metrics.IncrementUpdateCycles()
	if err := c.pipe.Update(); err != nil {
		return NewCategorizedError(err, ErrorCategoryLayout, SeverityError)
	}
	return nil
}

func (c *chartImpl) setSize(size geom.Size) {
	c.hostMu.Lock()
	defer c.hostMu.Unlock()
	c.size = size
	if c.pipe != nil {
		c.pipe.SetSize(size)
	}
}

// ready returns the channel signalled when the current pipeline has
// queued work.
func (c *chartImpl) ready() <-chan struct{} {
	c.hostMu.Lock()
	defer c.hostMu.Unlock()
	if c.pipe == nil {
		return nil
	}
	return c.pipe.Dispatcher().Ready()
}

// runHeadless drives the pipeline without a window: promptly when work
// is posted and at least once per update interval.
func (c *chartImpl) runHeadless(ctx context.Context) {
	ticker := time.NewTicker(c.updateInterval())
	defer ticker.Stop()
	for {
		if err := c.update(); err != nil {
			c.fail(err, ErrorCategoryLayout, SeverityError)
		}
		select {
		case <-ctx.Done():
			return
		case <-c.ready():
		case <-c.wake:
		case <-ticker.C:
		}
	}
}

func (c *chartImpl) updateInterval() time.Duration {
	if c.opts.UpdateInterval > 0 {
		return c.opts.UpdateInterval
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cfg != nil && c.cfg.Window.UpdateInterval > 0 {
		return c.cfg.Window.UpdateInterval
	}
	return defaultUpdateInterval
}

// onReports forwards a batch of component reports as one layout warning.
func (c *chartImpl) onReports(reports []pipeline.Report) {
	c.metrics.AddReports(len(reports))
	for _, r := range reports {
		c.log.Warn("component report", "source", r.Source, "message", r.Message, "properties", r.Properties)
	}
	c.notifyError(Categorize(&ReportError{Reports: reports}, SeverityWarning))
}

// watchedFiles returns the declaration file and data files to watch.
func (c *chartImpl) watchedFiles() []string {
	var files []string
	if c.opts.WatchConfig && c.configPath != "" {
		files = append(files, c.configPath)
	}
	if c.opts.WatchData {
		files = append(files, c.registry.Files()...)
	}
	return files
}

// refreshWatch follows the data files a reloaded declaration names.
func (c *chartImpl) refreshWatch() {
	c.mu.RLock()
	w := c.watcher
	c.mu.RUnlock()
	if w == nil {
		return
	}
	if err := w.SetFiles(c.watchedFiles()); err != nil {
		c.fail(fmt.Errorf("watch: %w", err), ErrorCategoryIO, SeverityWarning)
	}
}

func (c *chartImpl) onFilesChanged(paths []string) {
	if c.configPath != "" && slices.Contains(paths, filepath.Clean(c.configPath)) {
		// A reload also resyncs every data file.
		if err := c.ReloadConfig(); err != nil {
			c.log.Error("reload after file change failed", "error", err)
		}
		return
	}
	c.reloadData()
}

// cleanup releases all resources.
func (c *chartImpl) cleanup() {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.window = nil
	c.mu.Unlock()
	if w != nil {
		w.Stop()
	}

	c.hostMu.Lock()
	if c.pipe != nil {
		c.pipe.Close()
		c.pipe = nil
	}
	c.slots = nil
	c.hostMu.Unlock()
	c.metrics.SetShape(0, 0)
}

// getError retrieves the last error.
func (c *chartImpl) getError() error {
	if v, ok := c.lastError.Load().(errBox); ok {
		return v.err
	}
	return nil
}

// fail categorizes err, using category when nothing more specific is
// known, and reports it.
func (c *chartImpl) fail(err error, category ErrorCategory, severity ErrorSeverity) {
	ce := Categorize(err, severity)
	if ce.Category == ErrorCategoryUnknown {
		ce.Category = category
	}
	c.notifyError(ce)
}

// notifyError stores an error and invokes the error handler if registered.
func (c *chartImpl) notifyError(err *CategorizedError) {
	c.lastError.Store(errBox{err: err})
	c.metrics.IncrementErrors()
	c.tracker.Record(err)

	c.mu.RLock()
	handler := c.errorHandler
	c.mu.RUnlock()

	if handler != nil {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					c.log.Error("error handler panicked", "panic", r, "original_error", err)
				}
			}()
			handler(err)
		}()
	}

	c.emitEvent(EventError, err.Error())
}

// emitEvent sends an event to the event handler if configured.
func (c *chartImpl) emitEvent(eventType EventType, message string) {
	c.metrics.IncrementEventsEmitted()

	c.mu.RLock()
	handler := c.eventHandler
	c.mu.RUnlock()

	if handler == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.mu.RLock()
				errHandler := c.errorHandler
				c.mu.RUnlock()
				if errHandler != nil {
					if err, ok := r.(error); ok {
						errHandler(fmt.Errorf("panic in event handler: %w", err))
					} else {
						errHandler(fmt.Errorf("panic in event handler: %v", r))
					}
				}
			}
		}()
		handler(Event{Type: eventType, Timestamp: time.Now(), Message: message})
	}()
}

// Health returns a health check result for the instance.
func (c *chartImpl) Health() HealthCheck {
	now := time.Now()
	components := make(map[string]ComponentHealth)
	running := c.running.Load()

	var uptime time.Duration
	c.mu.RLock()
	if running && !c.startTime.IsZero() {
		uptime = now.Sub(c.startTime)
	}
	c.mu.RUnlock()

	if running {
		components["instance"] = ComponentHealth{Status: HealthOK, Message: "Instance is running", LastUpdated: now}
	} else {
		components["instance"] = ComponentHealth{Status: HealthUnhealthy, Message: "Instance is not running", LastUpdated: now}
	}

	c.hostMu.Lock()
	built := c.pipe != nil
	slots := len(c.slots)
	c.hostMu.Unlock()
	switch {
	case built && running:
		components["pipeline"] = ComponentHealth{
			Status:      HealthOK,
			Message:     fmt.Sprintf("%d components, %d updates completed", slots, c.updateCount.Load()),
			LastUpdated: now,
		}
	case built:
		components["pipeline"] = ComponentHealth{Status: HealthDegraded, Message: "Pipeline built but not updating", LastUpdated: now}
	default:
		components["pipeline"] = ComponentHealth{Status: HealthUnhealthy, Message: "Pipeline not built", LastUpdated: now}
	}

	switch state := c.breaker.State(); state {
	case CircuitClosed:
		components["sources"] = ComponentHealth{
			Status:      HealthOK,
			Message:     fmt.Sprintf("%d sources loaded", len(c.registry.Names())),
			LastUpdated: now,
		}
	default:
		components["sources"] = ComponentHealth{
			Status:      HealthDegraded,
			Message:     fmt.Sprintf("Data reloads failing (circuit %s)", state),
			LastUpdated: now,
		}
	}

	lastErr := c.getError()
	if lastErr != nil {
		components["errors"] = ComponentHealth{Status: HealthDegraded, Message: lastErr.Error(), LastUpdated: now}
	} else {
		components["errors"] = ComponentHealth{Status: HealthOK, Message: "No recent errors", LastUpdated: now}
	}

	var status HealthStatus
	var message string
	switch {
	case !running:
		status = HealthUnhealthy
		message = "Instance is not running"
	default:
		status = worst(components)
		if status == HealthOK {
			message = "All components healthy"
		} else {
			message = "Running with degraded components"
		}
	}

	return HealthCheck{
		Status:     status,
		Timestamp:  now,
		Uptime:     uptime,
		Components: components,
		Message:    message,
	}
}

// Metrics returns the metrics collector for this instance.
func (c *chartImpl) Metrics() *Metrics {
	return c.metrics
}
