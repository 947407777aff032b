package chart

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/opd-ai/go-chart/internal/data"
	"github.com/opd-ai/go-chart/internal/pipeline"
)

// ErrorCategory classifies runtime errors for tracking and alerting.
type ErrorCategory int

const (
	// ErrorCategoryUnknown is the default category for uncategorized errors.
	ErrorCategoryUnknown ErrorCategory = iota
	// ErrorCategoryConfig is for declaration parsing and validation errors.
	ErrorCategoryConfig
	// ErrorCategoryData is for data source loading errors.
	ErrorCategoryData
	// ErrorCategoryLayout is for failed pipeline passes and component reports.
	ErrorCategoryLayout
	// ErrorCategoryRender is for window and drawing errors.
	ErrorCategoryRender
	// ErrorCategoryIO is for file watching and other I/O errors.
	ErrorCategoryIO

	numCategories
)

// String returns a human-readable name for the error category.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryConfig:
		return "config"
	case ErrorCategoryData:
		return "data"
	case ErrorCategoryLayout:
		return "layout"
	case ErrorCategoryRender:
		return "render"
	case ErrorCategoryIO:
		return "io"
	default:
		return "unknown"
	}
}

// ErrorSeverity indicates the severity level of an error.
type ErrorSeverity int

const (
	// SeverityInfo is for informational messages that don't require action.
	SeverityInfo ErrorSeverity = iota
	// SeverityWarning is for non-critical issues that should be investigated.
	SeverityWarning
	// SeverityError is for errors that affect functionality but allow continued operation.
	SeverityError
	// SeverityCritical is for errors that stop the instance.
	SeverityCritical
)

// String returns a human-readable name for the severity level.
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with metadata for tracking and alerting.
type CategorizedError struct {
	Err       error
	Category  ErrorCategory
	Severity  ErrorSeverity
	Timestamp time.Time
	// Context provides additional key-value metadata.
	Context map[string]string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s/%s] (no error)", e.Severity, e.Category)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Severity, e.Category, e.Err.Error())
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorizedError creates a new CategorizedError with the given parameters.
func NewCategorizedError(err error, category ErrorCategory, severity ErrorSeverity) *CategorizedError {
	return &CategorizedError{
		Err:       err,
		Category:  category,
		Severity:  severity,
		Timestamp: time.Now(),
		Context:   make(map[string]string),
	}
}

// WithContext adds a key-value pair to the error context and returns the error.
func (e *CategorizedError) WithContext(key, value string) *CategorizedError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// Categorize wraps err, deriving its category from the errors it wraps.
// An error that is already categorized is returned unchanged.
func Categorize(err error, severity ErrorSeverity) *CategorizedError {
	var ce *CategorizedError
	if errors.As(err, &ce) {
		return ce
	}
	category := ErrorCategoryUnknown
	var re *ReportError
	switch {
	case errors.Is(err, data.ErrUnsupportedFormat):
		category = ErrorCategoryData
	case errors.As(err, &re):
		category = ErrorCategoryLayout
	}
	return NewCategorizedError(err, category, severity)
}

// ReportError is a batch of component reports delivered as an error.
type ReportError struct {
	Reports []pipeline.Report
}

func (e *ReportError) Error() string {
	if len(e.Reports) == 1 {
		return e.Reports[0].String()
	}
	return fmt.Sprintf("%s (and %d more reports)", e.Reports[0], len(e.Reports)-1)
}

// AlertCondition defines when an alert should be triggered.
type AlertCondition struct {
	// Category filters alerts to a specific error category.
	// Use ErrorCategoryUnknown to match all categories.
	Category ErrorCategory
	// MinSeverity is the minimum severity level to trigger the alert.
	MinSeverity ErrorSeverity
	// Threshold is the number of errors within the window to trigger.
	Threshold int
	// Window is the time window for counting errors.
	Window time.Duration
}

func (c AlertCondition) matches(e CategorizedError, cutoff time.Time) bool {
	return !e.Timestamp.Before(cutoff) &&
		(c.Category == ErrorCategoryUnknown || e.Category == c.Category) &&
		e.Severity >= c.MinSeverity
}

// AlertHandler is called when an alert condition is met. Handlers run in
// their own goroutine; panics are recovered.
type AlertHandler func(condition AlertCondition, errorCount int, recent []CategorizedError)

// ErrorTracker keeps a bounded window of recent errors and fires alerts
// when a condition's threshold is reached. Thread-safe for concurrent use.
type ErrorTracker struct {
	mu        sync.RWMutex
	errors    []CategorizedError
	maxErrors int
	retention time.Duration
	cooldown  time.Duration

	conditions []AlertCondition
	handlers   []AlertHandler
	lastAlert  map[int]time.Time
	totals     [numCategories]int64
}

// ErrorTrackerConfig configures an ErrorTracker.
type ErrorTrackerConfig struct {
	// MaxErrors is the maximum number of errors to retain (default: 1000).
	MaxErrors int
	// RetentionTime is how long to retain errors (default: 1 hour).
	RetentionTime time.Duration
	// AlertCooldown is the minimum time between repeated alerts (default: 5 minutes).
	AlertCooldown time.Duration
}

// DefaultErrorTrackerConfig returns a configuration with sensible defaults.
func DefaultErrorTrackerConfig() ErrorTrackerConfig {
	return ErrorTrackerConfig{
		MaxErrors:     1000,
		RetentionTime: time.Hour,
		AlertCooldown: 5 * time.Minute,
	}
}

// NewErrorTracker creates a new ErrorTracker with the given configuration.
func NewErrorTracker(cfg ErrorTrackerConfig) *ErrorTracker {
	def := DefaultErrorTrackerConfig()
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = def.MaxErrors
	}
	if cfg.RetentionTime <= 0 {
		cfg.RetentionTime = def.RetentionTime
	}
	if cfg.AlertCooldown <= 0 {
		cfg.AlertCooldown = def.AlertCooldown
	}
	return &ErrorTracker{
		maxErrors: cfg.MaxErrors,
		retention: cfg.RetentionTime,
		cooldown:  cfg.AlertCooldown,
		lastAlert: make(map[int]time.Time),
	}
}

// AddCondition registers an alert condition to monitor.
func (t *ErrorTracker) AddCondition(cond AlertCondition) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conditions = append(t.conditions, cond)
}

// SetAlertHandler registers a handler for all alert conditions.
// Multiple handlers can be registered by calling this method multiple times.
func (t *ErrorTracker) SetAlertHandler(handler AlertHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, handler)
}

// Record adds an error to the tracker and checks alert conditions.
func (t *ErrorTracker) Record(err *CategorizedError) {
	if err == nil {
		return
	}
	now := time.Now()

	t.mu.Lock()
	if err.Category >= 0 && err.Category < numCategories {
		t.totals[err.Category]++
	}
	t.errors = append(t.errors, *err)
	if len(t.errors) > t.maxErrors {
		t.errors = t.errors[len(t.errors)-t.maxErrors:]
	}
	cutoff := now.Add(-t.retention)
	if i := slices.IndexFunc(t.errors, func(e CategorizedError) bool { return e.Timestamp.After(cutoff) }); i > 0 {
		t.errors = t.errors[i:]
	} else if i < 0 {
		t.errors = t.errors[:0]
	}

	type alert struct {
		cond   AlertCondition
		count  int
		recent []CategorizedError
	}
	var alerts []alert
	for i, cond := range t.conditions {
		if last, ok := t.lastAlert[i]; ok && now.Sub(last) < t.cooldown {
			continue
		}
		a := alert{cond: cond}
		windowStart := now.Add(-cond.Window)
		for _, e := range t.errors {
			if cond.matches(e, windowStart) {
				a.count++
				if len(a.recent) < 10 {
					a.recent = append(a.recent, e)
				}
			}
		}
		if a.count >= cond.Threshold {
			t.lastAlert[i] = now
			alerts = append(alerts, a)
		}
	}
	handlers := slices.Clone(t.handlers)
	t.mu.Unlock()

	for _, a := range alerts {
		for _, h := range handlers {
			go func() {
				defer func() { _ = recover() }()
				h(a.cond, a.count, a.recent)
			}()
		}
	}
}

// ErrorRate returns errors per second within window, optionally limited to
// one category (ErrorCategoryUnknown matches all).
func (t *ErrorTracker) ErrorRate(category ErrorCategory, window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	cond := AlertCondition{Category: category}
	cutoff := time.Now().Add(-window)
	count := 0
	for _, e := range t.errors {
		if cond.matches(e, cutoff) {
			count++
		}
	}
	return float64(count) / window.Seconds()
}

// RecentErrors returns the most recent errors, up to limit, oldest first.
func (t *ErrorTracker) RecentErrors(limit int) []CategorizedError {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if limit <= 0 || len(t.errors) == 0 {
		return nil
	}
	start := max(len(t.errors)-limit, 0)
	return slices.Clone(t.errors[start:])
}

// Totals returns the lifetime number of errors recorded per category.
func (t *ErrorTracker) Totals() map[ErrorCategory]int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[ErrorCategory]int64)
	for c, n := range t.totals {
		if n > 0 {
			out[ErrorCategory(c)] = n
		}
	}
	return out
}

// Clear removes all tracked errors and alert cooldowns.
func (t *ErrorTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = t.errors[:0]
	t.lastAlert = make(map[int]time.Time)
}

var (
	defaultErrorTracker     *ErrorTracker
	defaultErrorTrackerOnce sync.Once
)

// DefaultErrorTracker returns the global default ErrorTracker instance.
func DefaultErrorTracker() *ErrorTracker {
	defaultErrorTrackerOnce.Do(func() {
		defaultErrorTracker = NewErrorTracker(DefaultErrorTrackerConfig())
	})
	return defaultErrorTracker
}
