package chart

import "time"

// DefaultShutdownTimeout is the default timeout for graceful shutdown.
// This can be overridden via Options.ShutdownTimeout.
const DefaultShutdownTimeout = 5 * time.Second

// Options configures the Chart instance behavior.
type Options struct {
	// UpdateInterval overrides the declaration's update_interval. In
	// headless mode it bounds how long queued work may wait for a pass.
	// Zero means use the declaration's value.
	UpdateInterval time.Duration

	// WindowTitle overrides the window title.
	// Empty string means use the declaration's value.
	WindowTitle string

	// Headless runs the pipeline without creating a window. Elements are
	// kept in an in-memory layer; Status reports how many.
	Headless bool

	// StrictValidation turns validation warnings into errors.
	StrictValidation bool

	// ShutdownTimeout sets the maximum time to wait for graceful shutdown.
	// Zero means use DefaultShutdownTimeout (5 seconds).
	ShutdownTimeout time.Duration

	// Logger sets a custom logger. If nil, no logging is performed.
	Logger Logger

	// Metrics sets a custom metrics collector for operational metrics.
	// If nil, DefaultMetrics() is used.
	Metrics *Metrics

	// ErrorTracker records categorized runtime errors.
	// If nil, DefaultErrorTracker() is used.
	ErrorTracker *ErrorTracker

	// WatchConfig reloads the declaration in place when its file changes.
	// It has no effect for declarations loaded from an fs.FS or a reader.
	WatchConfig bool

	// WatchData resynchronizes data sources when their workbook files
	// change. Only changed files reset their source.
	WatchData bool

	// WatchDebounce sets the debounce interval for file change events.
	// Zero means use the default (500ms).
	WatchDebounce time.Duration
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		WatchConfig: true,
		WatchData:   true,
	}
}

// Logger interface for custom logging.
// It follows the slog-style signature for compatibility with Go's structured logging.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, args ...any)
	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, args ...any)
	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, args ...any)
	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, args ...any)
}
