package chart

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// SlogAdapter wraps a *slog.Logger to implement the Logger interface.
// The pipeline accepts the same method set, so an adapter can be shared
// between the instance and its charts.
//
// Example:
//
//	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
//	opts := chart.DefaultOptions()
//	opts.Logger = chart.NewSlogAdapter(slog.New(handler))
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a Logger adapter from a *slog.Logger.
// If logger is nil, slog.Default() is used.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Debug logs a debug-level message with optional key-value pairs.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.logger.Debug(msg, args...) }

// Info logs an info-level message with optional key-value pairs.
func (s *SlogAdapter) Info(msg string, args ...any) { s.logger.Info(msg, args...) }

// Warn logs a warning-level message with optional key-value pairs.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.logger.Warn(msg, args...) }

// Error logs an error-level message with optional key-value pairs.
func (s *SlogAdapter) Error(msg string, args ...any) { s.logger.Error(msg, args...) }

// With returns an adapter that adds args to every record.
func (s *SlogAdapter) With(args ...any) *SlogAdapter {
	return &SlogAdapter{logger: s.logger.With(args...)}
}

// Enabled reports whether records at level are emitted.
func (s *SlogAdapter) Enabled(level slog.Level) bool {
	return s.logger.Enabled(context.Background(), level)
}

// DefaultLogger returns a Logger that writes text records at Info level
// to stderr. For more control, use NewSlogAdapter with a custom handler.
func DefaultLogger() Logger {
	return textLogger(os.Stderr, slog.LevelInfo, false)
}

// DebugLogger returns a Logger that writes text records at Debug level to
// stderr, including source locations.
func DebugLogger() Logger {
	return textLogger(os.Stderr, slog.LevelDebug, true)
}

func textLogger(w io.Writer, level slog.Level, source bool) *SlogAdapter {
	return &SlogAdapter{logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: source,
	}))}
}

// JSONLogger returns a Logger that outputs JSON-formatted logs.
// A nil w writes to stderr.
func JSONLogger(w io.Writer, level slog.Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	return &SlogAdapter{logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))}
}

// NopLogger returns a Logger that discards all log messages.
func NopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// withArgs returns a logger that prepends args to every call.
func withArgs(l Logger, args ...any) Logger {
	if s, ok := l.(*SlogAdapter); ok {
		return s.With(args...)
	}
	return argLogger{next: l, args: args}
}

type argLogger struct {
	next Logger
	args []any
}

func (a argLogger) join(args []any) []any {
	return append(append(make([]any, 0, len(a.args)+len(args)), a.args...), args...)
}

func (a argLogger) Debug(msg string, args ...any) { a.next.Debug(msg, a.join(args)...) }
func (a argLogger) Info(msg string, args ...any)  { a.next.Info(msg, a.join(args)...) }
func (a argLogger) Warn(msg string, args ...any)  { a.next.Warn(msg, a.join(args)...) }
func (a argLogger) Error(msg string, args ...any) { a.next.Error(msg, a.join(args)...) }
