package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/opd-ai/go-chart/internal/layout"
)

// Report is one configuration or data problem raised by a component.
type Report struct {
	Source     string
	Message    string
	Properties []string
}

// String implements fmt.Stringer.
func (r Report) String() string {
	if len(r.Properties) == 0 {
		return fmt.Sprintf("%s: %s", r.Source, r.Message)
	}
	return fmt.Sprintf("%s: %s [%s]", r.Source, r.Message, strings.Join(r.Properties, ", "))
}

// ReportHandler receives the reports raised while handling one Update.
type ReportHandler func(reports []Report)

// Logger is the structured logger used by the pipeline. It matches the
// Logger interface of the public chart package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// PassObserver is notified after every pass, successful or not.
type PassObserver interface {
	PassCompleted(kind layout.PassKind, elapsed time.Duration, err error)
}
