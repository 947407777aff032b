package chart

import "time"

// Status is a point-in-time snapshot of a chart: its pipeline counters, the
// declaration it was built from and the size of its scene.
type Status struct {
	Running   bool
	StartTime time.Time
	// UpdateCount counts pipeline passes since Start.
	UpdateCount uint64
	LastError   error
	// ConfigSource is a file path, "embedded:<path>" or "reader".
	ConfigSource string
	// Sources holds the registered data source names.
	Sources []string
	// Components counts attached series, axis views and decorations.
	Components int
	// Elements counts visuals in the drawing layer.
	Elements int
}

// ErrorHandler receives pipeline and reload failures as *CategorizedError.
// Handlers run on their own goroutine and must not block.
type ErrorHandler func(err error)

// EventHandler receives chart lifecycle notifications. Handlers run on
// their own goroutine and must not block.
type EventHandler func(event Event)

// Event is a single lifecycle notification.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Message   string
}

// EventType identifies what happened to the chart.
type EventType int

const (
	// EventStarted follows a successful Start.
	EventStarted EventType = iota
	EventStopped
	// EventRestarted follows the Stop, reload and Start cycle of Restart.
	EventRestarted
	// EventConfigReloaded means the Lua declaration was re-evaluated and
	// the chart rebuilt from it.
	EventConfigReloaded
	// EventDataReloaded means watched data files changed and their sources
	// were reset.
	EventDataReloaded
	// EventError carries the message of a failure the chart survived.
	EventError
)

// String returns the snake_case name used in logs.
func (e EventType) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventRestarted:
		return "restarted"
	case EventConfigReloaded:
		return "config_reloaded"
	case EventDataReloaded:
		return "data_reloaded"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}
