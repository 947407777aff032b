package chart

import "time"

// HealthStatus represents the overall health state of a component.
type HealthStatus string

const (
	// HealthOK indicates the component is functioning normally.
	HealthOK HealthStatus = "ok"
	// HealthDegraded indicates partial functionality or non-critical issues.
	HealthDegraded HealthStatus = "degraded"
	// HealthUnhealthy indicates the component is not functioning.
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck contains the health status of the instance and its components.
type HealthCheck struct {
	Status    HealthStatus
	Timestamp time.Time
	// Uptime is the duration since the instance started (zero if not running).
	Uptime time.Duration
	// Components is keyed by "instance", "pipeline", "sources" and "errors".
	Components map[string]ComponentHealth
	Message    string
}

// ComponentHealth represents the health status of an individual component.
type ComponentHealth struct {
	Status      HealthStatus
	Message     string
	LastUpdated time.Time
}

// IsHealthy returns true if the overall status is HealthOK.
func (h HealthCheck) IsHealthy() bool { return h.Status == HealthOK }

// IsDegraded returns true if the overall status is HealthDegraded.
func (h HealthCheck) IsDegraded() bool { return h.Status == HealthDegraded }

// IsUnhealthy returns true if the overall status is HealthUnhealthy.
func (h HealthCheck) IsUnhealthy() bool { return h.Status == HealthUnhealthy }

// worst returns the most severe status among the components.
func worst(components map[string]ComponentHealth) HealthStatus {
	status := HealthOK
	for _, c := range components {
		switch {
		case c.Status == HealthUnhealthy:
			return HealthUnhealthy
		case c.Status == HealthDegraded:
			status = HealthDegraded
		}
	}
	return status
}
