package component

import "context"

// HealthStatus is a component's health state.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Health is one component's health report.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a piece of infrastructure with a lifecycle: the database,
// the cache, the token manager, the HTTP server.
type Component interface {
	Name() string
	// Start brings the component up. An error aborts startup.
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is a one-line summary for the startup log.
type Description struct {
	Name    string // display name, Name() when empty
	Type    string // database, redis, auth, server
	Details string // e.g. "localhost:6379 db=0"
}

// Describable components report a Description when started.
type Describable interface {
	Describe() Description
}

// Overall folds reports into one status: any unhealthy report wins, then
// any degraded one.
func Overall(reports []Health) HealthStatus {
	status := StatusHealthy
	for _, h := range reports {
		switch h.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}
