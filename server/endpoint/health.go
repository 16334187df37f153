package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/todoapi/component"
	"github.com/kbukum/todoapi/logger"
)

// HealthChecker returns health status for registered components.
type HealthChecker func(ctx context.Context) []component.Health

// DatabaseProbe reports the database clock, proving a round trip.
type DatabaseProbe func(ctx context.Context) (time.Time, error)

// ServiceInfo identifies the running service in health responses.
type ServiceInfo struct {
	Name        string
	Version     string
	Environment string
}

// DatabaseHealth is the database section of a health response.
type DatabaseHealth struct {
	Status      string `json:"status"`
	CurrentTime string `json:"current_time,omitempty"`
	Error       string `json:"error,omitempty"`
}

// HealthResponse is the body of GET /v1/health.
type HealthResponse struct {
	Status      string             `json:"status"`
	Service     string             `json:"service"`
	Version     string             `json:"version"`
	Environment string             `json:"environment"`
	Timestamp   string             `json:"timestamp"`
	Database    DatabaseHealth     `json:"database"`
	Components  []component.Health `json:"components,omitempty"`
}

const probeTimeout = 3 * time.Second

// Health reports service health. The service is unhealthy (503) when the
// database probe fails or a component is unhealthy; a degraded component
// (e.g. the principal cache) is reported without failing the check.
func Health(info ServiceInfo, probe DatabaseProbe, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
		defer cancel()

		resp := HealthResponse{
			Status:      string(component.StatusHealthy),
			Service:     info.Name,
			Version:     info.Version,
			Environment: info.Environment,
			Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		}

		var reports []component.Health
		if probe != nil {
			now, err := probe(ctx)
			if err != nil {
				logger.WithContext(ctx).Error("Database health check failed", logger.Fields(logger.FieldError, err.Error()))
				resp.Database = DatabaseHealth{Status: "disconnected", Error: "database unreachable"}
				reports = append(reports, component.Health{Name: "database", Status: component.StatusUnhealthy})
			} else {
				resp.Database = DatabaseHealth{Status: "connected", CurrentTime: now.UTC().Format(time.RFC3339Nano)}
			}
		}
		if checker != nil {
			resp.Components = checker(ctx)
			reports = append(reports, resp.Components...)
		}
		resp.Status = string(component.Overall(reports))

		httpStatus := http.StatusOK
		if resp.Status == string(component.StatusUnhealthy) {
			httpStatus = http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, resp)
	}
}
