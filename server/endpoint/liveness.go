package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var processStart = time.Now()

// LivenessResponse is the body of GET /v1/health/live.
type LivenessResponse struct {
	Status        string  `json:"status"`
	Service       string  `json:"service"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Liveness answers as long as the process can serve HTTP. Dependencies are
// not consulted, so an orchestrator never restarts the API for a database
// outage.
func Liveness(info ServiceInfo) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, LivenessResponse{
			Status:        "alive",
			Service:       info.Name,
			Version:       info.Version,
			UptimeSeconds: time.Since(processStart).Round(time.Millisecond).Seconds(),
		})
	}
}
