package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/todoapi/observability"
)

// unmatchedRoute labels requests no route matched, keeping the route
// attribute low-cardinality.
const unmatchedRoute = "unmatched"

// Metrics records request count and duration per matched route. A nil m
// records nothing.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		m.RecordRequest(c.Request.Context(), c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
