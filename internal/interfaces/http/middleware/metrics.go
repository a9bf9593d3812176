package middleware

import (
	"github.com/aquapet/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// unmatchedRoute labels requests that hit no registered route, so random
// paths cannot blow up label cardinality
const unmatchedRoute = "unmatched"

// HTTPMetrics records request count, latency and in-flight requests per route.
// A nil metrics value yields a pass-through middleware.
func HTTPMetrics(metrics *telemetry.HTTPMetrics) gin.HandlerFunc {
	if metrics == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		done := metrics.Begin()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		done(c.Request.Method, route, c.Writer.Status())
	}
}
