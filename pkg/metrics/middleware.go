package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GinMiddleware records per-route request counts and latency. Unmatched
// requests are bucketed under "unknown" so 404 floods cannot explode the
// label cardinality.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		code := strconv.Itoa(c.Writer.Status())
		elapsed := time.Since(start).Seconds()

		HTTPRequestDuration.WithLabelValues(route, c.Request.Method, code).Observe(elapsed)
		HTTPRequestsTotal.WithLabelValues(route, c.Request.Method, code).Inc()
	}
}
