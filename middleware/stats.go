package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/store-auditor/backend/metrics"
	"github.com/store-auditor/backend/stats"
)

// StatsMiddleware records the visitor and counts the request by route
func StatsMiddleware(requests *stats.Requests) gin.HandlerFunc {
	return func(c *gin.Context) {
		requests.TrackVisitor(c.ClientIP())

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
