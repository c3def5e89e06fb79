package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sports-club-api/internal/service"
)

// unmatchedRoute labels requests no route matched so raw paths never become label values.
const unmatchedRoute = "unmatched"

// Metrics records latency and status per route pattern. Scrapes of /metrics are not counted.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
