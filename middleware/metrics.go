package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"bookstore-api/internal/metrics"
)

// Metrics records latency and error counts per request. Calls to the
// metrics endpoints themselves are excluded from collection.
func Metrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/metrics") ||
			strings.HasPrefix(c.Request.URL.Path, "/admin/metrics") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		collector.RecordRequest(time.Since(start))
		if c.Writer.Status() >= 400 {
			collector.RecordError()
		}
	}
}
