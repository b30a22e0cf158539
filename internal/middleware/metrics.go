package middleware

import (
	"strconv"
	"time"

	"movierama/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Prometheus records request count and latency per route template.
func Prometheus(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath() // 路由模板，避免 id 造成标签爆炸
		if path == "" {
			path = "unknown"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		m.Requests.WithLabelValues(c.Request.Method, path, status).Inc()
		m.Duration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
