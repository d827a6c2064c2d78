package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"stream-service/pkg/logger"
	"stream-service/pkg/metrics"
)

// AccessLogMiddleware 记录请求日志并上报 HTTP 指标
func AccessLogMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": elapsed.Milliseconds(),
			"bytes":      c.Writer.Size(),
			"request_id": c.GetString(RequestIDKey),
		}
		switch {
		case status >= 500:
			log.Error("http request", fields)
		case status >= 400:
			log.Warn("http request", fields)
		default:
			log.Debug("http request", fields)
		}
	}
}
