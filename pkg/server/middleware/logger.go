package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/milan604/ops-admin/pkg/logger"
)

const loggerKey = "ops_logger"

// AppLogger injects a request-scoped logger into gin.Context.
func AppLogger(l logger.LogManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLogger := l.With("log_type", "application", "handler", c.HandlerName(), "route", c.FullPath())
		c.Set(loggerKey, reqLogger)
		c.Next()
	}
}

// GetLogger retrieves the request-scoped logger from context.
func GetLogger(c *gin.Context) logger.LogManager {
	if val, ok := c.Get(loggerKey); ok {
		if lm, yes := val.(logger.LogManager); yes {
			return lm
		}
	}
	return logger.MustNewDefault()
}

// AccessLogger logs each request after completion.
func AccessLogger(l logger.LogManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		fields := []interface{}{
			"log_type", "access",
			"ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", latency.Milliseconds(),
			"size", c.Writer.Size(),
		}
		if rid := c.Writer.Header().Get(HeaderRequestID); rid != "" {
			fields = append(fields, "request_id", rid)
		}

		entry := l.With(fields...)
		switch {
		case status >= 500:
			entry.Error("request completed")
		case status >= 400:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}
