package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/milan604/ops-admin/pkg/logger"
)

const (
	HeaderRequestID = "X-Request-ID"
)

type RequestIDConfig struct {
	HeaderName string
	// If true, accept incoming request id header; otherwise always generate new
	AllowIncoming bool
}

func defaultRequestIDConfig() RequestIDConfig {
	return RequestIDConfig{
		HeaderName:    HeaderRequestID,
		AllowIncoming: true,
	}
}

// RequestID returns a middleware that injects a request id into the gin
// context, the request context and the response header.
func RequestID(opts ...RequestIDConfig) gin.HandlerFunc {
	cfg := defaultRequestIDConfig()
	if len(opts) > 0 {
		cfg = opts[0]
	}

	return func(c *gin.Context) {
		var reqID string
		if cfg.AllowIncoming {
			reqID = c.GetHeader(cfg.HeaderName)
		}
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(string(logger.RequestIDKey), reqID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), reqID))
		c.Writer.Header().Set(cfg.HeaderName, reqID)
		c.Next()
	}
}
