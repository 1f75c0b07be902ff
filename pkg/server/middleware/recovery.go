package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/milan604/ops-admin/pkg/apperr"
	"github.com/milan604/ops-admin/pkg/logger"
	"github.com/milan604/ops-admin/pkg/response"
)

// Recovery converts panics into a standard 500 envelope. Stack traces go to
// the log, never to the client.
func Recovery(l logger.LogManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if l != nil {
					entry := l.With("log_type", "panic", "path", c.Request.URL.Path)
					entry.ErrorF("panic recovered: %v\n%s", r, string(debug.Stack()))
				}
				response.JSONError(c, apperr.New(apperr.ErrorCodeInternal))
				c.Abort()
			}
		}()
		c.Next()
	}
}
