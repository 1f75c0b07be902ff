package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/milan604/ops-admin/pkg/response"
)

// ErrorHandler inspects c.Errors after the handlers ran and writes the
// standardized JSON error envelope for the last recorded error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			last := c.Errors.Last()
			if last == nil || last.Err == nil {
				return
			}
			if c.Writer.Written() {
				return
			}
			response.Error(c, last.Err)
			c.Abort()
		}
	}
}
