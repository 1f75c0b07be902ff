package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/milan604/ops-admin/pkg/validator"
)

const validatorKey = "ops_validator"

func Validator(vi *validator.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(validatorKey, vi)
		c.Next()
	}
}

// GetValidator retrieves the validator from gin context.
func GetValidator(c *gin.Context) (*validator.Validator, bool) {
	v, ok := c.Get(validatorKey)
	if !ok {
		return nil, false
	}
	vi, ok := v.(*validator.Validator)
	return vi, ok
}
