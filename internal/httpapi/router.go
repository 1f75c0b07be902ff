// Package httpapi exposes the admin backend over HTTP: auth lifecycle under
// /auth and account management under /user, plus the operational endpoints.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/milan604/ops-admin/internal/account"
	"github.com/milan604/ops-admin/internal/audit"
	"github.com/milan604/ops-admin/internal/token"
	"github.com/milan604/ops-admin/pkg/apperr"
	"github.com/milan604/ops-admin/pkg/logger"
	"github.com/milan604/ops-admin/pkg/response"
	"github.com/milan604/ops-admin/pkg/validator"
	"github.com/milan604/ops-admin/pkg/version"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	accounts *account.Service
	tokens   *token.Service
	valid    *validator.Validator
	audit    audit.Publisher
	log      logger.LogManager
}

func NewHandler(accounts *account.Service, tokens *token.Service, valid *validator.Validator, auditor audit.Publisher, log logger.LogManager) *Handler {
	if auditor == nil {
		auditor = audit.NopPublisher{}
	}
	return &Handler{
		accounts: accounts,
		tokens:   tokens,
		valid:    valid,
		audit:    auditor,
		log:      log,
	}
}

// Register mounts all routes on the engine.
func (h *Handler) Register(engine *gin.Engine) {
	engine.GET("/healthz", h.healthz)
	engine.GET("/version", h.version)

	auth := engine.Group("/auth")
	{
		auth.POST("/signin", h.signin)
		auth.POST("/signout", h.RequireUser(), h.signout)
		auth.POST("/refresh", h.RequireUser(), h.refresh)
	}

	user := engine.Group("/user", h.RequireUser())
	{
		user.GET("", h.listUsers)
		user.GET("/:id", h.getUser)
		user.POST("", h.createUser)
		user.PUT("/:id", h.updateUser)
		user.DELETE("/:id", h.deleteUser)
	}
}

func (h *Handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) version(c *gin.Context) {
	response.Success(c, version.Info())
}

const currentUserKey = "ops_current_user"

// RequireUser authenticates the request from its Authorization header and
// stores the verified caller in the gin context.
func (h *Handler) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		cu, err := h.tokens.VerifyAndLoadCurrentUser(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(currentUserKey, cu)
		c.Request = c.Request.WithContext(logger.ContextWithUserID(c.Request.Context(), cu.User.ID))
		c.Next()
	}
}

// CurrentUser returns the verified caller set by RequireUser.
func CurrentUser(c *gin.Context) (*token.CurrentUser, error) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, apperr.New(apperr.ErrorCodeUnauthorized)
	}
	cu, ok := v.(*token.CurrentUser)
	if !ok {
		return nil, apperr.New(apperr.ErrorCodeUnauthorized)
	}
	return cu, nil
}

func caller(cu *token.CurrentUser) account.Caller {
	return account.Caller{ID: cu.User.ID, Grants: cu.Grants}
}
