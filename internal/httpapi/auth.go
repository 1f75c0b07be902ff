package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/milan604/ops-admin/internal/audit"
	"github.com/milan604/ops-admin/internal/authority"
	"github.com/milan604/ops-admin/internal/model"
	"github.com/milan604/ops-admin/pkg/apperr"
	"github.com/milan604/ops-admin/pkg/response"
	"github.com/milan604/ops-admin/pkg/validator"
)

// refreshTokenHeader carries the opaque refresh token on /auth/refresh.
const refreshTokenHeader = "Refresh-Token"

type signinRequest struct {
	Account  string `json:"account" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	Token        string            `json:"token"`
	RefreshToken string            `json:"refreshToken"`
	Authorities  []authority.Grant `json:"authorities"`
}

func (h *Handler) signin(c *gin.Context) {
	req, aerr := validator.BindJSON[signinRequest](h.valid, c)
	if aerr != nil {
		response.JSONError(c, aerr)
		return
	}

	user, err := h.accounts.Authenticate(c.Request.Context(), req.Account, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	pair, err := h.tokens.Issue(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Publish(c.Request.Context(), audit.Event{Type: audit.EventSignin, ActorID: user.ID})
	response.Success(c, sessionResponse{
		Token:        pair.Token,
		RefreshToken: pair.RefreshToken,
		Authorities:  model.Grants(user.Authorities),
	})
}

func (h *Handler) signout(c *gin.Context) {
	cu, err := CurrentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.tokens.Revoke(c.Request.Context(), cu.Token); err != nil {
		response.Error(c, err)
		return
	}
	h.audit.Publish(c.Request.Context(), audit.Event{Type: audit.EventSignout, ActorID: cu.User.ID})
	response.Success(c, nil)
}

func (h *Handler) refresh(c *gin.Context) {
	cu, err := CurrentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	refreshToken := c.GetHeader(refreshTokenHeader)
	if refreshToken == "" {
		response.JSONError(c, apperr.New(apperr.ErrorCodeUnauthorized).WithMessage("missing refresh token"))
		return
	}

	pair, err := h.tokens.Refresh(c.Request.Context(), cu.Token, refreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Publish(c.Request.Context(), audit.Event{Type: audit.EventRefresh, ActorID: cu.User.ID})
	response.Success(c, sessionResponse{
		Token:        pair.Token,
		RefreshToken: pair.RefreshToken,
		Authorities:  cu.Grants,
	})
}
