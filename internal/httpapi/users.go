package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/milan604/ops-admin/internal/account"
	"github.com/milan604/ops-admin/internal/audit"
	"github.com/milan604/ops-admin/internal/store"
	"github.com/milan604/ops-admin/pkg/response"
	"github.com/milan604/ops-admin/pkg/validator"
)

type listUsersQuery struct {
	Page    int    `form:"page" binding:"omitempty,min=1"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=100"`
	OrderBy string `form:"orderby" binding:"omitempty,oneof=id name mobile email created_at updated_at"`
	Order   string `form:"order" binding:"omitempty,oneof=asc desc"`
	Name    string `form:"name" binding:"omitempty,max=32"`
	Mobile  string `form:"mobile" binding:"omitempty,max=16"`
	Email   string `form:"email" binding:"omitempty,max=128"`
}

type userIDParam struct {
	ID uint `uri:"id" binding:"required,min=1"`
}

func (h *Handler) listUsers(c *gin.Context) {
	cu, err := CurrentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	q, aerr := validator.BindQuery[listUsersQuery](h.valid, c)
	if aerr != nil {
		response.JSONError(c, aerr)
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = 10
	}

	users, total, err := h.accounts.List(c.Request.Context(), caller(cu),
		store.ListFilter{Name: q.Name, Mobile: q.Mobile, Email: q.Email},
		store.Page{Page: q.Page, Limit: q.Limit, OrderBy: q.OrderBy, Order: q.Order},
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSONSuccess(c, 0, users, map[string]interface{}{
		"total": total,
		"page":  q.Page,
		"limit": q.Limit,
	})
}

func (h *Handler) getUser(c *gin.Context) {
	cu, err := CurrentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	p, aerr := validator.BindURI[userIDParam](h.valid, c)
	if aerr != nil {
		response.JSONError(c, aerr)
		return
	}

	user, err := h.accounts.Get(c.Request.Context(), caller(cu), p.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

func (h *Handler) createUser(c *gin.Context) {
	cu, err := CurrentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	req, aerr := validator.BindJSON[account.CreateRequest](h.valid, c)
	if aerr != nil {
		response.JSONError(c, aerr)
		return
	}

	user, err := h.accounts.Create(c.Request.Context(), caller(cu), *req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Publish(c.Request.Context(), audit.Event{
		Type:      audit.EventAccountCreated,
		ActorID:   cu.User.ID,
		SubjectID: user.ID,
	})
	response.Created(c, user)
}

func (h *Handler) updateUser(c *gin.Context) {
	cu, err := CurrentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	req, p, aerr := validator.BindJSONAndURI[account.UpdateRequest, userIDParam](h.valid, c)
	if aerr != nil {
		response.JSONError(c, aerr)
		return
	}

	user, err := h.accounts.Update(c.Request.Context(), caller(cu), p.ID, *req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Publish(c.Request.Context(), audit.Event{
		Type:      audit.EventAccountUpdated,
		ActorID:   cu.User.ID,
		SubjectID: user.ID,
	})
	response.Success(c, user)
}

func (h *Handler) deleteUser(c *gin.Context) {
	cu, err := CurrentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	p, aerr := validator.BindURI[userIDParam](h.valid, c)
	if aerr != nil {
		response.JSONError(c, aerr)
		return
	}

	if err := h.accounts.Delete(c.Request.Context(), caller(cu), p.ID); err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Publish(c.Request.Context(), audit.Event{
		Type:      audit.EventAccountDeleted,
		ActorID:   cu.User.ID,
		SubjectID: p.ID,
	})
	response.Success(c, nil)
}
