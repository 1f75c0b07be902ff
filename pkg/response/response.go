package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/milan604/ops-admin/pkg/apperr"
)

// APIResponse is the standard API envelope returned to clients.
type APIResponse struct {
	Success bool                   `json:"success"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Data    interface{}            `json:"data,omitempty"`
	Errors  []apperr.Suggestion    `json:"errors,omitempty"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

// JSONSuccess writes a success envelope
func JSONSuccess(ctx *gin.Context, status int, data interface{}, meta map[string]interface{}) {
	if status == 0 {
		status = http.StatusOK
	}
	resp := APIResponse{
		Success: true,
		Code:    apperr.ErrorCodeSuccess.Code(),
		Message: apperr.ErrorCodeSuccess.Message(),
		Data:    data,
		Meta:    meta,
	}
	ctx.JSON(status, resp)
}

// JSONError writes an error envelope using *apperr.AppError
func JSONError(ctx *gin.Context, appErr *apperr.AppError) {
	if appErr == nil {
		appErr = apperr.New(apperr.ErrorCodeInternal)
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	resp := APIResponse{
		Success: false,
		Code:    appErr.Code,
		Message: appErr.Message,
		Errors:  appErr.Suggestions,
	}
	ctx.JSON(status, resp)
}

// Success is a shorthand for JSONSuccess with http.StatusOK and no meta.
func Success(ctx *gin.Context, data interface{}) {
	JSONSuccess(ctx, http.StatusOK, data, nil)
}

// Created is a shorthand for JSONSuccess with http.StatusCreated and no meta.
func Created(ctx *gin.Context, data interface{}) {
	JSONSuccess(ctx, http.StatusCreated, data, nil)
}

// Error writes an error envelope from a plain error, converting to AppError
// when it is not one already.
func Error(ctx *gin.Context, err error) {
	if err == nil {
		JSONError(ctx, nil)
		return
	}
	var ae *apperr.AppError
	if errors.As(err, &ae) {
		JSONError(ctx, ae)
		return
	}
	JSONError(ctx, apperr.FromError(err))
}
