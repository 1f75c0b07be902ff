// Package validator wraps go-playground/validator with gin-aware binding
// helpers that translate binding failures into apperr responses.
package validator

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	gvalidator "github.com/go-playground/validator/v10"

	"github.com/milan604/ops-admin/pkg/apperr"
)

// TagErrorBuilder describes how to convert a validator.FieldError into a message
type TagErrorBuilder struct {
	Code    *apperr.ErrorCode
	Builder func(fe gvalidator.FieldError) string
}

// Validator is the wrapper around go-playground validator with extra features.
type Validator struct {
	v                *gvalidator.Validate
	tagErrorBuilders map[string]TagErrorBuilder
	fieldNameFn      func(reflect.StructField) string
}

// Engine is the surface handlers rely on. Keeping it small makes the binding
// helpers testable with fakes.
type Engine interface {
	RegisterValidation(tag string, fn gvalidator.Func) error
	RegisterTagError(tag string, code *apperr.ErrorCode, builder func(gvalidator.FieldError) string)
	ParseError(err error) *apperr.AppError
}

// New creates a Validator instance and wires gin's binding engine so that
// FieldError.Field() reports json/form/uri tag names instead of Go field names.
func New() *Validator {
	v := gvalidator.New()

	fieldNameFn := func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form", "uri", "header"} {
			if name := tagName(f, tag); name != "" {
				return name
			}
		}
		return f.Name
	}

	if be, ok := binding.Validator.Engine().(*gvalidator.Validate); ok {
		be.RegisterTagNameFunc(func(fld reflect.StructField) string {
			return fieldNameFn(fld)
		})
	}

	return &Validator{
		v:                v,
		tagErrorBuilders: make(map[string]TagErrorBuilder),
		fieldNameFn:      fieldNameFn,
	}
}

func tagName(f reflect.StructField, tag string) string {
	value := f.Tag.Get(tag)
	if value == "-" {
		return ""
	}
	return strings.SplitN(value, ",", 2)[0]
}

// RegisterValidation registers a custom validation tag on both this engine and
// gin's binding engine, so ShouldBind* calls see it too.
func (vi *Validator) RegisterValidation(tag string, fn gvalidator.Func) error {
	if be, ok := binding.Validator.Engine().(*gvalidator.Validate); ok {
		if err := be.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return vi.v.RegisterValidation(tag, fn)
}

// RegisterTagError maps a validation tag to an ErrorCode and message builder.
func (vi *Validator) RegisterTagError(tag string, code *apperr.ErrorCode, builder func(gvalidator.FieldError) string) {
	vi.tagErrorBuilders[tag] = TagErrorBuilder{Code: code, Builder: builder}
}

// ParseError converts any binding/validator/json error into *apperr.AppError
func (vi *Validator) ParseError(err error) *apperr.AppError {
	if err == nil {
		return nil
	}

	switch e := err.(type) {
	case gvalidator.ValidationErrors:
		appErr := apperr.New(apperr.ErrorCodeValidationFail)
		for _, fe := range e {
			appErr.AddSuggestion(fe.Field(), vi.buildMessageForField(fe))
		}
		return appErr

	case *json.UnmarshalTypeError:
		appErr := apperr.New(apperr.ErrorCodeInvalidRequest)
		if e.Field == "" {
			appErr.Message = "Invalid request body"
			return appErr
		}
		appErr.AddSuggestion(e.Field, fmt.Sprintf("Invalid type for field %s: expected %s", e.Field, e.Type.String()))
		return appErr

	case *json.SyntaxError:
		appErr := apperr.New(apperr.ErrorCodeInvalidRequest)
		appErr.Message = "Invalid JSON payload"
		return appErr

	case *time.ParseError:
		appErr := apperr.New(apperr.ErrorCodeInvalidInput)
		appErr.Message = "Invalid datetime format"
		return appErr

	default:
		appErr := apperr.New(apperr.ErrorCodeInvalidInput)
		appErr.Message = fmt.Sprintf("Invalid input: %v", err.Error())
		return appErr
	}
}

func (vi *Validator) buildMessageForField(fe gvalidator.FieldError) string {
	if b, ok := vi.tagErrorBuilders[fe.Tag()]; ok && b.Builder != nil {
		return b.Builder(fe)
	}
	if fe.Param() != "" {
		return fmt.Sprintf("field %s failed on '%s' validation (param=%s)", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("field %s failed on '%s' validation", fe.Field(), fe.Tag())
}

// BindJSON binds and validates a JSON body into T.
func BindJSON[T any](vi Engine, ctx *gin.Context) (*T, *apperr.AppError) {
	var req T
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, vi.ParseError(err)
	}
	return &req, nil
}

// BindQuery binds and validates query parameters into T.
func BindQuery[T any](vi Engine, ctx *gin.Context) (*T, *apperr.AppError) {
	var req T
	if err := ctx.ShouldBindQuery(&req); err != nil {
		return nil, vi.ParseError(err)
	}
	return &req, nil
}

// BindURI binds and validates URI parameters into T.
func BindURI[T any](vi Engine, ctx *gin.Context) (*T, *apperr.AppError) {
	var req T
	if err := ctx.ShouldBindUri(&req); err != nil {
		return nil, vi.ParseError(err)
	}
	return &req, nil
}

// BindJSONAndURI binds and validates both a JSON body and URI params.
func BindJSONAndURI[Body any, URI any](vi Engine, ctx *gin.Context) (*Body, *URI, *apperr.AppError) {
	uri, ue := BindURI[URI](vi, ctx)
	if ue != nil {
		return nil, nil, ue
	}
	body, be := BindJSON[Body](vi, ctx)
	if be != nil {
		return nil, uri, be
	}
	return body, uri, nil
}
