package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestValidator adapts go-playground/validator to echo.Validator
type RequestValidator struct {
	validate *validator.Validate
}

// NewValidator creates a validator that reports fields by their JSON names
func NewValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// Validate implements echo.Validator
func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}

// bindRequest binds and validates the body into req. When it returns false
// the error response has already been written and handlerErr must be returned.
func bindRequest(c echo.Context, log *zap.Logger, req interface{}) (ok bool, handlerErr error) {
	if err := c.Bind(req); err != nil {
		log.Warn("Invalid request body", zap.Error(err))
		return false, c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if err := c.Validate(req); err != nil {
		details := echo.Map{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details[fieldPath(fe)] = fe.Tag()
			}
		} else {
			details["request"] = err.Error()
		}

		log.Warn("Request validation failed", zap.Any("details", details))
		return false, c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":   "Invalid request data",
			"details": details,
		})
	}

	return true, nil
}

// fieldPath drops the root struct name, e.g. "Request.order_items[0].id" -> "order_items[0].id"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
