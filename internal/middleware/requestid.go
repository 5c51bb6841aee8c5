package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"storefront-service/pkg/logger"
)

// RequestIDMiddleware assigns every request an ID, keeping one supplied by the caller
func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(logger.RequestIDKey)
		if requestID == "" {
			requestID = uuid.New().String()
			c.Request().Header.Set(logger.RequestIDKey, requestID)
		}
		c.Response().Header().Set(logger.RequestIDKey, requestID)

		c.Set("request_id", requestID)

		return next(c)
	}
}
