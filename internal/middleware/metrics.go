package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"storefront-service/prometheus"
)

// MetricsMiddleware adds prometheus metrics to track HTTP requests
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)

		// Route templates keep label cardinality bounded
		path := c.Path()
		if path == "" {
			path = "unmatched"
		}

		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
			status = he.Code
		}

		prometheus.RecordHTTPRequest(c.Request().Method, path, status, start)
		return err
	}
}
