package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront-service/pkg/logger"
)

// HealthHandler reports service liveness
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health returns ok; with ?check=db it also pings the database
func (h *HealthHandler) Health(c echo.Context) error {
	if c.QueryParam("check") != "db" {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request().Context())
	}
	if err != nil {
		logger.FromContext(c).Error("Database health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":   "unavailable",
			"database": "down",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "up",
	})
}
