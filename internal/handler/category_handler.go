package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront-service/internal/model"
	"storefront-service/pkg/logger"
	"storefront-service/prometheus"
)

// CategoryRequest defines the structure for category creation/update requests
type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// CategoryHandler serves the catalog category routes
type CategoryHandler struct {
	db *gorm.DB
}

// NewCategoryHandler creates a category handler
func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{db: db}
}

// ListCategories retrieves all categories ordered by name
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	log := logger.FromContext(c)

	categories := []model.Category{}
	if err := h.db.WithContext(c.Request().Context()).Order("name ASC").Find(&categories).Error; err != nil {
		log.Error("Failed to retrieve categories", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve categories",
		})
	}

	prometheus.RecordCategoryOperation("list")
	log.Info("Categories retrieved successfully", zap.Int("count", len(categories)))
	return c.JSON(http.StatusOK, echo.Map{"data": categories})
}

// CreateCategory adds a new category
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	log := logger.FromContext(c)

	var req CategoryRequest
	if ok, err := bindRequest(c, log, &req); !ok {
		return err
	}

	db := h.db.WithContext(c.Request().Context())

	var count int64
	db.Unscoped().Model(&model.Category{}).Where("name = ?", req.Name).Count(&count)
	if count > 0 {
		log.Warn("Category with this name already exists", zap.String("name", req.Name))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Category with this name already exists",
		})
	}

	category := model.Category{Name: req.Name}
	if err := db.Create(&category).Error; err != nil {
		log.Error("Failed to create category", zap.String("name", req.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create category",
		})
	}

	prometheus.RecordCategoryOperation("create")
	log.Info("Category created successfully",
		zap.Uint("category_id", category.ID),
		zap.String("name", category.Name))
	return c.JSON(http.StatusCreated, echo.Map{"data": category})
}

// UpdateCategory renames a category
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	log := logger.FromContext(c)

	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid category id"})
	}

	var req CategoryRequest
	if ok, err := bindRequest(c, log, &req); !ok {
		return err
	}

	db := h.db.WithContext(c.Request().Context())

	var category model.Category
	err := db.First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Category not found"})
	}
	if err != nil {
		log.Error("Failed to load category", zap.Uint64("category_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update category"})
	}

	oldName := category.Name
	if req.Name != category.Name {
		var count int64
		db.Unscoped().Model(&model.Category{}).Where("name = ? AND id <> ?", req.Name, id).Count(&count)
		if count > 0 {
			log.Warn("Category with this name already exists", zap.String("name", req.Name))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Category with this name already exists",
			})
		}
	}

	category.Name = req.Name
	if err := db.Save(&category).Error; err != nil {
		log.Error("Failed to update category", zap.Uint64("category_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update category"})
	}

	prometheus.RecordCategoryOperation("update")
	log.Info("Category updated successfully",
		zap.Uint64("category_id", id),
		zap.String("old_name", oldName),
		zap.String("new_name", category.Name))
	return c.JSON(http.StatusOK, echo.Map{"data": category})
}

// DeleteCategory soft-deletes a category that no live product uses
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	log := logger.FromContext(c)

	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid category id"})
	}

	db := h.db.WithContext(c.Request().Context())

	var category model.Category
	err := db.First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Category not found"})
	}
	if err != nil {
		log.Error("Failed to load category", zap.Uint64("category_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete category"})
	}

	var count int64
	db.Model(&model.Product{}).Where("category_id = ?", id).Count(&count)
	if count > 0 {
		log.Warn("Cannot delete category that is being used by products",
			zap.Uint64("category_id", id),
			zap.Int64("product_count", count))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Cannot delete category that is being used by products",
		})
	}

	if err := db.Delete(&category).Error; err != nil {
		log.Error("Failed to delete category", zap.Uint64("category_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete category"})
	}

	prometheus.RecordCategoryOperation("delete")
	log.Info("Category deleted successfully", zap.Uint64("category_id", id))
	return c.NoContent(http.StatusNoContent)
}
