package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront-service/internal/model"
	"storefront-service/pkg/logger"
	"storefront-service/prometheus"
)

// ProductRequest defines the structure for product creation/update requests
type ProductRequest struct {
	CategoryID *uint  `json:"category_id"`
	Name       string `json:"name" validate:"required,max=300"`
	SKU        string `json:"sku" validate:"required,max=50"`
	Price      *int64 `json:"price" validate:"required,gte=0"`
	Reference  string `json:"reference" validate:"required,max=300"`
}

// ProductHandler serves the catalog product routes
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler creates a product handler
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// ListProducts returns products ordered by id, optionally filtered by a
// search term and category
func (h *ProductHandler) ListProducts(c echo.Context) error {
	log := logger.FromContext(c)
	defer prometheus.TrackDBOperation("product_list")(time.Now())

	query := h.db.WithContext(c.Request().Context()).Preload("Category").Order("id ASC")

	if search := strings.TrimSpace(c.QueryParam("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR CAST(price AS TEXT) LIKE ? OR LOWER(reference) LIKE ?",
			like, like, like, like,
		)
		log.Info("Filtering products by search term", zap.String("search", search))
	}

	if categoryID := c.QueryParam("category_id"); categoryID != "" {
		id, err := strconv.ParseUint(categoryID, 10, 64)
		if err != nil {
			log.Warn("Invalid category_id parameter", zap.String("value", categoryID))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Invalid category_id",
			})
		}
		query = query.Where("category_id = ?", id)
	}

	products := []model.Product{}
	if err := query.Find(&products).Error; err != nil {
		log.Error("Failed to list products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve products",
		})
	}

	prometheus.RecordProductOperation("list")
	log.Info("Products retrieved successfully", zap.Int("count", len(products)))
	return c.JSON(http.StatusOK, echo.Map{"data": products})
}

// GetProduct retrieves a single product by ID
func (h *ProductHandler) GetProduct(c echo.Context) error {
	log := logger.FromContext(c)

	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid product id"})
	}

	var product model.Product
	err := h.db.WithContext(c.Request().Context()).Preload("Category").First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Info("Product not found", zap.Uint64("product_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}
	if err != nil {
		log.Error("Failed to get product", zap.Uint64("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve product"})
	}

	prometheus.RecordProductOperation("get")
	return c.JSON(http.StatusOK, echo.Map{"data": product})
}

// CreateProduct adds a product to the catalog
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	defer prometheus.TrackDBOperation("product_create")(time.Now())

	var req ProductRequest
	if ok, err := bindRequest(c, log, &req); !ok {
		return err
	}

	log.Info("Product creation request",
		zap.String("name", req.Name),
		zap.String("sku", req.SKU),
		zap.Int64("price", *req.Price))

	db := h.db.WithContext(c.Request().Context())

	// Soft-deleted products still hold their SKU in the unique index
	var count int64
	if err := db.Unscoped().Model(&model.Product{}).Where("sku = ?", req.SKU).Count(&count).Error; err != nil {
		log.Error("Failed to check SKU", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create product"})
	}
	if count > 0 {
		log.Warn("Product with this SKU already exists", zap.String("sku", req.SKU))
		return c.JSON(http.StatusConflict, echo.Map{"error": "Product with this SKU already exists"})
	}

	if resp, err := h.checkCategory(c, log, req.CategoryID); resp {
		return err
	}

	product := model.Product{
		CategoryID: req.CategoryID,
		Name:       req.Name,
		SKU:        req.SKU,
		Price:      *req.Price,
		Reference:  req.Reference,
	}
	if err := db.Create(&product).Error; err != nil {
		log.Error("Failed to create product", zap.String("sku", req.SKU), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create product"})
	}

	prometheus.RecordProductOperation("create")
	log.Info("Product created successfully",
		zap.Uint("product_id", product.ID),
		zap.String("sku", product.SKU))
	return c.JSON(http.StatusCreated, echo.Map{"data": product})
}

// UpdateProduct replaces the editable fields of a product
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	defer prometheus.TrackDBOperation("product_update")(time.Now())

	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid product id"})
	}

	var req ProductRequest
	if ok, err := bindRequest(c, log, &req); !ok {
		return err
	}

	db := h.db.WithContext(c.Request().Context())

	var product model.Product
	err := db.First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}
	if err != nil {
		log.Error("Failed to load product", zap.Uint64("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update product"})
	}

	if req.SKU != product.SKU {
		var count int64
		db.Unscoped().Model(&model.Product{}).Where("sku = ? AND id <> ?", req.SKU, id).Count(&count)
		if count > 0 {
			log.Warn("Product with this SKU already exists", zap.String("sku", req.SKU))
			return c.JSON(http.StatusConflict, echo.Map{"error": "Product with this SKU already exists"})
		}
	}

	if resp, err := h.checkCategory(c, log, req.CategoryID); resp {
		return err
	}

	oldPrice := product.Price
	product.CategoryID = req.CategoryID
	product.Category = nil
	product.Name = req.Name
	product.SKU = req.SKU
	product.Price = *req.Price
	product.Reference = req.Reference

	if err := db.Save(&product).Error; err != nil {
		log.Error("Failed to update product", zap.Uint64("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update product"})
	}

	prometheus.RecordProductOperation("update")
	log.Info("Product updated successfully",
		zap.Uint64("product_id", id),
		zap.Int64("old_price", oldPrice),
		zap.Int64("new_price", product.Price))
	return c.JSON(http.StatusOK, echo.Map{"data": product})
}

// DeleteProduct soft-deletes a product; its invoices keep referencing it
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	log := logger.FromContext(c)

	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid product id"})
	}

	result := h.db.WithContext(c.Request().Context()).Delete(&model.Product{}, id)
	if result.Error != nil {
		log.Error("Failed to delete product", zap.Uint64("product_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete product"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}

	prometheus.RecordProductOperation("delete")
	log.Info("Product deleted successfully", zap.Uint64("product_id", id))
	return c.NoContent(http.StatusNoContent)
}

// checkCategory writes a 422 when categoryID names no live category. The
// first return value reports whether a response was written.
func (h *ProductHandler) checkCategory(c echo.Context, log *zap.Logger, categoryID *uint) (bool, error) {
	if categoryID == nil {
		return false, nil
	}

	var count int64
	err := h.db.WithContext(c.Request().Context()).Model(&model.Category{}).Where("id = ?", *categoryID).Count(&count).Error
	if err != nil {
		log.Error("Failed to check category", zap.Error(err))
		return true, c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to check category"})
	}
	if count == 0 {
		log.Warn("Category does not exist", zap.Uint("category_id", *categoryID))
		return true, c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":   "Invalid request data",
			"details": echo.Map{"category_id": "exists"},
		})
	}
	return false, nil
}

func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
