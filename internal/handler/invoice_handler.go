package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"storefront-service/internal/invoice"
	"storefront-service/internal/model"
	"storefront-service/pkg/logger"
)

// InvoiceLister reads recorded invoices
type InvoiceLister interface {
	List(ctx context.Context, filter invoice.Filter) ([]model.Invoice, error)
}

// InvoiceHandler serves the invoice history
type InvoiceHandler struct {
	invoices InvoiceLister
}

// NewInvoiceHandler creates an invoice handler
func NewInvoiceHandler(invoices InvoiceLister) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// ListInvoices returns every invoice with its product
func (h *InvoiceHandler) ListInvoices(c echo.Context) error {
	log := logger.FromContext(c)

	filter := invoice.Filter{
		Reference: c.QueryParam("reference"),
		Email:     c.QueryParam("email"),
	}

	invoices, err := h.invoices.List(c.Request().Context(), filter)
	if err != nil {
		log.Error("Failed to retrieve invoices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve invoices",
		})
	}

	log.Info("Invoices retrieved successfully",
		zap.Int("count", len(invoices)),
		zap.String("reference", filter.Reference))
	return c.JSON(http.StatusOK, invoices)
}
