package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"storefront-service/internal/invoice"
	"storefront-service/internal/transaction"
	"storefront-service/pkg/logger"
)

const (
	HeaderInvoicesCreated = "X-Invoices-Created"
	HeaderInvoicesSkipped = "X-Invoices-Skipped"
)

// TransactionHandler exposes the checkout flow
type TransactionHandler struct {
	service *transaction.Service
}

// NewTransactionHandler creates a transaction handler
func NewTransactionHandler(service *transaction.Service) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// PaymentChannels proxies the gateway's payment channel list
func (h *TransactionHandler) PaymentChannels(c echo.Context) error {
	log := logger.FromContext(c)

	result := h.service.PaymentChannels(c.Request().Context())
	if result.Failure != nil {
		return c.JSON(result.StatusCode, result.Failure)
	}

	log.Info("Payment channels returned", zap.Bool("cached", result.Cached))
	return c.JSONBlob(result.StatusCode, result.Body)
}

// CreateTransaction validates a checkout, submits it to the gateway and
// returns the gateway's response verbatim
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	log := logger.FromContext(c)

	var req transaction.Request
	if ok, err := bindRequest(c, log, &req); !ok {
		return err
	}

	result, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		log.Error("Transaction created upstream but invoices failed",
			zap.String("merchant_ref", req.MerchantRef),
			zap.String("tripay_reference", result.Reference),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message":   "Failed to record invoices",
			"reference": result.Reference,
		})
	}

	if result.Failure != nil {
		return c.JSON(result.StatusCode, result.Failure)
	}

	if result.Invoices != nil {
		setInvoiceHeaders(c, result.Invoices)
	}
	return c.JSONBlob(result.StatusCode, result.Body)
}

func setInvoiceHeaders(c echo.Context, outcome *invoice.Outcome) {
	var created, skipped []string
	for _, item := range outcome.Items {
		id := strconv.FormatUint(uint64(item.ProductID), 10)
		if item.Status == invoice.StatusSkipped {
			skipped = append(skipped, id)
		} else {
			created = append(created, id)
		}
	}

	header := c.Response().Header()
	header.Set(HeaderInvoicesCreated, strings.Join(created, ","))
	if len(skipped) > 0 {
		header.Set(HeaderInvoicesSkipped, strings.Join(skipped, ","))
	}
}
