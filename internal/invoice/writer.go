package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"storefront-service/internal/model"
	"storefront-service/pkg/logger"
	"storefront-service/prometheus"
)

// ItemStatus is the fan-out decision taken for one product id
type ItemStatus string

const (
	StatusCreated ItemStatus = "created"
	StatusSkipped ItemStatus = "skipped"
)

// Batch is everything needed to record the invoices of one gateway transaction
type Batch struct {
	ProductIDs  []uint
	Reference   string
	BuyerEmail  string
	BuyerPhone  string
	RawResponse json.RawMessage
}

// ItemResult reports what happened to one product id of a batch
type ItemResult struct {
	ProductID uint       `json:"product_id"`
	Status    ItemStatus `json:"status"`
	InvoiceID uint       `json:"invoice_id,omitempty"`
}

// Outcome is the result of a committed batch, one item per input product id
type Outcome struct {
	Invoices []model.Invoice `json:"invoices"`
	Items    []ItemResult    `json:"items"`
}

// CreatedCount returns the number of invoices written
func (o *Outcome) CreatedCount() int {
	return len(o.Invoices)
}

// SkippedProductIDs returns the product ids that had no live product, in input order
func (o *Outcome) SkippedProductIDs() []uint {
	var skipped []uint
	for _, item := range o.Items {
		if item.Status == StatusSkipped {
			skipped = append(skipped, item.ProductID)
		}
	}
	return skipped
}

// Writer persists and reads invoices
type Writer struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWriter creates an invoice writer on the given connection
func NewWriter(db *gorm.DB, l *zap.Logger) *Writer {
	if l == nil {
		l = zap.NewNop()
	}
	return &Writer{db: db, logger: l}
}

func (w *Writer) log(ctx context.Context) *zap.Logger {
	if l, ok := logger.Lookup(ctx); ok {
		return l
	}
	return w.logger
}

// CreateBatch writes one invoice per existing product inside a single
// database transaction. Ids without a live product are skipped, not errors.
// Any other failure rolls back every invoice of the batch.
func (w *Writer) CreateBatch(ctx context.Context, batch Batch) (*Outcome, error) {
	log := w.log(ctx)
	defer prometheus.TrackDBOperation("invoice_batch_create")(time.Now())

	outcome := &Outcome{
		Items: make([]ItemResult, 0, len(batch.ProductIDs)),
	}

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, productID := range batch.ProductIDs {
			var product model.Product
			err := tx.Select("id").First(&product, productID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				outcome.Items = append(outcome.Items, ItemResult{ProductID: productID, Status: StatusSkipped})
				continue
			}
			if err != nil {
				return fmt.Errorf("look up product %d: %w", productID, err)
			}

			inv := model.Invoice{
				ProductID:       product.ID,
				TripayReference: batch.Reference,
				BuyerEmail:      batch.BuyerEmail,
				BuyerPhone:      batch.BuyerPhone,
				RawResponse:     datatypes.JSON(batch.RawResponse),
			}
			if err := tx.Create(&inv).Error; err != nil {
				return fmt.Errorf("create invoice for product %d: %w", productID, err)
			}

			outcome.Invoices = append(outcome.Invoices, inv)
			outcome.Items = append(outcome.Items, ItemResult{
				ProductID: productID,
				Status:    StatusCreated,
				InvoiceID: inv.ID,
			})
		}
		return nil
	})
	if err != nil {
		prometheus.RecordInvoiceBatchFailure()
		log.Error("Invoice batch rolled back",
			zap.String("tripay_reference", batch.Reference),
			zap.Int("product_count", len(batch.ProductIDs)),
			zap.Error(err))
		return nil, fmt.Errorf("invoice batch %s: %w", batch.Reference, err)
	}

	skipped := outcome.SkippedProductIDs()
	prometheus.RecordInvoiceBatch(outcome.CreatedCount(), len(skipped))

	if len(skipped) > 0 {
		log.Warn("Invoice batch skipped missing products",
			zap.String("tripay_reference", batch.Reference),
			zap.Uints("skipped_product_ids", skipped))
	}
	log.Info("Invoice batch committed",
		zap.String("tripay_reference", batch.Reference),
		zap.Int("created", outcome.CreatedCount()),
		zap.Int("skipped", len(skipped)))

	return outcome, nil
}

// Filter narrows an invoice listing. Empty fields match everything.
type Filter struct {
	Reference string
	Email     string
}

// List returns invoices with their product, oldest first. Soft-deleted
// products are still attached so the history stays readable.
func (w *Writer) List(ctx context.Context, filter Filter) ([]model.Invoice, error) {
	defer prometheus.TrackDBOperation("invoice_list")(time.Now())

	query := w.db.WithContext(ctx).
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("id ASC")

	if filter.Reference != "" {
		query = query.Where("tripay_reference = ?", filter.Reference)
	}
	if filter.Email != "" {
		query = query.Where("buyer_email = ?", filter.Email)
	}

	invoices := []model.Invoice{}
	if err := query.Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}
