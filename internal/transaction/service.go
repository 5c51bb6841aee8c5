package transaction

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"storefront-service/internal/invoice"
	"storefront-service/pkg/events"
	"storefront-service/pkg/logger"
	"storefront-service/pkg/tripay"
)

const (
	MsgCreateFailed   = "Failed to create transaction"
	MsgGatewayError   = "Error requesting transaction from tripay"
	MsgChannelsFailed = "Failed to fetch payment channels"
)

// Service runs the checkout flow: sign, call the gateway, then record one
// invoice per purchased product.
type Service struct {
	gateway   Gateway
	signer    Signer
	invoices  InvoiceWriter
	publisher Publisher
	channels  ChannelCache
	logger    *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger used when the request context carries none
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPublisher enables invoice batch events
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithChannelCache enables caching of the payment channel list
func WithChannelCache(c ChannelCache) Option {
	return func(s *Service) { s.channels = c }
}

// NewService creates the checkout service
func NewService(gateway Gateway, signer Signer, invoices InvoiceWriter, opts ...Option) *Service {
	s := &Service{
		gateway:  gateway,
		signer:   signer,
		invoices: invoices,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	if l, ok := logger.Lookup(ctx); ok {
		return l
	}
	return s.logger
}

// Create submits the checkout to the gateway and records its invoices.
//
// Gateway failures come back as Result.Failure with a nil error. The error is
// non-nil only when the gateway accepted the transaction but its invoices
// could not be recorded; the returned Result still carries the reference.
func (s *Service) Create(ctx context.Context, req Request) (*Result, error) {
	log := s.log(ctx).With(zap.String("merchant_ref", req.MerchantRef))
	result := &Result{Stage: StageReceived}

	items := make([]tripay.OrderItem, len(req.OrderItems))
	productIDs := make([]uint, len(req.OrderItems))
	for i, item := range req.OrderItems {
		items[i] = tripay.OrderItem{
			SKU:      item.SKU,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		}
		productIDs[i] = item.ID
	}

	payload := tripay.TransactionPayload{
		Method:        req.Method,
		MerchantRef:   req.MerchantRef,
		Amount:        req.Amount,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		OrderItems:    items,
		CallbackURL:   req.CallbackURL,
		ReturnURL:     req.ReturnURL,
		ExpiredTime:   req.ExpiredTime,
		Signature:     s.signer.Sign(req.MerchantRef, req.Amount),
	}
	result.Stage = StageSigned

	resp, err := s.gateway.CreateTransaction(ctx, payload)
	result.Stage = StageGatewayCalled
	if err != nil {
		log.Error("Transaction request failed", zap.Error(err))
		result.Stage = StageGatewayFailed
		result.StatusCode = http.StatusBadGateway
		result.Failure = &Failure{
			StatusCode: http.StatusBadGateway,
			Message:    MsgGatewayError,
			Details:    err.Error(),
		}
		return result, nil
	}

	result.StatusCode = resp.StatusCode
	if !resp.OK() {
		log.Warn("Gateway rejected transaction", zap.Int("status", resp.StatusCode))
		result.Stage = StageGatewayFailed
		result.Failure = &Failure{
			StatusCode: resp.StatusCode,
			Message:    MsgGatewayError,
			Details:    upstreamDetails(resp.Body),
		}
		return result, nil
	}

	reference := ""
	if !resp.Empty() {
		if tr, err := resp.Transaction(); err == nil && tr.Data != nil {
			reference = tr.Data.Reference
		}
	}
	if reference == "" {
		log.Error("Gateway returned no transaction data",
			zap.Int("status", resp.StatusCode),
			zap.String("response", string(resp.Body)))
		result.Stage = StageGatewayFailed
		result.StatusCode = http.StatusBadGateway
		result.Failure = &Failure{StatusCode: http.StatusBadGateway, Message: MsgCreateFailed}
		return result, nil
	}

	result.Stage = StageGatewaySucceeded
	result.Reference = reference
	result.Body = resp.Body
	log = log.With(zap.String("tripay_reference", reference))

	outcome, err := s.invoices.CreateBatch(ctx, invoice.Batch{
		ProductIDs:  productIDs,
		Reference:   reference,
		BuyerEmail:  req.CustomerEmail,
		BuyerPhone:  req.CustomerPhone,
		RawResponse: resp.Body,
	})
	if err != nil {
		log.Error("Transaction created but invoices were not recorded", zap.Error(err))
		return result, fmt.Errorf("record invoices for %s: %w", reference, err)
	}

	result.Stage = StageInvoicesWritten
	result.Invoices = outcome

	log.Info("Transaction created",
		zap.Int("invoices", outcome.CreatedCount()),
		zap.Uints("skipped_product_ids", outcome.SkippedProductIDs()))

	s.publish(ctx, log, req, reference, outcome)
	return result, nil
}

func (s *Service) publish(ctx context.Context, log *zap.Logger, req Request, reference string, outcome *invoice.Outcome) {
	if s.publisher == nil {
		return
	}

	invoiceIDs := make([]uint, 0, len(outcome.Invoices))
	for _, inv := range outcome.Invoices {
		invoiceIDs = append(invoiceIDs, inv.ID)
	}

	err := s.publisher.PublishInvoiceBatch(ctx, events.InvoiceBatchEvent{
		EventType:         events.InvoiceBatchCreated,
		Reference:         reference,
		MerchantRef:       req.MerchantRef,
		BuyerEmail:        req.CustomerEmail,
		Amount:            req.Amount,
		InvoiceIDs:        invoiceIDs,
		SkippedProductIDs: outcome.SkippedProductIDs(),
	})
	if err != nil {
		// The invoices are committed; a lost event does not fail the checkout.
		log.Warn("Failed to publish invoice batch event", zap.Error(err))
	}
}

// PaymentChannels returns the gateway's channel list, from cache when possible
func (s *Service) PaymentChannels(ctx context.Context) *Result {
	log := s.log(ctx)

	if s.channels != nil {
		if body, ok := s.channels.Get(ctx); ok {
			log.Debug("Payment channels served from cache")
			return &Result{
				Stage:      StageGatewaySucceeded,
				StatusCode: http.StatusOK,
				Body:       body,
				Cached:     true,
			}
		}
	}

	resp, err := s.gateway.PaymentChannels(ctx)
	if err != nil {
		log.Error("Payment channel request failed", zap.Error(err))
		return &Result{
			Stage:      StageGatewayFailed,
			StatusCode: http.StatusBadGateway,
			Failure: &Failure{
				StatusCode: http.StatusBadGateway,
				Message:    MsgChannelsFailed,
				Details:    err.Error(),
			},
		}
	}

	if !resp.OK() {
		log.Warn("Gateway rejected payment channel request", zap.Int("status", resp.StatusCode))
		return &Result{
			Stage:      StageGatewayFailed,
			StatusCode: resp.StatusCode,
			Failure: &Failure{
				StatusCode: resp.StatusCode,
				Message:    MsgChannelsFailed,
				Details:    upstreamDetails(resp.Body),
			},
		}
	}

	if s.channels != nil && !resp.Empty() {
		s.channels.Set(ctx, resp.Body)
	}

	return &Result{
		Stage:      StageGatewaySucceeded,
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
	}
}
