package transaction

import (
	"context"
	"encoding/json"

	"storefront-service/internal/invoice"
	"storefront-service/pkg/events"
	"storefront-service/pkg/tripay"
)

// Gateway is the payment gateway API used by the service
type Gateway interface {
	PaymentChannels(ctx context.Context) (*tripay.Response, error)
	CreateTransaction(ctx context.Context, payload tripay.TransactionPayload) (*tripay.Response, error)
}

// Signer signs outbound transactions
type Signer interface {
	Sign(merchantRef string, amount int64) string
}

// InvoiceWriter records the invoices of a successful transaction
type InvoiceWriter interface {
	CreateBatch(ctx context.Context, batch invoice.Batch) (*invoice.Outcome, error)
}

// Publisher announces committed invoice batches
type Publisher interface {
	PublishInvoiceBatch(ctx context.Context, event events.InvoiceBatchEvent) error
}

// ChannelCache stores the last successful payment channel list
type ChannelCache interface {
	Get(ctx context.Context) ([]byte, bool)
	Set(ctx context.Context, body []byte)
}

// OrderItem is one purchased line as sent by the storefront. ID is the
// catalog product id; it is used for invoices and never sent to the gateway.
type OrderItem struct {
	ID       uint   `json:"id" validate:"required"`
	SKU      string `json:"sku,omitempty"`
	Name     string `json:"name" validate:"required"`
	Price    int64  `json:"price" validate:"gte=0"`
	Quantity int    `json:"quantity" validate:"gte=1"`
}

// Request is a checkout submitted by the storefront
type Request struct {
	Method        string      `json:"method" validate:"required"`
	MerchantRef   string      `json:"merchant_ref" validate:"required"`
	Amount        int64       `json:"amount" validate:"gte=0"`
	CustomerName  string      `json:"customer_name" validate:"required"`
	CustomerEmail string      `json:"customer_email" validate:"required,email"`
	CustomerPhone string      `json:"customer_phone" validate:"required"`
	CallbackURL   string      `json:"callback_url,omitempty" validate:"omitempty,url"`
	ReturnURL     string      `json:"return_url,omitempty" validate:"omitempty,url"`
	ExpiredTime   int64       `json:"expired_time,omitempty" validate:"gte=0"`
	OrderItems    []OrderItem `json:"order_items" validate:"required,min=1,dive"`
}

// Stage is a step of the checkout flow
type Stage string

const (
	StageReceived         Stage = "received"
	StageSigned           Stage = "signed"
	StageGatewayCalled    Stage = "gateway_called"
	StageGatewaySucceeded Stage = "gateway_succeeded"
	StageGatewayFailed    Stage = "gateway_failed"
	StageInvoicesWritten  Stage = "invoices_written"
)

// Failure is an upstream problem reported back to the caller as data
type Failure struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

// Result is the outcome of a gateway round trip. Exactly one of Body and
// Failure is meaningful: Failure is nil when the gateway call succeeded.
type Result struct {
	// Stage is the last stage reached before returning
	Stage      Stage
	StatusCode int
	Body       json.RawMessage
	Reference  string
	Cached     bool
	Invoices   *invoice.Outcome
	Failure    *Failure
}

// upstreamDetails keeps a gateway body as JSON when it is JSON and as text otherwise
func upstreamDetails(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}
