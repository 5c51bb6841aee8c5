package tripay

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OrderItem is one line of an outbound transaction. It deliberately has no
// product id: the gateway rejects unknown fields on order items.
type OrderItem struct {
	SKU      string `json:"sku,omitempty"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// TransactionPayload is the body of POST /transaction/create
type TransactionPayload struct {
	Method        string      `json:"method"`
	MerchantRef   string      `json:"merchant_ref"`
	Amount        int64       `json:"amount"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	CustomerPhone string      `json:"customer_phone"`
	OrderItems    []OrderItem `json:"order_items"`
	CallbackURL   string      `json:"callback_url,omitempty"`
	ReturnURL     string      `json:"return_url,omitempty"`
	ExpiredTime   int64       `json:"expired_time,omitempty"`
	Signature     string      `json:"signature"`
}

// Response is a gateway answer kept verbatim. Non-2xx statuses are not errors;
// callers inspect OK and forward StatusCode and Body as they are.
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// OK reports whether the gateway answered with a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Empty reports whether the body is missing or a JSON null
func (r *Response) Empty() bool {
	trimmed := bytes.TrimSpace(r.Body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Transaction decodes the body as a create-transaction response
func (r *Response) Transaction() (*TransactionResponse, error) {
	var tr TransactionResponse
	if err := json.Unmarshal(r.Body, &tr); err != nil {
		return nil, fmt.Errorf("decode transaction response: %w", err)
	}
	return &tr, nil
}

// TransactionResponse is the create-transaction envelope
type TransactionResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    *TransactionData `json:"data"`
}

// TransactionData holds the fields of a created transaction that this service reads
type TransactionData struct {
	Reference     string `json:"reference"`
	MerchantRef   string `json:"merchant_ref"`
	PaymentMethod string `json:"payment_method"`
	Amount        int64  `json:"amount"`
	FeeCustomer   int64  `json:"fee_customer"`
	FeeMerchant   int64  `json:"fee_merchant"`
	PayCode       string `json:"pay_code"`
	PayURL        string `json:"pay_url"`
	CheckoutURL   string `json:"checkout_url"`
	Status        string `json:"status"`
	ExpiredTime   int64  `json:"expired_time"`
}

// Fee is a flat plus percentage fee pair
type Fee struct {
	Flat    json.Number `json:"flat"`
	Percent json.Number `json:"percent"`
}

// PaymentChannel describes one payment method offered by the gateway
type PaymentChannel struct {
	Group         string `json:"group"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	FeeMerchant   Fee    `json:"fee_merchant"`
	FeeCustomer   Fee    `json:"fee_customer"`
	TotalFee      Fee    `json:"total_fee"`
	MinimumFee    *int64 `json:"minimum_fee"`
	MaximumFee    *int64 `json:"maximum_fee"`
	MinimumAmount int64  `json:"minimum_amount"`
	MaximumAmount int64  `json:"maximum_amount"`
	IconURL       string `json:"icon_url"`
	Active        bool   `json:"active"`
}

// PaymentChannelsResponse is the payment-channel list envelope
type PaymentChannelsResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    []PaymentChannel `json:"data"`
}
