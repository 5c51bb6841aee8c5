package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"gorm.io/gorm"

	"storefront-service/internal/model"
	"storefront-service/internal/testutil"
)

func checkoutBody(productIDs ...uint) string {
	items := ""
	for i, id := range productIDs {
		if i > 0 {
			items += ","
		}
		items += fmt.Sprintf(`{"id":%d,"sku":"SKU-%d","name":"Item %d","price":10000,"quantity":1}`, id, id, id)
	}
	return fmt.Sprintf(`{
		"method":"BRIVA",
		"merchant_ref":"INV-1",
		"amount":%d,
		"customer_name":"Budi",
		"customer_email":"budi@example.com",
		"customer_phone":"081234567890",
		"order_items":[%s]
	}`, 10000*len(productIDs), items)
}

func gatewayReturning(t *testing.T, status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/create" {
			t.Errorf("unexpected gateway path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func TestCreateTransactionSuccess(t *testing.T) {
	body := testutil.TransactionJSON("T123")
	e, db := newTestServer(t, gatewayReturning(t, http.StatusOK, body), nil)
	p1 := testutil.CreateProduct(t, db, "SKU-A", 10000)
	p2 := testutil.CreateProduct(t, db, "SKU-B", 10000)

	rec := doRequest(e, http.MethodPost, "/transactions/create", checkoutBody(p1.ID, p2.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != body {
		t.Errorf("gateway body not returned verbatim:\n%s", rec.Body.String())
	}
	if got := rec.Header().Get(HeaderInvoicesCreated); got != fmt.Sprintf("%d,%d", p1.ID, p2.ID) {
		t.Errorf("%s = %q", HeaderInvoicesCreated, got)
	}
	if got := rec.Header().Get(HeaderInvoicesSkipped); got != "" {
		t.Errorf("%s = %q, want empty", HeaderInvoicesSkipped, got)
	}

	var invoices []model.Invoice
	db.Find(&invoices)
	if len(invoices) != 2 {
		t.Fatalf("invoice rows = %d, want 2", len(invoices))
	}
	for _, inv := range invoices {
		if inv.TripayReference != "T123" {
			t.Errorf("reference = %q", inv.TripayReference)
		}
	}
}

func TestCreateTransactionReportsSkippedProducts(t *testing.T) {
	e, db := newTestServer(t, gatewayReturning(t, http.StatusOK, testutil.TransactionJSON("T124")), nil)
	p1 := testutil.CreateProduct(t, db, "SKU-A", 10000)

	rec := doRequest(e, http.MethodPost, "/api/transactions/create", checkoutBody(p1.ID, 999))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(HeaderInvoicesSkipped); got != "999" {
		t.Errorf("%s = %q, want 999", HeaderInvoicesSkipped, got)
	}
	if n := testutil.CountInvoices(t, db); n != 1 {
		t.Errorf("invoice rows = %d, want 1", n)
	}
}

func TestCreateTransactionGatewayRejection(t *testing.T) {
	const upstream = `{"success":false,"message":"Invalid signature"}`
	e, db := newTestServer(t, gatewayReturning(t, http.StatusUnprocessableEntity, upstream), nil)
	p1 := testutil.CreateProduct(t, db, "SKU-A", 10000)

	rec := doRequest(e, http.MethodPost, "/transactions/create", checkoutBody(p1.ID))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	var resp struct {
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Error requesting transaction from tripay" {
		t.Errorf("message = %q", resp.Message)
	}
	if string(resp.Details) != upstream {
		t.Errorf("details = %s, want %s", resp.Details, upstream)
	}
	if n := testutil.CountInvoices(t, db); n != 0 {
		t.Errorf("invoice rows = %d, want 0", n)
	}
}

func TestCreateTransactionEmptyGatewayData(t *testing.T) {
	e, db := newTestServer(t, gatewayReturning(t, http.StatusOK, `{"success":true,"data":null}`), nil)
	p1 := testutil.CreateProduct(t, db, "SKU-A", 10000)

	rec := doRequest(e, http.MethodPost, "/transactions/create", checkoutBody(p1.ID))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if msg := decodeMap(t, rec)["message"]; msg != "Failed to create transaction" {
		t.Errorf("message = %v", msg)
	}
	if n := testutil.CountInvoices(t, db); n != 0 {
		t.Errorf("invoice rows = %d, want 0", n)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	e, _ := newTestServer(t, nil, nil)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"no order items", `{"method":"BRIVA","merchant_ref":"INV-1","amount":1,"customer_name":"B","customer_email":"b@example.com","customer_phone":"1","order_items":[]}`, "order_items"},
		{"bad email", `{"method":"BRIVA","merchant_ref":"INV-1","amount":1,"customer_name":"B","customer_email":"nope","customer_phone":"1","order_items":[{"id":1,"name":"x","price":1,"quantity":1}]}`, "customer_email"},
		{"zero quantity", `{"method":"BRIVA","merchant_ref":"INV-1","amount":1,"customer_name":"B","customer_email":"b@example.com","customer_phone":"1","order_items":[{"id":1,"name":"x","price":1,"quantity":0}]}`, "order_items[0].quantity"},
		{"missing item id", `{"method":"BRIVA","merchant_ref":"INV-1","amount":1,"customer_name":"B","customer_email":"b@example.com","customer_phone":"1","order_items":[{"name":"x","price":1,"quantity":1}]}`, "order_items[0].id"},
		{"bad callback url", `{"method":"BRIVA","merchant_ref":"INV-1","amount":1,"customer_name":"B","customer_email":"b@example.com","customer_phone":"1","callback_url":"not a url","order_items":[{"id":1,"name":"x","price":1,"quantity":1}]}`, "callback_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(e, http.MethodPost, "/transactions/create", tt.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
			}
			details, _ := decodeMap(t, rec)["details"].(map[string]any)
			if _, ok := details[tt.field]; !ok {
				t.Errorf("details = %v, want an entry for %s", details, tt.field)
			}
		})
	}
}

func TestCreateTransactionInvoiceFailure(t *testing.T) {
	e, db := newTestServer(t, gatewayReturning(t, http.StatusOK, testutil.TransactionJSON("T500")), nil)
	p1 := testutil.CreateProduct(t, db, "SKU-A", 10000)

	err := db.Callback().Create().Before("gorm:create").Register("test:fail_invoice", func(tx *gorm.DB) {
		if tx.Statement.Table == "invoices" {
			tx.AddError(errors.New("simulated constraint violation"))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	rec := doRequest(e, http.MethodPost, "/transactions/create", checkoutBody(p1.ID))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	resp := decodeMap(t, rec)
	if resp["message"] != "Failed to record invoices" || resp["reference"] != "T500" {
		t.Errorf("response = %v", resp)
	}
	if n := testutil.CountInvoices(t, db); n != 0 {
		t.Errorf("invoice rows = %d, want 0", n)
	}
}

func TestPaymentChannelsPassThrough(t *testing.T) {
	const channels = `{"success":true,"message":"Success","data":[{"group":"Virtual Account","code":"BRIVA","name":"BRI Virtual Account","active":true}]}`
	e, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/merchant/payment-channel" {
			t.Errorf("unexpected gateway path %s", r.URL.Path)
		}
		io.WriteString(w, channels)
	}, nil)

	rec := doRequest(e, http.MethodGet, "/transactions/payment-channels", "")
	if rec.Code != http.StatusOK || rec.Body.String() != channels {
		t.Errorf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestPaymentChannelsFailure(t *testing.T) {
	e, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"success":false,"message":"Maintenance"}`)
	}, nil)

	rec := doRequest(e, http.MethodGet, "/api/transactions/payment-channels", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	resp := decodeMap(t, rec)
	if resp["message"] != "Failed to fetch payment channels" {
		t.Errorf("message = %v", resp["message"])
	}
	details, _ := resp["details"].(map[string]any)
	if details["message"] != "Maintenance" {
		t.Errorf("details = %v", resp["details"])
	}
}

func TestListInvoicesIncludesProduct(t *testing.T) {
	e, db := newTestServer(t, gatewayReturning(t, http.StatusOK, testutil.TransactionJSON("T321")), nil)
	p1 := testutil.CreateProduct(t, db, "SKU-A", 10000)

	if rec := doRequest(e, http.MethodPost, "/transactions/create", checkoutBody(p1.ID)); rec.Code != http.StatusOK {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec := doRequest(e, http.MethodGet, "/invoices?reference=T321", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var invoices []model.Invoice
	if err := json.Unmarshal(rec.Body.Bytes(), &invoices); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(invoices) != 1 {
		t.Fatalf("invoices = %d, want 1", len(invoices))
	}
	if invoices[0].Product == nil || invoices[0].Product.SKU != "SKU-A" {
		t.Errorf("product = %+v", invoices[0].Product)
	}
	if invoices[0].BuyerEmail != "budi@example.com" {
		t.Errorf("buyer email = %q", invoices[0].BuyerEmail)
	}

	rec = doRequest(e, http.MethodGet, "/invoices?reference=missing", "")
	if rec.Body.String() != "[]\n" {
		t.Errorf("empty listing = %q", rec.Body.String())
	}
}
