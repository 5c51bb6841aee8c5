package tripay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL + "/", APIKey: "api-key", Timeout: time.Second}, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestPaymentChannelsSendsBearerToken(t *testing.T) {
	const body = `{"success":true,"message":"Success","data":[{"group":"Virtual Account","code":"BRIVA","name":"BRI Virtual Account","type":"direct","fee_merchant":{"flat":0,"percent":0},"fee_customer":{"flat":4250,"percent":0},"total_fee":{"flat":4250,"percent":"0.00"},"minimum_fee":null,"maximum_fee":null,"minimum_amount":10000,"maximum_amount":5000000,"icon_url":"https://tripay.example/briva.png","active":true}]}`

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/merchant/payment-channel" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer api-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		io.WriteString(w, body)
	})

	resp, err := client.PaymentChannels(context.Background())
	if err != nil {
		t.Fatalf("PaymentChannels() error = %v", err)
	}
	if !resp.OK() || resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if string(resp.Body) != body {
		t.Errorf("body was not passed through verbatim: %s", resp.Body)
	}
}

func TestPaymentChannelsReturnsUpstreamFailureAsData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"success":false,"message":"Invalid API key"}`)
	})

	resp, err := client.PaymentChannels(context.Background())
	if err != nil {
		t.Fatalf("non-2xx must not be an error, got %v", err)
	}
	if resp.OK() || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, OK = %v", resp.StatusCode, resp.OK())
	}
	if !strings.Contains(string(resp.Body), "Invalid API key") {
		t.Errorf("body = %s", resp.Body)
	}
}

func TestCreateTransactionPostsSignedPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transaction/create" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}

		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if raw["signature"] != "sig" || raw["merchant_ref"] != "INV-1" {
			t.Errorf("payload = %v", raw)
		}
		items := raw["order_items"].([]any)
		if len(items) != 1 {
			t.Fatalf("order_items = %v", items)
		}
		if _, ok := items[0].(map[string]any)["id"]; ok {
			t.Error("order item carried an id field")
		}

		io.WriteString(w, `{"success":true,"data":{"reference":"T123"}}`)
	})

	resp, err := client.CreateTransaction(context.Background(), TransactionPayload{
		Method:        "BRIVA",
		MerchantRef:   "INV-1",
		Amount:        10000,
		CustomerName:  "Budi",
		CustomerEmail: "budi@example.com",
		CustomerPhone: "0812",
		OrderItems:    []OrderItem{{Name: "Kaos Polos", Price: 10000, Quantity: 1}},
		Signature:     "sig",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	tr, err := resp.Transaction()
	if err != nil {
		t.Fatalf("Transaction() error = %v", err)
	}
	if tr.Data == nil || tr.Data.Reference != "T123" {
		t.Errorf("reference = %+v", tr.Data)
	}
}

func TestCreateTransactionPassesThroughValidationError(t *testing.T) {
	const body = `{"success":false,"message":"Invalid signature"}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, body)
	})

	resp, err := client.CreateTransaction(context.Background(), TransactionPayload{MerchantRef: "INV-1"})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if resp.StatusCode != http.StatusUnprocessableEntity || string(resp.Body) != body {
		t.Errorf("got %d %s", resp.StatusCode, resp.Body)
	}
}

func TestClientEnforcesTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := client.PaymentChannels(context.Background()); err == nil {
		t.Fatal("expected a timeout error")
	}
}

func TestNewClientRequiresConfig(t *testing.T) {
	if _, err := NewClient(Config{APIKey: "k"}, nil); !errors.Is(err, ErrMissingConfig) {
		t.Errorf("missing base url: err = %v", err)
	}
	if _, err := NewClient(Config{BaseURL: "http://localhost"}, nil); !errors.Is(err, ErrMissingConfig) {
		t.Errorf("missing api key: err = %v", err)
	}

	client, err := NewClient(Config{BaseURL: "http://localhost", APIKey: "k"}, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if client.HTTPClient.Timeout != defaultTimeout {
		t.Errorf("timeout = %v, want %v", client.HTTPClient.Timeout, defaultTimeout)
	}
}

func TestResponseEmpty(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{"", true},
		{"  null ", true},
		{"{}", false},
	}
	for _, tt := range tests {
		r := &Response{StatusCode: 200, Body: json.RawMessage(tt.body)}
		if got := r.Empty(); got != tt.want {
			t.Errorf("Empty(%q) = %v, want %v", tt.body, got, tt.want)
		}
	}
}
