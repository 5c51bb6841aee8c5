package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"storefront-service/internal/invoice"
	"storefront-service/internal/testutil"
	"storefront-service/internal/transaction"
	"storefront-service/pkg/tripay"
)

// newTestServer wires the public routes against an in-memory database and a
// fake gateway served by gateway.
func newTestServer(t *testing.T, gateway http.HandlerFunc, guard echo.MiddlewareFunc) (*echo.Echo, *gorm.DB) {
	t.Helper()

	db := testutil.NewDB(t)

	if gateway == nil {
		gateway = func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected gateway call %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
	srv := httptest.NewServer(gateway)
	t.Cleanup(srv.Close)

	client, err := tripay.NewClient(tripay.Config{BaseURL: srv.URL, APIKey: "api-key", Timeout: 2 * time.Second}, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	signer, err := tripay.NewSigner("T0001", "private-key")
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}

	writer := invoice.NewWriter(db, nil)
	handlers := &Handlers{
		Products:     NewProductHandler(db),
		Categories:   NewCategoryHandler(db),
		Transactions: NewTransactionHandler(transaction.NewService(client, signer, writer)),
		Invoices:     NewInvoiceHandler(writer),
	}

	e := echo.New()
	e.Validator = NewValidator()
	handlers.Register(e, guard)
	handlers.Register(e.Group("/api"), guard)
	e.GET("/health", NewHealthHandler(db).Health)

	return e, db
}

func doRequest(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	return doAuthedRequest(e, method, path, body, "")
}

func doAuthedRequest(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t, nil, nil)

	rec := doRequest(e, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}

	rec = doRequest(e, http.MethodGet, "/health?check=db", "")
	if rec.Code != http.StatusOK || decodeMap(t, rec)["database"] != "up" {
		t.Errorf("db check = %d %s", rec.Code, rec.Body.String())
	}
}
