package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storefront-service/pkg/config"
)

// The collectors stay nil until InitMetrics runs; every Record helper is a
// no-op in that state.
var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthSuccessCounter prometheus.Counter
	AuthErrorsCounter  prometheus.Counter

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Catalog metrics
	ProductOperationsCounter  *prometheus.CounterVec
	CategoryOperationsCounter *prometheus.CounterVec

	// Payment gateway metrics
	GatewayRequestsTotal   *prometheus.CounterVec
	GatewayRequestDuration *prometheus.HistogramVec

	// Invoice fan-out metrics
	InvoicesCreatedCounter      prometheus.Counter
	InvoiceItemsSkippedCounter  prometheus.Counter
	InvoiceBatchFailuresCounter prometheus.Counter
)

// InitMetrics registers the service collectors with the default registry
func InitMetrics(cfg *config.Config) {
	prefix := cfg.Metrics.Prefix

	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthSuccessCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	DbOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	ProductOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_product_operations_total",
			Help: "Total number of product operations",
		},
		[]string{"operation"},
	)

	CategoryOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_category_operations_total",
			Help: "Total number of category operations",
		},
		[]string{"operation"},
	)

	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_gateway_requests_total",
			Help: "Total number of payment gateway calls by endpoint and upstream status",
		},
		[]string{"endpoint", "status"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_gateway_request_duration_seconds",
			Help:    "Duration of payment gateway calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	InvoicesCreatedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_invoices_created_total",
			Help: "Total number of invoice rows committed",
		},
	)

	InvoiceItemsSkippedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_invoice_items_skipped_total",
			Help: "Total number of order lines skipped because the product no longer exists",
		},
	)

	InvoiceBatchFailuresCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_invoice_batch_failures_total",
			Help: "Total number of invoice batches rolled back after a successful gateway transaction",
		},
	)
}

// RecordHTTPRequest records one served HTTP request
func RecordHTTPRequest(method, path string, status int, startTime time.Time) {
	if HttpRequestsTotal == nil {
		return
	}
	statusStr := strconv.Itoa(status)
	HttpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	HttpRequestDuration.WithLabelValues(method, path, statusStr).Observe(time.Since(startTime).Seconds())
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordProductOperation increments the counter for product operations
func RecordProductOperation(operation string) {
	if ProductOperationsCounter != nil {
		ProductOperationsCounter.WithLabelValues(operation).Inc()
	}
}

// RecordCategoryOperation increments the counter for category operations
func RecordCategoryOperation(operation string) {
	if CategoryOperationsCounter != nil {
		CategoryOperationsCounter.WithLabelValues(operation).Inc()
	}
}

// RecordGatewayCall records one gateway round trip. status is the upstream
// HTTP status, or "error" when no response arrived.
func RecordGatewayCall(endpoint, status string, startTime time.Time) {
	if GatewayRequestsTotal == nil {
		return
	}
	GatewayRequestsTotal.WithLabelValues(endpoint, status).Inc()
	GatewayRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
}

// RecordInvoiceBatch records the result of a committed invoice batch
func RecordInvoiceBatch(created, skipped int) {
	if InvoicesCreatedCounter == nil {
		return
	}
	InvoicesCreatedCounter.Add(float64(created))
	InvoiceItemsSkippedCounter.Add(float64(skipped))
}

// RecordInvoiceBatchFailure records a rolled back invoice batch
func RecordInvoiceBatchFailure() {
	if InvoiceBatchFailuresCounter != nil {
		InvoiceBatchFailuresCounter.Inc()
	}
}

// RecordAuth records the outcome of a token check
func RecordAuth(success bool) {
	if AuthSuccessCounter == nil {
		return
	}
	if success {
		AuthSuccessCounter.Inc()
	} else {
		AuthErrorsCounter.Inc()
	}
}
