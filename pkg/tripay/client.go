package tripay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront-service/prometheus"
)

const (
	paymentChannelPath    = "/merchant/payment-channel"
	createTransactionPath = "/transaction/create"

	defaultTimeout = 30 * time.Second
)

// Config holds what the client needs to reach the gateway
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the TriPay merchant API. It never retries: a transaction
// request may already have created a payment upstream.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient creates a gateway client instance
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base url", ErrMissingConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key", ErrMissingConfig)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:     cfg.APIKey,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		Logger:     logger,
	}, nil
}

// PaymentChannels fetches the merchant's payment channel list
func (c *Client) PaymentChannels(ctx context.Context) (*Response, error) {
	c.Logger.Info("Requesting payment channels")

	resp, err := c.do(ctx, http.MethodGet, paymentChannelPath, nil)
	if err != nil {
		return nil, err
	}

	if resp.OK() {
		var channels PaymentChannelsResponse
		if err := json.Unmarshal(resp.Body, &channels); err == nil {
			c.Logger.Info("Payment channels received", zap.Int("count", len(channels.Data)))
		}
	}
	return resp, nil
}

// CreateTransaction submits a signed closed-payment transaction
func (c *Client) CreateTransaction(ctx context.Context, payload TransactionPayload) (*Response, error) {
	c.Logger.Info("Requesting transaction",
		zap.String("merchant_ref", payload.MerchantRef),
		zap.String("method", payload.Method),
		zap.Int64("amount", payload.Amount),
		zap.Int("order_items", len(payload.OrderItems)))

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode transaction payload: %w", err)
	}

	return c.do(ctx, http.MethodPost, createTransactionPath, body)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	start := time.Now()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		c.Logger.Error("Failed to create gateway request", zap.Error(err))
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		prometheus.RecordGatewayCall(path, "error", start)
		c.Logger.Error("Gateway request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, fmt.Errorf("gateway %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		prometheus.RecordGatewayCall(path, "error", start)
		c.Logger.Error("Failed to read gateway response", zap.Error(err))
		return nil, fmt.Errorf("read gateway response: %w", err)
	}

	prometheus.RecordGatewayCall(path, strconv.Itoa(resp.StatusCode), start)

	result := &Response{StatusCode: resp.StatusCode, Body: respBody}
	if !result.OK() {
		c.Logger.Warn("Gateway returned error status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("response", string(respBody)))
		return result, nil
	}

	c.Logger.Info("Gateway call successful",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}
