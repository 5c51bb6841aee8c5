package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront-service/pkg/config"
)

const paymentChannelsKey = "storefront:tripay:payment-channels"

// ConnectRedis opens a client for the configured address and verifies it with a PING
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// ChannelCache keeps the last successful payment channel list body
type ChannelCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewChannelCache wraps a redis client. A non-positive ttl disables expiry.
func NewChannelCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ChannelCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChannelCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached body. ok is false on a miss; errors are logged and
// reported as a miss so the caller falls through to the gateway.
func (c *ChannelCache) Get(ctx context.Context) (body []byte, ok bool) {
	body, err := c.client.Get(ctx, paymentChannelsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Payment channel cache read failed", zap.Error(err))
		return nil, false
	}
	return body, true
}

// Set stores body for the cache ttl
func (c *ChannelCache) Set(ctx context.Context, body []byte) {
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, paymentChannelsKey, body, ttl).Err(); err != nil {
		c.logger.Warn("Payment channel cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached list
func (c *ChannelCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, paymentChannelsKey).Err()
}
