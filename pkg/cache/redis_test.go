package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"storefront-service/pkg/config"
)

func newTestCache(t *testing.T, ttl time.Duration) (*ChannelCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := ConnectRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("ConnectRedis() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return NewChannelCache(client, ttl, nil), mr
}

func TestChannelCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	if _, ok := cache.Get(ctx); ok {
		t.Fatal("expected a miss on an empty cache")
	}

	body := []byte(`{"success":true,"data":[]}`)
	cache.Set(ctx, body)

	got, ok := cache.Get(ctx)
	if !ok || string(got) != string(body) {
		t.Errorf("Get() = %s, %v", got, ok)
	}

	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, ok := cache.Get(ctx); ok {
		t.Error("expected a miss after Invalidate")
	}
}

func TestChannelCacheExpires(t *testing.T) {
	cache, mr := newTestCache(t, 5*time.Minute)
	ctx := context.Background()

	cache.Set(ctx, []byte(`{}`))
	if ttl := mr.TTL(paymentChannelsKey); ttl != 5*time.Minute {
		t.Errorf("ttl = %v, want 5m", ttl)
	}

	mr.FastForward(6 * time.Minute)
	if _, ok := cache.Get(ctx); ok {
		t.Error("expected the entry to expire")
	}
}

func TestChannelCacheTreatsErrorsAsMiss(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	mr.Close()

	if _, ok := cache.Get(context.Background()); ok {
		t.Error("expected a miss when redis is down")
	}
	// Must not panic.
	cache.Set(context.Background(), []byte(`{}`))
}

func TestConnectRedisFailsFast(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := ConnectRedis(ctx, config.RedisConfig{Addr: "127.0.0.1:1"}); err == nil {
		t.Fatal("expected an error for an unreachable server")
	}
}
