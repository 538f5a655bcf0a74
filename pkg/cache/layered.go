package cache

import (
	"context"
	"time"
)

// LayeredCache implements two-level cache (L1: Memory, L2: Redis).
type LayeredCache struct {
	memCache   *MemoryCache
	redisCache *RedisCache
}

// NewLayeredCache creates a layered cache with memory and Redis.
func NewLayeredCache(redisCache *RedisCache, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{
		MemoryMaxSize: 1000,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &LayeredCache{
		memCache:   NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		redisCache: redisCache,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, payload string, expiration time.Duration) error {
	// Write-through: Redis first, then memory
	if err := lc.redisCache.Set(ctx, key, payload, expiration); err != nil {
		return err
	}
	_ = lc.memCache.Set(ctx, key, payload, expiration)
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string) (string, error) {
	// L1: Try memory first
	if payload, err := lc.memCache.Get(ctx, key); err == nil {
		return payload, nil
	}

	// L2: Try Redis
	payload, err := lc.redisCache.Get(ctx, key)
	if err != nil {
		return "", err
	}

	// Promote to memory for next time. Remaining Redis TTL is not
	// consulted; the short L1 expiry keeps staleness bounded.
	_ = lc.memCache.Set(ctx, key, payload, time.Minute)
	return payload, nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.memCache.Delete(ctx, keys...)
	return lc.redisCache.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, key string) (bool, error) {
	return lc.redisCache.Exists(ctx, key)
}

func (lc *LayeredCache) Health(ctx context.Context) error {
	return lc.redisCache.Health(ctx)
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	_ = lc.memCache.Close()
	return lc.redisCache.Close()
}
