package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const productsCacheKey = "catalog:products"

// Cache stores JSON documents in Redis with a fixed TTL. A nil Cache or a
// Cache without a client is a no-op.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate drops key from the cache.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	return c.client.Del(ctx, key).Err()
}

// Locker runs fn while holding a named lock.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// CachedSource serves products from Redis and falls back to the wrapped
// source on a miss. Cache errors are logged and never fail the read. With a
// Lock, only one caller refills the cache while the others wait for it.
type CachedSource struct {
	Source Source
	Cache  *Cache
	Lock   Locker
	Logger zerolog.Logger
}

// Products implements Source.
func (s CachedSource) Products(ctx context.Context) ([]Product, error) {
	if s.Source == nil {
		return nil, errors.New("catalog source not configured")
	}
	if products, ok := s.cached(ctx); ok {
		return products, nil
	}
	if s.Lock == nil {
		return s.fill(ctx)
	}
	var (
		products []Product
		locked   bool
	)
	err := s.Lock.WithLock(ctx, productsCacheKey+":fill", 30*time.Second, func(ctx context.Context) error {
		locked = true
		if cached, ok := s.cached(ctx); ok {
			products = cached
			return nil
		}
		var err error
		products, err = s.fill(ctx)
		return err
	})
	if err != nil && !locked && ctx.Err() == nil {
		// Redis is unreachable; the billing API alone can still answer.
		s.Logger.Warn().Err(err).Msg("catalog_cache_lock_failed")
		return s.fill(ctx)
	}
	return products, err
}

// Refresh drops the cached catalog so the next read hits the source.
func (s CachedSource) Refresh(ctx context.Context) error {
	return s.Cache.Invalidate(ctx, productsCacheKey)
}

func (s CachedSource) cached(ctx context.Context) ([]Product, bool) {
	var products []Product
	hit, err := s.Cache.GetJSON(ctx, productsCacheKey, &products)
	if err != nil {
		s.Logger.Warn().Err(err).Msg("catalog_cache_read_failed")
	}
	return products, hit
}

func (s CachedSource) fill(ctx context.Context) ([]Product, error) {
	products, err := s.Source.Products(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Cache.SetJSON(ctx, productsCacheKey, products); err != nil {
		s.Logger.Warn().Err(err).Msg("catalog_cache_write_failed")
	}
	return products, nil
}
