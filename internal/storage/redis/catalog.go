package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"web-larek/pkg/api"
	redisclient "web-larek/pkg/redis"
)

const catalogKey = "catalog:products"

// CatalogSource loads the catalog from the API.
type CatalogSource interface {
	GetProductList(ctx context.Context) ([]api.Product, error)
}

// CatalogCache serves the catalog from Redis and falls back to the source on
// a miss. Redis failures are logged and never fail the request.
type CatalogCache struct {
	source CatalogSource
	kv     KV
	ttl    time.Duration
	logger *zap.Logger
}

func NewCatalogCache(source CatalogSource, kv KV, ttl time.Duration, logger *zap.Logger) *CatalogCache {
	return &CatalogCache{
		source: source,
		kv:     kv,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CatalogCache) GetProductList(ctx context.Context) ([]api.Product, error) {
	const operation = "redis.CatalogCache.GetProductList"

	data, err := c.kv.Get(ctx, catalogKey)
	switch {
	case err == nil:
		var products []api.Product
		if err := json.Unmarshal(data, &products); err == nil {
			c.logger.Debug("Catalog served from cache", zap.Int("items", len(products)))
			return products, nil
		}
		c.logger.Warn("Dropping unreadable catalog cache entry", zap.Error(err))
	case errors.Is(err, redisclient.ErrMiss):
	default:
		c.logger.Warn("Failed to read catalog cache", zap.Error(err))
	}

	products, err := c.source.GetProductList(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	data, err = json.Marshal(products)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal catalog: %w", operation, err)
	}
	if err := c.kv.Set(ctx, catalogKey, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache catalog", zap.Error(err))
	}

	return products, nil
}

// Invalidate drops the cached catalog.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	if err := c.kv.Del(ctx, catalogKey); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}
