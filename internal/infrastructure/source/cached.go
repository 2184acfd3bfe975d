package source

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/infrastructure/cache"
)

// CachingConnector memoises successful lookups per source, language and barcode.
// Failures are never cached so the next run asks the provider again.
type CachingConnector struct {
	next   enrichment.Connector
	store  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

// WithCache wraps a connector with a lookup cache; a nil store or zero ttl disables caching
func WithCache(next enrichment.Connector, store cache.Store, ttl time.Duration, logger *zap.Logger) enrichment.Connector {
	if store == nil || ttl <= 0 {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingConnector{next: next, store: store, ttl: ttl, logger: logger}
}

// Source returns the wrapped source
func (c *CachingConnector) Source() enrichment.SourceID {
	return c.next.Source()
}

// Fetch serves a cached result when present, otherwise calls through and caches a success
func (c *CachingConnector) Fetch(ctx context.Context, barcode string, opts enrichment.FetchOptions) enrichment.Result {
	key := CacheKey(c.next.Source(), opts.Language, barcode)

	if raw, found, err := c.store.Get(ctx, key); err != nil {
		c.logger.Warn("Lookup cache read failed", zap.String("key", key), zap.Error(err))
	} else if found {
		var data enrichment.ProductData
		if err := json.Unmarshal(raw, &data); err == nil {
			return enrichment.Succeeded(&data)
		}
		c.logger.Warn("Discarding corrupt lookup cache entry", zap.String("key", key))
	}

	result := c.next.Fetch(ctx, barcode, opts)
	if !result.Success || result.Data == nil {
		return result
	}
	raw, err := json.Marshal(result.Data)
	if err == nil {
		err = c.store.Set(ctx, key, raw, c.ttl)
	}
	if err != nil {
		c.logger.Warn("Lookup cache write failed", zap.String("key", key), zap.Error(err))
	}
	return result
}

// CacheKey builds the cache key of one lookup
func CacheKey(source enrichment.SourceID, language, barcode string) string {
	if language == "" {
		language = "-"
	}
	return "lookup:" + string(source) + ":" + strings.ToLower(language) + ":" + strings.TrimSpace(barcode)
}
