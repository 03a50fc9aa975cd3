package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/maestriajurisp/leads-api/pkg/logger"
	"github.com/maestriajurisp/leads-api/pkg/metrics"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	urlKeyPrefix        = "url:"
	urlCacheCleanupTime = 10 * time.Minute
)

// URLLoader produces a fresh URL for a key on a cache miss
type URLLoader func(ctx context.Context) (string, error)

// URLCache keeps signed URLs so repeated downloads reuse one signature.
// Entries expire well before the URLs they hold.
type URLCache struct {
	cache *gocache.Cache
	name  string
	ttl   time.Duration
}

// NewURLCache creates a cache whose entries live ttl
func NewURLCache(name string, ttl time.Duration) *URLCache {
	return &URLCache{
		cache: gocache.New(ttl, urlCacheCleanupTime),
		name:  name,
		ttl:   ttl,
	}
}

// GetOrLoad returns the cached URL for key or stores the loader's result
func (uc *URLCache) GetOrLoad(ctx context.Context, key string, load URLLoader) (string, error) {
	cacheKey := urlKeyPrefix + key

	if data, found := uc.cache.Get(cacheKey); found {
		if u, ok := data.(string); ok {
			metrics.CacheHits.WithLabelValues(uc.name).Inc()
			return u, nil
		}
		logger.Error("Invalid URL cache data type", zap.String("cache", uc.name), zap.String("key", key))
		uc.cache.Delete(cacheKey)
	}

	metrics.CacheMisses.WithLabelValues(uc.name).Inc()

	u, err := load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load URL for %s: %w", key, err)
	}

	uc.cache.Set(cacheKey, u, uc.ttl)
	logger.Debug("URL cache refreshed", zap.String("cache", uc.name), zap.String("key", key))

	return u, nil
}

// Invalidate drops key
func (uc *URLCache) Invalidate(key string) {
	uc.cache.Delete(urlKeyPrefix + key)
}

// Len returns the number of live entries
func (uc *URLCache) Len() int {
	return uc.cache.ItemCount()
}
