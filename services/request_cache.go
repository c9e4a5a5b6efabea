// services/request_cache.go
package services

import (
	"context"
	"sync"

	"match-stats-system/models"
)

type fetchCacheCtxKey struct{}

// FetchCache de-duplicates match fetches within one logical request. It is
// keyed purely by fetch parameters and has no TTL; its lifetime is the request
// that created it. This is a different layer from the result cache: the result
// cache persists computed aggregation output across requests, this one only
// stops one request's aggregations from re-fetching the same filtered match
// set.
type FetchCache struct {
	mu      sync.Mutex
	entries map[string][]models.MatchWithParticipants
}

func NewFetchCache() *FetchCache {
	return &FetchCache{entries: make(map[string][]models.MatchWithParticipants)}
}

// GetOrFetch returns the cached match set for key, fetching it on first use.
func (c *FetchCache) GetOrFetch(key string, fetch func() ([]models.MatchWithParticipants, error)) ([]models.MatchWithParticipants, error) {
	c.mu.Lock()
	cached, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	matches, err := fetch()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[key] = matches
	c.mu.Unlock()
	return matches, nil
}

// WithFetchCache attaches a fresh FetchCache to the context. Handlers call
// this once per request so every aggregation in the request shares fetches.
func WithFetchCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, fetchCacheCtxKey{}, NewFetchCache())
}

// FetchCacheFrom returns the request's FetchCache, or nil when none is
// attached.
func FetchCacheFrom(ctx context.Context) *FetchCache {
	fc, _ := ctx.Value(fetchCacheCtxKey{}).(*FetchCache)
	return fc
}
