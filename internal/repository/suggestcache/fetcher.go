// Package suggestcache caches provider suggestions in a key-value store.
package suggestcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kwharvest/internal/db"
	"github.com/kailas-cloud/kwharvest/internal/domain"
	"github.com/kailas-cloud/kwharvest/internal/domain/provider"
)

const cacheKeyPrefix = "suggest_cache:"

// DefaultTTL keeps suggestions long enough to share across runs, short enough to follow trends.
const DefaultTTL = 6 * time.Hour

// store is the consumer interface for the suggestion cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Fetcher is the decorated suggestion source.
type Fetcher interface {
	Fetch(ctx context.Context, id provider.ID, req provider.Request) []string
}

// CachedFetcher caches non-empty suggestion lists. Empty answers are never
// cached since they are indistinguishable from provider failures.
type CachedFetcher struct {
	inner      Fetcher
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
	prefix     string
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner Fetcher,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedFetcher{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
		prefix:     domain.KeyPrefix,
	}
}

// WithKeyPrefix configures the storage key prefix.
func (c *CachedFetcher) WithKeyPrefix(prefix string) *CachedFetcher {
	if prefix != "" {
		c.prefix = prefix
	}
	return c
}

// Fetch returns cached suggestions or calls the inner fetcher.
func (c *CachedFetcher) Fetch(ctx context.Context, id provider.ID, req provider.Request) []string {
	key := c.prefix + cacheKey(id, req)

	if list, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return list
	}
	c.incCache("miss")

	list := c.inner.Fetch(ctx, id, req)
	if len(list) > 0 {
		c.putToCache(ctx, key, list)
	}
	return list
}

func (c *CachedFetcher) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(id provider.ID, req provider.Request) string {
	cursor := "-"
	if req.Cursor != nil {
		cursor = strconv.Itoa(*req.Cursor)
	}
	h := sha256.Sum256([]byte(string(id) + "\x00" + req.Locale + "\x00" + cursor + "\x00" + req.Query))
	return cacheKeyPrefix + string(id) + ":" + hex.EncodeToString(h[:])
}

func (c *CachedFetcher) getFromCache(ctx context.Context, key string) ([]string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("suggestion cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil || len(list) == 0 {
		c.logger.Warn("suggestion cache entry corrupted", zap.String("key", key))
		return nil, false
	}
	return list, true
}

func (c *CachedFetcher) putToCache(ctx context.Context, key string, list []string) {
	data, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("suggestion cache write failed", zap.String("key", key), zap.Error(err))
	}
}
