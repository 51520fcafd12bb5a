package dashcache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/civiclens/internal/metrics"
	"github.com/xxxsen/civiclens/internal/model"
)

const (
	KeyFinanceDashboard    = "finance_dashboard"
	KeyNewsFeed            = "news_feed"
	KeyLobbyingSummary     = "lobbying_summary"
	KeyStateBills          = "state_bills"
	KeyRepresentativeBills = "representative_bills"
)

const defaultTTL = time.Hour

var defaultTTLs = map[string]time.Duration{
	KeyFinanceDashboard:    6 * time.Hour,
	KeyNewsFeed:            15 * time.Minute,
	KeyLobbyingSummary:     6 * time.Hour,
	KeyStateBills:          time.Hour,
	KeyRepresentativeBills: time.Hour,
}

// Store is the persistence contract behind the cache.
type Store interface {
	Get(ctx context.Context, key string) (*model.CacheEntry, bool, error)
	Set(ctx context.Context, entry *model.CacheEntry) error
}

type Options struct {
	TTLs       map[string]time.Duration
	DefaultTTL time.Duration
	Now        func() time.Time
}

// Cache memoizes dashboard payloads with a fixed TTL per metric. Concurrent
// misses on the same key may each recompute; the last write wins.
type Cache struct {
	store      Store
	ttls       map[string]time.Duration
	defaultTTL time.Duration
	now        func() time.Time
}

func New(store Store, opts Options) *Cache {
	ttls := make(map[string]time.Duration, len(defaultTTLs)+len(opts.TTLs))
	for k, v := range defaultTTLs {
		ttls[k] = v
	}
	for k, v := range opts.TTLs {
		if v > 0 {
			ttls[k] = v
		}
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = defaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Cache{store: store, ttls: ttls, defaultTTL: opts.DefaultTTL, now: opts.Now}
}

// Key joins a metric name with an optional scope, e.g. "state_bills:ca".
func Key(metric string, scope ...string) string {
	parts := append([]string{metric}, scope...)
	return strings.Join(parts, ":")
}

// TTLFor returns the TTL configured for the key's metric.
func (c *Cache) TTLFor(key string) time.Duration {
	metric, _, _ := strings.Cut(key, ":")
	if ttl, ok := c.ttls[metric]; ok {
		return ttl
	}
	return c.defaultTTL
}

// GetCached returns the entry only while it is younger than its TTL.
// Store failures are logged and reported as a miss.
func (c *Cache) GetCached(ctx context.Context, key string) (*model.CacheEntry, bool) {
	metric, _, _ := strings.Cut(key, ":")
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logutil.GetLogger(ctx).Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		metrics.DashboardCacheTotal.WithLabelValues(metric, "error").Inc()
		return nil, false
	}
	if !ok || entry == nil {
		metrics.DashboardCacheTotal.WithLabelValues(metric, "miss").Inc()
		return nil, false
	}
	if c.now().Sub(entry.WrittenAt) >= c.TTLFor(key) {
		metrics.DashboardCacheTotal.WithLabelValues(metric, "stale").Inc()
		return nil, false
	}
	metrics.DashboardCacheTotal.WithLabelValues(metric, "hit").Inc()
	return entry, true
}

// SetCached overwrites the key with value stamped at the current time.
func (c *Cache) SetCached(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	entry := &model.CacheEntry{Key: key, Value: raw, WrittenAt: c.now()}
	if err := c.store.Set(ctx, entry); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// GetOrCompute serves key from the cache or computes, stores and returns it.
// A failed computation is returned and nothing is stored.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, compute func(ctx context.Context) (T, error)) (T, error) {
	if entry, ok := c.GetCached(ctx, key); ok {
		var cached T
		if err := json.Unmarshal(entry.Value, &cached); err == nil {
			return cached, nil
		}
		logutil.GetLogger(ctx).Warn("discard undecodable cache entry", zap.String("key", key))
	}
	value, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := c.SetCached(ctx, key, value); err != nil {
		logutil.GetLogger(ctx).Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}
