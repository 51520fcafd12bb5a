package dashcache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/civiclens/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(opts Options) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)}
	opts.Now = clock.Now
	return New(NewMemoryStore(), opts), clock
}

func TestSetThenGetWithinTTL(t *testing.T) {
	c, clock := newTestCache(Options{})
	require.NoError(t, c.SetCached(context.Background(), "x", map[string]int{"v": 1}))

	entry, ok := c.GetCached(context.Background(), "x")
	require.True(t, ok)
	require.JSONEq(t, `{"v":1}`, string(entry.Value))
	require.Equal(t, clock.Now(), entry.WrittenAt)
}

func TestGetAfterTTLExpires(t *testing.T) {
	c, clock := newTestCache(Options{})
	require.NoError(t, c.SetCached(context.Background(), "x", "v"))

	clock.Advance(59 * time.Minute)
	_, ok := c.GetCached(context.Background(), "x")
	require.True(t, ok)

	clock.Advance(time.Minute)
	_, ok = c.GetCached(context.Background(), "x")
	require.False(t, ok)
}

func TestPerMetricTTLs(t *testing.T) {
	c, _ := newTestCache(Options{})
	require.Equal(t, 6*time.Hour, c.TTLFor(KeyFinanceDashboard))
	require.Equal(t, 15*time.Minute, c.TTLFor(KeyNewsFeed))
	require.Equal(t, time.Hour, c.TTLFor(Key(KeyStateBills, "ca")))
	require.Equal(t, 6*time.Hour, c.TTLFor(Key(KeyLobbyingSummary, "2024")))
	require.Equal(t, time.Hour, c.TTLFor("unknown"))

	custom, _ := newTestCache(Options{TTLs: map[string]time.Duration{KeyNewsFeed: time.Minute}, DefaultTTL: 2 * time.Hour})
	require.Equal(t, time.Minute, custom.TTLFor(KeyNewsFeed))
	require.Equal(t, 2*time.Hour, custom.TTLFor("unknown"))
	require.Equal(t, 6*time.Hour, custom.TTLFor(KeyFinanceDashboard))
}

func TestNewsFeedExpiresBeforeFinance(t *testing.T) {
	c, clock := newTestCache(Options{})
	ctx := context.Background()
	require.NoError(t, c.SetCached(ctx, KeyNewsFeed, []string{"a"}))
	require.NoError(t, c.SetCached(ctx, KeyFinanceDashboard, []string{"b"}))

	clock.Advance(16 * time.Minute)
	_, ok := c.GetCached(ctx, KeyNewsFeed)
	require.False(t, ok)
	_, ok = c.GetCached(ctx, KeyFinanceDashboard)
	require.True(t, ok)
}

func TestSetCachedOverwrites(t *testing.T) {
	c, clock := newTestCache(Options{})
	ctx := context.Background()
	require.NoError(t, c.SetCached(ctx, "x", 1))
	clock.Advance(30 * time.Minute)
	require.NoError(t, c.SetCached(ctx, "x", 2))
	clock.Advance(45 * time.Minute)

	entry, ok := c.GetCached(ctx, "x")
	require.True(t, ok)
	require.Equal(t, "2", string(entry.Value))
}

func TestGetOrCompute(t *testing.T) {
	c, clock := newTestCache(Options{})
	ctx := context.Background()
	calls := 0
	compute := func(context.Context) ([]string, error) {
		calls++
		return []string{"fresh"}, nil
	}

	v, err := GetOrCompute(ctx, c, KeyNewsFeed, compute)
	require.NoError(t, err)
	require.Equal(t, []string{"fresh"}, v)
	v, err = GetOrCompute(ctx, c, KeyNewsFeed, compute)
	require.NoError(t, err)
	require.Equal(t, []string{"fresh"}, v)
	require.Equal(t, 1, calls)

	clock.Advance(20 * time.Minute)
	_, err = GetOrCompute(ctx, c, KeyNewsFeed, compute)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestGetOrComputeErrorNotCached(t *testing.T) {
	c, _ := newTestCache(Options{})
	ctx := context.Background()
	_, err := GetOrCompute(ctx, c, "x", func(context.Context) (int, error) {
		return 0, errors.New("upstream down")
	})
	require.Error(t, err)
	_, ok := c.GetCached(ctx, "x")
	require.False(t, ok)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (*model.CacheEntry, bool, error) {
	return nil, false, errors.New("db down")
}

func (brokenStore) Set(context.Context, *model.CacheEntry) error {
	return errors.New("db down")
}

func TestStoreFailuresDegradeToMiss(t *testing.T) {
	c := New(brokenStore{}, Options{})
	ctx := context.Background()
	_, ok := c.GetCached(ctx, "x")
	require.False(t, ok)
	require.Error(t, c.SetCached(ctx, "x", 1))

	v, err := GetOrCompute(ctx, c, "x", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	require.Equal(t, 7, v)
}

func TestConcurrentAccess(t *testing.T) {
	c, _ := newTestCache(Options{})
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.SetCached(ctx, "x", i)
			_, _ = c.GetCached(ctx, "x")
		}(i)
	}
	wg.Wait()
	entry, ok := c.GetCached(ctx, "x")
	require.True(t, ok)
	var v int
	require.NoError(t, json.Unmarshal(entry.Value, &v))
	require.GreaterOrEqual(t, v, 0)
	require.Less(t, v, 16)
}
