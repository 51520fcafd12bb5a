package embedcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/civiclens/internal/model"
)

type countingEmbedder struct {
	calls int
	err   error
	empty bool
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	if c.empty {
		return []float32{}, nil
	}
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingEmbedder) ModelName() string {
	return "fake:v1"
}

type memStore struct {
	items map[string][]float32
	saves int
}

func (m *memStore) Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error) {
	v, ok := m.items[modelName+taskType+contentHash]
	return v, ok, nil
}

func (m *memStore) Save(ctx context.Context, item *model.EmbeddingCache) error {
	m.saves++
	m.items[item.ModelName+item.TaskType+item.ContentHash] = item.Embedding
	return nil
}

func TestLruEmbedderCachesByTaskAndText(t *testing.T) {
	next := &countingEmbedder{}
	e := WrapLruCacheToEmbedder(next, 8, time.Minute)
	ctx := context.Background()

	first, err := e.Embed(ctx, "climate", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	second, err := e.Embed(ctx, "climate", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, next.calls)

	_, err = e.Embed(ctx, "climate", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, 2, next.calls)
}

func TestLruEmbedderReturnsCopies(t *testing.T) {
	e := WrapLruCacheToEmbedder(&countingEmbedder{}, 8, time.Minute)
	ctx := context.Background()
	v, err := e.Embed(ctx, "abc", "")
	require.NoError(t, err)
	v[0] = 99
	again, err := e.Embed(ctx, "abc", "")
	require.NoError(t, err)
	require.Equal(t, float32(3), again[0])
}

func TestLruEmbedderSkipsEmptyVectors(t *testing.T) {
	next := &countingEmbedder{empty: true}
	e := WrapLruCacheToEmbedder(next, 8, time.Minute)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		v, err := e.Embed(ctx, "climate", "RETRIEVAL_QUERY")
		require.NoError(t, err)
		require.Empty(t, v)
	}
	require.Equal(t, 2, next.calls)
}

func TestLruEmbedderDisabled(t *testing.T) {
	next := &countingEmbedder{}
	require.Equal(t, next, WrapLruCacheToEmbedder(next, 0, time.Minute))
}

func TestDBEmbedderPersistsMisses(t *testing.T) {
	next := &countingEmbedder{}
	store := &memStore{items: map[string][]float32{}}
	e := WrapDBCacheToEmbedder(next, store)
	ctx := context.Background()

	_, err := e.Embed(ctx, "bill text", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	_, err = e.Embed(ctx, "bill text", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, 1, next.calls)
	require.Equal(t, 1, store.saves)
}

func TestDBEmbedderPropagatesEmbedError(t *testing.T) {
	boom := errors.New("boom")
	store := &memStore{items: map[string][]float32{}}
	_, err := WrapDBCacheToEmbedder(&countingEmbedder{err: boom}, store).Embed(context.Background(), "x", "")
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, store.saves)
}
