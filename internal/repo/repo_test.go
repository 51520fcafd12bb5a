package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/civiclens/internal/config"
	"github.com/xxxsen/civiclens/internal/db"
	"github.com/xxxsen/civiclens/internal/model"
)

// openTestDB connects to CIVICLENS_TEST_DSN, a postgres with pgvector installed.
func openTestDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("CIVICLENS_TEST_DSN")
	if dsn == "" {
		t.Skip("CIVICLENS_TEST_DSN not set")
	}
	conn, err := db.Open(config.DatabaseConfig{DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, db.ApplyMigrations(conn))
	t.Cleanup(func() {
		_, _ = conn.Exec(`DELETE FROM bill_embeddings`)
		_, _ = conn.Exec(`DELETE FROM cache_entries`)
		_, _ = conn.Exec(`DELETE FROM embedding_cache`)
		_ = conn.Close()
	})
	return conn
}

func TestCacheEntryRepoRoundTrip(t *testing.T) {
	conn := openTestDB(t)
	r := NewCacheEntryRepo(conn)
	ctx := context.Background()

	_, ok, err := r.Get(ctx, "news_feed")
	require.NoError(t, err)
	require.False(t, ok)

	written := time.UnixMilli(time.Now().UnixMilli())
	require.NoError(t, r.Set(ctx, &model.CacheEntry{Key: "news_feed", Value: json.RawMessage(`{"a":1}`), WrittenAt: written}))
	require.NoError(t, r.Set(ctx, &model.CacheEntry{Key: "news_feed", Value: json.RawMessage(`{"a":2}`), WrittenAt: written}))

	got, ok, err := r.Get(ctx, "news_feed")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"a":2}`, string(got.Value))
	require.True(t, written.Equal(got.WrittenAt))
}

func TestBillEmbeddingRepoReplaceAll(t *testing.T) {
	conn := openTestDB(t)
	r := NewBillEmbeddingRepo(conn)
	ctx := context.Background()

	first := []model.EmbeddingEntry{
		{BillID: "118-hr-2", Vector: []float32{0, 1}, Title: "Two", Tags: []string{"Energy"}, Mtime: 2},
		{BillID: "118-hr-1", Vector: []float32{1, 0}, Title: "One", Mtime: 1},
	}
	require.NoError(t, r.ReplaceAll(ctx, first))
	items, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "118-hr-1", items[0].BillID)
	require.Equal(t, []float32{0, 1}, items[1].Vector)
	require.Equal(t, []string{"Energy"}, items[1].Tags)

	require.NoError(t, r.ReplaceAll(ctx, first[:1]))
	items, err = r.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "118-hr-2", items[0].BillID)
}

func TestEmbeddingCacheRepoDeleteBefore(t *testing.T) {
	conn := openTestDB(t)
	r := NewEmbeddingCacheRepo(conn)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, &model.EmbeddingCache{
		ModelName: "m", TaskType: "q", ContentHash: "old", Embedding: []float32{1, 2}, Ctime: 100,
	}))
	require.NoError(t, r.Save(ctx, &model.EmbeddingCache{
		ModelName: "m", TaskType: "q", ContentHash: "new", Embedding: []float32{3, 4}, Ctime: 300,
	}))

	removed, err := r.DeleteBefore(ctx, 200)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, ok, err := r.Get(ctx, "m", "q", "old")
	require.NoError(t, err)
	require.False(t, ok)
	vec, ok, err := r.Get(ctx, "m", "q", "new")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []float32{3, 4}, vec)
}
