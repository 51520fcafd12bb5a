package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/civiclens/internal/model"
	"github.com/xxxsen/civiclens/internal/pkg/dbutil"
)

// CacheEntryRepo is the postgres-backed dashboard cache store.
type CacheEntryRepo struct {
	db *sql.DB
}

func NewCacheEntryRepo(db *sql.DB) *CacheEntryRepo {
	return &CacheEntryRepo{db: db}
}

func (r *CacheEntryRepo) Get(ctx context.Context, key string) (*model.CacheEntry, bool, error) {
	where := map[string]interface{}{
		"cache_key": key,
		"_limit":    []uint{0, 1},
	}
	sqlStr, args, err := builder.BuildSelect("cache_entries", where, []string{"cache_key", "value", "written_at"})
	if err != nil {
		return nil, false, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var (
		item      model.CacheEntry
		value     []byte
		writtenAt int64
	)
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&item.Key, &value, &writtenAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	item.Value = value
	item.WrittenAt = time.UnixMilli(writtenAt)
	return &item, true, nil
}

func (r *CacheEntryRepo) Set(ctx context.Context, entry *model.CacheEntry) error {
	const query = `
		INSERT INTO cache_entries (cache_key, value, written_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (cache_key) DO UPDATE SET
			value = EXCLUDED.value,
			written_at = EXCLUDED.written_at
	`
	_, err := r.db.ExecContext(ctx, query, entry.Key, []byte(entry.Value), entry.WrittenAt.UnixMilli())
	return err
}
