package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/civiclens/internal/model"
	"github.com/xxxsen/civiclens/internal/pkg/dbutil"
)

var billEmbeddingFields = []string{
	"bill_id", "embedding", "title", "summary", "sponsor", "introduced_date", "status", "tags", "mtime",
}

// BillEmbeddingRepo stores the vector index snapshot.
type BillEmbeddingRepo struct {
	db *sql.DB
}

func NewBillEmbeddingRepo(db *sql.DB) *BillEmbeddingRepo {
	return &BillEmbeddingRepo{db: db}
}

// ReplaceAll swaps the stored snapshot for entries in one transaction.
func (r *BillEmbeddingRepo) ReplaceAll(ctx context.Context, entries []model.EmbeddingEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bill_embeddings`); err != nil {
		return fmt.Errorf("clear bill embeddings: %w", err)
	}
	for i := range entries {
		e := &entries[i]
		tags, err := json.Marshal(e.Tags)
		if err != nil {
			return err
		}
		data := map[string]interface{}{
			"bill_id":         e.BillID,
			"embedding":       pgvector.NewVector(e.Vector),
			"title":           e.Title,
			"summary":         e.Summary,
			"sponsor":         e.Sponsor,
			"introduced_date": e.IntroducedDate,
			"status":          e.Status,
			"tags":            string(tags),
			"mtime":           e.Mtime,
		}
		sqlStr, args, err := builder.BuildInsert("bill_embeddings", []map[string]interface{}{data})
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("insert bill embedding %s: %w", e.BillID, err)
		}
	}
	return tx.Commit()
}

func (r *BillEmbeddingRepo) List(ctx context.Context) ([]model.EmbeddingEntry, error) {
	where := map[string]interface{}{
		"_orderby": "bill_id asc",
	}
	sqlStr, args, err := builder.BuildSelect("bill_embeddings", where, billEmbeddingFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.EmbeddingEntry, 0)
	for rows.Next() {
		var (
			item model.EmbeddingEntry
			vec  pgvector.Vector
			tags string
		)
		if err := rows.Scan(
			&item.BillID, &vec, &item.Title, &item.Summary, &item.Sponsor,
			&item.IntroducedDate, &item.Status, &tags, &item.Mtime,
		); err != nil {
			return nil, err
		}
		item.Vector = vec.Slice()
		if tags != "" {
			if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
				return nil, fmt.Errorf("decode tags of %s: %w", item.BillID, err)
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
