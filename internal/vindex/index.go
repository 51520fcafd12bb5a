package vindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/civiclens/internal/ai"
	"github.com/xxxsen/civiclens/internal/metrics"
	"github.com/xxxsen/civiclens/internal/model"
	appErr "github.com/xxxsen/civiclens/internal/pkg/errors"
)

type ScoreMode int

const (
	// ScoreFold maps cosine similarity from [-1,1] to [0,1] via (cos+1)/2.
	ScoreFold ScoreMode = iota
	// ScoreClamp uses cosine directly, clamped at 0, for normalized non-negative spaces.
	ScoreClamp
)

// EntryStore persists the index between process restarts.
type EntryStore interface {
	ReplaceAll(ctx context.Context, entries []model.EmbeddingEntry) error
	List(ctx context.Context) ([]model.EmbeddingEntry, error)
}

type Options struct {
	SummaryChars int
	MinScore     float64
	Mode         ScoreMode
	Store        EntryStore
}

type Stats struct {
	Size    int       `json:"size"`
	BuiltAt time.Time `json:"built_at"`
	Model   string    `json:"model"`
}

// Index is an in-memory nearest-neighbour index over bill embeddings.
type Index struct {
	embedder ai.IEmbedder
	opts     Options

	mu      sync.RWMutex
	entries []model.EmbeddingEntry
	builtAt time.Time
}

func New(embedder ai.IEmbedder, opts Options) *Index {
	if opts.SummaryChars <= 0 {
		opts.SummaryChars = 500
	}
	return &Index{embedder: embedder, opts: opts}
}

// IndexBills embeds every bill and replaces the current entry set.
// A bill whose embedding fails is skipped; the rest are still indexed.
// If no bill at all could be embedded the current entries are kept.
func (ix *Index) IndexBills(ctx context.Context, bills []model.Bill) (int, error) {
	if ix.embedder == nil {
		return 0, fmt.Errorf("embedder not configured: %w", ai.ErrUnavailable)
	}
	logger := logutil.GetLogger(ctx)
	entries := make([]model.EmbeddingEntry, 0, len(bills))
	now := time.Now()
	for _, bill := range bills {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		vec, err := ix.embedder.Embed(ctx, ix.embedText(bill), ai.TaskRetrievalDocument)
		if err != nil {
			logger.Warn("skip bill embedding", zap.String("bill_id", bill.ID), zap.Error(err))
			continue
		}
		if len(vec) == 0 {
			logger.Warn("skip bill with empty embedding", zap.String("bill_id", bill.ID))
			continue
		}
		entries = append(entries, model.EmbeddingEntry{
			BillID:         bill.ID,
			Vector:         vec,
			Title:          bill.Title,
			Summary:        bill.Summary,
			Sponsor:        bill.Sponsor,
			IntroducedDate: bill.SortDate(),
			Status:         bill.LatestActionText,
			Tags:           bill.PolicyAreas,
			Mtime:          now.UnixMilli(),
		})
	}
	if len(bills) > 0 && len(entries) == 0 {
		logger.Error("no bill embedded, keep current index", zap.Int("bills", len(bills)))
		return 0, fmt.Errorf("embed %d bills: %w", len(bills), appErr.ErrUpstreamUnavailable)
	}
	ix.swap(entries, now)
	logger.Info("vector index rebuilt", zap.Int("bills", len(bills)), zap.Int("indexed", len(entries)))
	if ix.opts.Store != nil {
		if err := ix.opts.Store.ReplaceAll(ctx, entries); err != nil {
			logger.Error("persist vector index failed", zap.Error(err))
		}
	}
	return len(entries), nil
}

// Load restores the entries saved by the last rebuild.
func (ix *Index) Load(ctx context.Context) error {
	if ix.opts.Store == nil {
		return nil
	}
	entries, err := ix.opts.Store.List(ctx)
	if err != nil {
		return fmt.Errorf("load vector index: %w", err)
	}
	var builtAt time.Time
	for _, e := range entries {
		if t := time.UnixMilli(e.Mtime); t.After(builtAt) {
			builtAt = t
		}
	}
	ix.swap(entries, builtAt)
	logutil.GetLogger(ctx).Info("vector index loaded", zap.Int("entries", len(entries)))
	return nil
}

// Search returns up to k entries most similar to the query. It never fails:
// an empty index or an embedding error yields an empty slice.
func (ix *Index) Search(ctx context.Context, query string, k int) []model.SearchResult {
	results := []model.SearchResult{}
	query = strings.TrimSpace(query)
	if query == "" || k <= 0 || ix.embedder == nil {
		return results
	}
	ix.mu.RLock()
	entries := ix.entries
	ix.mu.RUnlock()
	if len(entries) == 0 {
		return results
	}
	qvec, err := ix.embedder.Embed(ctx, query, ai.TaskRetrievalQuery)
	if err != nil {
		logutil.GetLogger(ctx).Warn("embed search query failed", zap.String("query", query), zap.Error(err))
		return results
	}

	type match struct {
		entry *model.EmbeddingEntry
		score float64
	}
	matches := make([]match, 0, len(entries))
	for i := range entries {
		if len(entries[i].Vector) != len(qvec) {
			continue
		}
		score := ix.score(qvec, entries[i].Vector)
		if score < ix.opts.MinScore {
			continue
		}
		matches = append(matches, match{entry: &entries[i], score: score})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		if matches[i].entry.IntroducedDate != matches[j].entry.IntroducedDate {
			return matches[i].entry.IntroducedDate > matches[j].entry.IntroducedDate
		}
		return matches[i].entry.BillID < matches[j].entry.BillID
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	for _, m := range matches {
		results = append(results, model.SearchResult{
			BillID:         m.entry.BillID,
			Title:          m.entry.Title,
			Summary:        m.entry.Summary,
			Sponsor:        m.entry.Sponsor,
			IntroducedDate: m.entry.IntroducedDate,
			Status:         m.entry.Status,
			Score:          m.score,
			Source:         model.SourceVector,
		})
	}
	return results
}

func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	st := Stats{Size: len(ix.entries), BuiltAt: ix.builtAt}
	if ix.embedder != nil {
		st.Model = ix.embedder.ModelName()
	}
	return st
}

func (ix *Index) swap(entries []model.EmbeddingEntry, builtAt time.Time) {
	ix.mu.Lock()
	ix.entries = entries
	ix.builtAt = builtAt
	ix.mu.Unlock()
	metrics.IndexSize.Set(float64(len(entries)))
}

func (ix *Index) embedText(bill model.Bill) string {
	summary := []rune(strings.TrimSpace(bill.Summary))
	if len(summary) > ix.opts.SummaryChars {
		summary = summary[:ix.opts.SummaryChars]
	}
	if len(summary) == 0 {
		return bill.Title
	}
	return bill.Title + "\n" + string(summary)
}

func (ix *Index) score(a, b []float32) float64 {
	cos := cosineSimilarity(a, b)
	if ix.opts.Mode == ScoreClamp {
		return math.Max(0, math.Min(1, cos))
	}
	return (cos + 1) / 2
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
