package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/civiclens/internal/batch"
	"github.com/xxxsen/civiclens/internal/model"
	appErr "github.com/xxxsen/civiclens/internal/pkg/errors"
	"github.com/xxxsen/civiclens/internal/vindex"
)

type BillSource interface {
	FetchRecentBills(ctx context.Context, limit, offset int) ([]model.Bill, error)
	FetchBillDetails(ctx context.Context, billType, number string, congress int) (*model.Bill, error)
}

type BillIndexer interface {
	IndexBills(ctx context.Context, bills []model.Bill) (int, error)
	Stats() vindex.Stats
}

type IndexConfig struct {
	BillCount       int
	DetailBatchSize int
	DetailDelay     time.Duration
	Sleep           batch.SleepFunc
}

// IndexService rebuilds the bill vector index from the recent bill feed.
type IndexService struct {
	bills   BillSource
	indexer BillIndexer
	cfg     IndexConfig
	mu      sync.Mutex
}

func NewIndexService(bills BillSource, indexer BillIndexer, cfg IndexConfig) *IndexService {
	if cfg.BillCount <= 0 {
		cfg.BillCount = 250
	}
	if cfg.DetailBatchSize <= 0 {
		cfg.DetailBatchSize = 5
	}
	return &IndexService{bills: bills, indexer: indexer, cfg: cfg}
}

// Reindex fetches recent bills, fills in missing summaries from the detail
// endpoint and replaces the index contents. Rebuilds are serialized.
func (s *IndexService) Reindex(ctx context.Context) (int, error) {
	if s.bills == nil || s.indexer == nil {
		return 0, fmt.Errorf("index not configured: %w", appErr.ErrUpstreamUnavailable)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := logutil.GetLogger(ctx)
	bills, err := s.bills.FetchRecentBills(ctx, s.cfg.BillCount, 0)
	if err != nil {
		return 0, fmt.Errorf("fetch recent bills: %w", err)
	}
	if len(bills) == 0 {
		logger.Warn("no recent bills returned, keep current index")
		return 0, nil
	}
	opts := batch.Options{Size: s.cfg.DetailBatchSize, Delay: s.cfg.DetailDelay, Sleep: s.cfg.Sleep}
	err = batch.Run(ctx, bills, opts, func(ctx context.Context, idx int, bill model.Bill) error {
		if strings.TrimSpace(bill.Summary) != "" {
			return nil
		}
		detail, err := s.bills.FetchBillDetails(ctx, bill.Type, bill.Number, bill.Congress)
		if err != nil {
			logger.Warn("fetch bill details failed", zap.String("bill_id", bill.ID), zap.Error(err))
			return nil
		}
		if detail != nil {
			bills[idx] = mergeBillDetail(bill, *detail)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	n, err := s.indexer.IndexBills(ctx, bills)
	if err != nil {
		return 0, fmt.Errorf("index bills: %w", err)
	}
	logger.Info("bill reindex finished", zap.Int("fetched", len(bills)), zap.Int("indexed", n))
	return n, nil
}

func (s *IndexService) Stats() vindex.Stats {
	if s.indexer == nil {
		return vindex.Stats{}
	}
	return s.indexer.Stats()
}

// GetBill returns one bill with its latest summary.
func (s *IndexService) GetBill(ctx context.Context, congress int, billType, number string) (*model.Bill, error) {
	billType = strings.ToLower(strings.TrimSpace(billType))
	number = strings.TrimSpace(number)
	if congress <= 0 || billType == "" || number == "" {
		return nil, fmt.Errorf("congress, type and number are required: %w", appErr.ErrInvalid)
	}
	if s.bills == nil {
		return nil, fmt.Errorf("bill source not configured: %w", appErr.ErrUpstreamUnavailable)
	}
	bill, err := s.bills.FetchBillDetails(ctx, billType, number, congress)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, fmt.Errorf("bill %s: %w", model.BillID(congress, billType, number), appErr.ErrNotFound)
	}
	return bill, nil
}

func mergeBillDetail(base, detail model.Bill) model.Bill {
	if detail.Summary != "" {
		base.Summary = detail.Summary
	}
	if len(detail.PolicyAreas) > 0 {
		base.PolicyAreas = detail.PolicyAreas
	}
	if base.Sponsor == "" {
		base.Sponsor = detail.Sponsor
	}
	if base.IntroducedDate == "" {
		base.IntroducedDate = detail.IntroducedDate
	}
	return base
}
