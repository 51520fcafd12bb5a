package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/civiclens/internal/model"
	appErr "github.com/xxxsen/civiclens/internal/pkg/errors"
	"github.com/xxxsen/civiclens/internal/vindex"
)

type fakeBillSource struct {
	recent    []model.Bill
	recentErr error
	details   map[string]*model.Bill

	mu          sync.Mutex
	detailCalls []string
}

func (f *fakeBillSource) FetchRecentBills(_ context.Context, limit, _ int) ([]model.Bill, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	out := make([]model.Bill, len(f.recent))
	copy(out, f.recent)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeBillSource) FetchBillDetails(_ context.Context, billType, number string, congress int) (*model.Bill, error) {
	id := model.BillID(congress, billType, number)
	f.mu.Lock()
	f.detailCalls = append(f.detailCalls, id)
	f.mu.Unlock()
	d, ok := f.details[id]
	if !ok {
		return nil, errors.New("detail failed")
	}
	return d, nil
}

type fakeIndexer struct {
	indexed []model.Bill
}

func (f *fakeIndexer) IndexBills(_ context.Context, bills []model.Bill) (int, error) {
	f.indexed = bills
	return len(bills), nil
}

func (f *fakeIndexer) Stats() vindex.Stats {
	return vindex.Stats{Size: len(f.indexed)}
}

func newBill(congress int, typ, number, summary string) model.Bill {
	return model.Bill{ID: model.BillID(congress, typ, number), Congress: congress, Type: typ, Number: number, Title: "Bill " + number, Summary: summary}
}

func TestReindexEnrichesMissingSummaries(t *testing.T) {
	src := &fakeBillSource{
		recent: []model.Bill{
			newBill(118, "hr", "1", ""),
			newBill(118, "hr", "2", "already summarized"),
			newBill(118, "s", "3", ""),
			newBill(118, "s", "4", ""),
		},
		details: map[string]*model.Bill{
			"118-hr-1": {Summary: "Summary one", PolicyAreas: []string{"Taxation"}, Sponsor: "Rep. A"},
			"118-s-3":  nil,
		},
	}
	idx := &fakeIndexer{}
	var sleeps int
	svc := NewIndexService(src, idx, IndexConfig{
		DetailBatchSize: 2,
		DetailDelay:     time.Millisecond,
		Sleep:           func(context.Context, time.Duration) error { sleeps++; return nil },
	})

	n, err := svc.Reindex(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, 1, sleeps)
	require.ElementsMatch(t, []string{"118-hr-1", "118-s-3", "118-s-4"}, src.detailCalls)
	require.Equal(t, "Summary one", idx.indexed[0].Summary)
	require.Equal(t, []string{"Taxation"}, idx.indexed[0].PolicyAreas)
	require.Equal(t, "Rep. A", idx.indexed[0].Sponsor)
	require.Equal(t, "already summarized", idx.indexed[1].Summary)
	require.Empty(t, idx.indexed[2].Summary)
	require.Equal(t, 4, svc.Stats().Size)
}

func TestReindexFetchFailure(t *testing.T) {
	src := &fakeBillSource{recentErr: fmt.Errorf("congress: %w", appErr.ErrUpstreamTimeout)}
	idx := &fakeIndexer{}
	_, err := NewIndexService(src, idx, IndexConfig{}).Reindex(context.Background())
	require.True(t, appErr.IsTimeout(err))
	require.Nil(t, idx.indexed)
}

func TestReindexEmptyFeedKeepsIndex(t *testing.T) {
	idx := &fakeIndexer{indexed: []model.Bill{{ID: "old"}}}
	n, err := NewIndexService(&fakeBillSource{}, idx, IndexConfig{}).Reindex(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Len(t, idx.indexed, 1)
}

func TestGetBill(t *testing.T) {
	src := &fakeBillSource{details: map[string]*model.Bill{
		"117-hr-3684": {ID: "117-hr-3684", Title: "Infrastructure Investment and Jobs Act"},
		"117-hr-1":    nil,
	}}
	svc := NewIndexService(src, &fakeIndexer{}, IndexConfig{})

	b, err := svc.GetBill(context.Background(), 117, "HR", "3684")
	require.NoError(t, err)
	require.Equal(t, "117-hr-3684", b.ID)

	_, err = svc.GetBill(context.Background(), 117, "hr", "1")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	_, err = svc.GetBill(context.Background(), 0, "hr", "1")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}
