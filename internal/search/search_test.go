package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/civiclens/internal/model"
	appErr "github.com/xxxsen/civiclens/internal/pkg/errors"
	"github.com/xxxsen/civiclens/internal/vindex"
)

type fakeIndex struct {
	results []model.SearchResult
	lastK   int
	calls   int
}

func (f *fakeIndex) Search(_ context.Context, _ string, k int) []model.SearchResult {
	f.calls++
	f.lastK = k
	return f.results
}

type fakeBills struct {
	bills []model.Bill
	err   error
	calls int
}

func (f *fakeBills) FetchRecentBills(_ context.Context, limit, offset int) ([]model.Bill, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.bills) > limit {
		return f.bills[:limit], nil
	}
	return f.bills, nil
}

type fakeExplainer struct {
	enabled bool
	text    string
	err     error
	titles  []string
}

func (f *fakeExplainer) HasGenerator() bool { return f.enabled }

func (f *fakeExplainer) ExplainResults(_ context.Context, _ string, titles []string) (string, error) {
	f.titles = titles
	return f.text, f.err
}

func recentBills(n int) []model.Bill {
	bills := make([]model.Bill, 0, n)
	for i := 0; i < n; i++ {
		bills = append(bills, model.Bill{
			ID:    fmt.Sprintf("118-hr-%d", i+1),
			Title: fmt.Sprintf("Miscellaneous Act %d", i+1),
		})
	}
	return bills
}

func boolPtr(v bool) *bool { return &v }

func TestSearchRejectsEmptyQuery(t *testing.T) {
	idx := &fakeIndex{}
	src := &fakeBills{}
	o := NewOrchestrator(idx, src, nil, Config{})
	_, err := o.Search(context.Background(), Request{Query: "   "})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Equal(t, 0, idx.calls)
	require.Equal(t, 0, src.calls)
}

func TestSearchVectorTier(t *testing.T) {
	idx := &fakeIndex{results: []model.SearchResult{{BillID: "117-hr-3684", Title: "Infrastructure", Score: 0.97, Source: model.SourceVector}}}
	src := &fakeBills{}
	o := NewOrchestrator(idx, src, nil, Config{})
	resp, err := o.Search(context.Background(), Request{Query: "roads"})
	require.NoError(t, err)
	require.Equal(t, model.SourceVector, resp.Source)
	require.Len(t, resp.Bills, 1)
	require.Equal(t, 0, src.calls)
	require.NotEmpty(t, resp.Analysis)
	require.GreaterOrEqual(t, resp.SearchTime, int64(0))
}

func TestSearchKeywordTierIsCaseInsensitive(t *testing.T) {
	bills := recentBills(3)
	bills = append(bills,
		model.Bill{ID: "118-s-10", Title: "Climate Action Bill"},
		model.Bill{ID: "118-s-11", Title: "Energy Act", Sponsor: "Rep. Climate Caucus Chair"},
		model.Bill{ID: "118-s-12", Title: "Farm Act", Summary: "Addresses CLIMATE resilience."},
	)
	src := &fakeBills{bills: bills}
	o := NewOrchestrator(&fakeIndex{}, src, nil, Config{})
	resp, err := o.Search(context.Background(), Request{Query: "climate"})
	require.NoError(t, err)
	require.Equal(t, model.SourceKeyword, resp.Source)
	require.Len(t, resp.Bills, 3)
	require.Equal(t, "118-s-10", resp.Bills[0].BillID)
	for _, b := range resp.Bills {
		require.True(t, b.Matched)
		require.Equal(t, model.SourceKeyword, b.Source)
	}
}

func TestSearchKeywordTierCapsResults(t *testing.T) {
	src := &fakeBills{bills: recentBills(30)}
	o := NewOrchestrator(&fakeIndex{}, src, nil, Config{})
	resp, err := o.Search(context.Background(), Request{Query: "miscellaneous", MaxResults: 5})
	require.NoError(t, err)
	require.Equal(t, model.SourceKeyword, resp.Source)
	require.Len(t, resp.Bills, 5)
}

func TestSearchFallbackTierReusesWindow(t *testing.T) {
	src := &fakeBills{bills: recentBills(30)}
	o := NewOrchestrator(&fakeIndex{}, src, nil, Config{})
	resp, err := o.Search(context.Background(), Request{Query: "zebra", MaxResults: 7})
	require.NoError(t, err)
	require.Equal(t, model.SourceFallback, resp.Source)
	require.Len(t, resp.Bills, 7)
	require.Equal(t, "118-hr-1", resp.Bills[0].BillID)
	require.Equal(t, 1, src.calls)
}

func TestSearchAllTiersFail(t *testing.T) {
	src := &fakeBills{err: fmt.Errorf("congress: %w", appErr.ErrUpstreamUnavailable)}
	o := NewOrchestrator(&fakeIndex{}, src, nil, Config{})
	resp, err := o.Search(context.Background(), Request{Query: "anything"})
	require.NoError(t, err)
	require.Equal(t, model.SourceError, resp.Source)
	require.NotNil(t, resp.Bills)
	require.Empty(t, resp.Bills)
	require.NotEmpty(t, resp.Message)
	require.Equal(t, 2, src.calls)
}

func TestSearchAuthFailureShortCircuits(t *testing.T) {
	src := &fakeBills{err: fmt.Errorf("congress: %w", appErr.ErrUpstreamAuth)}
	o := NewOrchestrator(&fakeIndex{}, src, nil, Config{})
	resp, err := o.Search(context.Background(), Request{Query: "anything"})
	require.NoError(t, err)
	require.Equal(t, model.SourceError, resp.Source)
	require.True(t, strings.Contains(resp.Message, "API key"))
	require.Equal(t, 1, src.calls)
}

func TestSearchEnrichmentSendsEveryResultTitle(t *testing.T) {
	src := &fakeBills{bills: recentBills(30)}
	explain := &fakeExplainer{enabled: true, text: "All miscellaneous."}
	o := NewOrchestrator(&fakeIndex{}, src, explain, Config{})
	resp, err := o.Search(context.Background(), Request{Query: "miscellaneous", MaxResults: 15})
	require.NoError(t, err)
	require.Len(t, resp.Bills, 15)
	require.Len(t, explain.titles, 15)
	require.Equal(t, "Miscellaneous Act 15", explain.titles[14])
}

func TestSearchEnrichment(t *testing.T) {
	idx := &fakeIndex{results: []model.SearchResult{{BillID: "a", Title: "Water Act"}, {BillID: "b", Title: "Air Act"}}}

	ok := &fakeExplainer{enabled: true, text: "Both bills cover environmental protection."}
	resp, err := NewOrchestrator(idx, nil, ok, Config{}).Search(context.Background(), Request{Query: "environment"})
	require.NoError(t, err)
	require.Equal(t, "Both bills cover environmental protection.", resp.Analysis)
	require.Equal(t, []string{"Water Act", "Air Act"}, ok.titles)

	failing := &fakeExplainer{enabled: true, err: errors.New("quota")}
	resp, err = NewOrchestrator(idx, nil, failing, Config{}).Search(context.Background(), Request{Query: "environment"})
	require.NoError(t, err)
	require.Equal(t, model.SourceVector, resp.Source)
	require.Len(t, resp.Bills, 2)
	require.Contains(t, resp.Analysis, "Found 2 bills")

	disabled := &fakeExplainer{enabled: false, text: "unused"}
	resp, err = NewOrchestrator(idx, nil, disabled, Config{}).Search(context.Background(), Request{Query: "environment"})
	require.NoError(t, err)
	require.Contains(t, resp.Analysis, "Found 2 bills")
	require.Nil(t, disabled.titles)
}

func TestSearchIncludeBillsFalse(t *testing.T) {
	idx := &fakeIndex{}
	src := &fakeBills{}
	resp, err := NewOrchestrator(idx, src, nil, Config{}).Search(context.Background(), Request{Query: "x", IncludeBills: boolPtr(false)})
	require.NoError(t, err)
	require.Equal(t, model.SourceNone, resp.Source)
	require.Empty(t, resp.Bills)
	require.Equal(t, 0, idx.calls)
	require.Equal(t, 0, src.calls)
}

func TestSearchClampsMaxResults(t *testing.T) {
	idx := &fakeIndex{results: []model.SearchResult{{BillID: "a"}}}
	o := NewOrchestrator(idx, nil, nil, Config{})

	_, err := o.Search(context.Background(), Request{Query: "x", MaxResults: 500})
	require.NoError(t, err)
	require.Equal(t, 100, idx.lastK)

	_, err = o.Search(context.Background(), Request{Query: "x"})
	require.NoError(t, err)
	require.Equal(t, 20, idx.lastK)
}

type signEmbedder struct{ vocab []string }

func (e *signEmbedder) Embed(_ context.Context, text string, _ string) ([]float32, error) {
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.vocab))
	for i, w := range e.vocab {
		vec[i] = -1
		if strings.Contains(lower, w) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func (e *signEmbedder) ModelName() string { return "fake:sign" }

func TestSearchInfrastructureEndToEnd(t *testing.T) {
	ix := vindex.New(&signEmbedder{vocab: []string{"infrastructure", "background"}}, vindex.Options{})
	_, err := ix.IndexBills(context.Background(), []model.Bill{
		{ID: "117-hr-3684", Title: "Infrastructure Investment and Jobs Act"},
		{ID: "118-hr-715", Title: "Universal Background Check Act"},
	})
	require.NoError(t, err)

	src := &fakeBills{}
	resp, err := NewOrchestrator(ix, src, nil, Config{}).Search(context.Background(), Request{Query: "infrastructure"})
	require.NoError(t, err)
	require.Equal(t, model.SourceVector, resp.Source)
	require.NotEmpty(t, resp.Bills)
	require.Equal(t, "117-hr-3684", resp.Bills[0].BillID)
	require.Greater(t, resp.Bills[0].Score, 0.8)
	for _, b := range resp.Bills[1:] {
		require.Less(t, b.Score, 0.5)
	}
	require.Equal(t, 0, src.calls)
}

func TestSearchEmptyIndexFallsThroughToKeyword(t *testing.T) {
	ix := vindex.New(&signEmbedder{vocab: []string{"climate"}}, vindex.Options{})
	src := &fakeBills{bills: []model.Bill{{ID: "118-hr-9", Title: "Climate Action Bill"}}}
	resp, err := NewOrchestrator(ix, src, nil, Config{}).Search(context.Background(), Request{Query: "climate"})
	require.NoError(t, err)
	require.Equal(t, model.SourceKeyword, resp.Source)
	require.Len(t, resp.Bills, 1)
}
