package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/civiclens/internal/dashcache"
	"github.com/xxxsen/civiclens/internal/model"
	appErr "github.com/xxxsen/civiclens/internal/pkg/errors"
)

type fakeAnalyst struct {
	enabled     bool
	financeRaw  string
	financeErr  error
	financeHits int

	mu          sync.Mutex
	polarRaw    map[string]string
	polarErr    map[string]error
	polarCalled []string
}

func (f *fakeAnalyst) HasGenerator() bool { return f.enabled }

func (f *fakeAnalyst) EstimateFinanceStats(context.Context, int) (string, error) {
	f.financeHits++
	return f.financeRaw, f.financeErr
}

func (f *fakeAnalyst) AnalyzePolarization(_ context.Context, bill model.Bill) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polarCalled = append(f.polarCalled, bill.ID)
	if err := f.polarErr[bill.ID]; err != nil {
		return "", err
	}
	return f.polarRaw[bill.ID], nil
}

type fakeNews struct {
	calls    int
	articles []model.NewsArticle
	err      error
}

func (f *fakeNews) Latest(context.Context, string, int) ([]model.NewsArticle, error) {
	f.calls++
	return f.articles, f.err
}

type fakeLobbying struct{ filings []model.LobbyingFiling }

func (f *fakeLobbying) RecentFilings(context.Context, int, int) ([]model.LobbyingFiling, error) {
	return f.filings, nil
}

type fakeStateBills struct{ jurisdiction string }

func (f *fakeStateBills) RecentBills(_ context.Context, jurisdiction string, _ int) ([]model.StateBill, error) {
	f.jurisdiction = jurisdiction
	return []model.StateBill{{ID: "ocd-bill/1", Title: "State Bill"}}, nil
}

type fakeSponsored struct{ bills []model.Bill }

func (f *fakeSponsored) FetchSponsoredBills(context.Context, string, int) ([]model.Bill, error) {
	return f.bills, nil
}

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newDashboard(deps DashboardDeps, cfg DashboardConfig) (*DashboardService, *time.Time) {
	now := fixedNow
	cfg.Now = func() time.Time { return now }
	deps.Cache = dashcache.New(nil, dashcache.Options{Now: func() time.Time { return now }})
	return NewDashboardService(deps, cfg), &now
}

func TestFinanceDashboardParsedAndCached(t *testing.T) {
	analyst := &fakeAnalyst{enabled: true, financeRaw: "```json\n{\"total_raised\": 14400000000, \"top_industries\": [\"Finance\"]}\n```"}
	svc, now := newDashboard(DashboardDeps{Analyst: analyst}, DashboardConfig{})

	stats, err := svc.FinanceDashboard(context.Background())
	require.NoError(t, err)
	require.True(t, stats.Parsed)
	require.True(t, stats.Estimated)
	require.Equal(t, 14400000000.0, stats.TotalRaised)
	require.Equal(t, 2026, stats.Cycle)

	_, err = svc.FinanceDashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, analyst.financeHits)

	*now = now.Add(7 * time.Hour)
	_, err = svc.FinanceDashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, analyst.financeHits)
}

func TestFinanceDashboardTextFallback(t *testing.T) {
	analyst := &fakeAnalyst{enabled: true, financeRaw: "Total raised was about $14.4 billion, super PAC spending reached $2.7 billion and dark money $1,200 million."}
	svc, _ := newDashboard(DashboardDeps{Analyst: analyst}, DashboardConfig{})

	stats, err := svc.FinanceDashboard(context.Background())
	require.NoError(t, err)
	require.False(t, stats.Parsed)
	require.InDelta(t, 14.4e9, stats.TotalRaised, 1)
	require.InDelta(t, 2.7e9, stats.SuperPACSpending, 1)
	require.InDelta(t, 1.2e9, stats.DarkMoneySpending, 1)
}

func TestFinanceDashboardPlaceholderNotCached(t *testing.T) {
	analyst := &fakeAnalyst{enabled: true, financeErr: fmt.Errorf("gemini: %w", appErr.ErrUpstreamAuth)}
	svc, _ := newDashboard(DashboardDeps{Analyst: analyst}, DashboardConfig{})
	stats, err := svc.FinanceDashboard(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, stats.Note)
	require.Zero(t, stats.TotalRaised)

	analyst.financeErr = nil
	analyst.financeRaw = `{"total_raised": 5}`
	stats, err = svc.FinanceDashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5.0, stats.TotalRaised)

	off, _ := newDashboard(DashboardDeps{Analyst: &fakeAnalyst{}}, DashboardConfig{})
	stats, err = off.FinanceDashboard(context.Background())
	require.NoError(t, err)
	require.Contains(t, stats.Note, "not configured")
}

func TestNewsCachedForFifteenMinutes(t *testing.T) {
	news := &fakeNews{articles: []model.NewsArticle{{ID: "1", Title: "Senate passes bill"}}}
	svc, now := newDashboard(DashboardDeps{News: news}, DashboardConfig{})
	for i := 0; i < 3; i++ {
		got, err := svc.News(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	require.Equal(t, 1, news.calls)
	*now = now.Add(15 * time.Minute)
	_, err := svc.News(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, news.calls)
}

func TestNewsErrorPropagates(t *testing.T) {
	news := &fakeNews{err: fmt.Errorf("newsdata: %w", appErr.ErrUpstreamUnavailable)}
	svc, _ := newDashboard(DashboardDeps{News: news}, DashboardConfig{})
	_, err := svc.News(context.Background())
	require.True(t, appErr.IsUpstreamUnavailable(err))
}

func TestLobbyingSummary(t *testing.T) {
	lda := &fakeLobbying{filings: []model.LobbyingFiling{
		{Registrant: "Akin Gump", Income: 100},
		{Registrant: "Brownstein", Income: 300},
		{Registrant: "AKIN GUMP", Income: 250},
		{Registrant: "", Income: 10},
	}}
	svc, _ := newDashboard(DashboardDeps{Lobbying: lda}, DashboardConfig{})
	summary, err := svc.Lobbying(context.Background(), 2024)
	require.NoError(t, err)
	require.Equal(t, 4, summary.Filings)
	require.Equal(t, 660.0, summary.TotalIncome)
	require.Len(t, summary.Top, 2)
	require.Equal(t, "Akin Gump", summary.Top[0].Registrant)
	require.Equal(t, 350.0, summary.Top[0].Income)
	require.Equal(t, 2, summary.Top[0].Filings)

	_, err = svc.Lobbying(context.Background(), 1980)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	summary, err = svc.Lobbying(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 2025, summary.Year)
}

func TestStateBillsValidatesJurisdiction(t *testing.T) {
	src := &fakeStateBills{}
	svc, _ := newDashboard(DashboardDeps{StateBills: src}, DashboardConfig{})
	_, err := svc.StateBills(context.Background(), " ")
	require.ErrorIs(t, err, appErr.ErrInvalid)
	bills, err := svc.StateBills(context.Background(), " CA ")
	require.NoError(t, err)
	require.Len(t, bills, 1)
	require.Equal(t, "ca", src.jurisdiction)
}

func TestRepresentativeBillsBatchedPolarization(t *testing.T) {
	var bills []model.Bill
	raw := map[string]string{}
	for i := 1; i <= 7; i++ {
		id := fmt.Sprintf("118-hr-%d", i)
		bills = append(bills, model.Bill{ID: id, Title: "Bill " + id})
		raw[id] = fmt.Sprintf(`{"score": 0.%d, "label": "medium", "rationale": "r"}`, i)
	}
	raw["118-hr-2"] = "This bill is highly partisan, score: 0.9."
	analyst := &fakeAnalyst{enabled: true, polarRaw: raw, polarErr: map[string]error{"118-hr-5": errors.New("quota")}}

	var sleeps []time.Duration
	cfg := DashboardConfig{
		PolarizationBatchSize: 3,
		PolarizationDelay:     time.Second,
		Sleep: func(_ context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		},
	}
	svc, _ := newDashboard(DashboardDeps{Analyst: analyst, Sponsored: &fakeSponsored{bills: bills}}, cfg)

	got, err := svc.RepresentativeBills(context.Background(), "b000123")
	require.NoError(t, err)
	require.Len(t, got, 7)
	require.Equal(t, []time.Duration{time.Second, time.Second}, sleeps)
	for i, rb := range got {
		require.Equal(t, bills[i].ID, rb.Bill.ID)
	}
	require.True(t, got[0].Polarization.Parsed)
	require.InDelta(t, 0.1, got[0].Polarization.Score, 1e-9)
	require.False(t, got[1].Polarization.Parsed)
	require.InDelta(t, 0.9, got[1].Polarization.Score, 1e-9)
	require.Equal(t, "high", got[1].Polarization.Label)
	require.Nil(t, got[4].Polarization)

	_, err = svc.RepresentativeBills(context.Background(), "B000123")
	require.NoError(t, err)
	require.Len(t, analyst.polarCalled, 7)

	_, err = svc.RepresentativeBills(context.Background(), "")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestRepresentativeBillsWithoutGenerator(t *testing.T) {
	svc, _ := newDashboard(DashboardDeps{
		Analyst:   &fakeAnalyst{},
		Sponsored: &fakeSponsored{bills: []model.Bill{{ID: "a"}}},
	}, DashboardConfig{})
	got, err := svc.RepresentativeBills(context.Background(), "X1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Nil(t, got[0].Polarization)
}

func TestExtractPolarization(t *testing.T) {
	p := extractPolarization("I would rate this as LOW polarization.")
	require.Equal(t, "low", p.Label)
	require.Equal(t, 0.2, p.Score)

	p = extractPolarization("nothing useful")
	require.Equal(t, "unknown", p.Label)
	require.Equal(t, 0.5, p.Score)

	p = extractPolarization("Score 0.4 overall")
	require.Equal(t, "medium", p.Label)
	require.True(t, strings.HasPrefix(p.Rationale, "Score"))
}

func TestElectionCycle(t *testing.T) {
	require.Equal(t, 2024, electionCycle(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 2024, electionCycle(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
}
