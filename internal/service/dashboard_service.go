package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/civiclens/internal/ai"
	"github.com/xxxsen/civiclens/internal/batch"
	"github.com/xxxsen/civiclens/internal/dashcache"
	"github.com/xxxsen/civiclens/internal/model"
	appErr "github.com/xxxsen/civiclens/internal/pkg/errors"
)

const (
	newsQuery           = "congress OR senate OR legislation"
	newsPageSize        = 10
	lobbyingPageSize    = 25
	topRegistrants      = 10
	stateBillsPerPage   = 20
	sponsoredBillsLimit = 12
)

type Analyst interface {
	HasGenerator() bool
	EstimateFinanceStats(ctx context.Context, cycle int) (string, error)
	AnalyzePolarization(ctx context.Context, bill model.Bill) (string, error)
}

type NewsSource interface {
	Latest(ctx context.Context, query string, size int) ([]model.NewsArticle, error)
}

type LobbyingSource interface {
	RecentFilings(ctx context.Context, year, pageSize int) ([]model.LobbyingFiling, error)
}

type StateBillSource interface {
	RecentBills(ctx context.Context, jurisdiction string, perPage int) ([]model.StateBill, error)
}

type SponsoredBillSource interface {
	FetchSponsoredBills(ctx context.Context, bioguideID string, limit int) ([]model.Bill, error)
}

type DashboardDeps struct {
	Analyst    Analyst
	News       NewsSource
	Lobbying   LobbyingSource
	StateBills StateBillSource
	Sponsored  SponsoredBillSource
	Cache      *dashcache.Cache
}

type DashboardConfig struct {
	PolarizationBatchSize int
	PolarizationDelay     time.Duration
	Sleep                 batch.SleepFunc
	Now                   func() time.Time
}

// DashboardService serves the cached dashboard panels.
type DashboardService struct {
	deps DashboardDeps
	cfg  DashboardConfig
}

func NewDashboardService(deps DashboardDeps, cfg DashboardConfig) *DashboardService {
	if deps.Cache == nil {
		deps.Cache = dashcache.New(nil, dashcache.Options{})
	}
	if cfg.PolarizationBatchSize <= 0 {
		cfg.PolarizationBatchSize = 3
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &DashboardService{deps: deps, cfg: cfg}
}

// FinanceDashboard returns AI-estimated national finance figures for the current cycle.
// Without a working generator a labelled placeholder is returned and nothing is cached.
func (s *DashboardService) FinanceDashboard(ctx context.Context) (*model.FinanceStats, error) {
	cycle := electionCycle(s.cfg.Now())
	if s.deps.Analyst == nil || !s.deps.Analyst.HasGenerator() {
		return placeholderFinanceStats(cycle, "AI estimation is not configured."), nil
	}
	stats, err := dashcache.GetOrCompute(ctx, s.deps.Cache, dashcache.KeyFinanceDashboard, func(ctx context.Context) (*model.FinanceStats, error) {
		raw, err := s.deps.Analyst.EstimateFinanceStats(ctx, cycle)
		if err != nil {
			return nil, err
		}
		parsed := ai.ParseJSON[model.FinanceStats](raw)
		stats := ai.Resolve(parsed, extractFinanceStats)
		stats.Estimated = true
		stats.Parsed = parsed.OK()
		stats.Cycle = cycle
		return &stats, nil
	})
	if err != nil {
		logutil.GetLogger(ctx).Warn("estimate finance stats failed, use placeholder", zap.Error(err))
		return placeholderFinanceStats(cycle, "AI estimation is temporarily unavailable."), nil
	}
	return stats, nil
}

func (s *DashboardService) News(ctx context.Context) ([]model.NewsArticle, error) {
	if s.deps.News == nil {
		return nil, fmt.Errorf("news source not configured: %w", appErr.ErrUpstreamUnavailable)
	}
	return dashcache.GetOrCompute(ctx, s.deps.Cache, dashcache.KeyNewsFeed, func(ctx context.Context) ([]model.NewsArticle, error) {
		articles, err := s.deps.News.Latest(ctx, newsQuery, newsPageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch news: %w", err)
		}
		return articles, nil
	})
}

// Lobbying folds one page of filings for year into per-registrant income totals.
func (s *DashboardService) Lobbying(ctx context.Context, year int) (*model.LobbyingSummary, error) {
	if year == 0 {
		year = s.cfg.Now().Year()
	}
	if year < 1999 || year > s.cfg.Now().Year() {
		return nil, fmt.Errorf("year %d out of range: %w", year, appErr.ErrInvalid)
	}
	if s.deps.Lobbying == nil {
		return nil, fmt.Errorf("lobbying source not configured: %w", appErr.ErrUpstreamUnavailable)
	}
	key := dashcache.Key(dashcache.KeyLobbyingSummary, strconv.Itoa(year))
	return dashcache.GetOrCompute(ctx, s.deps.Cache, key, func(ctx context.Context) (*model.LobbyingSummary, error) {
		filings, err := s.deps.Lobbying.RecentFilings(ctx, year, lobbyingPageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch lobbying filings: %w", err)
		}
		return summarizeLobbying(year, filings), nil
	})
}

func (s *DashboardService) StateBills(ctx context.Context, jurisdiction string) ([]model.StateBill, error) {
	jurisdiction = strings.ToLower(strings.TrimSpace(jurisdiction))
	if jurisdiction == "" {
		return nil, fmt.Errorf("jurisdiction is required: %w", appErr.ErrInvalid)
	}
	if s.deps.StateBills == nil {
		return nil, fmt.Errorf("state bill source not configured: %w", appErr.ErrUpstreamUnavailable)
	}
	key := dashcache.Key(dashcache.KeyStateBills, jurisdiction)
	return dashcache.GetOrCompute(ctx, s.deps.Cache, key, func(ctx context.Context) ([]model.StateBill, error) {
		bills, err := s.deps.StateBills.RecentBills(ctx, jurisdiction, stateBillsPerPage)
		if err != nil {
			return nil, fmt.Errorf("fetch state bills: %w", err)
		}
		return bills, nil
	})
}

// RepresentativeBills lists a member's sponsored bills, each with a polarization
// analysis. Analyses run in small batches with a pause between batches.
func (s *DashboardService) RepresentativeBills(ctx context.Context, bioguideID string) ([]model.RepresentativeBill, error) {
	bioguideID = strings.ToUpper(strings.TrimSpace(bioguideID))
	if bioguideID == "" {
		return nil, fmt.Errorf("bioguide id is required: %w", appErr.ErrInvalid)
	}
	if s.deps.Sponsored == nil {
		return nil, fmt.Errorf("bill source not configured: %w", appErr.ErrUpstreamUnavailable)
	}
	key := dashcache.Key(dashcache.KeyRepresentativeBills, bioguideID)
	return dashcache.GetOrCompute(ctx, s.deps.Cache, key, func(ctx context.Context) ([]model.RepresentativeBill, error) {
		bills, err := s.deps.Sponsored.FetchSponsoredBills(ctx, bioguideID, sponsoredBillsLimit)
		if err != nil {
			return nil, fmt.Errorf("fetch sponsored bills: %w", err)
		}
		out := make([]model.RepresentativeBill, len(bills))
		for i := range bills {
			out[i].Bill = bills[i]
		}
		if s.deps.Analyst == nil || !s.deps.Analyst.HasGenerator() {
			return out, nil
		}
		opts := batch.Options{Size: s.cfg.PolarizationBatchSize, Delay: s.cfg.PolarizationDelay, Sleep: s.cfg.Sleep}
		err = batch.Run(ctx, bills, opts, func(ctx context.Context, idx int, bill model.Bill) error {
			out[idx].Polarization = s.polarization(ctx, bill)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	})
}

func (s *DashboardService) polarization(ctx context.Context, bill model.Bill) *model.Polarization {
	raw, err := s.deps.Analyst.AnalyzePolarization(ctx, bill)
	if err != nil {
		logutil.GetLogger(ctx).Warn("polarization analysis failed", zap.String("bill_id", bill.ID), zap.Error(err))
		return nil
	}
	parsed := ai.ParseJSON[model.Polarization](raw)
	p := ai.Resolve(parsed, extractPolarization)
	p.Parsed = parsed.OK()
	if p.Score < 0 || p.Score > 1 {
		p.Score = labelScore(normalizeLabel(p.Label))
	}
	p.Label = normalizeLabel(p.Label)
	if p.Label == "" {
		p.Label = scoreLabel(p.Score)
	}
	return &p
}

func summarizeLobbying(year int, filings []model.LobbyingFiling) *model.LobbyingSummary {
	summary := &model.LobbyingSummary{Year: year, Filings: len(filings), Top: []model.RegistrantTotal{}}
	byName := map[string]*model.RegistrantTotal{}
	var order []string
	for _, f := range filings {
		summary.TotalIncome += f.Income
		name := strings.TrimSpace(f.Registrant)
		if name == "" {
			continue
		}
		key := strings.ToUpper(name)
		rt, ok := byName[key]
		if !ok {
			rt = &model.RegistrantTotal{Registrant: name}
			byName[key] = rt
			order = append(order, key)
		}
		rt.Income += f.Income
		rt.Filings++
	}
	for _, key := range order {
		summary.Top = append(summary.Top, *byName[key])
	}
	sort.SliceStable(summary.Top, func(i, j int) bool {
		return summary.Top[i].Income > summary.Top[j].Income
	})
	if len(summary.Top) > topRegistrants {
		summary.Top = summary.Top[:topRegistrants]
	}
	return summary
}

func placeholderFinanceStats(cycle int, note string) *model.FinanceStats {
	return &model.FinanceStats{
		TopIndustries: []string{},
		Estimated:     true,
		Cycle:         cycle,
		Note:          note,
	}
}

// electionCycle is the two-year federal cycle that contains t.
func electionCycle(t time.Time) int {
	year := t.Year()
	if year%2 != 0 {
		year++
	}
	return year
}
