package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/civiclens/internal/metrics"
	"github.com/xxxsen/civiclens/internal/model"
	appErr "github.com/xxxsen/civiclens/internal/pkg/errors"
)

const (
	defaultMaxResults   = 20
	defaultResultsLimit = 100
	defaultRecentWindow = 250
)

type VectorSearcher interface {
	Search(ctx context.Context, query string, k int) []model.SearchResult
}

type BillSource interface {
	FetchRecentBills(ctx context.Context, limit, offset int) ([]model.Bill, error)
}

type Explainer interface {
	HasGenerator() bool
	ExplainResults(ctx context.Context, query string, titles []string) (string, error)
}

type Config struct {
	DefaultMaxResults int
	MaxResultsLimit   int
	RecentWindow      int
}

type Request struct {
	Query        string `json:"query"`
	IncludeBills *bool  `json:"includeBills"`
	MaxResults   int    `json:"maxResults"`
}

type Response struct {
	Bills      []model.SearchResult `json:"bills"`
	Analysis   string               `json:"analysis"`
	Source     model.SearchSource   `json:"source"`
	SearchTime int64                `json:"searchTime"`
	Message    string               `json:"message,omitempty"`
}

// Orchestrator runs the vector, keyword and fallback tiers in order and
// optionally enriches the winning result set with a generated explanation.
type Orchestrator struct {
	index   VectorSearcher
	bills   BillSource
	explain Explainer
	cfg     Config
}

func NewOrchestrator(index VectorSearcher, bills BillSource, explain Explainer, cfg Config) *Orchestrator {
	if cfg.DefaultMaxResults <= 0 {
		cfg.DefaultMaxResults = defaultMaxResults
	}
	if cfg.MaxResultsLimit <= 0 {
		cfg.MaxResultsLimit = defaultResultsLimit
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = defaultRecentWindow
	}
	return &Orchestrator{index: index, bills: bills, explain: explain, cfg: cfg}
}

// Search only returns an error for invalid input. Upstream failures are
// reported inside the response with source "error".
func (o *Orchestrator) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("query is required: %w", appErr.ErrInvalid)
	}
	limit := o.clampResults(req.MaxResults)
	resp := o.run(ctx, query, limit, req.IncludeBills == nil || *req.IncludeBills)
	resp.SearchTime = time.Since(start).Milliseconds()
	metrics.SearchTierTotal.WithLabelValues(string(resp.Source)).Inc()
	logutil.GetLogger(ctx).Info("bill search finished",
		zap.String("query", query),
		zap.String("source", string(resp.Source)),
		zap.Int("results", len(resp.Bills)),
		zap.Int64("search_time_ms", resp.SearchTime),
	)
	return resp, nil
}

func (o *Orchestrator) run(ctx context.Context, query string, limit int, includeBills bool) *Response {
	logger := logutil.GetLogger(ctx)
	if !includeBills {
		return &Response{
			Bills:    []model.SearchResult{},
			Source:   model.SourceNone,
			Analysis: "Bill lookup was not requested.",
		}
	}

	if o.index != nil {
		if results := o.index.Search(ctx, query, limit); len(results) > 0 {
			return o.enrich(ctx, query, &Response{
				Bills:    results,
				Source:   model.SourceVector,
				Analysis: fmt.Sprintf("Found %d bills semantically related to %q.", len(results), query),
			})
		}
	}

	window, err := o.recentWindow(ctx)
	if err != nil {
		if appErr.IsUpstreamAuth(err) {
			logger.Warn("bill source rejected credentials", zap.Error(err))
			return errorResponse("Bill data is unavailable: the Congress.gov API key is missing or invalid.")
		}
		logger.Warn("keyword tier fetch failed", zap.Error(err))
	} else if results := keywordMatch(window, query, limit); len(results) > 0 {
		return o.enrich(ctx, query, &Response{
			Bills:    results,
			Source:   model.SourceKeyword,
			Analysis: fmt.Sprintf("Found %d recent bills mentioning %q.", len(results), query),
		})
	}

	if window == nil {
		window, err = o.recentWindow(ctx)
		if err != nil {
			logger.Error("fallback tier fetch failed", zap.Error(err))
			return errorResponse("Bill data is temporarily unavailable. Please try again later.")
		}
	}
	results := recentResults(window, limit)
	return o.enrich(ctx, query, &Response{
		Bills:    results,
		Source:   model.SourceFallback,
		Analysis: fmt.Sprintf("No bills matched %q; showing the %d most recent bills instead.", query, len(results)),
	})
}

func (o *Orchestrator) recentWindow(ctx context.Context) ([]model.Bill, error) {
	if o.bills == nil {
		return nil, fmt.Errorf("bill source not configured: %w", appErr.ErrUpstreamUnavailable)
	}
	bills, err := o.bills.FetchRecentBills(ctx, o.cfg.RecentWindow, 0)
	if err != nil {
		return nil, err
	}
	if bills == nil {
		bills = []model.Bill{}
	}
	return bills, nil
}

// enrich replaces the default analysis text when a generator is configured and succeeds.
func (o *Orchestrator) enrich(ctx context.Context, query string, resp *Response) *Response {
	if o.explain == nil || !o.explain.HasGenerator() || len(resp.Bills) == 0 {
		return resp
	}
	titles := make([]string, 0, len(resp.Bills))
	for _, bill := range resp.Bills {
		titles = append(titles, bill.Title)
	}
	text, err := o.explain.ExplainResults(ctx, query, titles)
	if err != nil {
		logutil.GetLogger(ctx).Warn("search enrichment failed, keep default analysis", zap.Error(err))
		return resp
	}
	resp.Analysis = text
	return resp
}

func (o *Orchestrator) clampResults(n int) int {
	if n <= 0 {
		n = o.cfg.DefaultMaxResults
	}
	if n > o.cfg.MaxResultsLimit {
		n = o.cfg.MaxResultsLimit
	}
	return n
}

func keywordMatch(bills []model.Bill, query string, limit int) []model.SearchResult {
	needle := strings.ToLower(query)
	results := []model.SearchResult{}
	for i := range bills {
		if len(results) >= limit {
			break
		}
		b := &bills[i]
		if !containsFold(b.Title, needle) && !containsFold(b.Sponsor, needle) && !containsFold(b.Summary, needle) {
			continue
		}
		r := toResult(b, model.SourceKeyword)
		r.Matched = true
		results = append(results, r)
	}
	return results
}

func recentResults(bills []model.Bill, limit int) []model.SearchResult {
	if len(bills) > limit {
		bills = bills[:limit]
	}
	results := make([]model.SearchResult, 0, len(bills))
	for i := range bills {
		results = append(results, toResult(&bills[i], model.SourceFallback))
	}
	return results
}

func toResult(b *model.Bill, source model.SearchSource) model.SearchResult {
	return model.SearchResult{
		BillID:         b.ID,
		Title:          b.Title,
		Summary:        b.Summary,
		Sponsor:        b.Sponsor,
		IntroducedDate: b.SortDate(),
		Status:         b.LatestActionText,
		Source:         source,
	}
}

func containsFold(s, lowerNeedle string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), lowerNeedle)
}

// RateLimitedResponse is the body returned when a client searches too often.
func RateLimitedResponse() *Response {
	return errorResponse("Too many searches. Please wait a moment and try again.")
}

func errorResponse(message string) *Response {
	return &Response{
		Bills:   []model.SearchResult{},
		Source:  model.SourceError,
		Message: message,
	}
}
