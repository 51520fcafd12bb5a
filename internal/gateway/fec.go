package gateway

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xxxsen/civiclens/internal/model"
	appErr "github.com/xxxsen/civiclens/internal/pkg/errors"
)

const defaultFECBaseURL = "https://api.open.fec.gov/v1"

type fecCommittee struct {
	CommitteeID string `json:"committee_id"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
}

type fecEmployerRow struct {
	Employer string  `json:"employer"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

type fecOccupationRow struct {
	Occupation string  `json:"occupation"`
	Total      float64 `json:"total"`
	Count      int     `json:"count"`
}

// FECClient reads candidate totals and itemized receipts from the OpenFEC API.
type FECClient struct {
	c          *client
	committees *expirable.LRU[string, []string]
}

func NewFECClient(opts Options) *FECClient {
	return &FECClient{
		c:          newClient("fec", defaultFECBaseURL, keyInQuery("api_key"), opts),
		committees: expirable.NewLRU[string, []string](256, nil, 6*time.Hour),
	}
}

func (f *FECClient) GetCandidateTotals(ctx context.Context, candidateID string, cycle int) (*Page[model.CandidateTotals], error) {
	params := url.Values{}
	params.Set("candidate_id", candidateID)
	params.Set("cycle", strconv.Itoa(cycle))
	params.Set("per_page", "1")
	var page Page[model.CandidateTotals]
	if err := f.c.getJSON(ctx, "/candidates/totals/", params, &page); err != nil {
		return nil, err
	}
	if len(page.Results) == 0 {
		return nil, fmt.Errorf("fec: no totals for %s in %d: %w", candidateID, cycle, appErr.ErrNotFound)
	}
	return &page, nil
}

func (f *FECClient) GetContributionsByEmployer(ctx context.Context, candidateID string, cycle, limit int) (*Page[model.ContributionGroup], error) {
	var rows Page[fecEmployerRow]
	if err := f.grouped(ctx, "/schedules/schedule_a/by_employer/", candidateID, cycle, limit, &rows); err != nil {
		return nil, err
	}
	groups := make([]model.ContributionGroup, 0, len(rows.Results))
	for _, r := range rows.Results {
		groups = append(groups, model.ContributionGroup{Name: r.Employer, Total: r.Total, Count: r.Count})
	}
	return &Page[model.ContributionGroup]{Results: mergeGroups(groups, limit), Pagination: rows.Pagination}, nil
}

func (f *FECClient) GetContributionsByOccupation(ctx context.Context, candidateID string, cycle, limit int) (*Page[model.ContributionGroup], error) {
	var rows Page[fecOccupationRow]
	if err := f.grouped(ctx, "/schedules/schedule_a/by_occupation/", candidateID, cycle, limit, &rows); err != nil {
		return nil, err
	}
	groups := make([]model.ContributionGroup, 0, len(rows.Results))
	for _, r := range rows.Results {
		groups = append(groups, model.ContributionGroup{Name: r.Occupation, Total: r.Total, Count: r.Count})
	}
	return &Page[model.ContributionGroup]{Results: mergeGroups(groups, limit), Pagination: rows.Pagination}, nil
}

func (f *FECClient) grouped(ctx context.Context, path, candidateID string, cycle, limit int, out interface{}) error {
	committees, err := f.principalCommittees(ctx, candidateID, cycle)
	if err != nil {
		return err
	}
	if len(committees) == 0 {
		return fmt.Errorf("fec: no principal committee for %s: %w", candidateID, appErr.ErrNotFound)
	}
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{}
	for _, id := range committees {
		params.Add("committee_id", id)
	}
	params.Set("cycle", strconv.Itoa(cycle))
	params.Set("sort", "-total")
	// Rows are per committee, so over-fetch before merging.
	params.Set("per_page", strconv.Itoa(limit*len(committees)))
	return f.c.getJSON(ctx, path, params, out)
}

func (f *FECClient) principalCommittees(ctx context.Context, candidateID string, cycle int) ([]string, error) {
	key := candidateID + ":" + strconv.Itoa(cycle)
	if ids, ok := f.committees.Get(key); ok {
		return ids, nil
	}
	params := url.Values{}
	params.Set("cycle", strconv.Itoa(cycle))
	params.Set("designation", "P")
	var page Page[fecCommittee]
	if err := f.c.getJSON(ctx, "/candidate/"+url.PathEscape(candidateID)+"/committees/", params, &page); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(page.Results))
	for _, c := range page.Results {
		if c.CommitteeID != "" {
			ids = append(ids, c.CommitteeID)
		}
	}
	f.committees.Add(key, ids)
	return ids, nil
}

// mergeGroups sums rows sharing a name, then keeps the largest limit groups.
func mergeGroups(groups []model.ContributionGroup, limit int) []model.ContributionGroup {
	index := make(map[string]int, len(groups))
	merged := make([]model.ContributionGroup, 0, len(groups))
	for _, g := range groups {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			name = "UNKNOWN"
		}
		key := strings.ToUpper(name)
		if i, ok := index[key]; ok {
			merged[i].Total += g.Total
			merged[i].Count += g.Count
			continue
		}
		index[key] = len(merged)
		merged = append(merged, model.ContributionGroup{Name: name, Total: g.Total, Count: g.Count})
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Total > merged[j].Total
	})
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
