package finance

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xxxsen/civiclens/internal/gateway"
	"github.com/xxxsen/civiclens/internal/model"
	appErr "github.com/xxxsen/civiclens/internal/pkg/errors"
)

const (
	defaultEmployerLimit = 10
	maxOccupationNodes   = 4
)

type Source interface {
	GetCandidateTotals(ctx context.Context, candidateID string, cycle int) (*gateway.Page[model.CandidateTotals], error)
	GetContributionsByEmployer(ctx context.Context, candidateID string, cycle, limit int) (*gateway.Page[model.ContributionGroup], error)
	GetContributionsByOccupation(ctx context.Context, candidateID string, cycle, limit int) (*gateway.Page[model.ContributionGroup], error)
}

type Config struct {
	EmployerLimit   int
	OccupationLimit int
}

type Aggregator struct {
	src Source
	cfg Config
}

func NewAggregator(src Source, cfg Config) *Aggregator {
	if cfg.EmployerLimit <= 0 {
		cfg.EmployerLimit = defaultEmployerLimit
	}
	if cfg.OccupationLimit <= 0 || cfg.OccupationLimit > maxOccupationNodes {
		cfg.OccupationLimit = maxOccupationNodes
	}
	return &Aggregator{src: src, cfg: cfg}
}

// GetMoneyFlowData builds a donor -> candidate flow graph for one election cycle.
// A totals failure is returned; a grouped-contribution failure only drops that section.
func (a *Aggregator) GetMoneyFlowData(ctx context.Context, candidateID string, cycle int) (*model.MoneyFlowGraph, error) {
	candidateID = strings.ToUpper(strings.TrimSpace(candidateID))
	if candidateID == "" {
		return nil, fmt.Errorf("candidate id is required: %w", appErr.ErrInvalid)
	}
	if cycle <= 0 || cycle%2 != 0 {
		return nil, fmt.Errorf("cycle must be a positive even year, got %d: %w", cycle, appErr.ErrInvalid)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("candidate_id", candidateID), zap.Int("cycle", cycle))

	var (
		totals        *gateway.Page[model.CandidateTotals]
		employers     *gateway.Page[model.ContributionGroup]
		occupations   *gateway.Page[model.ContributionGroup]
		employerErr   error
		occupationErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = a.src.GetCandidateTotals(gctx, candidateID, cycle)
		if err != nil {
			return fmt.Errorf("fetch candidate totals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		employers, employerErr = a.src.GetContributionsByEmployer(gctx, candidateID, cycle, a.cfg.EmployerLimit)
		return nil
	})
	g.Go(func() error {
		occupations, occupationErr = a.src.GetContributionsByOccupation(gctx, candidateID, cycle, a.cfg.OccupationLimit)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if employerErr != nil {
		logger.Warn("employer contributions unavailable, omit section", zap.Error(employerErr))
		employers = nil
	}
	if occupationErr != nil {
		logger.Warn("occupation contributions unavailable, omit section", zap.Error(occupationErr))
		occupations = nil
	}

	var ct model.CandidateTotals
	if totals != nil && len(totals.Results) > 0 {
		ct = totals.Results[0]
	}
	graph := buildGraph(candidateID, cycle, ct,
		groupResults(employers, a.cfg.EmployerLimit),
		groupResults(occupations, a.cfg.OccupationLimit))
	if graph.Totals.FlowExceedsReceipts {
		logger.Info("sampled flow exceeds reported receipts",
			zap.Float64("total_flow", graph.Totals.TotalFlow),
			zap.Float64("receipts", graph.Totals.Receipts))
	}
	return graph, nil
}

func groupResults(page *gateway.Page[model.ContributionGroup], limit int) []model.ContributionGroup {
	if page == nil {
		return nil
	}
	groups := page.Results
	if len(groups) > limit {
		groups = groups[:limit]
	}
	return groups
}

func buildGraph(candidateID string, cycle int, ct model.CandidateTotals, employers, occupations []model.ContributionGroup) *model.MoneyFlowGraph {
	name := strings.TrimSpace(ct.Name)
	if name == "" {
		name = candidateID
	}
	graph := &model.MoneyFlowGraph{
		Nodes: []model.FlowNode{{Index: 0, Name: name, Type: model.NodeCandidate}},
		Links: []model.FlowLink{},
	}
	addDonors := func(groups []model.ContributionGroup, group string) float64 {
		var sum float64
		for _, g := range groups {
			idx := len(graph.Nodes)
			graph.Nodes = append(graph.Nodes, model.FlowNode{Index: idx, Name: g.Name, Type: model.NodeDonor, Group: group})
			graph.Links = append(graph.Links, model.FlowLink{Source: idx, Target: 0, Value: g.Total})
			sum += g.Total
		}
		return sum
	}
	employerFlow := addDonors(employers, "employer")
	occupationFlow := addDonors(occupations, "occupation")

	total := employerFlow + occupationFlow
	graph.Totals = model.FlowTotals{
		CandidateID:             candidateID,
		CandidateName:           strings.TrimSpace(ct.Name),
		Cycle:                   cycle,
		Receipts:                ct.Receipts,
		Disbursements:           ct.Disbursements,
		CashOnHand:              ct.CashOnHand,
		IndividualContributions: ct.IndividualContributions,
		EmployerFlow:            employerFlow,
		OccupationFlow:          occupationFlow,
		TotalFlow:               total,
		FlowExceedsReceipts:     ct.Receipts > 0 && total > ct.Receipts,
	}
	return graph
}
