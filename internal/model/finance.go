package model

type NodeType string

const (
	NodeCandidate NodeType = "candidate"
	NodeDonor     NodeType = "donor"
	NodeCommittee NodeType = "committee"
)

type FlowNode struct {
	Index int      `json:"index"`
	Name  string   `json:"name"`
	Type  NodeType `json:"type"`
	Group string   `json:"group,omitempty"`
}

type FlowLink struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Value  float64 `json:"value"`
}

type FlowTotals struct {
	CandidateID             string  `json:"candidate_id"`
	CandidateName           string  `json:"candidate_name,omitempty"`
	Cycle                   int     `json:"cycle"`
	Receipts                float64 `json:"receipts"`
	Disbursements           float64 `json:"disbursements"`
	CashOnHand              float64 `json:"cash_on_hand"`
	IndividualContributions float64 `json:"individual_contributions"`
	EmployerFlow            float64 `json:"employer_flow"`
	OccupationFlow          float64 `json:"occupation_flow"`
	TotalFlow               float64 `json:"total_flow"`
	FlowExceedsReceipts     bool    `json:"flow_exceeds_receipts"`
}

type MoneyFlowGraph struct {
	Nodes  []FlowNode `json:"nodes"`
	Links  []FlowLink `json:"links"`
	Totals FlowTotals `json:"totals"`
}

// CandidateTotals is the aggregate reported by the finance provider for one cycle.
type CandidateTotals struct {
	CandidateID             string  `json:"candidate_id"`
	Name                    string  `json:"name"`
	Cycle                   int     `json:"cycle"`
	Receipts                float64 `json:"receipts"`
	Disbursements           float64 `json:"disbursements"`
	CashOnHand              float64 `json:"cash_on_hand_end_period"`
	IndividualContributions float64 `json:"individual_itemized_contributions"`
}

// ContributionGroup is one row of contributions grouped by employer or occupation.
type ContributionGroup struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}
