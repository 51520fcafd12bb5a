package model

type SearchSource string

const (
	SourceVector   SearchSource = "vector"
	SourceKeyword  SearchSource = "keyword"
	SourceFallback SearchSource = "fallback"
	SourceError    SearchSource = "error"
	SourceNone     SearchSource = "none"
)

type SearchResult struct {
	BillID         string       `json:"bill_id"`
	Title          string       `json:"title"`
	Summary        string       `json:"summary,omitempty"`
	Sponsor        string       `json:"sponsor,omitempty"`
	IntroducedDate string       `json:"introduced_date,omitempty"`
	Status         string       `json:"status,omitempty"`
	Score          float64      `json:"score"`
	Matched        bool         `json:"matched,omitempty"`
	Source         SearchSource `json:"source"`
}
