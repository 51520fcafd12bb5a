package model

// EmbeddingEntry pairs a bill with its embedding plus the metadata needed at query time.
type EmbeddingEntry struct {
	BillID         string    `json:"bill_id"`
	Vector         []float32 `json:"vector"`
	Title          string    `json:"title"`
	Summary        string    `json:"summary"`
	Sponsor        string    `json:"sponsor"`
	IntroducedDate string    `json:"introduced_date"`
	Status         string    `json:"status"`
	Tags           []string  `json:"tags"`
	Mtime          int64     `json:"mtime"`
}
