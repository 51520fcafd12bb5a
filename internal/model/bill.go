package model

import (
	"fmt"
	"strings"
)

type Bill struct {
	ID               string   `json:"id"`
	Congress         int      `json:"congress"`
	Type             string   `json:"type"`
	Number           string   `json:"number"`
	Title            string   `json:"title"`
	Sponsor          string   `json:"sponsor,omitempty"`
	IntroducedDate   string   `json:"introduced_date,omitempty"`
	LatestActionText string   `json:"latest_action_text,omitempty"`
	LatestActionDate string   `json:"latest_action_date,omitempty"`
	Summary          string   `json:"summary,omitempty"`
	PolicyAreas      []string `json:"policy_areas,omitempty"`
	URL              string   `json:"url,omitempty"`
}

// BillID builds the composite identifier, e.g. "118-hr-3684".
func BillID(congress int, billType, number string) string {
	return fmt.Sprintf("%d-%s-%s", congress, strings.ToLower(strings.TrimSpace(billType)), strings.TrimSpace(number))
}

// SortDate is the date used to order bills by recency.
func (b *Bill) SortDate() string {
	if b.IntroducedDate != "" {
		return b.IntroducedDate
	}
	return b.LatestActionDate
}
