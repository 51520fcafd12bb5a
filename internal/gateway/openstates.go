package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/xxxsen/civiclens/internal/model"
	appErr "github.com/xxxsen/civiclens/internal/pkg/errors"
)

const defaultOpenStatesBaseURL = "https://v3.openstates.org"

type openStatesBill struct {
	ID           string   `json:"id"`
	Identifier   string   `json:"identifier"`
	Title        string   `json:"title"`
	Session      string   `json:"session"`
	UpdatedAt    string   `json:"updated_at"`
	Subject      []string `json:"subject"`
	URL          string   `json:"openstates_url"`
	Jurisdiction struct {
		Name string `json:"name"`
	} `json:"jurisdiction"`
}

type openStatesPage struct {
	Results    []openStatesBill `json:"results"`
	Pagination struct {
		PerPage    int `json:"per_page"`
		Page       int `json:"page"`
		MaxPage    int `json:"max_page"`
		TotalItems int `json:"total_items"`
	} `json:"pagination"`
}

type OpenStatesClient struct {
	c *client
}

func NewOpenStatesClient(opts Options) *OpenStatesClient {
	return &OpenStatesClient{c: newClient("openstates", defaultOpenStatesBaseURL, keyInHeader("X-API-KEY", ""), opts)}
}

// RecentBills lists the most recently updated bills of a state jurisdiction.
func (o *OpenStatesClient) RecentBills(ctx context.Context, jurisdiction string, perPage int) ([]model.StateBill, error) {
	jurisdiction = strings.TrimSpace(jurisdiction)
	if jurisdiction == "" {
		return nil, fmt.Errorf("jurisdiction is required: %w", appErr.ErrInvalid)
	}
	if perPage <= 0 || perPage > 20 {
		perPage = 20
	}
	params := url.Values{}
	params.Set("jurisdiction", jurisdiction)
	params.Set("sort", "updated_desc")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", "1")
	var page openStatesPage
	if err := o.c.getJSON(ctx, "/bills", params, &page); err != nil {
		return nil, err
	}
	out := make([]model.StateBill, 0, len(page.Results))
	for _, b := range page.Results {
		out = append(out, model.StateBill{
			ID:           b.ID,
			Identifier:   b.Identifier,
			Title:        b.Title,
			Jurisdiction: b.Jurisdiction.Name,
			Session:      b.Session,
			UpdatedAt:    b.UpdatedAt,
			Subjects:     b.Subject,
			URL:          b.URL,
		})
	}
	return out, nil
}
