package gateway

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/xxxsen/civiclens/internal/model"
)

const defaultLDABaseURL = "https://lda.senate.gov/api/v1"

// amount accepts the decimal strings, numbers and nulls LDA uses for money fields.
type amount float64

func (a *amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*a = amount(v)
	return nil
}

type ldaFiling struct {
	FilingUUID   string `json:"filing_uuid"`
	FilingYear   int    `json:"filing_year"`
	FilingPeriod string `json:"filing_period"`
	Income       amount `json:"income"`
	Expenses     amount `json:"expenses"`
	Registrant   struct {
		Name string `json:"name"`
	} `json:"registrant"`
	Client struct {
		Name string `json:"name"`
	} `json:"client"`
}

type ldaPage struct {
	Count   int         `json:"count"`
	Results []ldaFiling `json:"results"`
}

type LDAClient struct {
	c *client
}

func NewLDAClient(opts Options) *LDAClient {
	return &LDAClient{c: newClient("lda", defaultLDABaseURL, keyInHeader("Authorization", "Token "), opts)}
}

// RecentFilings returns one page of lobbying disclosure filings for a year.
func (l *LDAClient) RecentFilings(ctx context.Context, year, pageSize int) ([]model.LobbyingFiling, error) {
	if pageSize <= 0 || pageSize > 25 {
		pageSize = 25
	}
	params := url.Values{}
	params.Set("filing_year", strconv.Itoa(year))
	params.Set("page_size", strconv.Itoa(pageSize))
	params.Set("ordering", "-dt_posted")
	var page ldaPage
	if err := l.c.getJSON(ctx, "/filings/", params, &page); err != nil {
		return nil, err
	}
	out := make([]model.LobbyingFiling, 0, len(page.Results))
	for _, f := range page.Results {
		out = append(out, model.LobbyingFiling{
			ID:         f.FilingUUID,
			Registrant: strings.TrimSpace(f.Registrant.Name),
			Client:     strings.TrimSpace(f.Client.Name),
			Income:     float64(f.Income),
			Expenses:   float64(f.Expenses),
			Year:       f.FilingYear,
			Period:     f.FilingPeriod,
		})
	}
	return out, nil
}
