package gateway

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/xxxsen/civiclens/internal/model"
	appErr "github.com/xxxsen/civiclens/internal/pkg/errors"
)

const (
	defaultCongressBaseURL = "https://api.congress.gov/v3"
	congressMaxPage        = 250
)

type congressAction struct {
	ActionDate string `json:"actionDate"`
	Text       string `json:"text"`
}

type congressPolicyArea struct {
	Name string `json:"name"`
}

type congressBillItem struct {
	Congress       int                 `json:"congress"`
	Number         string              `json:"number"`
	Type           string              `json:"type"`
	Title          string              `json:"title"`
	IntroducedDate string              `json:"introducedDate"`
	UpdateDate     string              `json:"updateDate"`
	LatestAction   *congressAction     `json:"latestAction"`
	PolicyArea     *congressPolicyArea `json:"policyArea"`
	URL            string              `json:"url"`
	Sponsors       []struct {
		FullName string `json:"fullName"`
	} `json:"sponsors"`
}

type congressPagination struct {
	Count int    `json:"count"`
	Next  string `json:"next"`
}

type congressBillList struct {
	Bills      []congressBillItem `json:"bills"`
	Pagination congressPagination `json:"pagination"`
}

type congressBillDetail struct {
	Bill congressBillItem `json:"bill"`
}

type congressSummaries struct {
	Summaries []struct {
		ActionDate string `json:"actionDate"`
		UpdateDate string `json:"updateDate"`
		Text       string `json:"text"`
	} `json:"summaries"`
}

type congressSponsored struct {
	SponsoredLegislation []congressBillItem `json:"sponsoredLegislation"`
	Pagination           congressPagination `json:"pagination"`
}

// CongressClient reads federal bill data from the Congress.gov v3 API.
type CongressClient struct {
	c *client
}

func NewCongressClient(opts Options) *CongressClient {
	return &CongressClient{c: newClient("congress", defaultCongressBaseURL, keyInQuery("api_key"), opts)}
}

// FetchRecentBills returns up to limit bills ordered by latest update, paging as needed.
func (cc *CongressClient) FetchRecentBills(ctx context.Context, limit, offset int) ([]model.Bill, error) {
	if limit <= 0 {
		return []model.Bill{}, nil
	}
	bills := make([]model.Bill, 0, limit)
	for len(bills) < limit {
		pageSize := limit - len(bills)
		if pageSize > congressMaxPage {
			pageSize = congressMaxPage
		}
		params := url.Values{}
		params.Set("format", "json")
		params.Set("sort", "updateDate desc")
		params.Set("limit", strconv.Itoa(pageSize))
		params.Set("offset", strconv.Itoa(offset+len(bills)))
		var page congressBillList
		if err := cc.c.getJSON(ctx, "/bill", params, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Bills {
			bills = append(bills, item.toBill())
		}
		if len(page.Bills) < pageSize || page.Pagination.Next == "" {
			break
		}
	}
	return bills, nil
}

// FetchBillDetails returns the bill with sponsor, policy area and latest summary, or nil if unknown.
func (cc *CongressClient) FetchBillDetails(ctx context.Context, billType, number string, congress int) (*model.Bill, error) {
	billType = strings.ToLower(strings.TrimSpace(billType))
	number = strings.TrimSpace(number)
	if billType == "" || number == "" || congress <= 0 {
		return nil, fmt.Errorf("bill type, number and congress are required: %w", appErr.ErrInvalid)
	}
	base := fmt.Sprintf("/bill/%d/%s/%s", congress, url.PathEscape(billType), url.PathEscape(number))
	params := url.Values{}
	params.Set("format", "json")

	var detail congressBillDetail
	if err := cc.c.getJSON(ctx, base, params, &detail); err != nil {
		if appErr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	bill := detail.Bill.toBill()

	var summaries congressSummaries
	if err := cc.c.getJSON(ctx, base+"/summaries", params, &summaries); err != nil {
		if !appErr.IsNotFound(err) {
			return nil, err
		}
	}
	if n := len(summaries.Summaries); n > 0 {
		items := summaries.Summaries
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].UpdateDate < items[j].UpdateDate
		})
		bill.Summary = htmlToText(items[n-1].Text)
	}
	return &bill, nil
}

// FetchSponsoredBills lists bills sponsored by a member, newest first.
func (cc *CongressClient) FetchSponsoredBills(ctx context.Context, bioguideID string, limit int) ([]model.Bill, error) {
	bioguideID = strings.TrimSpace(bioguideID)
	if bioguideID == "" {
		return nil, fmt.Errorf("bioguide id is required: %w", appErr.ErrInvalid)
	}
	if limit <= 0 || limit > congressMaxPage {
		limit = 20
	}
	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	var out congressSponsored
	if err := cc.c.getJSON(ctx, "/member/"+url.PathEscape(bioguideID)+"/sponsored-legislation", params, &out); err != nil {
		if appErr.IsNotFound(err) {
			return []model.Bill{}, nil
		}
		return nil, err
	}
	bills := make([]model.Bill, 0, len(out.SponsoredLegislation))
	for _, item := range out.SponsoredLegislation {
		if item.Type == "" || item.Number == "" {
			continue
		}
		bills = append(bills, item.toBill())
	}
	return bills, nil
}

func (item congressBillItem) toBill() model.Bill {
	bill := model.Bill{
		ID:             model.BillID(item.Congress, item.Type, item.Number),
		Congress:       item.Congress,
		Type:           strings.ToLower(item.Type),
		Number:         item.Number,
		Title:          strings.TrimSpace(item.Title),
		IntroducedDate: item.IntroducedDate,
		URL:            item.URL,
	}
	if item.LatestAction != nil {
		bill.LatestActionText = item.LatestAction.Text
		bill.LatestActionDate = item.LatestAction.ActionDate
	}
	if item.PolicyArea != nil && item.PolicyArea.Name != "" {
		bill.PolicyAreas = []string{item.PolicyArea.Name}
	}
	if len(item.Sponsors) > 0 {
		bill.Sponsor = item.Sponsors[0].FullName
	}
	return bill
}
