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

const defaultNewsDataBaseURL = "https://newsdata.io/api/1"

type newsDataArticle struct {
	ArticleID   string `json:"article_id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	PubDate     string `json:"pubDate"`
	SourceID    string `json:"source_id"`
}

type newsDataPage struct {
	Status       string            `json:"status"`
	TotalResults int               `json:"totalResults"`
	Results      []newsDataArticle `json:"results"`
	NextPage     string            `json:"nextPage"`
}

type NewsDataClient struct {
	c *client
}

func NewNewsDataClient(opts Options) *NewsDataClient {
	return &NewsDataClient{c: newClient("newsdata", defaultNewsDataBaseURL, keyInQuery("apikey"), opts)}
}

// Latest returns recent US politics articles, optionally filtered by a keyword query.
func (n *NewsDataClient) Latest(ctx context.Context, query string, size int) ([]model.NewsArticle, error) {
	if size <= 0 || size > 10 {
		size = 10
	}
	params := url.Values{}
	params.Set("category", "politics")
	params.Set("country", "us")
	params.Set("language", "en")
	params.Set("size", strconv.Itoa(size))
	if q := strings.TrimSpace(query); q != "" {
		params.Set("q", q)
	}
	var page newsDataPage
	if err := n.c.getJSON(ctx, "/latest", params, &page); err != nil {
		return nil, err
	}
	if page.Status != "" && page.Status != "success" {
		return nil, fmt.Errorf("newsdata: status %q: %w", page.Status, appErr.ErrUpstreamUnavailable)
	}
	out := make([]model.NewsArticle, 0, len(page.Results))
	for _, a := range page.Results {
		if strings.TrimSpace(a.Title) == "" {
			continue
		}
		out = append(out, model.NewsArticle{
			ID:          a.ArticleID,
			Title:       strings.TrimSpace(a.Title),
			Link:        a.Link,
			Description: a.Description,
			Source:      a.SourceID,
			PublishedAt: a.PubDate,
		})
	}
	return out, nil
}
