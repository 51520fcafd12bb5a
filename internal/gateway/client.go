package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/civiclens/internal/metrics"
	appErr "github.com/xxxsen/civiclens/internal/pkg/errors"
)

const defaultTimeout = 15 * time.Second

// keyPlacement decides how a provider expects its API key.
type keyPlacement func(req *http.Request, key string)

func keyInQuery(param string) keyPlacement {
	return func(req *http.Request, key string) {
		q := req.URL.Query()
		q.Set(param, key)
		req.URL.RawQuery = q.Encode()
	}
}

func keyInHeader(header, prefix string) keyPlacement {
	return func(req *http.Request, key string) {
		req.Header.Set(header, prefix+key)
	}
}

type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type client struct {
	provider string
	baseURL  string
	apiKey   string
	place    keyPlacement
	http     *http.Client
}

func newClient(provider, defaultBaseURL string, place keyPlacement, opts Options) *client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &client{
		provider: provider,
		baseURL:  baseURL,
		apiKey:   strings.TrimSpace(opts.APIKey),
		place:    place,
		http:     httpClient,
	}
}

// getJSON issues a GET and decodes the body into out, mapping every failure to an upstream kind.
func (c *client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	if c.apiKey == "" {
		c.observe("no_key", 0)
		return fmt.Errorf("%s: api key not configured: %w", c.provider, appErr.ErrUpstreamAuth)
	}
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.provider, err)
	}
	req.Header.Set("Accept", "application/json")
	c.place(req, c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		if isTimeout(ctx, err) {
			c.observe("timeout", elapsed)
			return fmt.Errorf("%s: %w: %v", c.provider, appErr.ErrUpstreamTimeout, err)
		}
		c.observe("transport_error", elapsed)
		return fmt.Errorf("%s: %w: %v", c.provider, appErr.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if err := statusError(c.provider, resp); err != nil {
		c.observe(fmt.Sprintf("http_%d", resp.StatusCode), elapsed)
		logutil.GetLogger(ctx).Warn("upstream request failed",
			zap.String("provider", c.provider),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.observe("malformed", elapsed)
		return fmt.Errorf("%s: decode %s: %w: %v", c.provider, path, appErr.ErrMalformedResponse, err)
	}
	c.observe("success", elapsed)
	return nil
}

func (c *client) observe(outcome string, elapsed time.Duration) {
	metrics.UpstreamRequestsTotal.WithLabelValues(c.provider, outcome).Inc()
	if elapsed > 0 {
		metrics.UpstreamRequestDuration.WithLabelValues(c.provider).Observe(elapsed.Seconds())
	}
}

func statusError(provider string, resp *http.Response) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	detail := strings.TrimSpace(string(body))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %s: %w", provider, resp.Status, appErr.ErrUpstreamAuth)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %s: %w", provider, resp.Status, appErr.ErrNotFound)
	case resp.StatusCode == http.StatusGatewayTimeout || resp.StatusCode == http.StatusRequestTimeout:
		return fmt.Errorf("%s: %s: %w", provider, resp.Status, appErr.ErrUpstreamTimeout)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%s: %s: %w: %s", provider, resp.Status, appErr.ErrUpstreamUnavailable, detail)
	default:
		return fmt.Errorf("%s: %s: %w: %s", provider, resp.Status, appErr.ErrInvalid, detail)
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
