package discourse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond throttles requests to a single forum.
	DefaultRequestsPerSecond = 4

	// maxBodySize caps how much of a response is read.
	maxBodySize = 32 << 20

	userAgent = "sercha-mirror"
)

// Client performs throttled JSON requests against one Discourse deployment.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client for the forum at baseURL.
func NewClient(baseURL string) *Client {
	return NewClientWithHTTPClient(baseURL, &http.Client{Timeout: DefaultTimeout})
}

// NewClientWithHTTPClient creates a client with a custom http.Client.
func NewClientWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultRequestsPerSecond),
	}
}

// SetLimit changes the request rate. rate.Inf disables throttling.
func (c *Client) SetLimit(limit rate.Limit) {
	c.limiter.SetLimit(limit)
}

// BaseURL returns the forum root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LatestURL resolves a more_topics_url continuation into an absolute
// listing URL. An empty continuation is the first page.
func (c *Client) LatestURL(moreTopicsURL string) string {
	switch {
	case moreTopicsURL == "":
		return c.baseURL + "/latest.json"
	case strings.HasPrefix(moreTopicsURL, "/latest?"):
		return c.baseURL + "/latest.json?" + strings.TrimPrefix(moreTopicsURL, "/latest?")
	case strings.HasPrefix(moreTopicsURL, "/latest"):
		return c.baseURL + "/latest.json"
	default:
		return c.baseURL + moreTopicsURL
	}
}

// TopicURL returns the JSON URL of one page of a topic.
func (c *Client) TopicURL(topicID int64, page int) string {
	return fmt.Sprintf("%s/t/%d.json?page=%d", c.baseURL, topicID, page)
}

// UserURL returns the JSON URL of a user's profile. The username is
// path-escaped.
func (c *Client) UserURL(username string) string {
	return fmt.Sprintf("%s/u/%s.json", c.baseURL, url.PathEscape(username))
}

// UserSummaryURL returns the JSON URL of a user's activity summary.
func (c *Client) UserSummaryURL(username string) string {
	return fmt.Sprintf("%s/u/%s/summary.json", c.baseURL, url.PathEscape(username))
}

// getJSON fetches url and decodes the body into out. Network failures and
// non-2xx responses become *domain.TransportError; undecodable bodies
// become *domain.ParseError.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &domain.TransportError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &domain.TransportError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &domain.TransportError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.TransportError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", domain.BodySnippet(body)),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &domain.ParseError{URL: url, Snippet: domain.BodySnippet(body), Err: err}
	}
	return nil
}
