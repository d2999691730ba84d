// Package acris provides a client for the NYC ACRIS property records system.
package acris

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the ACRIS search operations.
type Client interface {
	// Search returns the recorded parties and document files for an address.
	Search(ctx context.Context, address string) (*SearchResult, error)
}

// Party is a named party on a recorded instrument.
type Party struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"` // grantor, grantee, mortgagor, ...
}

// DocumentFile is a recorded instrument available for download. Text carries
// the indexed abstract when the API returns one.
type DocumentFile struct {
	ID           string `json:"id"`
	DocType      string `json:"doc_type"`
	URL          string `json:"url"`
	RecordedDate string `json:"recorded_date,omitempty"`
	Text         string `json:"text,omitempty"`
}

// SearchResult is the parsed ACRIS answer for one property.
type SearchResult struct {
	Parties   []Party        `json:"parties"`
	Documents []DocumentFile `json:"documents"`
}

// Option configures the ACRIS client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(baseURL string) Option {
	return func(c *httpClient) { c.baseURL = baseURL }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit caps requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an ACRIS client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://a836-acris.nyc.gov",
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, address string) (*SearchResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "acris: rate limit wait")
	}

	reqURL := c.baseURL + "/api/documents/search?address=" + url.QueryEscape(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "acris: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "acris: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "acris: read response body")
	}
	if resp.StatusCode == http.StatusNotFound {
		return &SearchResult{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("acris: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "acris: unmarshal response")
	}
	return &result, nil
}
