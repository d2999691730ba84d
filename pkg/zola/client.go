// Package zola provides a client for the NYC ZoLa zoning and land use lookup.
package zola

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

// Client defines the ZoLa lookup operations.
type Client interface {
	// LookupOwner resolves the recorded tax-lot owner for an address.
	LookupOwner(ctx context.Context, address string) (*OwnerResult, error)
}

// OwnerResult is the parsed lot ownership answer.
type OwnerResult struct {
	OwnerName string `json:"owner_name"`
	Borough   string `json:"borough,omitempty"`
	Block     string `json:"block,omitempty"`
	Lot       string `json:"lot,omitempty"`
}

// Option configures the ZoLa client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(baseURL string) Option {
	return func(c *httpClient) { c.baseURL = baseURL }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit caps requests per second against the public endpoint.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a ZoLa client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://zola.planning.nyc.gov",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type lotResponse struct {
	Features []struct {
		Properties struct {
			OwnerName string `json:"ownername"`
			Borough   string `json:"borough"`
			Block     string `json:"block"`
			Lot       string `json:"lot"`
		} `json:"properties"`
	} `json:"features"`
}

func (c *httpClient) LookupOwner(ctx context.Context, address string) (*OwnerResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "zola: rate limit wait")
	}

	reqURL := c.baseURL + "/api/lots?address=" + url.QueryEscape(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "zola: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "zola: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "zola: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("zola: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed lotResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "zola: unmarshal response")
	}
	if len(parsed.Features) == 0 {
		return nil, eris.Errorf("zola: no lot found for address %q", address)
	}

	p := parsed.Features[0].Properties
	return &OwnerResult{
		OwnerName: p.OwnerName,
		Borough:   p.Borough,
		Block:     p.Block,
		Lot:       p.Lot,
	}, nil
}
