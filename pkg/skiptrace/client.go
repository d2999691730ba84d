// Package skiptrace provides people-search clients (SkipGenie and
// TruePeopleSearch) behind one provider interface.
package skiptrace

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

// Provider searches for a person's contact information.
type Provider interface {
	// Name is the collector/source name recorded on the research record.
	Name() string
	// SearchPerson returns matches for a person near an address.
	SearchPerson(ctx context.Context, query PersonQuery) ([]PersonMatch, error)
}

// PersonQuery narrows a people search.
type PersonQuery struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// Phone is a number reported for a matched person.
type Phone struct {
	Number string `json:"number"`
	Type   string `json:"type,omitempty"`
}

// PersonMatch is one person returned by a search.
type PersonMatch struct {
	Name   string  `json:"name"`
	Age    int     `json:"age,omitempty"`
	Phones []Phone `json:"phones,omitempty"`
}

// Option configures a skiptrace provider.
type Option func(*httpProvider)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(baseURL string) Option {
	return func(p *httpProvider) { p.baseURL = baseURL }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *httpProvider) { p.http = hc }
}

// WithRateLimit caps requests per second.
func WithRateLimit(rps float64) Option {
	return func(p *httpProvider) { p.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

type httpProvider struct {
	name    string
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewSkipGenie creates the SkipGenie provider.
func NewSkipGenie(apiKey string, opts ...Option) Provider {
	p := &httpProvider{
		name:    "skipgenie",
		apiKey:  apiKey,
		baseURL: "https://api.skipgenie.com/v1",
		http:    &http.Client{Timeout: 45 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewTruePeopleSearch creates the TruePeopleSearch provider.
func NewTruePeopleSearch(apiKey string, opts ...Option) Provider {
	p := &httpProvider{
		name:    "truepeoplesearch",
		apiKey:  apiKey,
		baseURL: "https://api.truepeoplesearch.com/v1",
		http:    &http.Client{Timeout: 45 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *httpProvider) Name() string { return p.name }

type searchResponse struct {
	Matches []PersonMatch `json:"matches"`
}

func (p *httpProvider) SearchPerson(ctx context.Context, query PersonQuery) ([]PersonMatch, error) {
	if query.Name == "" {
		return nil, eris.Errorf("%s: person name is required", p.name)
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrapf(err, "%s: rate limit wait", p.name)
	}

	params := url.Values{}
	params.Set("name", query.Name)
	if query.Address != "" {
		params.Set("address", query.Address)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: create request", p.name)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: request failed", p.name)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: read response body", p.name)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("%s: unexpected status %d: %s", p.name, resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrapf(err, "%s: unmarshal response", p.name)
	}
	return parsed.Matches, nil
}
