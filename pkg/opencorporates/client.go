// Package opencorporates provides a client for the OpenCorporates company
// registry API.
package opencorporates

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the OpenCorporates operations.
type Client interface {
	// SearchCompany finds the best-matching registered company by name.
	SearchCompany(ctx context.Context, name string) (*Company, error)
}

// Officer is a registered company officer.
type Officer struct {
	Name     string `json:"name"`
	Position string `json:"position,omitempty"`
}

// Company is a registry entry with its officers.
type Company struct {
	Name         string    `json:"name"`
	Jurisdiction string    `json:"jurisdiction_code,omitempty"`
	CompanyType  string    `json:"company_type,omitempty"`
	Officers     []Officer `json:"officers,omitempty"`
}

// Option configures the OpenCorporates client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(baseURL string) Option {
	return func(c *httpClient) { c.baseURL = baseURL }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiToken string
	baseURL  string
	http     *http.Client
}

// NewClient creates an OpenCorporates client.
func NewClient(apiToken string, opts ...Option) Client {
	c := &httpClient{
		apiToken: apiToken,
		baseURL:  "https://api.opencorporates.com/v0.4",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Results struct {
		Companies []struct {
			Company struct {
				Name             string `json:"name"`
				JurisdictionCode string `json:"jurisdiction_code"`
				CompanyType      string `json:"company_type"`
				Officers         []struct {
					Officer Officer `json:"officer"`
				} `json:"officers"`
			} `json:"company"`
		} `json:"companies"`
	} `json:"results"`
}

func (c *httpClient) SearchCompany(ctx context.Context, name string) (*Company, error) {
	reqURL := c.baseURL + "/companies/search?q=" + url.QueryEscape(name)
	if c.apiToken != "" {
		reqURL += "&api_token=" + url.QueryEscape(c.apiToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "opencorporates: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "opencorporates: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "opencorporates: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("opencorporates: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "opencorporates: unmarshal response")
	}
	if len(parsed.Results.Companies) == 0 {
		return nil, eris.Errorf("opencorporates: no company found for %q", name)
	}

	match := parsed.Results.Companies[0].Company
	company := &Company{
		Name:         match.Name,
		Jurisdiction: match.JurisdictionCode,
		CompanyType:  match.CompanyType,
	}
	for _, o := range match.Officers {
		company.Officers = append(company.Officers, o.Officer)
	}
	return company, nil
}
