// Package propertyshark provides a client for PropertyShark ownership and
// contact reports.
package propertyshark

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the PropertyShark report operations.
type Client interface {
	// Ownership fetches the ownership and contact report for an address.
	Ownership(ctx context.Context, address string) (*OwnershipReport, error)
}

// Owner is a recorded owner on the report.
type Owner struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"` // individual, llc, corporation, trust
}

// Phone is a phone number tied to a contact.
type Phone struct {
	Number string `json:"number"`
	Type   string `json:"type,omitempty"` // mobile, landline, work
}

// Contact is a person listed on the report with their numbers.
type Contact struct {
	Name   string  `json:"name"`
	Role   string  `json:"role,omitempty"`
	Phones []Phone `json:"phones,omitempty"`
}

// OwnershipReport is the parsed PropertyShark answer.
type OwnershipReport struct {
	Owners   []Owner   `json:"owners"`
	Contacts []Contact `json:"contacts"`
}

// Option configures the PropertyShark client.
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
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a PropertyShark client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.propertyshark.com/v1",
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Ownership(ctx context.Context, address string) (*OwnershipReport, error) {
	reqURL := c.baseURL + "/properties/ownership?address=" + url.QueryEscape(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "propertyshark: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "propertyshark: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "propertyshark: read response body")
	}
	if resp.StatusCode == http.StatusNotFound {
		return &OwnershipReport{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("propertyshark: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var report OwnershipReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, eris.Wrap(err, "propertyshark: unmarshal response")
	}
	return &report, nil
}
