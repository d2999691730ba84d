// Package twilio provides a client for the Twilio Lookup phone validation
// API.
package twilio

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the phone validation operations.
type Client interface {
	// Lookup validates a phone number and returns its line type.
	Lookup(ctx context.Context, number string) (*LookupResult, error)
}

// LookupResult is the parsed validation answer.
type LookupResult struct {
	Valid          bool   `json:"valid"`
	PhoneNumber    string `json:"phone_number"`
	NationalFormat string `json:"national_format,omitempty"`
	LineType       string `json:"line_type,omitempty"` // mobile, landline, voip
}

// Option configures the Twilio client.
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
	accountSID string
	authToken  string
	baseURL    string
	http       *http.Client
}

// NewClient creates a Twilio Lookup client.
func NewClient(accountSID, authToken string, opts ...Option) Client {
	c := &httpClient{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    "https://lookups.twilio.com/v2",
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type lookupResponse struct {
	Valid                bool   `json:"valid"`
	PhoneNumber          string `json:"phone_number"`
	NationalFormat       string `json:"national_format"`
	LineTypeIntelligence *struct {
		Type string `json:"type"`
	} `json:"line_type_intelligence"`
}

func (c *httpClient) Lookup(ctx context.Context, number string) (*LookupResult, error) {
	if number == "" {
		return nil, eris.New("twilio: phone number is required")
	}

	reqURL := c.baseURL + "/PhoneNumbers/" + url.PathEscape(number) + "?Fields=line_type_intelligence"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "twilio: create request")
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "twilio: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "twilio: read response body")
	}

	// Lookup returns 404 for syntactically impossible numbers.
	if resp.StatusCode == http.StatusNotFound {
		return &LookupResult{Valid: false, PhoneNumber: number}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("twilio: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "twilio: unmarshal response")
	}

	result := &LookupResult{
		Valid:          parsed.Valid,
		PhoneNumber:    parsed.PhoneNumber,
		NationalFormat: parsed.NationalFormat,
	}
	if parsed.LineTypeIntelligence != nil {
		result.LineType = parsed.LineTypeIntelligence.Type
	}
	return result, nil
}
