package propertyshark

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnership(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/properties/ownership", r.URL.Path)
		w.Write([]byte(`{
			"owners":[{"name":"ACME LLC","type":"llc"}],
			"contacts":[{"name":"Jane Roe","role":"manager","phones":[{"number":"212-555-0147","type":"mobile"}]}]
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	report, err := c.Ownership(context.Background(), "123 Main St")
	require.NoError(t, err)
	require.Len(t, report.Owners, 1)
	assert.Equal(t, "llc", report.Owners[0].Type)
	require.Len(t, report.Contacts, 1)
	require.Len(t, report.Contacts[0].Phones, 1)
	assert.Equal(t, "212-555-0147", report.Contacts[0].Phones[0].Number)
}

func TestOwnership_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	report, err := c.Ownership(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Empty(t, report.Owners)
}

func TestOwnership_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := c.Ownership(context.Background(), "123 Main St")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 401")
}
