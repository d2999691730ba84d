package zola

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupOwner(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/lots", r.URL.Path)
		assert.Equal(t, "123 Main St", r.URL.Query().Get("address"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"features":[{"properties":{"ownername":"ACME LLC","borough":"1","block":"100","lot":"42"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
	res, err := c.LookupOwner(context.Background(), "123 Main St")
	require.NoError(t, err)
	assert.Equal(t, "ACME LLC", res.OwnerName)
	assert.Equal(t, "1", res.Borough)
	assert.Equal(t, "100", res.Block)
	assert.Equal(t, "42", res.Lot)
}

func TestLookupOwner_NoLot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
	_, err := c.LookupOwner(context.Background(), "nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no lot found")
}

func TestLookupOwner_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
	_, err := c.LookupOwner(context.Background(), "123 Main St")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}
