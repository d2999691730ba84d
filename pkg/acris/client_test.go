package acris

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/search", r.URL.Path)
		assert.Equal(t, "123 Main St", r.URL.Query().Get("address"))
		w.Write([]byte(`{
			"parties":[{"name":"ACME LLC","role":"grantee"},{"name":"OLD BANK NA","role":"grantor"}],
			"documents":[{"id":"FT-1001","doc_type":"DEED","url":"https://example.com/doc","recorded_date":"2024-03-01"}]
		}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
	res, err := c.Search(context.Background(), "123 Main St")
	require.NoError(t, err)
	require.Len(t, res.Parties, 2)
	assert.Equal(t, "grantee", res.Parties[0].Role)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, "FT-1001", res.Documents[0].ID)
	assert.Equal(t, "DEED", res.Documents[0].DocType)
}

func TestSearch_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
	res, err := c.Search(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Empty(t, res.Parties)
	assert.Empty(t, res.Documents)
}

func TestSearch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
	_, err := c.Search(context.Background(), "123 Main St")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}
