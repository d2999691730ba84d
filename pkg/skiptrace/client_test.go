package skiptrace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchPerson(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Jane Roe", r.URL.Query().Get("name"))
		assert.Equal(t, "123 Main St", r.URL.Query().Get("address"))
		w.Write([]byte(`{"matches":[{"name":"Jane Roe","age":44,"phones":[{"number":"212-555-0147","type":"mobile"}]}]}`))
	}))
	defer srv.Close()

	p := NewSkipGenie("sg-key", WithBaseURL(srv.URL), WithRateLimit(1000))
	assert.Equal(t, "skipgenie", p.Name())

	matches, err := p.SearchPerson(context.Background(), PersonQuery{
		Name:    "Jane Roe",
		Address: "123 Main St",
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 44, matches[0].Age)
	require.Len(t, matches[0].Phones, 1)
	assert.Equal(t, "212-555-0147", matches[0].Phones[0].Number)
}

func TestSearchPerson_RequiresName(t *testing.T) {
	p := NewTruePeopleSearch("tps-key", WithRateLimit(1000))
	assert.Equal(t, "truepeoplesearch", p.Name())

	_, err := p.SearchPerson(context.Background(), PersonQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestSearchPerson_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p := NewSkipGenie("sg-key", WithBaseURL(srv.URL), WithRateLimit(1000))
	matches, err := p.SearchPerson(context.Background(), PersonQuery{Name: "Nobody"})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchPerson_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewTruePeopleSearch("tps-key", WithBaseURL(srv.URL), WithRateLimit(1000))
	_, err := p.SearchPerson(context.Background(), PersonQuery{Name: "Jane Roe"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 429")
}
