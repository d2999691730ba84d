package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/property-research-cli/internal/model"
	"github.com/sells-group/property-research-cli/internal/research"
	"github.com/sells-group/property-research-cli/internal/store"
)

func TestReadAddressFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.txt")
	content := `# batch for monday
123 Main St

456 Broadway
  # indented comment
  9 Elm St
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	addresses, err := readAddressFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"123 Main St", "456 Broadway", "9 Elm St"}, addresses)
}

func TestReadAddressFile_Missing(t *testing.T) {
	_, err := readAddressFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestFormatRunsList(t *testing.T) {
	rec := model.NewResearchRecord("123 Main St")
	rec.OwnerName = "Acme LLC"
	rec.ContactNumber = "(212) 555-0147"

	var buf bytes.Buffer
	formatRunsList(&buf, []model.Run{
		{
			ID:        "run-1",
			Address:   "123 Main St",
			Status:    model.RunStatusCompleted,
			Record:    rec,
			CreatedAt: time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC),
		},
		{ID: "run-2", Address: "9 Elm St", Status: model.RunStatusFailed},
	})

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "Acme LLC")
	assert.Contains(t, out, "(212) 555-0147")
	assert.Contains(t, out, "2026-08-25 10:30")
	assert.Contains(t, out, "run-2")
}

func newTestRouter(t *testing.T) (http.Handler, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	runner, err := research.NewRunner(&research.Deps{}, nil, research.WithStore(st))
	require.NoError(t, err)
	return newRouter(runner, st), st
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestRouter_ResearchValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/research", strings.NewReader(body)))
		return w
	}

	assert.Equal(t, http.StatusBadRequest, post("{not json").Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"addresses":[]}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"addresses":["123 Main St","  "]}`).Code)

	many := make([]string, maxRequestAddresses+1)
	for i := range many {
		many[i] = "1 Main St"
	}
	over, err := json.Marshal(map[string][]string{"addresses": many})
	require.NoError(t, err)
	w := post(string(over))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "at most")
}

func TestRouter_ResearchAndFetchRun(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/research",
		strings.NewReader(`{"addresses":["123 Main St","9 Elm St"]}`)))
	require.Equal(t, http.StatusOK, w.Code)

	var created []model.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created, 2)
	// Results come back in request order.
	assert.Equal(t, "123 Main St", created[0].Address)
	assert.Equal(t, "9 Elm St", created[1].Address)
	for _, run := range created {
		assert.Equal(t, model.RunStatusCompleted, run.Status)
		require.NotEmpty(t, run.ID)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/"+created[0].ID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var fetched model.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, created[0].ID, fetched.ID)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs?limit=10", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var runs []model.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs))
	assert.Len(t, runs, 2)
}

func TestRouter_RunNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/ghost", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_EmptyListIsArray(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())
}
