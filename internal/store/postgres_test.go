package store

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/property-research-cli/internal/model"
)

func newPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgres_CreateRun(t *testing.T) {
	st, mock := newPostgresStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO runs (id, address, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`)).
		WithArgs("run-1", "123 Main St", "queued", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run := &model.Run{ID: "run-1", Address: "123 Main St"}
	require.NoError(t, st.CreateRun(context.Background(), run))
	assert.Equal(t, model.RunStatusQueued, run.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateRunStatusNotFound(t *testing.T) {
	st, mock := newPostgresStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`)).
		WithArgs("processing", pgxmock.AnyArg(), "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := st.UpdateRunStatus(context.Background(), "ghost", model.RunStatusProcessing)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CompleteRun(t *testing.T) {
	st, mock := newPostgresStore(t)

	rec := model.NewResearchRecord("123 Main St")
	rec.OwnerName = "Acme LLC"
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE runs SET record = $1, status = $2, updated_at = $3 WHERE id = $4`)).
		WithArgs(data, "completed", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, st.CompleteRun(context.Background(), "run-1", rec, model.RunStatusCompleted))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetRun(t *testing.T) {
	st, mock := newPostgresStore(t)

	rec := model.NewResearchRecord("123 Main St")
	rec.OwnerName = "Acme LLC"
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "address", "status", "record", "created_at", "updated_at"}).
		AddRow("run-1", "123 Main St", "completed", data, now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, address, status, record, created_at, updated_at FROM runs WHERE id = $1`)).
		WithArgs("run-1").
		WillReturnRows(rows)

	got, err := st.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, got.Status)
	require.NotNil(t, got.Record)
	assert.Equal(t, "Acme LLC", got.Record.OwnerName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetRunNotFound(t *testing.T) {
	st, mock := newPostgresStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, address, status, record, created_at, updated_at FROM runs WHERE id = $1`)).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id", "address", "status", "record", "created_at", "updated_at"}))

	_, err := st.GetRun(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListRunsBuildsFilters(t *testing.T) {
	st, mock := newPostgresStore(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "address", "status", "record", "created_at", "updated_at"}).
		AddRow("run-1", "1 Main St", "completed", []byte(nil), now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, address, status, record, created_at, updated_at FROM runs WHERE status = $1 AND address = $2 ORDER BY created_at DESC LIMIT $3`)).
		WithArgs("completed", "1 Main St", 10).
		WillReturnRows(rows)

	runs, err := st.ListRuns(context.Background(), RunFilter{
		Status:  model.RunStatusCompleted,
		Address: "1 Main St",
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Nil(t, runs[0].Record)
	require.NoError(t, mock.ExpectationsWereMet())
}
