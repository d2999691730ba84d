// Package store persists research runs. Two backends are provided: SQLite
// for single-operator installs and PostgreSQL for shared deployments.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/property-research-cli/internal/model"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status  model.RunStatus `json:"status,omitempty"`
	Address string          `json:"address,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for research runs.
type Store interface {
	CreateRun(ctx context.Context, run *model.Run) error
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error

	// CompleteRun stores the terminal record and status in one write. A nil
	// record is allowed for runs that failed before producing one.
	CompleteRun(ctx context.Context, runID string, rec *model.ResearchRecord, status model.RunStatus) error

	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
