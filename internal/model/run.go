package model

import "time"

// RunStatus tracks a stored research run through its lifecycle.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// Run is the persisted view of one research run.
type Run struct {
	ID        string          `json:"id"`
	Address   string          `json:"address"`
	Status    RunStatus       `json:"status"`
	Record    *ResearchRecord `json:"record,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
