package repository

import (
	"context"
	"time"

	"netsync/internal/adapter"
	"netsync/internal/domain"
)

// Run statuses
const (
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// Run summarizes one load run
type Run struct {
	ID          string        `json:"id"`
	Namespace   string        `json:"namespace"`
	Status      string        `json:"status"`
	Error       string        `json:"error,omitempty"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
	Stats       adapter.Stats `json:"stats"`
}

// Duration returns how long the run took
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Repository defines the interface for run persistence
type Repository interface {
	// Write operations. snap may be nil for a failed run.
	SaveRun(ctx context.Context, run *Run, snap *domain.Snapshot, quarantine []adapter.QuarantineRecord) error
	DeleteRun(ctx context.Context, id string) error

	// Read operations. Missing runs return nil without error.
	GetRun(ctx context.Context, id string) (*Run, error)
	LatestRun(ctx context.Context) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	GetSnapshot(ctx context.Context, runID string) (*domain.Snapshot, error)
	GetQuarantine(ctx context.Context, runID string) ([]adapter.QuarantineRecord, error)

	// Close releases resources
	Close() error
}
