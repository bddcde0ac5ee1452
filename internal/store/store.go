// Package store persists pipeline run history. Runs are write-once-then-
// finalize records: created as running, completed or failed exactly once.
package store

import (
	"context"

	"github.com/divisual/leadgen-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Kind   model.RunKind   `json:"kind,omitempty"`
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the run-history persistence interface.
type Store interface {
	CreateRun(ctx context.Context, kind model.RunKind, detail string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, count int, log []string) error
	FailRun(ctx context.Context, runID string, count int, log []string, runErr string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
