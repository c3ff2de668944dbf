// Package repository defines the report store interface and errors.
package repository

import (
	"context"

	"github.com/okian/campwatch/internal/domain/model"
)

// Store provides read/write access to finished analysis reports.
type Store interface {
	// Save stores a report under its run id. When the store is full the
	// oldest report is evicted to make room.
	Save(ctx context.Context, report *model.Report) error

	// Get returns the report for a run id.
	// Returns ErrNotFound if the run is unknown.
	Get(ctx context.Context, runID string) (*model.Report, error)

	// List returns up to limit report summaries, newest first.
	List(ctx context.Context, limit int) ([]model.ReportMeta, error)

	// Count returns the number of reports currently held.
	Count(ctx context.Context) int
}
