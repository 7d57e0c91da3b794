package importjob

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the narrow state-transition interface the pipeline needs for
// durable job state. Implementations must reject transitions out of terminal
// states with ErrTerminal.
type Repository interface {
	Create(ctx context.Context, j Job) (Job, error)
	GetByID(ctx context.Context, jobID uuid.UUID) (Job, error)

	MarkRunning(ctx context.Context, jobID uuid.UUID) error
	// AdvanceBatch appends one batch outcome to the job log and accumulates
	// imported/failed totals.
	AdvanceBatch(ctx context.Context, jobID uuid.UUID, outcome BatchOutcome) error
	// Complete moves a running job to COMPLETED or PARTIALLY_FAILED depending
	// on its accumulated failed count.
	Complete(ctx context.Context, jobID uuid.UUID) error
	Fail(ctx context.Context, jobID uuid.UUID, reason string) error

	RequestCancel(ctx context.Context, jobID uuid.UUID) error
	CancelRequested(ctx context.Context, jobID uuid.UUID) (bool, error)
}
