package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/partstack/partstack/modules/bom/domain/importjob"
	"github.com/partstack/partstack/modules/bom/infrastructure/persistence/models"
	"github.com/partstack/partstack/pkg/composables"
)

const jobColumns = `id, tenant_id, status, batch_size, total_items, imported_count, failed_count,
	cancel_requested, failure_reason, created_at, updated_at`

// ImportJobRepository persists the job state machine. Every transition guards
// on the current status in its WHERE clause, so terminal jobs are immutable at
// the database level regardless of what the caller believes the state is.
// Reads and cancellation are tenant-scoped: another tenant's job id behaves
// exactly like a missing one.
type ImportJobRepository struct{}

func NewImportJobRepository() importjob.Repository {
	return &ImportJobRepository{}
}

func (r *ImportJobRepository) Create(ctx context.Context, j importjob.Job) (importjob.Job, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return importjob.Job{}, err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO bom_import_jobs (id, tenant_id, status, batch_size, total_items)
		VALUES ($1, $2, $3, $4, $5)
	`, pgUUID(j.ID()), pgUUID(j.TenantID()), string(j.Status()), j.BatchSize(), j.TotalItems()); err != nil {
		return importjob.Job{}, err
	}
	return r.GetByID(ctx, j.ID())
}

func (r *ImportJobRepository) GetByID(ctx context.Context, jobID uuid.UUID) (importjob.Job, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return importjob.Job{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return importjob.Job{}, err
	}

	var row models.ImportJob
	if err := tx.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM bom_import_jobs
		WHERE id = $1 AND tenant_id = $2
	`, pgUUID(jobID), pgUUID(tenantID)).Scan(
		&row.ID,
		&row.TenantID,
		&row.Status,
		&row.BatchSize,
		&row.TotalItems,
		&row.ImportedCount,
		&row.FailedCount,
		&row.CancelRequested,
		&row.FailureReason,
		&row.CreatedAt,
		&row.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return importjob.Job{}, importjob.ErrNotFound
		}
		return importjob.Job{}, err
	}

	batches, err := r.batches(ctx, jobID)
	if err != nil {
		return importjob.Job{}, err
	}
	return toDomainImportJob(&row, batches)
}

func (r *ImportJobRepository) batches(ctx context.Context, jobID uuid.UUID) ([]importjob.BatchOutcome, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT batch_index, imported_count, failed_count, first_error
		FROM bom_import_job_batches
		WHERE job_id = $1
		ORDER BY batch_index
	`, pgUUID(jobID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []importjob.BatchOutcome
	for rows.Next() {
		var row models.ImportJobBatch
		if err := rows.Scan(&row.BatchIndex, &row.ImportedCount, &row.FailedCount, &row.FirstError); err != nil {
			return nil, err
		}
		out = append(out, importjob.BatchOutcome{
			BatchIndex:    row.BatchIndex,
			ImportedCount: row.ImportedCount,
			FailedCount:   row.FailedCount,
			FirstError:    row.FirstError,
		})
	}
	return out, rows.Err()
}

func (r *ImportJobRepository) MarkRunning(ctx context.Context, jobID uuid.UUID) error {
	return r.transition(ctx, jobID, importjob.StatusRunning, `
		UPDATE bom_import_jobs
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
	`, string(importjob.StatusRunning), string(importjob.StatusPending))
}

func (r *ImportJobRepository) AdvanceBatch(ctx context.Context, jobID uuid.UUID, outcome importjob.BatchOutcome) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO bom_import_job_batches (job_id, batch_index, imported_count, failed_count, first_error)
		VALUES ($1, $2, $3, $4, $5)
	`, pgUUID(jobID), outcome.BatchIndex, outcome.ImportedCount, outcome.FailedCount, outcome.FirstError); err != nil {
		return err
	}
	return r.transition(ctx, jobID, importjob.StatusRunning, `
		UPDATE bom_import_jobs
		SET imported_count = imported_count + $2,
			failed_count = failed_count + $3,
			updated_at = now()
		WHERE id = $1 AND status = $4
	`, outcome.ImportedCount, outcome.FailedCount, string(importjob.StatusRunning))
}

func (r *ImportJobRepository) Complete(ctx context.Context, jobID uuid.UUID) error {
	return r.transition(ctx, jobID, importjob.StatusCompleted, `
		UPDATE bom_import_jobs
		SET status = CASE WHEN failed_count = 0 THEN $2 ELSE $3 END,
			updated_at = now()
		WHERE id = $1 AND status = $4
	`, string(importjob.StatusCompleted), string(importjob.StatusPartiallyFailed), string(importjob.StatusRunning))
}

func (r *ImportJobRepository) Fail(ctx context.Context, jobID uuid.UUID, reason string) error {
	return r.transition(ctx, jobID, importjob.StatusFailed, `
		UPDATE bom_import_jobs
		SET status = $2, failure_reason = $3, updated_at = now()
		WHERE id = $1 AND status NOT IN ($4, $5, $6)
	`, string(importjob.StatusFailed), reason,
		string(importjob.StatusCompleted), string(importjob.StatusPartiallyFailed), string(importjob.StatusFailed))
}

func (r *ImportJobRepository) RequestCancel(ctx context.Context, jobID uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	return r.transition(ctx, jobID, importjob.StatusFailed, `
		UPDATE bom_import_jobs
		SET cancel_requested = true, updated_at = now()
		WHERE id = $1 AND tenant_id = $2 AND status NOT IN ($3, $4, $5)
	`, pgUUID(tenantID),
		string(importjob.StatusCompleted), string(importjob.StatusPartiallyFailed), string(importjob.StatusFailed))
}

func (r *ImportJobRepository) CancelRequested(ctx context.Context, jobID uuid.UUID) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return false, err
	}
	var cancelled bool
	if err := tx.QueryRow(ctx, `
		SELECT cancel_requested FROM bom_import_jobs WHERE id = $1 AND tenant_id = $2
	`, pgUUID(jobID), pgUUID(tenantID)).Scan(&cancelled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, importjob.ErrNotFound
		}
		return false, err
	}
	return cancelled, nil
}

// transition runs a guarded UPDATE and translates a zero-row result into the
// precise domain error: missing job, terminal job, or invalid source state.
func (r *ImportJobRepository) transition(
	ctx context.Context,
	jobID uuid.UUID,
	to importjob.Status,
	query string,
	args ...interface{},
) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, query, append([]interface{}{pgUUID(jobID)}, args...)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	current, err := r.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if current.IsTerminal() {
		return importjob.ErrTerminal
	}
	return &importjob.InvalidTransitionError{From: current.Status(), To: to}
}
