package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/partstack/partstack/modules/bom/domain/importjob"
)

// FieldMapping maps a source attribute name onto a target field id of the
// destination table.
type FieldMapping map[string]string

// TargetRecord is one row shaped for the destination store: the intrinsic
// columns plus the mapped attribute fields.
type TargetRecord struct {
	PartNumber  string
	Description string
	Quantity    decimal.Decimal
	Fields      map[string]string
}

// RecordStore persists one batch of target records as an atomic write.
// Implementations report transient infrastructure faults as
// *StoreUnavailableError; anything else is treated as a data-level write
// failure isolated to the batch.
type RecordStore interface {
	WriteBatch(ctx context.Context, tenantID uuid.UUID, records []TargetRecord) error
}

// WriteError is a per-batch failure: recorded in the job log, the run
// continues with the next batch.
type WriteError struct {
	BatchIndex int
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("batch %d write failed: %v", e.BatchIndex, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// StoreUnavailableError is fatal: remaining batches are not attempted and the
// job transitions to FAILED.
type StoreUnavailableError struct {
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("record store unavailable: %v", e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// ImportBatcher partitions selected reconciliation records into fixed-size
// batches and persists them sequentially, isolating write failures per batch.
// Batches run strictly in order so the job log's batch indices mirror the
// input order; the cancel flag is checked between batches, never mid-batch.
type ImportBatcher struct {
	store RecordStore
	jobs  importjob.Repository
	log   *logrus.Logger
}

func NewImportBatcher(store RecordStore, jobs importjob.Repository, log *logrus.Logger) *ImportBatcher {
	return &ImportBatcher{store: store, jobs: jobs, log: log}
}

// Run executes an already-created PENDING job. It returns the terminal job
// state; infrastructure failures of the job store itself are the only errors
// returned directly.
func (b *ImportBatcher) Run(
	ctx context.Context,
	job importjob.Job,
	records []ReconciliationRecord,
	mapping FieldMapping,
) (importjob.Job, error) {
	jobID := job.ID()
	if err := b.jobs.MarkRunning(ctx, jobID); err != nil {
		return job, err
	}

	batchSize := job.BatchSize()
	if batchSize <= 0 {
		batchSize = 100
	}

	for batchIndex, start := 0, 0; start < len(records); batchIndex, start = batchIndex+1, start+batchSize {
		cancelled, err := b.jobs.CancelRequested(ctx, jobID)
		if err != nil {
			return job, err
		}
		if cancelled {
			if err := b.jobs.Fail(ctx, jobID, "cancel requested"); err != nil {
				return job, err
			}
			return b.jobs.GetByID(ctx, jobID)
		}

		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		outcome := importjob.BatchOutcome{BatchIndex: batchIndex}
		writeErr := b.store.WriteBatch(ctx, job.TenantID(), mapRecords(batch, mapping))
		switch {
		case writeErr == nil:
			outcome.ImportedCount = len(batch)
		default:
			var unavailable *StoreUnavailableError
			if errors.As(writeErr, &unavailable) {
				if b.log != nil {
					b.log.WithError(writeErr).WithField("job_id", jobID).Error("import aborted, record store unavailable")
				}
				if err := b.jobs.Fail(ctx, jobID, unavailable.Error()); err != nil {
					return job, err
				}
				return b.jobs.GetByID(ctx, jobID)
			}
			outcome.FailedCount = len(batch)
			outcome.FirstError = (&WriteError{BatchIndex: batchIndex, Err: writeErr}).Error()
			if b.log != nil {
				b.log.WithError(writeErr).WithFields(logrus.Fields{
					"job_id":      jobID,
					"batch_index": batchIndex,
				}).Warn("import batch failed, continuing with next batch")
			}
		}

		if err := b.jobs.AdvanceBatch(ctx, jobID, outcome); err != nil {
			return job, err
		}
		recordBatchOutcome(outcome.ImportedCount, outcome.FailedCount)
	}

	if err := b.jobs.Complete(ctx, jobID); err != nil {
		return job, err
	}
	return b.jobs.GetByID(ctx, jobID)
}

func mapRecords(records []ReconciliationRecord, mapping FieldMapping) []TargetRecord {
	out := make([]TargetRecord, 0, len(records))
	for _, record := range records {
		fields := make(map[string]string, len(mapping))
		for sourceAttr, targetFieldID := range mapping {
			if value, ok := record.Item.Attributes[sourceAttr]; ok {
				fields[targetFieldID] = value
			}
		}
		out = append(out, TargetRecord{
			PartNumber:  record.Item.PartNumber,
			Description: record.Item.Description,
			Quantity:    record.Item.EffectiveQuantity,
			Fields:      fields,
		})
	}
	return out
}
