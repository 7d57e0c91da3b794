package importjob

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending         Status = "pending"
	StatusRunning         Status = "running"
	StatusCompleted       Status = "completed"
	StatusPartiallyFailed Status = "partially_failed"
	StatusFailed          Status = "failed"
)

func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusPartiallyFailed, StatusFailed:
		return true
	default:
		return false
	}
}

var (
	ErrNotFound = errors.New("import job not found")
	// ErrTerminal is returned when a transition is attempted on a job that
	// has already reached a terminal state.
	ErrTerminal = errors.New("import job is terminal")
)

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid import job transition %s -> %s", e.From, e.To)
}

// BatchOutcome is one entry of the per-batch job log.
type BatchOutcome struct {
	BatchIndex    int
	ImportedCount int
	FailedCount   int
	FirstError    string
}

// Job is the import job state machine:
// PENDING -> RUNNING -> (COMPLETED | PARTIALLY_FAILED | FAILED).
// Mutated only through its transition methods; immutable once terminal.
type Job struct {
	id              uuid.UUID
	tenantID        uuid.UUID
	status          Status
	batchSize       int
	totalItems      int
	importedCount   int
	failedCount     int
	batches         []BatchOutcome
	cancelRequested bool
	failureReason   string
	createdAt       time.Time
	updatedAt       time.Time
}

func New(tenantID uuid.UUID, totalItems, batchSize int) Job {
	return Job{
		id:         uuid.New(),
		tenantID:   tenantID,
		status:     StatusPending,
		batchSize:  batchSize,
		totalItems: totalItems,
	}
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	status Status,
	batchSize int,
	totalItems int,
	importedCount int,
	failedCount int,
	batches []BatchOutcome,
	cancelRequested bool,
	failureReason string,
	createdAt time.Time,
	updatedAt time.Time,
) Job {
	return Job{
		id:              id,
		tenantID:        tenantID,
		status:          status,
		batchSize:       batchSize,
		totalItems:      totalItems,
		importedCount:   importedCount,
		failedCount:     failedCount,
		batches:         batches,
		cancelRequested: cancelRequested,
		failureReason:   failureReason,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

func (j Job) ID() uuid.UUID           { return j.id }
func (j Job) TenantID() uuid.UUID     { return j.tenantID }
func (j Job) Status() Status          { return j.status }
func (j Job) BatchSize() int          { return j.batchSize }
func (j Job) TotalItems() int         { return j.totalItems }
func (j Job) ImportedCount() int      { return j.importedCount }
func (j Job) FailedCount() int        { return j.failedCount }
func (j Job) Batches() []BatchOutcome { return j.batches }
func (j Job) CancelRequested() bool   { return j.cancelRequested }
func (j Job) FailureReason() string   { return j.failureReason }
func (j Job) CreatedAt() time.Time    { return j.createdAt }
func (j Job) UpdatedAt() time.Time    { return j.updatedAt }
func (j Job) IsTerminal() bool        { return j.status.IsTerminal() }

// Start transitions PENDING -> RUNNING.
func (j *Job) Start() error {
	if j.status != StatusPending {
		return &InvalidTransitionError{From: j.status, To: StatusRunning}
	}
	j.status = StatusRunning
	return nil
}

// RecordBatch appends one batch outcome and accumulates the run totals.
func (j *Job) RecordBatch(outcome BatchOutcome) error {
	if j.status != StatusRunning {
		return &InvalidTransitionError{From: j.status, To: StatusRunning}
	}
	j.batches = append(j.batches, outcome)
	j.importedCount += outcome.ImportedCount
	j.failedCount += outcome.FailedCount
	return nil
}

// Finish transitions RUNNING to COMPLETED when nothing failed, otherwise to
// PARTIALLY_FAILED.
func (j *Job) Finish() error {
	if j.status != StatusRunning {
		return &InvalidTransitionError{From: j.status, To: StatusCompleted}
	}
	if j.failedCount == 0 {
		j.status = StatusCompleted
	} else {
		j.status = StatusPartiallyFailed
	}
	return nil
}

// Fail transitions the job to FAILED with a reason. Allowed from any
// non-terminal state.
func (j *Job) Fail(reason string) error {
	if j.status.IsTerminal() {
		return ErrTerminal
	}
	j.status = StatusFailed
	j.failureReason = reason
	return nil
}

// RequestCancel marks the job for cancellation. The batcher observes the flag
// between batches; already-committed batches are kept.
func (j *Job) RequestCancel() error {
	if j.status.IsTerminal() {
		return ErrTerminal
	}
	j.cancelRequested = true
	return nil
}
