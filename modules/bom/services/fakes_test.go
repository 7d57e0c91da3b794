package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/partstack/partstack/modules/bom/domain/importjob"
	"github.com/partstack/partstack/modules/bom/domain/part"
)

type inMemoryPartRepository struct {
	byNumber map[string]part.Part
	err      error
}

func newInMemoryPartRepository(existing ...string) *inMemoryPartRepository {
	repo := &inMemoryPartRepository{byNumber: map[string]part.Part{}}
	for _, number := range existing {
		repo.byNumber[number] = part.Hydrate(
			uuid.New(), uuid.New(), number, number+" description",
			decimal.NewFromInt(1), nil, time.Now(), time.Now(),
		)
	}
	return repo
}

func (r *inMemoryPartRepository) GetPaginated(ctx context.Context, params *part.FindParams) ([]part.Part, int64, error) {
	out := make([]part.Part, 0, len(r.byNumber))
	for _, p := range r.byNumber {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (r *inMemoryPartRepository) GetByUUID(ctx context.Context, partUUID uuid.UUID) (part.Part, error) {
	for _, p := range r.byNumber {
		if p.PartUUID() == partUUID {
			return p, nil
		}
	}
	return part.Part{}, part.ErrNotFound
}

func (r *inMemoryPartRepository) GetByPartNumber(ctx context.Context, partNumber string) (part.Part, error) {
	if r.err != nil {
		return part.Part{}, r.err
	}
	p, ok := r.byNumber[partNumber]
	if !ok {
		return part.Part{}, part.ErrNotFound
	}
	return p, nil
}

func (r *inMemoryPartRepository) Create(ctx context.Context, p part.Part) (part.Part, error) {
	r.byNumber[p.PartNumber()] = p
	return p, nil
}

type inMemoryJobRepository struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]importjob.Job
}

func newInMemoryJobRepository() *inMemoryJobRepository {
	return &inMemoryJobRepository{jobs: map[uuid.UUID]importjob.Job{}}
}

func (r *inMemoryJobRepository) Create(ctx context.Context, j importjob.Job) (importjob.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.ID()] = j
	return j, nil
}

func (r *inMemoryJobRepository) GetByID(ctx context.Context, jobID uuid.UUID) (importjob.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return importjob.Job{}, importjob.ErrNotFound
	}
	return j, nil
}

func (r *inMemoryJobRepository) mutate(jobID uuid.UUID, fn func(j *importjob.Job) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return importjob.ErrNotFound
	}
	if err := fn(&j); err != nil {
		return err
	}
	r.jobs[jobID] = j
	return nil
}

func (r *inMemoryJobRepository) MarkRunning(ctx context.Context, jobID uuid.UUID) error {
	return r.mutate(jobID, func(j *importjob.Job) error { return j.Start() })
}

func (r *inMemoryJobRepository) AdvanceBatch(ctx context.Context, jobID uuid.UUID, outcome importjob.BatchOutcome) error {
	return r.mutate(jobID, func(j *importjob.Job) error { return j.RecordBatch(outcome) })
}

func (r *inMemoryJobRepository) Complete(ctx context.Context, jobID uuid.UUID) error {
	return r.mutate(jobID, func(j *importjob.Job) error { return j.Finish() })
}

func (r *inMemoryJobRepository) Fail(ctx context.Context, jobID uuid.UUID, reason string) error {
	return r.mutate(jobID, func(j *importjob.Job) error { return j.Fail(reason) })
}

func (r *inMemoryJobRepository) RequestCancel(ctx context.Context, jobID uuid.UUID) error {
	return r.mutate(jobID, func(j *importjob.Job) error { return j.RequestCancel() })
}

func (r *inMemoryJobRepository) CancelRequested(ctx context.Context, jobID uuid.UUID) (bool, error) {
	j, err := r.GetByID(ctx, jobID)
	if err != nil {
		return false, err
	}
	return j.CancelRequested(), nil
}

// scriptedRecordStore fails the batches listed in failAt and records every
// attempted write.
type scriptedRecordStore struct {
	writes      [][]TargetRecord
	failAt      map[int]error
	cancelAfter func(batchIndex int)
}

func newScriptedRecordStore() *scriptedRecordStore {
	return &scriptedRecordStore{failAt: map[int]error{}}
}

func (s *scriptedRecordStore) WriteBatch(ctx context.Context, tenantID uuid.UUID, records []TargetRecord) error {
	batchIndex := len(s.writes)
	s.writes = append(s.writes, records)
	if s.cancelAfter != nil {
		s.cancelAfter(batchIndex)
	}
	if err, ok := s.failAt[batchIndex]; ok {
		return err
	}
	return nil
}

func makeRecords(n int) []ReconciliationRecord {
	out := make([]ReconciliationRecord, 0, n)
	for i := 0; i < n; i++ {
		item := flatItem(fmt.Sprintf("P%03d", i), 1)
		out = append(out, ReconciliationRecord{Item: item, Classification: ClassificationNew})
	}
	return out
}
