package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/partstack/partstack/modules/bom/domain/assembly"
	"github.com/partstack/partstack/modules/bom/domain/events"
	"github.com/partstack/partstack/modules/bom/domain/importjob"
	"github.com/partstack/partstack/modules/bom/domain/part"
	"github.com/partstack/partstack/pkg/composables"
	"github.com/partstack/partstack/pkg/configuration"
	"github.com/partstack/partstack/pkg/eventbus"
)

// ExtractionInput is one extraction request. Strategy and PathSeparator only
// apply when Mode is flattened; HierarchyDepth and ParentChildMap are
// extractor hints used for cross-checking.
type ExtractionInput struct {
	Items          []assembly.RawItem
	Mode           assembly.Mode
	Strategy       assembly.Strategy
	PathSeparator  string
	DeclaredRoots  []string
	HierarchyDepth int
	ParentChildMap map[string][]string
}

// ExtractionResult carries either the forest (hierarchical mode, or the
// hierarchical passthrough strategy) or the flattened, rolled-up items, never
// both.
type ExtractionResult struct {
	Mode     assembly.Mode
	Tree     *assembly.Forest
	Items    []assembly.FlattenedItem
	Warnings []string
}

type ImportInput struct {
	TenantID  uuid.UUID
	Records   []ReconciliationRecord
	Mapping   FieldMapping
	BatchSize int
	// Async runs the batcher in the background; the caller polls job state.
	Async bool
}

type ImportResult struct {
	JobID         uuid.UUID
	Status        importjob.Status
	TotalItems    int
	ImportedCount int
	FailedCount   int
}

// BOMService orchestrates the pipeline: graph building, flattening, rollup,
// reconciliation and batched import. Stages 1-4 are synchronous pure
// transformations; only the import stage performs writes.
type BOMService struct {
	parts     part.Repository
	jobs      importjob.Repository
	store     RecordStore
	publisher eventbus.EventBus
}

func NewBOMService(
	parts part.Repository,
	jobs importjob.Repository,
	store RecordStore,
	publisher eventbus.EventBus,
) *BOMService {
	return &BOMService{
		parts:     parts,
		jobs:      jobs,
		store:     store,
		publisher: publisher,
	}
}

// Extract builds the assembly forest and, in flattened mode, flattens under
// the selected strategy and applies rollup. Structural problems (duplicate
// ids, unresolved parents, cycles) fail the whole run; no partial result is
// returned.
func (s *BOMService) Extract(ctx context.Context, input ExtractionInput) (*ExtractionResult, error) {
	mode := input.Mode
	if mode == "" {
		mode = assembly.ModeHierarchical
	}
	if _, err := assembly.ParseMode(string(mode)); err != nil {
		return nil, newServiceError(http.StatusBadRequest, "BOM_INVALID_MODE", err.Error(), nil)
	}

	builder := NewGraphBuilder()
	forest, warnings, err := builder.Build(BuildInput{
		Items:          input.Items,
		DeclaredRoots:  input.DeclaredRoots,
		HierarchyDepth: input.HierarchyDepth,
		ParentChildMap: input.ParentChildMap,
	})
	recordExtraction(string(mode), err)
	if err != nil {
		return nil, err
	}

	if mode == assembly.ModeHierarchical {
		return &ExtractionResult{Mode: mode, Tree: forest, Warnings: warnings}, nil
	}

	strategy := input.Strategy
	if strategy == "" {
		strategy = assembly.StrategyPath
	}
	if _, err := assembly.ParseStrategy(string(strategy)); err != nil {
		return nil, newServiceError(http.StatusBadRequest, "BOM_INVALID_STRATEGY", err.Error(), nil)
	}
	if strategy == assembly.StrategyHierarchical {
		// Tree passthrough: no flattening, no rollup.
		return &ExtractionResult{Mode: mode, Tree: forest, Warnings: warnings}, nil
	}

	separator := input.PathSeparator
	if separator == "" {
		separator = configuration.Use().BOM.PathSeparator
	}
	flattened, err := NewFlattener(separator).Flatten(forest, strategy)
	if err != nil {
		return nil, newServiceError(http.StatusBadRequest, "BOM_INVALID_STRATEGY", err.Error(), nil)
	}

	items := NewRollupEngine().Rollup(flattened)
	return &ExtractionResult{Mode: mode, Items: items, Warnings: warnings}, nil
}

// Validate reconciles flattened items against the parts catalog. Validation
// problems are data in the result, never errors.
func (s *BOMService) Validate(ctx context.Context, items []assembly.FlattenedItem) (*ValidationResult, error) {
	return NewReconciler(s.parts).Reconcile(ctx, items)
}

// Import creates the import job and runs the batcher, in the background when
// input.Async is set. The returned result always carries counts, even on
// partial failure.
func (s *BOMService) Import(ctx context.Context, input ImportInput) (*ImportResult, error) {
	if input.TenantID == uuid.Nil {
		return nil, newServiceError(http.StatusBadRequest, "BOM_TENANT_REQUIRED", "tenant id is required", nil)
	}
	batchSize := input.BatchSize
	if batchSize <= 0 {
		batchSize = configuration.Use().BOM.DefaultBatchSize
	}

	job, err := s.jobs.Create(ctx, importjob.New(input.TenantID, len(input.Records), batchSize))
	if err != nil {
		return nil, err
	}
	if s.publisher != nil {
		s.publisher.Publish(&events.ImportJobCreated{
			JobID:      job.ID(),
			TenantID:   job.TenantID(),
			TotalItems: job.TotalItems(),
		})
	}

	batcher := NewImportBatcher(s.store, s.jobs, composables.UseLogger(ctx))

	if input.Async {
		// The batcher must outlive the request; detach from its deadline but
		// keep context values (pool, logger).
		bgCtx := context.WithoutCancel(ctx)
		log := composables.UseLogger(ctx)
		go func() {
			final, runErr := batcher.Run(bgCtx, job, input.Records, input.Mapping)
			if runErr != nil {
				// A job store fault aborted the run. The job row is the only
				// trace pollers ever see, so try to move it out of RUNNING.
				log.WithError(runErr).WithField("job_id", job.ID()).Error("background import aborted")
				if failErr := s.jobs.Fail(bgCtx, job.ID(), runErr.Error()); failErr != nil && !errors.Is(failErr, importjob.ErrTerminal) {
					log.WithError(failErr).WithField("job_id", job.ID()).Error("background import could not be marked failed")
				}
				return
			}
			s.publishFinished(final)
		}()
		return &ImportResult{
			JobID:      job.ID(),
			Status:     importjob.StatusRunning,
			TotalItems: job.TotalItems(),
		}, nil
	}

	final, err := batcher.Run(ctx, job, input.Records, input.Mapping)
	if err != nil {
		return nil, err
	}
	s.publishFinished(final)
	return &ImportResult{
		JobID:         final.ID(),
		Status:        final.Status(),
		TotalItems:    final.TotalItems(),
		ImportedCount: final.ImportedCount(),
		FailedCount:   final.FailedCount(),
	}, nil
}

func (s *BOMService) publishFinished(job importjob.Job) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(&events.ImportJobFinished{
		JobID:         job.ID(),
		TenantID:      job.TenantID(),
		Status:        string(job.Status()),
		ImportedCount: job.ImportedCount(),
		FailedCount:   job.FailedCount(),
	})
}

// Job returns the current durable state of an import job.
func (s *BOMService) Job(ctx context.Context, jobID uuid.UUID) (importjob.Job, error) {
	return s.jobs.GetByID(ctx, jobID)
}

// CancelJob marks a job for cancellation. The batcher stops before the next
// batch; already-committed batches are kept.
func (s *BOMService) CancelJob(ctx context.Context, jobID uuid.UUID) error {
	return s.jobs.RequestCancel(ctx, jobID)
}
