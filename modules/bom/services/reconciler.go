package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/partstack/partstack/modules/bom/domain/assembly"
	"github.com/partstack/partstack/modules/bom/domain/part"
	"github.com/partstack/partstack/pkg/serrors"
)

type Classification string

const (
	ClassificationNew              Classification = "NEW"
	ClassificationExisting         Classification = "EXISTING"
	ClassificationDuplicateInBatch Classification = "DUPLICATE_IN_BATCH"
	ClassificationInvalid          Classification = "INVALID"
)

// ReconciliationRecord is the per-item outcome of reconciling flattened
// output against the authoritative parts catalog.
type ReconciliationRecord struct {
	Item               assembly.FlattenedItem
	Classification     Classification
	ValidationErrors   []serrors.FieldError
	MatchedExistingKey *uuid.UUID
	// DuplicateOfIndex references the first record carrying the same part
	// number, set only for DUPLICATE_IN_BATCH.
	DuplicateOfIndex *int
}

type ValidationResult struct {
	Total          int
	Valid          int
	Invalid        int
	NewCount       int
	ExistingCount  int
	DuplicateCount int
	Records        []ReconciliationRecord
}

// Reconciler classifies each incoming item as NEW, EXISTING,
// DUPLICATE_IN_BATCH or INVALID. The three checks (required fields,
// duplicate-in-batch, store existence) run independently per item; the final
// classification is the most severe:
// INVALID > DUPLICATE_IN_BATCH > EXISTING/NEW.
type Reconciler struct {
	parts part.Repository
}

func NewReconciler(parts part.Repository) *Reconciler {
	return &Reconciler{parts: parts}
}

func (r *Reconciler) Reconcile(ctx context.Context, items []assembly.FlattenedItem) (*ValidationResult, error) {
	result := &ValidationResult{
		Total:   len(items),
		Records: make([]ReconciliationRecord, 0, len(items)),
	}
	firstIndex := make(map[string]int, len(items))

	for i, item := range items {
		record := ReconciliationRecord{Item: item}

		// Required-field check.
		if item.PartNumber == "" {
			record.ValidationErrors = append(record.ValidationErrors, serrors.NewFieldRequiredError("part_number"))
		}
		if item.Description == "" {
			record.ValidationErrors = append(record.ValidationErrors, serrors.NewFieldRequiredError("description"))
		}

		// Duplicate-in-batch check. Rollup normally merges duplicates, but
		// two root assemblies processed in one run can still collide.
		var duplicateOf *int
		if item.PartNumber != "" {
			if at, ok := firstIndex[item.PartNumber]; ok {
				dup := at
				duplicateOf = &dup
			} else {
				firstIndex[item.PartNumber] = i
			}
		}

		// Existence check against the authoritative store.
		var matched *uuid.UUID
		if item.PartNumber != "" {
			existing, err := r.parts.GetByPartNumber(ctx, item.PartNumber)
			switch {
			case err == nil:
				key := existing.PartUUID()
				matched = &key
			case errors.Is(err, part.ErrNotFound):
				// NEW
			default:
				return nil, fmt.Errorf("part lookup for %q: %w", item.PartNumber, err)
			}
		}

		switch {
		case len(record.ValidationErrors) > 0:
			record.Classification = ClassificationInvalid
			result.Invalid++
		case duplicateOf != nil:
			record.Classification = ClassificationDuplicateInBatch
			record.DuplicateOfIndex = duplicateOf
			result.DuplicateCount++
			result.Valid++
		case matched != nil:
			record.Classification = ClassificationExisting
			record.MatchedExistingKey = matched
			result.ExistingCount++
			result.Valid++
		default:
			record.Classification = ClassificationNew
			result.NewCount++
			result.Valid++
		}

		result.Records = append(result.Records, record)
	}

	return result, nil
}
