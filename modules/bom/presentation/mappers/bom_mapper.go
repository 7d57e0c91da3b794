package mappers

import (
	"github.com/partstack/partstack/modules/bom/domain/assembly"
	"github.com/partstack/partstack/modules/bom/domain/importjob"
	"github.com/partstack/partstack/modules/bom/presentation/viewmodels"
	"github.com/partstack/partstack/modules/bom/services"
)

// TreeToViewModel renders the forest as nested tree nodes, one per root.
func TreeToViewModel(forest *assembly.Forest) []*viewmodels.TreeNode {
	if forest == nil {
		return nil
	}
	var render func(id int) *viewmodels.TreeNode
	render = func(id int) *viewmodels.TreeNode {
		node := forest.Node(id)
		vm := &viewmodels.TreeNode{
			ExternalID:  node.Raw.ExternalID,
			PartNumber:  node.Raw.PartNumber,
			Description: node.Raw.Description,
			Quantity:    node.Raw.Quantity().String(),
			Depth:       node.Depth,
			Attributes:  node.Raw.Attributes,
		}
		for _, childID := range node.ChildrenIDs {
			vm.Children = append(vm.Children, render(childID))
		}
		return vm
	}

	out := make([]*viewmodels.TreeNode, 0, len(forest.Roots))
	for _, rootID := range forest.Roots {
		out = append(out, render(rootID))
	}
	return out
}

func FlattenedItemToViewModel(item assembly.FlattenedItem) viewmodels.FlattenedItem {
	return viewmodels.FlattenedItem{
		ExternalID:        item.ExternalID,
		PartNumber:        item.PartNumber,
		Description:       item.Description,
		Depth:             item.Depth,
		Lineage:           item.Lineage,
		EffectiveQuantity: item.EffectiveQuantity.String(),
		Attributes:        item.Attributes,
	}
}

func FlattenedItemsToViewModels(items []assembly.FlattenedItem) []viewmodels.FlattenedItem {
	out := make([]viewmodels.FlattenedItem, 0, len(items))
	for _, item := range items {
		out = append(out, FlattenedItemToViewModel(item))
	}
	return out
}

func ValidationResultToViewModel(result *services.ValidationResult) *viewmodels.ValidationResult {
	vm := &viewmodels.ValidationResult{
		Total:          result.Total,
		Valid:          result.Valid,
		Invalid:        result.Invalid,
		NewCount:       result.NewCount,
		ExistingCount:  result.ExistingCount,
		DuplicateCount: result.DuplicateCount,
		Records:        make([]viewmodels.ReconciliationRecord, 0, len(result.Records)),
	}
	for _, record := range result.Records {
		rvm := viewmodels.ReconciliationRecord{
			Item:             FlattenedItemToViewModel(record.Item),
			Classification:   string(record.Classification),
			DuplicateOfIndex: record.DuplicateOfIndex,
		}
		for _, fieldErr := range record.ValidationErrors {
			rvm.ValidationErrors = append(rvm.ValidationErrors, viewmodels.FieldError{
				Field:   fieldErr.Field,
				Code:    fieldErr.Code,
				Message: fieldErr.Message,
			})
		}
		if record.MatchedExistingKey != nil {
			rvm.MatchedExistingKey = record.MatchedExistingKey.String()
		}
		vm.Records = append(vm.Records, rvm)
	}
	return vm
}

func ImportJobToViewModel(job importjob.Job) *viewmodels.ImportJob {
	vm := &viewmodels.ImportJob{
		ID:              job.ID().String(),
		Status:          string(job.Status()),
		BatchSize:       job.BatchSize(),
		TotalItems:      job.TotalItems(),
		ImportedCount:   job.ImportedCount(),
		FailedCount:     job.FailedCount(),
		CancelRequested: job.CancelRequested(),
		FailureReason:   job.FailureReason(),
	}
	for _, outcome := range job.Batches() {
		vm.Batches = append(vm.Batches, viewmodels.BatchOutcome{
			BatchIndex:    outcome.BatchIndex,
			ImportedCount: outcome.ImportedCount,
			FailedCount:   outcome.FailedCount,
			FirstError:    outcome.FirstError,
		})
	}
	return vm
}
