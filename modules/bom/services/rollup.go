package services

import "github.com/partstack/partstack/modules/bom/domain/assembly"

// RollupEngine aggregates flattened items by part number, summing path
// quantities into effective quantities. Rollup is root-path-additive: a part
// at path quantity 3 under one parent and 4 under another rolls up to 7.
// Quantities are exact decimals, so aggregation order cannot affect the sum.
type RollupEngine struct{}

func NewRollupEngine() *RollupEngine {
	return &RollupEngine{}
}

// Rollup merges items sharing a part number into the first occurrence,
// preserving first-seen order and first-seen non-quantity attributes. Items
// without a part number (pure assembly containers) pass through unaggregated
// for traceability and never contribute to a part-level total.
func (e *RollupEngine) Rollup(items []assembly.FlattenedItem) []assembly.FlattenedItem {
	out := make([]assembly.FlattenedItem, 0, len(items))
	firstIndex := make(map[string]int, len(items))

	for _, item := range items {
		if item.PartNumber == "" {
			out = append(out, item)
			continue
		}
		if at, ok := firstIndex[item.PartNumber]; ok {
			out[at].EffectiveQuantity = out[at].EffectiveQuantity.Add(item.EffectiveQuantity)
			continue
		}
		firstIndex[item.PartNumber] = len(out)
		out = append(out, item)
	}
	return out
}
