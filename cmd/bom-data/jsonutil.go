package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/partstack/partstack/modules/bom/domain/assembly"
)

// flattenedItemJSON is the file interchange shape produced by `extract` and
// consumed by `validate` and `import`.
type flattenedItemJSON struct {
	ExternalID        string            `json:"external_id"`
	PartNumber        string            `json:"part_number,omitempty"`
	Description       string            `json:"description,omitempty"`
	Depth             int               `json:"depth,omitempty"`
	Lineage           string            `json:"lineage,omitempty"`
	EffectiveQuantity decimal.Decimal   `json:"effective_quantity,omitempty"`
	Attributes        map[string]string `json:"attributes,omitempty"`
}

func toFlattenedItemJSON(item assembly.FlattenedItem) flattenedItemJSON {
	return flattenedItemJSON{
		ExternalID:        item.ExternalID,
		PartNumber:        item.PartNumber,
		Description:       item.Description,
		Depth:             item.Depth,
		Lineage:           item.Lineage,
		EffectiveQuantity: item.EffectiveQuantity,
		Attributes:        item.Attributes,
	}
}

func toFlattenedItemsJSON(items []assembly.FlattenedItem) []flattenedItemJSON {
	out := make([]flattenedItemJSON, 0, len(items))
	for _, item := range items {
		out = append(out, toFlattenedItemJSON(item))
	}
	return out
}

func readFlattenedItems(path string) ([]assembly.FlattenedItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var items []flattenedItemJSON
	if err := json.NewDecoder(f).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	out := make([]assembly.FlattenedItem, 0, len(items))
	for _, item := range items {
		out = append(out, assembly.FlattenedItem{
			ExternalID:        item.ExternalID,
			PartNumber:        item.PartNumber,
			Description:       item.Description,
			Depth:             item.Depth,
			Lineage:           item.Lineage,
			EffectiveQuantity: item.EffectiveQuantity,
			Attributes:        item.Attributes,
		})
	}
	return out, nil
}

func readFieldMapping(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var mapping map[string]string
	if err := json.NewDecoder(f).Decode(&mapping); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return mapping, nil
}
