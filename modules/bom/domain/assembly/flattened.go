package assembly

import "github.com/shopspring/decimal"

// FlattenedItem is one row of flattened output. Before rollup
// EffectiveQuantity equals the source node's path quantity; after rollup it is
// the sum across every root path containing the part.
type FlattenedItem struct {
	SourceNodeID      int
	ExternalID        string
	PartNumber        string
	Description       string
	Depth             int
	Lineage           string
	AncestorNames     []string
	EffectiveQuantity decimal.Decimal
	Attributes        map[string]string
}
