package assembly

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RawItem is one extracted entity handed over by the CAD/PDF extraction
// collaborator. The pipeline never interprets Attributes; they are carried
// opaquely into the flattened output.
type RawItem struct {
	ExternalID        string
	ParentExternalID  *string
	PartNumber        string
	Description       string
	QuantityPerParent decimal.Decimal
	Attributes        map[string]string
}

// Quantity returns the per-parent quantity, defaulting to 1 when the source
// did not provide one.
func (r RawItem) Quantity() decimal.Decimal {
	if r.QuantityPerParent.IsZero() {
		return decimal.NewFromInt(1)
	}
	return r.QuantityPerParent
}

// IsAssembly reports whether the item is a pure assembly container without a
// part number of its own.
func (r RawItem) IsAssembly() bool {
	return strings.TrimSpace(r.PartNumber) == ""
}

// DisplayName is the name used in lineage strings: the description when
// present, otherwise the part number, otherwise the external id.
func (r RawItem) DisplayName() string {
	if name := strings.TrimSpace(r.Description); name != "" {
		return name
	}
	if pn := strings.TrimSpace(r.PartNumber); pn != "" {
		return pn
	}
	return strings.TrimSpace(r.ExternalID)
}
