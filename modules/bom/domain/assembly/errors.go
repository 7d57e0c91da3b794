package assembly

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Structural errors are fatal to the whole extraction: no partial forest is
// ever returned, since a corrupted source file is indistinguishable from a
// real error.

type DuplicateExternalIDError struct {
	ExternalID string
}

func (e *DuplicateExternalIDError) Error() string {
	return fmt.Sprintf("duplicate external id %q in extraction run", e.ExternalID)
}

type UnresolvedParentError struct {
	ChildExternalID  string
	ParentExternalID string
}

func (e *UnresolvedParentError) Error() string {
	return fmt.Sprintf(
		"item %q references parent %q which is not defined and not declared a root",
		e.ChildExternalID, e.ParentExternalID,
	)
}

// CycleError names the full offending path, root first, ending with the
// repeated node.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected in assembly hierarchy: %s", strings.Join(e.Path, " -> "))
}

type InvalidQuantityError struct {
	ExternalID string
	Quantity   decimal.Decimal
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("item %q has non-positive quantity %s", e.ExternalID, e.Quantity.String())
}
