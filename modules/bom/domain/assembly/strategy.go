package assembly

import "fmt"

// Mode selects whether extraction returns the tree itself or a flattened,
// rolled-up list.
type Mode string

const (
	ModeHierarchical Mode = "hierarchical"
	ModeFlattened    Mode = "flattened"
)

func ParseMode(v string) (Mode, error) {
	switch Mode(v) {
	case ModeHierarchical, ModeFlattened:
		return Mode(v), nil
	default:
		return "", fmt.Errorf("unsupported mode: %q", v)
	}
}

// Strategy is the closed set of flattening strategies. New strategies are not
// added at runtime; dispatch is a single switch in the flattener.
type Strategy string

const (
	// StrategyHierarchical returns the tree structure unchanged.
	StrategyHierarchical Strategy = "hierarchical"
	// StrategyPath emits one item per node with lineage as ancestor names
	// joined by a separator.
	StrategyPath Strategy = "path"
	// StrategyInducted collapses runs of pass-through assembly nodes, keeping
	// leaves and nodes marked significant.
	StrategyInducted Strategy = "inducted"
	// StrategyLevelPrefix encodes lineage as a numeric dot-path ("1.2.3").
	StrategyLevelPrefix Strategy = "level_prefix"
	// StrategyParentReference emits the immediate parent's external id as
	// lineage, enough to reconstruct the tree later.
	StrategyParentReference Strategy = "parent_reference"
)

func ParseStrategy(v string) (Strategy, error) {
	switch Strategy(v) {
	case StrategyHierarchical, StrategyPath, StrategyInducted, StrategyLevelPrefix, StrategyParentReference:
		return Strategy(v), nil
	default:
		return "", fmt.Errorf("unsupported strategy: %q", v)
	}
}

// SignificantAttribute marks an assembly node that the inducted strategy must
// keep even though it is a pass-through container.
const SignificantAttribute = "significant"
