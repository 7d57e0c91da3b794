package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/partstack/partstack/modules/bom/domain/assembly"
)

// DefaultPathSeparator joins ancestor names when the caller does not pick a
// separator.
const DefaultPathSeparator = "/"

// Flattener walks a forest under a selected strategy and emits one flattened
// item per kept node, in pre-order. It never merges items sharing a part
// number; aggregation is the rollup engine's job.
type Flattener struct {
	separator string
}

func NewFlattener(separator string) *Flattener {
	if separator == "" {
		separator = DefaultPathSeparator
	}
	return &Flattener{separator: separator}
}

func (f *Flattener) Flatten(forest *assembly.Forest, strategy assembly.Strategy) ([]assembly.FlattenedItem, error) {
	switch strategy {
	case assembly.StrategyHierarchical:
		return nil, fmt.Errorf("strategy %q returns the tree unchanged and is not a flattening", strategy)
	case assembly.StrategyPath:
		return f.flattenPath(forest), nil
	case assembly.StrategyInducted:
		return f.flattenInducted(forest), nil
	case assembly.StrategyLevelPrefix:
		return f.flattenLevelPrefix(forest), nil
	case assembly.StrategyParentReference:
		return f.flattenParentReference(forest), nil
	default:
		return nil, fmt.Errorf("unsupported strategy: %q", strategy)
	}
}

func (f *Flattener) flattenPath(forest *assembly.Forest) []assembly.FlattenedItem {
	out := make([]assembly.FlattenedItem, 0, forest.Len())
	ancestors := make([]string, 0, 8)

	var walk func(id int)
	walk = func(id int) {
		node := forest.Node(id)
		item := newFlattenedItem(node)
		item.AncestorNames = append([]string(nil), ancestors...)
		item.Lineage = strings.Join(ancestors, f.separator)
		out = append(out, item)

		ancestors = append(ancestors, node.Raw.DisplayName())
		for _, childID := range node.ChildrenIDs {
			walk(childID)
		}
		ancestors = ancestors[:len(ancestors)-1]
	}
	for _, rootID := range forest.Roots {
		walk(rootID)
	}
	return out
}

// flattenInducted keeps leaves, part-numbered nodes and nodes explicitly
// marked significant; maximal runs of pass-through assembly containers are
// collapsed out of the lineage.
func (f *Flattener) flattenInducted(forest *assembly.Forest) []assembly.FlattenedItem {
	out := make([]assembly.FlattenedItem, 0, forest.Len())
	keptAncestors := make([]string, 0, 8)

	keep := func(node *assembly.Node) bool {
		if node.IsLeaf() {
			return true
		}
		if !node.Raw.IsAssembly() {
			return true
		}
		return node.Raw.Attributes[assembly.SignificantAttribute] == "true"
	}

	var walk func(id int)
	walk = func(id int) {
		node := forest.Node(id)
		kept := keep(node)
		if kept {
			item := newFlattenedItem(node)
			item.AncestorNames = append([]string(nil), keptAncestors...)
			item.Lineage = strings.Join(keptAncestors, f.separator)
			out = append(out, item)
			keptAncestors = append(keptAncestors, node.Raw.DisplayName())
		}
		for _, childID := range node.ChildrenIDs {
			walk(childID)
		}
		if kept {
			keptAncestors = keptAncestors[:len(keptAncestors)-1]
		}
	}
	for _, rootID := range forest.Roots {
		walk(rootID)
	}
	return out
}

func (f *Flattener) flattenLevelPrefix(forest *assembly.Forest) []assembly.FlattenedItem {
	out := make([]assembly.FlattenedItem, 0, forest.Len())
	prefix := make([]string, 0, 8)

	var walk func(id, position int)
	walk = func(id, position int) {
		node := forest.Node(id)
		prefix = append(prefix, strconv.Itoa(position))

		item := newFlattenedItem(node)
		item.Lineage = strings.Join(prefix, ".")
		out = append(out, item)

		for i, childID := range node.ChildrenIDs {
			walk(childID, i+1)
		}
		prefix = prefix[:len(prefix)-1]
	}
	for i, rootID := range forest.Roots {
		walk(rootID, i+1)
	}
	return out
}

func (f *Flattener) flattenParentReference(forest *assembly.Forest) []assembly.FlattenedItem {
	out := make([]assembly.FlattenedItem, 0, forest.Len())
	forest.PreOrder(func(node *assembly.Node) {
		item := newFlattenedItem(node)
		if !node.IsRoot() {
			item.Lineage = forest.Node(node.ParentID).Raw.ExternalID
		}
		out = append(out, item)
	})
	return out
}

func newFlattenedItem(node *assembly.Node) assembly.FlattenedItem {
	attributes := make(map[string]string, len(node.Raw.Attributes))
	for k, v := range node.Raw.Attributes {
		attributes[k] = v
	}
	return assembly.FlattenedItem{
		SourceNodeID:      node.ID,
		ExternalID:        node.Raw.ExternalID,
		PartNumber:        strings.TrimSpace(node.Raw.PartNumber),
		Description:       strings.TrimSpace(node.Raw.Description),
		Depth:             node.Depth,
		EffectiveQuantity: node.PathQuantity,
		Attributes:        attributes,
	}
}
