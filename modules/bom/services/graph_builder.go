package services

import (
	"fmt"
	"sort"

	"github.com/partstack/partstack/modules/bom/domain/assembly"
)

// BuildInput carries one extraction run's raw items plus the optional
// extractor-supplied hints. DeclaredRoots lists external ids whose unresolved
// parents are accepted (the item becomes a root instead of failing the run).
// HierarchyDepth and ParentChildMap are cross-checked against the built
// forest but never trusted for construction.
type BuildInput struct {
	Items          []assembly.RawItem
	DeclaredRoots  []string
	HierarchyDepth int
	ParentChildMap map[string][]string
}

// GraphBuilder turns a flat list of raw extracted items into an arena-backed
// forest, rejecting duplicate ids, unresolved parents and cycles. No partial
// forest is ever returned.
type GraphBuilder struct{}

func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{}
}

func (b *GraphBuilder) Build(input BuildInput) (*assembly.Forest, []string, error) {
	forest := &assembly.Forest{
		Nodes: make([]assembly.Node, 0, len(input.Items)),
	}

	// Pass 1: insert every item into the arena keyed by external id.
	indexByExternalID := make(map[string]int, len(input.Items))
	for _, item := range input.Items {
		if _, ok := indexByExternalID[item.ExternalID]; ok {
			return nil, nil, &assembly.DuplicateExternalIDError{ExternalID: item.ExternalID}
		}
		if item.Quantity().Sign() <= 0 {
			return nil, nil, &assembly.InvalidQuantityError{ExternalID: item.ExternalID, Quantity: item.QuantityPerParent}
		}
		id := len(forest.Nodes)
		forest.Nodes = append(forest.Nodes, assembly.Node{
			ID:       id,
			Raw:      item,
			ParentID: assembly.NoParent,
		})
		indexByExternalID[item.ExternalID] = id
	}

	declaredRoots := make(map[string]struct{}, len(input.DeclaredRoots))
	for _, externalID := range input.DeclaredRoots {
		declaredRoots[externalID] = struct{}{}
	}

	// Pass 2: resolve parent references and collect roots in input order.
	for id := range forest.Nodes {
		node := &forest.Nodes[id]
		parentRef := node.Raw.ParentExternalID
		if parentRef == nil || *parentRef == "" {
			forest.Roots = append(forest.Roots, id)
			continue
		}
		parentID, ok := indexByExternalID[*parentRef]
		if !ok {
			if _, declared := declaredRoots[node.Raw.ExternalID]; declared {
				forest.Roots = append(forest.Roots, id)
				continue
			}
			return nil, nil, &assembly.UnresolvedParentError{
				ChildExternalID:  node.Raw.ExternalID,
				ParentExternalID: *parentRef,
			}
		}
		node.ParentID = parentID
		forest.Nodes[parentID].ChildrenIDs = append(forest.Nodes[parentID].ChildrenIDs, id)
	}

	if err := b.traverse(forest); err != nil {
		return nil, nil, err
	}

	warnings := b.crossCheck(forest, input)
	return forest, warnings, nil
}

// traverse runs a depth-first walk from every root, accumulating depth and
// path quantity and failing on any path that revisits its own ancestor. The
// on-stack marker is per traversal, not a global visited set: sharing a
// subtree between parents is multiplicity, not a cycle.
func (b *GraphBuilder) traverse(forest *assembly.Forest) error {
	visited := make([]bool, len(forest.Nodes))
	onStack := make([]bool, len(forest.Nodes))

	var walk func(id int, path []string) error
	walk = func(id int, path []string) error {
		if onStack[id] {
			return &assembly.CycleError{Path: append(path, forest.Nodes[id].Raw.ExternalID)}
		}
		onStack[id] = true
		visited[id] = true
		node := &forest.Nodes[id]

		if node.IsRoot() {
			node.Depth = 0
			node.PathQuantity = node.Raw.Quantity()
		} else {
			parent := &forest.Nodes[node.ParentID]
			node.Depth = parent.Depth + 1
			node.PathQuantity = parent.PathQuantity.Mul(node.Raw.Quantity())
		}

		path = append(path, node.Raw.ExternalID)
		for _, childID := range node.ChildrenIDs {
			if err := walk(childID, path); err != nil {
				return err
			}
		}
		onStack[id] = false
		return nil
	}

	for _, rootID := range forest.Roots {
		if err := walk(rootID, nil); err != nil {
			return err
		}
	}

	// Nodes unreachable from any root sit on a parent loop that has no way
	// in: every one of them has a parent, so following parents from any of
	// them must revisit a node. Surface that loop instead of hanging on to a
	// partial forest.
	for id := range forest.Nodes {
		if !visited[id] {
			return b.orphanCycle(forest, id)
		}
	}
	return nil
}

func (b *GraphBuilder) orphanCycle(forest *assembly.Forest, startID int) error {
	seen := make(map[int]int)
	path := make([]string, 0, 8)
	id := startID
	for {
		if at, ok := seen[id]; ok {
			cycle := append(path[at:], forest.Nodes[id].Raw.ExternalID)
			return &assembly.CycleError{Path: cycle}
		}
		seen[id] = len(path)
		path = append(path, forest.Nodes[id].Raw.ExternalID)
		id = forest.Nodes[id].ParentID
	}
}

// crossCheck compares the built forest against extractor-supplied hints and
// reports mismatches as warnings. The builder output is authoritative.
func (b *GraphBuilder) crossCheck(forest *assembly.Forest, input BuildInput) []string {
	var warnings []string

	if input.HierarchyDepth > 0 {
		maxDepth := 0
		for id := range forest.Nodes {
			if d := forest.Nodes[id].Depth + 1; d > maxDepth {
				maxDepth = d
			}
		}
		if maxDepth != input.HierarchyDepth {
			warnings = append(warnings, fmt.Sprintf(
				"extractor reported hierarchy depth %d but built forest has depth %d",
				input.HierarchyDepth, maxDepth,
			))
		}
	}

	if len(input.ParentChildMap) > 0 {
		indexByExternalID := make(map[string]int, len(forest.Nodes))
		for id := range forest.Nodes {
			indexByExternalID[forest.Nodes[id].Raw.ExternalID] = id
		}
		parents := make([]string, 0, len(input.ParentChildMap))
		for parent := range input.ParentChildMap {
			parents = append(parents, parent)
		}
		sort.Strings(parents)
		for _, parent := range parents {
			parentID, ok := indexByExternalID[parent]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("extractor parent/child map names unknown parent %q", parent))
				continue
			}
			built := make(map[string]struct{}, len(forest.Nodes[parentID].ChildrenIDs))
			for _, childID := range forest.Nodes[parentID].ChildrenIDs {
				built[forest.Nodes[childID].Raw.ExternalID] = struct{}{}
			}
			for _, child := range input.ParentChildMap[parent] {
				if _, ok := built[child]; !ok {
					warnings = append(warnings, fmt.Sprintf(
						"extractor parent/child map lists %q under %q but raw items do not",
						child, parent,
					))
				}
			}
		}
	}

	return warnings
}
