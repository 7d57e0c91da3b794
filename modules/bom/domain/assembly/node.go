package assembly

import "github.com/shopspring/decimal"

// NoParent marks a root node's ParentID.
const NoParent = -1

// Node is one entry in the assembly arena. Parent/children relations are
// stored as arena indices only; nodes never hold references to each other.
type Node struct {
	ID           int
	Raw          RawItem
	ParentID     int
	ChildrenIDs  []int
	Depth        int
	PathQuantity decimal.Decimal
}

func (n *Node) IsRoot() bool { return n.ParentID == NoParent }

func (n *Node) IsLeaf() bool { return len(n.ChildrenIDs) == 0 }

// Forest is the arena of assembly nodes produced by the graph builder. It is
// immutable once built; all downstream stages read it without locking.
type Forest struct {
	Nodes []Node
	Roots []int
}

func (f *Forest) Len() int { return len(f.Nodes) }

func (f *Forest) Node(id int) *Node {
	if id < 0 || id >= len(f.Nodes) {
		return nil
	}
	return &f.Nodes[id]
}

// PreOrder visits every node parent-before-children, roots in insertion
// order. The visit order is the defining contract for flattened output
// ordering.
func (f *Forest) PreOrder(visit func(n *Node)) {
	var walk func(id int)
	walk = func(id int) {
		node := &f.Nodes[id]
		visit(node)
		for _, childID := range node.ChildrenIDs {
			walk(childID)
		}
	}
	for _, rootID := range f.Roots {
		walk(rootID)
	}
}
