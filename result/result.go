// Package result defines the result nodes flowing through query iterators.
//
// Nodes are pooled. Producers reuse a scratch node across reads and
// overwrite it on every advancement; a consumer that wants to retain a
// node beyond the next read must take an independent copy via Clone.
// Ownership of a cloned node is explicit: whoever holds it calls Release
// exactly once when done.
package result

import (
	"sync"

	"github.com/vexiter/vexiter/core"
)

// Kind discriminates the node variants.
type Kind uint8

const (
	// KindDistance is a vector-distance leaf produced by the vector index.
	KindDistance Kind = iota

	// KindFilter is a leaf produced by a filter iterator at a given DocID.
	KindFilter

	// KindHybrid is an aggregate combining a distance leaf and a filter
	// leaf for the same DocID.
	KindHybrid
)

// String returns a string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindDistance:
		return "Distance"
	case KindFilter:
		return "Filter"
	case KindHybrid:
		return "Hybrid"
	default:
		return "Unknown"
	}
}

// Node is a single result in a query plan tree.
type Node struct {
	// DocID is the document this result refers to.
	DocID core.DocID

	// Kind discriminates leaf/aggregate variants.
	Kind Kind

	// Distance is the vector distance. Valid for KindDistance only.
	Distance float32

	// ScoreField tags which vector field produced Distance, for
	// consumers that combine several vector clauses in one query.
	ScoreField string

	// Children holds the child results of a KindHybrid aggregate.
	Children []*Node
}

var nodePool = sync.Pool{
	New: func() any { return &Node{} },
}

// NewDistance returns a pooled vector-distance leaf tagged with scoreField.
func NewDistance(scoreField string) *Node {
	n := nodePool.Get().(*Node)
	n.DocID = 0
	n.Kind = KindDistance
	n.Distance = 0
	n.ScoreField = scoreField
	n.Children = n.Children[:0]

	return n
}

// NewFilter returns a pooled filter leaf.
func NewFilter() *Node {
	n := nodePool.Get().(*Node)
	n.DocID = 0
	n.Kind = KindFilter
	n.Distance = 0
	n.ScoreField = ""
	n.Children = n.Children[:0]

	return n
}

// NewHybrid returns a pooled, empty aggregate node.
func NewHybrid() *Node {
	n := nodePool.Get().(*Node)
	n.DocID = 0
	n.Kind = KindHybrid
	n.Distance = 0
	n.ScoreField = ""
	n.Children = n.Children[:0]

	return n
}

// AddChild appends a child to an aggregate and adopts the child's DocID
// as the aggregate's DocID.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
	n.DocID = child.DocID
}

// VectorLeaf returns the vector-distance child of an aggregate, or the
// node itself when it is a distance leaf.
func (n *Node) VectorLeaf() *Node {
	if n.Kind == KindHybrid && len(n.Children) > 0 {
		return n.Children[0]
	}

	return n
}

// Reset detaches all children and zeroes the DocID. The children are NOT
// released: aggregates built from scratch leaves do not own them.
func (n *Node) Reset() {
	n.Children = n.Children[:0]
	n.DocID = 0
}

// Clone returns an independent deep copy allocated from the pool. The
// copy shares no memory with the receiver; in particular, cloning an
// aggregate built from scratch leaves yields children that survive the
// next overwrite of those leaves.
func (n *Node) Clone() *Node {
	c := nodePool.Get().(*Node)
	c.DocID = n.DocID
	c.Kind = n.Kind
	c.Distance = n.Distance
	c.ScoreField = n.ScoreField
	c.Children = c.Children[:0]

	for _, child := range n.Children {
		c.Children = append(c.Children, child.Clone())
	}

	return c
}

// Release returns the node and all children it owns to the pool.
// It must be called exactly once per owned node; releasing a node twice,
// or using it after release, is a bug.
func (n *Node) Release() {
	for _, child := range n.Children {
		child.Release()
	}
	n.Children = n.Children[:0]
	n.ScoreField = ""
	nodePool.Put(n)
}
