package bvh

import (
	"time"

	"github.com/achilleasa/spheretrace/asset/scene"
	"github.com/achilleasa/spheretrace/types"
)

// A BVH node stored in the builder arena. Leaves have no children (Left and
// Right are -1) and Object is an index into Tree.Items. Internal nodes
// have Object set to -1 and a bbox equal to the union of their children.
type Node struct {
	BBox types.AABB

	Left, Right int32
	Object      int32
}

// Returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Left < 0
}

// Add offset to indices of child nodes.
func (n *Node) offsetChildNodes(offset int32) {
	// Ignore leafs
	if n.IsLeaf() {
		return
	}

	n.Left += offset
	n.Right += offset
}

type Stats struct {
	Nodes     int
	Leafs     int
	MaxDepth  int
	BuildTime time.Duration
}

// A BVH tree. Nodes are laid out depth-first: each internal node is followed
// by its left subtree and then its right subtree. The root is always node 0.
type Tree struct {
	Nodes []Node

	// The partitioned items in leaf order. Leaf nodes reference entries of
	// this list.
	Items []scene.Boundable

	Stats Stats
}

// Get the root node bounding box.
func (t *Tree) BBox() types.AABB {
	return t.Nodes[0].BBox
}

// Get the item referenced by a leaf node.
func (t *Tree) Item(n *Node) scene.Boundable {
	return t.Items[n.Object]
}

// Walk the tree and collect node statistics.
func (t *Tree) collectStats() {
	t.Stats.Nodes = len(t.Nodes)
	t.Stats.Leafs = 0
	t.Stats.MaxDepth = 0

	var visit func(index int32, depth int)
	visit = func(index int32, depth int) {
		if depth > t.Stats.MaxDepth {
			t.Stats.MaxDepth = depth
		}
		node := &t.Nodes[index]
		if node.IsLeaf() {
			t.Stats.Leafs++
			return
		}
		visit(node.Left, depth+1)
		visit(node.Right, depth+1)
	}
	visit(0, 0)
}
