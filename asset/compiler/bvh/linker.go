package bvh

import "github.com/achilleasa/spheretrace/types"

// The link value that ends a stackless traversal.
const Terminate int32 = -1

// A BVH node with the successor links used by stackless traversal.
//
// When the node bbox is hit, traversal continues at HitID; when it is
// missed traversal continues at MissID. For internal nodes HitID points to
// the left child and MissID to whatever follows the node's subtree. Leaves
// have no children so both links point to the node that follows the leaf.
type LinkedNode struct {
	ID     int32
	IsLeaf bool

	// The id of the primitive referenced by a leaf; -1 for internal nodes.
	ObjectIndex int32

	HitID  int32
	MissID int32

	// Child node ids; -1 for leaves. They are not part of the encoded record
	// and are recovered from the links when decoding.
	Left, Right int32

	BBox types.AABB
}

// Assign breadth-first ids to all tree nodes and compute the hit/miss links
// for stackless traversal. The returned list is indexed by node id and the
// root always receives id 0.
func Link(tree *Tree) []LinkedNode {
	// Assign ids in breadth-first order
	ids := make([]int32, len(tree.Nodes))
	queue := make([]int32, 1, len(tree.Nodes))
	for head := 0; head < len(queue); head++ {
		index := queue[head]
		ids[index] = int32(head)
		if node := &tree.Nodes[index]; !node.IsLeaf() {
			queue = append(queue, node.Left, node.Right)
		}
	}

	linked := make([]LinkedNode, len(tree.Nodes))
	var link func(index, missID int32)
	link = func(index, missID int32) {
		node := &tree.Nodes[index]
		out := &linked[ids[index]]
		out.ID = ids[index]
		out.BBox = node.BBox
		out.MissID = missID

		if node.IsLeaf() {
			out.IsLeaf = true
			out.ObjectIndex = tree.Item(node).ID()
			out.HitID = missID
			out.Left, out.Right = -1, -1
			return
		}

		out.ObjectIndex = -1
		out.Left, out.Right = ids[node.Left], ids[node.Right]
		out.HitID = out.Left

		// Missing the left subtree moves on to the right sibling; missing the
		// right subtree moves on to whatever follows this node.
		link(node.Left, out.Right)
		link(node.Right, missID)
	}
	link(0, Terminate)

	return linked
}
