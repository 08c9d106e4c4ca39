package bvh

import (
	"fmt"

	"github.com/achilleasa/spheretrace/types"
)

// A HitFunc reports whether traversal should enter the bbox of a node.
type HitFunc func(node *LinkedNode) bool

// A VisitFunc is invoked for every leaf reached during traversal.
type VisitFunc func(leaf *LinkedNode)

// A HitFunc that enters every node.
func HitAll(*LinkedNode) bool {
	return true
}

// Create a HitFunc that tests node bboxes against a ray segment.
func RayHitFunc(origin, dir types.Vec3, tMin, tMax float32) HitFunc {
	invDir := types.Vec3{1 / dir[0], 1 / dir[1], 1 / dir[2]}
	return func(node *LinkedNode) bool {
		return node.BBox.Hit(origin, invDir, tMin, tMax)
	}
}

// Traverse a linked node list without a stack, the same way the fragment
// shader does. Leaves are always processed when reached; their bbox is not
// tested since the primitive test supersedes it.
//
// Walk returns ErrMalformedLinks if a link points outside the node list or
// the walk takes more steps than there are nodes, which can only happen if
// the links contain a cycle.
func Walk(nodes []LinkedNode, hit HitFunc, visit VisitFunc) error {
	if len(nodes) == 0 {
		return nil
	}

	cur := int32(0)
	for steps := 0; cur != Terminate; steps++ {
		if cur < 0 || int(cur) >= len(nodes) {
			return fmt.Errorf("%w: link to node %d outside [0, %d)", ErrMalformedLinks, cur, len(nodes))
		}
		if steps >= len(nodes) {
			return fmt.Errorf("%w: traversal did not terminate after %d steps", ErrMalformedLinks, steps)
		}

		node := &nodes[cur]
		switch {
		case node.IsLeaf:
			visit(node)
			cur = node.HitID
		case hit(node):
			cur = node.HitID
		default:
			cur = node.MissID
		}
	}
	return nil
}

// Traverse a linked node list recursively using the child ids, pruning
// subtrees whose bbox is missed. It visits the same leaves in the same order
// as Walk and serves as its reference implementation.
func WalkRecursive(nodes []LinkedNode, hit HitFunc, visit VisitFunc) {
	if len(nodes) == 0 {
		return
	}

	var walk func(id int32)
	walk = func(id int32) {
		node := &nodes[id]
		if node.IsLeaf {
			visit(node)
			return
		}
		if !hit(node) {
			return
		}
		walk(node.Left)
		walk(node.Right)
	}
	walk(0)
}

// Check that a linked node list satisfies the invariants the traversal
// relies on: ids match list indices, links are in range, leaves have equal
// hit and miss links, internal nodes enclose their children and an all-hit
// walk reaches every leaf exactly once.
func Validate(nodes []LinkedNode) error {
	inRange := func(id int32) bool {
		return id == Terminate || (id >= 0 && int(id) < len(nodes))
	}

	leafCount := 0
	for idx := range nodes {
		node := &nodes[idx]
		if node.ID != int32(idx) {
			return fmt.Errorf("%w: node at index %d has id %d", ErrMalformedLinks, idx, node.ID)
		}
		if !inRange(node.HitID) || !inRange(node.MissID) {
			return fmt.Errorf("%w: node %d links (%d, %d) out of range", ErrMalformedLinks, idx, node.HitID, node.MissID)
		}
		if node.IsLeaf {
			leafCount++
			if node.HitID != node.MissID {
				return fmt.Errorf("%w: leaf %d has different hit (%d) and miss (%d) links", ErrMalformedLinks, idx, node.HitID, node.MissID)
			}
			continue
		}
		if node.Left < 0 || int(node.Left) >= len(nodes) || node.Right < 0 || int(node.Right) >= len(nodes) {
			return fmt.Errorf("%w: internal node %d has invalid children (%d, %d)", ErrMalformedLinks, idx, node.Left, node.Right)
		}
		if node.HitID != node.Left {
			return fmt.Errorf("%w: internal node %d hit link %d does not point to its left child %d", ErrMalformedLinks, idx, node.HitID, node.Left)
		}
		if !node.BBox.ContainsBox(nodes[node.Left].BBox) || !node.BBox.ContainsBox(nodes[node.Right].BBox) {
			return fmt.Errorf("%w: node %d bbox does not contain its children", ErrMalformedLinks, idx)
		}
	}

	seen := make(map[int32]bool, leafCount)
	var dupErr error
	err := Walk(nodes, HitAll, func(leaf *LinkedNode) {
		if seen[leaf.ID] && dupErr == nil {
			dupErr = fmt.Errorf("%w: leaf %d visited twice", ErrMalformedLinks, leaf.ID)
		}
		seen[leaf.ID] = true
	})
	if err != nil {
		return err
	}
	if dupErr != nil {
		return dupErr
	}
	if len(seen) != leafCount {
		return fmt.Errorf("%w: walk reached %d of %d leaves", ErrMalformedLinks, len(seen), leafCount)
	}
	return nil
}

// Validate the node list and ensure that leaf records reference each object
// in [0, numObjects) exactly once.
func ValidateLeaves(nodes []LinkedNode, numObjects int) error {
	if err := Validate(nodes); err != nil {
		return err
	}

	seen := make([]bool, numObjects)
	leafs := 0
	for idx := range nodes {
		node := &nodes[idx]
		if !node.IsLeaf {
			continue
		}
		leafs++
		if node.ObjectIndex < 0 || int(node.ObjectIndex) >= numObjects {
			return fmt.Errorf("%w: leaf %d references object %d outside [0, %d)", ErrMalformedLinks, idx, node.ObjectIndex, numObjects)
		}
		if seen[node.ObjectIndex] {
			return fmt.Errorf("%w: object %d referenced by more than one leaf", ErrMalformedLinks, node.ObjectIndex)
		}
		seen[node.ObjectIndex] = true
	}

	if leafs != numObjects {
		return fmt.Errorf("%w: %d leafs for %d objects", ErrMalformedLinks, leafs, numObjects)
	}
	return nil
}
