package scene

import "github.com/achilleasa/spheretrace/types"

// The kind of a boundable primitive. The shader branches on the same set of
// values so the list is closed.
type PrimitiveKind int32

const (
	SpherePrimitive PrimitiveKind = iota
)

func (k PrimitiveKind) String() string {
	switch k {
	case SpherePrimitive:
		return "sphere"
	}
	return "unknown"
}

// The Boundable interface is implemented by all primitives that can be
// partitioned by the BVH builder. It is sealed: only types in this package
// implement it.
type Boundable interface {
	// Get the primitive bounding box.
	BBox() types.AABB

	// Get the scene-unique primitive id. Leaf records reference primitives
	// by this id so it must be assigned before building a BVH.
	ID() int32

	// Get the primitive kind.
	Kind() PrimitiveKind

	sealed()
}
