package types

import (
	"fmt"
	"math"
)

// Axis indices understood by AABB.Axis.
const (
	XAxis = iota
	YAxis
	ZAxis
)

// AABB is an axis aligned bounding box stored as one interval per axis.
type AABB struct {
	X, Y, Z Interval
}

// The empty box; it is the identity element for Union.
var EmptyAABB = AABB{X: EmptyInterval, Y: EmptyInterval, Z: EmptyInterval}

// Create the minimal box that contains both points. The points can be any two
// opposite corners.
func AABBFromPoints(a, b Vec3) AABB {
	min := MinVec3(a, b)
	max := MaxVec3(a, b)
	return AABB{
		X: Interval{min[0], max[0]},
		Y: Interval{min[1], max[1]},
		Z: Interval{min[2], max[2]},
	}
}

// Create the smallest box containing both boxes.
func (b AABB) Union(other AABB) AABB {
	return AABB{
		X: b.X.Union(other.X),
		Y: b.Y.Union(other.Y),
		Z: b.Z.Union(other.Z),
	}
}

// Extend the box so that it also contains the box spanned by two points.
func (b AABB) UnionPoints(p0, p1 Vec3) AABB {
	return b.Union(AABBFromPoints(p0, p1))
}

// Get the interval for axis n (0=x, 1=y, 2=z). Out of range values select x.
func (b AABB) Axis(n int) Interval {
	switch n {
	case YAxis:
		return b.Y
	case ZAxis:
		return b.Z
	}
	return b.X
}

// Get the axis with the greatest extent. Ties are resolved in favor of the
// lowest axis index.
func (b AABB) LongestAxis() int {
	axis := XAxis
	if b.Y.Size() > b.Axis(axis).Size() {
		axis = YAxis
	}
	if b.Z.Size() > b.Axis(axis).Size() {
		axis = ZAxis
	}
	return axis
}

// Get the min corner.
func (b AABB) Min() Vec3 {
	return Vec3{b.X.Min, b.Y.Min, b.Z.Min}
}

// Get the max corner.
func (b AABB) Max() Vec3 {
	return Vec3{b.X.Max, b.Y.Max, b.Z.Max}
}

// Get the box center.
func (b AABB) Centroid() Vec3 {
	return b.Min().Add(b.Max()).Mul(0.5)
}

// Returns true if other lies completely inside this box.
func (b AABB) ContainsBox(other AABB) bool {
	return b.X.ContainsInterval(other.X) &&
		b.Y.ContainsInterval(other.Y) &&
		b.Z.ContainsInterval(other.Z)
}

// Returns true if the point lies inside the box.
func (b AABB) ContainsPoint(p Vec3) bool {
	return b.X.Contains(p[0]) && b.Y.Contains(p[1]) && b.Z.Contains(p[2])
}

// Returns true if all bounds are finite numbers.
func (b AABB) IsFinite() bool {
	for _, v := range [6]float32{b.X.Min, b.X.Max, b.Y.Min, b.Y.Max, b.Z.Min, b.Z.Max} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Test whether a ray intersects the box within [tMin, tMax] using the slab
// method. invDir holds the reciprocal of each ray direction component.
func (b AABB) Hit(origin, invDir Vec3, tMin, tMax float32) bool {
	for axis := XAxis; axis <= ZAxis; axis++ {
		iv := b.Axis(axis)
		t0 := (iv.Min - origin[axis]) * invDir[axis]
		t1 := (iv.Max - origin[axis]) * invDir[axis]
		if invDir[axis] < 0 {
			t0, t1 = t1, t0
		}
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMax < tMin {
			return false
		}
	}
	return true
}

func (b AABB) String() string {
	return fmt.Sprintf("[%g, %g]x[%g, %g]x[%g, %g]", b.X.Min, b.X.Max, b.Y.Min, b.Y.Max, b.Z.Min, b.Z.Max)
}
