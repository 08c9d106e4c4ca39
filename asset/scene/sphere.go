package scene

import "github.com/achilleasa/spheretrace/types"

// Size of an encoded sphere record.
const SphereRecordSize = 32

// A sphere primitive.
//
// Encoded layout (std140):
//
//	 0 int32 material index
//	 4 f32   radius
//	 8 int32 sphere id
//	16 vec3  center
type Sphere struct {
	Id       int32
	Center   types.Vec3
	Radius   float32
	Material int32
}

func (s *Sphere) ID() int32 {
	return s.Id
}

func (s *Sphere) Kind() PrimitiveKind {
	return SpherePrimitive
}

// Get the sphere bounding box. Negative radii are treated as their absolute
// value.
func (s *Sphere) BBox() types.AABB {
	r := types.Vec3{s.Radius, s.Radius, s.Radius}
	return types.AABBFromPoints(s.Center.Sub(r), s.Center.Add(r))
}

func (s *Sphere) sealed() {}

// Write the sphere record into buf which must hold at least SphereRecordSize bytes.
func (s *Sphere) Encode(buf []byte) {
	clear(buf[:SphereRecordSize])
	putInt32(buf, 0, s.Material)
	putFloat32(buf, 4, s.Radius)
	putInt32(buf, 8, s.Id)
	putVec3(buf, 16, s.Center)
}

// Read a sphere record written by Encode.
func DecodeSphere(buf []byte) Sphere {
	return Sphere{
		Material: getInt32(buf, 0),
		Radius:   getFloat32(buf, 4),
		Id:       getInt32(buf, 8),
		Center:   getVec3(buf, 16),
	}
}
