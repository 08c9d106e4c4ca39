package scene

import (
	"fmt"
	"strings"

	"github.com/achilleasa/spheretrace/types"
)

// Size of an encoded material record.
const MaterialRecordSize = 32

type MaterialKind int32

const (
	Lambertian MaterialKind = iota
	Metal
	Dielectric
)

func (k MaterialKind) String() string {
	switch k {
	case Lambertian:
		return "lambertian"
	case Metal:
		return "metal"
	case Dielectric:
		return "dielectric"
	}
	return "unknown"
}

// Parse a material kind name.
func ParseMaterialKind(name string) (MaterialKind, error) {
	switch strings.ToLower(name) {
	case "lambertian", "diffuse":
		return Lambertian, nil
	case "metal":
		return Metal, nil
	case "dielectric", "glass":
		return Dielectric, nil
	}
	return Lambertian, fmt.Errorf("scene: unknown material kind %q", name)
}

// A surface material. Param holds the fuzz factor for metals and the index
// of refraction for dielectrics.
//
// Encoded layout (std140):
//
//	 0 int32 material id
//	 4 f32   param
//	 8 int32 kind
//	16 vec3  albedo
type Material struct {
	Id     int32
	Name   string
	Kind   MaterialKind
	Albedo types.Vec3
	Param  float32
}

// Write the material record into buf which must hold at least
// MaterialRecordSize bytes.
func (m *Material) Encode(buf []byte) {
	clear(buf[:MaterialRecordSize])
	putInt32(buf, 0, m.Id)
	putFloat32(buf, 4, m.Param)
	putInt32(buf, 8, int32(m.Kind))
	putVec3(buf, 16, m.Albedo)
}
