package input

import "github.com/achilleasa/spheretrace/types"

// A material as declared by a scene file.
type Material struct {
	Name string

	// Material kind name (lambertian, metal, dielectric).
	Kind string

	// Diffuse/Albedo color.
	Kd types.Vec3

	// Metal fuzz or dielectric index of refraction.
	Param float32

	// True if material is referenced by scene geometry.
	Used bool
}

// A sphere that references its material by name.
type Sphere struct {
	Center   types.Vec3
	Radius   float32
	Material string
}

type Camera struct {
	Eye  types.Vec3
	Look types.Vec3
	Up   types.Vec3
	FOV  float32
}

// A parsed scene prior to compilation.
type Scene struct {
	// The scene camera; nil if the scene file does not define one.
	Camera *Camera

	Materials []*Material
	Spheres   []*Sphere
}

// Create a new empty scene.
func NewScene() *Scene {
	return &Scene{
		Materials: make([]*Material, 0),
		Spheres:   make([]*Sphere, 0),
	}
}

// Lookup material by name.
func (sc *Scene) Material(name string) *Material {
	for _, mat := range sc.Materials {
		if mat.Name == name {
			return mat
		}
	}
	return nil
}
