package scene

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Size of an encoded BVH node record. Kept here so that scene statistics can
// report BVH sizes without importing the compiler.
const bvhRecordSize = 64

// A scene is a collection of spheres and the materials they reference.
type Scene struct {
	Camera    *Camera
	Materials []Material
	Spheres   []Sphere

	// Encoded BVH node records generated by the scene compiler.
	BvhData []byte
}

// Get the number of encoded BVH node records.
func (sc *Scene) BvhNodeCount() int {
	return len(sc.BvhData) / bvhRecordSize
}

// Add a material and return its id. Material ids are assigned sequentially.
func (sc *Scene) AddMaterial(mat Material) int32 {
	mat.Id = int32(len(sc.Materials))
	sc.Materials = append(sc.Materials, mat)
	return mat.Id
}

// Find a material by name.
func (sc *Scene) MaterialByName(name string) (int32, bool) {
	for _, mat := range sc.Materials {
		if mat.Name == name {
			return mat.Id, true
		}
	}
	return -1, false
}

// Add a sphere and return its id. Sphere ids are assigned sequentially and
// match the sphere's index in the sphere list.
func (sc *Scene) AddSphere(sphere Sphere) int32 {
	sphere.Id = int32(len(sc.Spheres))
	sc.Spheres = append(sc.Spheres, sphere)
	return sphere.Id
}

// Reassign sphere and material ids so that they match their list index.
func (sc *Scene) AssignIds() {
	for idx := range sc.Materials {
		sc.Materials[idx].Id = int32(idx)
	}
	for idx := range sc.Spheres {
		sc.Spheres[idx].Id = int32(idx)
	}
}

// Get the spheres as a list of boundables.
func (sc *Scene) Boundables() []Boundable {
	out := make([]Boundable, len(sc.Spheres))
	for idx := range sc.Spheres {
		out[idx] = &sc.Spheres[idx]
	}
	return out
}

// Ensure that every sphere references a valid material.
func (sc *Scene) Validate() error {
	for _, sphere := range sc.Spheres {
		if sphere.Material < 0 || int(sphere.Material) >= len(sc.Materials) {
			return fmt.Errorf("scene: sphere %d references unknown material %d", sphere.Id, sphere.Material)
		}
	}
	return nil
}

// Pack all materials into a contiguous std140 buffer.
func (sc *Scene) EncodeMaterials() []byte {
	buf := make([]byte, len(sc.Materials)*MaterialRecordSize)
	for idx := range sc.Materials {
		sc.Materials[idx].Encode(buf[idx*MaterialRecordSize:])
	}
	return buf
}

// Pack all spheres into a contiguous std140 buffer. Sphere records are stored
// at their id so the shader can look them up from BVH leaf records.
func (sc *Scene) EncodeSpheres() ([]byte, error) {
	buf := make([]byte, len(sc.Spheres)*SphereRecordSize)
	for idx := range sc.Spheres {
		id := int(sc.Spheres[idx].Id)
		if id < 0 || id >= len(sc.Spheres) {
			return nil, fmt.Errorf("scene: sphere id %d out of range [0, %d)", id, len(sc.Spheres))
		}
		sc.Spheres[idx].Encode(buf[id*SphereRecordSize:])
	}
	return buf, nil
}

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Count", "Size"})
	table.Append([]string{"Spheres", fmt.Sprint(len(sc.Spheres)), fmtSize(len(sc.Spheres) * SphereRecordSize)})
	table.Append([]string{"Materials", fmt.Sprint(len(sc.Materials)), fmtSize(len(sc.Materials) * MaterialRecordSize)})
	table.Append([]string{"BVH nodes", fmt.Sprint(sc.BvhNodeCount()), fmtSize(len(sc.BvhData))})
	table.Append([]string{"Camera", "1", fmtSize(CameraRecordSize)})

	total := len(sc.Spheres)*SphereRecordSize + len(sc.Materials)*MaterialRecordSize + len(sc.BvhData) + CameraRecordSize
	table.SetFooter([]string{"Total", " ", strings.TrimLeft(fmtSize(total), " ")})

	table.Render()
	return buf.String()
}

// Format a byte count with the appropriate byte/kb/mb unit.
func fmtSize(totalBytes int) string {
	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", totalBytes)
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", float32(totalBytes)/1e3)
	}
	return fmt.Sprintf("%5.1f mb", float32(totalBytes)/1e6)
}
