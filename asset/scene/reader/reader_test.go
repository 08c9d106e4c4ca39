package reader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/spheretrace/asset/compiler"
	"github.com/achilleasa/spheretrace/asset/compiler/bvh"
	"github.com/achilleasa/spheretrace/asset/scene"
	"github.com/achilleasa/spheretrace/asset/scene/writer"
	"github.com/achilleasa/spheretrace/types"
)

func writeFiles(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, payload := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(payload), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

const testMaterials = `
# material library
newmtl red
kind diffuse
Kd 1 0 0

newmtl glass
kind dielectric
param 1.5
`

const testScene = `
mtllib materials.mtl

camera_eye 0 2 10
camera_look 0 0 0
camera_fov 60

usemtl red
sphere -2 0 0 1
sphere 2 0 0 1

usemtl glass
sphere 0 0 -2 0.5
`

func TestReadTextScene(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"materials.mtl": testMaterials,
		"scene.scn":     testScene,
	})

	sc, err := ReadScene(filepath.Join(dir, "scene.scn"), bvh.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	if len(sc.Spheres) != 3 {
		t.Fatalf("expected 3 spheres; got %d", len(sc.Spheres))
	}
	if len(sc.Materials) != 2 {
		t.Fatalf("expected 2 materials; got %d", len(sc.Materials))
	}
	if sc.Materials[1].Kind != scene.Dielectric || sc.Materials[1].Param != 1.5 {
		t.Fatalf("expected second material to be glass; got %+v", sc.Materials[1])
	}
	if sc.Spheres[2].Material != 1 || sc.Spheres[2].Radius != 0.5 {
		t.Fatalf("expected last sphere to use the glass material; got %+v", sc.Spheres[2])
	}
	if exp := (types.Vec3{0, 2, 10}); sc.Camera.Position != exp || sc.Camera.FOV != 60 {
		t.Fatalf("expected camera at %v with 60 deg fov; got %+v", exp, sc.Camera)
	}
	if sc.BvhNodeCount() != 5 {
		t.Fatalf("expected 5 BVH records; got %d", sc.BvhNodeCount())
	}
}

func TestReadTextSceneDefaultMaterial(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"scene.txt": "sphere 0 0 0 1\nfoo bar\n",
	})

	sc, err := ReadScene(filepath.Join(dir, "scene.txt"), bvh.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.Materials) != 1 || sc.Materials[0].Name != compiler.DefaultMaterialName {
		t.Fatalf("expected the default material to be generated; got %+v", sc.Materials)
	}
	if sc.BvhNodeCount() != 1 {
		t.Fatalf("expected a single leaf record; got %d", sc.BvhNodeCount())
	}
}

func TestReadTextSceneErrors(t *testing.T) {
	specs := []struct {
		payload string
		expErr  string
	}{
		{"usemtl missing\n", `[%s: 1] error: undefined material with name "missing"`},
		{"\n\nsphere 0 0 0\n", `[%s: 3] error: unsupported syntax for "sphere"; expected 4 arguments; got 3`},
		{"sphere 0 0 0 -1\n", `[%s: 1] error: sphere radius must be positive`},
		{"Kd 1 1 1\n", `[%s: 1] error: got "Kd" without a "newmtl"`},
		{"newmtl a\nnewmtl a\n", `[%s: 2] error: material "a" already defined`},
		{"newmtl a\nkind plasma\n", `[%s: 2] error: scene: unknown material kind "plasma"`},
		{"camera_eye 0 1\n", `[%s: 1] error: unsupported syntax for "camera_eye"; expected 3 arguments; got 2`},
	}

	for specIndex, spec := range specs {
		dir := writeFiles(t, map[string]string{"scene.scn": spec.payload})
		filename := filepath.Join(dir, "scene.scn")

		_, err := ReadScene(filename, bvh.DefaultOptions())
		expErr := strings.Replace(spec.expErr, "%s", filename, 1)
		if err == nil || !strings.HasPrefix(err.Error(), expErr) {
			t.Errorf("[spec %d] expected error starting with %q; got %v", specIndex, expErr, err)
		}
	}
}

func TestReadTextSceneIncludeErrorStack(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"scene.scn":    "call geometry.scn\n",
		"geometry.scn": "sphere 0 0 0 1\nsphere 0 0 zero 1\n",
	})

	_, err := ReadScene(filepath.Join(dir, "scene.scn"), bvh.DefaultOptions())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "geometry.scn: 2] error") {
		t.Fatalf("expected error to reference the included file; got %v", err)
	}
	if !strings.Contains(err.Error(), "scene.scn:1 [call]") {
		t.Fatalf("expected error stack to reference the call site; got %v", err)
	}
}

func TestReadTextSceneIncludeCycle(t *testing.T) {
	specs := []struct {
		files map[string]string
		entry string
	}{
		{map[string]string{"self.scn": "sphere 0 0 0 1\ncall self.scn\n"}, "self.scn"},
		{map[string]string{
			"a.scn": "mtllib b.mtl\n",
			"b.mtl": "newmtl red\ncall a.scn\n",
		}, "a.scn"},
	}

	for specIndex, spec := range specs {
		dir := writeFiles(t, spec.files)
		_, err := ReadScene(filepath.Join(dir, spec.entry), bvh.DefaultOptions())
		if err == nil || !strings.Contains(err.Error(), "include cycle") {
			t.Errorf("[spec %d] expected include cycle error; got %v", specIndex, err)
		}
	}
}

func TestReadCompiledScene(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"materials.mtl": testMaterials,
		"scene.scn":     testScene,
	})

	sc, err := ReadScene(filepath.Join(dir, "scene.scn"), bvh.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	zipFile := filepath.Join(dir, "scene.zip")
	if err = writer.WriteScene(sc, zipFile); err != nil {
		t.Fatal(err)
	}

	loaded, err := ReadScene(zipFile, bvh.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	if len(loaded.Spheres) != len(sc.Spheres) || len(loaded.Materials) != len(sc.Materials) {
		t.Fatalf("expected %d spheres and %d materials; got %d and %d", len(sc.Spheres), len(sc.Materials), len(loaded.Spheres), len(loaded.Materials))
	}
	for idx := range sc.Spheres {
		if loaded.Spheres[idx] != sc.Spheres[idx] {
			t.Fatalf("expected sphere %d to be %+v; got %+v", idx, sc.Spheres[idx], loaded.Spheres[idx])
		}
	}
	if string(loaded.BvhData) != string(sc.BvhData) {
		t.Fatal("expected loaded BVH data to match the compiled scene")
	}
	if *loaded.Camera != *sc.Camera {
		t.Fatalf("expected camera %+v; got %+v", sc.Camera, loaded.Camera)
	}
}

func TestReadCompiledSceneCorruptBvh(t *testing.T) {
	dir := writeFiles(t, map[string]string{"scene.scn": testScene, "materials.mtl": testMaterials})
	sc, err := ReadScene(filepath.Join(dir, "scene.scn"), bvh.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	// Drop the last record
	sc.BvhData = sc.BvhData[:len(sc.BvhData)-bvh.RecordSize]
	zipFile := filepath.Join(dir, "scene.zip")
	if err = writer.WriteScene(sc, zipFile); err != nil {
		t.Fatal(err)
	}

	if _, err = ReadScene(zipFile, bvh.DefaultOptions()); err == nil {
		t.Fatal("expected an error loading a scene with a truncated BVH")
	}
}

func TestReadCompiledSceneBadLeafObjects(t *testing.T) {
	dir := writeFiles(t, map[string]string{"scene.scn": testScene, "materials.mtl": testMaterials})
	sc, err := ReadScene(filepath.Join(dir, "scene.scn"), bvh.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	tamperSpecs := []func(leafs []*bvh.LinkedNode){
		func(leafs []*bvh.LinkedNode) { leafs[0].ObjectIndex = 4000 },
		func(leafs []*bvh.LinkedNode) { leafs[1].ObjectIndex = leafs[0].ObjectIndex },
		func(leafs []*bvh.LinkedNode) { leafs[2].ObjectIndex = -1 },
	}

	for specIndex, tamper := range tamperSpecs {
		nodes, err := bvh.Decode(sc.BvhData)
		if err != nil {
			t.Fatal(err)
		}
		var leafs []*bvh.LinkedNode
		for idx := range nodes {
			if nodes[idx].IsLeaf {
				leafs = append(leafs, &nodes[idx])
			}
		}
		tamper(leafs)

		tampered := *sc
		tampered.BvhData = bvh.Marshal(nodes)
		zipFile := filepath.Join(dir, fmt.Sprintf("scene-%d.zip", specIndex))
		if err = writer.WriteScene(&tampered, zipFile); err != nil {
			t.Fatal(err)
		}

		_, err = ReadScene(zipFile, bvh.DefaultOptions())
		if !errors.Is(err, bvh.ErrMalformedLinks) {
			t.Errorf("[spec %d] expected ErrMalformedLinks; got %v", specIndex, err)
		}
	}
}

func TestReadSceneStream(t *testing.T) {
	sc, err := ReadSceneStream("inline.scn", strings.NewReader("newmtl red\nusemtl red\nsphere 0 0 0 1\nsphere 3 0 0 1\n"), bvh.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.Spheres) != 2 || sc.BvhNodeCount() != 3 {
		t.Fatalf("expected 2 spheres and 3 BVH records; got %d and %d", len(sc.Spheres), sc.BvhNodeCount())
	}

	// Compiled scenes can be streamed too
	zipFile := filepath.Join(t.TempDir(), "scene.zip")
	if err = writer.WriteScene(sc, zipFile); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(zipFile)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := ReadSceneStream("remote.zip", bytes.NewReader(data), bvh.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if string(loaded.BvhData) != string(sc.BvhData) {
		t.Fatal("expected streamed compiled scene to match the written scene")
	}

	_, err = ReadSceneStream("inline.obj", strings.NewReader(""), bvh.DefaultOptions())
	if err == nil || !strings.Contains(err.Error(), "unsupported file format") {
		t.Fatalf("expected unsupported format error; got %v", err)
	}
}

func TestUnsupportedSceneFormat(t *testing.T) {
	dir := writeFiles(t, map[string]string{"scene.obj": ""})
	_, err := ReadScene(filepath.Join(dir, "scene.obj"), bvh.DefaultOptions())
	if err == nil || !strings.Contains(err.Error(), "unsupported file format") {
		t.Fatalf("expected unsupported format error; got %v", err)
	}
}
