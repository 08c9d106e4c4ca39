package renderer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/achilleasa/spheretrace/asset/compiler"
	"github.com/achilleasa/spheretrace/asset/compiler/bvh"
	"github.com/achilleasa/spheretrace/asset/compiler/input"
	"github.com/achilleasa/spheretrace/asset/scene"
	"github.com/achilleasa/spheretrace/types"
)

type fakeDevice struct {
	vertexSrc, fragmentSrc string

	allocated map[string]int
	bindings  map[string]uint32
	uploads   map[string][][]byte

	targets  int
	presents int

	// Present reports false once this many frames are presented; 0 never stops.
	stopAfter  int
	presentErr error

	closed  bool
	handler CameraHandler
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		allocated: make(map[string]int),
		bindings:  make(map[string]uint32),
		uploads:   make(map[string][][]byte),
	}
}

func (d *fakeDevice) UseProgram(vertexSrc, fragmentSrc string) error {
	d.vertexSrc, d.fragmentSrc = vertexSrc, fragmentSrc
	return nil
}

func (d *fakeDevice) AllocateUniformBlock(name string, binding uint32, size int) error {
	d.allocated[name] = size
	d.bindings[name] = binding
	return nil
}

func (d *fakeDevice) UpdateUniformBlock(name string, offset int, data []byte) error {
	size, ok := d.allocated[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBlock, name)
	}
	if offset+len(data) > size {
		return ErrBufferTooSmall
	}
	d.uploads[name] = append(d.uploads[name], append([]byte(nil), data...))
	return nil
}

func (d *fakeDevice) BindRenderTarget(width, height uint32) {
	d.targets++
}

func (d *fakeDevice) Present() (bool, error) {
	if d.presentErr != nil {
		return false, d.presentErr
	}
	d.presents++
	return d.stopAfter == 0 || d.presents < d.stopAfter, nil
}

func (d *fakeDevice) Close() {
	d.closed = true
}

func (d *fakeDevice) SetCameraHandler(handler CameraHandler) {
	d.handler = handler
}

func testScene(t *testing.T, numSpheres int) *scene.Scene {
	raw := input.NewScene()
	for idx := 0; idx < numSpheres; idx++ {
		raw.Spheres = append(raw.Spheres, &input.Sphere{Center: types.Vec3{float32(idx) * 3, 0, 0}, Radius: 1})
	}
	sc, err := compiler.Compile(raw, bvh.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func TestRendererSetup(t *testing.T) {
	dev := newFakeDevice()
	opts := DefaultOptions()
	r, err := New(testScene(t, 3), dev, opts)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	expSizes := map[string]int{
		CameraBlock:   scene.CameraRecordSize,
		MaterialBlock: int(opts.MaxMaterials) * scene.MaterialRecordSize,
		SphereBlock:   int(opts.MaxSpheres) * scene.SphereRecordSize,
		BvhBlock:      int(opts.MaxBvhNodes) * bvh.RecordSize,
	}
	for name, expSize := range expSizes {
		if dev.allocated[name] != expSize {
			t.Errorf("expected block %q to be allocated with %d bytes; got %d", name, expSize, dev.allocated[name])
		}
		if !strings.Contains(dev.fragmentSrc, "uniform "+name+" {") {
			t.Errorf("expected fragment shader to declare uniform block %q", name)
		}
	}
	if dev.bindings[BvhBlock] != 3 {
		t.Fatalf("expected BVH block to use binding 3; got %d", dev.bindings[BvhBlock])
	}

	if !strings.HasPrefix(dev.fragmentSrc, "#version 410 core\n#define MAX_SPHERES 512\n") {
		t.Fatalf("expected capacity defines after the version directive; got:\n%s", dev.fragmentSrc[:80])
	}
	if !strings.Contains(dev.fragmentSrc, "#define MAX_BVH_NODES 1023") {
		t.Fatal("expected BVH capacity define in fragment shader")
	}
	if dev.handler == nil {
		t.Fatal("expected renderer to register a camera handler")
	}
}

func TestRendererErrors(t *testing.T) {
	_, err := New(nil, newFakeDevice(), DefaultOptions())
	if err != ErrSceneNotDefined {
		t.Fatalf("expected ErrSceneNotDefined; got %v", err)
	}

	_, err = New(&scene.Scene{}, newFakeDevice(), DefaultOptions())
	if err != ErrCameraNotDefined {
		t.Fatalf("expected ErrCameraNotDefined; got %v", err)
	}

	dev := newFakeDevice()
	opts := DefaultOptions()
	opts.MaxBvhNodes = 4
	_, err = New(testScene(t, 3), dev, opts)
	if !errors.Is(err, ErrBufferTooSmall) {
		t.Fatalf("expected ErrBufferTooSmall; got %v", err)
	}
	if len(dev.allocated) != 0 || dev.fragmentSrc != "" {
		t.Fatal("expected capacity check to run before any device call")
	}

	opts = DefaultOptions()
	opts.MaxSpheres = 2
	_, err = New(testScene(t, 3), newFakeDevice(), opts)
	if err == nil || !strings.Contains(err.Error(), `block "Spheres" requires 3 records`) {
		t.Fatalf("expected sphere capacity error; got %v", err)
	}
}

func TestRenderLoop(t *testing.T) {
	sc := testScene(t, 3)
	dev := newFakeDevice()
	opts := DefaultOptions()
	opts.MaxFrames = 3
	r, err := New(sc, dev, opts)
	if err != nil {
		t.Fatal(err)
	}

	if err = r.Render(); err != nil {
		t.Fatal(err)
	}

	if dev.presents != 3 || dev.targets != 3 {
		t.Fatalf("expected 3 frames; got %d presents and %d target binds", dev.presents, dev.targets)
	}
	for _, name := range []string{CameraBlock, MaterialBlock, SphereBlock, BvhBlock} {
		if len(dev.uploads[name]) != 3 {
			t.Fatalf("expected block %q to be uploaded once per frame; got %d uploads", name, len(dev.uploads[name]))
		}
	}

	if string(dev.uploads[BvhBlock][0]) != string(sc.BvhData) {
		t.Fatal("expected BVH block to contain the encoded BVH records")
	}

	camData := dev.uploads[CameraBlock][0]
	if nodes := binary.LittleEndian.Uint32(camData[offCameraBvhNodes:]); nodes != 5 {
		t.Fatalf("expected camera block to report 5 BVH nodes; got %d", nodes)
	}

	stats := r.Stats()
	if stats.Frames != 3 || stats.Uploaded[BvhBlock] != len(sc.BvhData) {
		t.Fatalf("unexpected frame stats %+v", stats)
	}
	if table := r.StatsTable(); !strings.Contains(table, "Frames") {
		t.Fatalf("expected stats table to list frame count; got:\n%s", table)
	}
}

func TestRenderLoopStopsWhenDeviceCloses(t *testing.T) {
	dev := newFakeDevice()
	dev.stopAfter = 2
	r, err := New(testScene(t, 2), dev, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	if err = r.Render(); err != nil {
		t.Fatal(err)
	}
	if dev.presents != 2 {
		t.Fatalf("expected render loop to stop after 2 frames; got %d", dev.presents)
	}
}

func TestRenderLoopPropagatesDeviceErrors(t *testing.T) {
	dev := newFakeDevice()
	dev.presentErr = errors.New("device lost")
	r, err := New(testScene(t, 2), dev, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	if err = r.Render(); err != dev.presentErr {
		t.Fatalf("expected device error; got %v", err)
	}
}

func TestCameraInput(t *testing.T) {
	sc := testScene(t, 2)
	dev := newFakeDevice()
	opts := DefaultOptions()
	opts.MaxFrames = 1
	r, err := New(sc, dev, opts)
	if err != nil {
		t.Fatal(err)
	}

	before := r.Camera()
	dist := before.Position.Sub(before.LookAt).Len()
	dev.handler(0, 0, 1)

	after := r.Camera()
	if newDist := after.Position.Sub(after.LookAt).Len(); newDist >= dist {
		t.Fatalf("expected dolly to move the camera closer; distance went from %f to %f", dist, newDist)
	}
	if sc.Camera.Position != before.Position {
		t.Fatal("expected renderer not to modify the scene camera")
	}

	if err = r.Render(); err != nil {
		t.Fatal(err)
	}
	var uploaded scene.Camera
	uploaded.Position = types.Vec3{
		decodeFloat(dev.uploads[CameraBlock][0], 0),
		decodeFloat(dev.uploads[CameraBlock][0], 4),
		decodeFloat(dev.uploads[CameraBlock][0], 8),
	}
	if uploaded.Position != after.Position {
		t.Fatalf("expected uploaded camera position %v; got %v", after.Position, uploaded.Position)
	}
}

func decodeFloat(buf []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
}

func TestShaderWithLimits(t *testing.T) {
	opts := Options{MaxSpheres: 1, MaxMaterials: 2, MaxBvhNodes: 3}
	out := shaderWithLimits("void main() {}", opts)
	if !strings.HasPrefix(out, "#define MAX_SPHERES 1\n#define MAX_MATERIALS 2\n#define MAX_BVH_NODES 3\n") {
		t.Fatalf("expected defines to be prepended; got:\n%s", out)
	}
}
