package renderer

import (
	"bytes"
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/achilleasa/spheretrace/asset/compiler/bvh"
	"github.com/achilleasa/spheretrace/asset/scene"
	"github.com/achilleasa/spheretrace/log"
	"github.com/olekukonko/tablewriter"
)

// Uniform block names and binding points. They must match the declarations
// in the fragment shader.
const (
	CameraBlock   = "Camera"
	MaterialBlock = "Materials"
	SphereBlock   = "Spheres"
	BvhBlock      = "BVH"
)

const (
	cameraBinding uint32 = iota
	materialBinding
	sphereBinding
	bvhBinding
)

// The camera block extends the camera record with the BVH node count and
// the frame dimensions:
//
//	44 int32 bvh node count
//	48 vec2  frame size
const (
	cameraBlockSize      = scene.CameraRecordSize
	offCameraBvhNodes    = 44
	offCameraFrameWidth  = 48
	offCameraFrameHeight = 52
)

var (
	//go:embed shaders/quad.vert
	vertexShader string

	//go:embed shaders/trace.frag
	fragmentShader string
)

type FrameStats struct {
	// Number of rendered frames.
	Frames uint32

	// Render time for the last frame and all frames.
	LastFrameTime  time.Duration
	TotalFrameTime time.Duration

	// Bytes uploaded to the device per block for the last frame.
	Uploaded map[string]int
}

// A Renderer uploads a compiled scene to a device and runs the frame loop.
type Renderer struct {
	logger log.Logger

	device  Device
	options Options

	// Packed scene data; immutable once the renderer is created.
	materialData []byte
	sphereData   []byte
	bvhData      []byte
	bvhNodes     int32

	// The camera can be updated by device input while rendering.
	sync.Mutex
	camera scene.Camera

	stats FrameStats
}

// Create a new renderer for the compiled scene. The scene data is checked
// against the uniform block capacities in opts before any device call is made.
func New(sc *scene.Scene, device Device, opts Options) (*Renderer, error) {
	if sc == nil {
		return nil, ErrSceneNotDefined
	}
	if sc.Camera == nil {
		return nil, ErrCameraNotDefined
	}

	r := &Renderer{
		logger:   log.New("renderer"),
		device:   device,
		options:  opts,
		camera:   *sc.Camera,
		bvhData:  sc.BvhData,
		bvhNodes: int32(sc.BvhNodeCount()),
		stats:    FrameStats{Uploaded: make(map[string]int)},
	}
	if opts.FrameH > 0 {
		r.camera.Aspect = float32(opts.FrameW) / float32(opts.FrameH)
	}

	var err error
	r.materialData = sc.EncodeMaterials()
	r.sphereData, err = sc.EncodeSpheres()
	if err != nil {
		return nil, err
	}

	for _, block := range []struct {
		name     string
		required int
		capacity uint32
		recSize  int
	}{
		{MaterialBlock, len(sc.Materials), opts.MaxMaterials, scene.MaterialRecordSize},
		{SphereBlock, len(sc.Spheres), opts.MaxSpheres, scene.SphereRecordSize},
		{BvhBlock, sc.BvhNodeCount(), opts.MaxBvhNodes, bvh.RecordSize},
	} {
		if block.required > int(block.capacity) {
			return nil, fmt.Errorf("%w: block %q requires %d records (%d bytes); capacity is %d records", ErrBufferTooSmall, block.name, block.required, block.required*block.recSize, block.capacity)
		}
	}

	err = r.initDevice()
	if err != nil {
		return nil, err
	}

	if input, ok := device.(InputSource); ok {
		input.SetCameraHandler(r.MoveCamera)
	}

	return r, nil
}

// Compile the shader program and allocate the uniform blocks.
func (r *Renderer) initDevice() error {
	err := r.device.UseProgram(vertexShader, shaderWithLimits(fragmentShader, r.options))
	if err != nil {
		return err
	}

	for _, block := range []struct {
		name    string
		binding uint32
		size    int
	}{
		{CameraBlock, cameraBinding, cameraBlockSize},
		{MaterialBlock, materialBinding, int(r.options.MaxMaterials) * scene.MaterialRecordSize},
		{SphereBlock, sphereBinding, int(r.options.MaxSpheres) * scene.SphereRecordSize},
		{BvhBlock, bvhBinding, int(r.options.MaxBvhNodes) * bvh.RecordSize},
	} {
		if err = r.device.AllocateUniformBlock(block.name, block.binding, block.size); err != nil {
			return err
		}
	}

	r.logger.Debugf("allocated uniform blocks for %d spheres, %d materials and %d BVH nodes", r.options.MaxSpheres, r.options.MaxMaterials, r.options.MaxBvhNodes)
	return nil
}

// Insert the block capacities as defines right after the #version directive.
func shaderWithLimits(src string, opts Options) string {
	defines := fmt.Sprintf(
		"#define MAX_SPHERES %d\n#define MAX_MATERIALS %d\n#define MAX_BVH_NODES %d\n",
		max(opts.MaxSpheres, 1), max(opts.MaxMaterials, 1), max(opts.MaxBvhNodes, 1),
	)

	if !strings.HasPrefix(src, "#version") {
		return defines + src
	}
	eol := strings.IndexByte(src, '\n')
	if eol == -1 {
		return src + "\n" + defines
	}
	return src[:eol+1] + defines + src[eol+1:]
}

// Orbit the camera around its look at point and dolly it by the specified
// amounts. The new camera is uploaded with the next frame.
func (r *Renderer) MoveCamera(yaw, pitch, dolly float32) {
	r.Lock()
	defer r.Unlock()

	if yaw != 0 || pitch != 0 {
		r.camera.Orbit(yaw, pitch)
	}
	if dolly != 0 {
		r.camera.Dolly(dolly)
	}
}

// Get a copy of the current camera.
func (r *Renderer) Camera() scene.Camera {
	r.Lock()
	defer r.Unlock()
	return r.camera
}

// Pack the camera block.
func (r *Renderer) cameraData() []byte {
	r.Lock()
	cam := r.camera
	r.Unlock()

	buf := make([]byte, cameraBlockSize)
	cam.Encode(buf)
	binary.LittleEndian.PutUint32(buf[offCameraBvhNodes:], uint32(r.bvhNodes))
	binary.LittleEndian.PutUint32(buf[offCameraFrameWidth:], math.Float32bits(float32(r.options.FrameW)))
	binary.LittleEndian.PutUint32(buf[offCameraFrameHeight:], math.Float32bits(float32(r.options.FrameH)))
	return buf
}

// Render a single frame: bind the render target, upload all uniform blocks
// and present the result.
func (r *Renderer) RenderFrame() (more bool, err error) {
	start := time.Now()

	r.device.BindRenderTarget(r.options.FrameW, r.options.FrameH)

	for _, block := range []struct {
		name string
		data []byte
	}{
		{CameraBlock, r.cameraData()},
		{MaterialBlock, r.materialData},
		{SphereBlock, r.sphereData},
		{BvhBlock, r.bvhData},
	} {
		if err = r.device.UpdateUniformBlock(block.name, 0, block.data); err != nil {
			return false, fmt.Errorf("renderer: uploading %s block: %w", block.name, err)
		}
		r.stats.Uploaded[block.name] = len(block.data)
	}

	more, err = r.device.Present()
	if err != nil {
		return false, err
	}

	r.stats.Frames++
	r.stats.LastFrameTime = time.Since(start)
	r.stats.TotalFrameTime += r.stats.LastFrameTime
	return more, nil
}

// Run the frame loop until the device stops accepting frames or the frame
// limit is reached.
func (r *Renderer) Render() error {
	r.logger.Noticef("rendering %dx%d frames", r.options.FrameW, r.options.FrameH)
	start := time.Now()

	for r.options.MaxFrames == 0 || r.stats.Frames < r.options.MaxFrames {
		more, err := r.RenderFrame()
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

	r.logger.Noticef("rendered %d frames in %d ms", r.stats.Frames, time.Since(start).Nanoseconds()/1e6)
	r.logger.Debugf("frame statistics\n%s", r.StatsTable())
	return nil
}

// Get render statistics.
func (r *Renderer) Stats() FrameStats {
	return r.stats
}

// Render frame statistics as a table.
func (r *Renderer) StatsTable() string {
	var avg time.Duration
	if r.stats.Frames > 0 {
		avg = r.stats.TotalFrameTime / time.Duration(r.stats.Frames)
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Stat", "Value"})
	table.Append([]string{"Frames", fmt.Sprint(r.stats.Frames)})
	table.Append([]string{"Last frame", r.stats.LastFrameTime.String()})
	table.Append([]string{"Avg frame", avg.String()})
	for _, name := range []string{CameraBlock, MaterialBlock, SphereBlock, BvhBlock} {
		table.Append([]string{name + " upload", fmt.Sprintf("%d bytes", r.stats.Uploaded[name])})
	}
	table.Render()
	return buf.String()
}

// Shutdown the renderer and its device.
func (r *Renderer) Close() {
	r.device.Close()
}
