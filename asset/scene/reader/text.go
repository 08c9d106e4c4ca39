package reader

import (
	"bufio"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/spheretrace/asset"
	"github.com/achilleasa/spheretrace/asset/compiler"
	"github.com/achilleasa/spheretrace/asset/compiler/bvh"
	"github.com/achilleasa/spheretrace/asset/compiler/input"
	"github.com/achilleasa/spheretrace/asset/scene"
	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/types"
)

// Reads line-oriented scene files. Supported directives:
//
//	camera_eye x y z
//	camera_look x y z
//	camera_up x y z
//	camera_fov degrees
//	newmtl name
//	kind lambertian|metal|dielectric
//	Kd r g b
//	param value
//	usemtl name
//	sphere x y z radius
//	call | mtllib path
type textSceneReader struct {
	logger log.Logger

	opts bvh.Options

	// The parsed scene.
	rawScene *input.Scene

	// Material applied to spheres that follow; empty selects the default.
	curMaterial string

	// Material being defined by the last newmtl directive.
	defMaterial *input.Material

	// An error stack that provides additional error information when
	// scene files include other files.
	errStack []string

	// Resources currently being parsed; used for detecting include cycles.
	openFiles map[string]bool
}

// Create a new text scene reader.
func newTextSceneReader(opts bvh.Options) *textSceneReader {
	return &textSceneReader{
		logger:   log.New("text scene reader"),
		opts:     opts,
		rawScene: input.NewScene(),
		errStack:  make([]string, 0),
		openFiles: make(map[string]bool),
	}
}

// Get a key that identifies a resource regardless of how its path was written.
func resourceKey(res *asset.Resource) string {
	if res.IsRemote() {
		return res.Path()
	}
	if abs, err := filepath.Abs(res.Path()); err == nil {
		return abs
	}
	return filepath.Clean(res.Path())
}

// Read scene definition.
func (r *textSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	err := r.parse(sceneRes)
	if err != nil {
		return nil, err
	}

	r.logger.Noticef("parsed %d spheres and %d materials in %d ms", len(r.rawScene.Spheres), len(r.rawScene.Materials), time.Since(start).Nanoseconds()/1e6)

	// Compile scene into an optimized, gpu-friendly format
	return compiler.Compile(r.rawScene, r.opts)
}

// Generate an error message that also includes any data in the error stack.
func (r *textSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)
	errMsg := strings.Trim(
		fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
		"\n",
	)
	return errors.New(errMsg)
}

// Push a frame to the error stack.
func (r *textSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *textSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Ensure the raw scene has a camera definition to populate.
func (r *textSceneReader) camera() *input.Camera {
	if r.rawScene.Camera == nil {
		r.rawScene.Camera = &input.Camera{}
	}
	return r.rawScene.Camera
}

func (r *textSceneReader) parse(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	key := resourceKey(res)
	r.openFiles[key] = true
	defer delete(r.openFiles, key)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call", "mtllib":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))

			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			if r.openFiles[resourceKey(incRes)] {
				incRes.Close()
				return r.emitError(res.Path(), lineNum, `include cycle: "%s" is already being parsed`, incRes.Path())
			}
			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "camera_eye", "camera_look", "camera_up":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			switch lineTokens[0] {
			case "camera_eye":
				r.camera().Eye = v
			case "camera_look":
				r.camera().Look = v
			case "camera_up":
				r.camera().Up = v
			}
		case "camera_fov":
			r.camera().FOV, err = parseFloat32(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "newmtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}
			if r.rawScene.Material(lineTokens[1]) != nil {
				return r.emitError(res.Path(), lineNum, `material "%s" already defined`, lineTokens[1])
			}
			r.defMaterial = &input.Material{
				Name: lineTokens[1],
				Kind: scene.Lambertian.String(),
				Kd:   types.Vec3{0.7, 0.7, 0.7},
			}
			r.rawScene.Materials = append(r.rawScene.Materials, r.defMaterial)
		case "kind", "Kd", "param":
			if r.defMaterial == nil {
				return r.emitError(res.Path(), lineNum, `got "%s" without a "newmtl"`, lineTokens[0])
			}
			switch lineTokens[0] {
			case "kind":
				if len(lineTokens) != 2 {
					return r.emitError(res.Path(), lineNum, `unsupported syntax for "kind"; expected 1 argument; got %d`, len(lineTokens)-1)
				}
				_, err = scene.ParseMaterialKind(lineTokens[1])
				r.defMaterial.Kind = lineTokens[1]
			case "Kd":
				r.defMaterial.Kd, err = parseVec3(lineTokens)
			case "param":
				r.defMaterial.Param, err = parseFloat32(lineTokens)
			}
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "usemtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}
			if r.rawScene.Material(lineTokens[1]) == nil {
				return r.emitError(res.Path(), lineNum, `undefined material with name "%s"`, lineTokens[1])
			}
			r.curMaterial = lineTokens[1]
		case "sphere":
			sphere, err := r.parseSphere(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.rawScene.Spheres = append(r.rawScene.Spheres, sphere)
		default:
			r.logger.Warningf("[%s: %d] skipping unknown directive %q", res.Path(), lineNum, lineTokens[0])
		}
	}

	return scanner.Err()
}

// Parse a sphere definition: sphere x y z radius.
func (r *textSceneReader) parseSphere(lineTokens []string) (*input.Sphere, error) {
	if len(lineTokens) != 5 {
		return nil, fmt.Errorf(`unsupported syntax for "sphere"; expected 4 arguments; got %d`, len(lineTokens)-1)
	}

	center, err := parseVec3(lineTokens)
	if err != nil {
		return nil, err
	}
	radius, err := strconv.ParseFloat(lineTokens[4], 32)
	if err != nil {
		return nil, err
	}
	if radius <= 0 {
		return nil, fmt.Errorf("sphere radius must be positive; got %g", radius)
	}

	return &input.Sphere{
		Center:   center,
		Radius:   float32(radius),
		Material: r.curMaterial,
	}, nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
