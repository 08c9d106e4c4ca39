package compiler

import (
	"fmt"
	"math"
	"time"

	"github.com/achilleasa/spheretrace/asset/compiler/bvh"
	"github.com/achilleasa/spheretrace/asset/compiler/input"
	"github.com/achilleasa/spheretrace/asset/scene"
	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/types"
)

const (
	// Spheres that do not reference a material use this one.
	DefaultMaterialName = "default_material"

	// The vertical fov used when the scene does not define a camera.
	defaultCameraFOV float32 = 45
)

type sceneCompiler struct {
	parsedScene    *input.Scene
	optimizedScene *scene.Scene
	logger         log.Logger

	opts bvh.Options

	// A map of material names to their index in the optimized scene.
	matNameToIndex map[string]int32
}

// Compile a scene representation parsed by a scene reader into a GPU-friendly
// optimized scene format. Sphere and material ids are assigned in declaration
// order before the BVH is built so that leaf records reference the right
// sphere records.
func Compile(parsedScene *input.Scene, opts bvh.Options) (*scene.Scene, error) {
	compiler := &sceneCompiler{
		parsedScene:    parsedScene,
		optimizedScene: &scene.Scene{},
		logger:         log.New("scene compiler"),
		opts:           opts,
		matNameToIndex: make(map[string]int32),
	}

	start := time.Now()
	compiler.logger.Noticef("compiling scene")

	var err error
	err = compiler.processMaterials()
	if err != nil {
		return nil, err
	}

	err = compiler.processSpheres()
	if err != nil {
		return nil, err
	}

	err = compiler.partitionGeometry()
	if err != nil {
		return nil, err
	}

	compiler.setupCamera()

	compiler.logger.Noticef("compiled scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return compiler.optimizedScene, nil
}

// Convert referenced materials into their optimized representation. Unused
// materials are pruned.
func (sc *sceneCompiler) processMaterials() error {
	for _, sphere := range sc.parsedScene.Spheres {
		name := sphere.Material
		if name == "" {
			name = DefaultMaterialName
		}
		mat := sc.parsedScene.Material(name)
		if mat == nil && name == DefaultMaterialName {
			mat = &input.Material{Name: DefaultMaterialName, Kind: "lambertian", Kd: types.Vec3{0.7, 0.7, 0.7}}
			sc.parsedScene.Materials = append(sc.parsedScene.Materials, mat)
		}
		if mat == nil {
			return fmt.Errorf("compiler: sphere references undefined material %q", name)
		}
		mat.Used = true
	}

	pruned := 0
	for _, mat := range sc.parsedScene.Materials {
		if !mat.Used {
			pruned++
			continue
		}

		kind, err := scene.ParseMaterialKind(mat.Kind)
		if err != nil {
			return fmt.Errorf("compiler: material %q: %w", mat.Name, err)
		}
		sc.matNameToIndex[mat.Name] = sc.optimizedScene.AddMaterial(scene.Material{
			Name:   mat.Name,
			Kind:   kind,
			Albedo: mat.Kd,
			Param:  mat.Param,
		})
	}

	if pruned > 0 {
		sc.logger.Infof("pruned %d unused materials", pruned)
	}
	return nil
}

func (sc *sceneCompiler) processSpheres() error {
	for index, sphere := range sc.parsedScene.Spheres {
		if sphere.Radius <= 0 {
			return fmt.Errorf("compiler: sphere %d has non-positive radius %g", index, sphere.Radius)
		}

		name := sphere.Material
		if name == "" {
			name = DefaultMaterialName
		}
		sc.optimizedScene.AddSphere(scene.Sphere{
			Center:   sphere.Center,
			Radius:   sphere.Radius,
			Material: sc.matNameToIndex[name],
		})
	}
	return sc.optimizedScene.Validate()
}

// Build, link and encode the scene BVH.
func (sc *sceneCompiler) partitionGeometry() error {
	start := time.Now()
	sc.logger.Noticef("partitioning geometry (%d spheres)", len(sc.optimizedScene.Spheres))

	tree, err := bvh.Build(sc.optimizedScene.Boundables(), sc.opts)
	if err != nil {
		return fmt.Errorf("compiler: %w", err)
	}

	nodes := bvh.Link(tree)
	sc.optimizedScene.BvhData = bvh.Marshal(nodes)

	sc.logger.Infof("BVH tree: %d nodes, %d leafs, max depth %d", tree.Stats.Nodes, tree.Stats.Leafs, tree.Stats.MaxDepth)
	sc.logger.Noticef("partitioned geometry in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Initialize and position the camera for the scene. If the scene does not
// define a camera, one is placed in front of the scene so that the entire
// scene bbox is in view.
func (sc *sceneCompiler) setupCamera() {
	if pc := sc.parsedScene.Camera; pc != nil {
		cam := scene.NewCamera(pc.Eye, pc.Look)
		if pc.Up != (types.Vec3{}) {
			cam.Up = pc.Up
		}
		if pc.FOV > 0 {
			cam.FOV = pc.FOV
		}
		sc.optimizedScene.Camera = cam
		return
	}

	bbox := types.EmptyAABB
	for _, sphere := range sc.optimizedScene.Spheres {
		bbox = bbox.Union(sphere.BBox())
	}
	center := bbox.Centroid()
	radius := bbox.Max().Sub(center).Len()
	dist := radius / float32(math.Tan(float64(defaultCameraFOV)*math.Pi/360))

	sc.logger.Warningf("scene does not define a camera; placing camera at distance %.2f from scene center", dist)
	sc.optimizedScene.Camera = scene.NewCamera(center.Add(types.Vec3{0, 0, dist}), center)
	sc.optimizedScene.Camera.FOV = defaultCameraFOV
}
