package bvh

import (
	"math/rand"

	"github.com/achilleasa/spheretrace/asset/scene"
	"github.com/achilleasa/spheretrace/types"
)

// Create a sphere whose bbox is the unit cube with its min corner at (x, y, z).
func unitSphere(id int32, x, y, z float32) *scene.Sphere {
	return &scene.Sphere{
		Id:     id,
		Center: types.Vec3{x + 0.5, y + 0.5, z + 0.5},
		Radius: 0.5,
	}
}

// Generate count spheres with random centers and radii.
func randomSpheres(count int, seed int64) []scene.Boundable {
	rng := rand.New(rand.NewSource(seed))
	out := make([]scene.Boundable, count)
	for idx := range out {
		out[idx] = &scene.Sphere{
			Id: int32(idx),
			Center: types.Vec3{
				rng.Float32()*100 - 50,
				rng.Float32()*100 - 50,
				rng.Float32()*100 - 50,
			},
			Radius: 0.1 + rng.Float32()*3,
		}
	}
	return out
}

func unionOf(items []scene.Boundable) types.AABB {
	bbox := types.EmptyAABB
	for _, item := range items {
		bbox = bbox.Union(item.BBox())
	}
	return bbox
}

func mustBuild(items []scene.Boundable, opts Options) *Tree {
	tree, err := Build(items, opts)
	if err != nil {
		panic(err)
	}
	return tree
}

// Collect the object ids reached by Walk.
func walkIds(nodes []LinkedNode, hit HitFunc) ([]int32, error) {
	var ids []int32
	err := Walk(nodes, hit, func(leaf *LinkedNode) {
		ids = append(ids, leaf.ObjectIndex)
	})
	return ids, err
}

// Collect the object ids reached by WalkRecursive.
func walkRecursiveIds(nodes []LinkedNode, hit HitFunc) []int32 {
	var ids []int32
	WalkRecursive(nodes, hit, func(leaf *LinkedNode) {
		ids = append(ids, leaf.ObjectIndex)
	})
	return ids
}
