package cmd

import (
	"math/rand"

	"github.com/achilleasa/spheretrace/asset/compiler/bvh"
	"github.com/urfave/cli"
)

// Map the BVH flags into builder options.
func bvhOptions(ctx *cli.Context) (bvh.Options, error) {
	opts := bvh.DefaultOptions()

	var err error
	opts.Axis, err = bvh.ParseAxisPolicy(ctx.String("axis"))
	if err != nil {
		return opts, err
	}
	if opts.Axis == bvh.RandomAxis {
		opts.Rand = rand.New(rand.NewSource(ctx.Int64("seed")))
	}
	opts.ParallelThreshold = ctx.Int("parallel-threshold")

	return opts, nil
}
