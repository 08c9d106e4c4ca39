package cmd

import (
	"fmt"

	"github.com/achilleasa/spheretrace/asset/scene/reader"
	"github.com/achilleasa/spheretrace/renderer"
	"github.com/urfave/cli"
)

// Render an interactive view of the scene.
func RenderScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return fmt.Errorf("render: missing scene file argument")
	}

	bvhOpts, err := bvhOptions(ctx)
	if err != nil {
		return err
	}

	opts := renderer.DefaultOptions()
	opts.FrameW = uint32(ctx.Int("width"))
	opts.FrameH = uint32(ctx.Int("height"))
	opts.MaxSpheres = uint32(ctx.Int("max-spheres"))
	opts.MaxMaterials = uint32(ctx.Int("max-materials"))
	opts.MaxBvhNodes = uint32(ctx.Int("max-bvh-nodes"))
	opts.MaxFrames = uint32(ctx.Int("frames"))
	opts.VSync = !ctx.Bool("no-vsync")

	sc, err := reader.ReadScene(ctx.Args().First(), bvhOpts)
	if err != nil {
		logger.Error(err)
		return err
	}

	device, err := renderer.NewGLDevice("spheretrace", opts.FrameW, opts.FrameH, opts.VSync)
	if err != nil {
		logger.Error(err)
		return err
	}

	r, err := renderer.New(sc, device, opts)
	if err != nil {
		device.Close()
		logger.Error(err)
		return err
	}
	defer r.Close()

	if err = r.Render(); err != nil {
		logger.Error(err)
		return err
	}

	logger.Noticef("frame statistics\n%s", r.StatsTable())
	return nil
}
