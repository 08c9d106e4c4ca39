package main

import (
	"os"

	"github.com/achilleasa/spheretrace/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	bvhFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "axis",
			Value: "longest",
			Usage: "BVH split axis policy (longest, random)",
		},
		cli.Int64Flag{
			Name:  "seed",
			Value: 0,
			Usage: "random generator seed for the random axis policy",
		},
		cli.IntFlag{
			Name:  "parallel-threshold",
			Value: 1024,
			Usage: "build BVH subtrees with at least this many spheres in parallel; 0 disables parallel builds",
		},
	}

	renderFlags := append([]cli.Flag{
		cli.IntFlag{
			Name:  "width",
			Value: 800,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 600,
			Usage: "frame height",
		},
		cli.IntFlag{
			Name:  "max-spheres",
			Value: 512,
			Usage: "sphere uniform block capacity",
		},
		cli.IntFlag{
			Name:  "max-materials",
			Value: 64,
			Usage: "material uniform block capacity",
		},
		cli.IntFlag{
			Name:  "max-bvh-nodes",
			Value: 1023,
			Usage: "BVH uniform block capacity",
		},
		cli.IntFlag{
			Name:  "frames",
			Value: 0,
			Usage: "exit after rendering this many frames; 0 renders until the window is closed",
		},
		cli.BoolFlag{
			Name:  "no-vsync",
			Usage: "do not sync frame presentation to the display refresh rate",
		},
	}, bvhFlags...)

	app := cli.NewApp()
	app.Name = "spheretrace"
	app.Usage = "ray trace sphere scenes on the GPU"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "set log level for all modules (debug, info, notice, warning, error)",
		},
		cli.StringSliceFlag{
			Name:  "log-module",
			Value: &cli.StringSlice{},
			Usage: `override the log level of a single module (e.g. "bvh builder=debug")`,
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile text scene representation into a binary compressed format",
			Description: `
Parse a scene definition from a text scene file, build a BVH tree to optimize
ray intersection tests and package scene elements in a GPU-friendly format.

The optimized scene data is then written to a zip archive which can be supplied
as an argument to the render command.`,
			ArgsUsage: "scene_file1.scn scene_file2.scn ...",
			Flags:     bvhFlags,
			Action:    cmd.CompileScene,
		},
		{
			Name:      "inspect",
			Usage:     "display scene statistics and BVH records",
			ArgsUsage: "scene_file (- reads a text scene from stdin)",
			Flags: append([]cli.Flag{
				cli.BoolFlag{
					Name:  "no-records",
					Usage: "only display scene statistics",
				},
			}, bvhFlags...),
			Action: cmd.InspectScene,
		},
		{
			Name:      "render",
			Usage:     "render interactive view of the scene",
			ArgsUsage: "scene_file (- reads a text scene from stdin)",
			Description: `
Open a window and ray trace the scene on the GPU. Use the arrow keys or drag with
the left mouse button to orbit the camera; W/S or the mouse wheel move it closer
or further away. Hold shift to double the camera speed.`,
			Flags:  renderFlags,
			Action: cmd.RenderScene,
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
