package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/achilleasa/spheretrace/asset/scene/reader"
	"github.com/achilleasa/spheretrace/asset/scene/writer"
	"github.com/urfave/cli"
)

// Compile text scenes to the binary zip format.
func CompileScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() == 0 {
		return fmt.Errorf("compile: missing scene file argument")
	}

	opts, err := bvhOptions(ctx)
	if err != nil {
		return err
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		sceneFile := ctx.Args().Get(idx)
		ext := filepath.Ext(sceneFile)
		if ext != ".scn" && ext != ".txt" {
			logger.Warningf("skipping unsupported file %s", sceneFile)
			continue
		}

		sc, err := reader.ReadScene(sceneFile, opts)
		if err != nil {
			logger.Error(err)
			return err
		}

		zipFile := strings.TrimSuffix(sceneFile, ext) + ".zip"
		err = writer.WriteScene(sc, zipFile)
		if err != nil {
			logger.Error(err)
			return err
		}
	}

	return nil
}
