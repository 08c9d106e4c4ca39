package writer

import (
	"archive/zip"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/achilleasa/spheretrace/asset/scene"
	"github.com/achilleasa/spheretrace/log"
)

const (
	dataFile = "scene.bin"
	bvhFile  = "bvh.bin"
)

var ErrNotCompiled = errors.New("zipSceneWriter: scene has spheres but no BVH data")

type zipSceneWriter struct {
	logger    log.Logger
	sceneFile string
}

// Create a new zip scene writer
func newZipSceneWriter(sceneFile string) *zipSceneWriter {
	return &zipSceneWriter{
		logger:    log.New("zip writer"),
		sceneFile: sceneFile,
	}
}

// Write scene definition to zip file. Scene data is gob-encoded into
// scene.bin while the encoded BVH records are stored verbatim in bvh.bin.
func (w *zipSceneWriter) Write(sc *scene.Scene) error {
	if len(sc.Spheres) > 0 && len(sc.BvhData) == 0 {
		return ErrNotCompiled
	}

	w.logger.Noticef("writing compressed scene to %s", w.sceneFile)
	start := time.Now()

	zipFile, err := os.Create(w.sceneFile)
	if err != nil {
		return err
	}
	defer zipFile.Close()

	err = writeArchive(zipFile, sc)
	if err != nil {
		return fmt.Errorf("zipSceneWriter: %w", err)
	}

	w.logger.Noticef("compressed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

func writeArchive(out io.Writer, sc *scene.Scene) error {
	zw := zip.NewWriter(out)

	// BVH data is written separately
	data := *sc
	data.BvhData = nil

	cw, err := zw.Create(dataFile)
	if err != nil {
		return err
	}
	if err = gob.NewEncoder(cw).Encode(&data); err != nil {
		return err
	}

	cw, err = zw.Create(bvhFile)
	if err != nil {
		return err
	}
	if _, err = cw.Write(sc.BvhData); err != nil {
		return err
	}

	return zw.Close()
}
