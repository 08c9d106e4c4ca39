package reader

import (
	"archive/zip"
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"time"

	"github.com/achilleasa/spheretrace/asset"
	"github.com/achilleasa/spheretrace/asset/compiler/bvh"
	"github.com/achilleasa/spheretrace/asset/scene"
	"github.com/achilleasa/spheretrace/log"
)

const (
	dataFile = "scene.bin"
	bvhFile  = "bvh.bin"
)

type zipSceneReader struct {
	logger log.Logger
}

// Create a new zip scene reader.
func newZipSceneReader() *zipSceneReader {
	return &zipSceneReader{
		logger: log.New("zip reader"),
	}
}

// Read a compiled scene from a zip file.
func (p *zipSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	p.logger.Noticef(`parsing compiled scene from "%s"`, sceneRes.Path())
	start := time.Now()

	// zip package requires a reader implementing ReaderAt. To work around
	// this requirement we read the entire zip file into memory and create
	// a reader from the bytes package that implements ReaderAt
	data, err := sceneRes.ReadAll()
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("zipSceneReader: %w", err)
	}

	var sc *scene.Scene
	var bvhData []byte
	for _, f := range zr.File {
		switch f.Name {
		case dataFile, bvhFile:
		default:
			p.logger.Warningf("unknown file %s in scene zip file; skipping", f.Name)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		if f.Name == dataFile {
			sc = &scene.Scene{}
			err = gob.NewDecoder(rc).Decode(sc)
		} else {
			bvhData, err = io.ReadAll(rc)
		}
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("zipSceneReader: failed to load %s: %w", f.Name, err)
		}
	}

	if sc == nil {
		return nil, fmt.Errorf("zipSceneReader: missing %s", dataFile)
	}

	nodes, err := bvh.Decode(bvhData)
	if err != nil {
		return nil, fmt.Errorf("zipSceneReader: failed to load %s: %w", bvhFile, err)
	}
	if err = bvh.ValidateLeaves(nodes, len(sc.Spheres)); err != nil {
		return nil, fmt.Errorf("zipSceneReader: %w", err)
	}
	sc.BvhData = bvhData

	if err = sc.Validate(); err != nil {
		return nil, err
	}

	p.logger.Noticef("loaded scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return sc, nil
}
