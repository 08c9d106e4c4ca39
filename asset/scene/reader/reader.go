package reader

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/achilleasa/spheretrace/asset"
	"github.com/achilleasa/spheretrace/asset/compiler/bvh"
	"github.com/achilleasa/spheretrace/asset/scene"
)

// Passing this filename to ReadScene reads a text scene from standard input.
const StdinFilename = "-"

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read scene from file. Text scenes are compiled using the supplied BVH
// options; compiled (zip) scenes are loaded as-is.
func ReadScene(filename string, opts bvh.Options) (*scene.Scene, error) {
	if filename == StdinFilename {
		return ReadSceneStream("stdin.scn", os.Stdin, opts)
	}

	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return readResource(res, opts)
}

// Read a scene from a stream. The reader is selected using the extension of
// name and relative includes are resolved against it.
func ReadSceneStream(name string, source io.Reader, opts bvh.Options) (*scene.Scene, error) {
	res := asset.NewResourceFromStream(name, source)
	defer res.Close()

	return readResource(res, opts)
}

func readResource(res *asset.Resource, opts bvh.Options) (*scene.Scene, error) {
	reader, err := readerFor(res.Path(), opts)
	if err != nil {
		return nil, err
	}
	return reader.Read(res)
}

// Select reader based on file extension.
func readerFor(filename string, opts bvh.Options) (Reader, error) {
	switch {
	case strings.HasSuffix(filename, ".scn"), strings.HasSuffix(filename, ".txt"):
		return newTextSceneReader(opts), nil
	case strings.HasSuffix(filename, ".zip"):
		return newZipSceneReader(), nil
	}
	return nil, fmt.Errorf("readScene: unsupported file format %q", filename)
}
