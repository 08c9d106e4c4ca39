package renderer

import "errors"

var (
	ErrSceneNotDefined  = errors.New("renderer: no scene defined")
	ErrCameraNotDefined = errors.New("renderer: no camera defined")
	ErrBufferTooSmall   = errors.New("renderer: uniform block too small for scene data")
	ErrNoProgram        = errors.New("renderer: no shader program in use")
	ErrUnknownBlock     = errors.New("renderer: unknown uniform block")
)
