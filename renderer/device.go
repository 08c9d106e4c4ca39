package renderer

// A Device exposes the graphics API operations required for rendering a
// scene with a single fragment shader program.
type Device interface {
	// Compile and activate a shader program.
	UseProgram(vertexSrc, fragmentSrc string) error

	// Allocate a fixed-size buffer for the named uniform block of the
	// active program and attach it to a binding point.
	AllocateUniformBlock(name string, binding uint32, size int) error

	// Copy data into a uniform block buffer starting at offset.
	UpdateUniformBlock(name string, offset int, data []byte) error

	// Bind the default render target and clear it.
	BindRenderTarget(width, height uint32)

	// Draw and display the frame. The returned flag is false when the
	// device will not accept further frames (e.g. its window was closed).
	Present() (more bool, err error)

	// Release device resources.
	Close()
}

// A CameraHandler receives orbit (yaw, pitch in radians) and dolly camera
// movements generated by user input.
type CameraHandler func(yaw, pitch, dolly float32)

// Devices that generate camera input implement this interface.
type InputSource interface {
	SetCameraHandler(CameraHandler)
}
