package renderer

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Uniform block capacities in records. Uniform blocks are usually
	// limited to 64K so the defaults keep every block within that limit.
	MaxSpheres   uint32
	MaxMaterials uint32
	MaxBvhNodes  uint32

	// Stop after rendering this many frames; 0 renders until the window
	// is closed.
	MaxFrames uint32

	// Sync buffer swaps to the display refresh rate.
	VSync bool
}

// Get the default renderer options.
func DefaultOptions() Options {
	return Options{
		FrameW:       800,
		FrameH:       600,
		MaxSpheres:   512,
		MaxMaterials: 64,
		MaxBvhNodes:  1023,
		VSync:        true,
	}
}
