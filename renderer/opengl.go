package renderer

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/types"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	// Coefficients for converting delta cursor movements to yaw/pitch camera angles.
	mouseSensitivityX float32 = 0.005
	mouseSensitivityY float32 = 0.005

	// Camera orbit (radians) and dolly speed per key press.
	cameraOrbitSpeed float32 = 0.05
	cameraDollySpeed float32 = 0.25
)

func init() {
	// GLFW event handling must run on the main thread.
	runtime.LockOSThread()
}

type uniformBlock struct {
	buffer  uint32
	binding uint32
	size    int
}

// A Device backed by a GLFW window and an OpenGL 4.1 core context. Scene
// data is stored in uniform buffer objects.
type glDevice struct {
	logger log.Logger

	// opengl handles
	window  *glfw.Window
	vao     uint32
	program uint32
	blocks  map[string]*uniformBlock

	// input state
	lastCursorPos types.Vec2
	dragging      bool
	onCamera      CameraHandler

	// mutex for synchronizing updates
	sync.Mutex
}

// Create a window with the given dimensions and an OpenGL context for it.
func NewGLDevice(title string, width, height uint32, vsync bool) (Device, error) {
	d := &glDevice{
		logger: log.New("opengl"),
		blocks: make(map[string]*uniformBlock),
	}

	var err error
	if err = glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize glfw: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	d.window, err = glfw.CreateWindow(int(width), int(height), title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("could not create opengl window: %w", err)
	}
	d.window.MakeContextCurrent()

	if err = gl.Init(); err != nil {
		d.Close()
		return nil, fmt.Errorf("could not init opengl: %w", err)
	}
	d.logger.Infof("using opengl %s (%s)", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))

	if vsync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	// The full screen triangle is generated in the vertex shader but core
	// profiles still require a bound VAO for drawing.
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)

	// Bind event callbacks
	d.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	d.window.SetKeyCallback(d.onKeyEvent)
	d.window.SetMouseButtonCallback(d.onMouseEvent)
	d.window.SetCursorPosCallback(d.onCursorPosEvent)
	d.window.SetScrollCallback(d.onScrollEvent)

	return d, nil
}

func (d *glDevice) SetCameraHandler(handler CameraHandler) {
	d.Lock()
	defer d.Unlock()
	d.onCamera = handler
}

func (d *glDevice) UseProgram(vertexSrc, fragmentSrc string) error {
	vertexShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return fmt.Errorf("opengl: vertex shader: %w", err)
	}
	defer gl.DeleteShader(vertexShader)

	fragmentShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return fmt.Errorf("opengl: fragment shader: %w", err)
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(msg))
		gl.DeleteProgram(program)
		return fmt.Errorf("opengl: failed to link program: %s", strings.TrimRight(msg, "\x00"))
	}

	if d.program != 0 {
		gl.DeleteProgram(d.program)
	}
	d.program = program
	gl.UseProgram(program)
	return nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(msg))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compilation failed: %s", strings.TrimRight(msg, "\x00"))
	}
	return shader, nil
}

func (d *glDevice) AllocateUniformBlock(name string, binding uint32, size int) error {
	if d.program == 0 {
		return ErrNoProgram
	}

	index := gl.GetUniformBlockIndex(d.program, gl.Str(name+"\x00"))
	if index == gl.INVALID_INDEX {
		return fmt.Errorf("%w: %q", ErrUnknownBlock, name)
	}

	var required int32
	gl.GetActiveUniformBlockiv(d.program, index, gl.UNIFORM_BLOCK_DATA_SIZE, &required)
	if int(required) > size {
		return fmt.Errorf("%w: block %q requires %d bytes; got %d", ErrBufferTooSmall, name, required, size)
	}
	gl.UniformBlockBinding(d.program, index, binding)

	block := d.blocks[name]
	if block == nil {
		block = &uniformBlock{}
		gl.GenBuffers(1, &block.buffer)
		d.blocks[name] = block
	}
	block.binding = binding
	block.size = size

	gl.BindBuffer(gl.UNIFORM_BUFFER, block.buffer)
	gl.BufferData(gl.UNIFORM_BUFFER, size, nil, gl.DYNAMIC_DRAW)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, binding, block.buffer)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)

	d.logger.Debugf("allocated %d bytes for uniform block %q (binding %d)", size, name, binding)
	return nil
}

func (d *glDevice) UpdateUniformBlock(name string, offset int, data []byte) error {
	block := d.blocks[name]
	if block == nil {
		return fmt.Errorf("%w: %q", ErrUnknownBlock, name)
	}
	if offset < 0 || offset+len(data) > block.size {
		return fmt.Errorf("%w: block %q holds %d bytes; got %d bytes at offset %d", ErrBufferTooSmall, name, block.size, len(data), offset)
	}
	if len(data) == 0 {
		return nil
	}

	gl.BindBuffer(gl.UNIFORM_BUFFER, block.buffer)
	gl.BufferSubData(gl.UNIFORM_BUFFER, offset, len(data), gl.Ptr(data))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	return nil
}

func (d *glDevice) BindRenderTarget(width, height uint32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (d *glDevice) Present() (bool, error) {
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	if code := gl.GetError(); code != gl.NO_ERROR {
		return false, fmt.Errorf("opengl: draw failed with error 0x%x", code)
	}

	d.window.SwapBuffers()
	glfw.PollEvents()
	return !d.window.ShouldClose(), nil
}

func (d *glDevice) Close() {
	for _, block := range d.blocks {
		gl.DeleteBuffers(1, &block.buffer)
	}
	d.blocks = make(map[string]*uniformBlock)

	if d.program != 0 {
		gl.DeleteProgram(d.program)
		d.program = 0
	}
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
	if d.window != nil {
		d.window.Destroy()
		d.window = nil
	}
	glfw.Terminate()
}

func (d *glDevice) moveCamera(yaw, pitch, dolly float32) {
	d.Lock()
	handler := d.onCamera
	d.Unlock()

	if handler != nil {
		handler(yaw, pitch, dolly)
	}
}

func (d *glDevice) onKeyEvent(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}

	// Double speed if shift is pressed
	var speedScaler float32 = 1.0
	if (mods & glfw.ModShift) == glfw.ModShift {
		speedScaler = 2.0
	}

	orbit := speedScaler * cameraOrbitSpeed
	dolly := speedScaler * cameraDollySpeed
	switch key {
	case glfw.KeyEscape:
		w.SetShouldClose(true)
	case glfw.KeyLeft:
		d.moveCamera(-orbit, 0, 0)
	case glfw.KeyRight:
		d.moveCamera(orbit, 0, 0)
	case glfw.KeyUp:
		d.moveCamera(0, orbit, 0)
	case glfw.KeyDown:
		d.moveCamera(0, -orbit, 0)
	case glfw.KeyW, glfw.KeyEqual:
		d.moveCamera(0, 0, dolly)
	case glfw.KeyS, glfw.KeyMinus:
		d.moveCamera(0, 0, -dolly)
	}
}

func (d *glDevice) onMouseEvent(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mod glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft {
		return
	}

	d.dragging = action == glfw.Press
	if d.dragging {
		xPos, yPos := w.GetCursorPos()
		d.lastCursorPos[0], d.lastCursorPos[1] = float32(xPos), float32(yPos)
	}
}

func (d *glDevice) onCursorPosEvent(w *glfw.Window, xPos, yPos float64) {
	if !d.dragging {
		return
	}

	// Calculate delta movement and apply mouse sensitivity
	newPos := types.Vec2{float32(xPos), float32(yPos)}
	delta := d.lastCursorPos.Sub(newPos)
	d.lastCursorPos = newPos

	d.moveCamera(delta[0]*mouseSensitivityX, -delta[1]*mouseSensitivityY, 0)
}

func (d *glDevice) onScrollEvent(w *glfw.Window, xOff, yOff float64) {
	d.moveCamera(0, 0, float32(yOff)*cameraDollySpeed)
}
