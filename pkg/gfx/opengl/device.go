// Package opengl implements the gfx contracts on an OpenGL 4.1 core context.
// Every call must happen on the thread that owns the context.
package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"occlusion/internal/logger"
	"occlusion/pkg/gfx"
)

const defaultStageCacheSize = 32

// Options configures a Device.
type Options struct {
	// Width and Height size the default framebuffer.
	Width  int
	Height int

	Camera gfx.Camera
	Timer  *gfx.Timer

	// StageCacheSize bounds the number of compiled shader stages kept for
	// reuse. Defaults to 32.
	StageCacheSize int

	Log *logger.Logger
}

// Device is the graphics manager of an OpenGL context.
type Device struct {
	log    *logger.Logger
	camera gfx.Camera
	timer  *gfx.Timer

	shaders  *ShaderManager
	textures *TextureManager

	width     int
	height    int
	depthTest bool
}

// New initializes the GL bindings for the current context and creates a
// device.
func New(opts Options) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	d := &Device{
		log:    opts.Log,
		camera: opts.Camera,
		timer:  opts.Timer,
		width:  opts.Width,
		height: opts.Height,
	}

	if d.log == nil {
		d.log = logger.Discard()
	}
	if d.camera == nil {
		aspect := float32(1)
		if opts.Height > 0 {
			aspect = float32(opts.Width) / float32(opts.Height)
		}
		d.camera = gfx.NewPerspectiveCamera(60, aspect, 0.1, 100, mgl32.Vec3{0, 0, 5}, mgl32.Vec3{})
	}
	if d.timer == nil {
		d.timer = gfx.NewTimer()
	}

	size := opts.StageCacheSize
	if size <= 0 {
		size = defaultStageCacheSize
	}

	shaders, err := newShaderManager(d, size)
	if err != nil {
		return nil, err
	}
	d.shaders = shaders
	d.textures = &TextureManager{device: d, textures: gfx.NewRegistry[*Texture]()}

	d.log.Infof("OpenGL %s, GLSL %s", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)))

	gl.ClearColor(0, 0, 0, 1)
	d.SetDepthTest(false)

	return d, nil
}

// Device bundles the managers.
func (d *Device) Device() *gfx.Device {
	return &gfx.Device{
		Shaders:  d.shaders,
		Textures: d.textures,
		Graphics: d,
		Timer:    d.timer,
	}
}

// SetViewport follows a default framebuffer resize.
func (d *Device) SetViewport(width, height int) {
	d.width, d.height = width, height
}

func (d *Device) SetRenderTarget(tex gfx.Texture, mipLevel int, clearColor, clearDepth bool) {
	if tex == nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.Viewport(0, 0, int32(d.width), int32(d.height))
	} else {
		t, ok := tex.(*Texture)
		if !ok {
			d.log.Warnf("Render target %q does not belong to the OpenGL device", tex.Name())
			return
		}

		if _, err := t.framebuffer(mipLevel); err != nil {
			d.log.Errorf("Failed to bind render target: %v", err)
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			return
		}
		gl.Viewport(0, 0, int32(max(t.width>>mipLevel, 1)), int32(max(t.height>>mipLevel, 1)))
	}

	var mask uint32
	if clearColor {
		mask |= gl.COLOR_BUFFER_BIT
	}
	if clearDepth {
		mask |= gl.DEPTH_BUFFER_BIT
		gl.DepthMask(true)
	}
	if mask != 0 {
		gl.Clear(mask)
	}
	gl.DepthMask(d.depthTest)
}

func (d *Device) SetDepthTest(enabled bool) {
	d.depthTest = enabled
	if enabled {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LESS)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(enabled)
}

func (d *Device) Camera() gfx.Camera { return d.camera }

// Close deletes the cached shader stages. Programs and textures are owned
// by whoever created them.
func (d *Device) Close() {
	d.shaders.Close()
}
