package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"occlusion/pkg/gfx"
)

// textureFormat is the storage of a texture: internal format, pixel format
// and component type.
type textureFormat struct {
	internal int32
	format   uint32
	xtype    uint32
}

// formatFor maps creation flags to GL formats. Float textures are depth
// targets; channels selects the colour format of 8 bit textures.
func formatFor(isFloat bool, channels int) (textureFormat, error) {
	if isFloat {
		return textureFormat{gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT}, nil
	}

	switch channels {
	case 1:
		return textureFormat{gl.R8, gl.RED, gl.UNSIGNED_BYTE}, nil
	case 2:
		return textureFormat{gl.RG8, gl.RG, gl.UNSIGNED_BYTE}, nil
	case 3:
		return textureFormat{gl.RGB8, gl.RGB, gl.UNSIGNED_BYTE}, nil
	case 4:
		return textureFormat{gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE}, nil
	}

	return textureFormat{}, fmt.Errorf("unsupported channel count %d", channels)
}

// filterFor returns the min and mag filters. Depth is never interpolated.
func filterFor(depth, mips bool) (minFilter, magFilter int32) {
	switch {
	case depth:
		return gl.NEAREST, gl.NEAREST
	case mips:
		return gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR
	default:
		return gl.LINEAR, gl.LINEAR
	}
}

// wrapFor returns the wrap mode: static data repeats, targets clamp.
func wrapFor(repeat bool) int32 {
	if repeat {
		return gl.REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

// Texture is a GL 2D texture with a lazily created framebuffer.
type Texture struct {
	device *Device

	name string
	key  string
	id   uint32

	width  int
	height int

	format       textureFormat
	depth        bool
	renderTarget bool
	repeat       bool
	mips         bool

	fbo      uint32
	depthRBO uint32 // depth attachment of colour render targets
}

func (t *Texture) Name() string { return t.name }
func (t *Texture) Width() int   { return t.width }
func (t *Texture) Height() int  { return t.height }

func (t *Texture) UseTexture(unit int) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, t.id)
}

// allocate (re)specifies level 0 from pixels, which may be nil.
func (t *Texture) allocate(width, height int, pixels unsafe.Pointer) {
	t.width, t.height = width, height

	if t.id == 0 {
		gl.GenTextures(1, &t.id)
	}

	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, t.format.internal, int32(width), int32(height), 0, t.format.format, t.format.xtype, pixels)

	minFilter, magFilter := filterFor(t.depth, t.mips)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, magFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapFor(t.repeat))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrapFor(t.repeat))

	if t.mips {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}

	if t.depthRBO != 0 {
		gl.BindRenderbuffer(gl.RENDERBUFFER, t.depthRBO)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(width), int32(height))
		gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	}
}

// framebuffer returns the framebuffer drawing into mip level of t, creating
// it on first use.
func (t *Texture) framebuffer(level int) (uint32, error) {
	if t.fbo == 0 {
		gl.GenFramebuffers(1, &t.fbo)
		gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)

		if t.depth {
			gl.DrawBuffer(gl.NONE)
			gl.ReadBuffer(gl.NONE)
		} else if t.renderTarget {
			gl.GenRenderbuffers(1, &t.depthRBO)
			gl.BindRenderbuffer(gl.RENDERBUFFER, t.depthRBO)
			gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(t.width), int32(t.height))
			gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
			gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, t.depthRBO)
		}
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)

	attachment := uint32(gl.COLOR_ATTACHMENT0)
	if t.depth {
		attachment = gl.DEPTH_ATTACHMENT
	}
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, attachment, gl.TEXTURE_2D, t.id, int32(level))

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return 0, fmt.Errorf("framebuffer of %q not complete: 0x%x", t.name, status)
	}

	return t.fbo, nil
}

func (t *Texture) release() {
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
		t.fbo = 0
	}
	if t.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &t.depthRBO)
		t.depthRBO = 0
	}
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
	t.width, t.height = 0, 0
}

// TextureManager creates GL textures. Textures are shared by name.
type TextureManager struct {
	device   *Device
	textures *gfx.Registry[*Texture]
}

func (m *TextureManager) Create(name string, width, height int, isFloat, isRenderTarget, hasMips bool) gfx.Texture {
	return m.create(name, width, height, isFloat, isRenderTarget, hasMips, 4, nil)
}

func (m *TextureManager) CreateFromPixels(name string, width, height, channels int, pixels []byte, hasMips bool) gfx.Texture {
	if want := width * height * channels; len(pixels) < want {
		m.device.log.Errorf("Texture %q has %d bytes of pixel data, want %d", name, len(pixels), want)
		return m.create(name, width, height, false, false, hasMips, channels, nil)
	}

	return m.create(name, width, height, false, false, hasMips, channels, gl.Ptr(pixels))
}

func (m *TextureManager) create(name string, width, height int, isFloat, isRenderTarget, hasMips bool, channels int, pixels unsafe.Pointer) gfx.Texture {
	log := m.device.log

	format, err := formatFor(isFloat, channels)
	if err != nil {
		log.Errorf("Texture %q: %v, using RGBA", name, err)
		format, _ = formatFor(false, 4)
	}

	t, key, created := m.textures.Acquire(name, func(key string) *Texture {
		return &Texture{
			device:       m.device,
			name:         name,
			key:          key,
			format:       format,
			depth:        isFloat,
			renderTarget: isRenderTarget,
			repeat:       pixels != nil,
			mips:         hasMips,
		}
	})

	switch {
	case created:
		t.allocate(width, height, pixels)
		log.Debugf("Created texture %q %dx%d", key, width, height)
	case pixels != nil:
		t.allocate(width, height, pixels)
	case t.width != width || t.height != height:
		t.allocate(width, height, nil)
	}

	return t
}

// Resize reallocates tex. Resizing to the current size does nothing.
func (m *TextureManager) Resize(tex gfx.Texture, width, height int) {
	t, ok := tex.(*Texture)
	if !ok || t == nil {
		m.device.log.Warn("Resizing a texture that does not belong to the OpenGL device")
		return
	}
	if width <= 0 || height <= 0 {
		m.device.log.Warnf("Ignoring resize of %q to %dx%d", t.name, width, height)
		return
	}
	if t.width == width && t.height == height {
		return
	}

	t.allocate(width, height, nil)
}

// Drop releases one reference and deletes the texture with the last one.
func (m *TextureManager) Drop(tex gfx.Texture) {
	t, ok := tex.(*Texture)
	if !ok || t == nil {
		m.device.log.Warn("Dropping a texture that does not belong to the OpenGL device")
		return
	}

	_, last, ok := m.textures.Release(t.key)
	if !ok {
		m.device.log.Warnf("Texture %q dropped more often than created", t.key)
		return
	}
	if last {
		t.release()
	}
}
