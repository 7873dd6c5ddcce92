package software

import (
	"github.com/go-gl/mathgl/mgl32"

	"occlusion/pkg/gfx"
)

// TextureManager creates software textures. Textures are shared by name.
type TextureManager struct {
	backend  *Backend
	textures *gfx.Registry[*Texture]
}

// Create returns the texture registered under name or allocates one. An
// existing texture of a different size is reallocated.
func (m *TextureManager) Create(name string, width, height int, isFloat, isRenderTarget, hasMips bool) gfx.Texture {
	if width <= 0 || height <= 0 {
		m.backend.log.Warnf("Texture %q created with size %dx%d", name, width, height)
		width, height = max(width, 0), max(height, 0)
	}

	t, _, created := m.textures.Acquire(name, func(key string) *Texture {
		t := &Texture{
			backend:      m.backend,
			name:         name,
			key:          key,
			depth:        isFloat,
			renderTarget: isRenderTarget,
			mips:         hasMips,
		}
		t.allocate(width, height)
		return t
	})

	if !created && (t.width != width || t.height != height) {
		t.allocate(width, height)
	}

	return t
}

// CreateFromPixels allocates a repeating texture from 8 bit data. Missing
// colour channels read as 0 and a missing alpha as 1.
func (m *TextureManager) CreateFromPixels(name string, width, height, channels int, pixels []byte, hasMips bool) gfx.Texture {
	log := m.backend.log

	if channels < 1 || channels > 4 {
		log.Errorf("Texture %q has %d channels, want 1 to 4", name, channels)
		channels = max(1, min(channels, 4))
	}
	if want := width * height * channels; len(pixels) < want {
		log.Warnf("Texture %q has %d bytes of pixel data, want %d", name, len(pixels), want)
	}

	t := m.Create(name, width, height, false, false, hasMips).(*Texture)
	t.repeat = true

	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			c := mgl32.Vec4{0, 0, 0, 1}
			i := (y*t.width + x) * channels
			for ch := 0; ch < channels && i+ch < len(pixels); ch++ {
				c[ch] = float32(pixels[i+ch]) / 255
			}
			t.Set(x, y, c)
		}
	}

	return t
}

// Resize reallocates tex. Resizing to the current size keeps the contents.
func (m *TextureManager) Resize(tex gfx.Texture, width, height int) {
	t, ok := tex.(*Texture)
	if !ok || t == nil {
		m.backend.log.Warn("Resizing a texture that does not belong to the software device")
		return
	}
	if width <= 0 || height <= 0 {
		m.backend.log.Warnf("Ignoring resize of %q to %dx%d", t.name, width, height)
		return
	}
	if t.width == width && t.height == height {
		return
	}

	t.allocate(width, height)
}

// Drop releases one reference to tex and frees it with the last one.
func (m *TextureManager) Drop(tex gfx.Texture) {
	t, ok := tex.(*Texture)
	if !ok || t == nil {
		m.backend.log.Warn("Dropping a texture that does not belong to the software device")
		return
	}

	_, last, ok := m.textures.Release(t.key)
	if !ok {
		m.backend.log.Warnf("Texture %q dropped more often than created", t.key)
		return
	}
	if last {
		m.backend.forget(t)
		t.pix = nil
		t.depthPix = nil
		t.width, t.height = 0, 0
	}
}

// Lookup returns the live texture registered under name.
func (m *TextureManager) Lookup(name string) (*Texture, bool) {
	return m.textures.Lookup(name)
}

// Len returns the number of live textures.
func (m *TextureManager) Len() int { return m.textures.Len() }

// Refs returns the reference count of the texture named name.
func (m *TextureManager) Refs(name string) int { return m.textures.Refs(name) }
