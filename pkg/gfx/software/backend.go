// Package software implements the gfx contracts on the CPU. Fragment programs
// are Go functions looked up by their fragment source, so the same stage that
// runs on the GPU can be rendered headless and inspected texel by texel.
package software

import (
	"github.com/go-gl/mathgl/mgl32"

	"occlusion/internal/logger"
	"occlusion/pkg/gfx"
)

// MaxTextureUnits is the number of texture units a program can sample from.
const MaxTextureUnits = 16

// Options configures a Backend.
type Options struct {
	// Width and Height size the default framebuffer.
	Width  int
	Height int

	// Camera returned by Camera(). Defaults to a 60 degree perspective camera
	// with near 0.1 and far 100.
	Camera gfx.Camera

	// Kernels maps fragment source to the Go function that runs it.
	Kernels map[string]FragmentFunc

	// Timer handed out through Device. Defaults to the wall clock.
	Timer *gfx.Timer

	Log *logger.Logger
}

// Backend is the graphics manager of the software device. It owns the
// texture units, the current program and the current render target.
type Backend struct {
	log     *logger.Logger
	camera  gfx.Camera
	timer   *gfx.Timer
	kernels map[string]FragmentFunc

	shaders  *ShaderManager
	textures *TextureManager

	units      [MaxTextureUnits]*Texture
	program    *Program
	target     *Texture
	backbuffer *Texture
	depthTest  bool
	clearColor mgl32.Vec4
}

// New creates a software backend.
func New(opts Options) *Backend {
	b := &Backend{
		log:        opts.Log,
		camera:     opts.Camera,
		timer:      opts.Timer,
		kernels:    make(map[string]FragmentFunc, len(opts.Kernels)),
		clearColor: mgl32.Vec4{0, 0, 0, 1},
	}

	if b.log == nil {
		b.log = logger.Discard()
	}
	if b.camera == nil {
		aspect := float32(1)
		if opts.Height > 0 {
			aspect = float32(opts.Width) / float32(opts.Height)
		}
		b.camera = gfx.NewPerspectiveCamera(60, aspect, 0.1, 100, mgl32.Vec3{0, 0, 5}, mgl32.Vec3{})
	}
	if b.timer == nil {
		b.timer = gfx.NewTimer()
	}
	for src, fn := range opts.Kernels {
		b.kernels[src] = fn
	}

	b.shaders = &ShaderManager{backend: b, programs: gfx.NewRegistry[*Program]()}
	b.textures = &TextureManager{backend: b, textures: gfx.NewRegistry[*Texture]()}

	b.backbuffer = &Texture{backend: b, name: "backbuffer", renderTarget: true}
	b.backbuffer.allocate(max(opts.Width, 0), max(opts.Height, 0))

	return b
}

// Device bundles the backend's managers.
func (b *Backend) Device() *gfx.Device {
	return &gfx.Device{
		Shaders:  b.shaders,
		Textures: b.textures,
		Graphics: b,
		Timer:    b.timer,
	}
}

// Shaders returns the program manager.
func (b *Backend) Shaders() *ShaderManager { return b.shaders }

// Textures returns the texture manager.
func (b *Backend) Textures() *TextureManager { return b.textures }

// Backbuffer returns the default framebuffer.
func (b *Backend) Backbuffer() *Texture { return b.backbuffer }

// RegisterKernel adds or replaces the Go function run for fragment source.
// Programs created afterwards pick it up.
func (b *Backend) RegisterKernel(source string, fn FragmentFunc) {
	b.kernels[source] = fn
}

// SetRenderTarget directs draws into tex, the backbuffer when tex is nil.
// Only mip level 0 is stored; other levels are ignored.
func (b *Backend) SetRenderTarget(tex gfx.Texture, mipLevel int, clearColor, clearDepth bool) {
	target := b.backbuffer
	if tex != nil {
		t, ok := tex.(*Texture)
		if !ok {
			b.log.Warnf("Render target %q does not belong to the software device", tex.Name())
			return
		}
		target = t
	}

	if mipLevel != 0 {
		b.log.Debugf("Mip level %d of %q is not stored, drawing into level 0", mipLevel, target.name)
	}

	b.target = target

	if clearColor && !target.depth {
		target.Fill(b.clearColor)
	}
	if clearDepth {
		if target.depth {
			target.Fill(mgl32.Vec4{1})
		}
		for i := range target.depthPix {
			target.depthPix[i] = 1
		}
	}
}

// SetDepthTest enables depth testing and depth writes.
func (b *Backend) SetDepthTest(enabled bool) {
	b.depthTest = enabled
}

// DepthTest reports whether depth testing is enabled.
func (b *Backend) DepthTest() bool { return b.depthTest }

func (b *Backend) Camera() gfx.Camera { return b.camera }

// Target returns the current render target.
func (b *Backend) Target() *Texture {
	if b.target == nil {
		return b.backbuffer
	}
	return b.target
}

// Bound returns the texture bound to unit, nil if none.
func (b *Backend) Bound(unit int) *Texture {
	if unit < 0 || unit >= MaxTextureUnits {
		return nil
	}
	return b.units[unit]
}

func (b *Backend) bind(unit int, t *Texture) {
	if unit < 0 || unit >= MaxTextureUnits {
		b.log.Warnf("Texture unit %d out of range for %q", unit, t.name)
		return
	}
	b.units[unit] = t
}

func (b *Backend) use(p *Program) {
	b.program = p
}

// forget clears every reference the pipeline state holds to t.
func (b *Backend) forget(t *Texture) {
	for i, u := range b.units {
		if u == t {
			b.units[i] = nil
		}
	}
	if b.target == t {
		b.target = nil
	}
}

// draw runs the current program once per texel of the current target.
// Colour is quantized to 8 bits as it would be in an RGBA8 attachment.
// Depth is written only with depth testing on, and a fragment is kept only
// when it is closer than what the target already holds.
func (b *Backend) draw() {
	p := b.program
	if p == nil {
		b.log.Warn("Draw without a program")
		return
	}
	if !p.IsValid() {
		b.log.Warnf("Draw with invalid program %q", p.name)
		return
	}

	target := b.Target()
	w, h := target.width, target.height

	f := Fragment{program: p, backend: b}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.X, f.Y = x, y
			f.TexCoord = mgl32.Vec2{(float32(x) + 0.5) / float32(w), (float32(y) + 0.5) / float32(h)}
			f.Depth = 0.5
			f.discarded = false

			color := p.kernel(&f)
			if f.discarded {
				continue
			}

			if b.depthTest {
				if !b.depthPass(target, x, y, f.Depth) {
					continue
				}
			}

			if !target.depth {
				target.Set(x, y, quantize(color))
			}
		}
	}
}

func (b *Backend) depthPass(target *Texture, x, y int, depth float32) bool {
	i := y*target.width + x

	switch {
	case target.depth:
		if depth >= target.pix[i] {
			return false
		}
		target.pix[i] = depth
	case target.depthPix != nil:
		if depth >= target.depthPix[i] {
			return false
		}
		target.depthPix[i] = depth
	}

	return true
}
