package postprocess

import (
	_ "embed"
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"occlusion/pkg/gfx"
	"occlusion/pkg/gfx/software"
)

//go:embed shaders/copy.frag.glsl
var copyFragment string

// ErrCopyInvalid is returned when the copy program fails to build.
var ErrCopyInvalid = errors.New("postprocess: copy program invalid")

// Copy draws a texture into a render target unchanged. Hosts use it to show
// a scene target while its post-process stage is switched off.
type Copy struct {
	dev  *gfx.Device
	prog gfx.Program
}

// NewCopy builds the copy program under name.
func NewCopy(dev *gfx.Device, name string) (*Copy, error) {
	prog := dev.Shaders.Create(name, VertexShader, copyFragment)
	prog.SetInt("uTexture", 0)

	c := &Copy{dev: dev, prog: prog}
	if !prog.IsValid() {
		return c, ErrCopyInvalid
	}

	return c, nil
}

// Apply draws src into dst.
func (c *Copy) Apply(src, dst gfx.Texture, mesh gfx.Mesh) {
	c.dev.Graphics.SetDepthTest(false)
	c.dev.Graphics.SetRenderTarget(dst, 0, false, false)
	c.prog.UseShader()
	src.UseTexture(0)
	mesh.Render(false)
}

// Destroy releases the copy program.
func (c *Copy) Destroy() {
	if c.prog != nil {
		c.dev.Shaders.Drop(c.prog)
		c.prog = nil
	}
}

// Kernels returns the software kernels of the programs in this package.
func Kernels() map[string]software.FragmentFunc {
	return map[string]software.FragmentFunc{
		copyFragment: func(f *software.Fragment) mgl32.Vec4 {
			c := f.Texture("uTexture", f.TexCoord)
			return mgl32.Vec4{c[0], c[1], c[2], 1}
		},
	}
}
