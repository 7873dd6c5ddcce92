package software

import (
	"github.com/go-gl/mathgl/mgl32"
)

// FragmentFunc computes the colour of one fragment. It plays the role of a
// fragment shader's main function.
type FragmentFunc func(f *Fragment) mgl32.Vec4

// Fragment is the per texel input of a FragmentFunc.
type Fragment struct {
	// X and Y are the window coordinates of the texel, Y = 0 at the bottom.
	X, Y int

	// TexCoord is the interpolated full-screen texture coordinate, the centre
	// of the texel in [0, 1].
	TexCoord mgl32.Vec2

	// Depth is the depth written when depth testing is enabled. It starts at
	// 0.5, the window depth of a quad drawn at z = 0.
	Depth float32

	program   *Program
	backend   *Backend
	discarded bool
}

// Discard drops the fragment.
func (f *Fragment) Discard() { f.discarded = true }

func (f *Fragment) Int(name string) int32 { return f.program.ints[name] }

func (f *Fragment) Float(name string) float32 {
	if v := f.program.floats[name]; len(v) > 0 {
		return v[0]
	}
	return 0
}

func (f *Fragment) Vec2(name string) mgl32.Vec2 {
	var v mgl32.Vec2
	copy(v[:], f.program.floats[name])
	return v
}

func (f *Fragment) Vec3(name string) mgl32.Vec3 {
	var v mgl32.Vec3
	copy(v[:], f.program.floats[name])
	return v
}

func (f *Fragment) Mat4(name string) mgl32.Mat4 {
	if m, ok := f.program.mats[name]; ok {
		return m
	}
	return mgl32.Ident4()
}

// Floats returns the raw values of an array uniform.
func (f *Fragment) Floats(name string) []float32 { return f.program.floats[name] }

// Texture samples the texture bound to the unit held by the sampler uniform.
// Unbound units read as opaque black.
func (f *Fragment) Texture(sampler string, uv mgl32.Vec2) mgl32.Vec4 {
	t := f.backend.Bound(int(f.program.ints[sampler]))
	if t == nil {
		return mgl32.Vec4{0, 0, 0, 1}
	}
	return t.Sample(uv)
}
