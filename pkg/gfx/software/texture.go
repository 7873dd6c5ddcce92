package software

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"occlusion/internal/util"
)

// Texture is a CPU resident image. Depth textures store one float per texel,
// all others store RGBA. Row 0 is the bottom row, matching texture
// coordinates where (0, 0) is the bottom left corner.
type Texture struct {
	backend *Backend

	name string
	key  string

	width  int
	height int

	depth        bool // single channel float depth
	renderTarget bool // colour target with its own depth attachment
	repeat       bool // wrap instead of clamp outside [0, 1]
	mips         bool

	pix      []float32
	depthPix []float32 // depth attachment of render targets
}

func (t *Texture) Name() string { return t.name }
func (t *Texture) Width() int   { return t.width }
func (t *Texture) Height() int  { return t.height }

// UseTexture binds the texture to unit.
func (t *Texture) UseTexture(unit int) {
	t.backend.bind(unit, t)
}

// IsDepth reports whether the texture holds depth values.
func (t *Texture) IsDepth() bool { return t.depth }

func (t *Texture) components() int {
	if t.depth {
		return 1
	}
	return 4
}

func (t *Texture) allocate(width, height int) {
	t.width = width
	t.height = height
	t.pix = make([]float32, width*height*t.components())

	if t.renderTarget && !t.depth {
		t.depthPix = make([]float32, width*height)
	} else {
		t.depthPix = nil
	}
}

// At returns the texel at (x, y). Depth textures return (d, 0, 0, 1).
func (t *Texture) At(x, y int) mgl32.Vec4 {
	if t.depth {
		return mgl32.Vec4{t.pix[y*t.width+x], 0, 0, 1}
	}

	i := (y*t.width + x) * 4
	return mgl32.Vec4{t.pix[i], t.pix[i+1], t.pix[i+2], t.pix[i+3]}
}

// Set stores v at (x, y). Depth textures keep only the first component.
func (t *Texture) Set(x, y int, v mgl32.Vec4) {
	if t.depth {
		t.pix[y*t.width+x] = v[0]
		return
	}

	i := (y*t.width + x) * 4
	copy(t.pix[i:i+4], v[:])
}

// Fill stores v in every texel.
func (t *Texture) Fill(v mgl32.Vec4) {
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			t.Set(x, y, v)
		}
	}
}

// Sample reads the texture at uv the way a GPU sampler would: depth textures
// use nearest filtering, colour textures bilinear; static textures repeat and
// targets clamp to the edge.
func (t *Texture) Sample(uv mgl32.Vec2) mgl32.Vec4 {
	if t.width == 0 || t.height == 0 {
		return mgl32.Vec4{0, 0, 0, 1}
	}

	u, v := finite(uv[0]), finite(uv[1])
	if t.repeat {
		u -= math.Floor(u)
		v -= math.Floor(v)
	} else {
		u = util.Clamp(u, 0, 1)
		v = util.Clamp(v, 0, 1)
	}

	if t.depth {
		x := min(int(u*float64(t.width)), t.width-1)
		y := min(int(v*float64(t.height)), t.height-1)
		return t.At(x, y)
	}

	fx := u*float64(t.width) - 0.5
	fy := v*float64(t.height) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	ax := float32(fx - float64(x0))
	ay := float32(fy - float64(y0))

	c00 := t.At(t.wrapX(x0), t.wrapY(y0))
	c10 := t.At(t.wrapX(x0+1), t.wrapY(y0))
	c01 := t.At(t.wrapX(x0), t.wrapY(y0+1))
	c11 := t.At(t.wrapX(x0+1), t.wrapY(y0+1))

	bottom := c00.Mul(1 - ax).Add(c10.Mul(ax))
	top := c01.Mul(1 - ax).Add(c11.Mul(ax))

	return bottom.Mul(1 - ay).Add(top.Mul(ay))
}

// finite widens c, mapping NaN and infinities to 0 so they address a texel.
func finite(c float32) float64 {
	f := float64(c)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func (t *Texture) wrapX(x int) int { return wrap(x, t.width, t.repeat) }
func (t *Texture) wrapY(y int) int { return wrap(y, t.height, t.repeat) }

func wrap(i, n int, repeat bool) int {
	if repeat {
		i %= n
		if i < 0 {
			i += n
		}
		return i
	}
	return max(0, min(i, n-1))
}

// Image converts the texture to an 8 bit image with row 0 at the top.
func (t *Texture) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, t.width, t.height))

	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			c := t.At(x, y)
			if t.depth {
				c = mgl32.Vec4{c[0], c[0], c[0], 1}
			}

			img.SetNRGBA(x, t.height-1-y, color.NRGBA{
				R: unorm8(c[0]),
				G: unorm8(c[1]),
				B: unorm8(c[2]),
				A: unorm8(c[3]),
			})
		}
	}

	return img
}

func unorm8(v float32) uint8 {
	return uint8(math.Round(util.Clamp(float64(v), 0, 1) * 255))
}

// quantize rounds v to the precision of an 8 bit unorm channel.
func quantize(v mgl32.Vec4) mgl32.Vec4 {
	for i := range v {
		v[i] = float32(unorm8(v[i])) / 255
	}
	return v
}
