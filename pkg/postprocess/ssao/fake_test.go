package ssao

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"occlusion/pkg/gfx"
)

// recorder collects the pipeline calls of a fake device in order.
type recorder struct {
	calls []string
}

func (r *recorder) add(format string, args ...interface{}) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) reset() { r.calls = nil }

type fakeProgram struct {
	rec   *recorder
	name  string
	valid bool

	ints    map[string]int32
	floats  map[string][]float32
	history map[string][][]float32
}

func (p *fakeProgram) Name() string  { return p.name }
func (p *fakeProgram) UseShader()    { p.rec.add("use %s", p.name) }
func (p *fakeProgram) IsValid() bool { return p.valid }

func (p *fakeProgram) SetInt(name string, v int32) { p.ints[name] = v }

func (p *fakeProgram) set(name string, v []float32) {
	p.floats[name] = v
	p.history[name] = append(p.history[name], v)
}

func (p *fakeProgram) SetFloat(name string, v float32)   { p.set(name, []float32{v}) }
func (p *fakeProgram) SetVec2(name string, v mgl32.Vec2) { p.set(name, v[:]) }
func (p *fakeProgram) SetVec3(name string, v mgl32.Vec3) { p.set(name, v[:]) }
func (p *fakeProgram) SetMat4(name string, m mgl32.Mat4) { p.set(name, m[:]) }

func (p *fakeProgram) SetFloats(name string, values []float32, components, count int) {
	p.set(name, append([]float32(nil), values[:components*count]...))
}

type fakeShaders struct {
	rec      *recorder
	invalid  map[string]bool
	programs map[string]*fakeProgram
	refs     map[string]int
}

func (m *fakeShaders) Create(name, vertexSource, fragmentSource string) gfx.Program {
	m.refs[name]++
	if p, ok := m.programs[name]; ok {
		return p
	}

	p := &fakeProgram{
		rec:     m.rec,
		name:    name,
		valid:   !m.invalid[name] && vertexSource != "" && fragmentSource != "",
		ints:    make(map[string]int32),
		floats:  make(map[string][]float32),
		history: make(map[string][][]float32),
	}
	m.programs[name] = p
	return p
}

func (m *fakeShaders) Drop(p gfx.Program) {
	m.refs[p.Name()]--
}

func (m *fakeShaders) live() int {
	n := 0
	for _, r := range m.refs {
		n += r
	}
	return n
}

type fakeTexture struct {
	rec    *recorder
	name   string
	width  int
	height int

	isFloat        bool
	isRenderTarget bool
	channels       int
	pixels         []byte
	resizes        int
}

func (t *fakeTexture) Name() string        { return t.name }
func (t *fakeTexture) Width() int          { return t.width }
func (t *fakeTexture) Height() int         { return t.height }
func (t *fakeTexture) UseTexture(unit int) { t.rec.add("bind %d %s", unit, t.name) }

type fakeTextures struct {
	rec      *recorder
	textures map[string]*fakeTexture
	refs     map[string]int
	creates  int
	drops    int
	anon     int
}

func (m *fakeTextures) acquire(name string, create func(string) *fakeTexture) *fakeTexture {
	m.creates++
	if name == "" {
		m.anon++
		name = fmt.Sprintf("#%d", m.anon)
	}
	m.refs[name]++
	if t, ok := m.textures[name]; ok {
		return t
	}
	t := create(name)
	m.textures[name] = t
	return t
}

func (m *fakeTextures) Create(name string, width, height int, isFloat, isRenderTarget, hasMips bool) gfx.Texture {
	return m.acquire(name, func(key string) *fakeTexture {
		return &fakeTexture{
			rec:            m.rec,
			name:           key,
			width:          width,
			height:         height,
			isFloat:        isFloat,
			isRenderTarget: isRenderTarget,
		}
	})
}

func (m *fakeTextures) CreateFromPixels(name string, width, height, channels int, pixels []byte, hasMips bool) gfx.Texture {
	return m.acquire(name, func(key string) *fakeTexture {
		return &fakeTexture{
			rec:      m.rec,
			name:     key,
			width:    width,
			height:   height,
			channels: channels,
			pixels:   pixels,
		}
	})
}

func (m *fakeTextures) Resize(tex gfx.Texture, width, height int) {
	t := tex.(*fakeTexture)
	t.width, t.height = width, height
	t.resizes++
}

func (m *fakeTextures) Drop(tex gfx.Texture) {
	m.drops++
	m.refs[tex.Name()]--
}

func (m *fakeTextures) live() int {
	n := 0
	for _, r := range m.refs {
		n += r
	}
	return n
}

type fakeCamera struct{ near, far, aspect float32 }

func (c fakeCamera) NearClipDistance() float32 { return c.near }
func (c fakeCamera) FarClipDistance() float32  { return c.far }
func (c fakeCamera) AspectRatio() float32      { return c.aspect }

type fakeGraphics struct {
	rec    *recorder
	camera gfx.Camera
}

func (g *fakeGraphics) SetRenderTarget(tex gfx.Texture, mipLevel int, clearColor, clearDepth bool) {
	name := "<default>"
	if tex != nil {
		name = tex.Name()
	}
	g.rec.add("target %s %d %v %v", name, mipLevel, clearColor, clearDepth)
}

func (g *fakeGraphics) SetDepthTest(enabled bool) { g.rec.add("depthtest %v", enabled) }
func (g *fakeGraphics) Camera() gfx.Camera        { return g.camera }

type fakeMesh struct{ rec *recorder }

func (m fakeMesh) Render(useIndices bool) { m.rec.add("render %v", useIndices) }

type fakeDevice struct {
	rec      *recorder
	shaders  *fakeShaders
	textures *fakeTextures
	graphics *fakeGraphics
	mesh     fakeMesh
	dev      *gfx.Device
}

func newFakeDevice() *fakeDevice {
	rec := &recorder{}
	f := &fakeDevice{
		rec: rec,
		shaders: &fakeShaders{
			rec:      rec,
			invalid:  make(map[string]bool),
			programs: make(map[string]*fakeProgram),
			refs:     make(map[string]int),
		},
		textures: &fakeTextures{
			rec:      rec,
			textures: make(map[string]*fakeTexture),
			refs:     make(map[string]int),
		},
		graphics: &fakeGraphics{rec: rec, camera: fakeCamera{near: 0.1, far: 100, aspect: 1.5}},
		mesh:     fakeMesh{rec: rec},
	}

	f.dev = &gfx.Device{
		Shaders:  f.shaders,
		Textures: f.textures,
		Graphics: f.graphics,
	}

	return f
}

func (f *fakeDevice) program(name string) *fakeProgram { return f.shaders.programs[name] }
func (f *fakeDevice) texture(name string) *fakeTexture { return f.textures.textures[name] }
