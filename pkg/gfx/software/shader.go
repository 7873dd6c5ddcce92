package software

import (
	"github.com/go-gl/mathgl/mgl32"

	"occlusion/pkg/gfx"
)

// Program is a fragment kernel together with its uniform values.
type Program struct {
	manager *ShaderManager

	name string
	key  string

	vertexSource   string
	fragmentSource string
	kernel         FragmentFunc

	ints   map[string]int32
	floats map[string][]float32
	mats   map[string]mgl32.Mat4
}

func (p *Program) Name() string { return p.name }

// UseShader makes p the program subsequent draws run.
func (p *Program) UseShader() { p.manager.backend.use(p) }

// IsValid reports whether a kernel is registered for the fragment source.
func (p *Program) IsValid() bool { return p.kernel != nil }

func (p *Program) SetInt(name string, v int32) {
	p.ints[name] = v
}

func (p *Program) SetFloat(name string, v float32) {
	p.floats[name] = []float32{v}
}

func (p *Program) SetVec2(name string, v mgl32.Vec2) {
	p.floats[name] = []float32{v[0], v[1]}
}

func (p *Program) SetVec3(name string, v mgl32.Vec3) {
	p.floats[name] = []float32{v[0], v[1], v[2]}
}

func (p *Program) SetMat4(name string, m mgl32.Mat4) {
	p.mats[name] = m
}

// SetFloats copies components*count values. Short slices are zero padded.
func (p *Program) SetFloats(name string, values []float32, components, count int) {
	n := max(components*count, 0)
	buf := make([]float32, n)
	copy(buf, values)
	p.floats[name] = buf
}

// Uniform returns the float values stored for name.
func (p *Program) Uniform(name string) ([]float32, bool) {
	v, ok := p.floats[name]
	return v, ok
}

// IntUniform returns the int value stored for name.
func (p *Program) IntUniform(name string) (int32, bool) {
	v, ok := p.ints[name]
	return v, ok
}

// ShaderManager creates software programs. Programs are shared by name.
type ShaderManager struct {
	backend  *Backend
	programs *gfx.Registry[*Program]
}

// Create returns the program registered under name or builds one. A program
// whose fragment source has no registered kernel is returned invalid.
func (m *ShaderManager) Create(name, vertexSource, fragmentSource string) gfx.Program {
	log := m.backend.log

	p, _, created := m.programs.Acquire(name, func(key string) *Program {
		return &Program{
			manager:        m,
			name:           name,
			key:            key,
			vertexSource:   vertexSource,
			fragmentSource: fragmentSource,
			kernel:         m.backend.kernels[fragmentSource],
			ints:           make(map[string]int32),
			floats:         make(map[string][]float32),
			mats:           make(map[string]mgl32.Mat4),
		}
	})

	if !created {
		if p.fragmentSource != fragmentSource || p.vertexSource != vertexSource {
			log.Warnf("Program %q already exists with different sources, reusing it", name)
		}
		return p
	}

	if p.kernel == nil {
		log.Errorf("No kernel registered for the fragment source of program %q", name)
	} else {
		log.Debugf("Created program %q", p.key)
	}

	return p
}

// Drop releases one reference to prog.
func (m *ShaderManager) Drop(prog gfx.Program) {
	p, ok := prog.(*Program)
	if !ok || p == nil {
		m.backend.log.Warn("Dropping a program that does not belong to the software device")
		return
	}

	_, last, ok := m.programs.Release(p.key)
	if !ok {
		m.backend.log.Warnf("Program %q dropped more often than created", p.key)
		return
	}
	if last && m.backend.program == p {
		m.backend.program = nil
	}
}

// Len returns the number of live programs.
func (m *ShaderManager) Len() int { return m.programs.Len() }

// Refs returns the reference count of the program named name.
func (m *ShaderManager) Refs(name string) int { return m.programs.Refs(name) }
