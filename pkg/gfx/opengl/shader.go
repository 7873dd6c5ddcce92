package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	lru "github.com/hashicorp/golang-lru/v2"

	"occlusion/internal/logger"
	"occlusion/pkg/gfx"
)

const locationCacheSize = 64

// Program is a linked GL program. Uniforms are written with the
// glProgramUniform family, so the program does not need to be current.
type Program struct {
	manager *ShaderManager

	name string
	key  string
	id   uint32

	locations *lru.Cache[string, int32]
}

func (p *Program) Name() string { return p.name }

func (p *Program) UseShader() {
	gl.UseProgram(p.id)
}

func (p *Program) IsValid() bool { return p.id != 0 }

// location looks up a uniform location, caching hits and misses.
func (p *Program) location(name string) int32 {
	if p.id == 0 {
		return -1
	}
	if loc, ok := p.locations.Get(name); ok {
		return loc
	}

	loc := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	if loc < 0 {
		p.manager.log.Debugf("Program %q has no active uniform %q", p.name, name)
	}
	p.locations.Add(name, loc)

	return loc
}

func (p *Program) SetInt(name string, v int32) {
	if loc := p.location(name); loc >= 0 {
		gl.ProgramUniform1i(p.id, loc, v)
	}
}

func (p *Program) SetFloat(name string, v float32) {
	if loc := p.location(name); loc >= 0 {
		gl.ProgramUniform1f(p.id, loc, v)
	}
}

func (p *Program) SetVec2(name string, v mgl32.Vec2) {
	if loc := p.location(name); loc >= 0 {
		gl.ProgramUniform2f(p.id, loc, v[0], v[1])
	}
}

func (p *Program) SetVec3(name string, v mgl32.Vec3) {
	if loc := p.location(name); loc >= 0 {
		gl.ProgramUniform3f(p.id, loc, v[0], v[1], v[2])
	}
}

func (p *Program) SetMat4(name string, m mgl32.Mat4) {
	if loc := p.location(name); loc >= 0 {
		gl.ProgramUniformMatrix4fv(p.id, loc, 1, false, &m[0])
	}
}

func (p *Program) SetFloats(name string, values []float32, components, count int) {
	if count <= 0 || len(values) < components*count {
		p.manager.log.Warnf("Uniform %q of %q needs %d values, got %d", name, p.name, components*count, len(values))
		return
	}

	loc := p.location(name)
	if loc < 0 {
		return
	}

	switch components {
	case 1:
		gl.ProgramUniform1fv(p.id, loc, int32(count), &values[0])
	case 2:
		gl.ProgramUniform2fv(p.id, loc, int32(count), &values[0])
	case 3:
		gl.ProgramUniform3fv(p.id, loc, int32(count), &values[0])
	case 4:
		gl.ProgramUniform4fv(p.id, loc, int32(count), &values[0])
	default:
		p.manager.log.Warnf("Uniform %q of %q has %d components per element", name, p.name, components)
	}
}

type stageKey struct {
	kind   uint32
	source string
}

// ShaderManager builds GL programs. Compiled stages are cached by source,
// so the full-screen vertex stage shared by every post-process program is
// compiled once. Evicted stages are deleted; GL keeps them alive while a
// program still has them attached.
type ShaderManager struct {
	device   *Device
	log      *logger.Logger
	programs *gfx.Registry[*Program]
	stages   *lru.Cache[stageKey, uint32]
}

func newShaderManager(d *Device, stageCacheSize int) (*ShaderManager, error) {
	stages, err := lru.NewWithEvict[stageKey, uint32](stageCacheSize, func(_ stageKey, shader uint32) {
		gl.DeleteShader(shader)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create shader stage cache: %w", err)
	}

	return &ShaderManager{
		device:   d,
		log:      d.log,
		programs: gfx.NewRegistry[*Program](),
		stages:   stages,
	}, nil
}

// Create returns the program registered under name or compiles and links a
// new one. Build errors are logged and yield an invalid program.
func (m *ShaderManager) Create(name, vertexSource, fragmentSource string) gfx.Program {
	p, key, created := m.programs.Acquire(name, func(key string) *Program {
		locations, _ := lru.New[string, int32](locationCacheSize)
		return &Program{manager: m, name: name, key: key, locations: locations}
	})
	if !created {
		return p
	}

	id, err := m.build(vertexSource, fragmentSource)
	if err != nil {
		m.log.Errorf("Failed to build program %q: %v", key, err)
		return p
	}

	p.id = id
	m.log.Debugf("Built program %q (%d)", key, id)

	return p
}

func (m *ShaderManager) build(vertexSource, fragmentSource string) (uint32, error) {
	vertexShader, err := m.stage(gl.VERTEX_SHADER, vertexSource)
	if err != nil {
		return 0, err
	}

	fragmentShader, err := m.stage(gl.FRAGMENT_SHADER, fragmentSource)
	if err != nil {
		return 0, err
	}

	return linkProgram(vertexShader, fragmentShader)
}

// stage returns the compiled shader for source, compiling it on a miss.
func (m *ShaderManager) stage(kind uint32, source string) (uint32, error) {
	key := stageKey{kind: kind, source: source}
	if shader, ok := m.stages.Get(key); ok {
		return shader, nil
	}

	shader, err := compileShader(source, kind)
	if err != nil {
		return 0, err
	}
	m.stages.Add(key, shader)

	return shader, nil
}

// Drop releases one reference and deletes the program with the last one.
func (m *ShaderManager) Drop(prog gfx.Program) {
	p, ok := prog.(*Program)
	if !ok || p == nil {
		m.log.Warn("Dropping a program that does not belong to the OpenGL device")
		return
	}

	_, last, ok := m.programs.Release(p.key)
	if !ok {
		m.log.Warnf("Program %q dropped more often than created", p.key)
		return
	}
	if last && p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
		p.locations.Purge()
	}
}

// Close deletes the cached shader stages.
func (m *ShaderManager) Close() {
	m.stages.Purge()
}

// linkProgram links a program from compiled stages. The stages stay owned
// by the stage cache and are detached after linking.
func linkProgram(vertexShader, fragmentShader uint32) (uint32, error) {
	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	gl.DetachShader(program, vertexShader)
	gl.DetachShader(program, fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))

		gl.DeleteProgram(program)

		return 0, fmt.Errorf("shader program linking failed: %v", strings.TrimRight(log, "\x00"))
	}

	return program, nil
}

// compileShader compiles a shader from source
func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))

		gl.DeleteShader(shader)

		return 0, fmt.Errorf("%s compilation failed: %v", stageName(shaderType), strings.TrimRight(log, "\x00"))
	}

	return shader, nil
}

func stageName(shaderType uint32) string {
	switch shaderType {
	case gl.VERTEX_SHADER:
		return "vertex shader"
	case gl.FRAGMENT_SHADER:
		return "fragment shader"
	default:
		return "shader"
	}
}
