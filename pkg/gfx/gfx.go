// Package gfx defines the rendering collaborators a post-process stage is
// driven through. Backends (OpenGL, software) implement these interfaces; the
// stages themselves never touch a graphics API directly.
package gfx

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Program is a compiled and linked GPU program.
type Program interface {
	// Name returns the name the program was created under.
	Name() string

	// UseShader makes the program current for subsequent draws.
	UseShader()

	// IsValid reports whether compilation and linking succeeded.
	IsValid() bool

	// SetInt sets an int (or sampler unit) uniform.
	SetInt(name string, v int32)

	// SetFloat sets a float uniform.
	SetFloat(name string, v float32)

	// SetVec2 sets a vec2 uniform.
	SetVec2(name string, v mgl32.Vec2)

	// SetVec3 sets a vec3 uniform.
	SetVec3(name string, v mgl32.Vec3)

	// SetMat4 sets a mat4 uniform.
	SetMat4(name string, m mgl32.Mat4)

	// SetFloats sets an array uniform of count elements with components
	// floats each (1 = float[], 2 = vec2[], 3 = vec3[], 4 = vec4[]).
	SetFloats(name string, values []float32, components, count int)
}

// ShaderManager creates and releases programs by name.
type ShaderManager interface {
	// Create compiles a program from vertex and fragment source. It never
	// returns nil; a program that failed to build reports IsValid() == false.
	// Creating an existing name reuses the program and takes a reference.
	Create(name, vertexSource, fragmentSource string) Program

	// Drop releases one reference to the program.
	Drop(p Program)
}

// Texture is a GPU resident 2D image.
type Texture interface {
	// Name returns the name the texture was created under.
	Name() string

	Width() int
	Height() int

	// UseTexture binds the texture to the given texture unit.
	UseTexture(unit int)
}

// TextureManager creates, resizes and releases textures by name.
type TextureManager interface {
	// Create allocates a texture without initial contents. Float textures
	// hold depth; render target colour textures carry a depth attachment.
	Create(name string, width, height int, isFloat, isRenderTarget, hasMips bool) Texture

	// CreateFromPixels allocates a texture initialised from tightly packed
	// 8 bit pixels with channels components per pixel. Such textures repeat
	// when sampled outside [0, 1].
	CreateFromPixels(name string, width, height, channels int, pixels []byte, hasMips bool) Texture

	// Resize reallocates the texture storage in place. Contents are lost
	// unless the size is unchanged, in which case nothing happens.
	Resize(tex Texture, width, height int)

	// Drop releases one reference to the texture.
	Drop(tex Texture)
}

// Camera exposes the projection parameters post-process stages need.
type Camera interface {
	NearClipDistance() float32
	FarClipDistance() float32
	AspectRatio() float32
}

// GraphicsManager owns render target and pipeline state.
type GraphicsManager interface {
	// SetRenderTarget directs subsequent draws into tex, or into the default
	// framebuffer when tex is nil, optionally clearing colour and depth.
	SetRenderTarget(tex Texture, mipLevel int, clearColor, clearDepth bool)

	// SetDepthTest enables or disables depth testing and depth writes.
	SetDepthTest(enabled bool)

	// Camera returns the active camera.
	Camera() Camera
}

// Mesh is drawable geometry.
type Mesh interface {
	// Render draws the mesh with the current program into the current
	// render target.
	Render(useIndices bool)
}

// Device bundles the managers a stage is constructed with.
type Device struct {
	Shaders  ShaderManager
	Textures TextureManager
	Graphics GraphicsManager
	Timer    *Timer
}
