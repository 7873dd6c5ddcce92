// Package postprocess holds what full-screen post-process stages share: the
// stage lifecycle, the full-screen vertex stage and a copy pass.
package postprocess

import (
	_ "embed"

	"occlusion/pkg/gfx"
)

// VertexShader is the full-screen quad vertex stage every post-process
// program is linked with. It passes vTexCoord through to the fragment stage.
//
//go:embed shaders/fullscreen.vert.glsl
var VertexShader string

// Effect is a post-process stage driven once per frame by the host.
type Effect interface {
	// Init builds the stage's programs and textures for a width x height
	// viewport.
	Init(width, height int) error

	// Resize follows a viewport size change.
	Resize(width, height int)

	// Enable switches the stage's optional inputs on or off.
	Enable(enable bool)

	// Apply runs the stage, writing its result into target (nil for the
	// default framebuffer) by drawing mesh.
	Apply(target gfx.Texture, mesh gfx.Mesh) error

	// Destroy releases everything Init allocated.
	Destroy()
}
