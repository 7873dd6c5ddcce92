package gfx

import "github.com/go-gl/mathgl/mgl32"

// PerspectiveCamera is a look-at camera with a perspective projection.
type PerspectiveCamera struct {
	FovY     float32 // vertical field of view in degrees
	Aspect   float32
	Near     float32
	Far      float32
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
}

// NewPerspectiveCamera creates a camera at position looking at target with +Y up.
func NewPerspectiveCamera(fovY, aspect, near, far float32, position, target mgl32.Vec3) *PerspectiveCamera {
	return &PerspectiveCamera{
		FovY:     fovY,
		Aspect:   aspect,
		Near:     near,
		Far:      far,
		Position: position,
		Target:   target,
		Up:       mgl32.Vec3{0, 1, 0},
	}
}

func (c *PerspectiveCamera) NearClipDistance() float32 { return c.Near }
func (c *PerspectiveCamera) FarClipDistance() float32  { return c.Far }
func (c *PerspectiveCamera) AspectRatio() float32      { return c.Aspect }

// SetAspectRatio follows a viewport resize. Zero heights are ignored.
func (c *PerspectiveCamera) SetAspectRatio(width, height int) {
	if height <= 0 || width <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

// Projection returns the projection matrix.
func (c *PerspectiveCamera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}

// View returns the view matrix.
func (c *PerspectiveCamera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// ViewProjection returns Projection * View.
func (c *PerspectiveCamera) ViewProjection() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}
