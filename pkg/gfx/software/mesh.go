package software

// Quad is a full-screen quad. Rendering it runs the current program over
// every texel of the current render target.
type Quad struct {
	backend *Backend
}

// NewQuad creates a full-screen quad drawn by b.
func NewQuad(b *Backend) *Quad {
	return &Quad{backend: b}
}

// Render draws the quad. The quad has no index buffer worth using, so
// useIndices does not change the result.
func (q *Quad) Render(useIndices bool) {
	q.backend.draw()
}
