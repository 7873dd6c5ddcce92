package opengl

import (
	"github.com/go-gl/gl/v4.1-core/gl"
)

// Quad is a full-screen quad in clip space. Attribute 0 is the position,
// attribute 1 the texture coordinate with (0, 0) at the bottom left.
type Quad struct {
	vao uint32
	vbo uint32
	ebo uint32
}

// NewQuad uploads the quad. It needs a current GL context.
func NewQuad() *Quad {
	vertices := []float32{
		// Positions  // Texture coords
		-1.0, -1.0, 0.0, 0.0,
		1.0, -1.0, 1.0, 0.0,
		1.0, 1.0, 1.0, 1.0,
		-1.0, 1.0, 0.0, 1.0,
	}
	indices := []uint32{0, 1, 2, 2, 3, 0}

	q := &Quad{}

	gl.GenVertexArrays(1, &q.vao)
	gl.GenBuffers(1, &q.vbo)
	gl.GenBuffers(1, &q.ebo)

	gl.BindVertexArray(q.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, q.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, q.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	// Position attribute
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	// Texture coord attribute
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 4*4, gl.PtrOffset(2*4))
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)

	return q
}

// Render draws the quad as two indexed triangles or as a triangle fan.
func (q *Quad) Render(useIndices bool) {
	gl.BindVertexArray(q.vao)
	if useIndices {
		gl.DrawElements(gl.TRIANGLES, 6, gl.UNSIGNED_INT, gl.PtrOffset(0))
	} else {
		gl.DrawArrays(gl.TRIANGLE_FAN, 0, 4)
	}
	gl.BindVertexArray(0)
}

// Close deletes the quad's buffers.
func (q *Quad) Close() {
	gl.DeleteVertexArrays(1, &q.vao)
	gl.DeleteBuffers(1, &q.vbo)
	gl.DeleteBuffers(1, &q.ebo)
}
