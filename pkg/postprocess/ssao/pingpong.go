package ssao

import (
	"fmt"

	"occlusion/pkg/gfx"
)

// pingPong tracks which of two equally sized textures holds the current AO
// term. Each blur pass reads the current slot and writes the other one.
type pingPong struct {
	slots [2]gfx.Texture
	read  int
}

// start returns the texture the occlusion pass writes and makes it current.
func (p *pingPong) start() gfx.Texture {
	p.read = 0
	return p.slots[0]
}

// step returns the source and destination of the next blur pass and flips
// the current slot to the destination.
func (p *pingPong) step() (src, dst gfx.Texture, err error) {
	src = p.slots[p.read]
	dst = p.slots[1-p.read]

	if src == nil || dst == nil {
		return nil, nil, fmt.Errorf("%w: missing AO buffer", ErrNotInitialized)
	}
	if src == dst {
		return nil, nil, fmt.Errorf("%w: %q", ErrAliasedBuffers, src.Name())
	}

	p.read = 1 - p.read
	return src, dst, nil
}

// current returns the texture holding the latest AO term.
func (p *pingPong) current() gfx.Texture {
	return p.slots[p.read]
}

func (p *pingPong) clear() {
	p.slots = [2]gfx.Texture{}
	p.read = 0
}
