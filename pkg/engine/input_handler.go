package engine

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

// inputSource is the part of a window the input handler polls.
type inputSource interface {
	GetKey(key glfw.Key) glfw.Action
	GetMouseButton(button glfw.MouseButton) glfw.Action
	GetCursorPos() (x, y float64)
}

// InputHandler tracks keyboard and mouse state between frames
type InputHandler struct {
	source            inputSource
	keys              []glfw.Key
	currentKeys       map[glfw.Key]bool
	previousKeys      map[glfw.Key]bool
	currentMousePos   [2]float64
	previousMousePos  [2]float64
	currentMouseBtns  map[glfw.MouseButton]bool
	previousMouseBtns map[glfw.MouseButton]bool
	mouseDelta        [2]float64
	mouseWheelDelta   float64
	primed            bool
}

// NewInputHandler creates an input handler polling keys on source
func NewInputHandler(source inputSource, keys ...glfw.Key) *InputHandler {
	return &InputHandler{
		source:            source,
		keys:              keys,
		currentKeys:       make(map[glfw.Key]bool),
		previousKeys:      make(map[glfw.Key]bool),
		currentMouseBtns:  make(map[glfw.MouseButton]bool),
		previousMouseBtns: make(map[glfw.MouseButton]bool),
	}
}

// Attach routes the window's scroll events to the handler
func (ih *InputHandler) Attach(window *glfw.Window) {
	window.SetScrollCallback(func(_ *glfw.Window, _, yoffset float64) {
		ih.Scroll(yoffset)
	})
}

// Scroll accumulates a mouse wheel movement
func (ih *InputHandler) Scroll(yoffset float64) {
	ih.mouseWheelDelta += yoffset
}

// Update polls the source; call it once per frame
func (ih *InputHandler) Update() {
	ih.previousKeys, ih.currentKeys = ih.currentKeys, ih.previousKeys
	for _, key := range ih.keys {
		ih.currentKeys[key] = ih.source.GetKey(key) == glfw.Press
	}

	ih.previousMouseBtns, ih.currentMouseBtns = ih.currentMouseBtns, ih.previousMouseBtns
	for btn := glfw.MouseButton1; btn <= glfw.MouseButtonLast; btn++ {
		ih.currentMouseBtns[btn] = ih.source.GetMouseButton(btn) == glfw.Press
	}

	x, y := ih.source.GetCursorPos()
	ih.previousMousePos = ih.currentMousePos
	ih.currentMousePos = [2]float64{x, y}

	// No delta on the first poll, the cursor did not move from the origin
	if !ih.primed {
		ih.previousMousePos = ih.currentMousePos
		ih.primed = true
	}

	ih.mouseDelta[0] = ih.currentMousePos[0] - ih.previousMousePos[0]
	ih.mouseDelta[1] = ih.currentMousePos[1] - ih.previousMousePos[1]
}

// IsKeyDown reports whether key is held
func (ih *InputHandler) IsKeyDown(key glfw.Key) bool {
	return ih.currentKeys[key]
}

// IsKeyPressed reports whether key went down this frame
func (ih *InputHandler) IsKeyPressed(key glfw.Key) bool {
	return ih.currentKeys[key] && !ih.previousKeys[key]
}

// IsKeyReleased reports whether key went up this frame
func (ih *InputHandler) IsKeyReleased(key glfw.Key) bool {
	return !ih.currentKeys[key] && ih.previousKeys[key]
}

// IsMouseButtonDown reports whether button is held
func (ih *InputHandler) IsMouseButtonDown(button glfw.MouseButton) bool {
	return ih.currentMouseBtns[button]
}

// GetMouseDelta returns the cursor movement since the previous frame
func (ih *InputHandler) GetMouseDelta() [2]float64 {
	return ih.mouseDelta
}

// GetMouseWheelDelta returns and resets the accumulated wheel movement
func (ih *InputHandler) GetMouseWheelDelta() float64 {
	delta := ih.mouseWheelDelta
	ih.mouseWheelDelta = 0
	return delta
}
