package app

import (
	"github.com/gekko3d/particlefield/core"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Input turns GLFW mouse events into orbit control deltas: left drag
// rotates, right drag pans, the wheel zooms. Height is the window height in
// screen units, the same units cursor positions arrive in.
type Input struct {
	Controls *core.OrbitControls
	Height   int

	rotating bool
	panning  bool
	hasLast  bool
	lastX    float64
	lastY    float64
}

func NewInput(controls *core.OrbitControls) *Input {
	return &Input{Controls: controls}
}

func (in *Input) MouseButton(button glfw.MouseButton, action glfw.Action) {
	pressed := action == glfw.Press
	switch button {
	case glfw.MouseButtonLeft:
		in.rotating = pressed
	case glfw.MouseButtonRight, glfw.MouseButtonMiddle:
		in.panning = pressed
	default:
		return
	}
	if pressed {
		// Next cursor event only records the anchor.
		in.hasLast = false
	}
}

func (in *Input) CursorPos(x, y float64) {
	if !in.hasLast {
		in.lastX, in.lastY, in.hasLast = x, y, true
		return
	}
	dx, dy := x-in.lastX, y-in.lastY
	in.lastX, in.lastY = x, y

	switch {
	case in.rotating:
		in.Controls.HandleDrag(dx, dy, in.Height, true)
	case in.panning:
		in.Controls.HandleDrag(dx, dy, in.Height, false)
	}
}

func (in *Input) Scroll(yoff float64) {
	in.Controls.HandleScroll(yoff)
}

// Dragging reports whether a mouse button is held over the view.
func (in *Input) Dragging() bool {
	return in.rotating || in.panning
}
