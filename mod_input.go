package meshpbr

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

type Key int

const (
	KeyEscape Key = iota
	KeyR
	KeyW
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeyShift
	MouseButtonLeft
	MouseButtonRight
	MouseButtonMiddle
	keyCount
)

var keyToGlfw = map[Key]glfw.Key{
	KeyEscape: glfw.KeyEscape,
	KeyR:      glfw.KeyR,
	KeyW:      glfw.KeyW,
	KeyA:      glfw.KeyA,
	KeyS:      glfw.KeyS,
	KeyD:      glfw.KeyD,
	KeyQ:      glfw.KeyQ,
	KeyE:      glfw.KeyE,
	KeyShift:  glfw.KeyLeftShift,
}

var buttonToGlfw = map[Key]glfw.MouseButton{
	MouseButtonLeft:   glfw.MouseButtonLeft,
	MouseButtonRight:  glfw.MouseButtonRight,
	MouseButtonMiddle: glfw.MouseButtonMiddle,
}

// InputModule samples keyboard and mouse state once per frame.
// CloseOnEscape closes the shared window when Escape is pressed.
type InputModule struct {
	CloseOnEscape bool
}

type Input struct {
	Pressed      [keyCount]bool
	JustPressed  [keyCount]bool
	JustReleased [keyCount]bool

	MouseX, MouseY           float64
	MouseDeltaX, MouseDeltaY float64
	// ScrollDelta accumulates wheel movement since the previous frame.
	ScrollDelta float64

	closeOnEscape bool
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	ensureWindowResource(app, 0, 0, "")
	cmd.AddResources(&Input{closeOnEscape: mod.CloseOnEscape})
	app.UseSystem(
		System(inputSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

// setButton advances the pressed/just-pressed/just-released state of one key.
func (input *Input) setButton(key Key, down bool) {
	input.JustPressed[key] = down && !input.Pressed[key]
	input.JustReleased[key] = !down && input.Pressed[key]
	input.Pressed[key] = down
}

func (input *Input) moveMouse(x, y float64) {
	input.MouseDeltaX = x - input.MouseX
	input.MouseDeltaY = y - input.MouseY
	input.MouseX = x
	input.MouseY = y
}

func inputSystem(ws *WindowState, input *Input) {
	win := ws.windowGlfw
	if win == nil {
		return
	}

	for key, glfwKey := range keyToGlfw {
		input.setButton(key, win.GetKey(glfwKey) == glfw.Press)
	}
	for key, glfwButton := range buttonToGlfw {
		input.setButton(key, win.GetMouseButton(glfwButton) == glfw.Press)
	}

	input.moveMouse(win.GetCursorPos())

	input.ScrollDelta = ws.scrollY
	ws.scrollY = 0

	if input.closeOnEscape && input.JustPressed[KeyEscape] {
		ws.Close()
	}
}
