package meshpbr

import (
	"reflect"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	defaultWindowWidth  = 1280
	defaultWindowHeight = 720
	defaultWindowTitle  = "meshpbr"
)

type WindowState struct {
	windowGlfw  *glfw.Window
	windowTitle string

	WindowWidth  int
	WindowHeight int
	// Framebuffer size in pixels; differs from the window size on HiDPI displays.
	FramebufferWidth  int
	FramebufferHeight int
	// Resized is set by the framebuffer callback and cleared by the renderer.
	Resized bool

	scrollY float64
}

// PlatformWindowModule ensures a single shared GLFW window (WindowState) is created
// and made available as a resource for the renderer and input modules.
// Install is idempotent: an existing WindowState resource is reused.
type PlatformWindowModule struct {
	Width  int
	Height int
	Title  string
}

func windowDefaults(width, height int, title string) (int, int, string) {
	if width <= 0 {
		width = defaultWindowWidth
	}
	if height <= 0 {
		height = defaultWindowHeight
	}
	if title == "" {
		title = defaultWindowTitle
	}
	return width, height, title
}

func (m PlatformWindowModule) Install(app *App, cmd *Commands) {
	ensureWindowResource(app, m.Width, m.Height, m.Title)
}

// ensureWindowResource guarantees a single shared WindowState exists and that
// its event pump and close handling are scheduled exactly once.
func ensureWindowResource(app *App, width, height int, title string) *WindowState {
	t := reflect.TypeOf((*WindowState)(nil)).Elem()
	if res, ok := app.resources[t]; ok {
		return res.(*WindowState)
	}
	width, height, title = windowDefaults(width, height, title)

	ws := createWindowState(width, height, title)
	app.addResources(ws)
	app.UseSystem(
		System(windowEventsSystem).
			InStage(Prelude).
			RunAlways(),
	)
	app.Logger().Infof("Created shared window (%dx%d) '%s'", width, height, title)
	return ws
}

func createWindowState(windowWidth int, windowHeight int, windowTitle string) *WindowState {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		panic(err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // no OpenGL context, wgpu owns the surface
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		panic(err)
	}

	ws := &WindowState{
		windowGlfw:   win,
		windowTitle:  windowTitle,
		WindowWidth:  windowWidth,
		WindowHeight: windowHeight,
	}
	ws.FramebufferWidth, ws.FramebufferHeight = win.GetFramebufferSize()

	win.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		ws.FramebufferWidth = width
		ws.FramebufferHeight = height
		ws.Resized = true
	})
	win.SetSizeCallback(func(w *glfw.Window, width, height int) {
		ws.WindowWidth = width
		ws.WindowHeight = height
	})
	win.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		ws.scrollY += yoff
	})
	return ws
}

// AspectRatio of the framebuffer; 1 while minimized.
func (ws *WindowState) AspectRatio() float32 {
	if ws.FramebufferWidth <= 0 || ws.FramebufferHeight <= 0 {
		return 1
	}
	return float32(ws.FramebufferWidth) / float32(ws.FramebufferHeight)
}

func (ws *WindowState) Close() {
	ws.windowGlfw.SetShouldClose(true)
}

func (ws *WindowState) destroy() {
	if ws.windowGlfw == nil {
		return
	}
	ws.windowGlfw.Destroy()
	ws.windowGlfw = nil
	glfw.Terminate()
}

func windowEventsSystem(ws *WindowState, cmd *Commands) {
	if ws.windowGlfw == nil {
		return
	}
	glfw.PollEvents()
	if ws.windowGlfw.ShouldClose() {
		cmd.Exit()
	}
}
