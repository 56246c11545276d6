package meshpbr

// RendererName identifies a concrete renderer module.
// Keep names aligned with ensureSingleRenderer tags.
type RendererName string

const (
	RendererPBR RendererName = "wgpu-pbr"
)

// UseRenderer installs exactly one renderer module and makes sure the shared
// window exists with explicit size and title before the renderer asks for a surface.
//
//	app.UseRenderer(RendererPBR, PbrRendererModule{SplitView: true}, 1280, 720, "viewer")
func (app *App) UseRenderer(name RendererName, mod Module, width, height int, title string) *App {
	ensureSingleRenderer(app, string(name))
	ensureWindowResource(app, width, height, title)
	app.Logger().Infof("Renderer selected: %s", name)
	app.UseModules(mod)
	return app
}

// UsePBR selects the PBR renderer on a window of the given size.
func (app *App) UsePBR(width, height int, title string, splitView bool, iblDirectory string) *App {
	return app.UseRenderer(RendererPBR, PbrRendererModule{
		WindowWidth:  width,
		WindowHeight: height,
		WindowTitle:  title,
		SplitView:    splitView,
		IBLDirectory: iblDirectory,
	}, width, height, title)
}
