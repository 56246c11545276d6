package meshpbr

import (
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/meshpbr/ibl"
	"github.com/gekko3d/meshpbr/material"
)

const (
	frameUniformsSize  = 272
	objectUniformsSize = 128

	viewCount = 4
)

// PbrRendererModule draws every RenderableComponent with its material's
// pipeline, lit by the first directional light and an optional IBL.
type PbrRendererModule struct {
	WindowWidth  int
	WindowHeight int
	WindowTitle  string
	// SplitView renders the main camera plus top, front and side views.
	SplitView bool
	// IBLDirectory holds a cmgen sh.txt. Empty or unreadable means no ambient light.
	IBLDirectory string
}

type frameUniforms struct {
	ViewProj       mgl32.Mat4
	CameraPosition mgl32.Vec4
	LightDirection mgl32.Vec4
	LightColor     mgl32.Vec4
	Params         mgl32.Vec4
	SH             [ibl.Coefficients][4]float32
}

type objectUniforms struct {
	Model        mgl32.Mat4
	NormalMatrix mgl32.Mat4
}

type viewTarget struct {
	uniforms  frameUniforms
	buffer    *wgpu.Buffer
	bindGroup *wgpu.BindGroup
}

type meshBuffers struct {
	version    uint
	vertexBuf  *wgpu.Buffer
	indexBuf   *wgpu.Buffer
	indexCount uint32
	hasUV      bool
}

type gpuTexture struct {
	version uint
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

type materialPipeline struct {
	pipeline     *wgpu.RenderPipeline
	paramsLayout *wgpu.BindGroupLayout
}

type instanceBindGroup struct {
	version   uint
	bindGroup *wgpu.BindGroup
}

type objectBinding struct {
	buffer    *wgpu.Buffer
	bindGroup *wgpu.BindGroup
}

type drawCall struct {
	pipeline *materialPipeline
	params   *wgpu.BindGroup
	object   *objectBinding
	mesh     *meshBuffers
}

type pbrRenderState struct {
	gpu       *GpuState
	layouts   pbrLayouts
	splitView bool
	env       *ibl.Environment

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView
	depthWidth   uint32
	depthHeight  uint32

	views     [viewCount]viewTarget
	pipelines map[AssetId]*materialPipeline
	meshes    map[AssetId]*meshBuffers
	textures  map[AssetId]*gpuTexture
	samplers  map[TextureSampler]*wgpu.Sampler
	instances map[AssetId]*instanceBindGroup
	objects   map[EntityId]*objectBinding
	draws     []drawCall
	// assets already reported as undrawable
	warned map[AssetId]bool
}

func (mod PbrRendererModule) Install(app *App, cmd *Commands) {
	ensureSingleRenderer(app, string(RendererPBR))
	ws := ensureWindowResource(app, mod.WindowWidth, mod.WindowHeight, mod.WindowTitle)
	if _, ok := app.Resource((*AssetServer)(nil)); !ok {
		app.addResources(NewAssetServer())
	}

	gpuState := createGpuState(ws)
	rs := &pbrRenderState{
		gpu:       gpuState,
		layouts:   createPbrLayouts(gpuState.device),
		splitView: mod.SplitView,
		pipelines: make(map[AssetId]*materialPipeline),
		meshes:    make(map[AssetId]*meshBuffers),
		textures:  make(map[AssetId]*gpuTexture),
		samplers:  make(map[TextureSampler]*wgpu.Sampler),
		instances: make(map[AssetId]*instanceBindGroup),
		objects:   make(map[EntityId]*objectBinding),
		warned:    make(map[AssetId]bool),
	}
	if mod.IBLDirectory != "" {
		env, err := ibl.Load(mod.IBLDirectory)
		if err != nil {
			app.Logger().Warnf("IBL %s not usable, rendering without ambient light: %v", mod.IBLDirectory, err)
		} else {
			rs.env = env
			app.Logger().Infof("Loaded IBL from %s", mod.IBLDirectory)
		}
	}
	for i := range rs.views {
		rs.views[i].buffer = createBuffer("FrameUniforms", &rs.views[i].uniforms, gpuState,
			wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
		rs.views[i].bindGroup = createUniformBindGroup("FrameUniforms", rs.layouts.frame, rs.views[i].buffer, gpuState.device)
	}
	rs.ensureDepth(uint32(ws.FramebufferWidth), uint32(ws.FramebufferHeight))

	app.addResources(gpuState, rs)
	app.UseSystem(
		System(pbrSyncSystem).
			InStage(PreRender).
			RunAlways(),
	)
	app.UseSystem(
		System(pbrRenderSystem).
			InStage(Render).
			RunAlways(),
	)
	if app.IsStateful() {
		app.UseSystem(
			System(pbrTeardownSystem).
				InStage(Finale).
				InState(OnExit(app.FinalState())),
		)
	}
}

func (rs *pbrRenderState) ensureDepth(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	if rs.depthTexture != nil && rs.depthWidth == width && rs.depthHeight == height {
		return
	}
	rs.releaseDepth()
	rs.depthTexture, rs.depthView = createDepthTexture(width, height, rs.gpu)
	rs.depthWidth = width
	rs.depthHeight = height
}

func (rs *pbrRenderState) releaseDepth() {
	if rs.depthView != nil {
		rs.depthView.Release()
	}
	if rs.depthTexture != nil {
		rs.depthTexture.Release()
	}
	rs.depthView = nil
	rs.depthTexture = nil
}

func (rs *pbrRenderState) warnOnce(log Logger, id AssetId, format string, args ...any) {
	if rs.warned[id] {
		return
	}
	rs.warned[id] = true
	log.Warnf(format, args...)
}

// pbrSyncSystem mirrors assets into GPU objects and collects this frame's draws.
func pbrSyncSystem(rs *pbrRenderState, assets *AssetServer, cmd *Commands) {
	rs.prune(assets)
	rs.draws = rs.draws[:0]

	seen := make(map[EntityId]bool, len(rs.objects))
	MakeQuery2[TransformComponent, RenderableComponent](cmd).Map(
		func(eid EntityId, transform *TransformComponent, renderable *RenderableComponent) bool {
			mi := renderable.Material
			if mi == nil {
				return true
			}
			meshAsset, ok := assets.meshes[renderable.Mesh.assetId]
			if !ok {
				return true
			}
			mat := mi.material
			if _, ok := assets.materials[mat.assetId]; !ok {
				return true
			}
			pipeline := rs.pipelineFor(mat, cmd.Logger())
			if pipeline == nil {
				return true
			}
			params, ok := rs.instanceBindGroupFor(mi, pipeline, assets, cmd.Logger())
			if !ok {
				return true
			}
			mesh := rs.meshBuffersFor(renderable.Mesh.assetId, meshAsset)
			if mat.pkg.Requires(material.UV0) && !mesh.hasUV {
				rs.warnOnce(cmd.Logger(), renderable.Mesh.assetId,
					"Mesh %q has no texture coordinates but material %s samples textures", meshAsset.name, mat.Name())
			}

			object := rs.objectFor(eid)
			seen[eid] = true
			uniforms := objectUniforms{
				Model:        transform.World,
				NormalMatrix: transform.NormalMatrix(),
			}
			if err := rs.gpu.queue.WriteBuffer(object.buffer, 0, toBufferBytes(&uniforms)); err != nil {
				cmd.Logger().Errorf("Object uniforms for entity %d: %v", eid, err)
				return true
			}
			rs.draws = append(rs.draws, drawCall{
				pipeline: pipeline,
				params:   params,
				object:   object,
				mesh:     mesh,
			})
			return true
		})

	for eid, object := range rs.objects {
		if !seen[eid] {
			object.release()
			delete(rs.objects, eid)
		}
	}
}

// prune drops GPU copies of assets the AssetServer no longer holds.
func (rs *pbrRenderState) prune(assets *AssetServer) {
	for id, mb := range rs.meshes {
		if !assets.HasAsset(id) {
			mb.release()
			delete(rs.meshes, id)
		}
	}
	for id, tex := range rs.textures {
		if !assets.HasAsset(id) {
			tex.release()
			delete(rs.textures, id)
		}
	}
	for id, ig := range rs.instances {
		if !assets.HasAsset(id) {
			ig.release()
			delete(rs.instances, id)
		}
	}
	for id, mp := range rs.pipelines {
		if !assets.HasAsset(id) {
			mp.release()
			delete(rs.pipelines, id)
		}
	}
}

func (rs *pbrRenderState) pipelineFor(mat *Material, log Logger) *materialPipeline {
	if mp, ok := rs.pipelines[mat.assetId]; ok {
		return mp
	}
	if rs.warned[mat.assetId] {
		return nil
	}
	pkg := mat.pkg
	layouts := []*wgpu.BindGroupLayout{rs.layouts.frame, rs.layouts.object}
	mp := &materialPipeline{}
	if len(pkg.Parameters) > 0 {
		params := make([]parameterBinding, len(pkg.Parameters))
		for i, p := range pkg.Parameters {
			params[i] = parameterBinding{textureBinding: p.TextureBinding, samplerBinding: p.SamplerBinding}
		}
		layout, err := createParameterLayout(pkg.Name, params, rs.gpu.device)
		if err != nil {
			rs.warnOnce(log, mat.assetId, "Material %s parameter layout: %v", pkg.Name, err)
			return nil
		}
		mp.paramsLayout = layout
		layouts = append(layouts, layout)
	}
	pipeline, err := createPbrPipeline(pkg.Name, pkg.Source, layouts, rs.gpu)
	if err != nil {
		mp.release()
		rs.warnOnce(log, mat.assetId, "Material %s failed to compile: %v", pkg.Name, err)
		return nil
	}
	mp.pipeline = pipeline
	rs.pipelines[mat.assetId] = mp
	log.Debugf("Created pipeline for material %s (%d parameters)", pkg.Name, len(pkg.Parameters))
	return mp
}

// instanceBindGroupFor returns the parameter bind group of mi, rebuilt whenever
// its bindings change. Materials without parameters need none.
func (rs *pbrRenderState) instanceBindGroupFor(mi *MaterialInstance, mp *materialPipeline, assets *AssetServer, log Logger) (*wgpu.BindGroup, bool) {
	if mp.paramsLayout == nil {
		return nil, true
	}
	if ig, ok := rs.instances[mi.assetId]; ok && ig.version == mi.version {
		return ig.bindGroup, true
	}
	if !mi.complete() {
		rs.warnOnce(log, mi.assetId, "Material instance of %s has unbound parameters, skipping", mi.material.Name())
		return nil, false
	}

	var entries []wgpu.BindGroupEntry
	for _, p := range mi.material.pkg.Parameters {
		binding := mi.bindings[p.Name]
		txAsset, ok := assets.textures[binding.texture.assetId]
		if !ok {
			rs.warnOnce(log, mi.assetId, "Material instance of %s uses a destroyed texture for %s", mi.material.Name(), p.Name)
			return nil, false
		}
		tex := rs.textureFor(binding.texture.assetId, txAsset)
		entries = append(entries,
			wgpu.BindGroupEntry{Binding: p.TextureBinding, TextureView: tex.view},
			wgpu.BindGroupEntry{Binding: p.SamplerBinding, Sampler: rs.samplerFor(binding.sampler)},
		)
	}
	bindGroup, err := rs.gpu.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   mi.material.Name() + " params",
		Layout:  mp.paramsLayout,
		Entries: entries,
	})
	if err != nil {
		rs.warnOnce(log, mi.assetId, "Material instance of %s: %v", mi.material.Name(), err)
		return nil, false
	}
	if old, ok := rs.instances[mi.assetId]; ok {
		old.release()
	}
	rs.instances[mi.assetId] = &instanceBindGroup{version: mi.version, bindGroup: bindGroup}
	return bindGroup, true
}

func (rs *pbrRenderState) meshBuffersFor(id AssetId, asset *MeshAsset) *meshBuffers {
	if mb, ok := rs.meshes[id]; ok && mb.version == asset.version {
		return mb
	}
	if old, ok := rs.meshes[id]; ok {
		old.release()
	}
	vertexBuf, indexBuf := createVertexIndexBuffers(asset.vertices, asset.indices, rs.gpu.device)
	mb := &meshBuffers{
		version:    asset.version,
		vertexBuf:  vertexBuf,
		indexBuf:   indexBuf,
		indexCount: uint32(len(asset.indices)),
		hasUV:      asset.hasUV,
	}
	rs.meshes[id] = mb
	return mb
}

func (rs *pbrRenderState) textureFor(id AssetId, asset *TextureAsset) *gpuTexture {
	if tex, ok := rs.textures[id]; ok && tex.version == asset.version {
		return tex
	}
	if old, ok := rs.textures[id]; ok {
		old.release()
	}
	texture, view := createTextureFromAsset(asset, rs.gpu)
	tex := &gpuTexture{version: asset.version, texture: texture, view: view}
	rs.textures[id] = tex
	return tex
}

func (rs *pbrRenderState) samplerFor(s TextureSampler) *wgpu.Sampler {
	if sampler, ok := rs.samplers[s]; ok {
		return sampler
	}
	sampler := createSampler(s, rs.gpu)
	rs.samplers[s] = sampler
	return sampler
}

func (rs *pbrRenderState) objectFor(eid EntityId) *objectBinding {
	if object, ok := rs.objects[eid]; ok {
		return object
	}
	var uniforms objectUniforms
	buffer := createBuffer("ObjectUniforms", &uniforms, rs.gpu, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	object := &objectBinding{
		buffer:    buffer,
		bindGroup: createUniformBindGroup("ObjectUniforms", rs.layouts.object, buffer, rs.gpu.device),
	}
	rs.objects[eid] = object
	return object
}

// viewport is a region of the framebuffer in pixels.
type viewport struct {
	x, y, width, height float32
}

// layoutViewports splits the framebuffer into quadrants in split view; the main
// camera takes the top left one.
func layoutViewports(width, height int, split bool) []viewport {
	w, h := float32(width), float32(height)
	if !split {
		return []viewport{{0, 0, w, h}}
	}
	hw, hh := math32.Floor(w/2), math32.Floor(h/2)
	return []viewport{
		{0, 0, hw, hh},
		{hw, 0, w - hw, hh},
		{0, hh, hw, h - hh},
		{hw, hh, w - hw, h - hh},
	}
}

// viewMatrices returns view-projection matrices and eye positions for each
// viewport. Extra views are orthographic: top, front and side of the main
// camera's target, sized to what the main camera sees at that distance.
func viewMatrices(cam *CameraComponent, vps []viewport) ([]mgl32.Mat4, []mgl32.Vec3) {
	viewProj := make([]mgl32.Mat4, len(vps))
	eyes := make([]mgl32.Vec3, len(vps))

	aspect := vps[0].width / math32.Max(vps[0].height, 1)
	viewProj[0] = cam.ProjectionMatrix(aspect).Mul4(cam.ViewMatrix())
	eyes[0] = cam.Position
	if len(vps) == 1 {
		return viewProj, eyes
	}

	distance := cam.Position.Sub(cam.LookAt).Len()
	halfHeight := math32.Max(distance*math32.Tan(mgl32.DegToRad(cam.Fov)/2), 0.5)
	depth := cam.Far / 2
	axes := []struct {
		dir mgl32.Vec3
		up  mgl32.Vec3
	}{
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, -1}}, // top
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},  // front
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},  // side
	}
	for i, axis := range axes {
		vp := vps[i+1]
		a := vp.width / math32.Max(vp.height, 1)
		eye := cam.LookAt.Add(axis.dir.Mul(depth))
		view := mgl32.LookAtV(eye, cam.LookAt, axis.up)
		proj := orthographicZO(-halfHeight*a, halfHeight*a, -halfHeight, halfHeight, 0, cam.Far)
		viewProj[i+1] = proj.Mul4(view)
		eyes[i+1] = eye
	}
	return viewProj, eyes
}

// clearColor is the IBL irradiance seen looking straight ahead, exposed and
// tone mapped like shaded pixels.
func clearColor(env *ibl.Environment, exposure float32, manualGamma bool) wgpu.Color {
	if env == nil {
		return wgpu.Color{R: 0.05, G: 0.05, B: 0.05, A: 1}
	}
	c := env.Irradiance(mgl32.Vec3{0, 0, 1}).Mul(env.IntensityOrZero() * exposure)
	for i := range 3 {
		c[i] = acesFit(c[i])
		if manualGamma {
			c[i] = math32.Pow(c[i], 1/2.2)
		}
	}
	return wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: 1}
}

func acesFit(x float32) float32 {
	v := (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
	return math32.Min(math32.Max(v, 0), 1)
}

func firstCamera(cmd *Commands) (CameraComponent, bool) {
	var cam CameraComponent
	found := false
	MakeQuery1[CameraComponent](cmd).Map(func(eid EntityId, c *CameraComponent) bool {
		cam = *c
		found = true
		return false
	})
	return cam, found
}

func firstDirectionalLight(cmd *Commands) (LightComponent, bool) {
	var light LightComponent
	found := false
	MakeQuery1[LightComponent](cmd).Map(func(eid EntityId, l *LightComponent) bool {
		if l.Type != LightTypeDirectional {
			return true
		}
		light = *l
		found = true
		return false
	})
	return light, found
}

func pbrRenderSystem(rs *pbrRenderState, ws *WindowState, cmd *Commands) {
	// minimized
	if ws.FramebufferWidth <= 0 || ws.FramebufferHeight <= 0 {
		return
	}
	if ws.Resized {
		ws.Resized = false
		if rs.gpu.resize(ws.FramebufferWidth, ws.FramebufferHeight) {
			rs.ensureDepth(uint32(ws.FramebufferWidth), uint32(ws.FramebufferHeight))
			cmd.Logger().Debugf("Surface resized to %dx%d", ws.FramebufferWidth, ws.FramebufferHeight)
		}
	}

	cam, ok := firstCamera(cmd)
	if !ok {
		return
	}
	light, hasLight := firstDirectionalLight(cmd)
	manualGamma := !surfaceIsSrgb(rs.gpu.surfaceConfig.Format)
	exposure := cam.Exposure()

	vps := layoutViewports(int(rs.gpu.surfaceConfig.Width), int(rs.gpu.surfaceConfig.Height), rs.splitView)
	viewProj, eyes := viewMatrices(&cam, vps)
	for i := range vps {
		u := &rs.views[i].uniforms
		u.ViewProj = viewProj[i]
		u.CameraPosition = eyes[i].Vec4(1)
		u.LightDirection = mgl32.Vec4{0, -1, 0, 0}
		u.LightColor = mgl32.Vec4{}
		if hasLight {
			u.LightDirection = light.Direction.Vec4(0)
			u.LightColor = light.Color.Vec4(light.Intensity)
		}
		u.Params = mgl32.Vec4{exposure, rs.env.IntensityOrZero(), 0, 0}
		if manualGamma {
			u.Params[2] = 1
		}
		u.SH = rs.env.Uniforms()
		if err := rs.gpu.queue.WriteBuffer(rs.views[i].buffer, 0, toBufferBytes(u)); err != nil {
			cmd.Logger().Errorf("Frame uniforms: %v", err)
			return
		}
	}

	nextTexture, err := rs.gpu.surface.GetCurrentTexture()
	if err != nil {
		cmd.Logger().Warnf("Skipping frame, surface texture unavailable: %v", err)
		rs.gpu.resize(ws.FramebufferWidth, ws.FramebufferHeight)
		return
	}
	view, err := nextTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}
	defer view.Release()
	encoder, err := rs.gpu.device.CreateCommandEncoder(nil)
	if err != nil {
		panic(err)
	}
	defer encoder.Release()

	renderPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: clearColor(rs.env, exposure, manualGamma),
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            rs.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})
	defer renderPass.Release()

	for i, vp := range vps {
		renderPass.SetViewport(vp.x, vp.y, vp.width, vp.height, 0, 1)
		renderPass.SetBindGroup(0, rs.views[i].bindGroup, nil)
		for _, draw := range rs.draws {
			renderPass.SetPipeline(draw.pipeline.pipeline)
			renderPass.SetBindGroup(1, draw.object.bindGroup, nil)
			if draw.params != nil {
				renderPass.SetBindGroup(2, draw.params, nil)
			}
			renderPass.SetVertexBuffer(0, draw.mesh.vertexBuf, 0, wgpu.WholeSize)
			renderPass.SetIndexBuffer(draw.mesh.indexBuf, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
			renderPass.DrawIndexed(draw.mesh.indexCount, 1, 0, 0, 0)
		}
	}

	err = renderPass.End()
	if err != nil {
		panic(err)
	}

	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		panic(err)
	}
	defer cmdBuffer.Release()

	rs.gpu.queue.Submit(cmdBuffer)
	rs.gpu.surface.Present()
}

// pbrTeardownSystem releases every GPU object, then the window.
func pbrTeardownSystem(rs *pbrRenderState, ws *WindowState, cmd *Commands) {
	for id, object := range rs.objects {
		object.release()
		delete(rs.objects, id)
	}
	for id, ig := range rs.instances {
		ig.release()
		delete(rs.instances, id)
	}
	for s, sampler := range rs.samplers {
		sampler.Release()
		delete(rs.samplers, s)
	}
	for id, tex := range rs.textures {
		tex.release()
		delete(rs.textures, id)
	}
	for id, mb := range rs.meshes {
		mb.release()
		delete(rs.meshes, id)
	}
	for id, mp := range rs.pipelines {
		mp.release()
		delete(rs.pipelines, id)
	}
	for i := range rs.views {
		rs.views[i].bindGroup.Release()
		rs.views[i].buffer.Release()
	}
	rs.draws = nil
	rs.releaseDepth()
	rs.layouts.release()
	rs.gpu.release()
	ws.destroy()
	cmd.Logger().Infof("Renderer shut down")
}

func (mb *meshBuffers) release() {
	mb.vertexBuf.Release()
	mb.indexBuf.Release()
}

func (tex *gpuTexture) release() {
	tex.view.Release()
	tex.texture.Release()
}

func (mp *materialPipeline) release() {
	if mp.pipeline != nil {
		mp.pipeline.Release()
	}
	if mp.paramsLayout != nil {
		mp.paramsLayout.Release()
	}
}

func (ig *instanceBindGroup) release() {
	ig.bindGroup.Release()
}

func (object *objectBinding) release() {
	object.bindGroup.Release()
	object.buffer.Release()
}
