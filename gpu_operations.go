package meshpbr

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
)

const depthFormat = wgpu.TextureFormatDepth24Plus

type GpuState struct {
	surface       *wgpu.Surface
	adapter       *wgpu.Adapter
	device        *wgpu.Device
	queue         *wgpu.Queue
	surfaceConfig *wgpu.SurfaceConfiguration
}

func createGpuState(s *WindowState) *GpuState {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()
	// wraps GLFW window into a wgpu surface.
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(s.windowGlfw))
	// finds a suitable GPU (discrete GPU preferred)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		panic(err)
	}
	// allocates the device and command queue
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            "Main Device",
		RequiredFeatures: nil,
		RequiredLimits:   nil,
	})
	if err != nil {
		panic(err)
	}
	queue := device.GetQueue()

	caps := surface.GetCapabilities(adapter)
	// defines how the swapchain behaves (size, format, vsync)
	surfaceConfig := wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(max(s.FramebufferWidth, 1)),
		Height:      uint32(max(s.FramebufferHeight, 1)),
		PresentMode: wgpu.PresentModeFifo, // vsync
		AlphaMode:   caps.AlphaModes[0],
	}

	surface.Configure(adapter, device, &surfaceConfig)

	return &GpuState{
		surface:       surface,
		adapter:       adapter,
		device:        device,
		queue:         queue,
		surfaceConfig: &surfaceConfig,
	}
}

// resize reconfigures the swapchain. Zero sizes (minimized window) are ignored.
func (g *GpuState) resize(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	g.surfaceConfig.Width = uint32(width)
	g.surfaceConfig.Height = uint32(height)
	g.surface.Configure(g.adapter, g.device, g.surfaceConfig)
	return true
}

func (g *GpuState) release() {
	if g.queue != nil {
		g.queue.Release()
	}
	if g.device != nil {
		g.device.Release()
	}
	if g.adapter != nil {
		g.adapter.Release()
	}
	if g.surface != nil {
		g.surface.Release()
	}
	*g = GpuState{}
}

// pbrLayouts are the bind group layouts shared by every PBR pipeline:
// group 0 per-view frame uniforms, group 1 per-object uniforms.
type pbrLayouts struct {
	frame  *wgpu.BindGroupLayout
	object *wgpu.BindGroupLayout
}

func createPbrLayouts(device *wgpu.Device) pbrLayouts {
	frame, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "PbrFrameBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: frameUniformsSize,
				},
			},
		},
	})
	if err != nil {
		panic(err)
	}
	object, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "PbrObjectBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: objectUniformsSize,
				},
			},
		},
	})
	if err != nil {
		panic(err)
	}
	return pbrLayouts{frame: frame, object: object}
}

func (l pbrLayouts) release() {
	if l.frame != nil {
		l.frame.Release()
	}
	if l.object != nil {
		l.object.Release()
	}
}

// createParameterLayout declares a texture/sampler pair per material parameter.
func createParameterLayout(name string, params []parameterBinding, device *wgpu.Device) (*wgpu.BindGroupLayout, error) {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, 2*len(params))
	for _, p := range params {
		entries = append(entries,
			wgpu.BindGroupLayoutEntry{
				Binding:    p.textureBinding,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
					Multisampled:  false,
				},
			},
			wgpu.BindGroupLayoutEntry{
				Binding:    p.samplerBinding,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		)
	}
	return device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   name + " params",
		Entries: entries,
	})
}

type parameterBinding struct {
	textureBinding uint32
	samplerBinding uint32
}

func createPbrPipeline(name string, shaderCode string, layouts []*wgpu.BindGroupLayout, gpuState *GpuState) (*wgpu.RenderPipeline, error) {
	shader, err := gpuState.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaderCode},
	})
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", name, err)
	}
	defer shader.Release()

	pipelineLayout, err := gpuState.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            name,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline layout %s: %w", name, err)
	}
	defer pipelineLayout.Release()

	vertexBufferLayout := createVertexBufferLayout(PbrVertex{})

	pipeline, err := gpuState.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  name,
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{vertexBufferLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    gpuState.surfaceConfig.Format,
					Blend:     nil,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilReadMask:  0xFFFFFFFF,
			StencilWriteMask: 0xFFFFFFFF,
		},
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", name, err)
	}
	return pipeline, nil
}

func createVertexIndexBuffers(vertices []PbrVertex, indices []uint32, device *wgpu.Device) (vertexBuf *wgpu.Buffer, indexBuf *wgpu.Buffer) {
	vertexBuf, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Vertex Buffer",
		Contents: wgpu.ToBytes(vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		panic(err)
	}
	indexBuf, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Index Buffer",
		Contents: wgpu.ToBytes(indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		panic(err)
	}
	return vertexBuf, indexBuf
}

// createTextureFromAsset uploads every mip level of the asset.
func createTextureFromAsset(txAsset *TextureAsset, gpuState *GpuState) (*wgpu.Texture, *wgpu.TextureView) {
	base := txAsset.levels[0]
	format := wgpu.TextureFormat(txAsset.format)
	texture, err := gpuState.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: txAsset.name,
		Size: wgpu.Extent3D{
			Width:              base.Width,
			Height:             base.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: uint32(len(txAsset.levels)),
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}

	bpp := wgpuBytesPerPixel(format)
	for level, data := range txAsset.levels {
		gpuState.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  texture,
				MipLevel: uint32(level),
				Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: 0},
			},
			data.Texels,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  data.Width * bpp,
				RowsPerImage: data.Height,
			},
			&wgpu.Extent3D{Width: data.Width, Height: data.Height, DepthOrArrayLayers: 1},
		)
	}

	textureView, err := texture.CreateView(nil)
	if err != nil {
		panic(err)
	}
	return texture, textureView
}

func createSampler(s TextureSampler, gpuState *GpuState) *wgpu.Sampler {
	minFilter, mipFilter, mipmapped := wgpuMinFilter(s.Min)
	magFilter := wgpuMagFilter(s.Mag)
	lodMax := float32(32)
	if !mipmapped {
		lodMax = 0
	}
	anisotropy := uint16(1)
	// anisotropic filtering requires linear filtering everywhere
	if s.Anisotropy > 1 && minFilter == wgpu.FilterModeLinear && magFilter == wgpu.FilterModeLinear &&
		mipFilter == wgpu.MipmapFilterModeLinear {
		anisotropy = uint16(s.Anisotropy)
	}
	sampler, err := gpuState.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpuAddressMode(s.Wrap),
		AddressModeV:  wgpuAddressMode(s.Wrap),
		AddressModeW:  wgpuAddressMode(s.Wrap),
		MagFilter:     magFilter,
		MinFilter:     minFilter,
		MipmapFilter:  mipFilter,
		LodMinClamp:   0.,
		LodMaxClamp:   lodMax,
		Compare:       wgpu.CompareFunctionUndefined,
		MaxAnisotropy: anisotropy,
	})
	if err != nil {
		panic(err)
	}
	return sampler
}

func createDepthTexture(width, height uint32, gpuState *GpuState) (*wgpu.Texture, *wgpu.TextureView) {
	texture, err := gpuState.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth",
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		panic(err)
	}
	return texture, view
}

func createBuffer(name string, data any, gpuState *GpuState, usage wgpu.BufferUsage) *wgpu.Buffer {
	bufferBytes := toBufferBytes(data)
	buffer, err := gpuState.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    name,
		Contents: bufferBytes,
		Usage:    usage,
	})
	if err != nil {
		panic(err)
	}
	return buffer
}

func createUniformBindGroup(name string, layout *wgpu.BindGroupLayout, buffer *wgpu.Buffer, device *wgpu.Device) *wgpu.BindGroup {
	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  name,
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  buffer,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		panic(err)
	}
	return bindGroup
}
