package meshpbr

import (
	"github.com/google/uuid"
)

type AssetId string

type TextureFormat uint32

// Values match wgpu.TextureFormat so assets stay renderer agnostic.
const (
	TextureFormatRGBA8Unorm     TextureFormat = 0x00000012
	TextureFormatRGBA8UnormSrgb TextureFormat = 0x00000013
)

// AssetServer owns CPU-side copies of everything the renderer uploads.
// The renderer mirrors assets into GPU caches keyed by AssetId and drops
// cache entries once an asset disappears from here.
type AssetServer struct {
	meshes            map[AssetId]*MeshAsset
	textures          map[AssetId]*TextureAsset
	materials         map[AssetId]*Material
	materialInstances map[AssetId]*MaterialInstance
}

type AssetServerModule struct{}

func NewAssetServer() *AssetServer {
	return &AssetServer{
		meshes:            make(map[AssetId]*MeshAsset),
		textures:          make(map[AssetId]*TextureAsset),
		materials:         make(map[AssetId]*Material),
		materialInstances: make(map[AssetId]*MaterialInstance),
	}
}

func (AssetServerModule) Install(app *App, cmd *Commands) {
	app.addResources(NewAssetServer())
}

type Mesh struct {
	assetId AssetId
}

func (m Mesh) AssetId() AssetId { return m.assetId }

type MeshAsset struct {
	version  uint
	name     string
	vertices []PbrVertex
	indices  []uint32
	hasUV    bool
}

// PbrVertex is the interleaved vertex layout every PBR pipeline consumes.
type PbrVertex struct {
	Position [3]float32 `gekko:"layout" location:"0" format:"float3"`
	Normal   [3]float32 `gekko:"layout" location:"1" format:"float3"`
	UV0      [2]float32 `gekko:"layout" location:"2" format:"float2"`
	Tangent  [4]float32 `gekko:"layout" location:"3" format:"float4"`
}

type TextureLevel struct {
	Width  uint32
	Height uint32
	Texels []uint8
}

type TextureAsset struct {
	version uint
	name    string
	levels  []TextureLevel
	format  TextureFormat
}

// Texture is a handle to a mip-mapped RGBA8 texture in the AssetServer.
type Texture struct {
	assetId AssetId
	Width   uint32
	Height  uint32
	Levels  int
	Format  TextureFormat
}

func (t *Texture) AssetId() AssetId { return t.assetId }

func (server *AssetServer) CreateMesh(name string, vertices []PbrVertex, indices []uint32, hasUV bool) Mesh {
	id := makeAssetId()

	server.meshes[id] = &MeshAsset{
		version:  0,
		name:     name,
		vertices: vertices,
		indices:  indices,
		hasUV:    hasUV,
	}

	return Mesh{
		assetId: id,
	}
}

func (server *AssetServer) DestroyMesh(mesh Mesh) {
	delete(server.meshes, mesh.assetId)
}

// CreateTexture registers a mip chain. Level 0 is the full resolution image.
func (server *AssetServer) CreateTexture(name string, levels []TextureLevel, format TextureFormat) *Texture {
	if len(levels) == 0 {
		return nil
	}
	id := makeAssetId()

	server.textures[id] = &TextureAsset{
		version: 0,
		name:    name,
		levels:  levels,
		format:  format,
	}

	return &Texture{
		assetId: id,
		Width:   levels[0].Width,
		Height:  levels[0].Height,
		Levels:  len(levels),
		Format:  format,
	}
}

// DestroyTexture is a no-op for nil, mirroring optional textures.
func (server *AssetServer) DestroyTexture(tex *Texture) {
	if tex == nil {
		return
	}
	delete(server.textures, tex.assetId)
}

func (server *AssetServer) HasAsset(id AssetId) bool {
	if _, ok := server.meshes[id]; ok {
		return true
	}
	if _, ok := server.textures[id]; ok {
		return true
	}
	if _, ok := server.materials[id]; ok {
		return true
	}
	_, ok := server.materialInstances[id]
	return ok
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}
