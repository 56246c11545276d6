package meshpbr

import (
	"errors"
	"fmt"

	"github.com/gekko3d/meshpbr/material"
)

var (
	ErrUnknownParameter = errors.New("unknown material parameter")
	ErrNilTexture       = errors.New("nil texture")
	ErrDestroyed        = errors.New("asset destroyed")
)

type MinFilter int

const (
	MinFilterNearest MinFilter = iota
	MinFilterLinear
	MinFilterNearestMipmapNearest
	MinFilterLinearMipmapNearest
	MinFilterNearestMipmapLinear
	MinFilterLinearMipmapLinear
)

type MagFilter int

const (
	MagFilterNearest MagFilter = iota
	MagFilterLinear
)

type WrapMode int

const (
	WrapModeClampToEdge WrapMode = iota
	WrapModeRepeat
	WrapModeMirroredRepeat
)

// TextureSampler describes how a material parameter samples its texture.
type TextureSampler struct {
	Min        MinFilter
	Mag        MagFilter
	Wrap       WrapMode
	Anisotropy float32
}

func NewTextureSampler(min MinFilter, mag MagFilter, wrap WrapMode) TextureSampler {
	return TextureSampler{Min: min, Mag: mag, Wrap: wrap, Anisotropy: 1}
}

func (s *TextureSampler) SetAnisotropy(a float32) {
	s.Anisotropy = a
}

// Material is a compiled material package registered in the AssetServer.
type Material struct {
	assetId AssetId
	pkg     *material.Package
	server  *AssetServer
}

func (m *Material) AssetId() AssetId          { return m.assetId }
func (m *Material) Package() *material.Package { return m.pkg }
func (m *Material) Name() string               { return m.pkg.Name }

type textureBinding struct {
	param   material.Parameter
	texture *Texture
	sampler TextureSampler
}

// MaterialInstance holds the parameter values a renderable draws with.
type MaterialInstance struct {
	assetId  AssetId
	material *Material
	version  uint
	bindings map[string]textureBinding
}

func (mi *MaterialInstance) AssetId() AssetId    { return mi.assetId }
func (mi *MaterialInstance) Material() *Material { return mi.material }

func (server *AssetServer) CreateMaterial(pkg *material.Package) *Material {
	id := makeAssetId()
	m := &Material{
		assetId: id,
		pkg:     pkg,
		server:  server,
	}
	server.materials[id] = m
	return m
}

func (server *AssetServer) DestroyMaterial(m *Material) {
	if m == nil {
		return
	}
	delete(server.materials, m.assetId)
}

func (m *Material) CreateInstance() *MaterialInstance {
	mi := &MaterialInstance{
		assetId:  makeAssetId(),
		material: m,
		bindings: make(map[string]textureBinding),
	}
	m.server.materialInstances[mi.assetId] = mi
	return mi
}

func (server *AssetServer) DestroyMaterialInstance(mi *MaterialInstance) {
	if mi == nil {
		return
	}
	delete(server.materialInstances, mi.assetId)
}

// SetParameter binds a texture and sampler to a sampler parameter of the material.
func (mi *MaterialInstance) SetParameter(name string, tex *Texture, sampler TextureSampler) error {
	if _, ok := mi.material.server.materials[mi.material.assetId]; !ok {
		return fmt.Errorf("set %q: material %s: %w", name, mi.material.Name(), ErrDestroyed)
	}
	param, ok := mi.material.pkg.Parameter(name)
	if !ok {
		return fmt.Errorf("set %q on %s: %w", name, mi.material.Name(), ErrUnknownParameter)
	}
	if tex == nil {
		return fmt.Errorf("set %q on %s: %w", name, mi.material.Name(), ErrNilTexture)
	}
	mi.bindings[name] = textureBinding{param: param, texture: tex, sampler: sampler}
	mi.version++
	return nil
}

// Parameter returns the texture bound to name, if any.
func (mi *MaterialInstance) Parameter(name string) (*Texture, TextureSampler, bool) {
	b, ok := mi.bindings[name]
	if !ok {
		return nil, TextureSampler{}, false
	}
	return b.texture, b.sampler, true
}

// complete reports whether every sampler parameter has a texture bound.
func (mi *MaterialInstance) complete() bool {
	for _, p := range mi.material.pkg.Parameters {
		if _, ok := mi.bindings[p.Name]; !ok {
			return false
		}
	}
	return true
}
