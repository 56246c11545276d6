package meshpbr

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gekko3d/meshpbr/meshio"
)

// DefaultMaterialName is the instance used when a part's own material is not
// provided, and for every part when materials are overridden.
const DefaultMaterialName = "DefaultMaterial"

var ErrNoMaterial = errors.New("no material instance for mesh part")

// RenderableComponent makes an entity drawable.
type RenderableComponent struct {
	Mesh     Mesh
	Material *MaterialInstance
}

// MeshSet imports mesh files and owns the entities and mesh assets created for them.
type MeshSet struct {
	assets      *AssetServer
	renderables []EntityId
	meshes      []Mesh
	warnings    []string
}

func NewMeshSet(assets *AssetServer) *MeshSet {
	return &MeshSet{assets: assets}
}

// AddFromFile imports path and spawns one renderable entity per mesh part.
// With overrideMaterial every part uses the DefaultMaterial instance; otherwise
// parts use the instance named after their file material when present.
func (ms *MeshSet) AddFromFile(cmd *Commands, path string, materials map[string]*MaterialInstance, overrideMaterial bool) error {
	scene, err := meshio.Import(path)
	if err != nil {
		return err
	}
	ms.warnings = append(ms.warnings, scene.Warnings...)

	// resolve every part first so a failure leaves nothing half spawned
	instances := make([]*MaterialInstance, len(scene.Parts))
	for i, part := range scene.Parts {
		mi, err := pickMaterial(part.Material, materials, overrideMaterial)
		if err != nil {
			return fmt.Errorf("%s part %q: %w", path, part.Name, err)
		}
		instances[i] = mi
	}

	for i, part := range scene.Parts {
		mesh := ms.assets.CreateMesh(part.Name, toPbrVertices(part.Vertices), part.Indices, part.HasUV)
		eid := cmd.AddEntity(
			NewTransform(),
			RenderableComponent{Mesh: mesh, Material: instances[i]},
		)
		ms.meshes = append(ms.meshes, mesh)
		ms.renderables = append(ms.renderables, eid)
		cmd.Logger().Debugf("Mesh part %q of %s: %d triangles, material %q",
			part.Name, path, part.TriangleCount(), instances[i].Material().Name())
	}
	return nil
}

func pickMaterial(name string, materials map[string]*MaterialInstance, override bool) (*MaterialInstance, error) {
	if !override {
		if mi, ok := materials[name]; ok && mi != nil {
			return mi, nil
		}
	}
	if mi, ok := materials[DefaultMaterialName]; ok && mi != nil {
		return mi, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoMaterial, name)
}

func toPbrVertices(in []meshio.Vertex) []PbrVertex {
	out := make([]PbrVertex, len(in))
	for i, v := range in {
		out[i] = PbrVertex{
			Position: v.Position,
			Normal:   v.Normal,
			UV0:      v.UV0,
			Tangent:  v.Tangent,
		}
	}
	return out
}

func (ms *MeshSet) Renderables() []EntityId {
	return slices.Clone(ms.renderables)
}

func (ms *MeshSet) Owns(eid EntityId) bool {
	return slices.Contains(ms.renderables, eid)
}

func (ms *MeshSet) Warnings() []string {
	return ms.warnings
}

// Destroy removes the spawned entities and releases the mesh assets.
func (ms *MeshSet) Destroy(cmd *Commands) {
	for _, eid := range ms.renderables {
		cmd.RemoveEntity(eid)
	}
	for _, mesh := range ms.meshes {
		ms.assets.DestroyMesh(mesh)
	}
	ms.renderables = nil
	ms.meshes = nil
}
