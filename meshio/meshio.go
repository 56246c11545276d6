// Package meshio imports mesh files into flat, indexed triangle lists ready for
// upload: every vertex carries a position, a normal, a UV and a tangent.
package meshio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrUnsupportedFormat = errors.New("meshio: unsupported mesh format")
	ErrEmptyMesh         = errors.New("meshio: file contains no triangles")
)

type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	// UV0 has its origin at the top-left texel, matching uploaded images.
	UV0 mgl32.Vec2
	// Tangent.w holds the bitangent sign.
	Tangent mgl32.Vec4
}

// Part is one drawable piece of a file: a single material over a triangle list.
type Part struct {
	Name     string
	Material string
	Vertices []Vertex
	Indices  []uint32
	HasUV    bool
	Min, Max mgl32.Vec3
}

func (p *Part) TriangleCount() int {
	return len(p.Indices) / 3
}

type Scene struct {
	Path     string
	Parts    []*Part
	Warnings []string
}

// Bounds of all parts combined. Zero for an empty scene.
func (s *Scene) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	if len(s.Parts) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	min, max := s.Parts[0].Min, s.Parts[0].Max
	for _, p := range s.Parts[1:] {
		for i := 0; i < 3; i++ {
			min[i] = minf(min[i], p.Min[i])
			max[i] = maxf(max[i], p.Max[i])
		}
	}
	return min, max
}

type Format int

const (
	FormatUnknown Format = iota
	FormatOBJ
	FormatCollada
	FormatFBX
)

func (f Format) String() string {
	switch f {
	case FormatOBJ:
		return "obj"
	case FormatCollada:
		return "collada"
	case FormatFBX:
		return "fbx"
	}
	return "unknown"
}

func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return FormatOBJ
	case ".dae":
		return FormatCollada
	case ".fbx":
		return FormatFBX
	}
	return FormatUnknown
}

// Import reads a mesh file, picking the decoder from the file extension.
func Import(path string) (*Scene, error) {
	var (
		scene *Scene
		err   error
	)
	switch format := DetectFormat(path); format {
	case FormatOBJ:
		scene, err = importOBJ(path)
	case FormatCollada:
		scene, err = importCollada(path)
	default:
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, path, format)
	}
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	if len(scene.Parts) == 0 {
		return nil, fmt.Errorf("import %s: %w", path, ErrEmptyMesh)
	}
	scene.Path = path
	for _, part := range scene.Parts {
		part.finish()
	}
	return scene, nil
}

// finish computes bounds and tangents once all vertices are in place.
func (p *Part) finish() {
	if len(p.Vertices) == 0 {
		return
	}
	p.Min = p.Vertices[0].Position
	p.Max = p.Vertices[0].Position
	for _, v := range p.Vertices[1:] {
		for i := 0; i < 3; i++ {
			p.Min[i] = minf(p.Min[i], v.Position[i])
			p.Max[i] = maxf(p.Max[i], v.Position[i])
		}
	}
	generateTangents(p)
}

// triangleBuilder de-indexes polygon corners into unique vertices.
type triangleBuilder struct {
	part   *Part
	corner map[[3]int]uint32
}

func newTriangleBuilder(name, material string) *triangleBuilder {
	return &triangleBuilder{
		part:   &Part{Name: name, Material: material},
		corner: make(map[[3]int]uint32),
	}
}

// add returns the index of the vertex for the (position, normal, uv) key,
// appending it the first time it is seen. A key component of -1 means absent.
func (b *triangleBuilder) add(key [3]int, v Vertex) uint32 {
	if idx, ok := b.corner[key]; ok {
		return idx
	}
	idx := uint32(len(b.part.Vertices))
	b.part.Vertices = append(b.part.Vertices, v)
	b.corner[key] = idx
	return idx
}

// polygon fan-triangulates a convex polygon given as vertex indices.
func (b *triangleBuilder) polygon(indices []uint32) {
	for i := 1; i+1 < len(indices); i++ {
		b.part.Indices = append(b.part.Indices, indices[0], indices[i], indices[i+1])
	}
}

// flatNormals assigns face normals to vertices that came without one.
// Callers key such vertices per face, so each ends up with its own face normal.
func (b *triangleBuilder) flatNormals(missing map[uint32]bool) {
	if len(missing) == 0 {
		return
	}
	verts := b.part.Vertices
	for i := 0; i+2 < len(b.part.Indices); i += 3 {
		i0, i1, i2 := b.part.Indices[i], b.part.Indices[i+1], b.part.Indices[i+2]
		n := faceNormal(verts[i0].Position, verts[i1].Position, verts[i2].Position)
		for _, idx := range []uint32{i0, i1, i2} {
			if missing[idx] {
				verts[idx].Normal = verts[idx].Normal.Add(n)
			}
		}
	}
	for idx := range missing {
		if verts[idx].Normal.Len() > 0 {
			verts[idx].Normal = verts[idx].Normal.Normalize()
		} else {
			verts[idx].Normal = mgl32.Vec3{0, 1, 0}
		}
	}
}

// flipV converts a bottom-left texture coordinate (OBJ, COLLADA) to top-left.
func flipV(u, v float32) mgl32.Vec2 {
	return mgl32.Vec2{u, 1 - v}
}

func faceNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() == 0 {
		return mgl32.Vec3{}
	}
	return n.Normalize()
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
