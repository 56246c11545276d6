package meshio

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/g3n/engine/geometry"
	"github.com/g3n/engine/gls"
	"github.com/g3n/engine/loader/collada"
	"github.com/go-gl/mathgl/mgl32"
)

func importCollada(path string) (*Scene, error) {
	dec, err := collada.Decode(path)
	// The decoder reports io.EOF after consuming the whole document.
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode collada: %w", err)
	}
	if dec == nil {
		return nil, fmt.Errorf("decode collada: no document")
	}
	geoms, err := listColladaGeometries(path)
	if err != nil {
		return nil, err
	}

	scene := &Scene{}
	for _, g := range geoms {
		igeom, ptype, err := dec.NewGeometry(g.id)
		if err != nil {
			scene.Warnings = append(scene.Warnings, fmt.Sprintf("geometry %q: %v", g.name(), err))
			continue
		}
		if ptype != gls.TRIANGLES {
			scene.Warnings = append(scene.Warnings,
				fmt.Sprintf("geometry %q: only triangle primitives are imported", g.name()))
			continue
		}
		parts, warn := colladaParts(g.name(), igeom.GetGeometry())
		if warn != "" {
			scene.Warnings = append(scene.Warnings, warn)
		}
		scene.Parts = append(scene.Parts, parts...)
	}
	return scene, nil
}

// colladaGeometry is a <geometry> entry of library_geometries.
type colladaGeometry struct {
	id, label string
}

func (g colladaGeometry) name() string {
	if g.label != "" {
		return g.label
	}
	return g.id
}

// listColladaGeometries returns the geometry ids in document order. The g3n
// decoder keeps its document private and only builds geometries by id.
func listColladaGeometries(path string) ([]colladaGeometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var geoms []colladaGeometry
	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return geoms, nil
		}
		if err != nil {
			return nil, fmt.Errorf("scan collada geometries: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "geometry" {
			continue
		}
		var g colladaGeometry
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "id":
				g.id = attr.Value
			case "name":
				g.label = attr.Value
			}
		}
		if g.id != "" {
			geoms = append(geoms, g)
		}
	}
}

// colladaParts splits a decoded geometry into one part per material group.
func colladaParts(name string, geom *geometry.Geometry) ([]*Part, string) {
	posVBO := geom.VBO(gls.VertexPosition)
	if posVBO == nil {
		return nil, fmt.Sprintf("geometry %q: no positions", name)
	}
	positions := *posVBO.Buffer()
	var normals, uvs []float32
	if vbo := geom.VBO(gls.VertexNormal); vbo != nil {
		normals = *vbo.Buffer()
	}
	if vbo := geom.VBO(gls.VertexTexcoord); vbo != nil {
		uvs = *vbo.Buffer()
	}
	indices := geom.Indices()
	vertexCount := len(positions) / 3
	hasNormals := len(normals) >= 3*vertexCount
	hasUV := len(uvs) >= 2*vertexCount

	var parts []*Part
	for gi := 0; gi < geom.GroupCount(); gi++ {
		group := geom.GroupAt(gi)
		end := group.Start + group.Count
		if group.Start < 0 || end > len(indices) {
			return parts, fmt.Sprintf("geometry %q: group %d outside the index buffer", name, gi)
		}
		b := newTriangleBuilder(name, group.Matid)
		b.part.HasUV = hasUV
		missing := make(map[uint32]bool)

		for tri, i := 0, group.Start; i+2 < end; tri, i = tri+1, i+3 {
			corners := make([]uint32, 0, 3)
			for _, src := range indices[i : i+3] {
				vi := int(src)
				if vi >= vertexCount {
					return parts, fmt.Sprintf("geometry %q: vertex index %d out of range", name, vi)
				}
				v := Vertex{Position: mgl32.Vec3{positions[3*vi], positions[3*vi+1], positions[3*vi+2]}}
				// vertices without a normal are keyed per face so each gets its own
				key := [3]int{vi, 0, 0}
				if hasNormals {
					v.Normal = mgl32.Vec3{normals[3*vi], normals[3*vi+1], normals[3*vi+2]}
				} else {
					key[1] = -2 - tri
				}
				if hasUV {
					v.UV0 = flipV(uvs[2*vi], uvs[2*vi+1])
				}
				idx := b.add(key, v)
				if !hasNormals {
					missing[idx] = true
				}
				corners = append(corners, idx)
			}
			b.polygon(corners)
		}
		b.flatNormals(missing)
		if len(b.part.Indices) > 0 {
			parts = append(parts, b.part)
		}
	}
	return parts, ""
}
