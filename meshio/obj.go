package meshio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

func importOBJ(path string) (*Scene, error) {
	objFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer objFile.Close()

	// A sibling .mtl is optional; faces fall back to their material name only.
	var mtl io.Reader = strings.NewReader("")
	mtlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".mtl"
	if mtlFile, err := os.Open(mtlPath); err == nil {
		defer mtlFile.Close()
		mtl = mtlFile
	}

	dec, err := obj.DecodeReader(objFile, mtl)
	if err != nil {
		return nil, fmt.Errorf("decode obj: %w", err)
	}
	return sceneFromOBJ(dec), nil
}

// sceneFromOBJ splits every object by face material and de-indexes the
// decoder's separate position/uv/normal streams into shared vertices.
func sceneFromOBJ(dec *obj.Decoder) *Scene {
	scene := &Scene{Warnings: append([]string(nil), dec.Warnings...)}

	positions := len(dec.Vertices) / 3
	normals := len(dec.Normals) / 3
	uvs := len(dec.Uvs) / 2

	for oi := range dec.Objects {
		object := &dec.Objects[oi]
		builders := make(map[string]*triangleBuilder)
		var order []string
		missing := make(map[string]map[uint32]bool)

		for fi, face := range object.Faces {
			if len(face.Vertices) < 3 {
				scene.Warnings = append(scene.Warnings,
					fmt.Sprintf("object %q face %d: fewer than 3 vertices", object.Name, fi))
				continue
			}
			b, ok := builders[face.Material]
			if !ok {
				b = newTriangleBuilder(object.Name, face.Material)
				builders[face.Material] = b
				order = append(order, face.Material)
				missing[face.Material] = make(map[uint32]bool)
			}

			corners := make([]uint32, 0, len(face.Vertices))
			valid := true
			for c, vi := range face.Vertices {
				if vi < 0 || vi >= positions {
					valid = false
					break
				}
				ni := indexAt(face.Normals, c, normals)
				ti := indexAt(face.Uvs, c, uvs)

				v := Vertex{Position: vec3At(dec.Vertices, vi)}
				key := [3]int{vi, ni, ti}
				if ni >= 0 {
					v.Normal = vec3At(dec.Normals, ni)
				} else {
					// keyed per face so generated normals stay flat
					key[1] = -2 - fi
				}
				if ti >= 0 {
					v.UV0 = flipV(dec.Uvs[2*ti], dec.Uvs[2*ti+1])
					b.part.HasUV = true
				}

				idx := b.add(key, v)
				if ni < 0 {
					missing[face.Material][idx] = true
				}
				corners = append(corners, idx)
			}
			if !valid {
				scene.Warnings = append(scene.Warnings,
					fmt.Sprintf("object %q face %d: vertex index out of range", object.Name, fi))
				continue
			}
			b.polygon(corners)
		}

		for _, name := range order {
			b := builders[name]
			if len(b.part.Indices) == 0 {
				continue
			}
			b.flatNormals(missing[name])
			scene.Parts = append(scene.Parts, b.part)
		}
	}
	return scene
}

// indexAt returns the c-th index from a face stream, or -1 when the stream
// is absent or the index does not address a decoded element.
func indexAt(stream []int, c, count int) int {
	if c >= len(stream) {
		return -1
	}
	idx := stream[c]
	if idx < 0 || idx >= count {
		return -1
	}
	return idx
}

func vec3At(data []float32, i int) mgl32.Vec3 {
	return mgl32.Vec3{data[3*i], data[3*i+1], data[3*i+2]}
}
