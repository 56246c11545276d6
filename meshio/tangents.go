package meshio

import (
	"github.com/go-gl/mathgl/mgl32"
)

// generateTangents accumulates per-triangle UV tangents onto vertices and
// orthonormalizes them against the normal. Parts without UVs get an arbitrary
// tangent perpendicular to the normal.
func generateTangents(p *Part) {
	if !p.HasUV {
		for i := range p.Vertices {
			p.Vertices[i].Tangent = fallbackTangent(p.Vertices[i].Normal)
		}
		return
	}

	tan := make([]mgl32.Vec3, len(p.Vertices))
	bitan := make([]mgl32.Vec3, len(p.Vertices))
	for i := 0; i+2 < len(p.Indices); i += 3 {
		i0, i1, i2 := p.Indices[i], p.Indices[i+1], p.Indices[i+2]
		v0, v1, v2 := p.Vertices[i0], p.Vertices[i1], p.Vertices[i2]

		e1 := v1.Position.Sub(v0.Position)
		e2 := v2.Position.Sub(v0.Position)
		du1, dv1 := v1.UV0[0]-v0.UV0[0], v1.UV0[1]-v0.UV0[1]
		du2, dv2 := v2.UV0[0]-v0.UV0[0], v2.UV0[1]-v0.UV0[1]

		det := du1*dv2 - du2*dv1
		if det == 0 {
			continue
		}
		r := 1 / det
		t := e1.Mul(dv2).Sub(e2.Mul(dv1)).Mul(r)
		bt := e2.Mul(du1).Sub(e1.Mul(du2)).Mul(r)
		for _, idx := range []uint32{i0, i1, i2} {
			tan[idx] = tan[idx].Add(t)
			bitan[idx] = bitan[idx].Add(bt)
		}
	}

	for i := range p.Vertices {
		n := p.Vertices[i].Normal
		// Gram-Schmidt
		t := tan[i].Sub(n.Mul(n.Dot(tan[i])))
		if t.Len() < 1e-8 {
			p.Vertices[i].Tangent = fallbackTangent(n)
			continue
		}
		t = t.Normalize()
		w := float32(1)
		if n.Cross(t).Dot(bitan[i]) < 0 {
			w = -1
		}
		p.Vertices[i].Tangent = t.Vec4(w)
	}
}

func fallbackTangent(n mgl32.Vec3) mgl32.Vec4 {
	axis := mgl32.Vec3{1, 0, 0}
	if abs(n[0]) > 0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	t := axis.Sub(n.Mul(n.Dot(axis)))
	if t.Len() == 0 {
		return mgl32.Vec4{1, 0, 0, 1}
	}
	return t.Normalize().Vec4(1)
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
