package meshpbr

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TransformComponent holds an entity's world transform.
type TransformComponent struct {
	World mgl32.Mat4
}

func NewTransform() TransformComponent {
	return TransformComponent{World: mgl32.Ident4()}
}

// PreMultiply applies m on top of the current world transform (m * World).
func (t *TransformComponent) PreMultiply(m mgl32.Mat4) {
	t.World = m.Mul4(t.World)
}

// NormalMatrix is the inverse transpose of the world transform's upper 3x3,
// widened to a Mat4 for uniform upload.
func (t *TransformComponent) NormalMatrix() mgl32.Mat4 {
	m3 := t.World.Mat3()
	if m3.Det() == 0 {
		return mgl32.Ident4()
	}
	return m3.Inv().Transpose().Mat4()
}

// ScaleTranslate builds [scale*I | translation].
func ScaleTranslate(scale float32, translation mgl32.Vec3) mgl32.Mat4 {
	m := mgl32.Scale3D(scale, scale, scale)
	m.SetCol(3, translation.Vec4(1))
	return m
}
