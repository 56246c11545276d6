package meshpbr

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestCamera_Exposure(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1})

	// f/16, 1/125s, ISO 100 is the sunny 16 rule: EV100 close to 15
	assert.InDelta(t, 14.966, cam.EV100(), 1e-3)
	assert.InDelta(t, 2.6e-5, cam.Exposure(), 1e-6)

	// the sun through that exposure lands near 1
	assert.InDelta(t, 2.86, 110000*cam.Exposure(), 0.05)

	cam.Sensitivity = 200
	assert.InDelta(t, 13.966, cam.EV100(), 1e-3)
}

func TestCamera_ProjectionMapsDepthToZeroOne(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1})
	proj := cam.ProjectionMatrix(16.0 / 9.0)

	near := proj.Mul4x1(mgl32.Vec4{0, 0, -cam.Near, 1})
	far := proj.Mul4x1(mgl32.Vec4{0, 0, -cam.Far, 1})
	assert.InDelta(t, 0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-5)
}

func TestOrthographicZO(t *testing.T) {
	proj := orthographicZO(-2, 2, -1, 1, 0, 10)

	corner := proj.Mul4x1(mgl32.Vec4{2, 1, 0, 1})
	assert.InDelta(t, 1, corner.X(), 1e-6)
	assert.InDelta(t, 1, corner.Y(), 1e-6)
	assert.InDelta(t, 0, corner.Z(), 1e-6)

	back := proj.Mul4x1(mgl32.Vec4{-2, -1, -10, 1})
	assert.InDelta(t, -1, back.X(), 1e-6)
	assert.InDelta(t, 1, back.Z(), 1e-6)
}

func TestCamera_ViewMatrixLooksAtTarget(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -4})
	target := cam.ViewMatrix().Mul4x1(mgl32.Vec4{0, 0, -4, 1})
	assert.True(t, target.ApproxEqualThreshold(mgl32.Vec4{0, 0, -4, 1}, 1e-6))
}
