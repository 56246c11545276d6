package meshpbr

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestSRGBToLinear(t *testing.T) {
	lin := SRGBToLinear(mgl32.Vec3{0, 0.04045, 1})
	assert.Equal(t, float32(0), lin[0])
	assert.InDelta(t, 0.04045/12.92, lin[1], 1e-7)
	assert.InDelta(t, 1, lin[2], 1e-6)

	// reference values of the exact sRGB curve
	sun := SRGBToLinear(mgl32.Vec3{0.98, 0.92, 0.89})
	assert.InDelta(t, 0.9551, sun[0], 1e-3)
	assert.InDelta(t, 0.8276, sun[1], 1e-3)
	assert.InDelta(t, 0.7678, sun[2], 1e-3)
	assert.InDelta(t, 0.2140, SRGBToLinear(mgl32.Vec3{0.5, 0.5, 0.5})[0], 1e-3)
}

func TestNewDirectionalLight(t *testing.T) {
	light := NewDirectionalLight(mgl32.Vec3{1, 1, 1}, 110000, mgl32.Vec3{0.6, -1, -0.8})
	assert.Equal(t, LightTypeDirectional, light.Type)
	assert.Equal(t, float32(110000), light.Intensity)
	assert.InDelta(t, 1, light.Direction.Len(), 1e-6)
	assert.True(t, light.Direction.ApproxEqualThreshold(mgl32.Vec3{0.6, -1, -0.8}.Normalize(), 1e-6))

	still := NewDirectionalLight(mgl32.Vec3{1, 1, 1}, 1, mgl32.Vec3{})
	assert.Equal(t, mgl32.Vec3{}, still.Direction)
}
