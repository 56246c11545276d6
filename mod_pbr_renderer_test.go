package meshpbr

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/meshpbr/ibl"
)

func TestLayoutViewports(t *testing.T) {
	assert.Equal(t, []viewport{{0, 0, 1280, 720}}, layoutViewports(1280, 720, false))

	vps := layoutViewports(801, 601, true)
	require.Len(t, vps, viewCount)
	assert.Equal(t, viewport{0, 0, 400, 300}, vps[0])
	assert.Equal(t, viewport{400, 0, 401, 300}, vps[1])
	assert.Equal(t, viewport{0, 300, 400, 301}, vps[2])
	assert.Equal(t, viewport{400, 300, 401, 301}, vps[3])

	var area float32
	for _, vp := range vps {
		area += vp.width * vp.height
	}
	assert.Equal(t, float32(801*601), area)
}

func TestViewMatrices_MainView(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -4})
	vps := layoutViewports(1280, 720, false)

	viewProj, eyes := viewMatrices(&cam, vps)
	require.Len(t, viewProj, 1)
	want := cam.ProjectionMatrix(1280.0 / 720.0).Mul4(cam.ViewMatrix())
	assert.True(t, viewProj[0].ApproxEqual(want))
	assert.Equal(t, cam.Position, eyes[0])
}

func TestViewMatrices_SplitViewsCenterTarget(t *testing.T) {
	target := mgl32.Vec3{0, 0, -4}
	cam := NewCamera(mgl32.Vec3{1, 2, 0}, target)
	vps := layoutViewports(800, 600, true)

	viewProj, eyes := viewMatrices(&cam, vps)
	require.Len(t, viewProj, viewCount)
	for i := 1; i < viewCount; i++ {
		clip := viewProj[i].Mul4x1(target.Vec4(1))
		assert.InDelta(t, 0, clip.X(), 1e-4, "view %d", i)
		assert.InDelta(t, 0, clip.Y(), 1e-4, "view %d", i)
		assert.Greater(t, clip.Z(), float32(0), "view %d", i)
		assert.Less(t, clip.Z(), float32(1), "view %d", i)
		assert.InDelta(t, cam.Far/2, eyes[i].Sub(target).Len(), 1e-3, "view %d", i)
	}
	assert.True(t, eyes[1].Sub(target).Normalize().ApproxEqual(mgl32.Vec3{0, 1, 0}))
}

func TestClearColor(t *testing.T) {
	assert.Equal(t, 0.05, clearColor(nil, 1, false).R)

	env := &ibl.Environment{Intensity: 1}
	env.SH[0] = mgl32.Vec3{1, 1, 1}
	c := clearColor(env, 1, false)
	want := acesFit(1)
	assert.InDelta(t, want, c.R, 1e-5)
	assert.InDelta(t, want, c.G, 1e-5)
	assert.Equal(t, 1.0, c.A)

	gamma := clearColor(env, 1, true)
	assert.InDelta(t, math32.Pow(want, 1/2.2), gamma.B, 1e-5)
}

func TestAcesFit(t *testing.T) {
	assert.Equal(t, float32(0), acesFit(0))
	assert.Equal(t, float32(1), acesFit(1000))
	assert.InDelta(t, 2.54/3.16, acesFit(1), 1e-5)
	assert.Less(t, acesFit(0.5), acesFit(1))
}

func TestFirstDirectionalLight(t *testing.T) {
	app := NewAppBuilder().Build()
	cmd := app.Commands()

	_, ok := firstDirectionalLight(cmd)
	assert.False(t, ok)

	cmd.AddEntity(LightComponent{Type: LightTypePoint, Intensity: 1})
	cmd.AddEntity(NewDirectionalLight(mgl32.Vec3{1, 1, 1}, 110000, mgl32.Vec3{0, -1, 0}))
	cmd.AddEntity(NewCamera(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}))
	cmd.Flush()

	light, ok := firstDirectionalLight(cmd)
	require.True(t, ok)
	assert.Equal(t, float32(110000), light.Intensity)

	cam, ok := firstCamera(cmd)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{0, 0, 5}, cam.Position)
}
