package meshpbr

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrbitOffset(t *testing.T) {
	assert.True(t, orbitOffset(0, 0, 4).ApproxEqual(mgl32.Vec3{0, 0, 4}))
	assert.True(t, orbitOffset(90, 0, 2).ApproxEqualThreshold(mgl32.Vec3{2, 0, 0}, 1e-5))
	assert.True(t, orbitOffset(0, 90, 3).ApproxEqualThreshold(mgl32.Vec3{0, 3, 0}, 1e-5))
	assert.InDelta(t, 5, orbitOffset(37, -21, 5).Len(), 1e-4)
}

func newOrbitApp(t *testing.T, target mgl32.Vec3) (*Commands, *Input) {
	t.Helper()
	app := NewAppBuilder().
		UseModule(OrbitCameraModule{Target: target, Distance: 4}).
		Build()
	app.FlushCommands()
	return app.Commands(), &Input{}
}

func orbitCamera(t *testing.T, cmd *Commands) (CameraComponent, OrbitCameraComponent) {
	t.Helper()
	var cam CameraComponent
	var orbit OrbitCameraComponent
	found := 0
	MakeQuery2[CameraComponent, OrbitCameraComponent](cmd).Map(func(eid EntityId, c *CameraComponent, o *OrbitCameraComponent) bool {
		cam, orbit = *c, *o
		found++
		return true
	})
	require.Equal(t, 1, found)
	return cam, orbit
}

func stepOrbit(cmd *Commands, input *Input) {
	OrbitCameraInputSystem(input, cmd)
	OrbitCameraControlSystem(cmd, input)
}

func TestOrbitCamera_InitialPose(t *testing.T) {
	target := mgl32.Vec3{0, 0, -4}
	cmd, _ := newOrbitApp(t, target)

	cam, orbit := orbitCamera(t, cmd)
	assert.Equal(t, target, cam.LookAt)
	assert.True(t, cam.Position.ApproxEqual(mgl32.Vec3{0, 0, 0}))
	assert.Equal(t, float32(4), orbit.Distance)
}

func TestOrbitCamera_DragClampsPitch(t *testing.T) {
	target := mgl32.Vec3{0, 0, -4}
	cmd, input := newOrbitApp(t, target)

	input.Pressed[MouseButtonLeft] = true
	input.MouseDeltaY = 1000
	stepOrbit(cmd, input)

	cam, orbit := orbitCamera(t, cmd)
	assert.Equal(t, float32(89), cam.Pitch)
	assert.True(t, cam.Position.ApproxEqual(target.Add(orbitOffset(0, 89, orbit.Distance))))

	input.MouseDeltaY = -2000
	stepOrbit(cmd, input)
	cam, _ = orbitCamera(t, cmd)
	assert.Equal(t, float32(-89), cam.Pitch)
}

func TestOrbitCamera_FirstPressDoesNotJump(t *testing.T) {
	cmd, input := newOrbitApp(t, mgl32.Vec3{})

	input.Pressed[MouseButtonLeft] = true
	input.JustPressed[MouseButtonLeft] = true
	input.MouseDeltaX = 500
	stepOrbit(cmd, input)

	cam, _ := orbitCamera(t, cmd)
	assert.Zero(t, cam.Yaw)
}

func TestOrbitCamera_ZoomAndReset(t *testing.T) {
	cmd, input := newOrbitApp(t, mgl32.Vec3{})

	input.ScrollDelta = 1
	stepOrbit(cmd, input)
	_, orbit := orbitCamera(t, cmd)
	assert.InDelta(t, 3.6, orbit.Distance, 1e-5)

	input.ScrollDelta = 0
	input.Pressed[KeyS] = true
	input.Pressed[MouseButtonLeft] = true
	input.MouseDeltaX = 10
	stepOrbit(cmd, input)
	cam, orbit := orbitCamera(t, cmd)
	assert.Greater(t, orbit.Distance, float32(3.6))
	assert.InDelta(t, 3, cam.Yaw, 1e-5)

	input.Pressed = [keyCount]bool{}
	input.JustPressed[KeyR] = true
	input.MouseDeltaX = 0
	stepOrbit(cmd, input)
	cam, orbit = orbitCamera(t, cmd)
	assert.Equal(t, float32(4), orbit.Distance)
	assert.Zero(t, cam.Yaw)
	assert.Zero(t, cam.Pitch)
	assert.True(t, cam.Position.ApproxEqual(mgl32.Vec3{0, 0, 4}))
}
