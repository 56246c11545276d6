package meshpbr

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// OrbitCameraModule spawns a camera orbiting Target. Drag with the left mouse
// button to orbit, scroll or W/S to zoom, R to reset.
type OrbitCameraModule struct {
	Target   mgl32.Vec3
	Distance float32
}

type OrbitCameraComponent struct {
	Target      mgl32.Vec3
	Distance    float32
	Sensitivity float32
	ZoomSpeed   float32
	Orbit       mgl32.Vec2
	Zoom        float32

	home orbitHome
}

// orbitHome is the pose restored by a reset.
type orbitHome struct {
	Distance   float32
	Yaw, Pitch float32
}

func (m OrbitCameraModule) Install(app *App, cmd *Commands) {
	distance := m.Distance
	if distance <= 0 {
		distance = 4
	}
	cam := NewCamera(m.Target.Add(mgl32.Vec3{0, 0, distance}), m.Target)
	cmd.AddEntity(
		cam,
		OrbitCameraComponent{
			Target:      m.Target,
			Distance:    distance,
			Sensitivity: 0.3,
			ZoomSpeed:   0.1,
			home:        orbitHome{Distance: distance},
		},
	)
	app.UseSystem(
		System(OrbitCameraInputSystem).
			InStage(Update).
			RunAlways(),
	)
	app.UseSystem(
		System(OrbitCameraControlSystem).
			InStage(Update).
			RunAlways(),
	)
}

func OrbitCameraInputSystem(input *Input, cmd *Commands) {
	MakeQuery1[OrbitCameraComponent](cmd).Map(func(eid EntityId, orbit *OrbitCameraComponent) bool {
		orbit.Orbit = mgl32.Vec2{}
		if input.Pressed[MouseButtonLeft] && !input.JustPressed[MouseButtonLeft] {
			orbit.Orbit[0] = float32(input.MouseDeltaX)
			orbit.Orbit[1] = float32(input.MouseDeltaY)
		}

		orbit.Zoom = -float32(input.ScrollDelta)
		if input.Pressed[KeyW] {
			orbit.Zoom -= 0.5
		}
		if input.Pressed[KeyS] {
			orbit.Zoom += 0.5
		}
		return true
	})
}

func OrbitCameraControlSystem(cmd *Commands, input *Input) {
	MakeQuery2[CameraComponent, OrbitCameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, orbit *OrbitCameraComponent) bool {
		if input.JustPressed[KeyR] {
			orbit.Distance = orbit.home.Distance
			cam.Yaw = orbit.home.Yaw
			cam.Pitch = orbit.home.Pitch
		}

		cam.Yaw += orbit.Orbit[0] * orbit.Sensitivity
		cam.Pitch += orbit.Orbit[1] * orbit.Sensitivity

		// Clamp pitch
		if cam.Pitch > 89.0 {
			cam.Pitch = 89.0
		}
		if cam.Pitch < -89.0 {
			cam.Pitch = -89.0
		}

		if orbit.Zoom != 0 {
			orbit.Distance *= 1 + orbit.Zoom*orbit.ZoomSpeed
			orbit.Distance = math32.Max(orbit.Distance, cam.Near*2)
			orbit.Distance = math32.Min(orbit.Distance, cam.Far*0.5)
		}

		cam.Position = orbit.Target.Add(orbitOffset(cam.Yaw, cam.Pitch, orbit.Distance))
		cam.LookAt = orbit.Target
		cam.Up = mgl32.Vec3{0, 1, 0}
		return true
	})
}

// orbitOffset is the camera position relative to the target; yaw 0, pitch 0
// looks down -Z.
func orbitOffset(yaw, pitch, distance float32) mgl32.Vec3 {
	yawRad := mgl32.DegToRad(yaw)
	pitchRad := mgl32.DegToRad(pitch)
	return mgl32.Vec3{
		math32.Sin(yawRad) * math32.Cos(pitchRad),
		math32.Sin(pitchRad),
		math32.Cos(yawRad) * math32.Cos(pitchRad),
	}.Mul(distance)
}
