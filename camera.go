package meshpbr

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type CameraComponent struct {
	Position mgl32.Vec3
	LookAt   mgl32.Vec3
	Up       mgl32.Vec3
	Yaw      float32
	Pitch    float32
	// Vertical field of view in degrees.
	Fov  float32
	Near float32
	Far  float32

	// Physical exposure settings.
	Aperture     float32 // f-stops
	ShutterSpeed float32 // seconds
	Sensitivity  float32 // ISO
}

// NewCamera returns a perspective camera with the exposure used for sunlit
// scenes: f/16, 1/125s, ISO 100.
func NewCamera(position, lookAt mgl32.Vec3) CameraComponent {
	return CameraComponent{
		Position:     position,
		LookAt:       lookAt,
		Up:           mgl32.Vec3{0, 1, 0},
		Fov:          45,
		Near:         0.1,
		Far:          100,
		Aperture:     16,
		ShutterSpeed: 1.0 / 125.0,
		Sensitivity:  100,
	}
}

func (c *CameraComponent) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.LookAt, c.Up)
}

func (c *CameraComponent) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	return perspectiveZO(mgl32.DegToRad(c.Fov), aspect, c.Near, c.Far)
}

// EV100 is the exposure value at ISO 100 for the camera settings.
func (c *CameraComponent) EV100() float32 {
	return math32.Log2((c.Aperture * c.Aperture) / c.ShutterSpeed * 100 / c.Sensitivity)
}

// Exposure is the photometric scale applied to luminance before tone mapping.
func (c *CameraComponent) Exposure() float32 {
	return 1 / (1.2 * math32.Pow(2, c.EV100()))
}

// perspectiveZO maps depth to [0, 1] as WebGPU expects; mgl32.Perspective targets [-1, 1].
func perspectiveZO(fovy, aspect, near, far float32) mgl32.Mat4 {
	f := 1 / math32.Tan(fovy/2)
	nf := 1 / (near - far)
	return mgl32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, far * nf, -1,
		0, 0, near * far * nf, 0,
	}
}

// orthographicZO is the [0, 1] depth counterpart of mgl32.Ortho.
func orthographicZO(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	rl := 1 / (right - left)
	tb := 1 / (top - bottom)
	nf := 1 / (near - far)
	return mgl32.Mat4{
		2 * rl, 0, 0, 0,
		0, 2 * tb, 0, 0,
		0, 0, nf, 0,
		-(right + left) * rl, -(top + bottom) * tb, near * nf, 1,
	}
}
