package meshpbr

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type LightType uint32

const (
	LightTypeDirectional LightType = 0
	LightTypePoint       LightType = 1
)

// LightComponent is the ECS component for lights.
// Directional intensity is illuminance in lux.
type LightComponent struct {
	Type      LightType
	Color     mgl32.Vec3 // linear RGB
	Intensity float32
	Direction mgl32.Vec3
}

func NewDirectionalLight(color mgl32.Vec3, intensity float32, direction mgl32.Vec3) LightComponent {
	if direction.Len() > 0 {
		direction = direction.Normalize()
	}
	return LightComponent{
		Type:      LightTypeDirectional,
		Color:     color,
		Intensity: intensity,
		Direction: direction,
	}
}

// SRGBToLinear converts an sRGB encoded color to linear using the exact
// piecewise transfer function.
func SRGBToLinear(c mgl32.Vec3) mgl32.Vec3 {
	var out mgl32.Vec3
	for i, v := range c {
		if v <= 0.04045 {
			out[i] = v / 12.92
		} else {
			out[i] = math32.Pow((v+0.055)/1.055, 2.4)
		}
	}
	return out
}
