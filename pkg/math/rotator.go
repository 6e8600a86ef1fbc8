package math

import "math"

// Rotator is an orientation in degrees. The local forward axis is +X and up
// is +Z. Yaw turns about +Z, pitch raises forward toward +Z, roll spins about
// forward. Rotations apply roll first, then pitch, then yaw.
type Rotator struct {
	Roll  float64 `yaml:"roll"`
	Pitch float64 `yaml:"pitch"`
	Yaw   float64 `yaml:"yaw"`
}

// RotatorFromDirection returns the rotator whose forward axis points along d.
// Roll is always zero. d does not need to be normalized but must be non-zero.
func RotatorFromDirection(d Vec3) Rotator {
	return Rotator{
		Pitch: Degrees(math.Atan2(d.Z, math.Hypot(d.X, d.Y))),
		Yaw:   Degrees(math.Atan2(d.Y, d.X)),
	}
}

// Add returns the component-wise sum of two rotators.
func (r Rotator) Add(other Rotator) Rotator {
	return Rotator{
		Roll:  r.Roll + other.Roll,
		Pitch: r.Pitch + other.Pitch,
		Yaw:   r.Yaw + other.Yaw,
	}
}

// Quat converts the rotator to a quaternion.
func (r Rotator) Quat() Quat {
	yaw := QuatFromAxisAngle(Vec3{Z: 1}, Radians(r.Yaw))
	pitch := QuatFromAxisAngle(Vec3{Y: 1}, -Radians(r.Pitch))
	roll := QuatFromAxisAngle(Vec3{X: 1}, Radians(r.Roll))
	return yaw.Mul(pitch).Mul(roll)
}

// Forward returns the unit forward axis after rotation.
func (r Rotator) Forward() Vec3 {
	return r.Quat().Rotate(Vec3{X: 1})
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}
