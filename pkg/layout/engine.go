package layout

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/boulderkit/pkg/math"
)

var goldenRatio = (1 + gomath.Sqrt(5)) / 2

// Angles returns the golden-angle spherical coordinates of a fragment.
// theta grows without bound; phi lies in (0, pi) and increases with the index.
func Angles(localIndex, total int) (theta, phi float64) {
	i := float64(localIndex)
	theta = 2 * gomath.Pi * i / goldenRatio
	phi = gomath.Acos(1 - 2*(i+0.5)/float64(total))
	return theta, phi
}

// BandRadius returns base adjusted for the fragment's band: compressed below
// BottomBand, extended above TopBand.
func BandRadius(localIndex, total int, base float64) float64 {
	normalized := float64(localIndex) / float64(total)
	switch {
	case normalized < BottomBand:
		return base * BottomRadiusFactor
	case normalized > TopBand:
		return base * TopRadiusFactor
	default:
		return base
	}
}

// RockNoise is the default surface distortion. Every third fragment gets an
// extra bump.
func RockNoise(theta, phi float64, localIndex int) float64 {
	n := gomath.Sin(theta*5+phi*3)*5.0 + gomath.Cos(theta*7-phi*2)*3.0
	if localIndex%3 == 0 {
		n += 5.0
	}
	return n
}

// NoNoise leaves the surface a perfect (banded) sphere.
func NoNoise(float64, float64, int) float64 {
	return 0
}

// Sample returns the noised surface point of a fragment. It uses no
// randomness.
func Sample(localIndex, total int, p Params) SurfaceSample {
	theta, phi := Angles(localIndex, total)
	radius := BandRadius(localIndex, total, p.BaseRadius)

	sinPhi, cosPhi := gomath.Sincos(phi)
	sinTheta, cosTheta := gomath.Sincos(theta)
	base := math.Vec3{
		X: p.Center.X + radius*sinPhi*cosTheta,
		Y: p.Center.Y + radius*sinPhi*sinTheta,
		Z: p.Center.Z + radius*cosPhi,
	}

	n := p.noise()(theta, phi, localIndex)
	return SurfaceSample{
		LocalIndex: localIndex,
		Theta:      theta,
		Phi:        phi,
		Radius:     radius,
		Noise:      n,
		Point:      base.Add(math.Vec3{X: n, Y: n * 0.8, Z: n}),
	}
}

// OrientationFromNormal aligns the fragment's forward (+X) axis with the
// outward normal. Roll is zero.
func OrientationFromNormal(normal math.Vec3) math.Rotator {
	return math.RotatorFromDirection(normal)
}

// Compute places the fragment at localIndex out of total.
//
// It draws exactly six values from rng: the x, y, z gap jitter followed by the
// roll, pitch, yaw perturbation. All six are drawn even when the fragment
// turns out degenerate, so later fragments see the same stream either way.
func Compute(localIndex, total int, p Params, rng Source) (Placement, error) {
	if total < 1 || localIndex < 0 || localIndex >= total {
		return Placement{}, fmt.Errorf("%w: local index %d outside [0, %d)", ErrInvalidRequest, localIndex, total)
	}

	s := Sample(localIndex, total, p)

	jx := spread(rng, p.GapSize)
	jy := spread(rng, p.GapSize)
	jz := spread(rng, p.GapSize)
	roll := spread(rng, RotationJitterDegrees)
	pitch := spread(rng, RotationJitterDegrees)
	yaw := spread(rng, RotationJitterDegrees)

	pl := Placement{
		Index:      p.StartIndex + localIndex,
		LocalIndex: localIndex,
		Position:   s.Point.Add(math.Vec3{X: jx, Y: jy, Z: jz}),
		Scale:      math.Splat(p.Scale),
	}

	normal, ok := pl.Position.Sub(p.Center).TryNormalize(DegenerateEpsilon)
	if !ok {
		return pl, fmt.Errorf("fragment %d at %v: %w", pl.Index, pl.Position, ErrDegenerateNormal)
	}
	pl.Normal = normal
	pl.Rotation = OrientationFromNormal(normal).Add(math.Rotator{Roll: roll, Pitch: pitch, Yaw: yaw})
	return pl, nil
}

// spread maps one draw onto [-width/2, width/2).
func spread(rng Source, width float64) float64 {
	return (rng.Float64() - 0.5) * width
}
