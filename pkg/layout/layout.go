// Package layout distributes mesh fragments over a distorted sphere.
//
// Fragments are spread with the golden-angle (Fibonacci sphere) method, pushed
// in or out by index band, roughened with a deterministic rock noise, jittered
// by a small random gap and oriented so their forward axis points along the
// outward surface normal. Randomness comes only from the Source passed in, so
// a seeded Source reproduces a layout exactly.
package layout

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/boulderkit/pkg/math"
)

// Radius banding over the normalized index i/N. Comparisons are strict.
const (
	BottomBand         = 0.3
	TopBand            = 0.7
	BottomRadiusFactor = 0.9
	TopRadiusFactor    = 1.1
)

const (
	// RotationJitterDegrees is the full width of the per-axis rotation
	// perturbation, centred on zero.
	RotationJitterDegrees = 10.0

	// DegenerateEpsilon is the shortest center-to-fragment distance that
	// still defines a surface normal.
	DegenerateEpsilon = 1e-9
)

var (
	// ErrInvalidRequest is returned for a malformed Request.
	ErrInvalidRequest = errors.New("invalid layout request")

	// ErrDegenerateNormal is returned when a fragment lands on the center
	// and has no outward normal.
	ErrDegenerateNormal = errors.New("degenerate surface normal")
)

// Source supplies uniform random numbers in [0, 1).
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
}

// NoiseFunc displaces a surface sample. It must depend only on its arguments.
type NoiseFunc func(theta, phi float64, localIndex int) float64

// Request describes a contiguous, inclusive range of fragments to place.
type Request struct {
	StartIndex int
	EndIndex   int
	Center     math.Vec3
	BaseRadius float64
	Scale      float64
	GapSize    float64

	// Noise displaces the surface of every fragment. Nil means RockNoise.
	Noise NoiseFunc
}

// Total returns the number of fragments in the range.
func (r Request) Total() int {
	return r.EndIndex - r.StartIndex + 1
}

// Validate checks the request before any fragment is processed.
func (r Request) Validate() error {
	switch {
	case r.EndIndex < r.StartIndex:
		return fmt.Errorf("%w: end index %d before start index %d", ErrInvalidRequest, r.EndIndex, r.StartIndex)
	case !r.Center.IsFinite():
		return fmt.Errorf("%w: center %v is not finite", ErrInvalidRequest, r.Center)
	case !(r.BaseRadius > 0) || gomath.IsInf(r.BaseRadius, 0):
		return fmt.Errorf("%w: base radius must be positive, got %v", ErrInvalidRequest, r.BaseRadius)
	case !(r.Scale > 0) || gomath.IsInf(r.Scale, 0):
		return fmt.Errorf("%w: scale must be positive, got %v", ErrInvalidRequest, r.Scale)
	case !(r.GapSize >= 0) || gomath.IsInf(r.GapSize, 0):
		return fmt.Errorf("%w: gap size must be non-negative, got %v", ErrInvalidRequest, r.GapSize)
	}
	return nil
}

// Params returns the per-fragment parameters for the request.
func (r Request) Params() Params {
	return Params{
		StartIndex: r.StartIndex,
		Center:     r.Center,
		BaseRadius: r.BaseRadius,
		Scale:      r.Scale,
		GapSize:    r.GapSize,
		Noise:      r.Noise,
	}
}

// Params are the inputs shared by every fragment of one layout.
type Params struct {
	// StartIndex maps a local index back to the global fragment index.
	StartIndex int
	Center     math.Vec3
	BaseRadius float64
	Scale      float64
	GapSize    float64

	// Noise displaces the surface. Nil means RockNoise.
	Noise NoiseFunc
}

func (p Params) noise() NoiseFunc {
	if p.Noise == nil {
		return RockNoise
	}
	return p.Noise
}

// Placement is the container-space transform of one fragment.
type Placement struct {
	Index      int          `yaml:"index"`
	LocalIndex int          `yaml:"local_index"`
	Position   math.Vec3    `yaml:"position,flow"`
	Normal     math.Vec3    `yaml:"normal,flow"`
	Rotation   math.Rotator `yaml:"rotation,flow"`
	Scale      math.Vec3    `yaml:"scale,flow"`
}

// SurfaceSample is a point on the distorted sphere before gap jitter.
type SurfaceSample struct {
	LocalIndex int
	Theta      float64
	Phi        float64
	Radius     float64
	Noise      float64
	Point      math.Vec3
}
