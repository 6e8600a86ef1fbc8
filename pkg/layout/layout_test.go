package layout

import (
	"context"
	"errors"
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/boulderkit/pkg/math"
)

// countingSource returns a fixed value and counts draws.
type countingSource struct {
	value float64
	draws int
}

func (s *countingSource) Float64() float64 {
	s.draws++
	return s.value
}

// sequenceSource replays values in order.
type sequenceSource struct {
	values []float64
	next   int
}

func (s *sequenceSource) Float64() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

func boulderRequest() Request {
	return Request{
		StartIndex: 121,
		EndIndex:   387,
		Center:     math.Vec3{},
		BaseRadius: 100,
		Scale:      0.25,
		GapSize:    0.5,
	}
}

func TestAnglesMonotonic(t *testing.T) {
	for _, total := range []int{2, 3, 10, 100, 267} {
		prevTheta, prevPhi := gomath.Inf(-1), 0.0
		for i := range total {
			theta, phi := Angles(i, total)
			assert.Greater(t, theta, prevTheta, "theta not increasing at %d/%d", i, total)
			assert.Greater(t, phi, prevPhi, "phi not increasing at %d/%d", i, total)
			assert.Less(t, phi, gomath.Pi, "phi out of range at %d/%d", i, total)
			prevTheta, prevPhi = theta, phi
		}
	}
}

func TestAnglesSingleFragment(t *testing.T) {
	theta, phi := Angles(0, 1)
	assert.Equal(t, 0.0, theta)
	assert.InDelta(t, gomath.Pi/2, phi, 1e-15)
}

func TestBandRadius(t *testing.T) {
	tests := []struct {
		index int
		want  float64
	}{
		{0, 90},
		{10, 90},
		{29, 90},
		{30, 100}, // 0.30 is not below the bottom band
		{50, 100},
		{70, 100}, // 0.70 is not above the top band
		{71, 110},
		{80, 110},
		{99, 110},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, BandRadius(tt.index, 100, 100), 1e-12, "index %d", tt.index)
	}
}

func TestRockNoise(t *testing.T) {
	theta, phi := Angles(7, 50)

	first := RockNoise(theta, phi, 6)
	second := RockNoise(theta, phi, 6)
	assert.Equal(t, gomath.Float64bits(first), gomath.Float64bits(second), "noise must be bit-identical")

	bump := RockNoise(theta, phi, 3) - RockNoise(theta, phi, 4)
	assert.InDelta(t, 5.0, bump, 1e-12)
	assert.Equal(t, RockNoise(theta, phi, 4), RockNoise(theta, phi, 5))

	want := gomath.Sin(theta*5+phi*3)*5 + gomath.Cos(theta*7-phi*2)*3
	assert.InDelta(t, want, RockNoise(theta, phi, 1), 1e-12)
}

func TestSampleFollowsSphere(t *testing.T) {
	center := math.Vec3{X: 10, Y: -20, Z: 5}
	p := Params{Center: center, BaseRadius: 100, Noise: NoNoise}

	for _, i := range []int{0, 40, 99} {
		s := Sample(i, 100, p)
		assert.InDelta(t, s.Radius, s.Point.Distance(center), 1e-9, "index %d", i)
		assert.Zero(t, s.Noise)
	}
}

func TestSampleNoiseOffsets(t *testing.T) {
	flat := Sample(12, 40, Params{BaseRadius: 50, Noise: NoNoise})
	rough := Sample(12, 40, Params{BaseRadius: 50})

	n := RockNoise(flat.Theta, flat.Phi, 12)
	offset := rough.Point.Sub(flat.Point)
	assert.InDelta(t, n, offset.X, 1e-9)
	assert.InDelta(t, n*0.8, offset.Y, 1e-9)
	assert.InDelta(t, n, offset.Z, 1e-9)
}

func TestComputeFirstFragment(t *testing.T) {
	req := boulderRequest()
	total := req.Total()
	rng := &countingSource{value: 0.5}

	pl, err := Compute(0, total, req.Params(), rng)
	require.NoError(t, err)

	phi := gomath.Acos(1 - 1/float64(total))
	noise := gomath.Sin(phi*3)*5 + gomath.Cos(-phi*2)*3 + 5
	want := math.Vec3{
		X: 90*gomath.Sin(phi) + noise,
		Y: noise * 0.8,
		Z: 90*gomath.Cos(phi) + noise,
	}

	assert.Equal(t, 121, pl.Index)
	assert.Equal(t, 0, pl.LocalIndex)
	assert.True(t, pl.Position.ApproxEqual(want, 1e-9), "position %v, want %v", pl.Position, want)
	assert.Equal(t, math.Splat(0.25), pl.Scale)
	assert.Equal(t, 6, rng.draws)
}

func TestComputeOrientation(t *testing.T) {
	req := boulderRequest()
	req.Center = math.Vec3{X: 3, Y: 4, Z: -5}
	params := req.Params()

	for _, i := range []int{0, 33, 134, 200, 266} {
		// 0.5 draws produce no jitter and no perturbation.
		pl, err := Compute(i, req.Total(), params, &countingSource{value: 0.5})
		require.NoError(t, err)

		normal := pl.Position.Sub(req.Center).Normalize()
		assert.True(t, pl.Normal.ApproxEqual(normal, 1e-12), "index %d normal", i)
		assert.True(t, pl.Rotation.Forward().ApproxEqual(normal, 1e-9), "index %d forward %v, normal %v", i, pl.Rotation.Forward(), normal)
		assert.Zero(t, pl.Rotation.Roll)
	}
}

func TestComputeJitterBounds(t *testing.T) {
	req := boulderRequest()
	params := req.Params()
	rng := NewSource(7)

	for i := range req.Total() {
		pl, err := Compute(i, req.Total(), params, rng)
		require.NoError(t, err)

		jitter := pl.Position.Sub(Sample(i, req.Total(), params).Point)
		for _, c := range []float64{jitter.X, jitter.Y, jitter.Z} {
			assert.GreaterOrEqual(t, c, -0.25)
			assert.LessOrEqual(t, c, 0.25)
		}

		base := OrientationFromNormal(pl.Normal)
		for _, d := range []float64{pl.Rotation.Roll - base.Roll, pl.Rotation.Pitch - base.Pitch, pl.Rotation.Yaw - base.Yaw} {
			assert.GreaterOrEqual(t, d, -5.0-1e-9)
			assert.LessOrEqual(t, d, 5.0+1e-9)
		}
	}
}

func TestComputeDrawOrder(t *testing.T) {
	// Draws map to x, y, z jitter then roll, pitch, yaw.
	rng := &sequenceSource{values: []float64{0, 1, 0.5, 0, 0.5, 1}}
	params := Params{BaseRadius: 100, Scale: 1, GapSize: 2, Noise: NoNoise}

	pl, err := Compute(5, 10, params, rng)
	require.NoError(t, err)

	jitter := pl.Position.Sub(Sample(5, 10, params).Point)
	assert.InDelta(t, -1.0, jitter.X, 1e-12)
	assert.InDelta(t, 1.0, jitter.Y, 1e-12)
	assert.InDelta(t, 0.0, jitter.Z, 1e-12)

	base := OrientationFromNormal(pl.Normal)
	assert.InDelta(t, -5.0, pl.Rotation.Roll-base.Roll, 1e-12)
	assert.InDelta(t, 0.0, pl.Rotation.Pitch-base.Pitch, 1e-12)
	assert.InDelta(t, 5.0, pl.Rotation.Yaw-base.Yaw, 1e-12)
}

func TestComputeDegenerate(t *testing.T) {
	params := Params{BaseRadius: 0, Scale: 1, GapSize: 0, Noise: NoNoise}
	rng := &countingSource{value: 0.25}

	pl, err := Compute(0, 1, params, rng)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerateNormal))
	assert.Equal(t, math.Vec3{}, pl.Normal)
	assert.True(t, pl.Position.IsFinite())
	assert.Equal(t, 6, rng.draws, "degenerate fragments still consume their draws")
}

func TestComputeRejectsBadIndex(t *testing.T) {
	for _, tc := range []struct{ index, total int }{{-1, 5}, {5, 5}, {0, 0}} {
		_, err := Compute(tc.index, tc.total, Params{BaseRadius: 1}, &countingSource{})
		assert.ErrorIs(t, err, ErrInvalidRequest, "index %d total %d", tc.index, tc.total)
	}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		ok     bool
	}{
		{"valid", func(*Request) {}, true},
		{"single fragment", func(r *Request) { r.EndIndex = r.StartIndex }, true},
		{"zero gap", func(r *Request) { r.GapSize = 0 }, true},
		{"end before start", func(r *Request) { r.EndIndex = r.StartIndex - 1 }, false},
		{"zero radius", func(r *Request) { r.BaseRadius = 0 }, false},
		{"nan radius", func(r *Request) { r.BaseRadius = gomath.NaN() }, false},
		{"negative scale", func(r *Request) { r.Scale = -1 }, false},
		{"negative gap", func(r *Request) { r.GapSize = -0.1 }, false},
		{"infinite center", func(r *Request) { r.Center.X = gomath.Inf(1) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := boulderRequest()
			tt.mutate(&req)
			err := req.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidRequest)
			}
		})
	}
}

func TestPlanReproducible(t *testing.T) {
	req := boulderRequest()

	first, err := Plan(req, NewSource(2024))
	require.NoError(t, err)
	second, err := Plan(req, NewSource(2024))
	require.NoError(t, err)

	require.Len(t, first, 267)
	for i := range first {
		a, b := first[i].Placement, second[i].Placement
		assert.True(t, a.Position.ApproxEqual(b.Position, 1e-9), "position %d", i)
		assert.InDelta(t, a.Rotation.Roll, b.Rotation.Roll, 1e-9)
		assert.InDelta(t, a.Rotation.Pitch, b.Rotation.Pitch, 1e-9)
		assert.InDelta(t, a.Rotation.Yaw, b.Rotation.Yaw, 1e-9)
		assert.Equal(t, req.StartIndex+i, a.Index)
	}

	other, err := Plan(req, NewSource(2025))
	require.NoError(t, err)
	assert.NotEqual(t, first[0].Placement.Position, other[0].Placement.Position)
}

func TestPlanRejectsInvalid(t *testing.T) {
	req := boulderRequest()
	req.EndIndex = 100

	_, err := Plan(req, NewSource(1))
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = PlanParallel(context.Background(), req, 1, 4)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPlanParallelIndependentOfWorkers(t *testing.T) {
	req := boulderRequest()

	serial, err := PlanParallel(context.Background(), req, 99, 1)
	require.NoError(t, err)
	parallel, err := PlanParallel(context.Background(), req, 99, 8)
	require.NoError(t, err)

	require.Equal(t, len(serial), len(parallel))
	for i := range serial {
		assert.Equal(t, serial[i].Placement, parallel[i].Placement, "fragment %d", i)
		assert.NoError(t, parallel[i].Err)
	}

	want, err := Compute(42, req.Total(), req.Params(), FragmentSource(99, 42))
	require.NoError(t, err)
	assert.Equal(t, want, parallel[42].Placement)
}

func TestPlanParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := PlanParallel(ctx, boulderRequest(), 1, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
