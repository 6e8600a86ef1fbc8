package math

import (
	"math"
	"testing"
)

func TestVec3Add(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}
	got := a.Add(b)
	want := Vec3{5, 7, 9}
	if got != want {
		t.Errorf("Vec3.Add() = %v, want %v", got, want)
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3{2, 3, 6}
	got := v.Length()
	want := 7.0
	if got != want {
		t.Errorf("Vec3.Length() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := Vec3{3, 4, 12}
	n := v.Normalize()
	if l := n.Length(); math.Abs(l-1) > 1e-12 {
		t.Errorf("Vec3.Normalize().Length() = %v, want 1", l)
	}

	if z := (Vec3{}).Normalize(); z != (Vec3{}) {
		t.Errorf("zero vector Normalize() = %v, want zero", z)
	}
}

func TestVec3TryNormalize(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
		eps  float64
		ok   bool
	}{
		{"unit", Vec3{1, 0, 0}, 0, true},
		{"zero", Vec3{}, 0, false},
		{"below epsilon", Vec3{1e-12, 0, 0}, 1e-9, false},
		{"nan", Vec3{math.NaN(), 0, 0}, 0, false},
		{"inf", Vec3{math.Inf(1), 0, 0}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := tt.v.TryNormalize(tt.eps)
			if ok != tt.ok {
				t.Errorf("TryNormalize(%v, %v) ok = %v, want %v", tt.v, tt.eps, ok, tt.ok)
			}
		})
	}
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3IsFinite(t *testing.T) {
	if !(Vec3{1, 2, 3}).IsFinite() {
		t.Error("expected finite vector")
	}
	if (Vec3{0, math.NaN(), 0}).IsFinite() {
		t.Error("expected NaN vector to be non-finite")
	}
}
