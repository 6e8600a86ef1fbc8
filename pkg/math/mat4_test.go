package math

import (
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(Vec3{1, 2, 3})
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(Vec3{5, 10, 15})

	// Translation should be in column 4 (indices 12, 13, 14)
	if m[12] != 5 || m[13] != 10 || m[14] != 15 {
		t.Errorf("Translate: got (%f, %f, %f), want (5, 10, 15)", m[12], m[13], m[14])
	}
}

func TestScale(t *testing.T) {
	m := Scale(Vec3{2, 3, 4})

	if m[0] != 2 || m[5] != 3 || m[10] != 4 {
		t.Errorf("Scale diagonal: got (%f, %f, %f), want (2, 3, 4)", m[0], m[5], m[10])
	}
}

func TestCompose(t *testing.T) {
	translation := Vec3{100, -50, 25}
	rotation := Rotator{Yaw: 90}.Quat()
	m := Compose(translation, rotation, Splat(0.25))

	if got := m.Translation(); got != translation {
		t.Errorf("Compose translation = %v, want %v", got, translation)
	}

	// Forward axis: scaled to 0.25, then turned onto +Y.
	got := m.TransformDirection(Vec3{X: 1})
	want := Vec3{0, 0.25, 0}
	if !got.ApproxEqual(want, 1e-9) {
		t.Errorf("Compose direction = %v, want %v", got, want)
	}
}
