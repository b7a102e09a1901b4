package geometry

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func vecNear(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}

func TestLegacyPlacement(t *testing.T) {
	positions := []r3.Vec{
		{},
		{X: 0, Y: 0, Z: 10},
		{X: 5, Y: 0, Z: 10},
		{X: -123.456, Y: 1e-9, Z: 7.25},
	}

	for _, p := range positions {
		m := LegacyPlacement(p)

		if got := m.TranslationPart(); got != p {
			t.Errorf("translation = %v, want exactly %v", got, p)
		}
		if err := CheckRigid(m, RigidTolerance); err != nil {
			t.Errorf("LegacyPlacement(%v) not rigid: %v", p, err)
		}

		// The model up axis stands along world +Z.
		if up := m.ApplyDirection(ModelUp.Vec()); !vecNear(up, r3.Vec{Z: 1}, 1e-12) {
			t.Errorf("model up maps to %v, want +Z", up)
		}
		if origin := m.Apply(r3.Vec{}); !vecNear(origin, p, 0) {
			t.Errorf("origin maps to %v, want %v", origin, p)
		}
	}
}

func TestRotationX(t *testing.T) {
	tests := []struct {
		deg  float64
		in   r3.Vec
		want r3.Vec
	}{
		{90, r3.Vec{Y: 1}, r3.Vec{Z: 1}},
		{90, r3.Vec{Z: 1}, r3.Vec{Y: -1}},
		{90, r3.Vec{X: 1}, r3.Vec{X: 1}},
		{180, r3.Vec{Y: 1}, r3.Vec{Y: -1}},
		{-90, r3.Vec{Y: 1}, r3.Vec{Z: -1}},
	}
	for _, tt := range tests {
		if got := RotationX(tt.deg).Apply(tt.in); !vecNear(got, tt.want, 1e-12) {
			t.Errorf("RotationX(%v)(%v) = %v, want %v", tt.deg, tt.in, got, tt.want)
		}
	}
}

func TestAlignModelUp(t *testing.T) {
	dirs := []r3.Vec{
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: -1, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 0, Z: 1},
		{X: 1, Y: 2, Z: 3},
		{X: -0.3, Y: -0.9, Z: 0.1},
		{X: 1e-9, Y: -1, Z: 0},
	}
	for _, d := range dirs {
		u := Normalize(d)
		rot := AlignModelUp(u)
		if err := CheckRigid(rot, RigidTolerance); err != nil {
			t.Errorf("AlignModelUp(%v) not rigid: %v", d, err)
			continue
		}
		if got := rot.ApplyDirection(ModelUp.Vec()); !vecNear(got, u.Vec(), 1e-8) {
			t.Errorf("AlignModelUp(%v) maps up to %v, want %v", d, got, u.Vec())
		}
	}
}

func TestOrientedPlacement(t *testing.T) {
	p := r3.Vec{X: 0, Y: 0, Z: 10}
	d := Normalize(r3.Vec{X: 5})
	m := OrientedPlacement(p, d)

	if got := m.TranslationPart(); got != p {
		t.Errorf("translation = %v, want exactly %v", got, p)
	}
	top := m.Apply(r3.Vec{Y: 10})
	if want := (r3.Vec{X: 10, Y: 0, Z: 10}); !vecNear(top, want, 1e-9) {
		t.Errorf("top cap centre = %v, want %v", top, want)
	}
}

func TestThenAndInverse(t *testing.T) {
	a := Place(r3.Vec{X: 1, Y: 2, Z: 3}, RotationX(30))
	b := OrientedPlacement(r3.Vec{X: -4, Z: 2}, Normalize(r3.Vec{X: 1, Y: 1, Z: 1}))

	ab := a.Then(b)
	pt := r3.Vec{X: 0.5, Y: -7, Z: 2}
	if got, want := ab.Apply(pt), a.Apply(b.Apply(pt)); !vecNear(got, want, 1e-12) {
		t.Errorf("(a∘b)(p) = %v, want a(b(p)) = %v", got, want)
	}

	id := ab.Then(ab.Inverse())
	for i, v := range id.T {
		want := Identity().T[i]
		if math.Abs(v-want) > 1e-12 {
			t.Fatalf("m·m⁻¹ element %d = %v, want %v", i, v, want)
		}
	}
}

func TestCheckRigid_Rejects(t *testing.T) {
	scaled := Identity()
	scaled.T[0] = 2

	sheared := Identity()
	sheared.T[1] = 0.5

	reflected := Identity()
	reflected.T[0] = -1

	projective := Identity()
	projective.T[12] = 0.1

	nan := Identity()
	nan.T[5] = math.NaN()

	for name, m := range map[string]Placement{
		"scaled":     scaled,
		"sheared":    sheared,
		"reflected":  reflected,
		"projective": projective,
		"nan":        nan,
	} {
		if err := CheckRigid(m, RigidTolerance); !errors.Is(err, ErrNotRigid) {
			t.Errorf("%s: CheckRigid = %v, want ErrNotRigid", name, err)
		}
	}

	if err := CheckRigid(Identity(), RigidTolerance); err != nil {
		t.Errorf("identity rejected: %v", err)
	}
}

func TestPlacementRows(t *testing.T) {
	m := Translation(r3.Vec{X: 1, Y: 2, Z: 3})
	rows := m.Rows()
	if rows[0][3] != 1 || rows[1][3] != 2 || rows[2][3] != 3 || rows[3][3] != 1 {
		t.Errorf("Rows() = %v", rows)
	}
}
