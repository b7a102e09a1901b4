package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// LegacyTiltDegrees is the fixed rotation about X applied by the legacy
// placement. It turns the model's +Y axis onto world +Z so cylinders stand
// upright regardless of the estimated direction.
const LegacyTiltDegrees = 90.0

// Placement is a rigid transform stored as a 4x4 row-major matrix.
type Placement struct {
	T [16]float64 `json:"matrix"`
}

// Identity returns the identity placement.
func Identity() Placement {
	return Placement{T: [16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}}
}

// Translation returns a pure translation by p.
func Translation(p r3.Vec) Placement {
	m := Identity()
	m.T[3] = p.X
	m.T[7] = p.Y
	m.T[11] = p.Z
	return m
}

// RotationX returns a rotation of deg degrees about the X axis, using the
// right-hand rule.
func RotationX(deg float64) Placement {
	s, c := math.Sincos(deg * math.Pi / 180.0)
	return Placement{T: [16]float64{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	}}
}

// AlignModelUp returns the minimal rotation that carries ModelUp onto d.
// Antiparallel inputs rotate half a turn about X.
func AlignModelUp(d UnitVector) Placement {
	up := ModelUp.Vec()
	dir := d.Vec()

	cos := r3.Dot(up, dir)
	switch {
	case cos >= 1-ZeroLengthEpsilon:
		return Identity()
	case cos <= -1+ZeroLengthEpsilon:
		return RotationX(180)
	}

	axis := r3.Unit(r3.Cross(up, dir))
	rot := r3.NewRotation(math.Acos(cos), axis)
	return fromColumns(
		rot.Rotate(r3.Vec{X: 1}),
		rot.Rotate(r3.Vec{Y: 1}),
		rot.Rotate(r3.Vec{Z: 1}),
	)
}

func fromColumns(x, y, z r3.Vec) Placement {
	return Placement{T: [16]float64{
		x.X, y.X, z.X, 0,
		x.Y, y.Y, z.Y, 0,
		x.Z, y.Z, z.Z, 0,
		0, 0, 0, 1,
	}}
}

// Then returns the composition p∘q: q is applied first, then p.
func (p Placement) Then(q Placement) Placement {
	var out Placement
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += p.T[r*4+k] * q.T[k*4+c]
			}
			out.T[r*4+c] = sum
		}
	}
	return out
}

// Apply transforms point v.
func (p Placement) Apply(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: p.T[0]*v.X + p.T[1]*v.Y + p.T[2]*v.Z + p.T[3],
		Y: p.T[4]*v.X + p.T[5]*v.Y + p.T[6]*v.Z + p.T[7],
		Z: p.T[8]*v.X + p.T[9]*v.Y + p.T[10]*v.Z + p.T[11],
	}
}

// ApplyDirection transforms a direction, ignoring translation.
func (p Placement) ApplyDirection(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: p.T[0]*v.X + p.T[1]*v.Y + p.T[2]*v.Z,
		Y: p.T[4]*v.X + p.T[5]*v.Y + p.T[6]*v.Z,
		Z: p.T[8]*v.X + p.T[9]*v.Y + p.T[10]*v.Z,
	}
}

// TranslationPart returns the translation column.
func (p Placement) TranslationPart() r3.Vec {
	return r3.Vec{X: p.T[3], Y: p.T[7], Z: p.T[11]}
}

// Rows returns the matrix as four rows, mostly for dumping.
func (p Placement) Rows() [4][4]float64 {
	var out [4][4]float64
	for r := 0; r < 4; r++ {
		copy(out[r][:], p.T[r*4:r*4+4])
	}
	return out
}

func (p Placement) String() string {
	t := p.T
	return fmt.Sprintf(
		"&M44{%+.4f %+.4f %+.4f %+.4f | %+.4f %+.4f %+.4f %+.4f | %+.4f %+.4f %+.4f %+.4f | %+.4f %+.4f %+.4f %+.4f}",
		t[0], t[1], t[2], t[3],
		t[4], t[5], t[6], t[7],
		t[8], t[9], t[10], t[11],
		t[12], t[13], t[14], t[15])
}

// Place builds translate(position) ∘ rotation.
func Place(position r3.Vec, rotation Placement) Placement {
	return Translation(position).Then(rotation)
}

// LegacyPlacement is translate(position) ∘ rotateX(90°).
func LegacyPlacement(position r3.Vec) Placement {
	return Place(position, RotationX(LegacyTiltDegrees))
}

// OrientedPlacement is translate(position) ∘ AlignModelUp(d).
func OrientedPlacement(position r3.Vec, d UnitVector) Placement {
	return Place(position, AlignModelUp(d))
}
