// Package geometry provides the direction estimation and rigid placement
// maths used to stand cylinders on a sequence of control points.
//
// Coordinates are millimetres in a right-handed RAS frame. Vectors are gonum
// r3.Vec values; placements are 4x4 row-major homogeneous matrices in the same
// layout the sensor pose code uses ([16]float64, m00,m01,m02,m03, m10,...).
package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ZeroLengthEpsilon is the length at or below which a difference vector is
// treated as degenerate. In practice only exact zeros fall under it.
const ZeroLengthEpsilon = 1e-12

var (
	// FallbackAxis is substituted whenever a direction would otherwise be
	// computed from a zero-length vector.
	FallbackAxis = UnitVector{v: r3.Vec{X: 0, Y: 0, Z: 1}}

	// ModelUp is the axis along which canonical meshes are authored.
	ModelUp = UnitVector{v: r3.Vec{X: 0, Y: 1, Z: 0}}
)

// UnitVector is a direction with Euclidean norm 1. The zero value is not a
// valid UnitVector; build one with Normalize.
type UnitVector struct {
	v r3.Vec
}

// Normalize returns v scaled to unit length. A zero-length (or non-finite)
// input yields FallbackAxis instead of NaN components.
func Normalize(v r3.Vec) UnitVector {
	n := r3.Norm(v)
	if n <= ZeroLengthEpsilon || math.IsNaN(n) || math.IsInf(n, 0) {
		return FallbackAxis
	}
	return UnitVector{v: r3.Scale(1/n, v)}
}

// Vec returns the direction as a plain vector.
func (u UnitVector) Vec() r3.Vec {
	if u.v == (r3.Vec{}) {
		return FallbackAxis.v
	}
	return u.v
}

// IsFallback reports whether u is the fallback axis.
func (u UnitVector) IsFallback() bool {
	return u.Vec() == FallbackAxis.v
}

func (u UnitVector) String() string {
	v := u.Vec()
	return fmt.Sprintf("Dir{x=%+.4f y=%+.4f z=%+.4f}", v.X, v.Y, v.Z)
}
