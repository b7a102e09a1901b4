package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RigidTolerance is the default tolerance used when checking that a
// placement is a proper rigid transform.
const RigidTolerance = 1e-9

// ErrNotRigid is returned by CheckRigid for matrices that scale, shear,
// reflect or project.
var ErrNotRigid = errors.New("placement is not a rigid transform")

// CheckRigid verifies that p is a proper rigid transform:
//  1. the 3x3 rotation block R satisfies RᵀR = I (orthonormal columns),
//  2. det(R) = +1 (no reflection),
//  3. the bottom row is [0 0 0 1].
func CheckRigid(p Placement, tol float64) error {
	for _, v := range p.T {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite element", ErrNotRigid)
		}
	}

	r := RotationBlock(p)

	var rtr mat.Dense
	rtr.Mul(r.T(), r)
	var diff mat.Dense
	diff.Sub(&rtr, eye3())
	if dev := mat.Norm(&diff, 2); dev > tol {
		return fmt.Errorf("%w: rotation block deviates from orthonormal by %g", ErrNotRigid, dev)
	}

	if det := mat.Det(r); math.Abs(det-1) > tol {
		return fmt.Errorf("%w: rotation determinant %g", ErrNotRigid, det)
	}

	if p.T[12] != 0 || p.T[13] != 0 || p.T[14] != 0 || math.Abs(p.T[15]-1) > tol {
		return fmt.Errorf("%w: bottom row is not [0 0 0 1]", ErrNotRigid)
	}

	return nil
}

// RotationBlock returns the upper-left 3x3 block of p as a dense matrix.
func RotationBlock(p Placement) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		p.T[0], p.T[1], p.T[2],
		p.T[4], p.T[5], p.T[6],
		p.T[8], p.T[9], p.T[10],
	})
}

// Inverse returns the inverse of a rigid placement: [Rᵀ | -Rᵀt].
func (p Placement) Inverse() Placement {
	t := p.TranslationPart()
	var out Placement
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out.T[r*4+c] = p.T[c*4+r]
		}
	}
	out.T[3] = -(out.T[0]*t.X + out.T[1]*t.Y + out.T[2]*t.Z)
	out.T[7] = -(out.T[4]*t.X + out.T[5]*t.Y + out.T[6]*t.Z)
	out.T[11] = -(out.T[8]*t.X + out.T[9]*t.Y + out.T[10]*t.Z)
	out.T[15] = 1
	return out
}

func eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
}
