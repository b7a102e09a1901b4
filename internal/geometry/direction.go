package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Positions is the read-only view of an ordered point list that direction
// estimation needs.
type Positions interface {
	Count() int
	PositionAt(i int) r3.Vec
}

// EstimateDirection returns the cylinder axis for point i of seq.
//
// Rules, for N = seq.Count():
//   - i < N-1: the normalised vector from point i to point i+1.
//   - i == N-1, N > 1: the last point is paired with itself, so the raw
//     vector is zero and the fallback axis is returned. This reproduces the
//     long-standing behaviour of the ROI tool rather than extrapolating from
//     the previous point.
//   - N == 1: the next point is taken as P[0] + (0,0,1), giving (0,0,1).
//
// Coincident consecutive points also map to the fallback axis.
func EstimateDirection(seq Positions, i int) (UnitVector, error) {
	n := seq.Count()
	if i < 0 || i >= n {
		return UnitVector{}, fmt.Errorf("point index %d out of range [0, %d)", i, n)
	}

	current := seq.PositionAt(i)
	var next r3.Vec
	switch {
	case i < n-1:
		next = seq.PositionAt(i + 1)
	case i > 0:
		next = seq.PositionAt(i)
	default:
		next = r3.Add(current, r3.Vec{Z: 1})
	}

	return Normalize(r3.Sub(next, current)), nil
}

// EstimateDirections returns one direction per point, in sequence order.
func EstimateDirections(seq Positions) []UnitVector {
	n := seq.Count()
	out := make([]UnitVector, n)
	for i := 0; i < n; i++ {
		// index is always in range here
		out[i], _ = EstimateDirection(seq, i)
	}
	return out
}
