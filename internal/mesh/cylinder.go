package mesh

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultResolution is the angular subdivision used for ROI cylinders.
const DefaultResolution = 50

// ErrInvalidParameter is returned for cylinder parameters outside their
// domain: non-positive or non-finite radius/height, or resolution below 3.
var ErrInvalidParameter = errors.New("invalid cylinder parameter")

// CylinderSpec describes a canonical cylinder. It is comparable and used as a
// cache key.
type CylinderSpec struct {
	Radius     float64 // mm, > 0
	Height     float64 // mm, > 0
	Resolution int     // sides, >= 3
}

// NewCylinderSpec returns a spec with DefaultResolution.
func NewCylinderSpec(radius, height float64) CylinderSpec {
	return CylinderSpec{Radius: radius, Height: height, Resolution: DefaultResolution}
}

// Validate checks the spec against the cylinder domain. Range limits imposed
// by callers (UI spin boxes, config files) are not enforced here.
func (s CylinderSpec) Validate() error {
	if !(s.Radius > 0) || math.IsInf(s.Radius, 0) {
		return fmt.Errorf("%w: radius must be positive, got %v", ErrInvalidParameter, s.Radius)
	}
	if !(s.Height > 0) || math.IsInf(s.Height, 0) {
		return fmt.Errorf("%w: height must be positive, got %v", ErrInvalidParameter, s.Height)
	}
	if s.Resolution < 3 {
		return fmt.Errorf("%w: resolution must be at least 3, got %d", ErrInvalidParameter, s.Resolution)
	}
	return nil
}

// PrismVolume is the exact volume enclosed by the faceted cylinder.
func (s CylinderSpec) PrismVolume() float64 {
	n := float64(s.Resolution)
	return n / 2 * s.Radius * s.Radius * math.Sin(2*math.Pi/n) * s.Height
}

// PrismArea is the exact surface area of the faceted cylinder.
func (s CylinderSpec) PrismArea() float64 {
	n := float64(s.Resolution)
	side := n * 2 * s.Radius * math.Sin(math.Pi/n) * s.Height
	caps := n * s.Radius * s.Radius * math.Sin(2*math.Pi/n)
	return side + caps
}

// Cylinder vertex layout for resolution n:
//
//	[0, n)     top ring,    y = +h/2
//	[n, 2n)    bottom ring, y = -h/2
//	2n         top cap centre
//	2n+1       bottom cap centre
//
// Ring vertex k sits at angle θ = 2πk/n, at (r·cosθ, y, -r·sinθ), which walks
// counter-clockwise when viewed from +Y.

// NewCylinder builds the canonical cylinder for spec: centred at the origin,
// axis along +Y, closed by fan-triangulated caps. Side quads are split into
// two triangles, so the mesh has 4·n faces and 2·n+2 shared points.
func NewCylinder(spec CylinderSpec) (*Mesh, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	n := spec.Resolution
	half := spec.Height / 2
	top, bottom := 0, n
	topCentre, bottomCentre := 2*n, 2*n+1

	m := &Mesh{
		Points:    make([]r3.Vec, 2*n+2),
		Triangles: make([]Triangle, 0, 4*n),
	}
	for k := 0; k < n; k++ {
		sin, cos := math.Sincos(2 * math.Pi * float64(k) / float64(n))
		x, z := spec.Radius*cos, -spec.Radius*sin
		m.Points[top+k] = r3.Vec{X: x, Y: half, Z: z}
		m.Points[bottom+k] = r3.Vec{X: x, Y: -half, Z: z}
	}
	m.Points[topCentre] = r3.Vec{Y: half}
	m.Points[bottomCentre] = r3.Vec{Y: -half}

	for k := 0; k < n; k++ {
		next := (k + 1) % n
		m.Triangles = append(m.Triangles,
			Triangle{top + k, bottom + k, bottom + next},
			Triangle{top + k, bottom + next, top + next},
			Triangle{topCentre, top + k, top + next},
			Triangle{bottomCentre, bottom + next, bottom + k},
		)
	}
	return m, nil
}
