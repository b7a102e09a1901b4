package roi

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cylinder.roi/internal/geometry"
	"github.com/banshee-data/cylinder.roi/internal/mesh"
)

// Builder produces placed cylinders.
//
// By default the placement is translate(P)∘rotateX(90°), which stands every
// cylinder along world +Z and ignores the estimated direction: the direction
// is still computed and reported on the Result. Setting
// UseComputedOrientation aligns the cylinder axis with the direction instead.
type Builder struct {
	UseComputedOrientation bool

	cache *mesh.Cache
}

// NewBuilder returns a builder with its own mesh cache.
func NewBuilder(useComputedOrientation bool) *Builder {
	return &Builder{
		UseComputedOrientation: useComputedOrientation,
		cache:                  mesh.NewCache(),
	}
}

// Build places the canonical cylinder for spec at position. It fails with
// ErrNonFinitePosition or mesh.ErrInvalidParameter.
func (b *Builder) Build(label string, position r3.Vec, dir geometry.UnitVector, spec mesh.CylinderSpec) (Result, error) {
	for _, c := range [3]float64{position.X, position.Y, position.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return Result{}, fmt.Errorf("%w: %q at (%g, %g, %g)", ErrNonFinitePosition, label, position.X, position.Y, position.Z)
		}
	}

	m, err := b.cylinder(spec)
	if err != nil {
		return Result{}, err
	}

	var placement geometry.Placement
	if b.UseComputedOrientation {
		placement = geometry.OrientedPlacement(position, dir)
	} else {
		placement = geometry.LegacyPlacement(position)
	}

	return Result{
		Label:     label,
		Position:  position,
		Direction: dir,
		Mesh:      m,
		Placement: placement,
	}, nil
}

func (b *Builder) cylinder(spec mesh.CylinderSpec) (*mesh.Mesh, error) {
	if b.cache == nil {
		return mesh.NewCylinder(spec)
	}
	return b.cache.Cylinder(spec)
}
