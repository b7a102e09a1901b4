package roi

import (
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/cylinder.roi/internal/geometry"
	"github.com/banshee-data/cylinder.roi/internal/landmark"
	"github.com/banshee-data/cylinder.roi/internal/mesh"
	"github.com/banshee-data/cylinder.roi/internal/monitoring"
)

// Options configures a Generator.
type Options struct {
	// UseComputedOrientation aligns each cylinder with its estimated
	// direction instead of the fixed upright placement.
	UseComputedOrientation bool
	// Workers is the number of goroutines used to build results. Values
	// below 2 process points sequentially.
	Workers int
}

// Generator runs the per-point pipeline over a whole point list.
type Generator struct {
	opts    Options
	builder *Builder
}

// NewGenerator returns a generator. Its mesh cache lives as long as the
// generator, so repeated runs with the same spec reuse one mesh.
func NewGenerator(opts Options) *Generator {
	return &Generator{
		opts:    opts,
		builder: NewBuilder(opts.UseComputedOrientation),
	}
}

// Generate builds one Result per point of src.
//
// Preconditions are checked before any per-point work: a nil src yields
// ErrMissingSelection, an empty one ErrEmptyInputSet, and an invalid spec
// mesh.ErrInvalidParameter. A point with a NaN or infinite coordinate fails
// the whole call with ErrNonFinitePosition.
func (g *Generator) Generate(src landmark.Source, spec mesh.CylinderSpec) ([]Result, error) {
	if src == nil {
		return nil, ErrMissingSelection
	}
	n := src.Count()
	if n == 0 {
		return nil, ErrEmptyInputSet
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	results := make([]Result, n)
	build := func(i int) error {
		dir, err := geometry.EstimateDirection(src, i)
		if err != nil {
			return err
		}
		r, err := g.builder.Build(src.LabelAt(i), src.PositionAt(i), dir, spec)
		if err != nil {
			return err
		}
		r.Index = i
		results[i] = r
		return nil
	}

	if g.opts.Workers < 2 || n < 2 {
		for i := 0; i < n; i++ {
			if err := build(i); err != nil {
				return nil, err
			}
		}
	} else {
		var eg errgroup.Group
		eg.SetLimit(g.opts.Workers)
		for i := 0; i < n; i++ {
			eg.Go(func() error { return build(i) })
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	monitoring.Logf("[roi] built %d cylinders (r=%.2f h=%.2f res=%d oriented=%t)",
		n, spec.Radius, spec.Height, spec.Resolution, g.opts.UseComputedOrientation)
	return results, nil
}
