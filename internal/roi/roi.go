// Package roi turns a sequence of control points into placed cylinder
// regions of interest.
//
// For each point the direction estimator runs first and feeds the placed
// cylinder builder. The generator returns either one Result per input point,
// in input order, or a single error; it never returns a partial list.
package roi

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cylinder.roi/internal/geometry"
	"github.com/banshee-data/cylinder.roi/internal/mesh"
)

var (
	// ErrMissingSelection is returned when no point list was supplied.
	ErrMissingSelection = errors.New("no point list selected")
	// ErrEmptyInputSet is returned when the point list has no points.
	ErrEmptyInputSet = errors.New("point list contains no points")
	// ErrNonFinitePosition is returned when a point has a NaN or infinite
	// coordinate. No placement is built for it.
	ErrNonFinitePosition = errors.New("point position is not finite")
)

// Suffixes of the scene node names derived from a point label.
const (
	ContainerSuffix = "_CylinderROI"
	TransformSuffix = "_Transform"
)

// Result is one placed cylinder.
type Result struct {
	Index     int
	Label     string
	Position  r3.Vec
	Direction geometry.UnitVector
	// Mesh is the canonical cylinder in model coordinates. It may be shared
	// between results with the same spec and must not be modified.
	Mesh      *mesh.Mesh
	Placement geometry.Placement
}

// ContainerName is the scene name of the segmentation holding this result.
func (r Result) ContainerName() string { return r.Label + ContainerSuffix }

// TransformName is the scene name of the transform placing this result.
func (r Result) TransformName() string { return r.Label + TransformSuffix }

// WorldMesh returns a copy of the mesh with the placement applied.
func (r Result) WorldMesh() *mesh.Mesh {
	return r.Mesh.Transform(r.Placement.Apply)
}

func (r Result) String() string {
	return fmt.Sprintf("ROI{%s at (%.2f, %.2f, %.2f) %v}", r.Label, r.Position.X, r.Position.Y, r.Position.Z, r.Direction)
}
