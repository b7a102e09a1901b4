// Package scene applies generated cylinder ROIs to a node scene: transform
// nodes that place each cylinder and segmentation containers that hold its
// closed surface.
package scene

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/cylinder.roi/internal/geometry"
	"github.com/banshee-data/cylinder.roi/internal/mesh"
	"github.com/banshee-data/cylinder.roi/internal/monitoring"
	"github.com/banshee-data/cylinder.roi/internal/roi"
)

// ErrNodeNotFound is returned when a handle does not refer to a live node.
var ErrNodeNotFound = errors.New("scene node not found")

// Kind distinguishes node types. Names are unique per kind.
type Kind string

const (
	KindTransform    Kind = "transform"
	KindSegmentation Kind = "segmentation"
)

// Handle identifies a node in a scene.
type Handle struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Segment is one named closed surface inside a segmentation container.
type Segment struct {
	Name    string
	Surface *mesh.Mesh
}

// Scene is the set of node operations the ROI adapter needs. Lookups report
// absence through the bool result rather than an error.
type Scene interface {
	FindByName(ctx context.Context, kind Kind, name string) (Handle, bool, error)
	CreateTransform(ctx context.Context, name string) (Handle, error)
	CreateSegmentation(ctx context.Context, name string) (Handle, error)
	SetTransform(ctx context.Context, transform Handle, p geometry.Placement) error
	// Observe makes the segmentation's surfaces live in the transform's frame.
	Observe(ctx context.Context, segmentation, transform Handle) error
	// ReplaceSegments drops every segment of the container and stores segs.
	ReplaceSegments(ctx context.Context, segmentation Handle, segs []Segment) error
}

// ROIRecord is the read-side summary of one segmentation container.
type ROIRecord struct {
	Segmentation Handle              `json:"segmentation"`
	Transform    *Handle             `json:"transform,omitempty"`
	Placement    *geometry.Placement `json:"placement,omitempty"`
	Segments     []SegmentInfo       `json:"segments"`
}

// SegmentInfo describes a stored segment without its surface.
type SegmentInfo struct {
	Name      string `json:"name"`
	Triangles int    `json:"triangles"`
}

// Lister is implemented by scenes that can enumerate their containers.
type Lister interface {
	ListROIs(ctx context.Context) ([]ROIRecord, error)
}

// Apply writes each result into s and returns the number of segmentation
// containers written. Per result it gets or creates "<label>_Transform" and
// "<label>_CylinderROI", sets the placement, links the container to the
// transform and replaces the container contents with one segment named after
// the label. Existing nodes are reused, so running twice over the same points
// leaves one container and one transform per label. Transforms are reused too
// and their matrix overwritten; the interactive ROI tool instead added a fresh
// "<label>_Transform" node on every run.
func Apply(ctx context.Context, s Scene, results []roi.Result) (int, error) {
	created := 0
	for _, r := range results {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		tf, err := getOrCreate(ctx, s, KindTransform, r.TransformName())
		if err != nil {
			return created, err
		}
		if err := s.SetTransform(ctx, tf, r.Placement); err != nil {
			return created, fmt.Errorf("set transform %s: %w", tf.Name, err)
		}

		seg, err := getOrCreate(ctx, s, KindSegmentation, r.ContainerName())
		if err != nil {
			return created, err
		}
		if err := s.Observe(ctx, seg, tf); err != nil {
			return created, fmt.Errorf("observe %s: %w", tf.Name, err)
		}
		if err := s.ReplaceSegments(ctx, seg, []Segment{{Name: r.Label, Surface: r.Mesh}}); err != nil {
			return created, fmt.Errorf("replace segments of %s: %w", seg.Name, err)
		}
		created++
	}
	monitoring.Logf("[scene] applied %d cylinder ROIs", created)
	return created, nil
}

func getOrCreate(ctx context.Context, s Scene, kind Kind, name string) (Handle, error) {
	h, ok, err := s.FindByName(ctx, kind, name)
	if err != nil {
		return Handle{}, fmt.Errorf("find %s %q: %w", kind, name, err)
	}
	if ok {
		return h, nil
	}

	switch kind {
	case KindTransform:
		h, err = s.CreateTransform(ctx, name)
	case KindSegmentation:
		h, err = s.CreateSegmentation(ctx, name)
	default:
		return Handle{}, fmt.Errorf("unknown node kind %q", kind)
	}
	if err != nil {
		return Handle{}, fmt.Errorf("create %s %q: %w", kind, name, err)
	}
	return h, nil
}
