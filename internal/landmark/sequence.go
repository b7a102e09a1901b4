// Package landmark holds ordered lists of labelled 3D control points and the
// readers that load them from markup files.
package landmark

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Source is the index-based view of a point list consumed by the ROI
// generator. Indices are 0-based and stable for the lifetime of the source.
type Source interface {
	Count() int
	PositionAt(i int) r3.Vec
	LabelAt(i int) string
}

// ControlPoint is a single labelled landmark. An empty Label means the point
// was never named.
type ControlPoint struct {
	Position r3.Vec
	Label    string
}

// Sequence is an ordered list of control points. Order is significant: the
// point after i defines the direction at i.
type Sequence struct {
	Name   string
	points []ControlPoint
}

// NewSequence returns a sequence holding a copy of points.
func NewSequence(name string, points ...ControlPoint) *Sequence {
	s := &Sequence{Name: name, points: make([]ControlPoint, len(points))}
	copy(s.points, points)
	return s
}

// Append adds a point at the end of the sequence.
func (s *Sequence) Append(position r3.Vec, label string) {
	s.points = append(s.points, ControlPoint{Position: position, Label: label})
}

// Count returns the number of points. A nil sequence is empty.
func (s *Sequence) Count() int {
	if s == nil {
		return 0
	}
	return len(s.points)
}

// PositionAt returns the position of point i. It panics if i is out of range,
// like a slice index.
func (s *Sequence) PositionAt(i int) r3.Vec {
	return s.points[i].Position
}

// LabelAt returns the label of point i, or the positional placeholder when
// the point is unnamed.
func (s *Sequence) LabelAt(i int) string {
	return LabelOrDefault(s.points[i].Label, i)
}

// Points returns a copy of the underlying points with raw labels.
func (s *Sequence) Points() []ControlPoint {
	out := make([]ControlPoint, s.Count())
	if s != nil {
		copy(out, s.points)
	}
	return out
}

// DefaultLabel is the placeholder for the unnamed point at 0-based index i.
func DefaultLabel(i int) string {
	return fmt.Sprintf("Point_%d", i+1)
}

// LabelOrDefault returns label, or DefaultLabel(i) when label is empty.
func LabelOrDefault(label string, i int) string {
	if label == "" {
		return DefaultLabel(i)
	}
	return label
}
