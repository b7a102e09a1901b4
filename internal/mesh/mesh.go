// Package mesh builds and measures closed triangle meshes.
package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Triangle indexes three points of a Mesh, wound counter-clockwise when seen
// from outside the surface.
type Triangle [3]int

// Mesh is an indexed triangle surface. Meshes handed out by Cache are shared;
// treat them as read-only and use Transform to derive new ones.
type Mesh struct {
	Points    []r3.Vec
	Triangles []Triangle
}

// NumTriangles returns the face count.
func (m *Mesh) NumTriangles() int { return len(m.Triangles) }

// Transform returns a copy of m with every point mapped through f. Topology
// is shared with m.
func (m *Mesh) Transform(f func(r3.Vec) r3.Vec) *Mesh {
	out := &Mesh{
		Points:    make([]r3.Vec, len(m.Points)),
		Triangles: m.Triangles,
	}
	for i, p := range m.Points {
		out.Points[i] = f(p)
	}
	return out
}

// Area returns the total surface area.
func (m *Mesh) Area() float64 {
	var sum float64
	for _, t := range m.Triangles {
		a, b, c := m.Points[t[0]], m.Points[t[1]], m.Points[t[2]]
		sum += r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a))) / 2
	}
	return sum
}

// Volume returns the signed enclosed volume by the divergence theorem. It is
// positive for closed meshes with outward-facing winding.
func (m *Mesh) Volume() float64 {
	var sum float64
	for _, t := range m.Triangles {
		a, b, c := m.Points[t[0]], m.Points[t[1]], m.Points[t[2]]
		sum += r3.Dot(a, r3.Cross(b, c))
	}
	return sum / 6
}

// Centroid returns the mean of the mesh points.
func (m *Mesh) Centroid() r3.Vec {
	var c r3.Vec
	if len(m.Points) == 0 {
		return c
	}
	for _, p := range m.Points {
		c = r3.Add(c, p)
	}
	return r3.Scale(1/float64(len(m.Points)), c)
}

// Bounds returns the axis-aligned bounding box of the mesh.
func (m *Mesh) Bounds() (lo, hi r3.Vec) {
	if len(m.Points) == 0 {
		return
	}
	lo, hi = m.Points[0], m.Points[0]
	for _, p := range m.Points[1:] {
		lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	return
}

type edge struct{ from, to int }

// BoundaryEdges counts directed edges without an opposite twin. A closed,
// consistently oriented 2-manifold has none; an edge used twice in the same
// direction is also counted.
func (m *Mesh) BoundaryEdges() int {
	uses := make(map[edge]int, 3*len(m.Triangles))
	for _, t := range m.Triangles {
		for k := 0; k < 3; k++ {
			uses[edge{t[k], t[(k+1)%3]}]++
		}
	}
	bad := 0
	for e, n := range uses {
		if n != 1 || uses[edge{e.to, e.from}] != 1 {
			bad++
		}
	}
	return bad
}

// IsClosed reports whether m is a closed, consistently oriented surface.
func (m *Mesh) IsClosed() bool {
	return len(m.Triangles) > 0 && m.BoundaryEdges() == 0
}
