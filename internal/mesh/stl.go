package mesh

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const stlHeaderSize = 80

// maxSTLPrealloc bounds the facets reserved up front by ReadSTL.
const maxSTLPrealloc = 1 << 16

// WriteSTL writes m as binary STL. name is stored in the header, truncated to
// fit. Facet normals are recomputed from the winding.
func WriteSTL(w io.Writer, m *Mesh, name string) error {
	bw := bufio.NewWriter(w)

	var header [stlHeaderSize]byte
	copy(header[:], name)
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("failed to write STL header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(m.Triangles))); err != nil {
		return fmt.Errorf("failed to write STL facet count: %w", err)
	}

	var rec [12]float32
	for _, t := range m.Triangles {
		a, b, c := m.Points[t[0]], m.Points[t[1]], m.Points[t[2]]
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		if l := r3.Norm(n); l > 0 {
			n = r3.Scale(1/l, n)
		}
		for i, v := range []r3.Vec{n, a, b, c} {
			rec[3*i], rec[3*i+1], rec[3*i+2] = float32(v.X), float32(v.Y), float32(v.Z)
		}
		if err := binary.Write(bw, binary.LittleEndian, rec); err != nil {
			return fmt.Errorf("failed to write STL facet: %w", err)
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(0)); err != nil {
			return fmt.Errorf("failed to write STL facet: %w", err)
		}
	}
	return bw.Flush()
}

// ReadSTL reads a binary STL written by WriteSTL. Vertices are not welded,
// so the result has three points per triangle.
func ReadSTL(r io.Reader) (*Mesh, error) {
	var header [stlHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("failed to read STL header: %w", err)
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read STL facet count: %w", err)
	}
	if count > math.MaxInt32/3 {
		return nil, fmt.Errorf("STL facet count %d too large", count)
	}

	// The header count is untrusted; grow past this as records arrive.
	capacity := int(count)
	if capacity > maxSTLPrealloc {
		capacity = maxSTLPrealloc
	}
	m := &Mesh{
		Points:    make([]r3.Vec, 0, 3*capacity),
		Triangles: make([]Triangle, 0, capacity),
	}
	var rec [12]float32
	var attr uint16
	for i := uint32(0); i < count; i++ {
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("failed to read STL facet %d: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &attr); err != nil {
			return nil, fmt.Errorf("failed to read STL facet %d: %w", i, err)
		}
		base := len(m.Points)
		for v := 1; v <= 3; v++ {
			m.Points = append(m.Points, r3.Vec{
				X: float64(rec[3*v]), Y: float64(rec[3*v+1]), Z: float64(rec[3*v+2]),
			})
		}
		m.Triangles = append(m.Triangles, Triangle{base, base + 1, base + 2})
	}
	return m, nil
}
