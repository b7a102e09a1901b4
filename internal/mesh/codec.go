package mesh

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
	"google.golang.org/protobuf/encoding/protowire"
)

// Wire layout of an encoded mesh (protobuf wire format, no schema needed):
//
//	1: packed fixed64, point coordinates x0 y0 z0 x1 y1 z1 ...
//	2: packed varint, triangle indices a0 b0 c0 a1 b1 c1 ...
//
// Unknown fields are skipped on decode.
const (
	fieldPoints    protowire.Number = 1
	fieldTriangles protowire.Number = 2
)

var errMalformedMesh = errors.New("malformed mesh encoding")

// Marshal encodes m in a compact binary form suitable for BLOB storage.
func Marshal(m *Mesh) []byte {
	coords := make([]byte, 0, 24*len(m.Points))
	for _, p := range m.Points {
		coords = protowire.AppendFixed64(coords, math.Float64bits(p.X))
		coords = protowire.AppendFixed64(coords, math.Float64bits(p.Y))
		coords = protowire.AppendFixed64(coords, math.Float64bits(p.Z))
	}
	idx := make([]byte, 0, 3*len(m.Triangles))
	for _, t := range m.Triangles {
		for _, v := range t {
			idx = protowire.AppendVarint(idx, uint64(v))
		}
	}

	b := make([]byte, 0, len(coords)+len(idx)+16)
	b = protowire.AppendTag(b, fieldPoints, protowire.BytesType)
	b = protowire.AppendBytes(b, coords)
	b = protowire.AppendTag(b, fieldTriangles, protowire.BytesType)
	b = protowire.AppendBytes(b, idx)
	return b
}

// Unmarshal decodes a mesh produced by Marshal and checks that every
// triangle index refers to a point.
func Unmarshal(b []byte) (*Mesh, error) {
	var coords []float64
	var indices []int

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", errMalformedMesh, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldPoints && typ == protowire.BytesType:
			payload, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: points: %v", errMalformedMesh, protowire.ParseError(n))
			}
			b = b[n:]
			for len(payload) > 0 {
				v, n := protowire.ConsumeFixed64(payload)
				if n < 0 {
					return nil, fmt.Errorf("%w: coordinate: %v", errMalformedMesh, protowire.ParseError(n))
				}
				payload = payload[n:]
				coords = append(coords, math.Float64frombits(v))
			}
		case num == fieldTriangles && typ == protowire.BytesType:
			payload, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: triangles: %v", errMalformedMesh, protowire.ParseError(n))
			}
			b = b[n:]
			for len(payload) > 0 {
				v, n := protowire.ConsumeVarint(payload)
				if n < 0 {
					return nil, fmt.Errorf("%w: index: %v", errMalformedMesh, protowire.ParseError(n))
				}
				payload = payload[n:]
				indices = append(indices, int(v))
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %v", errMalformedMesh, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if len(coords)%3 != 0 {
		return nil, fmt.Errorf("%w: %d coordinates is not a multiple of 3", errMalformedMesh, len(coords))
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices is not a multiple of 3", errMalformedMesh, len(indices))
	}

	m := &Mesh{
		Points:    make([]r3.Vec, len(coords)/3),
		Triangles: make([]Triangle, len(indices)/3),
	}
	for i := range m.Points {
		m.Points[i] = r3.Vec{X: coords[3*i], Y: coords[3*i+1], Z: coords[3*i+2]}
	}
	for i := range m.Triangles {
		for k := 0; k < 3; k++ {
			v := indices[3*i+k]
			if v < 0 || v >= len(m.Points) {
				return nil, fmt.Errorf("%w: triangle %d references point %d of %d", errMalformedMesh, i, v, len(m.Points))
			}
			m.Triangles[i][k] = v
		}
	}
	return m, nil
}
