package landmark

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cylinder.roi/internal/units"
)

// ErrNoMarkups is returned when a markup file parses but holds no point list.
var ErrNoMarkups = errors.New("no markups found")

// CoordinateSystem names the anatomical frame a markup file stores positions
// in. Sequences are always held in RAS.
type CoordinateSystem string

const (
	RAS CoordinateSystem = "RAS"
	LPS CoordinateSystem = "LPS"
)

// ToRAS converts p from cs into RAS. LPS differs from RAS by flipping the
// first two axes.
func (cs CoordinateSystem) ToRAS(p r3.Vec) r3.Vec {
	if cs == LPS {
		return r3.Vec{X: -p.X, Y: -p.Y, Z: p.Z}
	}
	return p
}

func isFinite(p r3.Vec) bool {
	for _, c := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func parseCoordinateSystem(s string) (CoordinateSystem, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "RAS", "0":
		return RAS, nil
	case "LPS", "1":
		return LPS, nil
	default:
		return "", fmt.Errorf("unsupported coordinate system %q", s)
	}
}

// markupsDocument mirrors the subset of the .mrk.json schema we read.
type markupsDocument struct {
	Schema  string `json:"@schema"`
	Markups []struct {
		Type             string `json:"type"`
		Name             string `json:"name,omitempty"`
		CoordinateSystem string `json:"coordinateSystem"`
		CoordinateUnits  string `json:"coordinateUnits,omitempty"`
		ControlPoints    []struct {
			ID       string    `json:"id"`
			Label    string    `json:"label"`
			Position []float64 `json:"position"`
		} `json:"controlPoints"`
	} `json:"markups"`
}

// ReadMarkupsJSON parses a markups JSON document and returns one sequence per
// markup list, positions converted to RAS millimetres.
func ReadMarkupsJSON(r io.Reader) ([]*Sequence, error) {
	var doc markupsDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse markups JSON: %w", err)
	}
	if len(doc.Markups) == 0 {
		return nil, ErrNoMarkups
	}

	out := make([]*Sequence, 0, len(doc.Markups))
	for m, mk := range doc.Markups {
		cs, err := parseCoordinateSystem(mk.CoordinateSystem)
		if err != nil {
			return nil, fmt.Errorf("markup %d: %w", m, err)
		}
		scale, err := units.MillimetresPer(mk.CoordinateUnits)
		if err != nil {
			return nil, fmt.Errorf("markup %d: %w", m, err)
		}
		seq := NewSequence(mk.Name)
		for i, cp := range mk.ControlPoints {
			if len(cp.Position) != 3 {
				return nil, fmt.Errorf("markup %d control point %d: position has %d components, want 3", m, i, len(cp.Position))
			}
			p := r3.Scale(scale, r3.Vec{X: cp.Position[0], Y: cp.Position[1], Z: cp.Position[2]})
			if !isFinite(p) {
				return nil, fmt.Errorf("markup %d control point %d: position is not finite in mm", m, i)
			}
			seq.Append(cs.ToRAS(p), cp.Label)
		}
		out = append(out, seq)
	}
	return out, nil
}
