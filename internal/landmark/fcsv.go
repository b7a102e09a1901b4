package landmark

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Default column layout of fiducial CSV files written since format 4.6.
var defaultFCSVColumns = []string{
	"id", "x", "y", "z", "ow", "ox", "oy", "oz", "vis", "sel", "lock", "label", "desc", "associatedNodeID",
}

// ReadFCSV parses a fiducial CSV file. Header comments may declare the
// coordinate system ("# CoordinateSystem = LPS", or the legacy 0/1 codes)
// and the column order ("# columns = id,x,y,z,..."); both default to RAS and
// the standard layout.
func ReadFCSV(r io.Reader) (*Sequence, error) {
	cs := RAS
	columns := defaultFCSVColumns
	var body strings.Builder

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "#") {
			body.WriteString(line)
			body.WriteByte('\n')
			continue
		}

		key, value, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(trimmed, "#")), "=")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "coordinatesystem":
			parsed, err := parseCoordinateSystem(value)
			if err != nil {
				return nil, err
			}
			cs = parsed
		case "columns":
			columns = strings.Split(strings.TrimSpace(value), ",")
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fcsv: %w", err)
	}

	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		idx[strings.TrimSpace(c)] = i
	}
	for _, required := range []string{"x", "y", "z"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("fcsv columns missing %q", required)
		}
	}
	labelCol, hasLabel := idx["label"]

	cr := csv.NewReader(strings.NewReader(body.String()))
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse fcsv rows: %w", err)
	}

	seq := NewSequence("")
	for row, rec := range records {
		var p [3]float64
		for k, name := range []string{"x", "y", "z"} {
			col := idx[name]
			if col >= len(rec) {
				return nil, fmt.Errorf("fcsv row %d: missing column %q", row+1, name)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
			if err != nil {
				return nil, fmt.Errorf("fcsv row %d: failed to parse %s: %v", row+1, name, err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("fcsv row %d: %s is not finite: %q", row+1, name, strings.TrimSpace(rec[col]))
			}
			p[k] = v
		}
		label := ""
		if hasLabel && labelCol < len(rec) {
			label = strings.TrimSpace(rec[labelCol])
		}
		seq.Append(cs.ToRAS(r3.Vec{X: p[0], Y: p[1], Z: p[2]}), label)
	}
	return seq, nil
}
