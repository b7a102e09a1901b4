package landmark

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cylinder.roi/internal/fsutil"
)

const markupsRAS = `{
  "@schema": "https://raw.githubusercontent.com/slicer/slicer/master/Modules/Loadable/Markups/Resources/Schema/markups-schema-v1.0.3.json#",
  "markups": [{
    "type": "Fiducial",
    "coordinateSystem": "RAS",
    "controlPoints": [
      {"id": "1", "label": "A", "position": [0, 0, 0]},
      {"id": "2", "label": "B", "position": [0, 0, 10]},
      {"id": "3", "label": "",  "position": [5, 0, 10]}
    ]
  }]
}`

func TestSequence_Basics(t *testing.T) {
	var nilSeq *Sequence
	assert.Equal(t, 0, nilSeq.Count())

	seq := NewSequence("s", ControlPoint{Position: r3.Vec{X: 1}, Label: "first"})
	seq.Append(r3.Vec{Y: 2}, "")
	require.Equal(t, 2, seq.Count())
	assert.Equal(t, r3.Vec{Y: 2}, seq.PositionAt(1))
	assert.Equal(t, "first", seq.LabelAt(0))
	assert.Equal(t, "Point_2", seq.LabelAt(1))

	// Points returns a copy.
	pts := seq.Points()
	pts[0].Label = "changed"
	assert.Equal(t, "first", seq.LabelAt(0))
}

func TestDefaultLabel(t *testing.T) {
	assert.Equal(t, "Point_1", DefaultLabel(0))
	assert.Equal(t, "Point_10", DefaultLabel(9))
	assert.Equal(t, "kept", LabelOrDefault("kept", 3))
	assert.Equal(t, "Point_4", LabelOrDefault("", 3))
}

func TestReadMarkupsJSON(t *testing.T) {
	seqs, err := ReadMarkupsJSON(strings.NewReader(markupsRAS))
	require.NoError(t, err)
	require.Len(t, seqs, 1)

	want := []ControlPoint{
		{Position: r3.Vec{}, Label: "A"},
		{Position: r3.Vec{Z: 10}, Label: "B"},
		{Position: r3.Vec{X: 5, Z: 10}, Label: ""},
	}
	if diff := cmp.Diff(want, seqs[0].Points()); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Point_3", seqs[0].LabelAt(2))
}

func TestReadMarkupsJSON_LPS(t *testing.T) {
	doc := `{"markups": [{"name": "lps", "coordinateSystem": "LPS",
		"controlPoints": [{"label": "P", "position": [1, 2, 3]}]}]}`
	seqs, err := ReadMarkupsJSON(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "lps", seqs[0].Name)
	assert.Equal(t, r3.Vec{X: -1, Y: -2, Z: 3}, seqs[0].PositionAt(0))
}

func TestReadMarkupsJSON_Units(t *testing.T) {
	doc := `{"markups": [{"coordinateUnits": "cm",
		"controlPoints": [{"label": "P", "position": [1, 2, 3]}]}]}`
	seqs, err := ReadMarkupsJSON(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{X: 10, Y: 20, Z: 30}, seqs[0].PositionAt(0))
}

func TestReadMarkupsJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", `{"markups": [`},
		{"bad coordinate system", `{"markups": [{"coordinateSystem": "XYZ", "controlPoints": []}]}`},
		{"short position", `{"markups": [{"controlPoints": [{"position": [1, 2]}]}]}`},
		{"bad units", `{"markups": [{"coordinateUnits": "furlong", "controlPoints": []}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMarkupsJSON(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}

	_, err := ReadMarkupsJSON(strings.NewReader(`{"markups": []}`))
	assert.ErrorIs(t, err, ErrNoMarkups)
}

func TestReadFCSV(t *testing.T) {
	const doc = `# Markups fiducial file version = 4.11
# CoordinateSystem = LPS
# columns = id,x,y,z,ow,ox,oy,oz,vis,sel,lock,label,desc,associatedNodeID
vtkMRMLMarkupsFiducialNode_0,1,2,3,0,0,0,1,1,1,0,F-1,,
vtkMRMLMarkupsFiducialNode_1,-4.5,0,7.25,0,0,0,1,1,1,0,,,
`
	seq, err := ReadFCSV(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, 2, seq.Count())
	assert.Equal(t, r3.Vec{X: -1, Y: -2, Z: 3}, seq.PositionAt(0))
	assert.Equal(t, r3.Vec{X: 4.5, Y: 0, Z: 7.25}, seq.PositionAt(1))
	assert.Equal(t, "F-1", seq.LabelAt(0))
	assert.Equal(t, "Point_2", seq.LabelAt(1))
}

func TestReadFCSV_CustomColumns(t *testing.T) {
	const doc = `# CoordinateSystem = 0
# columns = label,z,y,x
tip,3,2,1
`
	seq, err := ReadFCSV(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, seq.PositionAt(0))
	assert.Equal(t, "tip", seq.LabelAt(0))
}

func TestReadFCSV_Errors(t *testing.T) {
	_, err := ReadFCSV(strings.NewReader("# columns = id,x,y\n1,2,3\n"))
	assert.ErrorContains(t, err, `"z"`)

	_, err = ReadFCSV(strings.NewReader("p,1,abc,3\n"))
	assert.ErrorContains(t, err, "failed to parse y")

	_, err = ReadFCSV(strings.NewReader("p,1\n"))
	assert.ErrorContains(t, err, "missing column")
}

func TestReadFCSV_NonFinite(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"nan x", "A,nan,0,0\n", "row 1: x is not finite"},
		{"inf y", "A,0,0,0\nB,1,inf,0\n", "row 2: y is not finite"},
		{"negative inf z", "A,1,2,-Inf\n", "row 1: z is not finite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := ReadFCSV(strings.NewReader(tt.row))
			assert.ErrorContains(t, err, tt.want)
			assert.Nil(t, seq)
		})
	}
}

func TestReadMarkupsJSON_OverflowToInfinity(t *testing.T) {
	doc := `{"markups": [{"coordinateUnits": "m",
		"controlPoints": [{"label": "P", "position": [1e308, 0, 0]}]}]}`
	_, err := ReadMarkupsJSON(strings.NewReader(doc))
	assert.ErrorContains(t, err, "not finite")
}

func TestLoad(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("data/spine.mrk.json", []byte(markupsRAS), 0644))
	require.NoError(t, fsys.WriteFile("data/tips.fcsv", []byte("a,1,2,3\n"), 0644))
	require.NoError(t, fsys.WriteFile("data/notes.txt", []byte("x"), 0644))

	seq, err := Load(fsys, "data/spine.mrk.json")
	require.NoError(t, err)
	assert.Equal(t, "spine", seq.Name)
	assert.Equal(t, 3, seq.Count())

	seq, err = Load(fsys, "data/tips.fcsv")
	require.NoError(t, err)
	assert.Equal(t, "tips", seq.Name)
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, seq.PositionAt(0))

	_, err = Load(fsys, "data/notes.txt")
	assert.ErrorContains(t, err, "unsupported markups extension")

	_, err = Load(fsys, "data/missing.fcsv")
	assert.Error(t, err)
}
