package preview

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cylinder.roi/internal/roi"
)

// Scatter3D builds an interactive 3D chart with one series for the control
// points and one for the tips of their direction vectors.
func Scatter3D(results []roi.Result, arrowLen float64) *charts.Scatter3D {
	points := make([]opts.Chart3DData, 0, len(results))
	tips := make([]opts.Chart3DData, 0, len(results))
	for _, r := range results {
		p := r.Position
		points = append(points, opts.Chart3DData{Name: r.Label, Value: []interface{}{p.X, p.Y, p.Z}})
		t := r3.Add(p, r3.Scale(arrowLen, r.Direction.Vec()))
		tips = append(tips, opts.Chart3DData{Name: r.Label, Value: []interface{}{t.X, t.Y, t.Z}})
	}

	scatter := charts.NewScatter3D()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Cylinder ROIs", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Cylinder ROIs", Subtitle: fmt.Sprintf("points=%d", len(results))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X (mm)"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Y (mm)"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Z (mm)"}),
	)
	scatter.AddSeries("points", points)
	scatter.AddSeries("directions", tips)
	return scatter
}

// RenderScatter3D writes the Scatter3D chart as a standalone HTML page.
func RenderScatter3D(w io.Writer, results []roi.Result, arrowLen float64) error {
	if err := Scatter3D(results, arrowLen).Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
