// Package preview renders generated cylinder ROIs as a static plot or an
// interactive chart for quick visual checks.
package preview

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/cylinder.roi/internal/fsutil"
	"github.com/banshee-data/cylinder.roi/internal/roi"
)

// View selects the plane the footprint is projected onto.
type View int

const (
	// TopView projects onto world X-Y, looking down -Z.
	TopView View = iota
	// SideView projects onto world X-Z.
	SideView
)

func (v View) project(p r3.Vec) plotter.XY {
	if v == SideView {
		return plotter.XY{X: p.X, Y: p.Z}
	}
	return plotter.XY{X: p.X, Y: p.Y}
}

func (v View) axisNames() (string, string) {
	if v == SideView {
		return "X (mm)", "Z (mm)"
	}
	return "X (mm)", "Y (mm)"
}

var (
	surfaceColor   = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	pointColor     = color.RGBA{R: 220, G: 50, B: 47, A: 255}
	directionColor = color.RGBA{R: 38, G: 139, B: 210, A: 255}
)

// FootprintPlot builds a plot of the placed surfaces projected onto view,
// with control points marked and labelled and each estimated direction drawn
// as a segment of length arrowLen.
func FootprintPlot(results []roi.Result, view View, arrowLen float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Cylinder ROIs (%d)", len(results))
	p.X.Label.Text, p.Y.Label.Text = view.axisNames()
	p.Add(plotter.NewGrid())

	var surface plotter.XYs
	centres := make(plotter.XYs, 0, len(results))
	labels := make([]string, 0, len(results))
	for _, r := range results {
		for _, pt := range r.WorldMesh().Points {
			surface = append(surface, view.project(pt))
		}
		centres = append(centres, view.project(r.Position))
		labels = append(labels, r.Label)
	}

	if len(surface) > 0 {
		s, err := plotter.NewScatter(surface)
		if err != nil {
			return nil, fmt.Errorf("surface scatter: %w", err)
		}
		s.GlyphStyle.Color = surfaceColor
		s.GlyphStyle.Radius = vg.Points(0.8)
		p.Add(s)
	}

	for _, r := range results {
		tip := r3.Add(r.Position, r3.Scale(arrowLen, r.Direction.Vec()))
		line, err := plotter.NewLine(plotter.XYs{view.project(r.Position), view.project(tip)})
		if err != nil {
			return nil, fmt.Errorf("direction line: %w", err)
		}
		line.Color = directionColor
		line.Width = vg.Points(1)
		p.Add(line)
	}

	if len(centres) > 0 {
		c, err := plotter.NewScatter(centres)
		if err != nil {
			return nil, fmt.Errorf("point scatter: %w", err)
		}
		c.GlyphStyle.Color = pointColor
		c.GlyphStyle.Radius = vg.Points(3)
		c.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(c)

		l, err := plotter.NewLabels(plotter.XYLabels{XYs: centres, Labels: labels})
		if err != nil {
			return nil, fmt.Errorf("labels: %w", err)
		}
		p.Add(l)
	}

	return p, nil
}

// WriteFootprint renders the footprint plot to w in format ("png" or "svg").
func WriteFootprint(w io.Writer, results []roi.Result, view View, arrowLen float64, format string) error {
	p, err := FootprintPlot(results, view, arrowLen)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(8*vg.Inch, 8*vg.Inch, format)
	if err != nil {
		return fmt.Errorf("failed to create %s writer: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}

// WriteFootprintFile writes the footprint plot to path, choosing the format
// from the extension.
func WriteFootprintFile(fsys fsutil.FileSystem, path string, results []roi.Result, view View, arrowLen float64) (err error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format != "png" && format != "svg" {
		return fmt.Errorf("unsupported plot format %q (want .png or .svg)", format)
	}

	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	return WriteFootprint(f, results, view, arrowLen, format)
}
