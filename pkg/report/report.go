// Package report draws diagnostic plots of a generated worm: the radius
// profile of each tooth-edge curve and a top view of the sampled points.
package report

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/chazu/globoid/pkg/assemble"
	"github.com/chazu/globoid/pkg/spiral"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// profileSteps is the resolution of the radius profile plot.
const profileSteps = 200

// Plot size on disk.
const (
	width  = 6 * vg.Inch
	height = 4 * vg.Inch
)

// RadiusProfile plots the minor-circle radius of every curve against u.
func RadiusProfile(curves [spiral.NumRoles]spiral.Curve) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Tooth edge radius"
	p.X.Label.Text = "u"
	p.Y.Label.Text = "radius"

	for i, c := range curves {
		xys := make(plotter.XYs, profileSteps+1)
		for j := range xys {
			u := spiral.Param(j, profileSteps)
			xys[j].X = u
			xys[j].Y = c.Radius(u)
		}
		if err := addLine(p, i, c.Role.Label(), xys); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// TopView plots the sampled points of every curve projected onto the XY
// plane, looking down the torus axis.
func TopView(samples [spiral.NumRoles]spiral.SampledCurve) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Top view"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	for i, s := range samples {
		xys := make(plotter.XYs, len(s.Points))
		for j, pt := range s.Points {
			xys[j].X, xys[j].Y = pt.X, pt.Y
		}
		if err := addLine(p, i, s.Role.Label(), xys); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func addLine(p *plot.Plot, i int, label string, xys plotter.XYs) error {
	l, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("report: %s: %w", label, err)
	}
	l.LineStyle.Color = plotutil.Color(i)
	l.LineStyle.Width = vg.Points(1)
	p.Add(l)
	p.Legend.Add(label, l)
	return nil
}

// WritePlots saves the radius profile and top view of res as PNG files in
// dir, named after the worm. It returns the paths written.
func WritePlots(dir, name string, res *assemble.Result) ([]string, error) {
	radius, err := RadiusProfile(res.Curves)
	if err != nil {
		return nil, err
	}
	top, err := TopView(res.Samples)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, out := range []struct {
		suffix string
		p      *plot.Plot
	}{{"radius", radius}, {"top", top}} {
		path := filepath.Join(dir, name+"-"+out.suffix+".png")
		if err := out.p.Save(width, height, path); err != nil {
			return paths, fmt.Errorf("report: save %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteSummary writes the derived constants of res. Lengths are multiplied
// by scale.
func WriteSummary(w io.Writer, name string, res *assemble.Result, scale float64) error {
	c := res.Constants
	_, err := fmt.Fprintf(w, `%s
  tooth count      %d
  center distance  %.4f
  minor radius     %.4f
  major radius     %.4f
  tooth top width  %.4f
  tooth root width %.4f
  delta tip        %.4f rad
  delta root       %.4f rad
`, name, c.ToothCount, c.CenterDistance*scale, c.MinorRadius*scale, c.MajorRadius*scale,
		c.ToothTopWidth*scale, c.ToothBottomWidth*scale, c.DeltaTip, c.DeltaRoot)
	return err
}
