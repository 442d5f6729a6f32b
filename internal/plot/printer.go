// Package plot evaluates an observable over a range of arguments and
// writes the points as a CSV table and a PNG chart.
package plot

import (
	"context"
	"fmt"
	"log/slog"
	"math/cmplx"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/wildstyl3r/sfi/internal/utils"
)

// Calculator computes the observable at one argument.
type Calculator func(ctx context.Context, x float64) (complex128, error)

type Point struct {
	X     float64
	Value complex128
}

// Printer names the artifacts <Dir>/<Name>.csv and <Dir>/<Name>.png, or
// puts them under <Dir>/<Subdir>/ when MakeDir is set.
type Printer struct {
	Name    string
	Dir     string
	Subdir  string
	MakeDir bool
	XLabel  string
	// Scale converts arguments for display; nil keeps them as is.
	Scale  func(float64) float64
	Logger *slog.Logger
}

func (p *Printer) scale(x float64) float64 {
	if p.Scale == nil {
		return x
	}
	return p.Scale(x)
}

// Evaluate computes calc at every x in order and stops at the first error.
func (p *Printer) Evaluate(ctx context.Context, xs []float64, calc Calculator) ([]Point, error) {
	logger := utils.Discard(p.Logger)
	points := make([]Point, 0, len(xs))
	for i, x := range xs {
		if err := ctx.Err(); err != nil {
			return points, err
		}
		v, err := calc(ctx, x)
		if err != nil {
			return points, fmt.Errorf("%s at %g: %w", p.Name, x, err)
		}
		logger.Info("point", "plot", p.Name, "index", i, "x", p.scale(x), "value", v)
		points = append(points, Point{X: x, Value: v})
	}
	return points, nil
}

// WriteTable writes one row per point: index, argument, modulus, real and
// imaginary parts.
func (p *Printer) WriteTable(points []Point) error {
	data := make(utils.CSV, len(points))
	for i, pt := range points {
		data[i] = []string{
			strconv.Itoa(i),
			strconv.FormatFloat(p.scale(pt.X), 'g', -1, 64),
			strconv.FormatFloat(cmplx.Abs(pt.Value), 'g', -1, 64),
			strconv.FormatFloat(real(pt.Value), 'g', -1, 64),
			strconv.FormatFloat(imag(pt.Value), 'g', -1, 64),
		}
	}
	return utils.WriteAsCSV(data, p.MakeDir, p.Dir, p.Subdir, p.Name, []string{"n", p.xLabel(), "abs", "re", "im"})
}

func (p *Printer) xLabel() string {
	if p.XLabel == "" {
		return "x"
	}
	return p.XLabel
}

func (p *Printer) WriteChart(points []Point) error {
	chart := plot.New()
	chart.Title.Text = p.Name
	chart.X.Label.Text = p.xLabel()
	chart.Y.Label.Text = "observable"

	abs := make(plotter.XYs, len(points))
	re := make(plotter.XYs, len(points))
	im := make(plotter.XYs, len(points))
	for i, pt := range points {
		x := p.scale(pt.X)
		abs[i] = plotter.XY{X: x, Y: cmplx.Abs(pt.Value)}
		re[i] = plotter.XY{X: x, Y: real(pt.Value)}
		im[i] = plotter.XY{X: x, Y: imag(pt.Value)}
	}
	if err := plotutil.AddLinePoints(chart, "abs", abs, "re", re, "im", im); err != nil {
		return fmt.Errorf("chart %s: %w", p.Name, err)
	}

	w, err := chart.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return err
	}
	file, err := utils.OpenFile(p.MakeDir, p.Dir, p.Subdir, p.Name, "png")
	if err != nil {
		return fmt.Errorf("unable to save %s chart: %w", p.Name, err)
	}
	defer file.Close()
	if _, err := w.WriteTo(file); err != nil {
		return err
	}
	return file.Close()
}
