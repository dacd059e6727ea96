package visualize

import (
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"
)

// CurvePoint is one epoch's worth of loss-curve data.
type CurvePoint struct {
	Epoch      int
	TrainLoss  float64
	ValLoss    float64
	PixelError float64
}

// SaveCurves writes a two-panel SVG to path: train and validation loss on
// top, validation pixel error below.
func SaveCurves(path string, points []CurvePoint) error {
	if len(points) == 0 {
		return errors.New("no epochs to plot")
	}

	lossPlot := newCurvePlot("loss")
	if err := addLine(lossPlot, points, func(p CurvePoint) float64 { return p.TrainLoss }, "train", 0); err != nil {
		return err
	}
	if err := addLine(lossPlot, points, func(p CurvePoint) float64 { return p.ValLoss }, "val", 1); err != nil {
		return err
	}
	pixPlot := newCurvePlot("pixel error")
	if err := addLine(pixPlot, points, func(p CurvePoint) float64 { return p.PixelError }, "", 2); err != nil {
		return err
	}

	canvas := vgsvg.New(6*vg.Inch, 6*vg.Inch)
	dc := draw.New(canvas)
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: 2 * vg.Millimeter}
	panels := [][]*plot.Plot{{lossPlot}, {pixPlot}}
	for i, row := range plot.Align(panels, tiles, dc) {
		panels[i][0].Draw(row[0])
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "curves %s", path)
	}
	if _, err := canvas.WriteTo(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "curves %s", path)
	}
	return errors.Wrapf(f.Close(), "curves %s", path)
}

func newCurvePlot(yLabel string) *plot.Plot {
	p := plot.New()
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p
}

func addLine(p *plot.Plot, points []CurvePoint, value func(CurvePoint) float64, name string, ix int) error {
	pts := make(plotter.XYs, len(points))
	for i, cp := range points {
		pts[i].X = float64(cp.Epoch)
		pts[i].Y = value(cp)
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "loss curve line")
	}
	l.Width = vg.Points(1.5)
	l.Color = plotutil.Color(ix)
	p.Add(l)
	if name != "" {
		p.Legend.Add(name, l)
	}
	return nil
}
