// Package visualization renders training-curve plots for cross-validation
// runs.
package visualization

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/coganlab/RNN-phoneme-decoding-micro/train"
)

var (
	trainColor = color.RGBA{R: 20, G: 80, B: 200, A: 255}
	valColor   = color.RGBA{R: 200, G: 30, B: 30, A: 255}
)

// PlotAccuracyLoss writes a PNG with two panels: mean training/validation
// accuracy per epoch (averaged across folds) on the left, and the matching
// loss curves on the right.
func PlotAccuracyLoss(h *train.History, path string) error {
	if len(h.Names()) == 0 {
		return fmt.Errorf("no fold histories to plot")
	}
	accPlot, err := curvePanel(h, "accuracy", "val_accuracy", "Accuracy")
	if err != nil {
		return err
	}
	lossPlot, err := curvePanel(h, "loss", "val_loss", "Loss")
	if err != nil {
		return err
	}

	img := vgimg.New(12*vg.Inch, 5*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1, Cols: 2,
		PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 4,
	}
	plots := [][]*plot.Plot{{accPlot, lossPlot}}
	canvases := plot.Align(plots, tiles, dc)
	for c, p := range plots[0] {
		p.Draw(canvases[0][c])
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create plot directory: %w", err)
		}
	}
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot file: %w", err)
	}
	defer w.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	return nil
}

// curvePanel builds one panel with the fold-averaged training and validation
// series of a metric pair.
func curvePanel(h *train.History, trainName, valName, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = title

	if err := addCurve(p, h.EpochMean(trainName), "train", trainColor); err != nil {
		return nil, err
	}
	if err := addCurve(p, h.EpochMean(valName), "validation", valColor); err != nil {
		return nil, err
	}
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p, nil
}

func addCurve(p *plot.Plot, series []float64, label string, col color.RGBA) error {
	if len(series) == 0 {
		return nil
	}
	xys := make(plotter.XYs, len(series))
	for i, v := range series {
		xys[i] = plotter.XY{X: float64(i + 1), Y: v}
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	line.Color = col
	line.Width = vg.Points(1.2)
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}
