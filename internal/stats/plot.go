package stats

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"pixelevo/internal/model"
)

var (
	bestColor  = color.RGBA{R: 0x1b, G: 0x9e, B: 0x77, A: 0xff}
	meanColor  = color.RGBA{R: 0x75, G: 0x70, B: 0xb3, A: 0xff}
	worstColor = color.RGBA{R: 0xd9, G: 0x5f, B: 0x02, A: 0xff}
)

// PlotFitnessHistory renders best, mean and worst fitness per generation as a
// PNG (or any format plot.Save infers from the extension).
func PlotFitnessHistory(path, title string, diagnostics []model.GenerationDiagnostics) error {
	if len(diagnostics) == 0 {
		return fmt.Errorf("no diagnostics to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness (lower is better)"
	p.Y.Min = 0

	best := make(plotter.XYs, len(diagnostics))
	mean := make(plotter.XYs, len(diagnostics))
	worst := make(plotter.XYs, len(diagnostics))
	for i, diag := range diagnostics {
		x := float64(diag.Generation)
		best[i] = plotter.XY{X: x, Y: float64(diag.BestFitness)}
		mean[i] = plotter.XY{X: x, Y: diag.MeanFitness}
		worst[i] = plotter.XY{X: x, Y: float64(diag.WorstFitness)}
	}

	series := []struct {
		name  string
		pts   plotter.XYs
		color color.Color
	}{
		{"best", best, bestColor},
		{"mean", mean, meanColor},
		{"worst", worst, worstColor},
	}
	for _, s := range series {
		line, err := plotter.NewLine(s.pts)
		if err != nil {
			return err
		}
		line.Color = s.color
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
