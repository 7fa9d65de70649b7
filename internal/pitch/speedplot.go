package pitch

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PNGSpeedPlotter writes a per-analysis chart of corrected interval speeds
// to a directory, one PNG per analysis.
type PNGSpeedPlotter struct {
	outputDir string
}

// NewPNGSpeedPlotter creates the output directory if needed.
func NewPNGSpeedPlotter(outputDir string) (*PNGSpeedPlotter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plot dir: %w", err)
	}
	return &PNGSpeedPlotter{outputDir: outputDir}, nil
}

// Plot writes a line of interval speed against interval index with a dashed
// reference at the reported speed, and returns the written path.
func (sp *PNGSpeedPlotter) Plot(speedsKMH []float64, referenceKMH float64) (string, error) {
	if len(speedsKMH) == 0 {
		return "", fmt.Errorf("no interval speeds to plot")
	}

	p := plot.New()
	p.Title.Text = "Pitch Interval Speeds"
	p.X.Label.Text = "Interval"
	p.Y.Label.Text = "Speed (km/h)"

	pts := make(plotter.XYs, len(speedsKMH))
	for i, s := range speedsKMH {
		pts[i] = plotter.XY{X: float64(i), Y: s}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return "", fmt.Errorf("build speed line: %w", err)
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add("interval speed", line)

	maxX := float64(len(speedsKMH) - 1)
	if maxX == 0 {
		maxX = 1
	}
	ref, err := plotter.NewLine(plotter.XYs{{X: 0, Y: referenceKMH}, {X: maxX, Y: referenceKMH}})
	if err != nil {
		return "", fmt.Errorf("build reference line: %w", err)
	}
	ref.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	ref.Width = vg.Points(1)
	ref.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(ref)
	p.Legend.Add(fmt.Sprintf("reported %.1f km/h", referenceKMH), ref)
	p.Legend.Top = true

	out := filepath.Join(sp.outputDir, uuid.NewString()+"_speed.png")
	if err := p.Save(8*vg.Inch, 4*vg.Inch, out); err != nil {
		return "", fmt.Errorf("save speed plot: %w", err)
	}
	return out, nil
}
