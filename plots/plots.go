// Package plots renders training diagnostics to image files.
package plots

import "image/color"

import "github.com/pkg/errors"
import "gonum.org/v1/plot"
import "gonum.org/v1/plot/plotter"
import "gonum.org/v1/plot/vg"

// The duty-cycle diagnostic uses 200 equal bins over [0, 0.8], fixed so that
// histograms from different epochs share one axis and are comparable.
const (
	histBins = 200
	histMax  = 0.8
)

// DutyCycleHistogram writes a histogram of per-unit duty cycles to path. The
// output format follows the file extension (.png for the experiment's plots).
func DutyCycleHistogram(dutyCycle []float64, path string) error {
	p := plot.New()
	p.Title.Text = "Duty cycle distribution"
	p.X.Label.Text = "Duty cycle"
	p.Y.Label.Text = "Number of units"

	h := &plotter.Histogram{
		Bins:      fixedBins(dutyCycle),
		Width:     histMax,
		FillColor: color.Gray{Y: 128},
		LineStyle: plotter.DefaultLineStyle,
	}
	p.Add(h)
	p.X.Min, p.X.Max = 0, histMax

	return errors.Wrap(p.Save(6*vg.Inch, 4*vg.Inch, path), "plots: save histogram")
}

// fixedBins counts values into the fixed bin layout. Values outside [0,
// histMax] land in the nearest edge bin.
func fixedBins(values []float64) []plotter.HistogramBin {
	bins := make([]plotter.HistogramBin, histBins)
	w := histMax / histBins
	for i := range bins {
		bins[i].Min = float64(i) * w
		bins[i].Max = bins[i].Min + w
	}
	for _, v := range values {
		i := int(v / w)
		if i < 0 {
			i = 0
		} else if i >= histBins {
			i = histBins - 1
		}
		bins[i].Weight++
	}
	return bins
}
