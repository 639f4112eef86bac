// Package plotting draws the analysis figures with gonum/plot: the
// correlation heatmap, the stress by activity interaction plot and the
// predicted disorder probability curves.
package plotting

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/sleepstat/dataset"
	"github.com/YuminosukeSato/sleepstat/formula"
	"github.com/YuminosukeSato/sleepstat/linear"
	"github.com/YuminosukeSato/sleepstat/prediction"
	"github.com/YuminosukeSato/sleepstat/pkg/errors"
)

// Figure sizes.
var (
	HeatmapSize     = [2]vg.Length{10 * vg.Inch, 8 * vg.Inch}
	InteractionSize = [2]vg.Length{8 * vg.Inch, 6 * vg.Inch}
	ProbabilitySize = [2]vg.Length{8 * vg.Inch, 6 * vg.Inch}
)

// ActivityQuantiles are the activity levels at which interaction lines are drawn.
var ActivityQuantiles = []float64{0.1, 0.5, 0.9}

// corrGrid adapts a correlation matrix to plotter.GridXYZ with the first
// column at the top.
type corrGrid struct {
	c *dataset.CorrelationMatrix
}

func (g corrGrid) Dims() (c, r int) {
	n := len(g.c.Names)
	return n, n
}

func (g corrGrid) Z(c, r int) float64 {
	n := len(g.c.Names)
	return g.c.Values.At(n-1-r, c)
}

func (g corrGrid) X(c int) float64 { return float64(c) }
func (g corrGrid) Y(r int) float64 { return float64(r) }

// Heatmap draws c with annotated cells and saves it to path. The file
// format follows the extension.
func Heatmap(c *dataset.CorrelationMatrix, path string) error {
	if c == nil || c.Values == nil || len(c.Names) < 2 {
		return errors.NewValidationError("correlation", "need at least two numeric columns", nil)
	}
	n := len(c.Names)

	p := plot.New()
	p.Title.Text = "Correlation Heatmap - Sleep Dataset"

	hm := plotter.NewHeatMap(corrGrid{c}, palette.Heat(16, 1))
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.Gray{Y: 200}
	p.Add(hm)

	xys := make(plotter.XYs, 0, n*n)
	labels := make([]string, 0, n*n)
	for r := 0; r < n; r++ {
		for col := 0; col < n; col++ {
			v := c.Values.At(n-1-r, col)
			xys = append(xys, plotter.XY{X: float64(col), Y: float64(r)})
			if math.IsNaN(v) {
				labels = append(labels, "")
				continue
			}
			labels = append(labels, fmt.Sprintf("%.2f", v))
		}
	}
	annot, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return errors.Wrap(err, "heatmap labels")
	}
	for i := range annot.TextStyle {
		annot.TextStyle[i].XAlign = -0.5
		annot.TextStyle[i].YAlign = -0.5
	}
	p.Add(annot)

	xt := make([]plot.Tick, n)
	yt := make([]plot.Tick, n)
	for i, name := range c.Names {
		xt[i] = plot.Tick{Value: float64(i), Label: name}
		yt[i] = plot.Tick{Value: float64(n - 1 - i), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xt)
	p.Y.Tick.Marker = plot.ConstantTicks(yt)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = -1

	return save(p, HeatmapSize, path)
}

// Interaction scatters quality against stress and overlays the fitted
// lines of the interaction model at low, middle and high activity.
func Interaction(t *dataset.Table, res *linear.OLSResults, stress, activity, quality, path string) error {
	if res == nil {
		return errors.NewValidationError("model", "interaction model is required", nil)
	}
	s, err := t.Numeric(stress)
	if err != nil {
		return err
	}
	a, err := t.Numeric(activity)
	if err != nil {
		return err
	}
	q, err := t.Numeric(quality)
	if err != nil {
		return err
	}
	if len(s) == 0 {
		return errors.NewModelError("plotting.Interaction", "empty data", errors.ErrEmptyData)
	}

	coef := func(name string) (float64, error) {
		v, ok := res.Coef(name)
		if !ok {
			return 0, errors.NewMissingColumnError("plotting.Interaction", name)
		}
		return v, nil
	}
	names := []string{formula.InterceptName, stress, activity, formula.Interact(stress, activity).Name()}
	b := make([]float64, len(names))
	for i, n := range names {
		if b[i], err = coef(n); err != nil {
			return err
		}
	}

	p := plot.New()
	p.Title.Text = "Interaction: Stress x Physical Activity on Sleep Quality"
	p.X.Label.Text = stress
	p.Y.Label.Text = quality
	p.Legend.Top = true

	pts := make(plotter.XYs, len(s))
	for i := range s {
		pts[i] = plotter.XY{X: s[i], Y: q[i]}
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "interaction scatter")
	}
	sc.GlyphStyle.Color = color.Gray{Y: 140}
	sc.GlyphStyle.Radius = vg.Points(2)
	p.Add(sc)

	sorted := append([]float64(nil), a...)
	sort.Float64s(sorted)
	lo, hi := minMax(s)
	for i, qt := range ActivityQuantiles {
		level := stat.Quantile(qt, stat.Empirical, sorted, nil)
		line, err := plotter.NewLine(plotter.XYs{
			{X: lo, Y: b[0] + b[1]*lo + b[2]*level + b[3]*lo*level},
			{X: hi, Y: b[0] + b[1]*hi + b[2]*level + b[3]*hi*level},
		})
		if err != nil {
			return errors.Wrap(err, "interaction line")
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s = %g", activity, level), line)
	}
	return save(p, InteractionSize, path)
}

// Probabilities draws one curve per category of tbl.
func Probabilities(tbl *prediction.ProbabilityTable, path string) error {
	if tbl == nil || len(tbl.Grid) == 0 {
		return errors.NewValidationError("probabilities", "empty probability table", nil)
	}
	p := plot.New()
	p.Title.Text = "Predicted Probability of Sleep Disorder vs Stress Level"
	p.X.Label.Text = tbl.Vary
	p.Y.Label.Text = "Predicted Probability"
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())

	var lines []any
	for _, cat := range tbl.Categories {
		col, _ := tbl.Column(cat)
		xys := make(plotter.XYs, len(tbl.Grid))
		for i, x := range tbl.Grid {
			xys[i] = plotter.XY{X: x, Y: col[i]}
		}
		lines = append(lines, cat, xys)
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return errors.Wrap(err, "probability lines")
	}
	return save(p, ProbabilitySize, path)
}

func save(p *plot.Plot, size [2]vg.Length, path string) error {
	if err := p.Save(size[0], size[1], path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}

func minMax(v []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range v {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}
