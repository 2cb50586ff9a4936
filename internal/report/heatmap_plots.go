package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"

	"github.com/user/letgo_analyzer_go/internal/analysis"
)

const (
	// heatmapBins is the number of time columns in the exceedance heatmap.
	heatmapBins = 120
	// heatmapMaxRatio is the measured/limit ratio drawn in the hottest colour.
	heatmapMaxRatio = 2.0
)

// exceedanceGrid implements plotter.GridXYZ. Rows are channels, columns are
// equal-width time bins; Z is the largest measured/limit ratio in the bin,
// NaN when the bin holds no analyzed sample.
type exceedanceGrid struct {
	z     [][]float64
	start float64
	width float64
}

func (g *exceedanceGrid) Dims() (c, r int)   { return len(g.z[0]), len(g.z) }
func (g *exceedanceGrid) Z(c, r int) float64 { return g.z[r][c] }
func (g *exceedanceGrid) X(c int) float64    { return g.start + (float64(c)+0.5)*g.width }
func (g *exceedanceGrid) Y(r int) float64    { return float64(r) }

// exceedanceRows computes the heatmap rows for the channels of run in order.
func exceedanceRows(run *Run, bins int) (*exceedanceGrid, []analysis.Channel, error) {
	var channels []analysis.Channel
	start, end := math.Inf(1), math.Inf(-1)
	for _, ch := range []analysis.Channel{analysis.Current, analysis.Voltage} {
		w := run.Waveform(ch)
		if w == nil {
			continue
		}
		s, e, ok := viewSpan(w, run.Result.SkipTime)
		if !ok {
			continue
		}
		channels = append(channels, ch)
		start, end = math.Min(start, s), math.Max(end, e)
	}
	if len(channels) == 0 {
		return nil, nil, fmt.Errorf("no analyzed samples to plot heatmap")
	}

	g := &exceedanceGrid{start: start, width: (end - start) / float64(bins)}
	if g.width <= 0 {
		g.width = 1
	}
	for _, ch := range channels {
		zs := make([]float64, bins)
		for i := range zs {
			zs[i] = math.NaN()
		}
		view := run.Waveform(ch).From(run.Result.SkipTime)
		measured, limits := analysis.LimitTrace(view, run.curve(ch))
		for i := range measured {
			bin := int((view.Time(i) - start) / g.width)
			bin = max(0, min(bin, bins-1))
			ratio := measured[i] / limits[i]
			if math.IsNaN(zs[bin]) || ratio > zs[bin] {
				zs[bin] = ratio
			}
		}
		g.z = append(g.z, zs)
	}
	return g, channels, nil
}

// CreateExceedanceHeatmap draws how close each channel came to its limit over
// time. Values above 1 are violations.
func CreateExceedanceHeatmap(run *Run) ([]byte, error) {
	grid, channels, err := exceedanceRows(run, heatmapBins)
	if err != nil {
		return nil, err
	}

	hm := plotter.NewHeatMap(grid, palette.Heat(16, 1))
	hm.Min = 0
	hm.Max = heatmapMaxRatio
	hm.NaN = color.Gray{Y: 200}
	hm.Underflow = color.Gray{Y: 255}
	hm.Overflow = color.RGBA{R: 0x80, A: 255}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Peak value / limit per time bin (%s)", run.Result.Config)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Channel"

	yTicks := make([]plot.Tick, len(channels))
	for i, ch := range channels {
		yTicks[i] = plot.Tick{Value: float64(i), Label: string(ch)}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)
	p.Y.Min = -0.5
	p.Y.Max = float64(len(channels)) - 0.5
	p.X.Min = grid.start
	p.X.Max = grid.start + grid.width*float64(heatmapBins)
	p.Add(hm)

	return renderPNG(p, 1000, 300)
}
