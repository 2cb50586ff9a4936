package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/user/letgo_analyzer_go/internal/analysis"
	"github.com/user/letgo_analyzer_go/internal/threshold"
	"github.com/user/letgo_analyzer_go/internal/waveform"
)

// maxPlotPoints bounds the number of points drawn per trace.
const maxPlotPoints = 4000

var (
	traceColor     = color.RGBA{B: 200, A: 255}
	limitColor     = color.RGBA{R: 255, A: 255}
	violationColor = color.RGBA{R: 255, A: 70}
	skipColor      = color.Gray{Y: 220}
)

// decimate reduces times/values to at most maxPoints points, keeping the
// minimum and maximum of each bucket so that peaks stay visible.
func decimate(times, values []float64, maxPoints int) plotter.XYs {
	n := len(times)
	if n <= maxPoints || maxPoints < 2 {
		pts := make(plotter.XYs, n)
		for i := range pts {
			pts[i] = plotter.XY{X: times[i], Y: values[i]}
		}
		return pts
	}
	buckets := maxPoints / 2
	pts := make(plotter.XYs, 0, 2*buckets)
	for b := 0; b < buckets; b++ {
		lo, hi := b*n/buckets, (b+1)*n/buckets
		if lo >= hi {
			continue
		}
		iMin, iMax := lo, lo
		for i := lo; i < hi; i++ {
			if values[i] < values[iMin] {
				iMin = i
			}
			if values[i] > values[iMax] {
				iMax = i
			}
		}
		first, second := iMin, iMax
		if first > second {
			first, second = second, first
		}
		pts = append(pts, plotter.XY{X: times[first], Y: values[first]})
		if second != first {
			pts = append(pts, plotter.XY{X: times[second], Y: values[second]})
		}
	}
	return pts
}

// band returns a filled rectangle over [x0, x1) spanning the y range.
func band(x0, x1, yMin, yMax float64, fill color.Color) (*plotter.Polygon, error) {
	poly, err := plotter.NewPolygon(plotter.XYs{
		{X: x0, Y: yMin}, {X: x1, Y: yMin}, {X: x1, Y: yMax}, {X: x0, Y: yMax},
	})
	if err != nil {
		return nil, err
	}
	poly.Color = fill
	poly.LineStyle.Width = 0
	return poly, nil
}

func valueRange(series ...[]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 0) {
		return 0, 1
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.05, 1e-9)
	}
	return lo - pad, hi + pad
}

// CreateWaveformPlot draws one channel's waveform with the limit in force at
// each analyzed sample, the skipped window and the violation intervals.
func CreateWaveformPlot(run *Run, ch analysis.Channel) ([]byte, error) {
	w := run.Waveform(ch)
	if w == nil || w.Len() == 0 {
		return nil, fmt.Errorf("no %s waveform to plot", ch)
	}
	curve := run.curve(ch)
	if !curve.Defined() {
		return nil, fmt.Errorf("no %s threshold curve to plot", ch)
	}
	unit := channelUnit(ch)

	times, values := w.Times(), w.Values()
	view := w.From(run.Result.SkipTime)
	_, limits := analysis.LimitTrace(view, curve)
	viewTimes := view.Times()

	series := [][]float64{values, limits}
	var negLimits []float64
	if curve.Polarity == threshold.Magnitude {
		negLimits = make([]float64, len(limits))
		for i, l := range limits {
			negLimits[i] = -l
		}
		series = append(series, negLimits)
	}
	yMin, yMax := valueRange(series...)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Let-go %s (%s)", ch, run.Result.Config)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = fmt.Sprintf("%s (%s)", ch, unit)
	p.X.Min = times[0]
	p.X.Max = w.EndOf(w.Len() - 1)
	if p.X.Max <= p.X.Min {
		p.X.Max = p.X.Min + 1
	}
	p.Y.Min = yMin
	p.Y.Max = yMax
	p.Add(plotter.NewGrid())

	if skip := run.Result.SkipTime; skip > times[0] {
		poly, err := band(times[0], math.Min(skip, p.X.Max), yMin, yMax, skipColor)
		if err != nil {
			return nil, fmt.Errorf("failed to create skip band: %v", err)
		}
		p.Add(poly)
		p.Legend.Add("skipped", poly)
	}

	if cr, ok := run.channelResult(ch); ok {
		for i, r := range cr.Violations {
			poly, err := band(r.Start, r.End, yMin, yMax, violationColor)
			if err != nil {
				return nil, fmt.Errorf("failed to create violation band: %v", err)
			}
			p.Add(poly)
			if i == 0 {
				p.Legend.Add("violation", poly)
			}
		}
	}

	trace, err := plotter.NewLine(decimate(times, values, maxPlotPoints))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s trace: %v", ch, err)
	}
	trace.Color = traceColor
	trace.LineStyle.Width = vg.Points(1)
	p.Add(trace)
	p.Legend.Add(string(ch), trace)

	if len(limits) > 0 {
		if err := addLimitLine(p, viewTimes, limits, "limit"); err != nil {
			return nil, err
		}
		if negLimits != nil {
			if err := addLimitLine(p, viewTimes, negLimits, ""); err != nil {
				return nil, err
			}
		}
	}

	p.Legend.Top = true
	p.Legend.XOffs = vg.Points(-10)

	return renderPNG(p, 800, 400)
}

func addLimitLine(p *plot.Plot, times, limits []float64, legend string) error {
	line, err := plotter.NewLine(decimate(times, limits, maxPlotPoints))
	if err != nil {
		return fmt.Errorf("failed to create limit line: %v", err)
	}
	line.Color = limitColor
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	p.Add(line)
	if legend != "" {
		p.Legend.Add(legend, line)
	}
	return nil
}

func renderPNG(p *plot.Plot, width, height float64) ([]byte, error) {
	writer, err := p.WriterTo(vg.Points(width), vg.Points(height), "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %v", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write plot to buffer: %v", err)
	}
	return buf.Bytes(), nil
}

// viewSpan is the analyzed time span of w after skip.
func viewSpan(w *waveform.Waveform, skip float64) (start, end float64, ok bool) {
	view := w.From(skip)
	if view.Len() == 0 {
		return 0, 0, false
	}
	return view.Start(), view.EndOf(view.Len() - 1), true
}
