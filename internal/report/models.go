package report

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/user/letgo_analyzer_go/internal/analysis"
	"github.com/user/letgo_analyzer_go/internal/threshold"
	"github.com/user/letgo_analyzer_go/internal/waveform"
)

// Run is everything a report needs about one analysis.
type Run struct {
	ID       uuid.UUID
	Created  time.Time
	Version  string
	DataFile string
	Result   *analysis.Result
	Curves   threshold.CurveSet
	Warnings []string

	waves map[analysis.Channel]*waveform.Waveform
}

// NewRun wraps an analysis result with a fresh run ID.
func NewRun(dataFile string, res *analysis.Result, curves threshold.CurveSet) *Run {
	return &Run{
		ID:       uuid.New(),
		Created:  time.Now().UTC(),
		DataFile: dataFile,
		Result:   res,
		Curves:   curves,
		Warnings: make([]string, 0),
		waves:    make(map[analysis.Channel]*waveform.Waveform),
	}
}

// AddWaveform attaches the analyzed waveform of a channel for plotting.
func (r *Run) AddWaveform(ch analysis.Channel, w *waveform.Waveform) {
	if w != nil {
		r.waves[ch] = w
	}
}

// Waveform returns the attached waveform of ch, or nil.
func (r *Run) Waveform(ch analysis.Channel) *waveform.Waveform {
	return r.waves[ch]
}

func (r *Run) curve(ch analysis.Channel) threshold.Curve {
	if ch == analysis.Voltage {
		return r.Curves.Voltage
	}
	return r.Curves.Current
}

// channelResult returns the per-channel result of ch.
func (r *Run) channelResult(ch analysis.Channel) (analysis.ChannelResult, bool) {
	for _, c := range r.Result.Channels {
		if c.Channel == ch {
			return c, true
		}
	}
	return analysis.ChannelResult{}, false
}

var siPrefixes = []struct {
	scale  float64
	prefix string
}{
	{1e9, "G"}, {1e6, "M"}, {1e3, "k"}, {1, ""}, {1e-3, "m"}, {1e-6, "µ"}, {1e-9, "n"}, {1e-12, "p"},
}

// formatSI renders v with an SI prefix, e.g. 2e-6 s as "2 µs".
func formatSI(v float64, unit string) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%g %s", v, unit)
	}
	abs := math.Abs(v)
	for _, p := range siPrefixes {
		if abs >= p.scale*(1-1e-9) {
			return fmt.Sprintf("%.4g %s%s", v/p.scale, p.prefix, unit)
		}
	}
	last := siPrefixes[len(siPrefixes)-1]
	return fmt.Sprintf("%.4g %s%s", v/last.scale, last.prefix, unit)
}
