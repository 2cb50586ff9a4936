package analysis

import (
	"errors"

	"github.com/user/letgo_analyzer_go/internal/threshold"
	"github.com/user/letgo_analyzer_go/internal/waveform"
)

// ErrAnalysis marks a broken internal invariant. A run that hits it produces
// no verdict.
var ErrAnalysis = errors.New("analysis invariant violated")

// Verdict is the overall outcome of a let-go evaluation.
type Verdict string

const (
	Pass Verdict = "PASS"
	Fail Verdict = "FAIL"
)

// Channel identifies which measurement a result belongs to.
type Channel string

const (
	Current Channel = "current"
	Voltage Channel = "voltage"
)

// Progress is reported by the parent each time a chunk finishes.
type Progress struct {
	Channel Channel
	Done    int
	Total   int
}

// Request describes one analysis run. Either waveform may be nil, but not
// both. When both are given they must share a time base.
type Request struct {
	Current  *waveform.Waveform
	Voltage  *waveform.Waveform
	Config   threshold.Config
	// SkipTime drops samples before it. Evaluation is sample aligned: when it
	// falls between two samples, results start at the first sample at or
	// after it, and nothing is reported for the gap before that sample.
	SkipTime float64
	// MinWindow is the shortest compliant gap, in seconds, reported in
	// Result.Compliant. 0 reports every gap.
	MinWindow float64

	// Workers bounds the number of parallel chunks; 0 uses every CPU.
	Workers int
	// RequireData turns an empty post-skip waveform into an input error
	// instead of a PASS with Analyzed=false.
	RequireData bool
	// Progress, when set, is called from the analyzing goroutine only.
	Progress func(Progress)
}

// Segment is a merged violation interval with the largest amount by which
// each channel exceeded its limit inside it (0 when that channel did not).
type Segment struct {
	waveform.Region
	Channels          []Channel `json:"channels"`
	PeakCurrentExcess float64   `json:"peak_current_excess"`
	PeakVoltageExcess float64   `json:"peak_voltage_excess"`
}

// ChannelResult is the per-channel part of a Result.
type ChannelResult struct {
	Channel    Channel           `json:"channel"`
	Unit       string            `json:"unit"`
	Samples    int               `json:"samples"`
	Violations []waveform.Region `json:"violations"`
}

// Result is the verdict of one Analyze call. Segments is empty iff Verdict is
// Pass. Analyzed is false when no sample remained after the skip time.
// Compliant holds the gaps of the analyzed span between segments that last at
// least MinWindow.
type Result struct {
	Verdict   Verdict           `json:"verdict"`
	Analyzed  bool              `json:"analyzed"`
	Config    threshold.Config  `json:"config"`
	SkipTime  float64           `json:"skip_time"`
	MinWindow float64           `json:"min_window"`
	Segments  []Segment         `json:"segments"`
	Compliant []waveform.Region `json:"compliant"`
	Channels  []ChannelResult   `json:"channels"`
}

// NewResult returns an empty passing result for cfg.
func NewResult(cfg threshold.Config, skipTime float64) *Result {
	return &Result{
		Verdict:   Pass,
		Config:    cfg,
		SkipTime:  skipTime,
		Segments:  make([]Segment, 0),
		Compliant: make([]waveform.Region, 0),
		Channels:  make([]ChannelResult, 0),
	}
}
