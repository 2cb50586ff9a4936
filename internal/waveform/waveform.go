package waveform

import (
	"fmt"
	"math"
	"sort"
)

// densityTolerance is the relative sample-interval difference allowed between
// two waveforms paired for one analysis.
const densityTolerance = 0.01

// New builds a Waveform from parallel time and value slices. The inputs are
// copied. Times must be finite and strictly increasing, and a non-empty
// waveform needs at least two samples to define its sample interval.
func New(times, values []float64) (*Waveform, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("%w: %d times but %d values", ErrInput, len(times), len(values))
	}
	if len(times) == 1 {
		return nil, fmt.Errorf("%w: a single sample at t=%g has no sample interval", ErrInput, times[0])
	}
	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("%w: non-finite time at sample %d", ErrInput, i)
		}
		if i > 0 && t <= times[i-1] {
			return nil, fmt.Errorf("%w: time not strictly increasing at sample %d (%g after %g)", ErrInput, i, t, times[i-1])
		}
	}

	w := &Waveform{
		times:  append([]float64(nil), times...),
		values: append([]float64(nil), values...),
	}
	w.interval = medianStep(w.times)
	return w, nil
}

// FromSamples builds a Waveform from a time->value map, as produced by the
// importers. Keys are sorted before construction.
func FromSamples(samples map[float64]float64) (*Waveform, error) {
	times := make([]float64, 0, len(samples))
	for t := range samples {
		times = append(times, t)
	}
	sort.Float64s(times)
	values := make([]float64, len(times))
	for i, t := range times {
		values[i] = samples[t]
	}
	return New(times, values)
}

func medianStep(times []float64) float64 {
	if len(times) < 2 {
		return 0
	}
	steps := make([]float64, len(times)-1)
	for i := 1; i < len(times); i++ {
		steps[i-1] = times[i] - times[i-1]
	}
	sort.Float64s(steps)
	mid := len(steps) / 2
	if len(steps)%2 == 1 {
		return steps[mid]
	}
	return (steps[mid-1] + steps[mid]) / 2
}

func (w *Waveform) Len() int {
	if w == nil {
		return 0
	}
	return len(w.times)
}

// Time returns the time of sample i.
func (w *Waveform) Time(i int) float64 { return w.times[i] }

// Value returns the value of sample i.
func (w *Waveform) Value(i int) float64 { return w.values[i] }

// Times returns a copy of the sample times.
func (w *Waveform) Times() []float64 { return append([]float64(nil), w.times...) }

// Values returns a copy of the sample values.
func (w *Waveform) Values() []float64 { return append([]float64(nil), w.values...) }

// Start returns the first sample time, or 0 for an empty waveform.
func (w *Waveform) Start() float64 {
	if w.Len() == 0 {
		return 0
	}
	return w.times[0]
}

// End returns the last sample time, or 0 for an empty waveform.
func (w *Waveform) End() float64 {
	if w.Len() == 0 {
		return 0
	}
	return w.times[len(w.times)-1]
}

// SampleInterval is the median spacing between consecutive samples. Views keep
// the interval of the waveform they were cut from.
func (w *Waveform) SampleInterval() float64 {
	if w == nil {
		return 0
	}
	return w.interval
}

// EndOf returns the exclusive end time covered by sample i: the next sample's
// time, or one sample interval past the last sample.
func (w *Waveform) EndOf(i int) float64 {
	if i+1 < len(w.times) {
		return w.times[i+1]
	}
	return w.times[i] + w.interval
}

// Index returns the index of the first sample with time >= t.
func (w *Waveform) Index(t float64) int {
	return sort.SearchFloat64s(w.times, t)
}

func (w *Waveform) slice(lo, hi int) *Waveform {
	return &Waveform{
		times:    w.times[lo:hi:hi],
		values:   w.values[lo:hi:hi],
		interval: w.interval,
	}
}

// From returns the samples with time >= t. The result may be empty; it is the
// pre-filter used for skip times.
func (w *Waveform) From(t float64) *Waveform {
	return w.slice(w.Index(t), w.Len())
}

// Extract returns the samples from start to the end of the waveform.
func (w *Waveform) Extract(start float64) (*Waveform, error) {
	if w.Len() == 0 || start > w.End() {
		return nil, fmt.Errorf("%w: start %g exceeds waveform span [%g, %g]", ErrRange, start, w.Start(), w.End())
	}
	return w.From(start), nil
}

// ExtractSegment returns the samples with start <= t < end.
func ExtractSegment(w *Waveform, start, end float64) (*Waveform, error) {
	if end <= start {
		return nil, fmt.Errorf("%w: end %g is not after start %g", ErrRange, end, start)
	}
	if w.Len() == 0 || start > w.End() {
		return nil, fmt.Errorf("%w: start %g exceeds waveform span [%g, %g]", ErrRange, start, w.Start(), w.End())
	}
	return w.slice(w.Index(start), w.Index(end)), nil
}

// CheckTimeBase verifies that two waveforms can be evaluated side by side:
// same length, same start and end within half a sample, comparable density.
func CheckTimeBase(a, b *Waveform) error {
	if a.Len() != b.Len() {
		return fmt.Errorf("%w: waveform lengths differ (%d vs %d samples)", ErrInput, a.Len(), b.Len())
	}
	if a.Len() == 0 {
		return nil
	}

	ia, ib := a.SampleInterval(), b.SampleInterval()
	if ia > 0 || ib > 0 {
		if math.Abs(ia-ib) > densityTolerance*math.Max(ia, ib) {
			return fmt.Errorf("%w: sample intervals differ (%g s vs %g s)", ErrInput, ia, ib)
		}
	}
	tol := 0.5 * math.Max(ia, ib)
	if math.Abs(a.Start()-b.Start()) > tol {
		return fmt.Errorf("%w: start times differ (%g s vs %g s)", ErrInput, a.Start(), b.Start())
	}
	if math.Abs(a.End()-b.End()) > tol {
		return fmt.Errorf("%w: end times differ (%g s vs %g s)", ErrInput, a.End(), b.End())
	}
	return nil
}
