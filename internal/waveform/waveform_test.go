package waveform

import (
	"errors"
	"math"
	"testing"
)

func uniform(n int, dt float64, value float64) *Waveform {
	times := make([]float64, n)
	values := make([]float64, n)
	for i := range times {
		times[i] = float64(i) * dt
		values[i] = value
	}
	w, err := New(times, values)
	if err != nil {
		panic(err)
	}
	return w
}

func TestNewRejectsBadTimes(t *testing.T) {
	cases := []struct {
		name   string
		times  []float64
		values []float64
	}{
		{"length_mismatch", []float64{0, 1}, []float64{0}},
		{"duplicate_time", []float64{0, 1, 1}, []float64{0, 0, 0}},
		{"decreasing", []float64{0, 2, 1}, []float64{0, 0, 0}},
		{"nan_time", []float64{0, math.NaN()}, []float64{0, 0}},
		{"inf_time", []float64{0, math.Inf(1)}, []float64{0, 0}},
		{"single_sample", []float64{0}, []float64{0.1}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := New(c.times, c.values)
			if !errors.Is(err, ErrInput) {
				t.Fatalf("expected ErrInput, got %v", err)
			}
		})
	}
}

func TestNewCopiesInput(t *testing.T) {
	times := []float64{0, 1, 2}
	values := []float64{5, 6, 7}
	w, err := New(times, values)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	times[0] = -1
	values[0] = -1
	if w.Time(0) != 0 || w.Value(0) != 5 {
		t.Fatalf("waveform shares caller slices: t0=%v v0=%v", w.Time(0), w.Value(0))
	}
}

func TestSampleIntervalToleratesJitter(t *testing.T) {
	w, err := New([]float64{0, 1.0e-6, 2.01e-6, 2.99e-6, 4.0e-6}, []float64{0, 0, 0, 0, 0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := w.SampleInterval(); math.Abs(got-1e-6) > 0.02e-6 {
		t.Fatalf("SampleInterval() = %g, want ~1e-6", got)
	}
}

func TestFromSamplesSortsKeys(t *testing.T) {
	w, err := FromSamples(map[float64]float64{2: 20, 0: 0, 1: 10})
	if err != nil {
		t.Fatalf("FromSamples: %v", err)
	}
	for i, want := range []float64{0, 10, 20} {
		if w.Value(i) != want {
			t.Fatalf("value %d = %v, want %v", i, w.Value(i), want)
		}
	}
}

func TestExtractSegment(t *testing.T) {
	w := uniform(10, 1, 0)

	seg, err := ExtractSegment(w, 2, 5)
	if err != nil {
		t.Fatalf("ExtractSegment: %v", err)
	}
	if seg.Len() != 3 || seg.Start() != 2 || seg.End() != 4 {
		t.Fatalf("got %d samples [%v, %v], want 3 samples [2, 4]", seg.Len(), seg.Start(), seg.End())
	}

	tail, err := w.Extract(7)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if tail.Len() != 3 || tail.Start() != 7 {
		t.Fatalf("tail has %d samples from %v", tail.Len(), tail.Start())
	}
	if tail.SampleInterval() != 1 {
		t.Fatalf("view lost sample interval: %v", tail.SampleInterval())
	}
}

func TestExtractSegmentRangeErrors(t *testing.T) {
	w := uniform(10, 1, 0)
	cases := []struct {
		name       string
		start, end float64
	}{
		{"start_past_span", 10, 12},
		{"end_equals_start", 3, 3},
		{"end_before_start", 5, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ExtractSegment(w, c.start, c.end); !errors.Is(err, ErrRange) {
				t.Fatalf("expected ErrRange, got %v", err)
			}
		})
	}
	if _, err := w.Extract(9.5); !errors.Is(err, ErrRange) {
		t.Fatalf("Extract past span: expected ErrRange, got %v", err)
	}
}

func TestFromMayBeEmpty(t *testing.T) {
	w := uniform(5, 1, 0)
	if got := w.From(100).Len(); got != 0 {
		t.Fatalf("From past end returned %d samples", got)
	}
	if got := w.From(-1).Len(); got != 5 {
		t.Fatalf("From before start returned %d samples", got)
	}
}

func TestEndOf(t *testing.T) {
	w := uniform(3, 0.5, 0)
	if got := w.EndOf(0); got != 0.5 {
		t.Fatalf("EndOf(0) = %v", got)
	}
	if got := w.EndOf(2); got != 1.5 {
		t.Fatalf("EndOf(last) = %v, want 1.5", got)
	}

	// A view holding only the last sample keeps a non-zero width.
	tail := w.From(1)
	if tail.Len() != 1 {
		t.Fatalf("tail has %d samples", tail.Len())
	}
	if got := tail.EndOf(0); got != 1.5 {
		t.Fatalf("tail EndOf(0) = %v, want 1.5", got)
	}
}

func TestEmptyWaveform(t *testing.T) {
	w, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New(nil, nil): %v", err)
	}
	if w.Len() != 0 || w.SampleInterval() != 0 {
		t.Fatalf("empty waveform: len=%d interval=%v", w.Len(), w.SampleInterval())
	}
}

func TestCheckTimeBase(t *testing.T) {
	base := uniform(10, 1e-6, 0)
	cases := []struct {
		name    string
		other   *Waveform
		wantErr bool
	}{
		{"identical", uniform(10, 1e-6, 3), false},
		{"length", uniform(9, 1e-6, 0), true},
		{"density", uniform(10, 2e-6, 0), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := CheckTimeBase(base, c.other)
			if c.wantErr && !errors.Is(err, ErrInput) {
				t.Fatalf("expected ErrInput, got %v", err)
			}
			if !c.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	shifted, _ := New([]float64{5e-6, 6e-6, 7e-6, 8e-6, 9e-6, 10e-6, 11e-6, 12e-6, 13e-6, 14e-6}, make([]float64, 10))
	if err := CheckTimeBase(base, shifted); !errors.Is(err, ErrInput) {
		t.Fatalf("shifted start: expected ErrInput, got %v", err)
	}
}
