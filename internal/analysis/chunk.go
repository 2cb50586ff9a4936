package analysis

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/user/letgo_analyzer_go/internal/threshold"
	"github.com/user/letgo_analyzer_go/internal/waveform"
)

const (
	maxWorkers = 64
	// minChunkSamples keeps small waveforms in a single chunk.
	minChunkSamples = 4096
	// cancelCheckEvery is how many samples a worker scans between ctx checks.
	cancelCheckEvery = 1 << 14
)

// span is the half-open sample range [lo, hi) of one chunk.
type span struct {
	lo, hi int
}

// exposure tracks an unbroken run of samples above a curve's floor.
type exposure struct {
	active bool
	since  float64
}

// chunkScan is one chunk's result, returned by value to the parent.
type chunkScan struct {
	index  int
	span   span
	excess []float64 // amount above the limit per sample, 0 when not flagged
	end    exposure  // state after the last sample
}

func resolveWorkers(requested int) int {
	n := requested
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return max(1, min(n, maxWorkers))
}

// planChunks splits n samples into at most workers contiguous spans of at
// least minSize samples each.
func planChunks(n, workers, minSize int) []span {
	if n <= 0 {
		return nil
	}
	count := max(1, min(workers, n/max(minSize, 1)))
	spans := make([]span, count)
	size, rem := n/count, n%count
	lo := 0
	for i := range spans {
		hi := lo + size
		if i < rem {
			hi++
		}
		spans[i] = span{lo: lo, hi: hi}
		lo = hi
	}
	return spans
}

// checkCoverage verifies spans tile [0, n) in order without gaps or overlap.
func checkCoverage(spans []span, n int) error {
	next := 0
	for i, s := range spans {
		if s.lo != next || s.hi <= s.lo {
			return fmt.Errorf("%w: chunk %d covers [%d, %d), expected start %d", ErrAnalysis, i, s.lo, s.hi, next)
		}
		next = s.hi
	}
	if next != n {
		return fmt.Errorf("%w: chunks cover %d of %d samples", ErrAnalysis, next, n)
	}
	return nil
}

// advance evaluates one sample and returns the new exposure state with the
// amount by which the sample exceeds its limit. The exposure duration counts
// from the first sample above the curve's floor, not from the first sample
// above the limit, so the limit tightens while a value stays above the floor.
func advance(c threshold.Curve, st exposure, t, v float64) (exposure, float64) {
	m := c.Measure(v)
	if m <= c.Floor() {
		return exposure{}, 0
	}
	if !st.active {
		st = exposure{active: true, since: t}
	}
	if limit := c.LimitAt(t - st.since); m > limit {
		return st, m - limit
	}
	return st, 0
}

// scanChunk evaluates a chunk assuming no exposure carried in from the
// previous chunk. The parent corrects the head of the chunk when it does.
func scanChunk(ctx context.Context, w *waveform.Waveform, c threshold.Curve, index int, s span) (chunkScan, error) {
	sc := chunkScan{index: index, span: s, excess: make([]float64, s.hi-s.lo)}
	var st exposure
	for i := s.lo; i < s.hi; i++ {
		if (i-s.lo)%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return chunkScan{}, err
			}
		}
		t, v := w.Time(i), w.Value(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return chunkScan{}, fmt.Errorf("%w: sample %d at t=%g is %v", waveform.ErrInput, i, t, v)
		}
		st, sc.excess[i-s.lo] = advance(c, st, t, v)
	}
	sc.end = st
	return sc, nil
}

// carryIn re-evaluates the head of sc given the state the previous chunk
// ended in. It stops at the first unexposed sample, where both scans agree.
func carryIn(w *waveform.Waveform, c threshold.Curve, sc *chunkScan, in exposure) {
	if !in.active {
		return
	}
	st := in
	for i := sc.span.lo; i < sc.span.hi; i++ {
		st, sc.excess[i-sc.span.lo] = advance(c, st, w.Time(i), w.Value(i))
		if !st.active {
			return
		}
	}
	sc.end = st
}

// flaggedRegions converts runs of flagged samples into [start, end) regions.
// A run ending at sample j ends where sample j+1 begins.
func flaggedRegions(w *waveform.Waveform, sc chunkScan) []waveform.Region {
	var regions []waveform.Region
	first := -1
	for k, e := range sc.excess {
		i := sc.span.lo + k
		switch {
		case e > 0 && first < 0:
			first = i
		case e <= 0 && first >= 0:
			regions = append(regions, waveform.Region{Start: w.Time(first), End: w.EndOf(i - 1)})
			first = -1
		}
	}
	if first >= 0 {
		regions = append(regions, waveform.Region{Start: w.Time(first), End: w.EndOf(sc.span.hi - 1)})
	}
	return regions
}

// LimitTrace returns the compared quantity and the limit in force at every
// sample of w, using the same exposure rules as Analyze. Unexposed samples
// carry the curve's initial limit.
func LimitTrace(w *waveform.Waveform, c threshold.Curve) (measured, limits []float64) {
	n := w.Len()
	measured = make([]float64, n)
	limits = make([]float64, n)
	var st exposure
	for i := 0; i < n; i++ {
		t, v := w.Time(i), w.Value(i)
		st, _ = advance(c, st, t, v)
		measured[i] = c.Measure(v)
		limits[i] = c.LimitAt(0)
		if st.active {
			limits[i] = c.LimitAt(t - st.since)
		}
	}
	return measured, limits
}
