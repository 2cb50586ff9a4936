// Package analysis evaluates current and voltage waveforms against let-go
// threshold curves and produces a PASS/FAIL verdict with violation segments.
package analysis

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/user/letgo_analyzer_go/internal/audit"
	"github.com/user/letgo_analyzer_go/internal/threshold"
	"github.com/user/letgo_analyzer_go/internal/waveform"
)

// channelEval is the evaluated state of one channel after the skip filter.
type channelEval struct {
	channel Channel
	view    *waveform.Waveform
	excess  []float64
	regions []waveform.Region
}

// peak returns the largest excess of samples inside r.
func (ev channelEval) peak(r waveform.Region) float64 {
	best := 0.0
	for i := ev.view.Index(r.Start); i < ev.view.Len() && ev.view.Time(i) < r.End; i++ {
		best = max(best, ev.excess[i])
	}
	return best
}

// Analyze audits req.Config against table, then evaluates each provided
// waveform from req.SkipTime on. The returned result is identical for any
// worker count.
func Analyze(ctx context.Context, table *threshold.Table, req Request) (*Result, error) {
	if err := audit.Audit(table, req.Config); err != nil {
		return nil, err
	}
	curves, _ := table.Lookup(req.Config)

	if req.Current == nil && req.Voltage == nil {
		return nil, fmt.Errorf("%w: no current or voltage waveform given", waveform.ErrInput)
	}
	if math.IsNaN(req.SkipTime) || math.IsInf(req.SkipTime, 0) {
		return nil, fmt.Errorf("%w: skip time %v is not finite", waveform.ErrInput, req.SkipTime)
	}
	if math.IsNaN(req.MinWindow) || math.IsInf(req.MinWindow, 0) || req.MinWindow < 0 {
		return nil, fmt.Errorf("%w: window duration %v must be finite and >= 0", waveform.ErrInput, req.MinWindow)
	}
	if req.Current != nil && req.Voltage != nil {
		if err := waveform.CheckTimeBase(req.Current, req.Voltage); err != nil {
			return nil, err
		}
	}

	inputs := []struct {
		channel Channel
		wave    *waveform.Waveform
		curve   threshold.Curve
	}{
		{Current, req.Current, curves.Current},
		{Voltage, req.Voltage, curves.Voltage},
	}

	workers := resolveWorkers(req.Workers)
	result := NewResult(req.Config, req.SkipTime)
	result.MinWindow = req.MinWindow
	var evals []channelEval
	var all []waveform.Region
	for _, in := range inputs {
		if in.wave == nil {
			continue
		}
		ev, err := evaluate(ctx, in.channel, in.wave.From(req.SkipTime), in.curve, workers, req.Progress)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in.channel, err)
		}
		evals = append(evals, ev)
		all = append(all, ev.regions...)
		result.Channels = append(result.Channels, ChannelResult{
			Channel:    in.channel,
			Unit:       in.curve.Unit,
			Samples:    ev.view.Len(),
			Violations: ev.regions,
		})
		if ev.view.Len() > 0 {
			result.Analyzed = true
		}
	}

	if !result.Analyzed {
		if req.RequireData {
			return nil, fmt.Errorf("%w: no samples at or after skip time %gs", waveform.ErrInput, req.SkipTime)
		}
		return result, nil
	}

	for _, r := range waveform.MergeRegions(all) {
		seg := Segment{Region: r, Channels: make([]Channel, 0, 2)}
		for _, ev := range evals {
			p := ev.peak(r)
			if p <= 0 {
				continue
			}
			seg.Channels = append(seg.Channels, ev.channel)
			if ev.channel == Current {
				seg.PeakCurrentExcess = p
			} else {
				seg.PeakVoltageExcess = p
			}
		}
		result.Segments = append(result.Segments, seg)
	}
	if len(result.Segments) > 0 {
		result.Verdict = Fail
	}
	result.Compliant = compliantRegions(analyzedSpan(evals), result.Segments, req.MinWindow)
	return result, nil
}

// analyzedSpan is the time covered by the non-empty channel views.
func analyzedSpan(evals []channelEval) waveform.Region {
	span := waveform.Region{Start: math.Inf(1), End: math.Inf(-1)}
	for _, ev := range evals {
		if n := ev.view.Len(); n > 0 {
			span.Start = math.Min(span.Start, ev.view.Start())
			span.End = math.Max(span.End, ev.view.EndOf(n-1))
		}
	}
	return span
}

// compliantRegions returns the gaps of span between segments that last at
// least minWindow.
func compliantRegions(span waveform.Region, segs []Segment, minWindow float64) []waveform.Region {
	regions := make([]waveform.Region, len(segs))
	for i, seg := range segs {
		regions[i] = seg.Region
	}
	gaps := waveform.Complement(span, regions)
	kept := gaps[:0]
	for _, g := range gaps {
		if g.Duration() >= minWindow {
			kept = append(kept, g)
		}
	}
	return kept
}

// evaluate scans view in parallel chunks and returns its merged violations.
func evaluate(ctx context.Context, ch Channel, view *waveform.Waveform, c threshold.Curve, workers int, progress func(Progress)) (channelEval, error) {
	return evaluateSpans(ctx, ch, view, c, planChunks(view.Len(), workers, minChunkSamples), progress)
}

func evaluateSpans(ctx context.Context, ch Channel, view *waveform.Waveform, c threshold.Curve, spans []span, progress func(Progress)) (channelEval, error) {
	ev := channelEval{channel: ch, view: view, regions: make([]waveform.Region, 0)}
	if err := checkCoverage(spans, view.Len()); err != nil {
		return ev, err
	}
	if len(spans) == 0 {
		return ev, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(spans))
	scans := make(chan chunkScan, len(spans))
	for i, s := range spans {
		g.Go(func() error {
			sc, err := scanChunk(gctx, view, c, i, s)
			if err != nil {
				return err
			}
			scans <- sc
			return nil
		})
	}
	waitErr := make(chan error, 1)
	go func() {
		err := g.Wait()
		close(scans)
		waitErr <- err
	}()

	ordered := make([]*chunkScan, len(spans))
	done, duplicates := 0, 0
	for sc := range scans {
		if ordered[sc.index] != nil {
			duplicates++
			continue
		}
		ordered[sc.index] = &sc
		done++
		if progress != nil {
			progress(Progress{Channel: ch, Done: done, Total: len(spans)})
		}
	}
	if err := <-waitErr; err != nil {
		return ev, err
	}
	if done != len(spans) || duplicates > 0 {
		return ev, fmt.Errorf("%w: %d of %d chunks reported, %d twice", ErrAnalysis, done, len(spans), duplicates)
	}

	ev.excess = make([]float64, 0, view.Len())
	var carry exposure
	var raw []waveform.Region
	for _, sc := range ordered {
		carryIn(view, c, sc, carry)
		carry = sc.end
		ev.excess = append(ev.excess, sc.excess...)
		raw = append(raw, flaggedRegions(view, *sc)...)
	}
	ev.regions = waveform.MergeRegions(raw)
	return ev, nil
}
