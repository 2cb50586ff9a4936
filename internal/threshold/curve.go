package threshold

import (
	"fmt"
	"math"
	"sort"
)

// Interpolation selects how a curve is evaluated between breakpoints.
type Interpolation int

const (
	// Step holds each breakpoint's limit until the next breakpoint.
	Step Interpolation = iota
	// Linear interpolates between neighbouring breakpoints.
	Linear
)

// Polarity selects which quantity of a sample is compared to the limit.
type Polarity int

const (
	// Signed compares the raw sample value; negative samples never exceed.
	Signed Polarity = iota
	// Magnitude compares the absolute value of the sample.
	Magnitude
)

// Breakpoint is one (exposure duration, limit) point of a curve.
type Breakpoint struct {
	Duration float64 `yaml:"duration" json:"duration"`
	Limit    float64 `yaml:"limit" json:"limit"`
}

// Curve maps continuous exposure duration to a limit. Limits never increase
// with duration; the last breakpoint's limit is the sustained floor.
type Curve struct {
	Unit          string
	Interpolation Interpolation
	Polarity      Polarity
	breakpoints   []Breakpoint
}

// NewCurve validates and builds a curve. The first breakpoint must be at
// duration 0, durations must increase and limits must not.
func NewCurve(unit string, interp Interpolation, polarity Polarity, points []Breakpoint) (Curve, error) {
	if len(points) == 0 {
		return Curve{}, fmt.Errorf("curve has no breakpoints")
	}
	if points[0].Duration != 0 {
		return Curve{}, fmt.Errorf("first breakpoint must be at duration 0, got %g", points[0].Duration)
	}
	for i, p := range points {
		if math.IsNaN(p.Limit) || math.IsInf(p.Limit, 0) || p.Limit <= 0 {
			return Curve{}, fmt.Errorf("breakpoint %d: limit must be positive and finite, got %g", i, p.Limit)
		}
		if i == 0 {
			continue
		}
		if p.Duration <= points[i-1].Duration {
			return Curve{}, fmt.Errorf("breakpoint %d: duration %g not after %g", i, p.Duration, points[i-1].Duration)
		}
		if p.Limit > points[i-1].Limit {
			return Curve{}, fmt.Errorf("breakpoint %d: limit %g increases over %g", i, p.Limit, points[i-1].Limit)
		}
	}
	return Curve{
		Unit:          unit,
		Interpolation: interp,
		Polarity:      polarity,
		breakpoints:   append([]Breakpoint(nil), points...),
	}, nil
}

// Breakpoints returns a copy of the curve's breakpoints.
func (c Curve) Breakpoints() []Breakpoint {
	return append([]Breakpoint(nil), c.breakpoints...)
}

// Defined reports whether the curve was built by NewCurve.
func (c Curve) Defined() bool {
	return len(c.breakpoints) > 0
}

// Floor is the limit for sustained exposure. Samples above it are exposed;
// the exposure clock starts at the first sample above the floor and runs while
// they stay above it, even before any sample reaches LimitAt(0).
func (c Curve) Floor() float64 {
	return c.breakpoints[len(c.breakpoints)-1].Limit
}

// Measure returns the quantity of v that is compared against the limit.
func (c Curve) Measure(v float64) float64 {
	if c.Polarity == Magnitude {
		return math.Abs(v)
	}
	return v
}

// LimitAt returns the limit after the given exposure duration in seconds.
func (c Curve) LimitAt(duration float64) float64 {
	if duration <= 0 {
		return c.breakpoints[0].Limit
	}
	// Index of the first breakpoint strictly after duration.
	next := sort.Search(len(c.breakpoints), func(i int) bool {
		return c.breakpoints[i].Duration > duration
	})
	if next >= len(c.breakpoints) {
		return c.Floor()
	}
	prev := c.breakpoints[next-1]
	if c.Interpolation == Step {
		return prev.Limit
	}
	nxt := c.breakpoints[next]
	frac := (duration - prev.Duration) / (nxt.Duration - prev.Duration)
	return prev.Limit + frac*(nxt.Limit-prev.Limit)
}

// LimitAt is the function form of Curve.LimitAt.
func LimitAt(c Curve, duration float64) float64 {
	return c.LimitAt(duration)
}

// CurveSet holds the current and voltage curves of one configuration.
type CurveSet struct {
	Current Curve
	Voltage Curve
}
