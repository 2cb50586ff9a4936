package waveform

import "errors"

var (
	// ErrInput marks malformed or inconsistent waveform data.
	ErrInput = errors.New("invalid waveform input")
	// ErrRange marks a segment request outside the waveform's span.
	ErrRange = errors.New("segment out of range")
)

// Waveform is an ordered (time, value) series. Times are in seconds and strictly
// increasing. A Waveform is never mutated after New returns it; views returned
// by Extract and From share the backing arrays.
type Waveform struct {
	times    []float64
	values   []float64
	interval float64
}

// Region is a half-open time interval [Start, End).
type Region struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration of the region in seconds.
func (r Region) Duration() float64 {
	return r.End - r.Start
}

// Contains reports whether t lies inside [Start, End).
func (r Region) Contains(t float64) bool {
	return t >= r.Start && t < r.End
}
