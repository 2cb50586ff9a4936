package importer

import (
	"errors"
	"sort"
	"strings"

	"github.com/user/letgo_analyzer_go/internal/waveform"
)

// ErrUnsupported is returned for an unknown source or format name.
var ErrUnsupported = errors.New("unsupported importer")

// Selector names the channels to load. IDs are instrument names such as CH1
// or MATH1; labels are the user-assigned names shown on screen.
type Selector struct {
	IDs           []string
	Labels        []string
	CaseSensitive bool
}

func (s Selector) key(name string) string {
	if s.CaseSensitive {
		return name
	}
	return strings.ToLower(name)
}

// Dataset holds the waveforms loaded for a Selector.
type Dataset struct {
	caseSensitive bool
	byID          map[string]*waveform.Waveform
	byLabel       map[string]*waveform.Waveform
	// Warnings collects non-fatal problems found while importing.
	Warnings []string
}

// NewDataset returns an empty dataset matching names the way sel does.
func NewDataset(sel Selector) *Dataset {
	return &Dataset{
		caseSensitive: sel.CaseSensitive,
		byID:          make(map[string]*waveform.Waveform),
		byLabel:       make(map[string]*waveform.Waveform),
		Warnings:      make([]string, 0),
	}
}

func (d *Dataset) key(name string) string {
	return Selector{CaseSensitive: d.caseSensitive}.key(name)
}

// ByID returns the waveform loaded for an instrument channel ID.
func (d *Dataset) ByID(id string) (*waveform.Waveform, bool) {
	w, ok := d.byID[d.key(id)]
	return w, ok
}

// ByLabel returns the waveform loaded for a channel label.
func (d *Dataset) ByLabel(label string) (*waveform.Waveform, bool) {
	w, ok := d.byLabel[d.key(label)]
	return w, ok
}

// IDs returns the loaded channel IDs in sorted order.
func (d *Dataset) IDs() []string {
	ids := make([]string, 0, len(d.byID))
	for id := range d.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
