package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/user/letgo_analyzer_go/internal/waveform"
)

const (
	tekLabelRow = "Labels"
	tekIDRow    = "TIME"
)

// column locates the x and y data of one channel in a Tek CSV export.
type column struct {
	x, y int
}

// tekHeader is one parsed header row. groups are the columns where an axis
// group (channels sharing one time column) begins.
type tekHeader struct {
	seen   bool
	groups []int
	cols   map[string]column
}

// parseTekHeader reads a Labels or TIME row, keeping the columns of wanted
// names. A marker cell after an empty cell starts a new axis group.
func parseTekHeader(row []string, marker string, wanted map[string]bool, sel Selector, kind string) (tekHeader, error) {
	h := tekHeader{seen: true, groups: []int{0}, cols: make(map[string]column)}
	previous := row[0]
	for i := 1; i < len(row); i++ {
		cell := strings.TrimSpace(row[i])
		if cell == "" {
			previous = ""
			continue
		}
		if cell == marker && previous == "" {
			h.groups = append(h.groups, i)
			previous = cell
			continue
		}
		previous = cell

		name := sel.key(cell)
		if !wanted[name] {
			continue
		}
		if _, dup := h.cols[name]; dup {
			return h, fmt.Errorf("%w: Tek MSO4 CSV has more than one channel with %s %q", waveform.ErrInput, kind, cell)
		}
		h.cols[name] = column{x: h.groups[len(h.groups)-1], y: i}
	}
	return h, nil
}

func missing(wanted map[string]bool, found map[string]column) []string {
	var names []string
	for name := range wanted {
		if _, ok := found[name]; !ok {
			names = append(names, strconv.Quote(name))
		}
	}
	sort.Strings(names)
	return names
}

func validateTekHeaders(labels, ids tekHeader, wantLabels, wantIDs map[string]bool) error {
	if len(labels.groups) != len(ids.groups) {
		return fmt.Errorf("%w: label row has %d axis groups but TIME row has %d", waveform.ErrInput, len(labels.groups), len(ids.groups))
	}
	for i := range labels.groups {
		if labels.groups[i] != ids.groups[i] {
			return fmt.Errorf("%w: label and TIME rows disagree on axis group columns %v and %v", waveform.ErrInput, labels.groups, ids.groups)
		}
	}
	if names := missing(wantLabels, labels.cols); len(names) > 0 {
		return fmt.Errorf("%w: could not find all specified labels: %s", waveform.ErrInput, strings.Join(names, ","))
	}
	if names := missing(wantIDs, ids.cols); len(names) > 0 {
		return fmt.Errorf("%w: could not find all specified IDs: %s", waveform.ErrInput, strings.Join(names, ","))
	}
	return nil
}

// readPoint parses one (time, value) pair. ok is false when both cells are
// absent, which happens when axis groups have different record lengths.
func readPoint(row []string, col column) (t, v float64, ok bool, err error) {
	cell := func(i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	xs, ys := cell(col.x), cell(col.y)
	if xs == "" && ys == "" {
		return 0, 0, false, nil
	}
	if t, err = strconv.ParseFloat(xs, 64); err != nil {
		return 0, 0, false, err
	}
	if v, err = strconv.ParseFloat(ys, 64); err != nil {
		return 0, 0, false, err
	}
	return t, v, true, nil
}

// ReadTekMSO4CSV parses a CSV saved by a Tektronix MSO 4-series scope. Rows
// before the Labels and TIME header rows are instrument metadata and are
// skipped.
func ReadTekMSO4CSV(r io.Reader, sel Selector) (*Dataset, error) {
	wantIDs := make(map[string]bool)
	for _, id := range sel.IDs {
		wantIDs[sel.key(id)] = true
	}
	wantLabels := make(map[string]bool)
	for _, label := range sel.Labels {
		wantLabels[sel.key(label)] = true
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var labels, ids tekHeader
	ready := false
	samplesByID := make(map[string]map[float64]float64)
	samplesByLabel := make(map[string]map[float64]float64)
	for name := range wantIDs {
		samplesByID[name] = make(map[float64]float64)
	}
	for name := range wantLabels {
		samplesByLabel[name] = make(map[float64]float64)
	}
	skipped := 0

	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read CSV data: %v", waveform.ErrInput, err)
		}
		if len(row) == 0 {
			continue
		}

		if ready {
			for _, set := range []struct {
				cols    map[string]column
				samples map[string]map[float64]float64
			}{{ids.cols, samplesByID}, {labels.cols, samplesByLabel}} {
				for name, col := range set.cols {
					t, v, ok, err := readPoint(row, col)
					if err != nil {
						return nil, fmt.Errorf("%w: line %d, channel %q: %v", waveform.ErrInput, line, name, err)
					}
					if !ok {
						skipped++
						continue
					}
					set.samples[name][t] = v
				}
			}
			continue
		}

		switch strings.TrimSpace(row[0]) {
		case tekLabelRow:
			if labels, err = parseTekHeader(row, tekLabelRow, wantLabels, sel, "label"); err != nil {
				return nil, err
			}
		case tekIDRow:
			if ids, err = parseTekHeader(row, tekIDRow, wantIDs, sel, "ID"); err != nil {
				return nil, err
			}
		}
		if labels.seen && ids.seen {
			if err := validateTekHeaders(labels, ids, wantLabels, wantIDs); err != nil {
				return nil, err
			}
			ready = true
		}
	}
	if !ready {
		return nil, fmt.Errorf("%w: Tek MSO4 CSV is missing the %s or %s header row", waveform.ErrInput, tekLabelRow, tekIDRow)
	}

	ds := NewDataset(sel)
	for name, samples := range samplesByID {
		w, err := waveform.FromSamples(samples)
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", name, err)
		}
		ds.byID[name] = w
	}
	for name, samples := range samplesByLabel {
		w, err := waveform.FromSamples(samples)
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", name, err)
		}
		ds.byLabel[name] = w
	}
	if skipped > 0 {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("%d empty data cells skipped", skipped))
	}
	return ds, nil
}
