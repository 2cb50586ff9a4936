package waveform

import "sort"

// MergeRegions returns the minimal sorted set of regions covering the same
// time as the input. Touching regions ([a,b) and [b,c)) are joined. The input
// is not modified, and merging an already merged set returns it unchanged.
func MergeRegions(regions []Region) []Region {
	if len(regions) == 0 {
		return []Region{}
	}

	sorted := append([]Region(nil), regions...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	merged := make([]Region, 0, len(sorted))
	current := sorted[0]
	for _, r := range sorted[1:] {
		if r.Start <= current.End {
			if r.End > current.End {
				current.End = r.End
			}
			continue
		}
		merged = append(merged, current)
		current = r
	}
	return append(merged, current)
}

// Complement returns the parts of span not covered by regions, in order.
// Regions may be unsorted and may extend past span.
func Complement(span Region, regions []Region) []Region {
	gaps := make([]Region, 0)
	if span.End <= span.Start {
		return gaps
	}
	cursor := span.Start
	for _, r := range MergeRegions(regions) {
		if r.End <= cursor {
			continue
		}
		if r.Start >= span.End {
			break
		}
		if r.Start > cursor {
			gaps = append(gaps, Region{Start: cursor, End: r.Start})
		}
		cursor = r.End
	}
	if cursor < span.End {
		gaps = append(gaps, Region{Start: cursor, End: span.End})
	}
	return gaps
}
