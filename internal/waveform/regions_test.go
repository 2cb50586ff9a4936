package waveform

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestMergeRegions(t *testing.T) {
	cases := []struct {
		name string
		in   []Region
		want []Region
	}{
		{"empty", nil, []Region{}},
		{"single", []Region{{1, 2}}, []Region{{1, 2}}},
		{"disjoint_unsorted", []Region{{5, 6}, {1, 2}, {3, 4}}, []Region{{1, 2}, {3, 4}, {5, 6}}},
		{"touching", []Region{{1, 2}, {2, 3}}, []Region{{1, 3}}},
		{"overlapping", []Region{{1, 4}, {3, 6}}, []Region{{1, 6}}},
		{"nested", []Region{{1, 10}, {2, 3}, {4, 5}}, []Region{{1, 10}}},
		{"chain", []Region{{3, 5}, {1, 3}, {5, 7}, {9, 10}}, []Region{{1, 7}, {9, 10}}},
		{"duplicates", []Region{{1, 2}, {1, 2}}, []Region{{1, 2}}},
		{"same_start", []Region{{1, 5}, {1, 2}}, []Region{{1, 5}}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := MergeRegions(c.in)
			if !reflect.DeepEqual(got, c.want) {
				t.Fatalf("MergeRegions(%v) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestMergeRegionsDoesNotModifyInput(t *testing.T) {
	in := []Region{{3, 4}, {1, 2}}
	MergeRegions(in)
	if in[0] != (Region{3, 4}) || in[1] != (Region{1, 2}) {
		t.Fatalf("input modified: %v", in)
	}
}

func TestMergeRegionsProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 500; iter++ {
		n := rng.Intn(20)
		in := make([]Region, n)
		for i := range in {
			start := float64(rng.Intn(100))
			in[i] = Region{Start: start, End: start + float64(1+rng.Intn(10))}
		}

		once := MergeRegions(in)
		for i := 1; i < len(once); i++ {
			if once[i].Start <= once[i-1].End {
				t.Fatalf("iteration %d: regions %v and %v overlap or touch", iter, once[i-1], once[i])
			}
		}

		twice := MergeRegions(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("iteration %d: not idempotent: %v then %v", iter, once, twice)
		}

		// Every input point must still be covered.
		for _, r := range in {
			covered := false
			for _, m := range once {
				if r.Start >= m.Start && r.End <= m.End {
					covered = true
					break
				}
			}
			if !covered {
				t.Fatalf("iteration %d: %v not covered by %v", iter, r, once)
			}
		}
	}
}

func TestComplement(t *testing.T) {
	span := Region{Start: 0, End: 10}
	cases := []struct {
		name string
		span Region
		in   []Region
		want []Region
	}{
		{"nothing_covered", span, nil, []Region{{0, 10}}},
		{"fully_covered", span, []Region{{-1, 11}}, []Region{}},
		{"middle", span, []Region{{3, 5}}, []Region{{0, 3}, {5, 10}}},
		{"edges", span, []Region{{0, 2}, {8, 10}}, []Region{{2, 8}}},
		{"unsorted_overlapping", span, []Region{{6, 7}, {1, 3}, {2, 4}}, []Region{{0, 1}, {4, 6}, {7, 10}}},
		{"outside_span", span, []Region{{-5, -1}, {12, 14}}, []Region{{0, 10}}},
		{"empty_span", Region{Start: 4, End: 4}, nil, []Region{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Complement(c.span, c.in)
			if !reflect.DeepEqual(got, c.want) {
				t.Fatalf("Complement(%v, %v) = %v, want %v", c.span, c.in, got, c.want)
			}
		})
	}
}
