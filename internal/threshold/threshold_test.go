package threshold

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mustCurve(t *testing.T, interp Interpolation, points ...Breakpoint) Curve {
	t.Helper()
	c, err := NewCurve("A", interp, Signed, points)
	if err != nil {
		t.Fatalf("NewCurve: %v", err)
	}
	return c
}

func TestLimitAt(t *testing.T) {
	points := []Breakpoint{{0, 10}, {1, 6}, {3, 2}}
	step := mustCurve(t, Step, points...)
	linear := mustCurve(t, Linear, points...)

	cases := []struct {
		name       string
		duration   float64
		wantStep   float64
		wantLinear float64
	}{
		{"negative", -1, 10, 10},
		{"zero", 0, 10, 10},
		{"inside_first", 0.5, 10, 8},
		{"at_breakpoint", 1, 6, 6},
		{"inside_second", 2, 6, 4},
		{"at_last", 3, 2, 2},
		{"beyond_last", 100, 2, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := LimitAt(step, c.duration); math.Abs(got-c.wantStep) > 1e-12 {
				t.Errorf("step LimitAt(%v) = %v, want %v", c.duration, got, c.wantStep)
			}
			if got := linear.LimitAt(c.duration); math.Abs(got-c.wantLinear) > 1e-12 {
				t.Errorf("linear LimitAt(%v) = %v, want %v", c.duration, got, c.wantLinear)
			}
		})
	}
}

func TestNewCurveValidation(t *testing.T) {
	cases := []struct {
		name   string
		points []Breakpoint
	}{
		{"empty", nil},
		{"not_at_zero", []Breakpoint{{1, 5}}},
		{"increasing_limit", []Breakpoint{{0, 5}, {1, 6}}},
		{"duration_not_increasing", []Breakpoint{{0, 5}, {0, 4}}},
		{"zero_limit", []Breakpoint{{0, 0}}},
		{"nan_limit", []Breakpoint{{0, math.NaN()}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := NewCurve("V", Step, Signed, c.points); err == nil {
				t.Fatalf("expected error for %v", c.points)
			}
		})
	}
}

func TestMeasure(t *testing.T) {
	signed, _ := NewCurve("A", Step, Signed, []Breakpoint{{0, 1}})
	magnitude, _ := NewCurve("A", Step, Magnitude, []Breakpoint{{0, 1}})
	if got := signed.Measure(-3); got != -3 {
		t.Fatalf("signed Measure(-3) = %v", got)
	}
	if got := magnitude.Measure(-3); got != 3 {
		t.Fatalf("magnitude Measure(-3) = %v", got)
	}
}

func TestDefaultTableCoversAllTriples(t *testing.T) {
	table, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	for _, interp := range []Interpretation{Strict, Typos, Reasonable, Speculative} {
		for _, cond := range []Condition{Dry, Wet} {
			cfg := Config{Version: UL1400_1Issue1, Interpretation: interp, Condition: cond}
			set, ok := table.Lookup(cfg)
			if !ok {
				t.Fatalf("%s not defined", cfg)
			}
			if !set.Current.Defined() || !set.Voltage.Defined() {
				t.Fatalf("%s has undefined curves", cfg)
			}
		}
	}
	if got := len(table.Configs()); got != 8 {
		t.Fatalf("expected 8 configs, got %d", got)
	}
}

func TestDefaultTableValues(t *testing.T) {
	table, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	strict, _ := table.Lookup(Config{UL1400_1Issue1, Strict, Dry})
	typos, _ := table.Lookup(Config{UL1400_1Issue1, Typos, Dry})
	wet, _ := table.Lookup(Config{UL1400_1Issue1, Reasonable, Wet})

	if got := strict.Current.LimitAt(0.2); math.Abs(got-0.0371) > 1e-9 {
		t.Errorf("strict current at 0.2s = %v, want literal 0.0371", got)
	}
	if got := typos.Current.LimitAt(0.2); math.Abs(got-0.00707) > 1e-9 {
		t.Errorf("typos current at 0.2s = %v, want corrected 0.00707", got)
	}
	if got := strict.Voltage.Floor(); got != 42.4 {
		t.Errorf("dry voltage floor = %v, want 42.4", got)
	}
	if got := wet.Voltage.Floor(); got != 21.2 {
		t.Errorf("wet voltage floor = %v, want 21.2", got)
	}
	if wet.Voltage.Polarity != Magnitude || wet.Voltage.Interpolation != Linear {
		t.Errorf("reasonable wet voltage should be linear/magnitude, got %v/%v", wet.Voltage.Interpolation, wet.Voltage.Polarity)
	}
}

func TestLookupUnknownTriple(t *testing.T) {
	table, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if _, ok := table.Lookup(Config{StandardVersion(99), Strict, Dry}); ok {
		t.Fatal("lookup of unknown version succeeded")
	}
	var nilTable *Table
	if _, ok := nilTable.Lookup(NewConfig(Dry)); ok {
		t.Fatal("lookup on nil table succeeded")
	}
}

const partialTable = `
entries:
  - version: UL1400_1_ISSUE_1
    interpretations: [Strict]
    conditions: [DRY]
    current:
      unit: A
      breakpoints: [{duration: 0, limit: 0.01}]
    voltage:
      unit: V
      interpolation: linear
      breakpoints: [{duration: 0, limit: 50}, {duration: 1, limit: 40}]
`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	if err := os.WriteFile(path, []byte(partialTable), 0o600); err != nil {
		t.Fatal(err)
	}
	table, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if table.Source() != path {
		t.Fatalf("Source() = %q", table.Source())
	}
	set, ok := table.Lookup(NewConfig(Dry))
	if !ok {
		t.Fatal("strict/dry missing")
	}
	if got := set.Voltage.LimitAt(0.5); math.Abs(got-45) > 1e-9 {
		t.Fatalf("voltage LimitAt(0.5) = %v, want 45", got)
	}
	if _, ok := table.Lookup(NewConfig(Wet)); ok {
		t.Fatal("strict/wet should not be defined")
	}
}

func TestParseRejectsBadTables(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"no_entries", "entries: []", "no entries"},
		{"bad_version", strings.Replace(partialTable, "UL1400_1_ISSUE_1", "ul2", 1), "unknown standard version"},
		{"bad_condition", strings.Replace(partialTable, "[DRY]", "[damp]", 1), "unknown condition"},
		{"duplicate", partialTable + strings.TrimPrefix(partialTable, "\nentries:\n"), "more than once"},
		{"bad_interpolation", strings.Replace(partialTable, "linear", "cubic", 1), "unknown interpolation"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse(c.name, []byte(c.raw))
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Fatalf("expected error containing %q, got %v", c.want, err)
			}
		})
	}
}

func TestParseTokens(t *testing.T) {
	if c, err := ParseCondition(" WET "); err != nil || c != Wet {
		t.Fatalf("ParseCondition: %v %v", c, err)
	}
	if i, err := ParseInterpretation("Reasonable"); err != nil || i != Reasonable {
		t.Fatalf("ParseInterpretation: %v %v", i, err)
	}
	if v, err := ParseStandardVersion("UL1400-1-Issue-1"); err != nil || v != UL1400_1Issue1 {
		t.Fatalf("ParseStandardVersion: %v %v", v, err)
	}
	_, err := ParseInterpretation("lenient")
	if err == nil || !strings.Contains(err.Error(), "reasonable, speculative, strict, typos") {
		t.Fatalf("expected choices in error, got %v", err)
	}
}
