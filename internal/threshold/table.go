package threshold

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/ul1400_1.yaml
var defaultTableData []byte

// Table maps configuration triples to curve sets. It is read-only after
// construction and safe for concurrent use.
type Table struct {
	source string
	curves map[Config]CurveSet
}

// Lookup returns the curves for cfg. It never fails; ok is false when the
// triple is not defined.
func (t *Table) Lookup(cfg Config) (CurveSet, bool) {
	if t == nil {
		return CurveSet{}, false
	}
	set, ok := t.curves[cfg]
	return set, ok
}

// Source names where the table data came from.
func (t *Table) Source() string { return t.source }

// Configs lists every defined triple in a stable order.
func (t *Table) Configs() []Config {
	out := make([]Config, 0, len(t.curves))
	for cfg := range t.curves {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Version != b.Version {
			return a.Version < b.Version
		}
		if a.Interpretation != b.Interpretation {
			return a.Interpretation < b.Interpretation
		}
		return a.Condition < b.Condition
	})
	return out
}

var loadDefault = sync.OnceValues(func() (*Table, error) {
	return Parse("embedded:ul1400_1.yaml", defaultTableData)
})

// Default returns the built-in table, parsed once per process.
func Default() (*Table, error) {
	return loadDefault()
}

// LoadFile parses a threshold table from a YAML file.
func LoadFile(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read threshold table: %w", err)
	}
	return Parse(path, raw)
}

type fileCurve struct {
	Unit          string       `yaml:"unit"`
	Interpolation string       `yaml:"interpolation"`
	Polarity      string       `yaml:"polarity"`
	Breakpoints   []Breakpoint `yaml:"breakpoints"`
}

type fileEntry struct {
	Version         string    `yaml:"version"`
	Interpretations []string  `yaml:"interpretations"`
	Conditions      []string  `yaml:"conditions"`
	Current         fileCurve `yaml:"current"`
	Voltage         fileCurve `yaml:"voltage"`
}

type fileTable struct {
	Entries []fileEntry `yaml:"entries"`
}

// Parse builds a table from YAML data. Each entry expands to every listed
// interpretation and condition; a triple defined twice is an error.
func Parse(source string, raw []byte) (*Table, error) {
	var ft fileTable
	if err := yaml.Unmarshal(raw, &ft); err != nil {
		return nil, fmt.Errorf("failed to parse threshold table %s: %w", source, err)
	}
	if len(ft.Entries) == 0 {
		return nil, fmt.Errorf("threshold table %s has no entries", source)
	}

	t := &Table{source: source, curves: make(map[Config]CurveSet)}
	for idx, e := range ft.Entries {
		version, err := ParseStandardVersion(e.Version)
		if err != nil {
			return nil, fmt.Errorf("%s entry %d: %w", source, idx, err)
		}
		current, err := e.Current.build()
		if err != nil {
			return nil, fmt.Errorf("%s entry %d current: %w", source, idx, err)
		}
		voltage, err := e.Voltage.build()
		if err != nil {
			return nil, fmt.Errorf("%s entry %d voltage: %w", source, idx, err)
		}
		if len(e.Interpretations) == 0 || len(e.Conditions) == 0 {
			return nil, fmt.Errorf("%s entry %d: interpretations and conditions are required", source, idx)
		}

		for _, is := range e.Interpretations {
			interp, err := ParseInterpretation(is)
			if err != nil {
				return nil, fmt.Errorf("%s entry %d: %w", source, idx, err)
			}
			for _, cs := range e.Conditions {
				cond, err := ParseCondition(cs)
				if err != nil {
					return nil, fmt.Errorf("%s entry %d: %w", source, idx, err)
				}
				cfg := Config{Version: version, Interpretation: interp, Condition: cond}
				if _, dup := t.curves[cfg]; dup {
					return nil, fmt.Errorf("%s entry %d: %s defined more than once", source, idx, cfg)
				}
				t.curves[cfg] = CurveSet{Current: current, Voltage: voltage}
			}
		}
	}
	return t, nil
}

func (fc fileCurve) build() (Curve, error) {
	var interp Interpolation
	switch strings.ToLower(fc.Interpolation) {
	case "", "step":
		interp = Step
	case "linear":
		interp = Linear
	default:
		return Curve{}, fmt.Errorf("unknown interpolation %q (valid: linear, step)", fc.Interpolation)
	}

	var polarity Polarity
	switch strings.ToLower(fc.Polarity) {
	case "", "signed":
		polarity = Signed
	case "magnitude":
		polarity = Magnitude
	default:
		return Curve{}, fmt.Errorf("unknown polarity %q (valid: magnitude, signed)", fc.Polarity)
	}

	return NewCurve(fc.Unit, interp, polarity, fc.Breakpoints)
}
