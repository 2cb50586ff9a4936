package threshold

import (
	"fmt"
	"sort"
	"strings"
)

// Condition is the environmental test condition.
type Condition int

const (
	Dry Condition = iota + 1
	Wet
)

// Interpretation is how strictly the standard's text is applied, from the
// literal wording up to speculative readings of ambiguous material.
type Interpretation int

const (
	// Strict follows the exact language, typos included.
	Strict Interpretation = iota + 1
	// Typos allows provable typos in the standard to be corrected.
	Typos
	// Reasonable resolves ambiguous or absent material where a confident
	// reading exists (e.g. evaluating magnitudes instead of signed values).
	Reasonable
	// Speculative allows experimental readings that cannot be proven.
	Speculative
)

// StandardVersion identifies an edition of the governing standard.
type StandardVersion int

const (
	// UL1400_1Issue1 is UL1400-1, Issue Number 1; December 19, 2022.
	UL1400_1Issue1 StandardVersion = iota + 1
)

const (
	DefaultInterpretation  = Strict
	LatestStandardVersion  = UL1400_1Issue1
	DefaultStandardVersion = LatestStandardVersion
)

// FaultRecoveryPeriod is the shortest Fault Recovery Period of UL1400-1 Issue
// 1, in seconds. A compliant window shorter than this cannot demonstrate it.
const FaultRecoveryPeriod = 3.0

var conditionNames = map[Condition]string{
	Dry: "dry",
	Wet: "wet",
}

var interpretationNames = map[Interpretation]string{
	Strict:      "strict",
	Typos:       "typos",
	Reasonable:  "reasonable",
	Speculative: "speculative",
}

var interpretationDescriptions = map[Interpretation]string{
	Strict:      "Level 0: only interpretations strictly adhering to the exact language in the standard",
	Typos:       "Level 1: provable typos in the standard are fixed",
	Reasonable:  "Level 2: ambiguous, conflicting or absent material is resolved where a reasonably confident interpretation exists",
	Speculative: "Level 3: experimental and speculative interpretations of material that cannot otherwise be resolved",
}

var versionNames = map[StandardVersion]string{
	UL1400_1Issue1: "ul1400_1_issue_1",
}

var versionDescriptions = map[StandardVersion]string{
	UL1400_1Issue1: "UL1400-1, Issue Number 1; December 19, 2022",
}

// Token lookups are built from the name tables; parsing never reflects over
// the constants.
var (
	conditionTokens      = invert(conditionNames)
	interpretationTokens = invert(interpretationNames)
	versionTokens        = invert(versionNames)
)

func invert[K comparable](names map[K]string) map[string]K {
	out := make(map[string]K, len(names))
	for k, name := range names {
		out[name] = k
	}
	return out
}

func choices[K comparable](tokens map[string]K) string {
	names := make([]string, 0, len(tokens))
	for name := range tokens {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func normalizeToken(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}

func (c Condition) String() string {
	if name, ok := conditionNames[c]; ok {
		return name
	}
	return fmt.Sprintf("condition(%d)", int(c))
}

func (i Interpretation) String() string {
	if name, ok := interpretationNames[i]; ok {
		return name
	}
	return fmt.Sprintf("interpretation(%d)", int(i))
}

// Description is the long-form meaning of the interpretation level.
func (i Interpretation) Description() string {
	return interpretationDescriptions[i]
}

func (v StandardVersion) String() string {
	if name, ok := versionNames[v]; ok {
		return name
	}
	return fmt.Sprintf("standard_version(%d)", int(v))
}

// Description is the edition title of the standard version.
func (v StandardVersion) Description() string {
	return versionDescriptions[v]
}

// ParseCondition matches a condition token case-insensitively.
func ParseCondition(s string) (Condition, error) {
	if c, ok := conditionTokens[normalizeToken(s)]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("unknown condition %q (valid: %s)", s, choices(conditionTokens))
}

// ParseInterpretation matches an interpretation token case-insensitively.
func ParseInterpretation(s string) (Interpretation, error) {
	if i, ok := interpretationTokens[normalizeToken(s)]; ok {
		return i, nil
	}
	return 0, fmt.Errorf("unknown interpretation level %q (valid: %s)", s, choices(interpretationTokens))
}

// ParseStandardVersion matches a standard version token case-insensitively.
func ParseStandardVersion(s string) (StandardVersion, error) {
	if v, ok := versionTokens[normalizeToken(s)]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("unknown standard version %q (valid: %s)", s, choices(versionTokens))
}

// MarshalText lets the enums appear by name in JSON reports.
func (c Condition) MarshalText() ([]byte, error)       { return []byte(c.String()), nil }
func (i Interpretation) MarshalText() ([]byte, error)  { return []byte(i.String()), nil }
func (v StandardVersion) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// Config is the (standard version, interpretation, condition) triple selecting
// the threshold curves for one analysis. It is a value type; build it once per
// run and pass it along.
type Config struct {
	Version        StandardVersion `json:"standard_version"`
	Interpretation Interpretation  `json:"interpretation"`
	Condition      Condition       `json:"condition"`
}

// NewConfig returns a Config using the default version and interpretation.
func NewConfig(condition Condition) Config {
	return Config{
		Version:        DefaultStandardVersion,
		Interpretation: DefaultInterpretation,
		Condition:      condition,
	}
}

func (c Config) String() string {
	return fmt.Sprintf("%s/%s/%s", c.Version, c.Interpretation, c.Condition)
}
