// Package audit validates a requested configuration against the threshold
// table before any waveform data is touched.
package audit

import (
	"errors"
	"fmt"

	"github.com/user/letgo_analyzer_go/internal/threshold"
)

// ErrConfiguration is matched by every *ConfigurationError.
var ErrConfiguration = errors.New("unsupported configuration")

// ConfigurationError names a triple that has no defined threshold curves.
type ConfigurationError struct {
	Config threshold.Config
	Source string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unsupported configuration: standard version %s, interpretation %s, condition %s not defined in threshold table %s",
		e.Config.Version, e.Config.Interpretation, e.Config.Condition, e.Source)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Audit returns a *ConfigurationError when cfg has no curves in table.
func Audit(table *threshold.Table, cfg threshold.Config) error {
	if _, ok := table.Lookup(cfg); !ok {
		source := "<nil>"
		if table != nil {
			source = table.Source()
		}
		return &ConfigurationError{Config: cfg, Source: source}
	}
	return nil
}

// Warnings returns advisory notes for a configuration that passed Audit.
// They flag settings that may not match the official reading of the standard,
// including a minimum compliant window (seconds) below the Fault Recovery
// Period.
func Warnings(cfg threshold.Config, minWindow float64) []string {
	var notes []string
	if minWindow < threshold.FaultRecoveryPeriod {
		notes = append(notes, fmt.Sprintf("window duration %gs is too small to assess the %gs Fault Recovery Period", minWindow, threshold.FaultRecoveryPeriod))
	}
	if cfg.Version != threshold.LatestStandardVersion {
		notes = append(notes, fmt.Sprintf("standard version %s is not the latest (%s)", cfg.Version, threshold.LatestStandardVersion))
	}
	switch cfg.Interpretation {
	case threshold.Typos:
		notes = append(notes, "interpretation level typos corrects published values; results may differ from a literal reading")
	case threshold.Reasonable:
		notes = append(notes, "interpretation level reasonable resolves ambiguous material; it may not be the official interpretation")
	case threshold.Speculative:
		notes = append(notes, "interpretation level speculative is experimental; do not rely on it for compliance")
	}
	return notes
}
