package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/user/letgo_analyzer_go/internal/threshold"
)

// Config holds user defaults for the let-go command. Command-line flags
// override every field.
type Config struct {
	Importer        string       `yaml:"importer"`
	Format          string       `yaml:"format"`
	Interpretation  string       `yaml:"interpretation"`
	StandardVersion string       `yaml:"standard_version"`
	Condition       string       `yaml:"condition"`
	Workers         int          `yaml:"workers"`
	MinWindow       float64      `yaml:"min_window"`
	Thresholds      string       `yaml:"thresholds"`
	RequireData     bool         `yaml:"require_data"`
	Report          ReportConfig `yaml:"report"`
}

type ReportConfig struct {
	JSON     bool   `yaml:"json"`
	Progress bool   `yaml:"progress"`
	PlotDir  string `yaml:"plot_dir"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Importer:        "tek_mso4",
		Format:          "csv",
		Interpretation:  threshold.DefaultInterpretation.String(),
		StandardVersion: threshold.DefaultStandardVersion.String(),
		MinWindow:       threshold.FaultRecoveryPeriod,
	}
}

// Path returns ~/.config/letgo/config.yaml (or under XDG_CONFIG_HOME).
// Returns empty string if the home directory cannot be determined.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "letgo", "config.yaml")
}

// Load reads the config at path. An empty path means the default location,
// where a missing file yields the defaults; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = Path()
	}

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case explicit || !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Importer == "" {
		c.Importer = def.Importer
	}
	if c.Format == "" {
		c.Format = def.Format
	}
	if c.Interpretation == "" {
		c.Interpretation = def.Interpretation
	}
	if c.StandardVersion == "" {
		c.StandardVersion = def.StandardVersion
	}
}

func (c *Config) validate() error {
	if _, err := threshold.ParseInterpretation(c.Interpretation); err != nil {
		return fmt.Errorf("interpretation: %w", err)
	}
	if _, err := threshold.ParseStandardVersion(c.StandardVersion); err != nil {
		return fmt.Errorf("standard_version: %w", err)
	}
	if c.Condition != "" {
		if _, err := threshold.ParseCondition(c.Condition); err != nil {
			return fmt.Errorf("condition: %w", err)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.MinWindow < 0 {
		return fmt.Errorf("min_window must be >= 0, got %g", c.MinWindow)
	}
	return nil
}
