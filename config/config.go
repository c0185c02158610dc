// Package config loads engine settings from YAML or TOML files.
//
// A missing file yields Default. Keys:
//
//	name: rigorexec
//	rigor_level: standard        # strict | standard | relaxed | bypass
//	intercept_all_tools: true
//	output_dir: ./analysis
//	save_figures: true
//	timeout: 30s                 # advisory only
//	audit_db: ./analysis/audit.db
//	forbidden_patterns:
//	  - {pattern: 'drop\s+outliers\s+until', message: 'RIGOR: iterative outlier dropping.'}
//	warning_patterns:
//	  - {pattern: 'smooth', message: 'Smoothing detected.', severity: WARNING}
//	bounds:
//	  temperature_c: [-40, 60]
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/rigorexec/integrity"
	"github.com/jonwraymond/rigorexec/policy"
)

// Errors returned by Load and Watch.
var (
	// ErrInvalid is returned for configuration that loads but does not
	// validate.
	ErrInvalid = errors.New("invalid configuration")

	// ErrMissing is passed to a Watch callback when the watched file no
	// longer exists.
	ErrMissing = errors.New("config file missing")
)

// Pattern is an extra scanner rule.
type Pattern struct {
	Pattern  string `yaml:"pattern" toml:"pattern"`
	Message  string `yaml:"message" toml:"message"`
	Severity string `yaml:"severity" toml:"severity"`
}

// Duration is a time.Duration written as a Go duration string.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.UnmarshalText([]byte(n.Value))
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the engine configuration.
type Config struct {
	Name              string               `yaml:"name" toml:"name"`
	RigorLevel        string               `yaml:"rigor_level" toml:"rigor_level"`
	InterceptAllTools *bool                `yaml:"intercept_all_tools" toml:"intercept_all_tools"`
	OutputDir         string               `yaml:"output_dir" toml:"output_dir"`
	ForbiddenPatterns []Pattern            `yaml:"forbidden_patterns" toml:"forbidden_patterns"`
	WarningPatterns   []Pattern            `yaml:"warning_patterns" toml:"warning_patterns"`
	Bounds            map[string][]float64 `yaml:"bounds" toml:"bounds"`
	SaveFigures       bool                 `yaml:"save_figures" toml:"save_figures"`
	Timeout           Duration             `yaml:"timeout" toml:"timeout"`
	AuditDB           string               `yaml:"audit_db" toml:"audit_db"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	intercept := true
	return &Config{
		Name:              "rigorexec",
		RigorLevel:        string(policy.LevelStandard),
		InterceptAllTools: &intercept,
		SaveFigures:       true,
		Timeout:           Duration{30 * time.Second},
	}
}

// Load reads path over Default. The format is chosen by extension: .toml
// is TOML, anything else YAML. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks level, patterns and bounds.
func (c *Config) Validate() error {
	var problems []string
	if _, err := policy.ParseLevel(c.RigorLevel); err != nil {
		problems = append(problems, err.Error())
	}
	for _, p := range append(append([]Pattern(nil), c.ForbiddenPatterns...), c.WarningPatterns...) {
		if _, err := policy.NewRule(p.Pattern, p.Message, policy.SeverityWarning); err != nil {
			problems = append(problems, err.Error())
		}
		if _, err := policy.ParseSeverity(p.Severity, policy.SeverityWarning); err != nil {
			problems = append(problems, err.Error())
		}
	}
	for name, r := range c.Bounds {
		if len(r) != 2 || r[0] > r[1] {
			problems = append(problems, fmt.Sprintf("bounds %q must be [lo, hi] with lo <= hi", name))
		}
	}
	if c.Timeout.Duration < 0 {
		problems = append(problems, "timeout must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Level returns the parsed rigor level, defaulting to standard.
func (c *Config) Level() policy.Level {
	l, err := policy.ParseLevel(c.RigorLevel)
	if err != nil {
		return policy.LevelStandard
	}
	return l
}

// Intercept reports whether other tools' arguments are scanned.
func (c *Config) Intercept() bool {
	return c.InterceptAllTools == nil || *c.InterceptAllTools
}

// Apply sets the scanner's level and appends the extra patterns.
// Forbidden patterns default to CRITICAL, warning patterns to WARNING.
func (c *Config) Apply(s *policy.Scanner) error {
	if err := s.SetLevel(c.Level()); err != nil {
		return err
	}
	for _, p := range c.ForbiddenPatterns {
		sev, err := policy.ParseSeverity(p.Severity, policy.SeverityCritical)
		if err != nil {
			return err
		}
		if err := s.AddForbidden(p.Pattern, p.Message, sev); err != nil {
			return err
		}
	}
	for _, p := range c.WarningPatterns {
		sev, err := policy.ParseSeverity(p.Severity, policy.SeverityWarning)
		if err != nil {
			return err
		}
		if err := s.AddWarning(p.Pattern, p.Message, sev); err != nil {
			return err
		}
	}
	return nil
}

// BoundsChecker builds the parameter range checker.
func (c *Config) BoundsChecker() *integrity.Bounds {
	ranges := make(map[string]integrity.Range, len(c.Bounds))
	for name, r := range c.Bounds {
		if len(r) == 2 {
			ranges[name] = integrity.Range{Lo: r[0], Hi: r[1]}
		}
	}
	return integrity.NewBounds(ranges)
}
