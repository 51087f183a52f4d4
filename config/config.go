// Package config holds the replay run configuration. Files load as YAML
// with a JSON fallback; raw mappings validate against a small field
// template with type checks and optional/default/mandatory flags.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultCash = 1000

// Config represents one replay run.
//
// Cash of zero is treated as unset and takes DefaultCash during Validate;
// a run cannot be configured with literally zero starting cash.
type Config struct {
	Cash     float64        `json:"cash" yaml:"cash"`
	From     string         `json:"from,omitempty" yaml:"from,omitempty"`
	To       string         `json:"to,omitempty" yaml:"to,omitempty"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// StrategyConfig contains strategy selection and parameters.
type StrategyConfig struct {
	Name string  `json:"name" yaml:"name"`
	Fast int     `json:"fast,omitempty" yaml:"fast,omitempty"`
	Slow int     `json:"slow,omitempty" yaml:"slow,omitempty"`
	Size float64 `json:"size,omitempty" yaml:"size,omitempty"`
}

// JournalConfig contains run-recording parameters.
type JournalConfig struct {
	Type        string `json:"type,omitempty" yaml:"type,omitempty"` // "csv", "sqlite" or "" (none)
	AccountFile string `json:"account_file,omitempty" yaml:"account_file,omitempty"`
	LotsFile    string `json:"lots_file,omitempty" yaml:"lots_file,omitempty"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// field is one entry of the mapping template: a type check plus
// optional/default/mandatory flags.
type field struct {
	name      string
	kind      string // "number" or "string"
	mandatory bool
	def       any
}

var template = []field{
	{name: "cash", kind: "number", def: float64(DefaultCash)},
	{name: "from", kind: "string"},
	{name: "to", kind: "string"},
}

// FromMap validates a raw configuration mapping against the template and
// builds a Config from it. Unknown keys, missing mandatory fields and
// type mismatches are errors.
func FromMap(m map[string]any) (*Config, error) {
	seen := make(map[string]bool, len(m))
	cfg := &Config{}
	for _, f := range template {
		v, present := m[f.name]
		if !present {
			if f.mandatory {
				return nil, fmt.Errorf("config: field %q is mandatory", f.name)
			}
			v = f.def
		}
		seen[f.name] = true
		if v == nil {
			continue
		}
		switch f.kind {
		case "number":
			n, ok := toNumber(v)
			if !ok {
				return nil, fmt.Errorf("config: field %q must be a number, got %T", f.name, v)
			}
			if f.name == "cash" {
				// Zero would be silently bumped to the default by
				// Validate; an explicit zero is rejected here, where
				// presence is still known.
				if present && n == 0 {
					return nil, fmt.Errorf("config: cash must be positive (omit it for the default %v)", float64(DefaultCash))
				}
				cfg.Cash = n
			}
		case "string":
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("config: field %q must be a string, got %T", f.name, v)
			}
			switch f.name {
			case "from":
				cfg.From = s
			case "to":
				cfg.To = s
			}
		}
	}
	for name := range m {
		if !seen[name] {
			return nil, fmt.Errorf("config: unknown field %q", name)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate applies defaults and checks the configuration is usable. Cash
// of zero is indistinguishable from an unset field on the struct and
// takes the default; FromMap rejects an explicit zero before it gets
// here.
func (c *Config) Validate() error {
	if c.Cash == 0 {
		c.Cash = DefaultCash
	}
	if c.Cash < 0 || math.IsNaN(c.Cash) || math.IsInf(c.Cash, 0) {
		return fmt.Errorf("cash must be a non-negative number")
	}
	if _, err := c.FromTime(); err != nil {
		return err
	}
	if _, err := c.ToTime(); err != nil {
		return err
	}
	switch c.Journal.Type {
	case "", "csv", "sqlite":
	default:
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && (c.Journal.AccountFile == "" || c.Journal.LotsFile == "") {
		return fmt.Errorf("journal account_file and lots_file required for CSV type")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	return nil
}

// FromTime parses the optional start bound.
func (c *Config) FromTime() (time.Time, error) {
	return parseDate("from", c.From)
}

// ToTime parses the optional end bound.
func (c *Config) ToTime() (time.Time, error) {
	return parseDate("to", c.To)
}

func parseDate(name, s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err2 := time.Parse("2006-01-02", s)
	if err2 != nil {
		return time.Time{}, fmt.Errorf("%s: bad date %q: %w", name, s, err)
	}
	return t, nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Cash: DefaultCash,
		Strategy: StrategyConfig{
			Name: "noop",
		},
	}
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
