// Package config holds the tracker configuration: API endpoints, reference
// and output paths, the plan alias table and the overlap corrections.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	trackererrors "gho-tracker/pkg/errors"
)

//go:embed default.yaml
var defaultYAML []byte

// Config holds all tracker configuration.
type Config struct {
	API       APIConfig         `yaml:"api"`
	Reference ReferenceConfig   `yaml:"reference"`
	Output    OutputConfig      `yaml:"output"`
	Aliases   map[string]string `yaml:"aliases"`
	Overlaps  []Overlap         `yaml:"overlaps"`
}

// APIConfig configures the FTS API fetcher.
type APIConfig struct {
	OverviewURL string `yaml:"overview_url"`
	FlowURL     string `yaml:"flow_url"`
	UserAgent   string `yaml:"user_agent"`
	Timeout     string `yaml:"timeout"`
}

// ReferenceConfig points at the static reference CSVs.
type ReferenceConfig struct {
	Prioritized string `yaml:"prioritized"`
	People      string `yaml:"people"`
}

// OutputConfig names the output directory and report files.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	ByPlan string `yaml:"by_plan"`
	Totals string `yaml:"totals"`
}

// Overlap is a known double-counted amount between plans. Amounts are
// negative and apply to the prioritized requirements total only.
type Overlap struct {
	Name   string `yaml:"name"`
	Amount int64  `yaml:"amount"`
}

// Default returns the embedded default configuration.
func Default() (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
// Aliases and overlaps in the file replace the default tables wholesale.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.merge(&file)

	return cfg, cfg.Validate()
}

func (c *Config) merge(o *Config) {
	setIf(&c.API.OverviewURL, o.API.OverviewURL)
	setIf(&c.API.FlowURL, o.API.FlowURL)
	setIf(&c.API.UserAgent, o.API.UserAgent)
	setIf(&c.API.Timeout, o.API.Timeout)
	setIf(&c.Reference.Prioritized, o.Reference.Prioritized)
	setIf(&c.Reference.People, o.Reference.People)
	setIf(&c.Output.Dir, o.Output.Dir)
	setIf(&c.Output.ByPlan, o.Output.ByPlan)
	setIf(&c.Output.Totals, o.Output.Totals)
	if o.Aliases != nil {
		c.Aliases = o.Aliases
	}
	if o.Overlaps != nil {
		c.Overlaps = o.Overlaps
	}
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.API.OverviewURL == "" {
		return trackererrors.NewConfigError("api.overview_url", "must not be empty")
	}
	if c.API.FlowURL == "" {
		return trackererrors.NewConfigError("api.flow_url", "must not be empty")
	}
	if _, err := c.Timeout(); err != nil {
		return trackererrors.NewConfigError("api.timeout", err.Error())
	}
	if c.Reference.Prioritized == "" || c.Reference.People == "" {
		return trackererrors.NewConfigError("reference", "both reference files are required")
	}
	if c.Output.Dir == "" || c.Output.ByPlan == "" || c.Output.Totals == "" {
		return trackererrors.NewConfigError("output", "directory and file names are required")
	}
	for _, o := range c.Overlaps {
		if o.Amount > 0 {
			return trackererrors.NewConfigError("overlaps."+o.Name, "overlap corrections must not be positive")
		}
	}
	return nil
}

// Timeout returns the per-request HTTP timeout.
func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", c.API.Timeout)
	}
	return d, nil
}

// ByPlanPath is the per-plan report location.
func (c *Config) ByPlanPath() string {
	return filepath.Join(c.Output.Dir, c.Output.ByPlan)
}

// TotalsPath is the totals report location.
func (c *Config) TotalsPath() string {
	return filepath.Join(c.Output.Dir, c.Output.Totals)
}

// AliasTable returns a copy of the alias table.
func (c *Config) AliasTable() map[string]string {
	out := make(map[string]string, len(c.Aliases))
	for k, v := range c.Aliases {
		out[k] = v
	}
	return out
}

// OverlapAmounts returns a copy of the overlap corrections.
func (c *Config) OverlapAmounts() []Overlap {
	return append([]Overlap(nil), c.Overlaps...)
}
