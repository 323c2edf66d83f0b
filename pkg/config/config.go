// Package config loads and validates the YAML run configuration and turns it
// into pipeline options. File paths and output choices stay here; the
// pipeline only sees analysis parameters.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/linkdistributor/pkg/category"
	"github.com/dd0wney/linkdistributor/pkg/graph"
	"github.com/dd0wney/linkdistributor/pkg/pipeline"
	"github.com/dd0wney/linkdistributor/pkg/sampling"
)

// Output formats.
const (
	FormatCSV     = "csv"
	FormatGeoJSON = "geojson"
	FormatSQLite  = "sqlite"
)

// Environment overrides, applied after the file and before validation.
const (
	EnvInput     = "LINKDIST_INPUT"
	EnvOutputDir = "LINKDIST_OUTPUT_DIR"
	EnvWorkers   = "LINKDIST_WORKERS"
	EnvLogLevel  = "LOG_LEVEL"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the on-disk run configuration.
type Config struct {
	Input           InputConfig     `yaml:"input"`
	Output          OutputConfig    `yaml:"output"`
	Ramps           RampConfig      `yaml:"ramps"`
	CentralityTypes []string        `yaml:"centrality_types" validate:"dive,required"`
	RMSE            RMSEConfig      `yaml:"rmse"`
	SnapPrecision   int             `yaml:"snap_precision" validate:"gte=0,lte=12"`
	CombinePaired   bool            `yaml:"combine_paired"`
	Workers         int             `yaml:"workers" validate:"gte=-1,lte=1024"`
	TopEdges        int             `yaml:"top_edges" validate:"gte=0"`
	Networks        []NetworkConfig `yaml:"networks" validate:"dive"`
	LogLevel        string          `yaml:"log_level" validate:"oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
	DebugPrintLimit int             `yaml:"debug_print_limit" validate:"gte=0"`
}

// InputConfig locates the link source.
type InputConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// OutputConfig selects where and how results are written.
type OutputConfig struct {
	Dir     string   `yaml:"dir" validate:"required"`
	Formats []string `yaml:"formats" validate:"required,min=1,unique,dive,oneof=csv geojson sqlite"`
	// Timestamped writes each run into a yyyyMMdd_HHmmss subdirectory of Dir.
	Timestamped bool `yaml:"timestamped"`
	// Metrics writes metrics.prom next to the results.
	Metrics bool `yaml:"metrics"`
}

// RampConfig controls the pre-centrality ramp filter.
type RampConfig struct {
	Enabled bool  `yaml:"enabled"`
	Values  []int `yaml:"values" validate:"dive,gte=0"`
}

// RMSEConfig has one reliability value per category. Zero or negative
// values give the category no samples.
type RMSEConfig struct {
	Group1 float64 `yaml:"group1"`
	Group2 float64 `yaml:"group2"`
	Group3 float64 `yaml:"group3"`
	Group4 float64 `yaml:"group4"`
	Group5 float64 `yaml:"group5"`
	Group6 float64 `yaml:"group6"`
	Other  float64 `yaml:"other"`
}

// NetworkConfig is one survey network used for the budget estimate.
type NetworkConfig struct {
	Name        string  `yaml:"name" validate:"required"`
	Price       float64 `yaml:"price" validate:"gte=0"`
	Budget      float64 `yaml:"budget" validate:"gte=0"`
	Quota       int     `yaml:"quota" validate:"gte=0"`
	Description string  `yaml:"description,omitempty"`
}

// Default returns a configuration that runs as-is once input.path is set.
func Default() *Config {
	return &Config{
		Input: InputConfig{Path: "links.geojson"},
		Output: OutputConfig{
			Dir:         "output",
			Formats:     []string{FormatCSV, FormatGeoJSON},
			Timestamped: true,
			Metrics:     true,
		},
		Ramps: RampConfig{
			Enabled: true,
			Values:  append([]int(nil), pipeline.DefaultRampValues...),
		},
		RMSE: RMSEConfig{
			Group1: 0.15,
			Group2: 0.20,
			Group3: 0.25,
			Group4: 0.30,
			Group5: 0.30,
			Group6: 0.40,
			Other:  0.0,
		},
		SnapPrecision:   graph.DefaultSnapPrecision,
		CombinePaired:   true,
		TopEdges:        10,
		LogLevel:        "info",
		DebugPrintLimit: pipeline.DefaultDebugPrintLimit,
	}
}

// Load reads path on top of the defaults, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv in
// production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvInput); ok && v != "" {
		c.Input.Path = v
	}
	if v, ok := lookup(EnvOutputDir); ok && v != "" {
		c.Output.Dir = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvWorkers, v)
		}
		c.Workers = n
	}
	return nil
}

// Write encodes cfg as YAML.
func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// HasFormat reports whether format is among the output formats.
func (c *Config) HasFormat(format string) bool {
	for _, f := range c.Output.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// ToMap returns the RMSE table keyed by category.
func (r RMSEConfig) ToMap() map[category.Category]float64 {
	return map[category.Category]float64{
		category.Group1: r.Group1,
		category.Group2: r.Group2,
		category.Group3: r.Group3,
		category.Group4: r.Group4,
		category.Group5: r.Group5,
		category.Group6: r.Group6,
		category.Other:  r.Other,
	}
}

// SurveyNetworks converts the network table for the budget estimate.
func (c *Config) SurveyNetworks() []sampling.SurveyNetwork {
	if len(c.Networks) == 0 {
		return nil
	}
	out := make([]sampling.SurveyNetwork, len(c.Networks))
	for i, n := range c.Networks {
		out[i] = sampling.SurveyNetwork{
			Name:        n.Name,
			Price:       n.Price,
			Budget:      n.Budget,
			Quota:       n.Quota,
			Description: n.Description,
		}
	}
	return out
}

// PipelineOptions converts the analysis parameters. Logger and Metrics are
// left for the caller.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		RampFilter: pipeline.RampFilter{
			Enabled: c.Ramps.Enabled,
			Values:  append([]int(nil), c.Ramps.Values...),
		},
		CentralityTypes: append([]string(nil), c.CentralityTypes...),
		RMSE:            c.RMSE.ToMap(),
		SnapPrecision:   pipeline.Precision(c.SnapPrecision),
		CombinePaired:   c.CombinePaired,
		Workers:         c.Workers,
		Networks:        c.SurveyNetworks(),
		TopN:            c.TopEdges,
		DebugPrintLimit: c.DebugPrintLimit,
	}
}
