// Package config loads ltsislands settings from defaults, a YAML file,
// LTS_ environment variables and command-line flags.
package config

import (
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"

	"stress_islands/pkg/boundary"
	"stress_islands/pkg/island"
	"stress_islands/pkg/locate"
	"stress_islands/pkg/output"
	"stress_islands/pkg/report"
	"stress_islands/pkg/stress"

	osmparser "stress_islands/pkg/osm"
)

// Config is the complete ltsislands configuration.
type Config struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" json:"log_format"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis" json:"analysis"`
	Trace    TraceConfig    `mapstructure:"trace" yaml:"trace" json:"trace"`
	Input    InputConfig    `mapstructure:"input" yaml:"input" json:"input"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output" json:"output"`
	Locate   LocateConfig   `mapstructure:"locate" yaml:"locate" json:"locate"`
}

// AnalysisConfig controls classification and segmentation.
type AnalysisConfig struct {
	// PassabilityThreshold is the highest tier an island may contain.
	PassabilityThreshold int  `mapstructure:"passability_threshold" yaml:"passability_threshold" json:"passability_threshold"`
	Verify               bool `mapstructure:"verify" yaml:"verify" json:"verify"`
	Strict               bool `mapstructure:"strict" yaml:"strict" json:"strict"`
}

// TraceConfig controls boundary tracing.
type TraceConfig struct {
	MaxPoints         int     `mapstructure:"max_points" yaml:"max_points" json:"max_points"`
	Workers           int     `mapstructure:"workers" yaml:"workers" json:"workers"`
	SimplifyTolerance float64 `mapstructure:"simplify_tolerance" yaml:"simplify_tolerance" json:"simplify_tolerance"`
}

// InputConfig controls how OSM extracts are read.
type InputConfig struct {
	// BBox is "minLat,minLng,maxLat,maxLng"; empty keeps every way.
	BBox string `mapstructure:"bbox" yaml:"bbox" json:"bbox"`
}

// OutputConfig controls where and how results are written.
type OutputConfig struct {
	Dir          string `mapstructure:"dir" yaml:"dir" json:"dir"`
	Format       string `mapstructure:"format" yaml:"format" json:"format"`
	LevelPrefix  string `mapstructure:"level_prefix" yaml:"level_prefix" json:"level_prefix"`
	IslandPrefix string `mapstructure:"island_prefix" yaml:"island_prefix" json:"island_prefix"`
	ReportFormat string `mapstructure:"report_format" yaml:"report_format" json:"report_format"`
	MetricsFile  string `mapstructure:"metrics_file" yaml:"metrics_file" json:"metrics_file"`
}

// LocateConfig controls the locate command.
type LocateConfig struct {
	MaxDistanceM float64 `mapstructure:"max_distance_m" yaml:"max_distance_m" json:"max_distance_m"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Analysis: AnalysisConfig{
			PassabilityThreshold: island.DefaultThreshold,
		},
		Trace: TraceConfig{
			MaxPoints: boundary.DefaultMaxPoints,
			Workers:   runtime.NumCPU(),
		},
		Output: OutputConfig{
			Dir:          ".",
			Format:       string(output.FormatGeoJSON),
			LevelPrefix:  "level_",
			IslandPrefix: "island_",
			ReportFormat: string(report.FormatYAML),
		},
		Locate: LocateConfig{
			MaxDistanceM: locate.DefaultMaxDistance,
		},
	}
}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		return fmt.Errorf("invalid log format: %s (must be one of: %s)", c.LogFormat, strings.Join(validLogFormats, ", "))
	}

	if t := c.Analysis.PassabilityThreshold; t < 1 || t > stress.Levels {
		return fmt.Errorf("invalid analysis.passability_threshold: %d (must be between 1 and %d)", t, stress.Levels)
	}
	if c.Trace.MaxPoints <= 0 {
		return fmt.Errorf("invalid trace.max_points: %d (must be positive)", c.Trace.MaxPoints)
	}
	if c.Trace.Workers < 0 {
		return fmt.Errorf("invalid trace.workers: %d (must not be negative)", c.Trace.Workers)
	}
	if c.Trace.SimplifyTolerance < 0 {
		return fmt.Errorf("invalid trace.simplify_tolerance: %g (must not be negative)", c.Trace.SimplifyTolerance)
	}

	if c.Input.BBox != "" {
		if _, err := osmparser.ParseBBox(c.Input.BBox); err != nil {
			return fmt.Errorf("invalid input.bbox: %w", err)
		}
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	if _, err := output.ParseFormat(c.Output.Format); err != nil {
		return err
	}
	if _, err := report.ParseFormat(c.Output.ReportFormat); err != nil {
		return err
	}
	if c.Output.LevelPrefix == c.Output.IslandPrefix {
		return fmt.Errorf("output.level_prefix and output.island_prefix must differ (both %q)", c.Output.LevelPrefix)
	}

	if c.Locate.MaxDistanceM <= 0 {
		return fmt.Errorf("invalid locate.max_distance_m: %g (must be positive)", c.Locate.MaxDistanceM)
	}
	return nil
}

// SlogLevel maps LogLevel and Verbose onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// BBox parses Input.BBox. The zero BBox keeps every way.
func (c *Config) BBox() (osmparser.BBox, error) {
	if c.Input.BBox == "" {
		return osmparser.BBox{}, nil
	}
	return osmparser.ParseBBox(c.Input.BBox)
}

// SegmentOptions returns the segmenter options.
func (c *Config) SegmentOptions() island.Options {
	return island.Options{
		Threshold: c.Analysis.PassabilityThreshold,
		Verify:    c.Analysis.Verify,
	}
}

// BatchOptions returns the boundary tracer options.
func (c *Config) BatchOptions() boundary.BatchOptions {
	return boundary.BatchOptions{
		Options:           boundary.Options{MaxPoints: c.Trace.MaxPoints},
		Workers:           c.Trace.Workers,
		SimplifyTolerance: c.Trace.SimplifyTolerance,
	}
}
