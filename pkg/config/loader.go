package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "ltsislands"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "LTS"
)

// Loader reads a Config through a viper instance.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a loader backed by v, or by a fresh viper instance
// when v is nil. Pass the instance command flags are bound to.
func NewLoader(v *viper.Viper) *Loader {
	if v == nil {
		v = viper.New()
	}
	return &Loader{v: v}
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load reads configuration from configFile, or searches the standard
// locations when configFile is empty. A missing file in the search
// locations is not an error.
func (l *Loader) Load(configFile string) (*Config, error) {
	l.setupEnvironmentVariables()
	l.setDefaults()

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// ConfigFileUsed returns the path of the config file read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}
	if configDir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		l.v.AddConfigPath(filepath.Join(configDir, ConfigFileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", ConfigFileName))
	}
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults registers every key so AutomaticEnv and Unmarshal see it.
func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("log_format", d.LogFormat)
	l.v.SetDefault("verbose", d.Verbose)

	l.v.SetDefault("analysis.passability_threshold", d.Analysis.PassabilityThreshold)
	l.v.SetDefault("analysis.verify", d.Analysis.Verify)
	l.v.SetDefault("analysis.strict", d.Analysis.Strict)

	l.v.SetDefault("trace.max_points", d.Trace.MaxPoints)
	l.v.SetDefault("trace.workers", d.Trace.Workers)
	l.v.SetDefault("trace.simplify_tolerance", d.Trace.SimplifyTolerance)

	l.v.SetDefault("input.bbox", d.Input.BBox)

	l.v.SetDefault("output.dir", d.Output.Dir)
	l.v.SetDefault("output.format", d.Output.Format)
	l.v.SetDefault("output.level_prefix", d.Output.LevelPrefix)
	l.v.SetDefault("output.island_prefix", d.Output.IslandPrefix)
	l.v.SetDefault("output.report_format", d.Output.ReportFormat)
	l.v.SetDefault("output.metrics_file", d.Output.MetricsFile)

	l.v.SetDefault("locate.max_distance_m", d.Locate.MaxDistanceM)
}
