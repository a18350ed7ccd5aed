// Package config loads run settings for the vislayers tools.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/bibin-skaria/vislayers/internal/errors"
)

// Log formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Environment overrides
const (
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"
)

// Config holds all run settings.
type Config struct {
	Log         LogConfig         `yaml:"log"`
	Propagation PropagationConfig `yaml:"propagation"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PropagationConfig tunes propagation passes.
type PropagationConfig struct {
	// MaxVisits caps node visits per pass; 0 disables the cap.
	MaxVisits int `yaml:"max_visits"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: FormatText,
		},
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := ReadSource(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return Config{}, errors.New().
				Category(errors.CategoryConfiguration).
				Operation("load").
				Messagef("cannot parse %s", path).
				Cause(err).
				Build()
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides log settings from LOG_LEVEL and LOG_FORMAT.
func (c *Config) ApplyEnv() {
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv(EnvLogFormat); format != "" {
		c.Log.Format = format
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	collector := errors.NewCollector()

	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		collector.Add(errors.New().
			Category(errors.CategoryConfiguration).
			Operation("validate").
			Messagef("unknown log level %q", c.Log.Level).
			Build())
	}

	switch c.Log.Format {
	case FormatText, FormatJSON:
	default:
		collector.Add(errors.New().
			Category(errors.CategoryConfiguration).
			Operation("validate").
			Messagef("unknown log format %q", c.Log.Format).
			Suggestion("use text or json").
			Build())
	}

	if c.Propagation.MaxVisits < 0 {
		collector.Add(errors.New().
			Category(errors.CategoryConfiguration).
			Operation("validate").
			Messagef("max_visits must not be negative, got %d", c.Propagation.MaxVisits).
			Build())
	}

	return collector.Err()
}
