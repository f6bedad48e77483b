package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/psantana5/calltiming/pkg/timing"
	"github.com/psantana5/calltiming/pkg/tracing"
)

// EnvPrefix prefixes environment overrides, e.g. CALLTIMING_LOG_LEVEL
const EnvPrefix = "CALLTIMING"

// Config is the file and environment configuration of the calltiming tools
type Config struct {
	LogLevel        string         `mapstructure:"log_level" yaml:"log_level"`
	LogFormat       string         `mapstructure:"log_format" yaml:"log_format"`
	Output          string         `mapstructure:"output" yaml:"output"`
	DefaultCategory string         `mapstructure:"default_category" yaml:"default_category"`
	Throttle        ThrottleConfig `mapstructure:"throttle" yaml:"throttle"`
	TraceLog        TraceLogConfig `mapstructure:"trace_log" yaml:"trace_log"`
	Metrics         MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	Tracing         tracing.Config `mapstructure:"tracing" yaml:"tracing"`
	Sites           []SiteSpec     `mapstructure:"sites" yaml:"sites"`
}

// ThrottleConfig limits emitted lines per category; zero disables
type ThrottleConfig struct {
	PerSecond float64 `mapstructure:"per_second" yaml:"per_second"`
	Burst     int     `mapstructure:"burst" yaml:"burst"`
}

// TraceLogConfig controls size rotation of the trace log used by the
// "log" output
type TraceLogConfig struct {
	MaxBytes      int64         `mapstructure:"max_bytes" yaml:"max_bytes"`
	CheckInterval time.Duration `mapstructure:"check_interval" yaml:"check_interval"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Address string `mapstructure:"address" yaml:"address"`
}

// SiteSpec overrides the options of one call site, matched by display
// name or identity key. Durations are in seconds.
type SiteSpec struct {
	Name            string   `mapstructure:"name" yaml:"name"`
	Threshold       *float64 `mapstructure:"threshold" yaml:"threshold,omitempty"`
	ReportFrequency *float64 `mapstructure:"report_frequency" yaml:"report_frequency,omitempty"`
	Cumulative      bool     `mapstructure:"cumulative" yaml:"cumulative,omitempty"`
	Category        string   `mapstructure:"category" yaml:"category,omitempty"`
	PrefixTypeName  bool     `mapstructure:"prefix_type_name" yaml:"prefix_type_name,omitempty"`
	TrackDepth      *bool    `mapstructure:"track_depth" yaml:"track_depth,omitempty"`
}

// ConfigError describes an invalid configuration value
type ConfigError struct {
	Key     string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Key, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// SetDefaults installs the default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("output", "stderr")
	v.SetDefault("default_category", "")
	v.SetDefault("throttle.per_second", 0)
	v.SetDefault("throttle.burst", 10)
	v.SetDefault("trace_log.max_bytes", 100<<20)
	v.SetDefault("trace_log.check_interval", time.Minute)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", ":9464")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "calltiming")
	v.SetDefault("tracing.environment", "development")
	v.SetDefault("tracing.otlp_endpoint", "localhost:4318")
}

// Load reads the configuration. With an empty path it looks for
// config.yaml in $HOME/.calltiming and the working directory, and a
// missing file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".calltiming"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	switch c.Output {
	case "stdout", "stderr", "log", "none":
	default:
		return &ConfigError{Key: "output", Message: fmt.Sprintf("unknown output %q", c.Output)}
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return &ConfigError{Key: "log_format", Message: fmt.Sprintf("unknown format %q", c.LogFormat)}
	}
	if c.Output == "log" && c.TraceLog.MaxBytes > 0 && c.TraceLog.CheckInterval <= 0 {
		return &ConfigError{Key: "trace_log.check_interval", Message: "must be positive when rotation is enabled"}
	}
	if c.Throttle.PerSecond < 0 {
		return &ConfigError{Key: "throttle.per_second", Message: "must not be negative"}
	}
	if c.Throttle.PerSecond > 0 && c.Throttle.Burst < 1 {
		return &ConfigError{Key: "throttle.burst", Message: "must be at least 1 when throttling"}
	}

	seen := make(map[string]bool, len(c.Sites))
	for i, s := range c.Sites {
		key := fmt.Sprintf("sites[%d]", i)
		if s.Name == "" {
			return &ConfigError{Key: key, Message: "name is required"}
		}
		if seen[s.Name] {
			return &ConfigError{Key: key, Message: fmt.Sprintf("duplicate site %q", s.Name)}
		}
		seen[s.Name] = true
		if s.Threshold != nil && *s.Threshold < 0 {
			return &ConfigError{Key: key + ".threshold", Message: "must not be negative"}
		}
		if s.ReportFrequency != nil && *s.ReportFrequency < 0 {
			return &ConfigError{Key: key + ".report_frequency", Message: "must not be negative"}
		}
	}
	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Options converts the site entry into registration options
func (s SiteSpec) Options() []timing.Option {
	var opts []timing.Option
	if s.Category != "" {
		opts = append(opts, timing.WithCategory(s.Category))
	}
	if s.Threshold != nil {
		opts = append(opts, timing.WithThreshold(seconds(*s.Threshold)))
	}
	if s.ReportFrequency != nil {
		opts = append(opts, timing.WithReportFrequency(seconds(*s.ReportFrequency)))
	}
	if s.Cumulative {
		opts = append(opts, timing.Cumulative())
	}
	if s.PrefixTypeName {
		opts = append(opts, timing.WithTypePrefix())
	}
	if s.TrackDepth != nil {
		opts = append(opts, timing.WithDepthTracking(*s.TrackDepth))
	}
	return opts
}

// Overrides returns the per-site options keyed by site name, ready for
// timing.WithOverrides.
func (c *Config) Overrides() map[string][]timing.Option {
	out := make(map[string][]timing.Option, len(c.Sites))
	for _, s := range c.Sites {
		out[s.Name] = s.Options()
	}
	return out
}
