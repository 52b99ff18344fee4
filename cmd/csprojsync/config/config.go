// Package config loads csprojsync settings from YAML files and CSPROJSYNC_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/willibrandon/csprojsync/manifest"
	"github.com/willibrandon/csprojsync/observability"
	"github.com/willibrandon/csprojsync/watch"
)

// Config holds the complete csprojsync configuration.
type Config struct {
	// ProjectExtensions are the standalone project extensions searched for when no
	// shared-items manifest owns a file.
	ProjectExtensions []string `koanf:"project_extensions"`

	// Actions maps file extensions to build actions, on top of the built-in rules.
	Actions map[string]string `koanf:"actions"`

	Watch   WatchConfig   `koanf:"watch"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
	Tracing TracingConfig `koanf:"tracing"`
}

// WatchConfig holds filesystem watcher configuration.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
	Ignore   []string      `koanf:"ignore"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `koanf:"level"`
}

// MetricsConfig holds the Prometheus endpoint configuration. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// TracingConfig holds OpenTelemetry configuration.
type TracingConfig struct {
	Exporter     string  `koanf:"exporter"`
	Endpoint     string  `koanf:"endpoint"`
	SamplingRate float64 `koanf:"sampling_rate"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if len(cfg.ProjectExtensions) == 0 {
		cfg.ProjectExtensions = []string{manifest.ProjectExt}
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = watch.DefaultDebounce
	}
	if cfg.Watch.Ignore == nil {
		cfg.Watch.Ignore = append([]string(nil), watch.DefaultIgnore...)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	if cfg.Tracing.Exporter == "" {
		cfg.Tracing.Exporter = observability.ExporterNone
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = "localhost:4317"
	}
	if cfg.Tracing.SamplingRate == 0 {
		cfg.Tracing.SamplingRate = 1.0
	}
}

// Validate checks the configuration for values the commands cannot use.
func (c *Config) Validate() error {
	var errs []error

	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce))
	}
	if _, err := observability.ParseLogLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Tracing.Exporter {
	case observability.ExporterNone, observability.ExporterStdout, observability.ExporterOTLP:
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter must be none, stdout or otlp, got %q", c.Tracing.Exporter))
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		errs = append(errs, fmt.Errorf("tracing.sampling_rate must be between 0 and 1, got %v", c.Tracing.SamplingRate))
	}
	if _, err := c.ActionRules(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ActionRules returns the built-in extension rules overridden by Actions. Extensions
// are matched case-insensitively and may be given with or without the leading dot.
func (c *Config) ActionRules() (map[string]manifest.BuildAction, error) {
	rules := manifest.DefaultActionRules()
	for ext, name := range c.Actions {
		action, err := manifest.ParseBuildAction(name)
		if err != nil {
			return nil, fmt.Errorf("actions[%s]: %w", ext, err)
		}
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		rules[ext] = action
	}
	return rules, nil
}

// TracerConfig converts the tracing section for observability.SetupTracing.
func (c *Config) TracerConfig(version string) observability.TracerConfig {
	tc := observability.DefaultTracerConfig()
	tc.ServiceVersion = version
	tc.Exporter = c.Tracing.Exporter
	tc.Endpoint = c.Tracing.Endpoint
	tc.SamplingRate = c.Tracing.SamplingRate
	return tc
}
