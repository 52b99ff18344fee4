package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "CSPROJSYNC_"

	// LocalFileName is the per-directory configuration file.
	LocalFileName = ".csprojsync.yaml"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// sections are the top-level keys holding nested fields. Environment variables for
// them split on the first underscore; anything else maps to a top-level key.
var sections = []string{"watch", "log", "metrics", "tracing"}

// DefaultConfigLocations returns the configuration files searched when no explicit
// path is given, in precedence order.
func DefaultConfigLocations() []string {
	var locations []string

	if cwd, err := os.Getwd(); err == nil {
		locations = append(locations, filepath.Join(cwd, LocalFileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".config", "csprojsync", "config.yaml"))
	}

	return locations
}

// FindConfigFile returns the first existing file of DefaultConfigLocations, or "".
func FindConfigFile() string {
	for _, loc := range DefaultConfigLocations() {
		if info, err := os.Stat(loc); err == nil && info.Mode().IsRegular() {
			return loc
		}
	}
	return ""
}

// Load loads configuration from YAML, then overrides it with environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (CSPROJSYNC_WATCH_DEBOUNCE, CSPROJSYNC_LOG_LEVEL, ...)
//  2. The YAML file at path, or the first of DefaultConfigLocations when path is empty
//  3. Built-in defaults
//
// An explicit path must exist; the default locations are optional.
func Load(path string) (*Config, string, error) {
	k := koanf.New(".")

	if path == "" {
		path = FindConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, "", fmt.Errorf("config file %s: %w", path, err)
	}

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, "", err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, path, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("config file %s: %w", path, fs.ErrInvalid)
	}
	if info.Size() > maxConfigFileSize {
		return nil, errors.New("config file too large (max 1MB)")
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// envKey maps an environment variable to a config key:
//
//	CSPROJSYNC_WATCH_DEBOUNCE        -> watch.debounce
//	CSPROJSYNC_TRACING_SAMPLING_RATE -> tracing.sampling_rate
//	CSPROJSYNC_PROJECT_EXTENSIONS    -> project_extensions
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range sections {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}
