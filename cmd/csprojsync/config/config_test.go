package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/csprojsync/manifest"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// isolate points the default locations at empty directories.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, []string{".csproj"}, cfg.ProjectExtensions)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Contains(t, cfg.Watch.Ignore, "obj")
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "none", cfg.Tracing.Exporter)
	assert.Equal(t, 1.0, cfg.Tracing.SamplingRate)
	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	isolate(t)

	cfg, path, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
project_extensions: [".csproj", ".vbproj"]
actions:
  png: Content
  .VB: compile
watch:
  debounce: 250ms
  ignore: [bin, obj, packages]
log:
  level: debug
metrics:
  addr: ":9464"
tracing:
  exporter: stdout
  sampling_rate: 0.5
`)

	cfg, used, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	assert.Equal(t, []string{".csproj", ".vbproj"}, cfg.ProjectExtensions)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, []string{"bin", "obj", "packages"}, cfg.Watch.Ignore)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9464", cfg.Metrics.Addr)
	assert.Equal(t, "stdout", cfg.Tracing.Exporter)
	assert.Equal(t, 0.5, cfg.Tracing.SamplingRate)
	assert.Equal(t, "localhost:4317", cfg.Tracing.Endpoint)

	rules, err := cfg.ActionRules()
	require.NoError(t, err)
	assert.Equal(t, manifest.Content, rules[".png"])
	assert.Equal(t, manifest.Compile, rules[".vb"])
	assert.Equal(t, manifest.Page, rules[".xaml"])
}

func TestLoad_LocalFile(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(LocalFileName, []byte("log:\n  level: error\n"), 0o600))

	cfg, used, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, LocalFileName, filepath.Base(used))
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "watch:\n  debounce: 2s\nlog:\n  level: info\n")
	t.Setenv("CSPROJSYNC_WATCH_DEBOUNCE", "300ms")
	t.Setenv("CSPROJSYNC_LOG_LEVEL", "verbose")
	t.Setenv("CSPROJSYNC_TRACING_SAMPLING_RATE", "0.25")
	t.Setenv("CSPROJSYNC_PROJECT_EXTENSIONS", ".fsproj,.csproj")

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "verbose", cfg.Log.Level)
	assert.Equal(t, 0.25, cfg.Tracing.SamplingRate)
	assert.Equal(t, []string{".fsproj", ".csproj"}, cfg.ProjectExtensions)
}

func TestLoad_Errors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{name: "missing explicit file", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") }},
		{name: "directory", path: func(t *testing.T) string { return t.TempDir() }},
		{name: "malformed yaml", path: func(t *testing.T) string { return writeConfig(t, "watch: [unclosed") }},
		{name: "bad exporter", path: func(t *testing.T) string { return writeConfig(t, "tracing:\n  exporter: zipkin\n") }},
		{name: "bad sampling rate", path: func(t *testing.T) string { return writeConfig(t, "tracing:\n  sampling_rate: 2\n") }},
		{name: "bad log level", path: func(t *testing.T) string { return writeConfig(t, "log:\n  level: chatty\n") }},
		{name: "bad action", path: func(t *testing.T) string { return writeConfig(t, "actions:\n  png: Reference\n") }},
		{name: "negative debounce", path: func(t *testing.T) string { return writeConfig(t, "watch:\n  debounce: -1s\n") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load(tt.path(t))
			assert.Error(t, err)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "watch.debounce", envKey("CSPROJSYNC_WATCH_DEBOUNCE"))
	assert.Equal(t, "tracing.sampling_rate", envKey("CSPROJSYNC_TRACING_SAMPLING_RATE"))
	assert.Equal(t, "metrics.addr", envKey("CSPROJSYNC_METRICS_ADDR"))
	assert.Equal(t, "project_extensions", envKey("CSPROJSYNC_PROJECT_EXTENSIONS"))
}

func TestTracerConfig(t *testing.T) {
	cfg := Default()
	cfg.Tracing.Exporter = "otlp"
	cfg.Tracing.Endpoint = "collector:4317"

	tc := cfg.TracerConfig("1.2.3")
	assert.Equal(t, "csprojsync", tc.ServiceName)
	assert.Equal(t, "1.2.3", tc.ServiceVersion)
	assert.Equal(t, "otlp", tc.Exporter)
	assert.Equal(t, "collector:4317", tc.Endpoint)
}
