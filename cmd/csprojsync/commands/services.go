package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/willibrandon/csprojsync/cmd/csprojsync/cli"
	"github.com/willibrandon/csprojsync/cmd/csprojsync/config"
	"github.com/willibrandon/csprojsync/cmd/csprojsync/output"
	"github.com/willibrandon/csprojsync/manifest"
	"github.com/willibrandon/csprojsync/observability"
)

// services bundles what every manifest command needs, built from configuration.
type services struct {
	cfg     *config.Config
	logger  observability.Logger
	locator *manifest.Locator
	editor  *manifest.Editor
	tracer  *sdktrace.TracerProvider
}

// loadServices loads configuration (honoring --config when the command has it) and
// builds the logger, locator and editor. Tracing is set up unless disabled; callers
// must call close.
func loadServices(ctx context.Context, cmd *cobra.Command, console *output.Console) (*services, error) {
	cfg, path, err := config.Load(flagString(cmd, "config"))
	if err != nil {
		return nil, err
	}
	if path != "" {
		console.Debug("Using configuration %s", path)
	}
	return newServices(ctx, cmd, cfg)
}

func newServices(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*services, error) {
	level, err := observability.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger(cmd.ErrOrStderr(), level)

	s := &services{
		cfg:    cfg,
		logger: logger,
		locator: manifest.NewLocator(
			manifest.WithLogger(logger),
			manifest.WithProjectExtensions(cfg.ProjectExtensions...),
		),
		editor: manifest.NewEditor(manifest.WithLogger(logger)),
	}

	if cfg.Tracing.Exporter != observability.ExporterNone {
		tc := cfg.TracerConfig(cli.GetVersion())
		tc.Writer = cmd.ErrOrStderr()
		tp, err := observability.SetupTracing(ctx, tc)
		if err != nil {
			return nil, err
		}
		s.tracer = tp
	}
	return s, nil
}

func (s *services) close(ctx context.Context) {
	if s.tracer == nil {
		return
	}
	if err := observability.ShutdownTracing(ctx, s.tracer); err != nil {
		s.logger.Warn("Tracing shutdown failed: {Error}", err)
	}
}

// resolveManifest returns the explicit manifest when given, otherwise the manifest
// owning path.
func (s *services) resolveManifest(ctx context.Context, explicit, path string) (string, bool) {
	if explicit != "" {
		if abs, err := filepath.Abs(explicit); err == nil {
			return abs, true
		}
		return explicit, true
	}
	return s.locator.Locate(ctx, path)
}

// flagString returns the value of a local or inherited flag, or "" when the command
// does not define it.
func flagString(cmd *cobra.Command, name string) string {
	f := cmd.Flags().Lookup(name)
	if f == nil {
		f = cmd.InheritedFlags().Lookup(name)
	}
	if f == nil {
		return ""
	}
	return f.Value.String()
}

// checkManifestFlag verifies that a manifest given on the command line exists. Located
// manifests need no check.
func checkManifestFlag(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("manifest %s: %w", path, err)
	}
	return nil
}
