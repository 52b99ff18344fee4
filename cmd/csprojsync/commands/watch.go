package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/willibrandon/csprojsync/cmd/csprojsync/config"
	"github.com/willibrandon/csprojsync/cmd/csprojsync/output"
	"github.com/willibrandon/csprojsync/observability"
	"github.com/willibrandon/csprojsync/watch"
)

type watchOptions struct {
	debounce      time.Duration
	metricsAddr   string
	traceExporter string
	traceEndpoint string
}

// NewWatchCommand creates the watch command
func NewWatchCommand(console *output.Console) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Keep manifests in sync while files change",
		Long: `Watch a directory tree (the current directory by default) and update the
manifests inside it as files are created, deleted and moved.

Events are collected until the tree has been quiet for the debounce period and
then applied as one batch, so a multi-file paste writes each manifest once.
New files get the build action of their extension rule; files without a rule
are left unregistered. Stop with Ctrl+C; pending events are applied first.

Examples:
  csprojsync watch
  csprojsync watch src --debounce 500ms
  csprojsync watch --metrics-addr :9464 --trace-exporter otlp`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return runWatch(cmd.Context(), cmd, console, opts, root)
		},
	}

	cmd.Flags().DurationVar(&opts.debounce, "debounce", 0, "Quiet period before a batch is applied (default from config, 1s)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9464")
	cmd.Flags().StringVar(&opts.traceExporter, "trace-exporter", "", "Trace exporter: none, stdout or otlp")
	cmd.Flags().StringVar(&opts.traceEndpoint, "trace-endpoint", "", "OTLP gRPC collector address")

	return cmd
}

// applyFlags overrides configuration with flags given on the command line.
func (o *watchOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("debounce") {
		cfg.Watch.Debounce = o.debounce
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Metrics.Addr = o.metricsAddr
	}
	if cmd.Flags().Changed("trace-exporter") {
		cfg.Tracing.Exporter = o.traceExporter
	}
	if cmd.Flags().Changed("trace-endpoint") {
		cfg.Tracing.Endpoint = o.traceEndpoint
	}
	return cfg.Validate()
}

func runWatch(ctx context.Context, cmd *cobra.Command, console *output.Console, opts *watchOptions, root string) error {
	cfg, _, err := config.Load(flagString(cmd, "config"))
	if err != nil {
		return err
	}
	if err := opts.applyFlags(cmd, cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	s, err := newServices(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer s.close(context.WithoutCancel(ctx))

	rules, err := cfg.ActionRules()
	if err != nil {
		return err
	}

	w, err := watch.New(root, s.locator, s.editor,
		watch.WithDebounce(cfg.Watch.Debounce),
		watch.WithIgnore(cfg.Watch.Ignore...),
		watch.WithActionRules(rules),
		watch.WithProjectExtensions(cfg.ProjectExtensions...),
		watch.WithLogger(s.logger),
	)
	if err != nil {
		return err
	}

	console.Info("Watching %s (Ctrl+C to stop)", w.Root())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Addr != "" {
		console.Detail("Serving metrics on %s/metrics", cfg.Metrics.Addr)
		g.Go(func() error {
			if err := observability.ServeMetrics(ctx, cfg.Metrics.Addr); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		// The metrics server stops with the watcher.
		defer cancel()
		return w.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	console.Detail("Stopped watching %s", w.Root())
	return nil
}
