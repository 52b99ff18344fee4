package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/willibrandon/csprojsync/cmd/csprojsync/output"
	"github.com/willibrandon/csprojsync/manifest"
)

type addOptions struct {
	action   string
	manifest string
}

// NewAddCommand creates the add command
func NewAddCommand(console *output.Console) *cobra.Command {
	opts := &addOptions{}

	cmd := &cobra.Command{
		Use:   "add <path>...",
		Short: "Register files in their manifest",
		Long: `Register one or more files under a build action.

Without --action the build action is picked from the file extension
(.cs: Compile, .xaml: Page, .resw: PRIResource, plus any configured actions);
directories are registered as Folder. Files already registered are moved to the
new build action. Paths are grouped so that each manifest is written once per
build action.

Examples:
  csprojsync add Models/User.cs Models/Role.cs
  csprojsync add --action Content Assets/logo.png
  csprojsync add --manifest Shared/Shared.projitems Shared/Strings.resw`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd.Context(), cmd, console, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.action, "action", "a", "", "Build action (Folder, Compile, Content, EmbeddedResource, PRIResource, Page, None)")
	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "Manifest to edit instead of the one located for each path")

	return cmd
}

type addBatch struct {
	manifest string
	action   manifest.BuildAction
}

func runAdd(ctx context.Context, cmd *cobra.Command, console *output.Console, opts *addOptions, paths []string) error {
	var explicit manifest.BuildAction
	if opts.action != "" {
		a, err := manifest.ParseBuildAction(opts.action)
		if err != nil {
			return err
		}
		explicit = a
	}

	if err := checkManifestFlag(opts.manifest); err != nil {
		return err
	}

	s, err := loadServices(ctx, cmd, console)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	rules, err := s.cfg.ActionRules()
	if err != nil {
		return err
	}

	var order []addBatch
	batches := make(map[addBatch][]string)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		if manifest.IsManifestFile(abs, s.cfg.ProjectExtensions...) {
			console.Warning("Skipping %s: project files cannot be registered as items", p)
			continue
		}

		action := explicit
		if action == "" {
			info, statErr := os.Stat(abs)
			a, ok := manifest.InferBuildAction(abs, statErr == nil && info.IsDir(), rules)
			if !ok {
				console.Warning("Skipping %s: no build action rule for this file type, use --action", p)
				continue
			}
			action = a
		}

		proj, ok := s.resolveManifest(ctx, opts.manifest, abs)
		if !ok {
			console.Info("No manifest owns %s", p)
			continue
		}

		b := addBatch{manifest: proj, action: action}
		if _, ok := batches[b]; !ok {
			order = append(order, b)
		}
		batches[b] = append(batches[b], abs)
	}

	for _, b := range order {
		if err := s.editor.Add(ctx, b.manifest, batches[b], b.action); err != nil {
			return fmt.Errorf("manifest update failed, %s may be inconsistent: %w", b.manifest, err)
		}
		console.Success("Registered %d item(s) as %s in %s", len(batches[b]), console.Action(b.action), b.manifest)
	}
	return nil
}
