package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/willibrandon/csprojsync/cmd/csprojsync/output"
)

type removeOptions struct {
	manifest string
}

// NewRemoveCommand creates the remove command
func NewRemoveCommand(console *output.Console) *cobra.Command {
	opts := &removeOptions{}

	cmd := &cobra.Command{
		Use:   "remove <path>...",
		Short: "Unregister files or directories from their manifest",
		Long: `Unregister files from their manifest.

A directory, including one that has already been deleted, unregisters every
item beneath it. Paths that are not registered are ignored.

Examples:
  csprojsync remove Models/User.cs
  csprojsync remove Views/Legacy`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd.Context(), cmd, console, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "Manifest to edit instead of the one located for each path")

	return cmd
}

func runRemove(ctx context.Context, cmd *cobra.Command, console *output.Console, opts *removeOptions, paths []string) error {
	if err := checkManifestFlag(opts.manifest); err != nil {
		return err
	}

	s, err := loadServices(ctx, cmd, console)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		proj, ok := s.resolveManifest(ctx, opts.manifest, abs)
		if !ok {
			console.Info("No manifest owns %s", p)
			continue
		}
		if err := s.editor.Remove(ctx, proj, abs); err != nil {
			return fmt.Errorf("manifest update failed, %s may be inconsistent: %w", proj, err)
		}
		console.Detail("Unregistered %s from %s", p, proj)
	}
	return nil
}
