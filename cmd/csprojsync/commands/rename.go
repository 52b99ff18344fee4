package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/willibrandon/csprojsync/cmd/csprojsync/output"
)

type renameOptions struct {
	manifest string
}

// NewRenameCommand creates the rename command
func NewRenameCommand(console *output.Console) *cobra.Command {
	opts := &renameOptions{}

	cmd := &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Move a registration to a new path",
		Long: `Move the registration of a file to its new path, keeping its build action
and metadata. Run it after the file itself has been moved. When the new path is
a directory, items registered beneath the old directory follow it.

Examples:
  csprojsync rename Models/User.cs Domain/User.cs
  csprojsync rename Views/Old Views/New`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRename(cmd.Context(), cmd, console, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "Manifest to edit instead of the one located for the old path")

	return cmd
}

func runRename(ctx context.Context, cmd *cobra.Command, console *output.Console, opts *renameOptions, oldPath, newPath string) error {
	if err := checkManifestFlag(opts.manifest); err != nil {
		return err
	}

	s, err := loadServices(ctx, cmd, console)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	oldAbs, err := filepath.Abs(oldPath)
	if err != nil {
		return err
	}
	newAbs, err := filepath.Abs(newPath)
	if err != nil {
		return err
	}

	proj, ok := s.resolveManifest(ctx, opts.manifest, oldAbs)
	if !ok {
		console.Info("No manifest owns %s", oldPath)
		return nil
	}
	if err := s.editor.Rename(ctx, proj, oldAbs, newAbs); err != nil {
		return fmt.Errorf("manifest update failed, %s may be inconsistent: %w", proj, err)
	}
	console.Detail("Renamed %s to %s in %s", oldPath, newPath, proj)
	return nil
}
