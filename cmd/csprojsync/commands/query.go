package commands

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/willibrandon/csprojsync/cmd/csprojsync/output"
)

type queryOptions struct {
	manifest string
}

// NewQueryCommand creates the query command
func NewQueryCommand(console *output.Console) *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "query <path>",
		Short: "Show the build action a file is registered under",
		Long: `Print the build action a file is registered under in its manifest.

Examples:
  csprojsync query Views/MainPage.xaml
  csprojsync query --manifest Shared/Shared.projitems Shared/Strings.resw`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), cmd, console, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "Manifest to query instead of the one located for the path")

	return cmd
}

func runQuery(ctx context.Context, cmd *cobra.Command, console *output.Console, opts *queryOptions, path string) error {
	if err := checkManifestFlag(opts.manifest); err != nil {
		return err
	}

	s, err := loadServices(ctx, cmd, console)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	proj, ok := s.resolveManifest(ctx, opts.manifest, abs)
	if !ok {
		console.Info("No manifest owns %s", path)
		return nil
	}

	action, ok := s.editor.Query(ctx, proj, abs)
	if !ok {
		console.Info("%s is not registered in %s", path, proj)
		return nil
	}

	console.Println(console.Action(action))
	return nil
}
