package commands

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/willibrandon/csprojsync/cmd/csprojsync/output"
	"github.com/willibrandon/csprojsync/manifest"
)

// NewLocateCommand creates the locate command
func NewLocateCommand(console *output.Console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locate <path>",
		Short: "Show the manifest that owns a file",
		Long: `Search upward from a file for the manifest that owns it.

The nearest .projitems shared-items manifest wins. Only when no ancestor holds
one is the nearest project file (.csproj by default) used.

Examples:
  csprojsync locate Views/MainPage.xaml
  csprojsync locate --verbosity detailed src/App/Models/User.cs`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocate(cmd.Context(), cmd, console, args[0])
		},
	}

	return cmd
}

func runLocate(ctx context.Context, cmd *cobra.Command, console *output.Console, path string) error {
	s, err := loadServices(ctx, cmd, console)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	proj, ok := s.locator.Locate(ctx, path)
	if !ok {
		console.Info("No manifest owns %s", path)
		return nil
	}

	console.Println(proj)
	console.Detail("Kind: %s", manifest.KindOf(proj))
	if abs, err := filepath.Abs(path); err == nil {
		console.Detail("Include: %s", manifest.NormalizePath(proj, abs))
	}
	return nil
}
