package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/willibrandon/csprojsync/cmd/csprojsync/output"
)

var rootCmd = &cobra.Command{
	Use:   "csprojsync",
	Short: "Keep MSBuild item manifests in sync with the filesystem",
	Long: `csprojsync registers, unregisters and renames file items in .csproj and
.projitems manifests. It can be run once per change or left watching a directory
tree, applying creations, deletions and moves as they happen.

Manifests are located by searching upward from a file: the nearest .projitems
shared-items manifest wins, otherwise the nearest project file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return applyVerbosity(cmd)
	},
	Run: func(cmd *cobra.Command, args []string) {
		// Show help when no command is provided
		_ = cmd.Help()
	},
}

// Console is the global console for CLI commands
var Console *output.Console

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	Console = output.DefaultConsole()

	rootCmd.PersistentFlags().String("config", "", "Configuration file to use (default: ./.csprojsync.yaml, then ~/.config/csprojsync/config.yaml)")
	rootCmd.PersistentFlags().StringP("verbosity", "v", "normal", "Display verbosity (quiet, normal, detailed, diagnostic)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
}

func applyVerbosity(cmd *cobra.Command) error {
	if s, err := cmd.Flags().GetString("verbosity"); err == nil {
		v, err := output.ParseVerbosity(s)
		if err != nil {
			return err
		}
		Console.SetVerbosity(v)
	}
	if noColor, err := cmd.Flags().GetBool("no-color"); err == nil && noColor {
		Console.SetColors(false)
	}
	return nil
}

// SetupVersion configures version information after variables are set
func SetupVersion() {
	rootCmd.SetVersionTemplate(GetFullVersion() + "\n")
	rootCmd.Version = GetVersion()
}

// AddCommand adds a command to the root command
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}
