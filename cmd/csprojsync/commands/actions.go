package commands

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/willibrandon/csprojsync/cmd/csprojsync/output"
	"github.com/willibrandon/csprojsync/manifest"
)

type actionsOptions struct {
	all   bool
	rules bool
}

// NewActionsCommand creates the actions command
func NewActionsCommand(console *output.Console) *cobra.Command {
	opts := &actionsOptions{}

	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List build actions",
		Long: `List the build actions files can be registered under.

Folder is only listed with --all since it is assigned to directories
automatically. --rules prints the extension rules used when no action is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActions(cmd, console, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.all, "all", false, "Include Folder")
	cmd.Flags().BoolVar(&opts.rules, "rules", false, "Print the extension rules instead")

	return cmd
}

func runActions(cmd *cobra.Command, console *output.Console, opts *actionsOptions) error {
	if opts.rules {
		s, err := loadServices(cmd.Context(), cmd, console)
		if err != nil {
			return err
		}
		defer s.close(cmd.Context())

		rules, err := s.cfg.ActionRules()
		if err != nil {
			return err
		}
		exts := make([]string, 0, len(rules))
		for ext := range rules {
			exts = append(exts, ext)
		}
		sort.Strings(exts)
		for _, ext := range exts {
			console.Printf("%-8s %s\n", ext, console.Action(rules[ext]))
		}
		return nil
	}

	actions := manifest.SelectableBuildActions()
	if opts.all {
		actions = manifest.AllBuildActions()
	}
	for _, a := range actions {
		console.Println(console.Action(a))
	}
	return nil
}
