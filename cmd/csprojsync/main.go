package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/willibrandon/csprojsync/cmd/csprojsync/cli"
	"github.com/willibrandon/csprojsync/cmd/csprojsync/commands"
)

// Version information (set via ldflags during build)
var (
	version = "0.0.0-dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date
	cli.SetupVersion()

	cli.AddCommand(commands.NewVersionCommand(cli.Console))
	cli.AddCommand(commands.NewLocateCommand(cli.Console))
	cli.AddCommand(commands.NewQueryCommand(cli.Console))
	cli.AddCommand(commands.NewAddCommand(cli.Console))
	cli.AddCommand(commands.NewRemoveCommand(cli.Console))
	cli.AddCommand(commands.NewRenameCommand(cli.Console))
	cli.AddCommand(commands.NewActionsCommand(cli.Console))
	cli.AddCommand(commands.NewWatchCommand(cli.Console))

	// Cancel on interrupt so watch can apply pending events before exiting
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.Execute(ctx)
	if errors.Is(ctx.Err(), context.Canceled) && err == nil {
		stop()
		os.Exit(130) // 128 + SIGINT
	}
	if err != nil {
		// SilenceErrors is set on the root command
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
