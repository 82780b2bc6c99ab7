package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/ghostwipe/ghostwipe/internal/console"
	"github.com/ghostwipe/ghostwipe/internal/lifecycle"
)

// NewLaunchCommand creates the launch command. Running ghostwipe with no
// subcommand does the same.
func NewLaunchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "launch",
		Short: "Unlock the store and open the console",
		Long: `Detect the state of the store and resolve how to open it.

A missing store starts first-time setup. An unencrypted store offers to
encrypt it or replace it with a new encrypted one. An encrypted store asks
for its password. The console then opens the store.

Example:
  ghostwipe launch
  ghostwipe launch --debug-log ./ghostwipe-debug.log`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd.Context(), rootOpts)
		},
	}
}

func runLaunch(ctx context.Context, opts *RootOptions) error {
	if opts.Config.Banner {
		printBanner(opts.env.Out)
	}

	cred, err := opts.controller().Resolve(ctx)
	if errors.Is(err, lifecycle.ErrQuit) {
		return nil
	}
	if err != nil {
		return WrapExitError(ExitFailure, "launcher stopped", err)
	}

	con := console.NewSummary(opts.Config, opts.prompter(), opts.env.Out, opts.Logger)
	if err := con.Run(ctx, cred); err != nil {
		return WrapExitError(ExitFailure, "failed to open database", err)
	}
	return nil
}
