package cli

import (
	"github.com/spf13/cobra"
)

// NewDevResetCommand creates the hidden dev-reset command.
//
// It replaces the store with a new unencrypted one without asking for a
// password. The old store is kept in a backup. It is hidden from help but
// not otherwise guarded.
func NewDevResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "dev-reset",
		Short:         "Replace the store with a new unencrypted one (development only)",
		Hidden:        true,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := rootOpts.controller().DevBypass(cmd.Context()); err != nil {
				return rootOpts.reporter().Fail("dev reset failed", err)
			}
			return nil
		},
	}
}
