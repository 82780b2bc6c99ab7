package cli

import (
	"github.com/spf13/cobra"
)

// NewRekeyCommand creates the rekey command.
func NewRekeyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rekey",
		Short: "Change the password of an encrypted store",
		Long: `Re-encrypt the store under a new password.

The current password is checked first. The store is copied to a
<YYMMDD>.pii_data.db.pre_rekey.bak backup before it is rewritten, and a
failed rewrite leaves the store as it was.

Example:
  ghostwipe rekey`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.controller().RotateKey(cmd.Context()); err != nil {
				return rootOpts.reporter().Fail("rekey failed", err)
			}
			return nil
		},
	}
}
