package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

// BackupResult is the result of the backup command.
type BackupResult struct {
	Path string `json:"path"`
}

func (r BackupResult) String() string {
	abs, err := filepath.Abs(r.Path)
	if err != nil {
		abs = r.Path
	}
	return fmt.Sprintf("Backed up database to %s", abs)
}

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Copy the store to a new dated backup",
		Long: `Copy the store to a new backup named <YYMMDD>.pii_data.db.bak.

An existing backup is never overwritten without asking. Declining keeps it
and shifts older backups to numbered slots.

Example:
  ghostwipe backup`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			reporter := rootOpts.reporter()
			path, err := rootOpts.controller().BackupNow(cmd.Context())
			if err != nil {
				return reporter.Fail("backup failed", err)
			}
			return reporter.Report(BackupResult{Path: path})
		},
	}
}
