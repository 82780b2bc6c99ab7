package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ghostwipe/ghostwipe/internal/backup"
	"github.com/ghostwipe/ghostwipe/internal/vault"
)

// StatusReport is the result of the status command.
type StatusReport struct {
	Path    string            `json:"path"`
	State   string            `json:"state"`
	Cause   vault.Cause       `json:"cause"`
	Tables  []string          `json:"tables,omitempty"`
	Detail  string            `json:"detail,omitempty"`
	Backups []backup.Artifact `json:"backups"`
}

// String renders the report for text output.
func (r StatusReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Database: %s\n", r.Path)
	fmt.Fprintf(&b, "State:    %s (%s)\n", r.State, r.Cause)
	if len(r.Backups) == 0 {
		b.WriteString("Backups:  none")
		return b.String()
	}

	fmt.Fprintf(&b, "Backups:  %d\n", len(r.Backups))
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  DATE\tNAME\tSIZE")
	for _, a := range r.Backups {
		fmt.Fprintf(tw, "  %s\t%s\t%d\n", a.Date, filepath.Base(a.Path), a.Size)
	}
	_ = tw.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the store's encryption state and its backups",
		Long: `Probe the store without a password and list its backups.

The probe never writes to the store.

Example:
  ghostwipe status
  ghostwipe status --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, rootOpts)
		},
	}
}

func runStatus(cmd *cobra.Command, opts *RootOptions) error {
	reporter := opts.reporter()
	path := opts.Config.StorePath()

	reporter.Note("Probing %s", path)
	d, err := vault.Detect(cmd.Context(), path)
	if err != nil {
		return reporter.Fail("failed to probe database", err)
	}

	artifacts, err := backup.List(path)
	if err != nil {
		return reporter.Fail("failed to list backups", err)
	}
	if artifacts == nil {
		artifacts = []backup.Artifact{}
	}

	return reporter.Report(StatusReport{
		Path:    path,
		State:   d.State.String(),
		Cause:   d.Cause,
		Tables:  d.Tables,
		Detail:  d.Detail,
		Backups: artifacts,
	})
}
