// Package console is the downstream side of the launcher: it receives the
// resolved credential, opens the store with it, and owns the store from then
// on. The record-editing menus live behind this interface; the Summary
// console shown here reports what the store holds.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/ghostwipe/ghostwipe/internal/config"
	"github.com/ghostwipe/ghostwipe/internal/credential"
	"github.com/ghostwipe/ghostwipe/internal/fault"
	"github.com/ghostwipe/ghostwipe/internal/prompt"
	"github.com/ghostwipe/ghostwipe/internal/vault"
)

// Console takes over the store once the lifecycle has resolved a credential.
type Console interface {
	Run(ctx context.Context, cred credential.Credential) error
}

// Summary opens the store, prints a per-table inventory, and waits for the
// operator to quit.
type Summary struct {
	cfg      config.Config
	prompter prompt.Prompter
	out      io.Writer
	logger   *slog.Logger
}

var _ Console = (*Summary)(nil)

// NewSummary creates a Summary console.
func NewSummary(cfg config.Config, p prompt.Prompter, out io.Writer, logger *slog.Logger) *Summary {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Summary{cfg: cfg, prompter: p, out: out, logger: logger}
}

// Run opens the store with cred. A credential that does not open the store
// is an error; the store is left untouched.
func (s *Summary) Run(ctx context.Context, cred credential.Credential) error {
	path := s.cfg.StorePath()
	opts := vault.Options{KDFIter: s.cfg.KDFIter, PageSize: s.cfg.CipherPageSize}

	st, err := vault.Open(ctx, path, cred, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			s.logger.Error("error closing store", "error", cerr)
		}
	}()

	// Only a store that already carries GHOSTWIPE tables gets the missing
	// ones added; a foreign database is never written to.
	tables, err := st.Tables(ctx)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(tables, vault.IsSchemaTable) {
		return fault.Configuration("open", path, "not a GHOSTWIPE database")
	}
	if err := vault.LoadSchema(ctx, st.Bun()); err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	s.logger.Info("store opened", "path", path, "encrypted", !cred.IsEmpty())

	counts, err := st.Inventory(ctx)
	if err != nil {
		return fmt.Errorf("inventory: %w", err)
	}
	if err := writeInventory(s.out, cred.IsEmpty(), counts); err != nil {
		return err
	}

	for {
		answer, err := s.prompter.Line(ctx, "Enter q to quit: ")
		if errors.Is(err, prompt.ErrInterrupted) || errors.Is(err, prompt.ErrClosed) {
			break
		}
		if err != nil {
			return err
		}
		if strings.EqualFold(answer, "q") {
			break
		}
	}
	fmt.Fprintln(s.out, "Closing GHOSTWIPE.")
	return nil
}

func writeInventory(w io.Writer, plain bool, counts []vault.TableCount) error {
	mode := "encrypted"
	if plain {
		mode = "unencrypted"
	}
	fmt.Fprintf(w, "Database opened (%s).\n", mode)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tROWS")
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%d\n", c.Table, c.Rows)
	}
	return tw.Flush()
}
