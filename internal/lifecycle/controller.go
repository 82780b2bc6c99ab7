// Package lifecycle decides how the store is opened before the console gets
// it. It detects the store's encryption state and walks the operator through
// first-run setup, encrypting or replacing an unencrypted store, or
// unlocking an encrypted one. Its result is the credential the console uses.
//
// Operator-facing messages go to the controller's output writer; log records
// go to its logger, tagged with a per-run id.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"github.com/ghostwipe/ghostwipe/internal/backup"
	"github.com/ghostwipe/ghostwipe/internal/config"
	"github.com/ghostwipe/ghostwipe/internal/credential"
	"github.com/ghostwipe/ghostwipe/internal/fault"
	"github.com/ghostwipe/ghostwipe/internal/prompt"
	"github.com/ghostwipe/ghostwipe/internal/vault"
)

// ErrQuit is returned when the operator closes the launcher from the menu.
// It is a graceful exit, not a failure.
var ErrQuit = errors.New("launcher closed by operator")

var (
	okFmt   = color.New(color.FgGreen).SprintFunc()
	warnFmt = color.New(color.FgYellow).SprintFunc()
	errFmt  = color.New(color.FgRed, color.Bold).SprintFunc()
)

// Controller runs the store lifecycle.
type Controller struct {
	cfg      config.Config
	opts     vault.Options
	prompter prompt.Prompter
	backups  *backup.Manager
	out      io.Writer
	logger   *slog.Logger
	runIDs   RunIDGenerator
	now      func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock used to date backups.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithRunIDs sets the run id generator. Default: UUIDv7Generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(c *Controller) {
		c.runIDs = g
	}
}

// New creates a Controller. Prompts are read from p and messages written to
// out. A nil logger discards records.
func New(cfg config.Config, p prompt.Prompter, out io.Writer, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Controller{
		cfg:      cfg,
		opts:     vault.Options{KDFIter: cfg.KDFIter, PageSize: cfg.CipherPageSize},
		prompter: p,
		out:      out,
		logger:   logger,
		runIDs:   UUIDv7Generator{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.backups = backup.NewManager(p, c.now, c.logger)
	return c
}

// Resolve detects the store state, runs the matching flow, and returns the
// credential the store now opens with (empty for an unencrypted store).
// ErrQuit means the operator chose to close the launcher.
func (c *Controller) Resolve(ctx context.Context) (credential.Credential, error) {
	log := c.logger.With("run_id", c.runIDs.Generate())
	path := c.cfg.StorePath()

	d, err := vault.Detect(ctx, path)
	if err != nil {
		return credential.Empty(), err
	}
	log.Info("store detected", "path", path, "state", d.State.String(), "cause", string(d.Cause))
	if d.Detail != "" {
		log.Debug("detector detail", "detail", d.Detail)
	}

	switch d.State {
	case vault.Absent:
		return c.bootstrap(ctx, log)
	case vault.Unencrypted:
		c.println("Existing database is unencrypted.")
		return c.unencryptedMenu(ctx, log)
	default:
		cred, err := c.readCredential(ctx, "Enter database password: ")
		if err != nil {
			return credential.Empty(), err
		}
		log.Debug("credential collected for encrypted store", "credential", cred)
		return cred, nil
	}
}

// secretField reads one secret. An interrupt leaves it unset; a cancelled
// context ends the flow with ctx.Err().
func (c *Controller) secretField(ctx context.Context, label string) (string, error) {
	secret, _, err := prompt.SecretField(ctx, c.prompter, label)
	if err != nil {
		return "", err
	}
	return secret, ctx.Err()
}

// confirm is prompt.Confirm that ends the flow with ctx.Err() once the
// context is cancelled, instead of taking the default.
func (c *Controller) confirm(ctx context.Context, label string, def bool) (bool, error) {
	ok, err := prompt.Confirm(ctx, c.prompter, label, def)
	if err != nil {
		return false, err
	}
	return ok, ctx.Err()
}

// readCredential reads one secret. An interrupt leaves it unset (empty).
func (c *Controller) readCredential(ctx context.Context, label string) (credential.Credential, error) {
	secret, err := c.secretField(ctx, label)
	if err != nil {
		return credential.Empty(), err
	}
	cred, err := credential.New(secret)
	if err != nil {
		return credential.Empty(), fault.Wrap(fault.KindConfiguration, "unlock", c.cfg.StorePath(), err)
	}
	return cred, nil
}

// pairResult is the outcome of one attempt at entering a credential twice.
type pairResult int

const (
	pairOK pairResult = iota
	pairMismatch
	pairEmpty
	pairInvalid
)

// readPair reads a credential and its confirmation. Interrupted fields are
// left unset, which compares as empty. A cancelled context is an error.
func (c *Controller) readPair(ctx context.Context, label string) (credential.Credential, pairResult, error) {
	first, err := c.secretField(ctx, label)
	if err != nil {
		return credential.Empty(), pairOK, err
	}
	second, err := c.secretField(ctx, "Confirm password: ")
	if err != nil {
		return credential.Empty(), pairOK, err
	}

	a, err := credential.New(first)
	if err != nil {
		return credential.Empty(), pairInvalid, nil
	}
	b, err := credential.New(second)
	if err != nil {
		return credential.Empty(), pairInvalid, nil
	}
	switch {
	case !a.Equal(b):
		return credential.Empty(), pairMismatch, nil
	case a.IsEmpty():
		return credential.Empty(), pairEmpty, nil
	}
	return a, pairOK, nil
}

// collectPair asks for a confirmed, non-empty credential until the operator
// enters one or declines to retry (ok=false).
func (c *Controller) collectPair(ctx context.Context, label string) (credential.Credential, bool, error) {
	for {
		cred, res, err := c.readPair(ctx, label)
		if err != nil {
			return credential.Empty(), false, err
		}
		switch res {
		case pairOK:
			return cred, true, nil
		case pairMismatch:
			c.println(warnFmt("Passwords do not match."))
		case pairEmpty:
			c.println(warnFmt("Password must not be empty."))
		case pairInvalid:
			c.println(warnFmt("Password contains an invalid character."))
		}

		retry, err := c.confirm(ctx, "Try again? (Y/n): ", true)
		if err != nil {
			return credential.Empty(), false, err
		}
		if !retry {
			return credential.Empty(), false, nil
		}
	}
}

func (c *Controller) println(a ...any) {
	fmt.Fprintln(c.out, a...)
}

func (c *Controller) printf(format string, a ...any) {
	fmt.Fprintf(c.out, format, a...)
}

// absPath returns path made absolute for operator messages.
func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
