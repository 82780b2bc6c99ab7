package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ghostwipe/ghostwipe/internal/config"
	"github.com/ghostwipe/ghostwipe/internal/credential"
	"github.com/ghostwipe/ghostwipe/internal/fault"
	"github.com/ghostwipe/ghostwipe/internal/lifecycle"
	"github.com/ghostwipe/ghostwipe/internal/prompt"
	"github.com/ghostwipe/ghostwipe/internal/testutil"
	"github.com/ghostwipe/ghostwipe/internal/vault"
)

// Error kinds reported for errors that carry no fault kind.
const (
	KindInputClosed = "INPUT_CLOSED"
	KindInterrupted = "INTERRUPTED"
	KindUnknown     = "UNKNOWN"
)

// Harness runs one scenario in its own data directory.
type Harness struct {
	cfg      config.Config
	opts     vault.Options
	prompter *testutil.ScriptedPrompter
	initial  []byte // store bytes before the run; nil when absent
	logger   *slog.Logger
}

// Run executes a scenario in workDir, which must be empty and private to
// this run, and returns the result.
//
// Execution flow:
// 1. Seed the store and any backups
// 2. Run the lifecycle operation with the scripted answers
// 3. Check the expected outcome
// 4. Evaluate assertions
func Run(ctx context.Context, scenario *Scenario, workDir string) (*Result, error) {
	cfg := config.Default()
	cfg.DataDir = filepath.Join(workDir, config.DefaultDataDir)
	cfg.KDFIter = vault.MinKDFIter

	h := &Harness{
		cfg:      cfg,
		opts:     vault.Options{KDFIter: cfg.KDFIter, PageSize: cfg.CipherPageSize},
		prompter: testutil.NewScriptedPrompter(answers(scenario.Answers)...),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	if err := h.seed(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to seed scenario: %w", err)
	}

	var out strings.Builder
	clock := testutil.NewFixedClock(scenario.clock())
	ctrl := lifecycle.New(cfg, testutil.NewTranscript(h.prompter, &out), &out, h.logger,
		lifecycle.WithClock(clock.Now),
		lifecycle.WithRunIDs(lifecycle.NewFixedGenerator(scenario.Name)))

	result := NewResult()
	result.Credential, result.Err = h.execute(ctx, ctrl, scenario.Run)
	result.Outcome, result.Kind = classify(scenario.Run, result.Err)
	result.Transcript = strings.ReplaceAll(out.String(), cfg.DataDir, "$DATA")

	checkExpect(result, scenario.Expect)

	actx := &AssertionContext{Ctx: ctx, Harness: h}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, ctrl *lifecycle.Controller, run string) (credential.Credential, error) {
	switch run {
	case RunRotateKey:
		return credential.Empty(), ctrl.RotateKey(ctx)
	case RunDevBypass:
		_, err := ctrl.DevBypass(ctx)
		return credential.Empty(), err
	case RunBackupNow:
		_, err := ctrl.BackupNow(ctx)
		return credential.Empty(), err
	default:
		return ctrl.Resolve(ctx)
	}
}

// seed creates the store and the backups the scenario starts from.
func (h *Harness) seed(ctx context.Context, scenario *Scenario) error {
	path := h.cfg.StorePath()
	if err := os.MkdirAll(h.cfg.DataDir, 0o700); err != nil {
		return err
	}

	if scenario.Store.State != "absent" {
		cred, err := credential.New(scenario.Store.Secret)
		if err != nil {
			return err
		}
		if err := vault.Create(ctx, path, cred, h.opts); err != nil {
			return err
		}
		if err := h.seedUsers(ctx, cred, scenario.Store.Users); err != nil {
			return err
		}
		if h.initial, err = os.ReadFile(path); err != nil {
			return err
		}
	}

	for _, name := range scenario.Backups {
		data := h.initial
		if data == nil {
			data = []byte("backup " + name)
		}
		if err := os.WriteFile(filepath.Join(h.cfg.DataDir, name), data, 0o600); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harness) seedUsers(ctx context.Context, cred credential.Credential, n int) error {
	if n == 0 {
		return nil
	}
	s, err := vault.Open(ctx, h.cfg.StorePath(), cred, h.opts)
	if err != nil {
		return err
	}
	defer s.Close()

	for i := 0; i < n; i++ {
		_, err := s.DB().ExecContext(ctx,
			"INSERT INTO users (first_name, last_name) VALUES (?, ?)",
			fmt.Sprintf("User%d", i+1), "Scenario")
		if err != nil {
			return err
		}
	}
	return nil
}

// answers maps "^C" to the scripted interrupt.
func answers(in []string) []string {
	out := make([]string, len(in))
	for i, a := range in {
		if a == InterruptAnswer {
			a = testutil.Interrupt
		}
		out[i] = a
	}
	return out
}

func classify(run string, err error) (outcome, kind string) {
	switch {
	case err == nil && run == RunResolve:
		return OutcomeCredential, ""
	case err == nil:
		return OutcomeOK, ""
	case errors.Is(err, lifecycle.ErrQuit):
		return OutcomeQuit, ""
	case fault.KindOf(err) != "":
		return OutcomeError, string(fault.KindOf(err))
	case errors.Is(err, prompt.ErrClosed):
		return OutcomeError, KindInputClosed
	case errors.Is(err, prompt.ErrInterrupted):
		return OutcomeError, KindInterrupted
	default:
		return OutcomeError, KindUnknown
	}
}

func checkExpect(result *Result, expect Expect) {
	if result.Outcome != expect.Outcome {
		msg := fmt.Sprintf("expect: outcome %q, got %q", expect.Outcome, result.Outcome)
		if result.Err != nil {
			msg += fmt.Sprintf(" (%v)", result.Err)
		}
		result.AddError(msg)
		return
	}
	if expect.Outcome == OutcomeError && result.Kind != expect.Kind {
		result.AddError(fmt.Sprintf("expect: error kind %q, got %q (%v)", expect.Kind, result.Kind, result.Err))
	}
	if expect.Outcome == OutcomeCredential {
		want, err := credential.New(expect.Secret)
		if err != nil {
			result.AddError(fmt.Sprintf("expect: secret: %v", err))
			return
		}
		if !result.Credential.Equal(want) {
			result.AddError(fmt.Sprintf("expect: credential does not match secret %q", expect.Secret))
		}
	}
}
