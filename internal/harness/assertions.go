package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ghostwipe/ghostwipe/internal/backup"
	"github.com/ghostwipe/ghostwipe/internal/credential"
	"github.com/ghostwipe/ghostwipe/internal/vault"
)

// AssertionError represents a failed assertion with context.
type AssertionError struct {
	Index   int
	Type    string
	Message string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion[%d] %s: %s", e.Index, e.Type, e.Message)
}

// AssertionContext provides the files a run left behind.
type AssertionContext struct {
	Ctx     context.Context
	Harness *Harness
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var msg string
		if assertion.Type == AssertOutputContains {
			msg = assertOutputContains(result.Transcript, assertion)
		} else if actx == nil || actx.Harness == nil {
			msg = "requires a harness context"
		} else {
			msg = evaluate(actx.Ctx, actx.Harness, assertion)
		}

		if msg != "" {
			errs = append(errs, (&AssertionError{Index: i, Type: assertion.Type, Message: msg}).Error())
		}
	}
	return errs
}

func evaluate(ctx context.Context, h *Harness, a Assertion) string {
	switch a.Type {
	case AssertStoreState:
		return assertStoreState(ctx, h, a)
	case AssertStoreOpens:
		return assertStoreOpens(ctx, h, a)
	case AssertStoreUnchanged:
		return assertStoreUnchanged(h)
	case AssertBackupCount:
		return assertBackupCount(h, a)
	case AssertAnswersConsumed:
		if n := h.prompter.Remaining(); n != 0 {
			return fmt.Sprintf("%d scripted answer(s) never read", n)
		}
		return ""
	default:
		return fmt.Sprintf("unknown assertion type %q", a.Type)
	}
}

func assertStoreState(ctx context.Context, h *Harness, a Assertion) string {
	d, err := vault.Detect(ctx, h.cfg.StorePath())
	if err != nil {
		return err.Error()
	}
	if got := d.State.String(); got != a.State {
		return fmt.Sprintf("expected %s, got %s (%s)", a.State, got, d.Cause)
	}
	return ""
}

func assertStoreOpens(ctx context.Context, h *Harness, a Assertion) string {
	cred, err := credential.New(a.Secret)
	if err != nil {
		return err.Error()
	}
	s, err := vault.Open(ctx, h.cfg.StorePath(), cred, h.opts)
	if err != nil {
		return fmt.Sprintf("open: %v", err)
	}
	defer s.Close()

	n, err := s.Bun().NewSelect().Model((*vault.User)(nil)).Count(ctx)
	if err != nil {
		return fmt.Sprintf("count users: %v", err)
	}
	if n != *a.Users {
		return fmt.Sprintf("expected %d users, got %d", *a.Users, n)
	}
	return ""
}

func assertStoreUnchanged(h *Harness) string {
	data, err := os.ReadFile(h.cfg.StorePath())
	if os.IsNotExist(err) && h.initial == nil {
		return ""
	}
	if err != nil {
		return err.Error()
	}
	if !bytes.Equal(data, h.initial) {
		return "store bytes differ from the seeded store"
	}
	return ""
}

func assertBackupCount(h *Harness, a Assertion) string {
	list, err := backup.List(h.cfg.StorePath())
	if err != nil {
		return err.Error()
	}
	n := 0
	var names []string
	for _, art := range list {
		if a.Base == "" || art.Base == a.Base {
			n++
		}
		names = append(names, art.Date+"."+art.Base)
	}
	if n != *a.Count {
		return fmt.Sprintf("expected %d backup(s), got %d [%s]", *a.Count, n, strings.Join(names, ", "))
	}
	return ""
}

func assertOutputContains(transcript string, a Assertion) string {
	if !strings.Contains(transcript, a.Text) {
		return fmt.Sprintf("transcript does not contain %q", a.Text)
	}
	return ""
}
