// Package prompt provides cancellable operator input.
//
// Every read takes a context. When the context is cancelled, or the
// Terminal's interrupt channel fires, the read returns ErrInterrupted instead
// of blocking; callers decide what an interrupt means for that field (Field
// and Confirm treat it as "leave unset", menus treat it as quit). No
// process-wide signal handler is installed here.
package prompt

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrInterrupted is returned when a read is cancelled before the operator answered.
	ErrInterrupted = errors.New("input interrupted")

	// ErrClosed is returned when the input stream ended.
	ErrClosed = errors.New("input closed")
)

// Prompter reads operator answers.
type Prompter interface {
	// Line prints label and reads one line with surrounding whitespace trimmed.
	Line(ctx context.Context, label string) (string, error)

	// Secret prints label and reads one line without echo where the input
	// is a terminal. Only the line terminator is stripped.
	Secret(ctx context.Context, label string) (string, error)
}

// Field reads an optional value. An interrupt leaves the field unset
// (set=false) rather than failing.
func Field(ctx context.Context, p Prompter, label string) (value string, set bool, err error) {
	value, err = p.Line(ctx, label)
	if errors.Is(err, ErrInterrupted) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SecretField is Field for secrets.
func SecretField(ctx context.Context, p Prompter, label string) (value string, set bool, err error) {
	value, err = p.Secret(ctx, label)
	if errors.Is(err, ErrInterrupted) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Confirm asks a yes/no question. An empty answer or an interrupt returns
// def; anything other than y/yes/n/no also returns def.
func Confirm(ctx context.Context, p Prompter, label string, def bool) (bool, error) {
	answer, set, err := Field(ctx, p, label)
	if err != nil {
		return false, err
	}
	if !set {
		return def, nil
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return def, nil
}
