package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ghostwipe/ghostwipe/internal/prompt"
)

// Interrupt is a scripted answer that simulates an operator interrupt.
const Interrupt = "\x00interrupt"

// ScriptedPrompter replays a fixed list of answers.
//
// Line and Secret consume answers in order and record every label asked,
// so tests can assert on the exact dialogue. An answer equal to Interrupt
// returns prompt.ErrInterrupted. Running out of answers returns
// prompt.ErrClosed, which stops retry loops instead of spinning.
type ScriptedPrompter struct {
	answers []string
	pos     int

	// Asked records each label in the order it was presented.
	Asked []string
}

// NewScriptedPrompter creates a prompter that replays answers.
func NewScriptedPrompter(answers ...string) *ScriptedPrompter {
	return &ScriptedPrompter{answers: answers}
}

// Line implements prompt.Prompter.
func (s *ScriptedPrompter) Line(ctx context.Context, label string) (string, error) {
	return s.next(ctx, label)
}

// Secret implements prompt.Prompter.
func (s *ScriptedPrompter) Secret(ctx context.Context, label string) (string, error) {
	return s.next(ctx, label)
}

// Remaining returns how many answers have not been consumed.
func (s *ScriptedPrompter) Remaining() int {
	return len(s.answers) - s.pos
}

func (s *ScriptedPrompter) next(ctx context.Context, label string) (string, error) {
	s.Asked = append(s.Asked, label)
	if err := ctx.Err(); err != nil {
		return "", prompt.ErrInterrupted
	}
	if s.pos >= len(s.answers) {
		return "", fmt.Errorf("no scripted answer for %q: %w", label, prompt.ErrClosed)
	}
	answer := s.answers[s.pos]
	s.pos++
	if answer == Interrupt {
		return "", prompt.ErrInterrupted
	}
	return answer, nil
}

// Transcript wraps a prompter and writes each exchange to w the way an
// operator would see it on a terminal: the label followed by the typed
// answer for lines, and by nothing for secrets. Interrupts show as "^C".
type Transcript struct {
	prompter prompt.Prompter
	w        io.Writer
}

// NewTranscript wraps p, echoing exchanges to w.
func NewTranscript(p prompt.Prompter, w io.Writer) *Transcript {
	return &Transcript{prompter: p, w: w}
}

// Line implements prompt.Prompter.
func (t *Transcript) Line(ctx context.Context, label string) (string, error) {
	answer, err := t.prompter.Line(ctx, label)
	t.echo(label, answer, err)
	return answer, err
}

// Secret implements prompt.Prompter.
func (t *Transcript) Secret(ctx context.Context, label string) (string, error) {
	answer, err := t.prompter.Secret(ctx, label)
	t.echo(label, "", err)
	return answer, err
}

func (t *Transcript) echo(label, shown string, err error) {
	switch {
	case errors.Is(err, prompt.ErrInterrupted):
		shown = "^C"
	case err != nil:
		shown = ""
	}
	fmt.Fprintf(t.w, "%s%s\n", label, shown)
}
