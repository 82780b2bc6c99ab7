package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type readResult struct {
	line string
	err  error
}

// Terminal is a Prompter over an input stream, normally stdin.
//
// Reads run on a helper goroutine so that a cancelled read returns
// immediately. The abandoned read is kept and adopted by the next call, so
// at most one read is ever outstanding and no typed line is lost.
//
// Echo is a property of the waiting call, not of the read: Secret switches
// echo off while it waits and back on when it returns, interrupted or not.
// A line typed into an abandoned Line read that Secret adopts is therefore
// never shown.
type Terminal struct {
	in         *bufio.Reader
	out        io.Writer
	interrupts <-chan os.Signal
	pending    chan readResult

	// echo switches terminal echo; nil when the input is not a terminal.
	echo func(on bool) error

	// restore puts the terminal back the way NewTerminal found it.
	restore func() error
}

// NewTerminal creates a Terminal reading from in and writing labels to out.
// Secrets are read without echo when in is a terminal, whose state is
// captured here and put back by Close. A receive on interrupts cancels the
// read in progress; interrupts may be nil.
func NewTerminal(in *os.File, out io.Writer, interrupts <-chan os.Signal) *Terminal {
	t := NewReaderTerminal(in, out, interrupts)
	if in == nil {
		return t
	}
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return t
	}
	state, err := term.GetState(fd)
	if err != nil {
		return t
	}
	t.echo = func(on bool) error { return setEcho(fd, on) }
	t.restore = func() error { return term.Restore(fd, state) }
	return t
}

// NewReaderTerminal creates a Terminal over a plain reader (no echo control).
func NewReaderTerminal(in io.Reader, out io.Writer, interrupts <-chan os.Signal) *Terminal {
	return &Terminal{
		in:         bufio.NewReader(in),
		out:        out,
		interrupts: interrupts,
	}
}

// Close restores the terminal state captured by NewTerminal. A read still
// pending is left to finish on its own.
func (t *Terminal) Close() error {
	if t.restore == nil {
		return nil
	}
	return t.restore()
}

// Line implements Prompter.
func (t *Terminal) Line(ctx context.Context, label string) (string, error) {
	fmt.Fprint(t.out, label)
	line, err := t.read(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Secret implements Prompter.
func (t *Terminal) Secret(ctx context.Context, label string) (string, error) {
	fmt.Fprint(t.out, label)
	if t.echo == nil {
		return t.read(ctx)
	}

	if err := t.echo(false); err != nil {
		return "", fmt.Errorf("disable echo: %w", err)
	}
	line, err := t.read(ctx)
	if eerr := t.echo(true); eerr != nil && err == nil {
		err = fmt.Errorf("restore echo: %w", eerr)
	}
	if err != nil {
		return "", err
	}
	// The operator's newline was not echoed.
	fmt.Fprintln(t.out)
	return line, nil
}

func (t *Terminal) read(ctx context.Context) (string, error) {
	ch := t.pending
	t.pending = nil
	if ch == nil {
		ch = make(chan readResult, 1)
		go func() {
			line, err := t.readLine()
			ch <- readResult{line: line, err: err}
		}()
	}

	select {
	case r := <-ch:
		return r.line, r.err
	case <-ctx.Done():
		t.pending = ch
		fmt.Fprintln(t.out)
		return "", ErrInterrupted
	case <-t.interrupts:
		t.pending = ch
		fmt.Fprintln(t.out)
		return "", ErrInterrupted
	}
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line == "" {
				return "", ErrClosed
			}
		} else {
			return "", fmt.Errorf("read input: %w", err)
		}
	}
	return strings.TrimRight(line, "\r\n"), nil
}
