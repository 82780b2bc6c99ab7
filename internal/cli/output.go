package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ghostwipe/ghostwipe/internal/fault"
)

// Exit codes of the launcher.
const (
	ExitSuccess      = 0 // Graceful quit
	ExitFailure      = 1 // Refused first run, credential mismatch, lifecycle failure
	ExitCommandError = 2 // Command error (bad flags, unreadable config, store in the wrong state)
)

// ExitError is a command failure with the exit code the process ends with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// exitCode maps a command error to the process exit code. Errors no command
// classified (unknown flags, bad arguments) are command errors.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// Result is the JSON document a reporting command writes with --format json.
type Result struct {
	Status string   `json:"status"` // "ok" or "error"
	Data   any      `json:"data,omitempty"`
	Error  *Failure `json:"error,omitempty"`
}

// Failure describes a failed command. Code is the fault kind, or
// UNCLASSIFIED for errors outside the lifecycle.
type Failure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Op      string `json:"op,omitempty"`
	Path    string `json:"path,omitempty"`
	Cause   string `json:"cause"`
}

const codeUnclassified = "UNCLASSIFIED"

func newFailure(message string, err error) *Failure {
	f := &Failure{Code: codeUnclassified, Message: message, Cause: err.Error()}
	var fe *fault.Error
	if errors.As(err, &fe) {
		f.Code = string(fe.Kind)
		f.Op = fe.Op
		f.Path = fe.Path
	}
	return f
}

// Reporter writes what status, backup, rekey and dev-reset produce. Text
// output is for the operator; JSON output is one Result per command.
type Reporter struct {
	JSON    bool
	Out     io.Writer
	Diag    io.Writer // verbose notes; never the JSON stream
	Verbose bool
}

// Report writes a successful result.
func (r *Reporter) Report(v fmt.Stringer) error {
	if r.JSON {
		return json.NewEncoder(r.Out).Encode(Result{Status: "ok", Data: v})
	}
	_, err := fmt.Fprintln(r.Out, v.String())
	return err
}

// Fail records a failed command and returns the ExitError it ends with. A
// store in the wrong state for the command is a command error; anything
// else is a failure. In text mode Execute prints the error.
func (r *Reporter) Fail(message string, err error) error {
	code := ExitFailure
	if fault.Is(err, fault.KindConfiguration) {
		code = ExitCommandError
	}
	if r.JSON {
		_ = json.NewEncoder(r.Out).Encode(Result{Status: "error", Error: newFailure(message, err)})
	}
	return WrapExitError(code, message, err)
}

// Note writes a diagnostic line when verbose output is on.
func (r *Reporter) Note(format string, args ...any) {
	if !r.Verbose || r.Diag == nil {
		return
	}
	fmt.Fprintf(r.Diag, format+"\n", args...)
}
