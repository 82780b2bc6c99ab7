// Package fault defines the error kinds shared by the store lifecycle packages.
//
// Every lifecycle failure is a *Error carrying a Kind. Callers branch on the
// kind with errors.As (via Is or Fatal), never on message text:
//
//   - KindConfiguration: store in an unexpected state for the operation
//   - KindCredentialMismatch: two entries of a credential differ
//   - KindEncryptionEngine: the re-encryption directive was rejected
//   - KindBackupCollision: the rotation invariant was violated
//   - KindIO: a filesystem rename/copy/remove failed
//
// IO and BackupCollision errors are fatal: the lifecycle must not continue
// with an unconfirmed on-disk state.
package fault

import (
	"errors"
	"fmt"
)

// Kind categorizes lifecycle errors.
type Kind string

const (
	// KindConfiguration indicates the store is in an unexpected state.
	KindConfiguration Kind = "CONFIGURATION"

	// KindCredentialMismatch indicates two credential entries differ.
	KindCredentialMismatch Kind = "CREDENTIAL_MISMATCH"

	// KindEncryptionEngine indicates the storage engine rejected a key directive.
	KindEncryptionEngine Kind = "ENCRYPTION_ENGINE"

	// KindBackupCollision indicates a backup destination was already occupied.
	KindBackupCollision Kind = "BACKUP_COLLISION"

	// KindIO indicates a filesystem operation failed.
	KindIO Kind = "IO"
)

// Error is a lifecycle error with a kind, the failed operation and the path
// it touched.
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Op names the failed operation (e.g. "backup", "rekey").
	Op string

	// Path is the file the operation was acting on, if any.
	Path string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s %s: %s", e.Kind, e.Op, e.Path, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error without an underlying cause.
func New(kind Kind, op, path, message string) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Message: message}
}

// Wrap creates an Error around an underlying cause.
func Wrap(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Configuration creates a KindConfiguration error.
func Configuration(op, path, message string) *Error {
	return New(KindConfiguration, op, path, message)
}

// Mismatch creates a KindCredentialMismatch error.
func Mismatch(op string) *Error {
	return New(KindCredentialMismatch, op, "", "credentials do not match")
}

// Engine wraps an encryption engine failure.
func Engine(op, path string, err error) *Error {
	return Wrap(KindEncryptionEngine, op, path, err)
}

// Collision creates a KindBackupCollision error for an occupied destination.
func Collision(op, path string) *Error {
	return New(KindBackupCollision, op, path, "destination already exists")
}

// IO wraps a filesystem failure.
func IO(op, path string, err error) *Error {
	return Wrap(KindIO, op, path, err)
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
// Uses errors.As to handle wrapped errors.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Fatal reports whether err must abort the lifecycle.
func Fatal(err error) bool {
	switch KindOf(err) {
	case KindIO, KindBackupCollision:
		return true
	}
	return false
}
