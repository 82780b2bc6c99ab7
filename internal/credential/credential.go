// Package credential holds the operator's store passphrase in memory.
//
// A Credential keeps its bytes in a memguard enclave (encrypted, guarded
// memory) and only exposes them for the duration of a store open or rekey.
// The zero value is the empty credential, which means "store is not
// encrypted" and is a distinct, valid value.
package credential

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/awnumar/memguard"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalid is returned for secrets the storage engine cannot accept.
var ErrInvalid = errors.New("credential contains a NUL byte")

const redacted = "[redacted]"

// Credential is an in-memory secret used to derive the store key.
type Credential struct {
	enclave *memguard.Enclave
}

// Empty returns the empty credential.
func Empty() Credential {
	return Credential{}
}

// New seals secret into a Credential.
//
// The secret is normalized to Unicode NFC so the same passphrase typed on
// different platforms derives the same key. An empty secret yields the empty
// credential.
func New(secret string) (Credential, error) {
	if strings.IndexByte(secret, 0) >= 0 {
		return Credential{}, ErrInvalid
	}
	if secret == "" {
		return Credential{}, nil
	}
	buf := []byte(norm.NFC.String(secret))
	// NewEnclave wipes buf.
	return Credential{enclave: memguard.NewEnclave(buf)}, nil
}

// IsEmpty reports whether c is the empty credential.
func (c Credential) IsEmpty() bool {
	return c.enclave == nil || c.enclave.Size() == 0
}

// Expose returns the secret as a string for handing to the storage engine.
// The returned string is not protected; keep its lifetime short.
func (c Credential) Expose() (string, error) {
	if c.IsEmpty() {
		return "", nil
	}
	buf, err := c.enclave.Open()
	if err != nil {
		return "", err
	}
	defer buf.Destroy()
	return string(buf.Bytes()), nil
}

// Equal reports whether c and other hold the same secret, in constant time
// with respect to the secret contents.
func (c Credential) Equal(other Credential) bool {
	if c.IsEmpty() || other.IsEmpty() {
		return c.IsEmpty() && other.IsEmpty()
	}
	a, err := c.enclave.Open()
	if err != nil {
		return false
	}
	defer a.Destroy()
	b, err := other.enclave.Open()
	if err != nil {
		return false
	}
	defer b.Destroy()
	return a.EqualTo(b.Bytes())
}

// String never reveals the secret.
func (c Credential) String() string {
	if c.IsEmpty() {
		return "[empty]"
	}
	return redacted
}

// LogValue keeps the secret out of structured logs.
func (c Credential) LogValue() slog.Value {
	return slog.StringValue(c.String())
}
