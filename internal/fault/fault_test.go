package fault

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MessageFormats(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message_with_path",
			err:  Configuration("open", "data/pii_data.db", "store does not exist"),
			want: "CONFIGURATION: open data/pii_data.db: store does not exist",
		},
		{
			name: "message_without_path",
			err:  Mismatch("bootstrap"),
			want: "CREDENTIAL_MISMATCH: bootstrap: credentials do not match",
		},
		{
			name: "cause_only",
			err:  IO("revert", "a.bak", errors.New("permission denied")),
			want: "IO: revert a.bak: permission denied",
		},
		{
			name: "message_and_cause",
			err:  &Error{Kind: KindEncryptionEngine, Op: "rekey", Message: "export failed", Err: errors.New("disk full")},
			want: "ENCRYPTION_ENGINE: rekey: export failed: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("create new store: %w", Collision("backup", "x.bak.2"))

	assert.Equal(t, KindBackupCollision, KindOf(err))
	assert.True(t, Is(err, KindBackupCollision))
	assert.False(t, Is(err, KindIO))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, Is(nil, KindIO))
}

func TestUnwrap_PreservesCause(t *testing.T) {
	err := IO("copy", "x", os.ErrPermission)
	require.ErrorIs(t, err, os.ErrPermission)
}

func TestFatal(t *testing.T) {
	assert.True(t, Fatal(IO("rename", "x", os.ErrNotExist)))
	assert.True(t, Fatal(Collision("rename", "x")))
	assert.False(t, Fatal(Mismatch("encrypt")))
	assert.False(t, Fatal(Engine("rekey", "x", errors.New("bad key"))))
	assert.False(t, Fatal(Configuration("open", "x", "missing")))
	assert.False(t, Fatal(errors.New("plain")))
}
