package vault

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostwipe/ghostwipe/internal/credential"
	"github.com/ghostwipe/ghostwipe/internal/fault"
)

// plainStoreWithData creates an unencrypted store holding two broker rows.
func plainStoreWithData(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := storePath(t)
	require.NoError(t, Create(ctx, path, credential.Empty(), testOpts))

	s, err := Open(ctx, path, credential.Empty(), testOpts)
	require.NoError(t, err)
	seedBrokers(t, s, 2)
	_, err = s.DB().ExecContext(ctx, "PRAGMA user_version = 7")
	require.NoError(t, err)
	require.NoError(t, s.Close())
	return path
}

func brokerCount(t *testing.T, path string, cred credential.Credential) int {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, path, cred, testOpts)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Bun().NewSelect().Model((*BrokerSite)(nil)).Count(ctx)
	require.NoError(t, err)
	return n
}

func leftoverExports(t *testing.T, path string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".*.rekey*"))
	require.NoError(t, err)
	return matches
}

func TestRekey_EncryptsPlainStore(t *testing.T) {
	ctx := context.Background()
	path := plainStoreWithData(t)
	abc := mustCred(t, "abc123")

	require.NoError(t, Rekey(ctx, path, abc, credential.Empty(), testOpts))

	d, err := Detect(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, Encrypted, d.State)

	assert.Equal(t, 2, brokerCount(t, path, abc))

	_, err = Open(ctx, path, mustCred(t, "wrong"), testOpts)
	assert.ErrorIs(t, err, ErrLocked)

	s, err := Open(ctx, path, abc, testOpts)
	require.NoError(t, err)
	defer s.Close()
	var version int
	require.NoError(t, s.DB().QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, 7, version)

	assert.Empty(t, leftoverExports(t, path))
}

func TestRekey_RotatesExistingKey(t *testing.T) {
	ctx := context.Background()
	path := plainStoreWithData(t)
	oldCred := mustCred(t, "old secret")
	newCred := mustCred(t, "new secret")
	require.NoError(t, Rekey(ctx, path, oldCred, credential.Empty(), testOpts))

	require.NoError(t, Rekey(ctx, path, newCred, oldCred, testOpts))

	assert.Equal(t, 2, brokerCount(t, path, newCred))
	_, err := Open(ctx, path, oldCred, testOpts)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestRekey_CredentialsWithQuotes(t *testing.T) {
	ctx := context.Background()
	path := plainStoreWithData(t)
	single := mustCred(t, "o'brien")
	double := mustCred(t, `a"b`)

	require.NoError(t, Rekey(ctx, path, single, credential.Empty(), testOpts))
	assert.Equal(t, 2, brokerCount(t, path, single))

	require.NoError(t, Rekey(ctx, path, double, single, testOpts))
	assert.Equal(t, 2, brokerCount(t, path, double))

	_, err := Open(ctx, path, single, testOpts)
	assert.ErrorIs(t, err, ErrLocked)
	_, err = Open(ctx, path, mustCred(t, `a""b`), testOpts)
	assert.ErrorIs(t, err, ErrLocked)
	assert.Empty(t, leftoverExports(t, path))
}

func TestRekey_WrongOpeningCredentialLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	path := plainStoreWithData(t)
	cred := mustCred(t, "abc123")
	require.NoError(t, Rekey(ctx, path, cred, credential.Empty(), testOpts))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	err = Rekey(ctx, path, mustCred(t, "next"), mustCred(t, "wrong"), testOpts)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindEncryptionEngine))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRekey_RejectsBadInputBeforeTouchingStore(t *testing.T) {
	path := plainStoreWithData(t)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	tests := []struct {
		name string
		cred credential.Credential
		opts Options
	}{
		{"empty new credential", credential.Empty(), testOpts},
		{"weak kdf", mustCred(t, "abc123"), Options{KDFIter: 64000, PageSize: 4096}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Rekey(context.Background(), path, tt.cred, credential.Empty(), tt.opts)
			require.Error(t, err)
			assert.True(t, fault.Is(err, fault.KindEncryptionEngine))

			after, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestRekey_MissingStore(t *testing.T) {
	err := Rekey(context.Background(), storePath(t), mustCred(t, "abc123"), credential.Empty(), testOpts)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindConfiguration))
}

func TestRekey_FailureAfterExportLeavesStoreOpenable(t *testing.T) {
	tests := []struct {
		name string
		hook func(tmp string) error
	}{
		{
			name: "engine failure",
			hook: func(string) error { return errors.New("simulated engine failure") },
		},
		{
			name: "corrupted export",
			hook: func(tmp string) error { return os.WriteFile(tmp, []byte("garbage"), 0o600) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			path := plainStoreWithData(t)
			before, err := os.ReadFile(path)
			require.NoError(t, err)

			r := &rekeyer{afterExport: tt.hook}
			err = r.run(ctx, path, mustCred(t, "abc123"), credential.Empty(), testOpts)
			require.Error(t, err)
			assert.True(t, fault.Is(err, fault.KindEncryptionEngine))

			after, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, before, after, "store must be byte-identical after a failed rekey")
			assert.Equal(t, 2, brokerCount(t, path, credential.Empty()))
			assert.Empty(t, leftoverExports(t, path))
		})
	}
}
