package vault

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostwipe/ghostwipe/internal/credential"
	"github.com/ghostwipe/ghostwipe/internal/fault"
)

// testOpts keeps key derivation at the accepted minimum so tests stay fast.
var testOpts = Options{KDFIter: MinKDFIter, PageSize: 4096}

func mustCred(t *testing.T, secret string) credential.Credential {
	t.Helper()
	c, err := credential.New(secret)
	require.NoError(t, err)
	return c
}

func storePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "data", "pii_data.db")
}

// seedBrokers inserts n broker_sites rows.
func seedBrokers(t *testing.T, s *Store, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		_, err := s.DB().ExecContext(ctx,
			"INSERT INTO broker_sites (name, url) VALUES (?, ?)", "broker", "https://broker.example")
		require.NoError(t, err)
	}
}

func TestCreate_EncryptedStoreOpensOnlyWithItsCredential(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)

	require.NoError(t, Create(ctx, path, mustCred(t, "abc123"), testOpts))

	s, err := Open(ctx, path, mustCred(t, "abc123"), testOpts)
	require.NoError(t, err)
	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Subset(t, tables, SchemaTables)
	require.NoError(t, s.Close())

	_, err = Open(ctx, path, mustCred(t, "wrong"), testOpts)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindEncryptionEngine))
	assert.ErrorIs(t, err, ErrLocked)

	_, err = Open(ctx, path, credential.Empty(), testOpts)
	require.Error(t, err, "an encrypted store must not open without a credential")
}

func TestCreate_DataDirectoryIsPrivate(t *testing.T) {
	path := storePath(t)
	require.NoError(t, Create(context.Background(), path, credential.Empty(), testOpts))

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestCreate_RefusesExistingPath(t *testing.T) {
	path := storePath(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("keep me"), 0o600))

	err := Create(context.Background(), path, credential.Empty(), testOpts)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindConfiguration))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
}

func TestCreate_RejectsWeakKDFWithoutLeavingAFile(t *testing.T) {
	path := storePath(t)

	err := Create(context.Background(), path, mustCred(t, "abc123"), Options{KDFIter: 64000, PageSize: 4096})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindEncryptionEngine))
	assert.NoFileExists(t, path)
}

func TestOpen_MissingStore(t *testing.T) {
	_, err := Open(context.Background(), storePath(t), credential.Empty(), testOpts)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindConfiguration))
}

func TestOpen_CredentialWithQuotes(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)
	cred := mustCred(t, `it's a "pass'; --`)

	require.NoError(t, Create(ctx, path, cred, testOpts))

	s, err := Open(ctx, path, cred, testOpts)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(ctx, path, mustCred(t, "it"), testOpts)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestStore_Inventory(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)
	require.NoError(t, Create(ctx, path, credential.Empty(), testOpts))

	s, err := Open(ctx, path, credential.Empty(), testOpts)
	require.NoError(t, err)
	defer s.Close()
	seedBrokers(t, s, 3)

	counts, err := s.Inventory(ctx)
	require.NoError(t, err)
	require.Len(t, counts, len(SchemaTables))

	byTable := map[string]int{}
	for _, c := range counts {
		byTable[c.Table] = c.Rows
	}
	assert.Equal(t, 3, byTable["broker_sites"])
	assert.Equal(t, 0, byTable["users"])
	assert.Equal(t, SchemaTables[0], counts[0].Table)
}

func TestLoadSchema_Idempotent(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)
	require.NoError(t, Create(ctx, path, credential.Empty(), testOpts))

	s, err := Open(ctx, path, credential.Empty(), testOpts)
	require.NoError(t, err)
	defer s.Close()
	seedBrokers(t, s, 1)

	require.NoError(t, LoadSchema(ctx, s.Bun()))

	n, err := s.Bun().NewSelect().Model((*BrokerSite)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "reloading the schema must not drop data")
}

func TestLoadSchema_EnforcesForeignKeys(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)
	require.NoError(t, Create(ctx, path, credential.Empty(), testOpts))

	s, err := Open(ctx, path, credential.Empty(), testOpts)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.DB().ExecContext(ctx, "INSERT INTO addresses (user_id, city) VALUES (?, ?)", 42, "Nowhere")
	assert.Error(t, err, "an address must reference an existing user")
}

func TestKeyedDSN(t *testing.T) {
	tests := []struct {
		secret string
		key    string
	}{
		{"abc123", "abc123"},
		{`a"b`, `a""b`},
		{"o'brien & co?", "o'brien & co?"},
	}
	for _, tt := range tests {
		t.Run(tt.secret, func(t *testing.T) {
			dsn := keyedDSN("/data/pii_data.db", tt.secret, testOpts)
			path, query, ok := strings.Cut(dsn, "?")
			require.True(t, ok)
			assert.Equal(t, "/data/pii_data.db", path)

			params, err := url.ParseQuery(query)
			require.NoError(t, err)
			assert.Equal(t, tt.key, params.Get("_pragma_key"))
			assert.Equal(t, "4096", params.Get("_pragma_cipher_page_size"))
			assert.Equal(t, "1", params.Get("_foreign_keys"))
		})
	}
}

func TestOpen_ReopensAcrossConnections(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)
	cred := mustCred(t, "abc123")
	require.NoError(t, Create(ctx, path, cred, testOpts))

	for i := 0; i < 3; i++ {
		s, err := Open(ctx, path, cred, testOpts)
		require.NoError(t, err, "open %d", i)
		seedBrokers(t, s, 1)
		require.NoError(t, s.Close())
	}

	s, err := Open(ctx, path, cred, testOpts)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Bun().NewSelect().Model((*BrokerSite)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestOpen_KDFIterMustMatch(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)
	cred := mustCred(t, "abc123")
	require.NoError(t, Create(ctx, path, cred, testOpts))

	_, err := Open(ctx, path, cred, Options{KDFIter: MinKDFIter + 1, PageSize: 4096})
	assert.ErrorIs(t, err, ErrLocked)

	s, err := Open(ctx, path, cred, testOpts)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestOpen_RejectsQueryInPath(t *testing.T) {
	path := storePath(t) + "?mode=ro"
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := Open(context.Background(), path, credential.Empty(), testOpts)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindEncryptionEngine))
}

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, DefaultOptions().validate())
	assert.NoError(t, testOpts.validate())
	assert.Error(t, Options{KDFIter: MinKDFIter - 1, PageSize: 4096}.validate())
	assert.Error(t, Options{KDFIter: MinKDFIter, PageSize: 3000}.validate())
	assert.Error(t, Options{KDFIter: MinKDFIter, PageSize: 256}.validate())
}
