package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostwipe/ghostwipe/internal/config"
	"github.com/ghostwipe/ghostwipe/internal/credential"
	"github.com/ghostwipe/ghostwipe/internal/fault"
	"github.com/ghostwipe/ghostwipe/internal/vault"
)

func TestRotateKey_Success(t *testing.T) {
	f := newFixture(t, "old", "new", "new")
	oldCred := mustCred(t, "old")
	f.seedStore(t, oldCred)

	require.NoError(t, f.ctrl.RotateKey(context.Background()))

	path := f.cfg.StorePath()
	assert.Equal(t, 1, f.userCount(t, path, mustCred(t, "new")))
	_, err := vault.Open(context.Background(), path, oldCred, f.opts)
	assert.ErrorIs(t, err, vault.ErrLocked)

	list := f.backups(t)
	require.Len(t, list, 1)
	assert.Equal(t, config.PreRekeyBase, list[0].Base)
	assert.Equal(t, 1, f.userCount(t, list[0].Path, oldCred), "backup keeps the old key")
}

func TestRotateKey_WrongCurrentCredential(t *testing.T) {
	f := newFixture(t, "guess")
	f.seedStore(t, mustCred(t, "old"))
	before := f.storeBytes(t)

	err := f.ctrl.RotateKey(context.Background())
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindEncryptionEngine))
	assert.Equal(t, before, f.storeBytes(t))
	assert.Empty(t, f.backups(t))
}

func TestRotateKey_CancelledPair(t *testing.T) {
	f := newFixture(t, "old", "new", "typo", "n")
	f.seedStore(t, mustCred(t, "old"))
	before := f.storeBytes(t)

	require.NoError(t, f.ctrl.RotateKey(context.Background()))
	assert.Equal(t, before, f.storeBytes(t))
	assert.Empty(t, f.backups(t))
	assert.Contains(t, f.out.String(), "Key rotation cancelled.")
}

func TestRotateKey_RequiresEncryptedStore(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		f := newFixture(t)
		err := f.ctrl.RotateKey(context.Background())
		assert.True(t, fault.Is(err, fault.KindConfiguration))
	})
	t.Run("unencrypted", func(t *testing.T) {
		f := newFixture(t)
		f.seedStore(t, credential.Empty())
		err := f.ctrl.RotateKey(context.Background())
		assert.True(t, fault.Is(err, fault.KindConfiguration))
		assert.Empty(t, f.prompter.Asked)
	})
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Equal(t, "b", g.Generate())
}

func TestUUIDv7Generator(t *testing.T) {
	id := UUIDv7Generator{}.Generate()
	assert.Len(t, id, 36)
	assert.Equal(t, byte('7'), id[14])
}
