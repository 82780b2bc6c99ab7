package lifecycle

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostwipe/ghostwipe/internal/config"
	"github.com/ghostwipe/ghostwipe/internal/fault"
)

func TestBackupNow_KeepsStoreInPlace(t *testing.T) {
	f := newFixture(t, "n")
	before := f.seedStore(t, mustCred(t, "abc123"))

	first, err := f.ctrl.BackupNow(context.Background())
	require.NoError(t, err)
	second, err := f.ctrl.BackupNow(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, before, f.storeBytes(t))

	list := f.backups(t)
	require.Len(t, list, 2)
	for _, a := range list {
		assert.Equal(t, config.BackupBase, a.Base)
		saved, err := os.ReadFile(a.Path)
		require.NoError(t, err)
		assert.Equal(t, before, saved)
	}
	require.Len(t, f.prompter.Asked, 1)
	assert.Contains(t, f.prompter.Asked[0], "Overwrite? (y/N)")
	assert.Equal(t, first+".1", second, "declining rotates into slot 1")
}

func TestBackupNow_AbsentStore(t *testing.T) {
	f := newFixture(t)

	_, err := f.ctrl.BackupNow(context.Background())
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindConfiguration))
	assert.Empty(t, f.backups(t))
}
