package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_OrdersNewestFirst(t *testing.T) {
	store := setupStore(t, "live")
	dir := filepath.Dir(store)
	names := []string{
		"261018.pii_data.db.bak",
		"261019.pii_data.db.bak.2",
		"261019.pii_data.db.bak.1",
		"261019.pii_data.db.pre_encrypt.bak",
		"notes.txt",
		"261019.other.db.bak",
	}
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte(n), 0o600))
	}

	got, err := List(store)
	require.NoError(t, err)

	var listed []string
	for _, a := range got {
		listed = append(listed, filepath.Base(a.Path))
	}
	assert.Equal(t, []string{
		"261019.pii_data.db.bak.1",
		"261019.pii_data.db.bak.2",
		"261019.pii_data.db.pre_encrypt.bak",
		"261018.pii_data.db.bak",
	}, listed)

	assert.Equal(t, "261019", got[0].Date)
	assert.Equal(t, "pii_data.db.bak", got[0].Base)
	assert.Equal(t, 1, got[0].Slot)
	assert.Equal(t, 0, got[2].Slot)
	assert.Equal(t, int64(len("261019.pii_data.db.bak.1")), got[0].Size)
}

func TestList_MissingDirectory(t *testing.T) {
	got, err := List(filepath.Join(t.TempDir(), "absent", "pii_data.db"))
	require.NoError(t, err)
	assert.Empty(t, got)
}
