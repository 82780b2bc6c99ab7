package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 256000, cfg.KDFIter)
	assert.Equal(t, 4096, cfg.CipherPageSize)
	assert.Equal(t, "text", cfg.Format)
	assert.True(t, cfg.Banner)
	assert.Equal(t, filepath.Join("data", "pii_data.db"), cfg.StorePath())
	require.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("", false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingOptionalFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingRequiredFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_OverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghostwipe.yaml")
	content := `verbose: true
format: json
debug_log: /tmp/ghostwipe-debug.log
banner: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.True(t, cfg.Verbose)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "/tmp/ghostwipe-debug.log", cfg.DebugLog)
	assert.False(t, cfg.Banner)
}

func TestLoad_StoreLayoutIsNotConfigurable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghostwipe.yaml")
	content := `data_dir: /elsewhere
kdf_iter: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, DefaultKDFIter, cfg.KDFIter)
}

func TestLoad_InvalidFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghostwipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: xml\n"), 0o600))

	_, err := Load(path, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghostwipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("verbose: [unterminated\n"), 0o600))

	_, err := Load(path, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, IsValidFormat("text"))
	assert.True(t, IsValidFormat("json"))

	assert.False(t, IsValidFormat("xml"))
	assert.False(t, IsValidFormat(""))
	assert.False(t, IsValidFormat("TEXT"))
}
