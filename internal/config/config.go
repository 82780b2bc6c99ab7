// Package config builds the single configuration value threaded through the
// launcher. It is constructed once at startup (defaults, then an optional
// YAML file, then command-line flags) and passed explicitly to every
// component; nothing reads process-wide flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Store layout. The canonical store path is fixed relative to the data
// directory and is not configurable from the config file.
const (
	DefaultDataDir   = "data"
	StoreFileName    = "pii_data.db"
	BackupBase       = "pii_data.db.bak"
	PreEncryptBase   = "pii_data.db.pre_encrypt.bak"
	PreRekeyBase     = "pii_data.db.pre_rekey.bak"
	DefaultConfigEnv = "GHOSTWIPE_CONFIG"
)

// Key derivation policy. One iteration count is used for fresh encryption
// and for routine unlocking; SQLCipher can only open a store with the count
// it was written with.
const (
	DefaultKDFIter        = 256000
	DefaultCipherPageSize = 4096
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Config holds launcher settings.
type Config struct {
	// DataDir holds the store and its backups. Fixed at startup.
	DataDir string `yaml:"-"`

	// KDFIter and CipherPageSize are the SQLCipher parameters for every
	// keyed open and every rekey.
	KDFIter        int `yaml:"-"`
	CipherPageSize int `yaml:"-"`

	// Verbose enables debug-level logging.
	Verbose bool `yaml:"verbose"`

	// Format is the output format for reporting commands ("text" | "json").
	Format string `yaml:"format"`

	// DebugLog, when set, mirrors log records into this file.
	DebugLog string `yaml:"debug_log"`

	// Banner prints the launcher banner before the lifecycle runs.
	Banner bool `yaml:"banner"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:        DefaultDataDir,
		KDFIter:        DefaultKDFIter,
		CipherPageSize: DefaultCipherPageSize,
		Format:         "text",
		Banner:         true,
	}
}

// Load returns the defaults overlaid with the YAML file at path.
// An empty path returns the defaults. A missing file is an error only when
// the path was given explicitly (required).
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	if !IsValidFormat(c.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", c.Format, ValidFormats)
	}
	if c.DataDir == "" {
		return errors.New("data directory must not be empty")
	}
	return nil
}

// StorePath returns the canonical store path.
func (c Config) StorePath() string {
	return filepath.Join(c.DataDir, StoreFileName)
}

// IsValidFormat checks if the format is one of the allowed values.
func IsValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
