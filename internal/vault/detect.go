package vault

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // plain engine, registers "sqlite"

	"github.com/ghostwipe/ghostwipe/internal/fault"
)

// State is the encryption state of the store at a path.
type State int

const (
	Absent State = iota
	Unencrypted
	Encrypted
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Unencrypted:
		return "unencrypted"
	case Encrypted:
		return "encrypted"
	default:
		return "unknown"
	}
}

// Cause says why Detect reached its verdict. It is diagnostic only: an
// Encrypted verdict may also mean a corrupt or foreign file.
type Cause string

const (
	CauseMissing        Cause = "missing"
	CauseSchemaMarker   Cause = "schema-marker"
	CauseNoSchemaMarker Cause = "no-schema-marker"
	CauseOpenFailed     Cause = "open-failed"
	CauseQueryFailed    Cause = "query-failed"
)

// Detection is the result of probing a store path.
type Detection struct {
	State  State    `json:"-"`
	Cause  Cause    `json:"cause"`
	Tables []string `json:"tables,omitempty"`
	Detail string   `json:"detail,omitempty"`
}

// Detect classifies the file at path without a credential. A file the plain
// engine can read that carries a baseline table is Unencrypted; any other
// existing file is Encrypted. The probe never writes to the file.
func Detect(ctx context.Context, path string) (Detection, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return Detection{State: Absent, Cause: CauseMissing}, nil
	}
	if err != nil {
		return Detection{}, fault.IO("detect", path, err)
	}
	if info.IsDir() {
		return Detection{}, fault.Configuration("detect", path, "store path is a directory")
	}

	dsn, err := readOnlyDSN(path)
	if err != nil {
		return Detection{}, fault.IO("detect", path, err)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return Detection{State: Encrypted, Cause: CauseOpenFailed, Detail: err.Error()}, nil
	}
	defer db.Close()

	tables, err := listTables(ctx, db)
	if err != nil {
		if ctx.Err() != nil {
			return Detection{}, ctx.Err()
		}
		return Detection{State: Encrypted, Cause: CauseQueryFailed, Detail: err.Error()}, nil
	}
	for _, name := range tables {
		if IsSchemaTable(name) {
			return Detection{State: Unencrypted, Cause: CauseSchemaMarker, Tables: tables}, nil
		}
	}
	return Detection{State: Encrypted, Cause: CauseNoSchemaMarker, Tables: tables}, nil
}

// readOnlyDSN builds a file: URI that opens path read-only and never creates it.
func readOnlyDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: "mode=ro"}
	return u.String(), nil
}
