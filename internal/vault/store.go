package vault

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/ghostwipe/ghostwipe/internal/credential"
	"github.com/ghostwipe/ghostwipe/internal/fault"
)

// MinKDFIter is the lowest key-derivation iteration count accepted for a
// keyed store.
const MinKDFIter = 100000

// ErrLocked is returned when a store cannot be read with the given credential.
var ErrLocked = errors.New("store cannot be read with this credential")

// Options are the SQLCipher parameters used for every keyed open and rekey.
type Options struct {
	KDFIter  int
	PageSize int
}

// DefaultOptions returns the default key-derivation policy.
func DefaultOptions() Options {
	return Options{KDFIter: 256000, PageSize: 4096}
}

func (o Options) validate() error {
	if o.KDFIter < MinKDFIter {
		return fmt.Errorf("kdf_iter %d is below the minimum of %d", o.KDFIter, MinKDFIter)
	}
	if o.PageSize < 512 || o.PageSize > 65536 || o.PageSize&(o.PageSize-1) != 0 {
		return fmt.Errorf("cipher_page_size %d must be a power of two between 512 and 65536", o.PageSize)
	}
	return nil
}

// Store is an open GHOSTWIPE store.
type Store struct {
	path string
	db   *sql.DB
	bdb  *bun.DB
}

// Open opens the existing store at path with cred (empty for a plain store)
// and proves it readable. A wrong credential yields an EncryptionEngine
// fault wrapping ErrLocked.
func Open(ctx context.Context, path string, cred credential.Credential, opts Options) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fault.Configuration("open", path, "store does not exist")
		}
		return nil, fault.IO("open", path, err)
	}

	db, err := openDB(ctx, path, cred, opts)
	if err != nil {
		return nil, fault.Engine("open", path, err)
	}
	return newStore(path, db), nil
}

// Create writes a new store at path keyed with cred (plain when empty) and
// loads the baseline schema. The path must not exist. On failure no file is
// left behind.
func Create(ctx context.Context, path string, cred credential.Credential, opts Options) error {
	if _, err := os.Lstat(path); err == nil {
		return fault.Configuration("create", path, "store already exists")
	} else if !errors.Is(err, os.ErrNotExist) {
		return fault.IO("create", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fault.IO("create", filepath.Dir(path), err)
	}

	db, err := openDB(ctx, path, cred, opts)
	if err != nil {
		removeStoreFiles(path)
		return fault.Engine("create", path, err)
	}
	s := newStore(path, db)
	if err := LoadSchema(ctx, s.bdb); err != nil {
		s.Close()
		removeStoreFiles(path)
		return fault.Engine("create", path, err)
	}
	if err := s.Close(); err != nil {
		removeStoreFiles(path)
		return fault.IO("create", path, err)
	}
	return nil
}

func newStore(path string, db *sql.DB) *Store {
	return &Store{
		path: path,
		db:   db,
		bdb:  bun.NewDB(db, sqlitedialect.New()),
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the store's file path.
func (s *Store) Path() string {
	return s.path
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Bun returns the bun handle over the same connection.
func (s *Store) Bun() *bun.DB {
	return s.bdb
}

// Tables returns the names of the tables in the store, sorted.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	return listTables(ctx, s.db)
}

// TableCount is the number of rows in one schema table.
type TableCount struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
}

// Inventory returns the row count of every schema table present in the store.
func (s *Store) Inventory(ctx context.Context) ([]TableCount, error) {
	present, err := s.Tables(ctx)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(present))
	for _, t := range present {
		have[t] = true
	}

	var counts []TableCount
	for _, table := range SchemaTables {
		if !have[table] {
			continue
		}
		n, err := s.bdb.NewSelect().Table(table).Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts = append(counts, TableCount{Table: table, Rows: n})
	}
	return counts, nil
}

// kdfMu guards the engine's process-wide default KDF iteration count, which
// a keyed connection reads when it derives its key.
var kdfMu sync.Mutex

// connector opens SQLCipher connections without registering a global driver.
// It holds the sealed credential and only exposes it while a connection is
// being opened.
type connector struct {
	path   string
	cred   credential.Credential
	opts   Options
	driver *sqlite3.SQLiteDriver
}

func (c *connector) Connect(context.Context) (driver.Conn, error) {
	if c.cred.IsEmpty() {
		return c.driver.Open(c.path + "?" + connParams)
	}

	kdfMu.Lock()
	defer kdfMu.Unlock()
	if err := c.setDefaultKDFIter(); err != nil {
		return nil, err
	}

	secret, err := c.cred.Expose()
	if err != nil {
		return nil, fmt.Errorf("unseal credential: %w", err)
	}
	return c.driver.Open(keyedDSN(c.path, secret, c.opts))
}

func (c *connector) Driver() driver.Driver {
	return c.driver
}

// setDefaultKDFIter sets the iteration count new keys are derived with. The
// driver keys a connection before any statement of ours runs, so a
// per-connection kdf_iter would come too late.
func (c *connector) setDefaultKDFIter() error {
	conn, err := c.driver.Open(":memory:")
	if err != nil {
		return fmt.Errorf("set kdf_iter: %w", err)
	}
	defer conn.Close()

	pragma := fmt.Sprintf("PRAGMA cipher_default_kdf_iter = %d", c.opts.KDFIter)
	if _, err := conn.(*sqlite3.SQLiteConn).Exec(pragma, nil); err != nil {
		return fmt.Errorf("set kdf_iter: %w", err)
	}
	return nil
}

// connParams configures every connection.
const connParams = "_foreign_keys=1&_journal_mode=DELETE"

// keyedDSN returns the DSN that keys a connection with secret. The driver
// applies the key first and renders it as PRAGMA key = "<secret>", so
// double quotes are doubled.
func keyedDSN(path, secret string, opts Options) string {
	q := url.Values{}
	q.Set("_pragma_key", strings.ReplaceAll(secret, `"`, `""`))
	q.Set("_pragma_cipher_page_size", strconv.Itoa(opts.PageSize))
	return path + "?" + q.Encode() + "&" + connParams
}

// openDB opens path with cred and verifies it can be read.
func openDB(ctx context.Context, path string, cred credential.Credential, opts Options) (*sql.DB, error) {
	if !cred.IsEmpty() {
		if err := opts.validate(); err != nil {
			return nil, err
		}
	}
	if strings.ContainsRune(path, '?') {
		return nil, fmt.Errorf("store path %q must not contain '?'", path)
	}

	db := sql.OpenDB(&connector{path: path, cred: cred, opts: opts, driver: &sqlite3.SQLiteDriver{}})

	// Single process, single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	var n int
	if err := db.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master").Scan(&n); err != nil {
		db.Close()
		if !cred.IsEmpty() {
			return nil, fmt.Errorf("%w: %v", ErrLocked, err)
		}
		return nil, fmt.Errorf("read store: %w", err)
	}
	return db, nil
}

// listTables returns the table names of db, sorted.
func listTables(ctx context.Context, db interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

// removeStoreFiles deletes a store file and its sidecars, ignoring errors.
func removeStoreFiles(path string) {
	for _, p := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
}
