package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"

	"github.com/ghostwipe/ghostwipe/internal/credential"
	"github.com/ghostwipe/ghostwipe/internal/fault"
)

const exportSchema = "rekeyed"

// Rekey installs newCred as the key of the store at path, which must open
// with openingCred (empty for a plain store). The store is exported into a
// temporary file keyed with newCred, the export is verified, and only then
// is it renamed over path. On any failure the store at path is unchanged.
func Rekey(ctx context.Context, path string, newCred, openingCred credential.Credential, opts Options) error {
	return (&rekeyer{}).run(ctx, path, newCred, openingCred, opts)
}

type rekeyer struct {
	// afterExport runs between a successful export and its verification.
	afterExport func(tmp string) error
}

func (r *rekeyer) run(ctx context.Context, path string, newCred, openingCred credential.Credential, opts Options) error {
	if newCred.IsEmpty() {
		return fault.Engine("rekey", path, errors.New("new credential must not be empty"))
	}
	if err := opts.validate(); err != nil {
		return fault.Engine("rekey", path, err)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fault.Configuration("rekey", path, "store does not exist")
		}
		return fault.IO("rekey", path, err)
	}

	src, err := openDB(ctx, path, openingCred, opts)
	if err != nil {
		return fault.Engine("rekey", path, err)
	}

	tmp := filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.%s.rekey", filepath.Base(path), uuid.NewString()))
	discard := func() { removeStoreFiles(tmp) }

	tables, err := listTables(ctx, src)
	if err == nil {
		err = export(ctx, src, tmp, newCred, opts)
	}
	if cerr := src.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close store: %w", cerr)
	}
	if err != nil {
		discard()
		return fault.Engine("rekey", path, err)
	}

	if r.afterExport != nil {
		if err := r.afterExport(tmp); err != nil {
			discard()
			return fault.Engine("rekey", path, err)
		}
	}

	if err := verifyExport(ctx, tmp, newCred, opts, tables); err != nil {
		discard()
		return fault.Engine("rekey", path, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		discard()
		return fault.IO("rekey", path, err)
	}
	return nil
}

// export copies the open database into a new file at tmp keyed with newCred.
func export(ctx context.Context, db *sql.DB, tmp string, newCred credential.Credential, opts Options) error {
	secret, err := newCred.Expose()
	if err != nil {
		return fmt.Errorf("unseal credential: %w", err)
	}

	// ATTACH and the export must run on the same connection.
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "ATTACH DATABASE ? AS "+exportSchema+" KEY ?", tmp, secret); err != nil {
		return fmt.Errorf("attach export target: %w", err)
	}
	attached := true
	defer func() {
		if attached {
			_, _ = conn.ExecContext(context.Background(), "DETACH DATABASE "+exportSchema)
		}
	}()

	var version int
	if err := conn.QueryRowContext(ctx, "PRAGMA main.user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	stmts := []string{
		fmt.Sprintf("PRAGMA %s.kdf_iter = %d", exportSchema, opts.KDFIter),
		fmt.Sprintf("PRAGMA %s.cipher_page_size = %d", exportSchema, opts.PageSize),
		fmt.Sprintf("SELECT sqlcipher_export('%s')", exportSchema),
		fmt.Sprintf("PRAGMA %s.user_version = %d", exportSchema, version),
	}
	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}

	if _, err := conn.ExecContext(ctx, "DETACH DATABASE "+exportSchema); err != nil {
		return fmt.Errorf("detach export target: %w", err)
	}
	attached = false
	return nil
}

// verifyExport proves tmp opens with cred and holds the expected tables.
func verifyExport(ctx context.Context, tmp string, cred credential.Credential, opts Options, want []string) error {
	db, err := openDB(ctx, tmp, cred, opts)
	if err != nil {
		return fmt.Errorf("verify export: %w", err)
	}
	defer db.Close()

	got, err := listTables(ctx, db)
	if err != nil {
		return fmt.Errorf("verify export: %w", err)
	}
	if !slices.Equal(got, want) {
		return fmt.Errorf("verify export: tables %v, want %v", got, want)
	}
	return nil
}
