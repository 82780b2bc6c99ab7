package backup

import (
	"errors"
	"os"

	"github.com/ghostwipe/ghostwipe/internal/fault"
)

// sidecarSuffixes are the SQLite companion files that belong to a store.
var sidecarSuffixes = []string{"-journal", "-wal", "-shm"}

// Revert renames backupPath back to storePath after an aborted new-store
// flow, so the canonical path is never left empty.
//
// It never replaces a file that reappeared at storePath; that case, and any
// rename failure, is an IO fault the caller must treat as fatal.
func Revert(backupPath, storePath string) error {
	taken, err := exists(storePath)
	if err != nil {
		return err
	}
	if taken {
		return fault.New(fault.KindIO, "revert", storePath, "store path reappeared; refusing to overwrite it")
	}
	if _, err := os.Lstat(backupPath); err != nil {
		return fault.IO("revert", backupPath, err)
	}
	if err := os.Rename(backupPath, storePath); err != nil {
		return fault.IO("revert", backupPath, err)
	}
	return nil
}

// RemoveResidual deletes a leftover file at storePath, and its SQLite
// sidecars, before a fresh store is written there. Missing files are fine.
func RemoveResidual(storePath string) error {
	paths := []string{storePath}
	for _, suffix := range sidecarSuffixes {
		paths = append(paths, storePath+suffix)
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fault.IO("remove residual", p, err)
		}
	}
	return nil
}
