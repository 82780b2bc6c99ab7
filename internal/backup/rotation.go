// Package backup produces dated, numbered copies of the store file and
// restores them when an operator aborts a destructive flow.
//
// # Naming
//
// A backup of base name B taken on day D is named "D.B" (D in YYMMDD form)
// in the store's directory. Later backups of the same day are numbered
// "D.B.1", "D.B.2", ... where a lower number is always more recent. After N
// same-day backups (N ≥ 2) the files are exactly D.B.1 … D.B.N.
//
// # Guarantees
//
//   - An existing backup is never overwritten without operator consent.
//   - Every rename checks its destination first; an occupied destination is
//     a BackupCollision fault instead of a silent overwrite.
//   - Filesystem failures are IO faults and are fatal to the lifecycle.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ghostwipe/ghostwipe/internal/fault"
	"github.com/ghostwipe/ghostwipe/internal/prompt"
)

// DateLayout is the date prefix of backup names (YYMMDD).
const DateLayout = "060102"

// Mode selects whether the store file is copied or moved into the backup.
type Mode int

const (
	// PreservingCopy copies the store; the original stays in place.
	PreservingCopy Mode = iota

	// DestructiveMove renames the store into the backup; the canonical path
	// is left empty pending replacement.
	DestructiveMove
)

// String returns the mode name used in logs.
func (m Mode) String() string {
	switch m {
	case PreservingCopy:
		return "copy"
	case DestructiveMove:
		return "move"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Manager writes rotating backups.
type Manager struct {
	prompter prompt.Prompter
	now      func() time.Time
	logger   *slog.Logger
}

// NewManager creates a Manager. The prompter is asked before an existing
// unnumbered backup is overwritten; now supplies the backup date.
func NewManager(p prompt.Prompter, now func() time.Time, logger *slog.Logger) *Manager {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{prompter: p, now: now, logger: logger}
}

// Backup copies or moves the store at storePath into a new backup named
// after baseName and returns the backup path.
func (m *Manager) Backup(ctx context.Context, storePath, baseName string, mode Mode) (string, error) {
	if _, err := os.Lstat(storePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fault.Configuration("backup", storePath, "store does not exist")
		}
		return "", fault.IO("backup", storePath, err)
	}

	base := filepath.Join(filepath.Dir(storePath), m.now().Format(DateLayout)+"."+baseName)

	baseExists, err := exists(base)
	if err != nil {
		return "", err
	}
	slots, err := numberedSlots(base)
	if err != nil {
		return "", err
	}

	if !baseExists && len(slots) == 0 {
		if err := place(storePath, base, mode, false); err != nil {
			return "", err
		}
		m.logger.Info("backup written", "path", base, "mode", mode)
		return base, nil
	}

	if baseExists {
		label := fmt.Sprintf("Backup %s already exists. Overwrite? (y/N): ", base)
		overwrite, err := prompt.Confirm(ctx, m.prompter, label, false)
		if err != nil {
			return "", fmt.Errorf("backup: %w", err)
		}
		if overwrite {
			if err := place(storePath, base, mode, true); err != nil {
				return "", err
			}
			m.logger.Info("backup overwritten", "path", base, "mode", mode)
			return base, nil
		}
	}

	if err := m.makeRoom(base, 1); err != nil {
		return "", err
	}
	if baseExists {
		if err := m.makeRoom(base, 2); err != nil {
			return "", err
		}
		if err := moveNoClobber(base, slotPath(base, 2)); err != nil {
			return "", err
		}
	}

	target := slotPath(base, 1)
	if err := place(storePath, target, mode, false); err != nil {
		return "", err
	}
	m.logger.Info("backup written", "path", target, "mode", mode)
	return target, nil
}

// makeRoom frees slot s by shifting s, s+1, ... up by one, walking down from
// the first unused slot so no rename ever lands on an occupied name. Slots
// past the first gap are older than everything being shifted and stay put.
func (m *Manager) makeRoom(base string, s int) error {
	free := s
	for {
		ok, err := exists(slotPath(base, free))
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		free++
	}
	for j := free; j > s; j-- {
		if err := moveNoClobber(slotPath(base, j-1), slotPath(base, j)); err != nil {
			return err
		}
		m.logger.Debug("backup shifted", "from", slotPath(base, j-1), "to", slotPath(base, j))
	}
	return nil
}

func slotPath(base string, n int) string {
	return base + "." + strconv.Itoa(n)
}

// numberedSlots returns the slot numbers present for base.
func numberedSlots(base string) ([]int, error) {
	entries, err := os.ReadDir(filepath.Dir(base))
	if err != nil {
		return nil, fault.IO("backup", filepath.Dir(base), err)
	}
	prefix := filepath.Base(base) + "."
	var slots []int
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(name, prefix))
		if err != nil || n < 1 {
			continue
		}
		slots = append(slots, n)
	}
	return slots, nil
}

func exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fault.IO("stat", path, err)
}

// moveNoClobber renames src to dst, refusing to replace an existing dst.
func moveNoClobber(src, dst string) error {
	taken, err := exists(dst)
	if err != nil {
		return err
	}
	if taken {
		return fault.Collision("rename", dst)
	}
	if err := os.Rename(src, dst); err != nil {
		return fault.IO("rename", src, err)
	}
	return nil
}

// place writes the store into dst according to mode. overwrite is only set
// after the operator consented.
func place(storePath, dst string, mode Mode, overwrite bool) error {
	switch mode {
	case DestructiveMove:
		if overwrite {
			if err := os.Rename(storePath, dst); err != nil {
				return fault.IO("backup", storePath, err)
			}
			return nil
		}
		return moveNoClobber(storePath, dst)
	case PreservingCopy:
		if overwrite {
			return copyReplace(storePath, dst)
		}
		return copyExclusive(storePath, dst)
	}
	return fault.Configuration("backup", storePath, fmt.Sprintf("unknown backup mode %v", mode))
}

// copyExclusive copies src to a new file dst; dst must not exist.
func copyExclusive(src, dst string) error {
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fault.Collision("copy", dst)
		}
		return fault.IO("copy", dst, err)
	}
	if err := copyInto(out, src); err != nil {
		_ = os.Remove(dst)
		return fault.IO("copy", dst, err)
	}
	return nil
}

// copyReplace copies src over dst through a temporary file so dst is never
// observed half-written.
func copyReplace(src, dst string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".ghostwipe-backup-*")
	if err != nil {
		return fault.IO("copy", dst, err)
	}
	tmpPath := tmp.Name()
	if err := copyInto(tmp, src); err != nil {
		_ = os.Remove(tmpPath)
		return fault.IO("copy", dst, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return fault.IO("copy", dst, err)
	}
	return nil
}

// copyInto copies src into out, syncs and closes out.
func copyInto(out *os.File, src string) error {
	in, err := os.Open(src)
	if err != nil {
		out.Close()
		return err
	}
	defer in.Close()

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
