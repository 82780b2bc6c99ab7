package lifecycle

import (
	"context"
	"fmt"

	"github.com/ghostwipe/ghostwipe/internal/backup"
	"github.com/ghostwipe/ghostwipe/internal/config"
	"github.com/ghostwipe/ghostwipe/internal/fault"
	"github.com/ghostwipe/ghostwipe/internal/vault"
)

// RotateKey changes the credential of an encrypted store. The current
// credential is checked before anything is written, and a preserving backup
// is taken before the rekey. Declining to retry a mismatched new pair
// cancels without changes.
func (c *Controller) RotateKey(ctx context.Context) error {
	log := c.logger.With("run_id", c.runIDs.Generate())
	path := c.cfg.StorePath()

	d, err := vault.Detect(ctx, path)
	if err != nil {
		return err
	}
	switch d.State {
	case vault.Absent:
		return fault.Configuration("rekey", path, "store does not exist")
	case vault.Unencrypted:
		return fault.Configuration("rekey", path, "store is not encrypted; run the launcher to encrypt it")
	}

	current, err := c.readCredential(ctx, "Enter current database password: ")
	if err != nil {
		return err
	}
	s, err := vault.Open(ctx, path, current, c.opts)
	if err != nil {
		c.println(errFmt("Current password is incorrect."))
		return err
	}
	if err := s.Close(); err != nil {
		return fault.IO("rekey", path, err)
	}

	next, ok, err := c.collectPair(ctx, "Enter a new strong password: ")
	if err != nil {
		return err
	}
	if !ok {
		c.println("Key rotation cancelled.")
		return nil
	}

	backupPath, err := c.backups.Backup(ctx, path, config.PreRekeyBase, backup.PreservingCopy)
	if err != nil {
		return err
	}
	c.printf("Backed up database to %s\n", absPath(backupPath))

	if err := vault.Rekey(ctx, path, next, current, c.opts); err != nil {
		log.Error("key rotation failed", "path", path, "error", err)
		c.println(errFmt(fmt.Sprintf("Encryption error: %v", err)))
		return err
	}

	log.Info("store key rotated", "path", path, "backup", backupPath)
	c.println(okFmt("Database key rotated successfully."))
	return nil
}
