package lifecycle

import (
	"context"

	"github.com/ghostwipe/ghostwipe/internal/backup"
	"github.com/ghostwipe/ghostwipe/internal/config"
	"github.com/ghostwipe/ghostwipe/internal/credential"
	"github.com/ghostwipe/ghostwipe/internal/vault"
)

// DevBypass replaces the store with a new unencrypted one without asking for
// any credential. An existing store is first copied to a backup; an absent
// store needs none. It returns the backup path, or "" when nothing was
// backed up.
//
// Anyone who knows the command can run this. The old store survives in its
// backup, but the live store is downgraded to plaintext.
func (c *Controller) DevBypass(ctx context.Context) (string, error) {
	log := c.logger.With("run_id", c.runIDs.Generate())
	path := c.cfg.StorePath()

	d, err := vault.Detect(ctx, path)
	if err != nil {
		return "", err
	}

	var backupPath string
	if d.State != vault.Absent {
		backupPath, err = c.backups.Backup(ctx, path, config.BackupBase, backup.PreservingCopy)
		if err != nil {
			return "", err
		}
		c.printf("Backed up database to %s\n", absPath(backupPath))
	}

	if err := backup.RemoveResidual(path); err != nil {
		return backupPath, err
	}
	if err := vault.Create(ctx, path, credential.Empty(), c.opts); err != nil {
		return backupPath, err
	}

	log.Warn("dev bypass provisioned an unencrypted store",
		"path", path, "previous_state", d.State.String(), "backup", backupPath)
	c.println(warnFmt("Provisioned a new unencrypted database (dev bypass)."))
	return backupPath, nil
}
