package lifecycle

import (
	"context"

	"github.com/ghostwipe/ghostwipe/internal/backup"
	"github.com/ghostwipe/ghostwipe/internal/config"
	"github.com/ghostwipe/ghostwipe/internal/fault"
	"github.com/ghostwipe/ghostwipe/internal/vault"
)

// BackupNow copies the store to a new backup under the default base name and
// returns the backup path. The store is left in place.
func (c *Controller) BackupNow(ctx context.Context) (string, error) {
	log := c.logger.With("run_id", c.runIDs.Generate())
	path := c.cfg.StorePath()

	d, err := vault.Detect(ctx, path)
	if err != nil {
		return "", err
	}
	if d.State == vault.Absent {
		return "", fault.Configuration("backup", path, "no database to back up")
	}

	backupPath, err := c.backups.Backup(ctx, path, config.BackupBase, backup.PreservingCopy)
	if err != nil {
		return "", err
	}
	log.Info("manual backup", "path", backupPath, "state", d.State.String())
	return backupPath, nil
}
