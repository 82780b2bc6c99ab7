package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ghostwipe/ghostwipe/internal/backup"
	"github.com/ghostwipe/ghostwipe/internal/config"
	"github.com/ghostwipe/ghostwipe/internal/credential"
	"github.com/ghostwipe/ghostwipe/internal/fault"
	"github.com/ghostwipe/ghostwipe/internal/prompt"
	"github.com/ghostwipe/ghostwipe/internal/vault"
)

const menuText = `Options:
1: Encrypt the database
2: Create a new database
3: Close GHOSTWIPE Launcher`

// unencryptedMenu offers to encrypt the store, replace it, or quit, until
// one of the flows yields a credential.
func (c *Controller) unencryptedMenu(ctx context.Context, log *slog.Logger) (credential.Credential, error) {
	for {
		c.println(menuText)
		choice, err := c.prompter.Line(ctx, "Enter choice (1/2/3): ")
		if errors.Is(err, prompt.ErrInterrupted) || errors.Is(err, prompt.ErrClosed) {
			return c.quit(log)
		}
		if err != nil {
			return credential.Empty(), err
		}

		var (
			cred credential.Credential
			done bool
		)
		switch choice {
		case "1":
			cred, done, err = c.encryptExisting(ctx, log)
		case "2":
			cred, done, err = c.createNew(ctx, log)
		case "3":
			return c.quit(log)
		default:
			c.println("Invalid choice. Try again.")
			continue
		}
		if err != nil {
			return credential.Empty(), err
		}
		if done {
			return cred, nil
		}
	}
}

func (c *Controller) quit(log *slog.Logger) (credential.Credential, error) {
	c.println("Closing GHOSTWIPE.")
	log.Info("launcher closed from menu")
	return credential.Empty(), ErrQuit
}

// encryptExisting encrypts the unencrypted store in place after a preserving
// backup. done=false returns to the menu with the store unchanged.
func (c *Controller) encryptExisting(ctx context.Context, log *slog.Logger) (credential.Credential, bool, error) {
	path := c.cfg.StorePath()

	cred, ok, err := c.collectPair(ctx, "Enter a strong password: ")
	if err != nil || !ok {
		return credential.Empty(), false, err
	}

	backupPath, err := c.backups.Backup(ctx, path, config.PreEncryptBase, backup.PreservingCopy)
	if err != nil {
		return credential.Empty(), false, err
	}
	c.printf("Backed up database to %s\n", absPath(backupPath))

	if err := vault.Rekey(ctx, path, cred, credential.Empty(), c.opts); err != nil {
		if fault.Is(err, fault.KindEncryptionEngine) {
			log.Error("encryption failed", "path", path, "error", err)
			c.println(errFmt(fmt.Sprintf("Encryption error: %v", err)))
			return credential.Empty(), false, nil
		}
		return credential.Empty(), false, err
	}

	log.Info("store encrypted", "path", path, "backup", backupPath, "kdf_iter", c.opts.KDFIter)
	c.println(okFmt("Database encrypted successfully."))
	return cred, true, nil
}

// createNew moves the store into a backup and provisions a fresh encrypted
// store. Declining to retry a mismatched pair moves the backup back.
func (c *Controller) createNew(ctx context.Context, log *slog.Logger) (credential.Credential, bool, error) {
	path := c.cfg.StorePath()

	backupPath, err := c.backups.Backup(ctx, path, config.BackupBase, backup.DestructiveMove)
	if err != nil {
		return credential.Empty(), false, err
	}
	c.printf("Backed up old DB to full path: %s.\n", absPath(backupPath))
	log.Info("store moved to backup", "backup", backupPath)

	cred, ok, err := c.collectPair(ctx, "Enter a strong password for new DB: ")
	if err != nil {
		return credential.Empty(), false, c.abortCreate(backupPath, log, err)
	}
	if !ok {
		if err := backup.Revert(backupPath, path); err != nil {
			return credential.Empty(), false, err
		}
		log.Info("store restored from backup", "backup", backupPath)
		c.printf("Reverting database file to %s\n\n", absPath(path))
		return credential.Empty(), false, nil
	}

	if err := backup.RemoveResidual(path); err != nil {
		return credential.Empty(), false, c.abortCreate(backupPath, log, err)
	}
	if err := vault.Create(ctx, path, cred, c.opts); err != nil {
		return credential.Empty(), false, c.abortCreate(backupPath, log, err)
	}

	log.Info("new encrypted store created", "path", path, "previous", backupPath)
	c.println(okFmt("New encrypted database created."))
	return cred, true, nil
}

// abortCreate puts the moved store back after the create flow failed, so
// the canonical path is never left empty. cause is returned unless the
// restore itself fails.
func (c *Controller) abortCreate(backupPath string, log *slog.Logger, cause error) error {
	path := c.cfg.StorePath()
	if err := backup.RemoveResidual(path); err != nil {
		return errors.Join(cause, err)
	}
	if err := backup.Revert(backupPath, path); err != nil {
		return errors.Join(cause, err)
	}
	log.Warn("create flow aborted; store restored", "backup", backupPath, "error", cause)
	return cause
}
