package lifecycle

import (
	"context"
	"log/slog"

	"github.com/ghostwipe/ghostwipe/internal/credential"
	"github.com/ghostwipe/ghostwipe/internal/fault"
	"github.com/ghostwipe/ghostwipe/internal/vault"
)

// bootstrap runs first-time setup when no store exists. It is not
// re-entrant: a declined encryption or a mismatched pair ends the run.
func (c *Controller) bootstrap(ctx context.Context, log *slog.Logger) (credential.Credential, error) {
	path := c.cfg.StorePath()
	c.println("First-time setup: No database found.")

	encrypt, err := c.confirm(ctx, "Would you like to encrypt the database? (y/n): ", false)
	if err != nil {
		return credential.Empty(), err
	}
	if !encrypt {
		c.println(errFmt("Database will not be encrypted. Exiting for security reasons."))
		log.Warn("first-run encryption declined")
		return credential.Empty(), fault.Configuration("bootstrap", path, "encryption declined at first run")
	}

	cred, res, err := c.readPair(ctx, "Enter a strong password: ")
	if err != nil {
		return credential.Empty(), err
	}
	switch res {
	case pairMismatch:
		c.println(errFmt("Passwords do not match. Exiting."))
		return credential.Empty(), fault.Mismatch("bootstrap")
	case pairEmpty:
		c.println(errFmt("Password must not be empty. Exiting."))
		return credential.Empty(), fault.Configuration("bootstrap", path, "empty credential at first run")
	case pairInvalid:
		c.println(errFmt("Password contains an invalid character. Exiting."))
		return credential.Empty(), fault.Configuration("bootstrap", path, "invalid credential at first run")
	}

	if err := vault.Create(ctx, path, cred, c.opts); err != nil {
		return credential.Empty(), err
	}
	log.Info("encrypted store created", "path", path, "kdf_iter", c.opts.KDFIter)
	c.printf("%s %s\n", okFmt("Encrypted database created at"), absPath(path))
	return cred, nil
}
