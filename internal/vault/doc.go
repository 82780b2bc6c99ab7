// Package vault provides the single-file SQLite store that holds the
// GHOSTWIPE inventory, optionally encrypted at rest with SQLCipher.
//
// The package covers the store's lifecycle primitives:
//   - Open / Create: keyed or plain connections with the configured SQLCipher
//     parameters, and creation of a fresh store with the baseline schema
//   - LoadSchema: idempotent CREATE TABLE IF NOT EXISTS for every model
//   - Detect: classify a path as Absent, Unencrypted or Encrypted without a
//     credential
//   - Rekey: install a new key on an unencrypted or encrypted store,
//     all-or-nothing
//
// # Engines
//
// Keyed access goes through SQLCipher (github.com/mutecomm/go-sqlcipher/v4).
// Detect deliberately uses the stock SQLite engine (modernc.org/sqlite),
// which has no cipher support, so a store it can read is plain by
// construction.
//
// # Database Configuration
//
//   - key / cipher_page_size: carried in the DSN, so the driver applies them
//     before any other statement on the connection
//   - kdf_iter: from Options, set as the engine's default before each keyed
//     connection is opened
//   - journal_mode=DELETE: the store is always one file (never WAL), so a
//     file copy is a complete backup
//   - foreign_keys=ON: enforce referential integrity
//   - one pooled connection: the lifecycle is single-process, single-writer
//
// Credentials stay sealed in the connector and are exposed only while a
// connection opens. They reach the engine as the DSN key (double quotes
// doubled) on open, and as a bound parameter of ATTACH ... KEY ? on rekey.
package vault
