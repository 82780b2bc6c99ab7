// Package harness runs operator scenarios against the store lifecycle.
//
// A scenario prepares a data directory (no store, an unencrypted store, or an
// encrypted one, plus any backups already on disk), feeds a scripted list of
// operator answers to one lifecycle operation, and checks the outcome and the
// files left behind.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	store:
//	  state: unencrypted        # absent | unencrypted | encrypted
//	  secret: ""                # password of an encrypted store
//	  users: 1                  # rows seeded into users
//	backups:
//	  - 261019.pii_data.db.pre_encrypt.bak
//	run: resolve                # resolve | rotate_key | dev_bypass | backup_now
//	answers: ["1", "abc123", "abc123", "^C"]
//	expect:
//	  outcome: credential       # credential | ok | quit | error
//	  secret: abc123
//	assertions:
//	  - type: store_state
//	    state: encrypted
//	  - type: backup_count
//	    base: pii_data.db.pre_encrypt.bak
//	    count: 2
//	golden: true
//
// An answer of "^C" is an interrupt. Backups listed under backups are copies
// of the seeded store (or placeholder bytes when there is no store).
//
// # Assertion Types
//
//   - store_state: the detected state of the store
//   - store_opens: the store opens with secret and holds users rows
//   - store_unchanged: the store is byte-identical to the seeded one
//   - backup_count: number of backups, optionally of one base name
//   - output_contains: the operator transcript contains text
//   - answers_consumed: every scripted answer was read
//
// # Deterministic Testing
//
// Every scenario runs in its own directory with the clock fixed to the
// scenario date (default 2026-10-19) and the run id fixed to the scenario
// name. The transcript replaces the data directory with "$DATA", so golden
// files compare across machines.
package harness
