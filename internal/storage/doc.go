// Package storage persists the command lifecycle journal.
//
// The journal is append-only. It is a record of what the scheduler did (which
// command ran, for how long, why it ended) for post-match review; nothing is ever
// read back into the scheduler.
//
// Drivers:
//   - "file": JSON Lines, one record per line
//   - "sqlite": a single SQLite database file (pure Go driver)
package storage
