// Package store is the prodtest run ledger, kept in SQLite.
//
// The ledger records:
//   - Runs: start and end time and pass/fail/error totals
//   - Fixtures: how each fixture table was provided (loaded or reused)
//   - Outcomes: the status and message of every scenario, in run order
//
// Store implements harness.Recorder, so a Runner writes to it as the run
// progresses; an interrupted run keeps the outcomes recorded so far and has
// no finished_at.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Times are stored as RFC 3339 text in UTC.
package store
