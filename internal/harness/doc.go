// Package harness runs product test scenarios against a query engine and
// the wide-column store behind it.
//
// # Requirements
//
// A scenario declares the fixture tables it reads:
//
//	Requires: []harness.Requirement{harness.ImmutableTable(catalog.CassandraSupplier)}
//
// Before any scenario runs, the Fulfiller makes each distinct table
// available: it creates the keyspace, reuses an existing table whose row
// count matches, and otherwise recreates the table from its template and
// loads it from the TPC-H generator.
//
// # Scenarios
//
// A scenario body receives a *Context. It queries the engine with OnEngine,
// runs statements directly on the store with OnStore, and registers undo
// work with Cleanup or CleanupOnStore. Cleanups run in reverse order when
// the body returns, panics or fails.
//
// Results are checked with ContainsOnly, Contains, ContainsExactlyInOrder,
// HasRowsCount and CellEquals. They return *AssertionError, which marks the
// scenario as failed. Every other error, including *TimeoutError from
// ContainsEventually, marks it as errored.
//
// # Convention scenarios
//
// Scenarios can also be declared in YAML files; see ConventionScenario.
// Files are checked against an embedded CUE schema before decoding, and
// statements may use ${connector} and ${keyspace}.
//
// # Runs
//
// Runner executes scenarios sequentially and produces a Report. A Recorder
// (the SQLite ledger in package store) receives the run as it progresses.
package harness
