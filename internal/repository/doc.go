// Package repository defines the data access interface for load runs.
//
// Each run is stored with its summary, the snapshot of the loaded graph and
// the quarantined device records, so the diff engine can pick up the latest
// successful run and operators can inspect what was rejected. The actual
// implementation is in the sqlite subpackage.
//
// # Run Lifecycle
//
// A run is written once, when the load finishes. Failed runs are recorded
// without a snapshot so their error stays visible next to the successful
// ones.
//
// # SQLite Implementation
//
// The sqlite implementation uses modernc.org/sqlite with WAL mode. It
// handles:
//
// - Transactional writes of a run with its nodes and quarantine
// - JSON serialization of node keys, attributes and children
// - Cascade deletes of a run's nodes and quarantine
//
// # Testing
//
// The sqlite repository is tested against temporary database files.
package repository
