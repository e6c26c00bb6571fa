// Package service coordinates a load run for the netsync CLI.
//
// SyncService sits between the command line and the load pipeline. It runs
// the adapter against a controller source, then hands the result to the
// collaborators that care about it.
//
// # Run Flow
//
// A run loads the inventory into a fresh store, records metrics, persists
// the snapshot and quarantine to the repository and optionally exports the
// snapshot to a file. Failed runs are persisted too, without a snapshot, so
// the run history shows them.
//
// Each collaborator is optional: a nil repository skips persistence, an
// empty export path skips the file export.
//
// # Event System
//
// Run progress is published on an EventBus. Subscribers that fall behind
// miss events rather than block the run.
package service
