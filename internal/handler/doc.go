// Package handler implements the HTTP API served by netsync watch.
//
// # Endpoints
//
// RunHandler exposes the run history kept by the repository:
//
//   - GET /api/runs lists runs newest first (?limit=N, 0 for all)
//   - GET /api/runs/latest returns the latest successful run
//   - GET /api/runs/{id} returns one run
//   - GET /api/runs/{id}/snapshot exports its snapshot (?format=json|yaml)
//   - GET /api/runs/{id}/quarantine returns its quarantined devices
//   - POST /api/load starts a load when a trigger is configured
//
// # Response Format
//
// Success responses return JSON data with status 200. Error responses
// return JSON with {error, details} structure.
//
// # Middleware
//
// Chain composes Recover and Logger around the mux.
package handler
