package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"netsync/internal/adapter"
	"netsync/internal/domain"
	"netsync/internal/repository"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals v to a nullable JSON string.
// Returns empty NullString for nil and empty slices.
func marshalToNull(v interface{}) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}

	// Don't store "[]" for nodes without children
	if refs, ok := v.([]domain.Ref); ok && len(refs) == 0 {
		return sql.NullString{}, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a new column to the runs table:
// 1. Add field to runRow struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update runColumns constant - APPEND to end
// 4. Update toDomain() and runInsertArgs()
// 5. Add the column to the schema in sqlite.go migrate()
// 6. Update relevant tests
//
// CRITICAL: Column order must match between:
// - runColumns constant
// - scanArgs() return slice
// - runInsertArgs() return slice
//
// Same pattern applies to nodes and quarantine.

// ============================================================================
// Run Row Scanner
// ============================================================================

// runRow holds all columns from a run query for scanning
type runRow struct {
	ID                 string
	Namespace          string
	Status             string
	Error              sql.NullString
	Fingerprint        sql.NullString
	StartedAt          time.Time
	FinishedAt         time.Time
	DevicesInput       int
	DevicesLoaded      int
	DevicesQuarantined int
	DevicesExcluded    int
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match runColumns order exactly:
// id, namespace, status, error, fingerprint, started_at, finished_at,
// devices_input, devices_loaded, devices_quarantined, devices_excluded
func (r *runRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,                 // 1
		&r.Namespace,          // 2
		&r.Status,             // 3
		&r.Error,              // 4
		&r.Fingerprint,        // 5
		&r.StartedAt,          // 6
		&r.FinishedAt,         // 7
		&r.DevicesInput,       // 8
		&r.DevicesLoaded,      // 9
		&r.DevicesQuarantined, // 10
		&r.DevicesExcluded,    // 11
	}
}

// toDomain converts the scanned row to a repository.Run
func (r *runRow) toDomain() *repository.Run {
	return &repository.Run{
		ID:          r.ID,
		Namespace:   r.Namespace,
		Status:      r.Status,
		Error:       nullToString(r.Error),
		Fingerprint: nullToString(r.Fingerprint),
		StartedAt:   r.StartedAt.UTC(),
		FinishedAt:  r.FinishedAt.UTC(),
		Stats: adapter.Stats{
			Input:       r.DevicesInput,
			Loaded:      r.DevicesLoaded,
			Quarantined: r.DevicesQuarantined,
			Excluded:    r.DevicesExcluded,
		},
	}
}

// runColumns is the SELECT column list for run queries
const runColumns = `id, namespace, status, error, fingerprint, started_at, finished_at,
	devices_input, devices_loaded, devices_quarantined, devices_excluded`

// runInsertArgs prepares arguments for run INSERT/UPSERT in runColumns order
func runInsertArgs(run *repository.Run) []interface{} {
	return []interface{}{
		run.ID,
		run.Namespace,
		run.Status,
		stringToNull(run.Error),
		stringToNull(run.Fingerprint),
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
		run.Stats.Input,
		run.Stats.Loaded,
		run.Stats.Quarantined,
		run.Stats.Excluded,
	}
}

// ============================================================================
// Node Row Scanner
// ============================================================================

// nodeRow holds all columns from a node query for scanning
type nodeRow struct {
	Kind           string
	ID             string
	KeyJSON        string
	AttributesJSON string
	ChildrenJSON   sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match nodeColumns order exactly:
// kind, node_id, key, attributes, children
func (r *nodeRow) scanArgs() []interface{} {
	return []interface{}{
		&r.Kind,           // 1
		&r.ID,             // 2
		&r.KeyJSON,        // 3
		&r.AttributesJSON, // 4
		&r.ChildrenJSON,   // 5
	}
}

// toDomain converts the scanned row to a domain.SnapshotNode
func (r *nodeRow) toDomain() (domain.SnapshotNode, error) {
	node := domain.SnapshotNode{
		Kind:       domain.Kind(r.Kind),
		ID:         r.ID,
		Attributes: json.RawMessage(r.AttributesJSON),
	}

	if err := json.Unmarshal([]byte(r.KeyJSON), &node.Key); err != nil {
		return node, fmt.Errorf("unmarshal key: %w", err)
	}

	if err := unmarshalJSONField(r.ChildrenJSON, &node.Children); err != nil {
		return node, fmt.Errorf("unmarshal children: %w", err)
	}

	return node, nil
}

// nodeColumns is the SELECT column list for node queries
const nodeColumns = `kind, node_id, key, attributes, children`

// nodeInsertArgs prepares arguments for node INSERT
// Returns: run_id, position, kind, node_id, key, attributes, children
func nodeInsertArgs(runID string, position int, node domain.SnapshotNode) ([]interface{}, error) {
	keyJSON, err := json.Marshal(node.Key)
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}

	childrenJSON, err := marshalToNull(node.Children)
	if err != nil {
		return nil, fmt.Errorf("marshal children: %w", err)
	}

	return []interface{}{
		runID,
		position,
		string(node.Kind),
		node.ID,
		string(keyJSON),
		string(node.Attributes),
		childrenJSON,
	}, nil
}

// ============================================================================
// Quarantine Helpers
// ============================================================================

// quarantineInsertArgs prepares arguments for quarantine INSERT
// Returns: run_id, position, reason, message, device_id, hostname, record
func quarantineInsertArgs(runID string, position int, rec adapter.QuarantineRecord) ([]interface{}, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal quarantine record: %w", err)
	}

	return []interface{}{
		runID,
		position,
		rec.Reason,
		rec.Message,
		stringToNull(rec.Device.ID),
		stringToNull(rec.Device.Hostname),
		string(data),
	}, nil
}
