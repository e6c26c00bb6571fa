package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"netsync/internal/adapter"
	"netsync/internal/domain"
	"netsync/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.Repository = (*Repository)(nil)

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	if dbPath != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		namespace TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		fingerprint TEXT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		devices_input INTEGER NOT NULL DEFAULT 0,
		devices_loaded INTEGER NOT NULL DEFAULT 0,
		devices_quarantined INTEGER NOT NULL DEFAULT 0,
		devices_excluded INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS nodes (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		node_id TEXT NOT NULL,
		key JSON NOT NULL,
		attributes JSON NOT NULL,
		children JSON,
		PRIMARY KEY (run_id, position),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS quarantine (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		reason TEXT NOT NULL,
		message TEXT NOT NULL,
		device_id TEXT,
		hostname TEXT,
		record JSON NOT NULL,
		PRIMARY KEY (run_id, position),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(run_id, kind);
	CREATE INDEX IF NOT EXISTS idx_quarantine_reason ON quarantine(run_id, reason);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveRun writes a run with its snapshot and quarantine, replacing any
// earlier write of the same run.
func (r *Repository) SaveRun(ctx context.Context, run *repository.Run, snap *domain.Snapshot, quarantine []adapter.QuarantineRecord) error {
	if run == nil || run.ID == "" {
		return errors.New("run id is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			namespace = excluded.namespace,
			status = excluded.status,
			error = excluded.error,
			fingerprint = excluded.fingerprint,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			devices_input = excluded.devices_input,
			devices_loaded = excluded.devices_loaded,
			devices_quarantined = excluded.devices_quarantined,
			devices_excluded = excluded.devices_excluded
	`, runInsertArgs(run)...); err != nil {
		return fmt.Errorf("failed to upsert run: %w", err)
	}

	// Clear existing children of the run
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to clear nodes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM quarantine WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to clear quarantine: %w", err)
	}

	if snap != nil {
		nodeStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO nodes (run_id, position, kind, node_id, key, attributes, children)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare node statement: %w", err)
		}
		defer nodeStmt.Close()

		for i, node := range snap.Nodes {
			args, err := nodeInsertArgs(run.ID, i, node)
			if err != nil {
				return fmt.Errorf("node %s: %w", node.ID, err)
			}
			if _, err := nodeStmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("failed to insert node %s: %w", node.ID, err)
			}
		}
	}

	if len(quarantine) > 0 {
		qStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO quarantine (run_id, position, reason, message, device_id, hostname, record)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare quarantine statement: %w", err)
		}
		defer qStmt.Close()

		for i, rec := range quarantine {
			args, err := quarantineInsertArgs(run.ID, i, rec)
			if err != nil {
				return err
			}
			if _, err := qStmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("failed to insert quarantine record %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteRun removes a run with its nodes and quarantine
func (r *Repository) DeleteRun(ctx context.Context, id string) error {
	// Nodes and quarantine will be deleted by CASCADE
	_, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// GetRun retrieves a single run by ID
func (r *Repository) GetRun(ctx context.Context, id string) (*repository.Run, error) {
	var row runRow
	err := r.db.QueryRowContext(ctx, `
		SELECT `+runColumns+` FROM runs WHERE id = ?
	`, id).Scan(row.scanArgs()...)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return row.toDomain(), nil
}

// LatestRun returns the most recently started successful run
func (r *Repository) LatestRun(ctx context.Context) (*repository.Run, error) {
	var row runRow
	err := r.db.QueryRowContext(ctx, `
		SELECT `+runColumns+` FROM runs
		WHERE status = ?
		ORDER BY started_at DESC
		LIMIT 1
	`, repository.RunStatusSucceeded).Scan(row.scanArgs()...)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	return row.toDomain(), nil
}

// ListRuns returns runs newest first. A limit of zero or less returns all.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]repository.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []repository.Run
	for rows.Next() {
		var row runRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// GetSnapshot rebuilds the snapshot stored for a run
func (r *Repository) GetSnapshot(ctx context.Context, runID string) (*domain.Snapshot, error) {
	run, err := r.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+nodeColumns+` FROM nodes
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	snap := domain.NewSnapshot(run.ID, run.Namespace)
	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		node, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", row.ID, err)
		}
		snap.Nodes = append(snap.Nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}
	return snap, nil
}

// GetQuarantine returns the quarantined records of a run in their original order
func (r *Repository) GetQuarantine(ctx context.Context, runID string) ([]adapter.QuarantineRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT record FROM quarantine
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quarantine: %w", err)
	}
	defer rows.Close()

	var records []adapter.QuarantineRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan quarantine record: %w", err)
		}
		var rec adapter.QuarantineRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quarantine record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quarantine: %w", err)
	}
	return records, nil
}

// CountQuarantine returns quarantined record counts per reason for a run
func (r *Repository) CountQuarantine(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT reason, COUNT(*) FROM quarantine
		WHERE run_id = ?
		GROUP BY reason
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count quarantine: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			reason string
			count  int
		)
		if err := rows.Scan(&reason, &count); err != nil {
			return nil, fmt.Errorf("failed to scan quarantine count: %w", err)
		}
		counts[reason] = count
	}
	return counts, rows.Err()
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
