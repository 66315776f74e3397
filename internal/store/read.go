package store

import (
	"context"
	"fmt"
)

// ReadRun retrieves a single run by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kernel, kernel_hash, engine_version, mode
		FROM runs
		WHERE id = ?
	`, id)

	var r Run
	if err := row.Scan(&r.ID, &r.Kernel, &r.KernelHash, &r.EngineVersion, &r.Mode); err != nil {
		return Run{}, err
	}
	return r, nil
}

// LatestRun returns the most recent run recorded for a kernel.
// UUIDv7 ids sort by creation time, so the binary-collated maximum id
// is the newest run. Returns sql.ErrNoRows if the kernel has no runs.
func (s *Store) LatestRun(ctx context.Context, kernel string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kernel, kernel_hash, engine_version, mode
		FROM runs
		WHERE kernel = ?
		ORDER BY id COLLATE BINARY DESC
		LIMIT 1
	`, kernel)

	var r Run
	if err := row.Scan(&r.ID, &r.Kernel, &r.KernelHash, &r.EngineVersion, &r.Mode); err != nil {
		return Run{}, err
	}
	return r, nil
}

// ListRuns returns all recorded runs in creation order.
// Results are ordered by id COLLATE BINARY for deterministic output
// across SQLite versions.
//
// Returns an empty slice (not nil) if the database has no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kernel, kernel_hash, engine_version, mode
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Kernel, &r.KernelHash, &r.EngineVersion, &r.Mode); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	// Return empty slice instead of nil
	if runs == nil {
		runs = []Run{}
	}

	return runs, nil
}

// ReadEdges returns all edges recorded for a run.
// Results are ordered deterministically: source, then target, then
// variable, all COLLATE BINARY.
//
// Returns an empty slice (not nil) if the run has no edges.
func (s *Store) ReadEdges(ctx context.Context, runID string) ([]Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, source, target, variable, kind, relation
		FROM edges
		WHERE run_id = ?
		ORDER BY source COLLATE BINARY ASC, target COLLATE BINARY ASC, variable COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.RunID, &e.Source, &e.Target, &e.Variable, &e.Kind, &e.Relation); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}

	// Return empty slice instead of nil
	if edges == nil {
		edges = []Edge{}
	}

	return edges, nil
}

// ReadReport returns the rendered report recorded for a run.
// Returns sql.ErrNoRows if the run has no report.
func (s *Store) ReadReport(ctx context.Context, runID string) (string, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT body FROM reports WHERE run_id = ?
	`, runID).Scan(&body)
	if err != nil {
		return "", err
	}
	return body, nil
}
