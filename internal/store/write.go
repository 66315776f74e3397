package store

import (
	"context"
	"fmt"
)

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate ids are
// silently ignored. Other constraint violations still return errors.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, kernel, kernel_hash, engine_version, mode)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Kernel,
		run.KernelHash,
		run.EngineVersion,
		run.Mode,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	return nil
}

// WriteEdge inserts an edge record.
// Uses ON CONFLICT DO NOTHING: at most one edge exists per
// (run, source, target, variable), and the first recording wins.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteEdge(ctx context.Context, e Edge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO edges
		(run_id, source, target, variable, kind, relation)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		e.RunID,
		e.Source,
		e.Target,
		e.Variable,
		e.Kind,
		e.Relation,
	)
	if err != nil {
		return fmt.Errorf("write edge: %w", err)
	}

	return nil
}

// WriteReport inserts the rendered report for a run.
// Uses ON CONFLICT(run_id) DO NOTHING - each run keeps its first report.
//
// Note: The run referenced by runID must exist (foreign key constraint).
func (s *Store) WriteReport(ctx context.Context, runID, body string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports
		(run_id, body)
		VALUES (?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`, runID, body)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

// HasRun reports whether a run with the given id has been recorded.
func (s *Store) HasRun(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM runs WHERE id = ?
	`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check run: %w", err)
	}
	return count > 0, nil
}

// WriteAnalysis atomically records a run together with its edges and
// rendered report in a single transaction.
//
// Returns inserted=false if the run id was already recorded; in that case
// the edges and report are NOT rewritten (first recording wins). This is
// the crash-safe variant of the non-atomic sequence:
// WriteRun → WriteEdge... → WriteReport.
//
// Edges are recorded under run.ID; the Edge.RunID field is ignored.
func (s *Store) WriteAnalysis(ctx context.Context, run Run, edges []Edge, report string) (inserted bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write analysis: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Step 1: Insert the run (claims the id atomically via primary key)
	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, kernel, kernel_hash, engine_version, mode)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Kernel,
		run.KernelHash,
		run.EngineVersion,
		run.Mode,
	)
	if err != nil {
		return false, fmt.Errorf("write analysis: insert run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write analysis: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Conflict - run already recorded, nothing more to do
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("write analysis: commit (existing): %w", err)
		}
		return false, nil
	}

	// Step 2: Insert edges
	for _, e := range edges {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO edges
			(run_id, source, target, variable, kind, relation)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`,
			run.ID,
			e.Source,
			e.Target,
			e.Variable,
			e.Kind,
			e.Relation,
		)
		if err != nil {
			return false, fmt.Errorf("write analysis: insert edge %s -> %s: %w", e.Source, e.Target, err)
		}
	}

	// Step 3: Insert the report
	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports
		(run_id, body)
		VALUES (?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`, run.ID, report)
	if err != nil {
		return false, fmt.Errorf("write analysis: insert report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write analysis: commit: %w", err)
	}

	return true, nil
}
