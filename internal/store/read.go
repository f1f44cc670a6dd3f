package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, architecture, program_digest, placement, status, analyzer_version, ir_version, source
		FROM runs
		WHERE id = ?
	`, id)

	var r Run
	if err := row.Scan(
		&r.ID, &r.Architecture, &r.ProgramDigest, &r.Placement,
		&r.Status, &r.AnalyzerVersion, &r.IRVersion, &r.Source,
	); err != nil {
		return Run{}, err
	}
	return r, nil
}

// ReadRuns returns all runs in insertion order.
// Returns an empty slice (not nil) if the store holds no runs.
func (s *Store) ReadRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, architecture, program_digest, placement, status, analyzer_version, ir_version, source
		FROM runs
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(
			&r.ID, &r.Architecture, &r.ProgramDigest, &r.Placement,
			&r.Status, &r.AnalyzerVersion, &r.IRVersion, &r.Source,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadPatch retrieves the patch report of a run.
// Returns sql.ErrNoRows if the run has none.
func (s *Store) ReadPatch(ctx context.Context, runID string) (PatchSummary, error) {
	p := PatchSummary{RunID: runID}
	err := s.db.QueryRowContext(ctx, `
		SELECT seq, blocks_scanned, blocks_patched, synthesized
		FROM patches
		WHERE run_id = ?
	`, runID).Scan(&p.Seq, &p.BlocksScanned, &p.BlocksPatched, &p.Synthesized)
	if err != nil {
		return PatchSummary{}, err
	}
	return p, nil
}

// ReadBindings returns the bindings of a run.
// Results are ordered deterministically: ORDER BY seq ASC, callee ASC COLLATE BINARY.
func (s *Store) ReadBindings(ctx context.Context, runID string) ([]Binding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT callee, seq, status, convention, arguments_size
		FROM conventions
		WHERE run_id = ?
		ORDER BY seq ASC, callee COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query bindings: %w", err)
	}
	defer rows.Close()

	bindings := []Binding{}
	for rows.Next() {
		b := Binding{RunID: runID}
		var size sql.NullInt64
		if err := rows.Scan(&b.Callee, &b.Seq, &b.Status, &b.Convention, &size); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		if size.Valid {
			v := size.Int64
			b.ArgumentsSize = &v
		}
		bindings = append(bindings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bindings: %w", err)
	}
	return bindings, nil
}

// ReadDataflows returns the dataflow summaries of a run.
// Results are ordered deterministically: ORDER BY seq ASC, entry ASC.
func (s *Store) ReadDataflows(ctx context.Context, runID string) ([]DataflowSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entry, function, seq, dataflow_id, complete, terms, known, visits
		FROM dataflows
		WHERE run_id = ?
		ORDER BY seq ASC, entry ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query dataflows: %w", err)
	}
	defer rows.Close()

	summaries := []DataflowSummary{}
	for rows.Next() {
		d := DataflowSummary{RunID: runID}
		var entry int64
		if err := rows.Scan(&entry, &d.Function, &d.Seq, &d.DataflowID, &d.Complete, &d.Terms, &d.Known, &d.Visits); err != nil {
			return nil, fmt.Errorf("scan dataflow: %w", err)
		}
		d.Entry = uint64(entry)
		summaries = append(summaries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dataflows: %w", err)
	}
	return summaries, nil
}

// ReadSnapshot retrieves the program snapshot of a run.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSnapshot(ctx context.Context, runID string) (Snapshot, error) {
	snap := Snapshot{RunID: runID}
	err := s.db.QueryRowContext(ctx, `
		SELECT digest, snapshot FROM snapshots WHERE run_id = ?
	`, runID).Scan(&snap.Digest, &snap.Snapshot)
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
