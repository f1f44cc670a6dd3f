package store

import (
	"context"
	"fmt"
)

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, architecture, program_digest, placement, status, analyzer_version, ir_version, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Architecture,
		run.ProgramDigest,
		run.Placement,
		run.Status,
		run.AnalyzerVersion,
		run.IRVersion,
		run.Source,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// CompleteRun sets the final status of a run.
// Returns an error if the run does not exist.
func (s *Store) CompleteRun(ctx context.Context, runID, status string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ? WHERE id = ?
	`, status, runID)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete run: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("complete run: unknown run %q", runID)
	}
	return nil
}

// WritePatch records the patch report of a run.
// A run has one patch phase; a second write replaces the first.
func (s *Store) WritePatch(ctx context.Context, p PatchSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO patches
		(run_id, seq, blocks_scanned, blocks_patched, synthesized)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			seq = excluded.seq,
			blocks_scanned = excluded.blocks_scanned,
			blocks_patched = excluded.blocks_patched,
			synthesized = excluded.synthesized
	`,
		p.RunID,
		p.Seq,
		p.BlocksScanned,
		p.BlocksPatched,
		p.Synthesized,
	)
	if err != nil {
		return fmt.Errorf("write patch: %w", err)
	}
	return nil
}

// WriteBinding records a callee's convention binding.
// Last write wins: the whole row is replaced, so a binding without an
// arguments size clears a previously recorded one.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteBinding(ctx context.Context, b Binding) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conventions
		(run_id, callee, seq, status, convention, arguments_size)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, callee) DO UPDATE SET
			seq = excluded.seq,
			status = excluded.status,
			convention = excluded.convention,
			arguments_size = excluded.arguments_size
	`,
		b.RunID,
		b.Callee,
		b.Seq,
		b.Status,
		b.Convention,
		b.ArgumentsSize,
	)
	if err != nil {
		return fmt.Errorf("write binding: %w", err)
	}
	return nil
}

// WriteDataflow records the dataflow summary of a function, replacing any
// earlier summary for the same entry.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteDataflow(ctx context.Context, d DataflowSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dataflows
		(run_id, entry, function, seq, dataflow_id, complete, terms, known, visits)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, entry) DO UPDATE SET
			function = excluded.function,
			seq = excluded.seq,
			dataflow_id = excluded.dataflow_id,
			complete = excluded.complete,
			terms = excluded.terms,
			known = excluded.known,
			visits = excluded.visits
	`,
		d.RunID,
		int64(d.Entry),
		d.Function,
		d.Seq,
		d.DataflowID,
		d.Complete,
		d.Terms,
		d.Known,
		d.Visits,
	)
	if err != nil {
		return fmt.Errorf("write dataflow: %w", err)
	}
	return nil
}

// WriteSnapshot stores the canonical program snapshot of a run.
// The snapshot map is serialized to RFC 8785 canonical JSON.
func (s *Store) WriteSnapshot(ctx context.Context, runID, digest string, snapshot map[string]any) error {
	data, err := marshalSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (run_id, digest, snapshot)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			digest = excluded.digest,
			snapshot = excluded.snapshot
	`, runID, digest, data)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
