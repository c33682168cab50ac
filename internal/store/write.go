package store

import (
	"context"
	"fmt"

	"github.com/roach88/bandwalk/internal/ir"
)

// WriteRun inserts a run and its complete event trace in one transaction,
// so a crash never leaves a run with a partial trace.
//
// Uses ON CONFLICT DO NOTHING for idempotency: writing the same run id again
// is silently ignored, events included. Events must be numbered 1..n in
// trace order and run.EventCount must equal len(events).
func (s *Store) WriteRun(ctx context.Context, run ir.RunRecord, events []ir.EventRecord) error {
	if run.EventCount != len(events) {
		return fmt.Errorf("write run %s: event_count %d does not match %d events", run.ID, run.EventCount, len(events))
	}
	for i, ev := range events {
		if ev.Step != i+1 {
			return fmt.Errorf("write run %s: event %d has step %d", run.ID, i, ev.Step)
		}
	}

	restarts, err := marshalRestarts(run.Restarts)
	if err != nil {
		return fmt.Errorf("write run %s: %w", run.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run %s: begin tx: %w", run.ID, err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, report_name, definition_json, dataset_json, definition_hash, dataset_hash,
		 trace_digest, event_count, restarts, max_steps, status, error, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.ReportName,
		string(run.DefinitionJSON),
		string(run.DatasetJSON),
		run.DefinitionHash,
		run.DatasetHash,
		run.TraceDigest,
		run.EventCount,
		restarts,
		run.MaxSteps,
		run.Status,
		run.Error,
		run.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("write run %s: %w", run.ID, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run %s: rows affected: %w", run.ID, err)
	}
	if inserted == 0 {
		return tx.Commit()
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events
		(run_id, step, seq, code, handler, group_index, axis_row, axis_col, cursor,
		 artificial, deep, origin_handler, origin_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write run %s: prepare events: %w", run.ID, err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx,
			run.ID,
			ev.Step,
			ev.Seq,
			ev.Code,
			ev.Handler,
			ev.Group,
			ev.AxisRow,
			ev.AxisCol,
			ev.Cursor,
			boolToInt(ev.Artificial),
			boolToInt(ev.Deep),
			ev.OriginHandler,
			ev.OriginSeq,
		); err != nil {
			return fmt.Errorf("write run %s: event %d: %w", run.ID, ev.Step, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run %s: commit: %w", run.ID, err)
	}
	return nil
}
