package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/bandwalk/internal/ir"
	"github.com/roach88/bandwalk/internal/queryir"
)

const runColumns = `id, report_name, definition_json, dataset_json, definition_hash, dataset_hash,
	trace_digest, event_count, restarts, max_steps, status, error, engine_version`

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns every stored run ordered by id. Run ids are UUIDv7, so
// this is creation order.
//
// Returns an empty slice (not nil) when the store holds no runs.
func (s *Store) ListRuns(ctx context.Context) ([]ir.RunRecord, error) {
	return s.queryRuns(ctx, nil)
}

// ListRunsForReport returns the runs of one report ordered by id.
func (s *Store) ListRunsForReport(ctx context.Context, reportName string) ([]ir.RunRecord, error) {
	return s.queryRuns(ctx, queryir.Equals{Field: "report_name", Value: ir.IRString(reportName)})
}

func (s *Store) queryRuns(ctx context.Context, filter queryir.Predicate) ([]ir.RunRecord, error) {
	sqlText, params, err := s.compiler.Compile(queryir.Select{From: queryir.RunsTable.Name, Filter: filter})
	if err != nil {
		return nil, fmt.Errorf("compile run query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadEvents returns the event trace of a run in firing order
// (ORDER BY step ASC).
//
// Returns an empty slice (not nil) if the run has no events.
func (s *Store) ReadEvents(ctx context.Context, runID string) ([]ir.EventRecord, error) {
	return s.QueryEvents(ctx, runID, nil)
}

// QueryEvents returns the events of a run that satisfy filter, in firing
// order. A nil filter returns the whole trace.
//
// Returns an empty slice (not nil) if no event matches.
func (s *Store) QueryEvents(ctx context.Context, runID string, filter queryir.Predicate) ([]ir.EventRecord, error) {
	query := queryir.Select{
		From:   queryir.EventsTable.Name,
		Fields: queryir.EventsTable.Columns,
		Filter: queryir.Conjoin(
			queryir.Equals{Field: "run_id", Value: ir.IRString(runID)},
			filter,
		),
	}
	sqlText, params, err := s.compiler.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("compile event query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []ir.EventRecord{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanEvent reads one row in queryir.EventsTable column order.
func scanEvent(row scanner) (ir.EventRecord, error) {
	var ev ir.EventRecord
	var artificial, deep int
	if err := row.Scan(
		&ev.Step,
		&ev.Seq,
		&ev.Code,
		&ev.Handler,
		&ev.Group,
		&ev.AxisRow,
		&ev.AxisCol,
		&ev.Cursor,
		&artificial,
		&deep,
		&ev.OriginHandler,
		&ev.OriginSeq,
	); err != nil {
		return ev, fmt.Errorf("scan event: %w", err)
	}
	ev.Artificial = artificial != 0
	ev.Deep = deep != 0
	return ev, nil
}

func scanRun(row scanner) (ir.RunRecord, error) {
	var run ir.RunRecord
	var definition, dataset, restarts string
	err := row.Scan(
		&run.ID,
		&run.ReportName,
		&definition,
		&dataset,
		&run.DefinitionHash,
		&run.DatasetHash,
		&run.TraceDigest,
		&run.EventCount,
		&restarts,
		&run.MaxSteps,
		&run.Status,
		&run.Error,
		&run.EngineVersion,
	)
	if err == sql.ErrNoRows {
		return run, err
	}
	if err != nil {
		return run, fmt.Errorf("scan run: %w", err)
	}

	run.DefinitionJSON = []byte(definition)
	run.DatasetJSON = []byte(dataset)
	if run.Restarts, err = unmarshalRestarts(restarts); err != nil {
		return run, fmt.Errorf("scan run %s: %w", run.ID, err)
	}
	return run, nil
}
