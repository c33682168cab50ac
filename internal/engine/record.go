package engine

import (
	"context"
	"fmt"

	"github.com/roach88/bandwalk/internal/datarow"
	"github.com/roach88/bandwalk/internal/ir"
	"github.com/roach88/bandwalk/internal/report"
)

// NewRunRecord builds the store record of a run from its inputs, result and
// trace. runErr is the error Run returned; a non-nil runErr marks the run
// failed.
func NewRunRecord(def *report.Definition, data *datarow.Dataset, res *Result, records []ir.EventRecord, runErr error) (ir.RunRecord, error) {
	if res == nil {
		return ir.RunRecord{}, fmt.Errorf("run record: no result")
	}

	defJSON, err := report.MarshalDefinition(def)
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("run record %s: %w", res.RunID, err)
	}
	defHash, err := def.Digest()
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("run record %s: %w", res.RunID, err)
	}
	dataJSON, err := data.MarshalCanonical()
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("run record %s: dataset: %w", res.RunID, err)
	}
	dataHash, err := data.Hash()
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("run record %s: dataset: %w", res.RunID, err)
	}
	digest, err := ir.TraceDigest(records)
	if err != nil {
		return ir.RunRecord{}, fmt.Errorf("run record %s: trace: %w", res.RunID, err)
	}

	run := ir.RunRecord{
		ID:             res.RunID,
		ReportName:     def.Name,
		DefinitionJSON: defJSON,
		DatasetJSON:    dataJSON,
		DefinitionHash: defHash,
		DatasetHash:    dataHash,
		TraceDigest:    digest,
		EventCount:     len(records),
		Restarts:       res.Restarts,
		MaxSteps:       res.MaxSteps,
		Status:         ir.RunCompleted,
		EngineVersion:  ir.EngineVersion,
	}
	if runErr != nil {
		run.Status = ir.RunFailed
		run.Error = runErr.Error()
	}
	return run, nil
}

// Replay traverses a stored run again from its stored definition and
// dataset, with the same restarts and step quota, and compares the new trace
// with stored. It returns nil when the traces are identical.
//
// A replay that fails where the stored run failed is not a mismatch; the
// traces are compared either way.
func Replay(ctx context.Context, run ir.RunRecord, stored []ir.EventRecord, opts ...EngineOption) (*ReplayMismatch, error) {
	def, err := report.UnmarshalDefinition(run.DefinitionJSON)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", run.ID, err)
	}
	data, err := datarow.ParseJSON(run.DatasetJSON)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", run.ID, err)
	}
	table, err := datarow.NewTable(def, data.Rows, datarow.WithDatasets(data.Datasets))
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", run.ID, err)
	}

	opts = append(opts[:len(opts):len(opts)],
		WithRunIDGenerator(NewFixedGenerator(run.ID)),
		WithRestartAt(run.Restarts...),
	)
	if run.MaxSteps > 0 {
		opts = append(opts, WithMaxSteps(run.MaxSteps))
	}

	_, replayed, runErr := Trace(ctx, def, table, opts...)
	if runErr != nil && run.Status == ir.RunCompleted {
		return nil, fmt.Errorf("replay %s: stored run completed, replay failed: %w", run.ID, runErr)
	}
	return CompareTraces(stored, replayed), nil
}
