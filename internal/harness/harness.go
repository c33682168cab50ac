package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/bandwalk/internal/compiler"
	"github.com/roach88/bandwalk/internal/datarow"
	"github.com/roach88/bandwalk/internal/engine"
	"github.com/roach88/bandwalk/internal/ir"
	"github.com/roach88/bandwalk/internal/report"
	"github.com/roach88/bandwalk/internal/store"
	"github.com/roach88/bandwalk/internal/testutil"
)

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with a
// fixed run id for reproducible results.
//
// Execution flow:
// 1. Compile the report and build the flow controller over the inline rows
// 2. Traverse the report, recording every event
// 3. Check the run ended as ExpectError says
// 4. Store the run, read the trace back and replay it from the stored record
// 5. Evaluate assertions against the stored trace
//
// An error is returned only when the scenario could not be executed at all;
// failed expectations are reported in the result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	def, err := compiler.Load(scenario.ReportPath())
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	data, err := scenario.Dataset()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	table, err := datarow.NewTable(def, data.Rows, datarow.WithDatasets(data.Datasets))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	logger := slog.New(slog.DiscardHandler) // Suppress engine logs in tests
	opts := []engine.EngineOption{
		engine.WithLogger(logger),
		engine.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(scenario.RunID)),
		engine.WithRestartAt(scenario.Restarts...),
	}
	if scenario.MaxSteps > 0 {
		opts = append(opts, engine.WithMaxSteps(scenario.MaxSteps))
	}

	res, records, runErr := engine.Trace(ctx, def, table, opts...)
	if ctx.Err() != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, ctx.Err())
	}

	result := NewResult()
	if runErr != nil {
		result.RunError = runErr.Error()
	}
	checkExpectedError(scenario.ExpectError, runErr, result)

	// engine.New rejected the definition: there is no run to store.
	if res != nil {
		if err := storeAndReplay(ctx, def, data, res, records, runErr, result); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// storeAndReplay writes the run to an in-memory store, reads its trace back
// into result and replays the stored run. A replay that diverges fails the
// result.
func storeAndReplay(ctx context.Context, def *report.Definition, data *datarow.Dataset, res *engine.Result,
	records []ir.EventRecord, runErr error, result *Result) error {
	st, err := store.Open(":memory:")
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	run, err := engine.NewRunRecord(def, data, res, records, runErr)
	if err != nil {
		return err
	}
	if err := st.WriteRun(ctx, run, records); err != nil {
		return err
	}
	if err := st.VerifyRun(ctx, run.ID); err != nil {
		return err
	}
	stored, err := st.ReadEvents(ctx, run.ID)
	if err != nil {
		return err
	}

	result.RunID = run.ID
	result.Steps = res.Steps
	result.Trace = stored

	mismatch, err := engine.Replay(ctx, run, stored, engine.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		result.AddError(fmt.Sprintf("replay failed: %v", err))
		return nil
	}
	if mismatch != nil {
		result.AddError("replay diverged: " + mismatch.String())
	}
	return nil
}

// checkExpectedError compares the run's error with the expected category.
func checkExpectedError(expected string, runErr error, result *Result) {
	actual := classifyError(runErr)
	switch {
	case expected == "" && runErr != nil:
		result.AddError(fmt.Sprintf("run failed: %v", runErr))
	case expected != "" && runErr == nil:
		result.AddError(fmt.Sprintf("expected %s error, run completed", expected))
	case expected != actual:
		result.AddError(fmt.Sprintf("expected %s error, got %s: %v", expected, actual, runErr))
	}
}

// classifyError maps a run error to its ExpectError category.
func classifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case engine.IsQuotaError(err):
		return ErrorStepsExceeded
	case engine.IsInvalidStructure(err):
		return ErrorInvalidStructure
	case engine.IsIllegalTraversal(err):
		return ErrorIllegalTraversal
	case errors.Is(err, datarow.ErrUnknownDataset):
		return ErrorUnknownDataset
	default:
		return "other"
	}
}
