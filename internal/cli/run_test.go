package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bandwalk/internal/engine"
	"github.com/roach88/bandwalk/internal/ir"
	"github.com/roach88/bandwalk/internal/store"
)

func TestRunText(t *testing.T) {
	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}),
		reportPath("orders"), "--data", dataPath("orders"), "--run-id", "orders-run")
	require.NoError(t, err)

	assert.Contains(t, out, "\u2713 Run orders-run completed")
	assert.Contains(t, out, "Report: orders")
	assert.Contains(t, out, "Steps: 24 (max 100000)")
	assert.Contains(t, out, "Events: 23")
	assert.NotContains(t, out, "Stored in")
}

func TestRunJSON(t *testing.T) {
	out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}),
		reportPath("orders"), "--data", dataPath("orders"), "--run-id", "orders-run")
	require.NoError(t, err)

	status, summary, cliErr := decodeResponse[RunSummary](t, out)
	assert.Equal(t, "ok", status)
	assert.Nil(t, cliErr)
	assert.Equal(t, "orders-run", summary.RunID)
	assert.Equal(t, ir.RunCompleted, summary.Status)
	assert.Equal(t, 24, summary.Steps)
	assert.Equal(t, 23, summary.Events)
	assert.Equal(t, engine.DefaultMaxSteps, summary.MaxSteps)
	assert.NotEmpty(t, summary.TraceDigest)
	assert.Nil(t, summary.Trace)
}

func TestRunPrintsEvents(t *testing.T) {
	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}),
		reportPath("flat"), "--data", dataPath("flat"), "--events")
	require.NoError(t, err)

	golden, err := os.ReadFile(filepath.Join("testdata", "scenarios", "golden", "flat.golden"))
	require.NoError(t, err)
	assert.Contains(t, out, string(golden))
}

func TestRunStoresRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}),
		reportPath("orders"), "--data", dataPath("orders"), "--db", db, "--run-id", "orders-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Stored in: "+db)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	run, err := st.ReadRun(ctx, "orders-run")
	require.NoError(t, err)
	assert.Equal(t, "orders", run.ReportName)
	assert.Equal(t, ir.RunCompleted, run.Status)
	assert.Equal(t, 23, run.EventCount)
	assert.Equal(t, engine.DefaultMaxSteps, run.MaxSteps)

	events, err := st.ReadEvents(ctx, "orders-run")
	require.NoError(t, err)
	assert.Len(t, events, 23)
	require.NoError(t, st.VerifyRun(ctx, "orders-run"))
}

func TestRunWithRestart(t *testing.T) {
	out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}),
		reportPath("flat"), "--data", dataPath("flat"), "--restart-at", "3", "--events")
	require.NoError(t, err)

	_, summary, _ := decodeResponse[RunSummary](t, out)
	assert.Equal(t, 10, summary.Steps)
	assert.Equal(t, 9, summary.Events)
	assert.Equal(t, []int{3}, summary.Restarts)

	artificial := engine.FilterRecords(summary.Trace, engine.Artificial)
	assert.Len(t, artificial, 1)
}

func TestRunSubReport(t *testing.T) {
	out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}),
		reportPath("master"), "--data", dataPath("master"), "--events")
	require.NoError(t, err)

	_, summary, _ := decodeResponse[RunSummary](t, out)
	assert.Equal(t, 10, summary.Steps)
	assert.Equal(t, 23, summary.Events)
	assert.Len(t, engine.FilterRecords(summary.Trace, engine.DeepTraversing), 15)
}

func TestRunStepsExceeded(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}),
		reportPath("orders"), "--data", dataPath("orders"), "--max-steps", "5", "--db", db, "--run-id", "quota-run")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, engine.IsQuotaError(err))
	assert.Contains(t, out, "\u2717 Run quota-run failed")
	assert.Contains(t, out, "Steps: 5 (max 5)")
	assert.Contains(t, out, "Error [E201]: STEPS_EXCEEDED")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(context.Background(), "quota-run")
	require.NoError(t, err)
	assert.Equal(t, ir.RunFailed, run.Status)
	assert.Equal(t, 5, run.MaxSteps)
	assert.Contains(t, run.Error, "STEPS_EXCEEDED")
}

func TestRunStepsExceededJSON(t *testing.T) {
	out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}),
		reportPath("orders"), "--data", dataPath("orders"), "--max-steps", "5")
	require.Error(t, err)

	status, summary, cliErr := decodeResponse[RunSummary](t, out)
	assert.Equal(t, "error", status)
	require.NotNil(t, cliErr)
	assert.Equal(t, ErrCodeRunFailed, cliErr.Code)
	assert.Equal(t, ir.RunFailed, summary.Status)
	assert.Equal(t, 5, summary.Steps)
}

func TestRunCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"missing report", []string{"/nonexistent.cue", "--data", dataPath("flat")}, ErrCodeNotFound},
		{"invalid report", []string{reportPath("invalid"), "--data", dataPath("flat")}, ErrCodeInvalidStructure},
		{"missing data", []string{reportPath("flat"), "--data", "/nonexistent.yaml"}, ErrCodeNotFound},
		{"float data", []string{reportPath("flat"), "--data", dataPath("floats")}, ErrCodeDataFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.wantCode+"]")
		})
	}
}

func TestRunMissingDataFlag(t *testing.T) {
	_, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), reportPath("flat"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestRunRejectsNonPositiveQuota(t *testing.T) {
	_, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}),
		reportPath("flat"), "--data", dataPath("flat"), "--max-steps", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--max-steps must be positive")
}

func TestRunUsesInjectedGenerator(t *testing.T) {
	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "json"},
		Data:        dataPath("flat"),
		MaxSteps:    engine.DefaultMaxSteps,
		RunIDs:      engine.NewFixedGenerator("gen-1"),
	}
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, runReport(opts, reportPath("flat"), cmd))

	_, summary, _ := decodeResponse[RunSummary](t, buf.String())
	assert.Equal(t, "gen-1", summary.RunID)
}

func TestRunGeneratesRunIDs(t *testing.T) {
	first, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}), reportPath("flat"), "--data", dataPath("flat"))
	require.NoError(t, err)
	second, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}), reportPath("flat"), "--data", dataPath("flat"))
	require.NoError(t, err)

	_, a, _ := decodeResponse[RunSummary](t, first)
	_, b, _ := decodeResponse[RunSummary](t, second)
	assert.NotEmpty(t, a.RunID)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.TraceDigest, b.TraceDigest)
}
