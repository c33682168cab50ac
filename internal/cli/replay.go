package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bandwalk/internal/engine"
	"github.com/roach88/bandwalk/internal/ir"
	"github.com/roach88/bandwalk/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
	Report   string // optional - runs of one report only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string `json:"run_id"`
	Report        string `json:"report"`
	Status        string `json:"status"`
	Events        int    `json:"events"`
	Deterministic bool   `json:"deterministic"`
	Mismatch      string `json:"mismatch,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay stored runs and verify determinism",
		Long: `Replay stored runs from their stored definition and dataset, with the
same restarts and step quota, and compare every fired event with the
stored trace.

Exit codes:
  0 - All runs replay identically
  1 - At least one run diverged
  2 - Command error (database not found, run not found, etc.)

Examples:
  bandwalk replay --db ./runs.db
  bandwalk replay --db ./runs.db --run 0191b8a0-...
  bandwalk replay --db ./runs.db --report orders --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay a specific run only")
	cmd.Flags().StringVar(&opts.Report, "report", "", "replay the runs of one report only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	st, err := openExistingStore(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := selectRuns(ctx, st, opts.RunID, opts.Report)
	if err != nil {
		code := ErrCodeStoreFailed
		if errors.Is(err, sql.ErrNoRows) {
			code = ErrCodeRunNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to select runs", err)
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}
	for _, run := range runs {
		formatter.VerboseLog("Replaying run %s (%s)", run.ID, run.ReportName)
		rr, err := replayRun(ctx, st, run, engine.WithLogger(logger))
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}
		if !rr.Deterministic {
			result.AllDeterministic = false
		}
		result.Runs = append(result.Runs, rr)
	}

	text := func(w io.Writer) { outputReplayText(w, result, opts.Verbose) }
	if !result.AllDeterministic {
		if err := formatter.Failure(result, &CLIError{
			Code:    ErrCodeReplayDiverged,
			Message: "determinism verification failed",
		}, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return formatter.Result(result, text)
}

// openExistingStore opens a database that must already exist.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("database not found: %s", path)
	}
	return store.Open(path)
}

// selectRuns returns one run by id, the runs of one report, or every run.
func selectRuns(ctx context.Context, st *store.Store, runID, reportName string) ([]ir.RunRecord, error) {
	switch {
	case runID != "":
		run, err := st.ReadRun(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", runID, err)
		}
		return []ir.RunRecord{run}, nil
	case reportName != "":
		return st.ListRunsForReport(ctx, reportName)
	default:
		return st.ListRuns(ctx)
	}
}

// replayRun checks the stored trace against its digest, then traverses the
// run again and compares. Divergence is a result, not an error; errors are
// store failures.
func replayRun(ctx context.Context, st *store.Store, run ir.RunRecord, opts ...engine.EngineOption) (ReplayRunResult, error) {
	rr := ReplayRunResult{RunID: run.ID, Report: run.ReportName, Status: run.Status, Events: run.EventCount}

	if err := st.VerifyRun(ctx, run.ID); err != nil {
		if !errors.Is(err, store.ErrDigestMismatch) {
			return rr, err
		}
		rr.Mismatch = err.Error()
		return rr, nil
	}
	events, err := st.ReadEvents(ctx, run.ID)
	if err != nil {
		return rr, err
	}

	mismatch, err := engine.Replay(ctx, run, events, opts...)
	switch {
	case err != nil:
		rr.Mismatch = err.Error()
	case mismatch != nil:
		rr.Mismatch = mismatch.String()
	default:
		rr.Deterministic = true
	}
	return rr, nil
}

func outputReplayText(w io.Writer, result ReplayResult, verbose bool) {
	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n\n", result.TotalRuns)
	for _, run := range result.Runs {
		mark := "\u2713"
		if !run.Deterministic {
			mark = "\u2717"
		}
		fmt.Fprintf(w, "%s Run: %s\n", mark, run.RunID)
		if verbose {
			fmt.Fprintf(w, "  Report: %s\n", run.Report)
			fmt.Fprintf(w, "  Status: %s\n", run.Status)
		}
		fmt.Fprintf(w, "  Events: %d\n", run.Events)
		if run.Mismatch != "" {
			fmt.Fprintf(w, "  Diverged: %s\n", run.Mismatch)
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "\u2713 All runs verified deterministic")
	} else {
		fmt.Fprintln(w, "\u2717 Determinism verification failed")
	}
}
