package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/bandwalk/internal/datarow"
	"github.com/roach88/bandwalk/internal/engine"
	"github.com/roach88/bandwalk/internal/ir"
	"github.com/roach88/bandwalk/internal/report"
	"github.com/roach88/bandwalk/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Data      string
	Database  string
	RestartAt []int
	MaxSteps  int
	RunID     string
	Events    bool

	// RunIDs overrides the run ID generator (for testing). If nil and RunID
	// is empty, run IDs are UUIDv7.
	RunIDs engine.RunIDGenerator
}

// RunSummary is the outcome of one traversal.
type RunSummary struct {
	RunID       string           `json:"run_id"`
	Report      string           `json:"report"`
	Status      string           `json:"status"`
	Steps       int              `json:"steps"`
	Events      int              `json:"events"`
	Restarts    []int            `json:"restarts,omitempty"`
	MaxSteps    int              `json:"max_steps"`
	TraceDigest string           `json:"trace_digest,omitempty"`
	Database    string           `json:"database,omitempty"`
	Error       string           `json:"error,omitempty"`
	Trace       []ir.EventRecord `json:"trace,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <report>",
		Short: "Traverse a report over a data file",
		Long: `Drive a report definition over the rows of a YAML data file from
Begin-Report to End-Report, firing every event on the way.

With --db the run, its inputs and its full trace are written to a SQLite
database for later replay and tracing. --restart-at simulates a layout
that rejects the state produced at the given step and resumes it on a new
page.

Exit codes:
  0 - Run completed
  1 - Traversal failed (illegal traversal, invalid structure, step quota)
  2 - Command error (report or data not loadable, database error)

Examples:
  bandwalk run ./reports/orders.cue --data ./orders.yaml
  bandwalk run ./reports/orders.cue --data ./orders.yaml --db ./runs.db
  bandwalk run ./reports/orders.cue --data ./orders.yaml --restart-at 3 --events`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Data, "data", "", "path to YAML data file (required)")
	_ = cmd.MarkFlagRequired("data")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database to store the run in")
	cmd.Flags().IntSliceVar(&opts.RestartAt, "restart-at", nil, "steps to restart on a new page")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", engine.DefaultMaxSteps, "step quota per traversal")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "run ID to use instead of a generated one")
	cmd.Flags().BoolVar(&opts.Events, "events", false, "print every fired event")

	return cmd
}

func runReport(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.MaxSteps <= 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--max-steps must be positive, got %d", opts.MaxSteps))
	}

	def, data, table, err := loadInputs(path, opts.Data)
	if err != nil {
		le := asLoadError(err)
		_ = formatter.Error(le.Code, le.Message, nil)
		return WrapExitError(ExitCommandError, "failed to load run inputs", err)
	}
	logger.Debug("inputs loaded", "report", def.Name, "rows", len(data.Rows), "datasets", len(data.Datasets))

	ctx, stop := signalContext(cmd.Context(), logger)
	defer stop()

	res, records, runErr := engine.Trace(ctx, def, table, engineOptions(opts, logger)...)
	if res == nil {
		_ = formatter.Error(ErrCodeRunFailed, runErr.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to start run", runErr)
	}
	if errors.Is(runErr, context.Canceled) {
		return WrapExitError(ExitFailure, "run interrupted", runErr)
	}

	run, err := engine.NewRunRecord(def, data, res, records, runErr)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to build run record", err)
	}

	if opts.Database != "" {
		if err := storeRun(ctx, opts.Database, run, records); err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to store run", err)
		}
		logger.Info("run stored", "run_id", run.ID, "db", opts.Database)
	}

	summary := RunSummary{
		RunID:       run.ID,
		Report:      run.ReportName,
		Status:      run.Status,
		Steps:       res.Steps,
		Events:      len(records),
		Restarts:    res.Restarts,
		MaxSteps:    res.MaxSteps,
		TraceDigest: run.TraceDigest,
		Database:    opts.Database,
		Error:       run.Error,
	}
	if opts.Events {
		summary.Trace = records
	}

	text := func(w io.Writer) { outputRunText(w, summary) }
	if runErr != nil {
		if err := formatter.Failure(summary, &CLIError{Code: ErrCodeRunFailed, Message: runErr.Error()}, text); err != nil {
			return err
		}
		return WrapExitError(ExitFailure, "run failed", runErr)
	}
	return formatter.Result(summary, text)
}

// loadInputs loads the report, checks its structure and builds the table
// the engine reads from.
func loadInputs(reportPath, dataPath string) (*report.Definition, *datarow.Dataset, *datarow.Table, error) {
	def, err := LoadReport(reportPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if errs := ValidationErrors(def); len(errs) > 0 {
		return nil, nil, nil, errs[0]
	}
	data, err := LoadData(dataPath)
	if err != nil {
		return nil, nil, nil, err
	}
	table, err := datarow.NewTable(def, data.Rows, datarow.WithDatasets(data.Datasets))
	if err != nil {
		return nil, nil, nil, &LoadError{Code: ErrCodeDataFailed, Message: err.Error()}
	}
	return def, data, table, nil
}

func engineOptions(opts *RunOptions, logger *slog.Logger) []engine.EngineOption {
	engineOpts := []engine.EngineOption{
		engine.WithLogger(logger),
		engine.WithMaxSteps(opts.MaxSteps),
	}
	switch {
	case opts.RunIDs != nil:
		engineOpts = append(engineOpts, engine.WithRunIDGenerator(opts.RunIDs))
	case opts.RunID != "":
		engineOpts = append(engineOpts, engine.WithRunIDGenerator(engine.NewFixedGenerator(opts.RunID)))
	}
	if len(opts.RestartAt) > 0 {
		engineOpts = append(engineOpts, engine.WithRestartAt(opts.RestartAt...))
	}
	return engineOpts
}

func storeRun(ctx context.Context, path string, run ir.RunRecord, records []ir.EventRecord) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.WriteRun(ctx, run, records)
}

// signalContext derives a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

func outputRunText(w io.Writer, s RunSummary) {
	if s.Status == ir.RunCompleted {
		fmt.Fprintf(w, "\u2713 Run %s completed\n", s.RunID)
	} else {
		fmt.Fprintf(w, "\u2717 Run %s failed\n", s.RunID)
	}
	fmt.Fprintf(w, "  Report: %s\n", s.Report)
	fmt.Fprintf(w, "  Steps: %d (max %d)\n", s.Steps, s.MaxSteps)
	fmt.Fprintf(w, "  Events: %d\n", s.Events)
	if len(s.Restarts) > 0 {
		fmt.Fprintf(w, "  Restarts: %v\n", s.Restarts)
	}
	if s.Database != "" {
		fmt.Fprintf(w, "  Stored in: %s\n", s.Database)
	}
	if len(s.Trace) > 0 {
		fmt.Fprintln(w)
		fmt.Fprint(w, engine.FormatTrace(s.Trace))
	}
}
