package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bandwalk/internal/engine"
	"github.com/roach88/bandwalk/internal/ir"
	"github.com/roach88/bandwalk/internal/queryir"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - lists runs when empty
	Report   string // optional - filter the run list
	Code     string // optional - event code mask, e.g. "group-started" or "items-advanced|deep"
	Handler  string // optional - only events fired by this handler
	DeepOnly bool   // optional - only re-fired sub-report events
}

// RunListing is one line of the run list.
type RunListing struct {
	RunID    string `json:"run_id"`
	Report   string `json:"report"`
	Status   string `json:"status"`
	Events   int    `json:"events"`
	Restarts []int  `json:"restarts,omitempty"`
	Error    string `json:"error,omitempty"`
}

// TraceStats holds summary statistics for a trace.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	Shown       int            `json:"shown"`
	Deep        int            `json:"deep"`
	Artificial  int            `json:"artificial"`
	ByPhase     map[string]int `json:"by_phase"`
}

// TraceResult holds the trace of one run.
type TraceResult struct {
	RunID  string           `json:"run_id"`
	Report string           `json:"report"`
	Status string           `json:"status"`
	Filter string           `json:"filter,omitempty"`
	Events []ir.EventRecord `json:"events"`
	Stats  TraceStats       `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show stored runs and their event traces",
		Long: `Show the event trace of a stored run, or list the stored runs when no
run is given.

--code keeps only the events carrying every flag of the mask. Flags are
joined with "|": group-started, items-advanced|deep, crosstab, artificial.
--handler keeps the events fired by one handler and --deep keeps the
events re-fired from sub-reports. Filters combine; the statistics always
cover the whole trace.

Examples:
  bandwalk trace --db ./runs.db
  bandwalk trace --db ./runs.db --report orders
  bandwalk trace --db ./runs.db --run 0191b8a0-...
  bandwalk trace --db ./runs.db --run 0191b8a0-... --code "group-started"
  bandwalk trace --db ./runs.db --run 0191b8a0-... --handler begin-group --deep`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run to trace")
	cmd.Flags().StringVar(&opts.Report, "report", "", "list the runs of one report only")
	cmd.Flags().StringVar(&opts.Code, "code", "", "show only events matching this code mask")
	cmd.Flags().StringVar(&opts.Handler, "handler", "", "show only events fired by this handler")
	cmd.Flags().BoolVar(&opts.DeepOnly, "deep", false, "show only events re-fired from sub-reports")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	var mask engine.EventCode
	if opts.Code != "" {
		var ok bool
		if mask, ok = engine.ParseEventCode(opts.Code); !ok {
			msg := fmt.Sprintf("unknown event code %q", opts.Code)
			_ = formatter.Error(ErrCodeInvalidCode, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		runs, err := selectRuns(ctx, st, "", opts.Report)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		listing := make([]RunListing, len(runs))
		for i, run := range runs {
			listing[i] = RunListing{
				RunID:    run.ID,
				Report:   run.ReportName,
				Status:   run.Status,
				Events:   run.EventCount,
				Restarts: run.Restarts,
				Error:    run.Error,
			}
		}
		return formatter.Result(listing, func(w io.Writer) { outputRunList(w, listing) })
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, sql.ErrNoRows) {
		msg := fmt.Sprintf("run not found: %s", opts.RunID)
		_ = formatter.Error(ErrCodeRunNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	events, err := st.ReadEvents(ctx, run.ID)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	shown := events
	if filter := traceFilter(opts, mask); filter != nil {
		if shown, err = st.QueryEvents(ctx, run.ID, filter); err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to query events", err)
		}
	}

	result := buildTraceResult(run, events, shown)
	result.Filter = describeFilter(opts, mask)
	return formatter.Result(result, func(w io.Writer) { outputTraceText(w, result) })
}

// traceFilter translates the trace flags into a store query filter. It
// returns nil when no flag narrows the trace.
func traceFilter(opts *TraceOptions, mask engine.EventCode) queryir.Predicate {
	var preds []queryir.Predicate
	if mask != 0 {
		preds = append(preds, queryir.HasFlags{Field: "code", Mask: int64(mask)})
	}
	if opts.Handler != "" {
		preds = append(preds, queryir.Equals{Field: "handler", Value: ir.IRString(opts.Handler)})
	}
	if opts.DeepOnly {
		preds = append(preds, queryir.Equals{Field: "deep", Value: ir.IRBool(true)})
	}
	return queryir.Conjoin(preds...)
}

func describeFilter(opts *TraceOptions, mask engine.EventCode) string {
	var parts []string
	if mask != 0 {
		parts = append(parts, mask.String())
	}
	if opts.Handler != "" {
		parts = append(parts, "handler="+opts.Handler)
	}
	if opts.DeepOnly {
		parts = append(parts, "deep only")
	}
	return strings.Join(parts, ", ")
}

// buildTraceResult computes statistics over the full trace and keeps the
// shown events.
func buildTraceResult(run ir.RunRecord, events, shown []ir.EventRecord) TraceResult {
	if shown == nil {
		shown = []ir.EventRecord{}
	}

	stats := TraceStats{TotalEvents: len(events), Shown: len(shown), ByPhase: map[string]int{}}
	for _, ev := range events {
		if ev.Deep {
			stats.Deep++
		}
		if ev.Artificial {
			stats.Artificial++
		}
		stats.ByPhase[engine.EventCode(ev.Code).Phase().String()]++
	}

	return TraceResult{
		RunID:  run.ID,
		Report: run.ReportName,
		Status: run.Status,
		Events: shown,
		Stats:  stats,
	}
}

func outputRunList(w io.Writer, runs []RunListing) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return
	}
	for _, run := range runs {
		fmt.Fprintf(w, "%s  %-20s %-9s %d events", run.RunID, run.Report, run.Status, run.Events)
		if len(run.Restarts) > 0 {
			fmt.Fprintf(w, "  restarts=%v", run.Restarts)
		}
		fmt.Fprintln(w)
	}
}

func outputTraceText(w io.Writer, r TraceResult) {
	fmt.Fprintf(w, "Run: %s\n", r.RunID)
	fmt.Fprintf(w, "Report: %s (%s)\n", r.Report, r.Status)
	if r.Filter != "" {
		fmt.Fprintf(w, "Filter: %s (%d of %d events)\n", r.Filter, r.Stats.Shown, r.Stats.TotalEvents)
	}
	fmt.Fprintln(w)

	fmt.Fprint(w, engine.FormatTrace(r.Events))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Events: %d total, %d deep, %d artificial\n",
		r.Stats.TotalEvents, r.Stats.Deep, r.Stats.Artificial)
	phases := make([]string, 0, len(r.Stats.ByPhase))
	for phase := range r.Stats.ByPhase {
		phases = append(phases, phase)
	}
	sort.Strings(phases)
	for _, phase := range phases {
		fmt.Fprintf(w, "  %-20s %d\n", phase, r.Stats.ByPhase[phase])
	}
}
