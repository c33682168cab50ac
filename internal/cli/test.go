package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/bandwalk/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update   bool   // regenerate golden files
	Filter   string // scenario filter (glob pattern)
	Parallel int    // scenarios run at once; 0 means GOMAXPROCS
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run the YAML scenarios under a directory. Each scenario names a report
and its rows, runs the traversal, stores and replays it, then checks its
assertions and, when golden/<name>.golden exists next to it, the exact
event trace.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  bandwalk test ./scenarios
  bandwalk test ./scenarios --filter "sales*"
  bandwalk test ./scenarios --update
  bandwalk test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 0, "scenarios to run at once (0 = GOMAXPROCS)")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	files, err := harness.FindScenarios(dir, opts.Filter)
	if err != nil {
		var notFound *harness.ScenarioDirNotFoundError
		if errors.As(err, &notFound) {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
		}
		_ = formatter.Error(ErrCodeScanError, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	formatter.VerboseLog("Found %d scenario(s) in %s", len(files), dir)

	result, err := harness.RunSuite(ctx, files, harness.SuiteOptions{
		Parallelism: opts.Parallel,
		Update:      opts.Update,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "test run interrupted", err)
	}

	text := func(w io.Writer) { outputTestText(w, result) }
	if result.Failed > 0 {
		if err := formatter.Failure(result, &CLIError{
			Code:    ErrCodeGeneric,
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return formatter.Result(result, text)
}

func outputTestText(w io.Writer, result *harness.SuiteResult) {
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}

	for _, s := range result.Scenarios {
		switch {
		case s.Pass && s.GoldenUpdated:
			fmt.Fprintf(w, "\u2713 %s (golden updated)\n", s.Name)
		case s.Pass:
			fmt.Fprintf(w, "\u2713 %s\n", s.Name)
		default:
			fmt.Fprintf(w, "\u2717 %s\n", s.Name)
			for _, e := range s.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Results: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
