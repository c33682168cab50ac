package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bandwalk/internal/engine"
)

// StepOptions holds flags for the step command.
type StepOptions struct {
	*RootOptions
	Data      string
	RestartAt []int
	Limit     int
}

// StepRecord describes one advance/commit round of a manual walk.
type StepRecord struct {
	Step       int      `json:"step"`
	Handler    string   `json:"handler"` // handler that ran
	Events     []string `json:"events"`
	Restarted  bool     `json:"restarted,omitempty"`
	Next       string   `json:"next"` // handler of the committed state
	Seq        int64    `json:"seq"`
	Group      int      `json:"group"`
	Cursor     int      `json:"cursor"`
	Artificial bool     `json:"artificial,omitempty"`
}

// StepResult is the outcome of a manual walk.
type StepResult struct {
	Report   string       `json:"report"`
	Steps    []StepRecord `json:"steps"`
	Finished bool         `json:"finished"`
}

// NewStepCommand creates the step command.
func NewStepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "step <report>",
		Short: "Walk a report one advance/commit at a time",
		Long: `Walk a report over a data file by advancing and committing one state
at a time, printing the handler that ran, the events it fired and the
committed state that governs the next step.

At a --restart-at step the tentative state is discarded and the committed
state resumes on a new page.

Examples:
  bandwalk step ./reports/orders.cue --data ./orders.yaml
  bandwalk step ./reports/orders.cue --data ./orders.yaml --limit 5
  bandwalk step ./reports/orders.cue --data ./orders.yaml --restart-at 3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStep(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Data, "data", "", "path to YAML data file (required)")
	_ = cmd.MarkFlagRequired("data")
	cmd.Flags().IntSliceVar(&opts.RestartAt, "restart-at", nil, "steps to restart on a new page")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "stop after this many steps (0 walks to the end)")

	return cmd
}

func runStep(opts *StepOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	def, _, table, err := loadInputs(path, opts.Data)
	if err != nil {
		le := asLoadError(err)
		_ = formatter.Error(le.Code, le.Message, nil)
		return WrapExitError(ExitCommandError, "failed to load step inputs", err)
	}

	e, err := engine.New(def, table, engine.WithLogger(logger))
	if err != nil {
		_ = formatter.Error(ErrCodeRunFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to create engine", err)
	}
	var fired []string
	e.Subscribe(engine.ListenerFunc(func(ev engine.Event) {
		fired = append(fired, ev.Code.String())
	}))

	result := StepResult{Report: def.Name, Steps: []StepRecord{}}
	walkErr := func() error {
		s := e.Start()
		for step := 1; !s.IsFinish(); step++ {
			if opts.Limit > 0 && step > opts.Limit {
				return nil
			}
			fired = fired[:0]
			rec := StepRecord{Step: step, Handler: s.Handler().String()}

			t, err := e.Advance(s)
			if err != nil {
				return err
			}
			if slices.Contains(opts.RestartAt, step) {
				if s, err = e.RestartOnNewPage(s); err != nil {
					return err
				}
				rec.Restarted = true
			} else if s, err = e.Commit(t); err != nil {
				return err
			}

			rec.Events = slices.Clone(fired)
			rec.Next = s.Handler().String()
			rec.Seq = s.Seq()
			rec.Group = s.GroupIndex()
			rec.Cursor = s.Cursor().Index
			rec.Artificial = s.IsArtificial()
			result.Steps = append(result.Steps, rec)
		}
		result.Finished = true
		return nil
	}()

	text := func(w io.Writer) { outputStepText(w, result) }
	if walkErr != nil {
		if err := formatter.Failure(result, &CLIError{Code: ErrCodeRunFailed, Message: walkErr.Error()}, text); err != nil {
			return err
		}
		return WrapExitError(ExitFailure, "walk failed", walkErr)
	}
	return formatter.Result(result, text)
}

func outputStepText(w io.Writer, r StepResult) {
	for _, s := range r.Steps {
		events := "-"
		if len(s.Events) > 0 {
			events = strings.Join(s.Events, " ")
		}
		marker := ""
		if s.Restarted {
			marker = " (restarted)"
		}
		if s.Artificial {
			marker += " (artificial)"
		}
		fmt.Fprintf(w, "%3d %-18s %s\n", s.Step, s.Handler, events)
		fmt.Fprintf(w, "    -> %s seq=%d group=%d cursor=%d%s\n", s.Next, s.Seq, s.Group, s.Cursor, marker)
	}
	if r.Finished {
		fmt.Fprintf(w, "\u2713 %s finished after %d step(s)\n", r.Report, len(r.Steps))
	} else {
		fmt.Fprintf(w, "Stopped after %d step(s)\n", len(r.Steps))
	}
}
