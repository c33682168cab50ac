package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bandwalk/internal/report"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the JSON payload of a successful compile.
type CompilationResult struct {
	Name       string          `json:"name"`
	Hash       string          `json:"hash"`
	Groups     int             `json:"groups"`
	SubReports int             `json:"subreports"`
	Definition json.RawMessage `json:"definition"`
	Output     string          `json:"output,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <report>",
		Short: "Compile a CUE report to its canonical definition",
		Long: `Compile a CUE report definition, validate its structure and output the
canonical JSON definition stored with every run.

<report> is a .cue file or a directory holding one CUE package.

Examples:
  bandwalk compile ./reports/orders.cue
  bandwalk compile ./reports/orders.cue -o orders.json
  bandwalk compile ./reports/orders.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	formatter.VerboseLog("Compiling %s", path)
	def, err := LoadReport(path)
	if err != nil {
		return outputCompileErrors(formatter, []*LoadError{asLoadError(err)})
	}
	if errs := ValidationErrors(def); len(errs) > 0 {
		return outputCompileErrors(formatter, errs)
	}

	canonical, err := report.MarshalDefinition(def)
	if err != nil {
		return outputCompileErrors(formatter, []*LoadError{{Code: ErrCodeGeneric, Message: err.Error()}})
	}
	hash, err := def.Digest()
	if err != nil {
		return outputCompileErrors(formatter, []*LoadError{{Code: ErrCodeGeneric, Message: err.Error()}})
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, canonical, 0o644); err != nil {
			return outputCompileErrors(formatter, []*LoadError{{
				Code:    ErrCodeWriteFailed,
				Message: fmt.Sprintf("writing output file: %v", err),
			}})
		}
		formatter.VerboseLog("Wrote %d bytes to %s", len(canonical), opts.Output)
	}

	result := CompilationResult{
		Name:       def.Name,
		Hash:       hash,
		Groups:     len(def.Groups),
		SubReports: len(def.SubReports),
		Definition: canonical,
		Output:     opts.Output,
	}
	return formatter.Result(result, func(w io.Writer) {
		fmt.Fprintf(w, "\u2713 Compiled report %s\n\n", def.Name)
		describeDefinition(w, def, "  ")
		fmt.Fprintf(w, "\nHash: %s\n", hash)
		if opts.Output != "" {
			fmt.Fprintf(w, "Wrote canonical definition to %s\n", opts.Output)
		}
	})
}

// describeDefinition prints the group stack, details band and sub-reports
// of def, nesting sub-reports one level deeper.
func describeDefinition(w io.Writer, def *report.Definition, indent string) {
	if len(def.Groups) == 0 {
		fmt.Fprintf(w, "%sGroups: none\n", indent)
	} else {
		fmt.Fprintf(w, "%sGroups:\n", indent)
		for i, g := range def.Groups {
			line := fmt.Sprintf("%s  [%d] %s (%s)", indent, i, g.Name, g.Kind)
			if len(g.Fields) > 0 {
				line += " by " + strings.Join(g.Fields, ", ")
			}
			if g.PrintSummary {
				line += " +summary"
			}
			fmt.Fprintln(w, line)
		}
	}

	if def.Details != nil {
		fmt.Fprintf(w, "%sDetails: %s\n", indent, def.Details.Name)
	}

	for _, sr := range def.SubReports {
		fmt.Fprintf(w, "%sSub-report %s (dataset %s)", indent, sr.Name, sr.DatasetName())
		if len(sr.Parameters) > 0 {
			fmt.Fprintf(w, " on %s", strings.Join(sr.Parameters, ", "))
		}
		fmt.Fprintln(w, ":")
		if sr.Definition != nil {
			describeDefinition(w, sr.Definition, indent+"  ")
		}
	}
}

// outputCompileErrors outputs every error and fails with a command error.
func outputCompileErrors(formatter *OutputFormatter, errs []*LoadError) error {
	if formatter.IsJSON() {
		cliErrors := make([]CLIError, len(errs))
		for i, e := range errs {
			cliErrors[i] = CLIError{Code: e.Code, Message: e.Message}
		}
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, "\u2717 Compilation failed")
		fmt.Fprintln(formatter.Writer)
		printLoadErrors(formatter.Writer, errs)
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// printLoadErrors prints each error with its source position when known.
func printLoadErrors(w io.Writer, errs []*LoadError) {
	for _, e := range errs {
		if e.Pos.IsValid() {
			fmt.Fprintf(w, "%s:%d:%d\n", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
		}
		fmt.Fprintf(w, "  %s: %s\n", e.Code, e.Message)
	}
}
