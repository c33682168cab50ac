package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// ValidationIssue is one problem found in a report file.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ReportValidation holds the validation result of one report file.
type ReportValidation struct {
	Path   string            `json:"path"`
	Name   string            `json:"name,omitempty"`
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool               `json:"valid"`
	Reports []ReportValidation `json:"reports"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <report-or-dir>",
		Short: "Validate report definitions without running them",
		Long: `Compile report definitions and check their structure: group names,
crosstab nesting, sub-report parameters and recursion.

Every problem is reported, not just the first. A directory argument
validates each .cue file in it as a separate report.

Exit codes:
  0 - All reports valid
  1 - One or more reports invalid
  2 - Command error (path not found, no report files)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	info, err := os.Stat(path)
	if err != nil {
		return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("report not found: %s", path))
	}

	files := []string{path}
	if info.IsDir() {
		files, err = FindCUEFiles(path)
		if err != nil {
			return outputValidateError(formatter, ErrCodeScanError, fmt.Sprintf("error scanning directory: %v", err))
		}
		if len(files) == 0 {
			return outputValidateError(formatter, ErrCodeNoFiles, fmt.Sprintf("no CUE files found in %s", path))
		}
	}

	result := ValidationResult{Valid: true, Reports: make([]ReportValidation, 0, len(files))}
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)
		rv := validateReportFile(file)
		if !rv.Valid {
			result.Valid = false
		}
		result.Reports = append(result.Reports, rv)
	}

	if result.Valid {
		return formatter.Result(result, func(w io.Writer) {
			for _, rv := range result.Reports {
				fmt.Fprintf(w, "\u2713 %s (%s)\n", rv.Path, rv.Name)
			}
			fmt.Fprintf(w, "\n\u2713 All %d report(s) valid\n", len(result.Reports))
		})
	}

	first := firstIssue(result)
	count := 0
	for _, rv := range result.Reports {
		count += len(rv.Errors)
	}
	if err := formatter.Failure(result, &CLIError{Code: first.Code, Message: first.Message}, func(w io.Writer) {
		outputValidationText(w, result)
	}); err != nil {
		return err
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", count))
}

// validateReportFile compiles one report and collects its problems.
func validateReportFile(path string) ReportValidation {
	rv := ReportValidation{Path: path}

	def, err := LoadReport(path)
	if err != nil {
		le := asLoadError(err)
		rv.Errors = []ValidationIssue{{Code: le.Code, Message: le.Message, Line: lineOf(le)}}
		return rv
	}
	rv.Name = def.Name

	for _, le := range ValidationErrors(def) {
		rv.Errors = append(rv.Errors, ValidationIssue{Code: le.Code, Message: le.Message})
	}
	rv.Valid = len(rv.Errors) == 0
	return rv
}

func lineOf(e *LoadError) int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

func firstIssue(result ValidationResult) ValidationIssue {
	for _, rv := range result.Reports {
		if len(rv.Errors) > 0 {
			return rv.Errors[0]
		}
	}
	return ValidationIssue{Code: ErrCodeGeneric, Message: "validation failed"}
}

func outputValidationText(w io.Writer, result ValidationResult) {
	for _, rv := range result.Reports {
		if rv.Valid {
			fmt.Fprintf(w, "\u2713 %s (%s)\n", rv.Path, rv.Name)
			continue
		}
		fmt.Fprintf(w, "\u2717 %s\n", rv.Path)
		for _, issue := range rv.Errors {
			if issue.Line > 0 {
				fmt.Fprintf(w, "  line %d\n", issue.Line)
			}
			fmt.Fprintf(w, "  %s: %s\n", issue.Code, issue.Message)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "\u2717 Validation failed")
}

// outputValidateError outputs a command-level error (exit code 2).
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
