package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue/token"
	"go.uber.org/multierr"

	"github.com/roach88/bandwalk/internal/compiler"
	"github.com/roach88/bandwalk/internal/datarow"
	"github.com/roach88/bandwalk/internal/report"
)

// LoadError represents an error that occurred while loading a report or a
// data file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadReport compiles the report declared by a .cue file or a CUE package
// directory. The definition is not validated; see ValidationErrors.
func LoadReport(path string) (*report.Definition, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("report not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}

	def, err := compiler.Load(path)
	if err != nil {
		return nil, convertCompileError(err, path)
	}
	return def, nil
}

// LoadData reads a YAML data file.
func LoadData(path string) (*datarow.Dataset, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("data file not found: %s", path)}
	}
	ds, err := datarow.LoadYAML(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDataFailed, Message: err.Error()}
	}
	return ds, nil
}

// ValidationErrors checks the structure of def and returns one LoadError
// per problem, in the order Validate found them.
func ValidationErrors(def *report.Definition) []*LoadError {
	var out []*LoadError
	for _, err := range multierr.Errors(def.Validate()) {
		out = append(out, &LoadError{Code: ErrCodeInvalidStructure, Message: err.Error()})
	}
	return out
}

// FindCUEFiles walks the directory and returns all .cue file paths, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// asLoadError returns err as a LoadError, wrapping foreign errors as generic.
func asLoadError(err error) *LoadError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No CUE files found
	ErrCodeLoadFailed    = "E004" // CUE load failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeCompileFailed = "E006" // CUE evaluation failed
	ErrCodeWriteFailed   = "E007" // File write error

	// Report definition errors
	ErrCodeMissingReport    = "E101" // No report field
	ErrCodeInvalidKind      = "E102" // Unknown group kind
	ErrCodeInvalidField     = "E103" // Missing or malformed report field
	ErrCodeInvalidStructure = "E104" // Structural validation failed
	ErrCodeDataFailed       = "E110" // Data file could not be parsed

	// Run errors
	ErrCodeRunFailed      = "E201" // Traversal failed
	ErrCodeReplayDiverged = "E202" // Replayed trace differs from the stored one
	ErrCodeStoreFailed    = "E203" // Database error
	ErrCodeRunNotFound    = "E204" // No such run
	ErrCodeInvalidCode    = "E205" // Unparseable event code filter
)

// MapFieldToErrorCode maps a compiler error field to an error code. Fields
// are paths such as "groups[1].kind" or "subreports[0].report.name".
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "load":
		return ErrCodeLoadFailed
	case field == "cue":
		return ErrCodeCompileFailed
	case field == "report":
		return ErrCodeMissingReport
	case field == "kind" || strings.HasSuffix(field, ".kind"):
		return ErrCodeInvalidKind
	case field != "":
		return ErrCodeInvalidField
	default:
		return ErrCodeGeneric
	}
}
