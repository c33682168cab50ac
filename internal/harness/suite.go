package harness

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/bandwalk/internal/engine"
)

// ScenarioDirNotFoundError is returned when a scenario directory doesn't exist.
type ScenarioDirNotFoundError struct {
	Dir string
}

// Error implements the error interface.
func (e *ScenarioDirNotFoundError) Error() string {
	return fmt.Sprintf("scenario directory %q does not exist", e.Dir)
}

// FindScenarios returns the YAML scenario files under dir, sorted by path.
// A non-empty filter is a glob matched against the file name without its
// extension.
func FindScenarios(dir, filter string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, &ScenarioDirNotFoundError{Dir: dir}
	}
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			if matched, _ := filepath.Match(filter, name); !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// GoldenPath returns the golden file of a scenario file: golden/<name>.golden
// next to it.
func GoldenPath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

// SuiteOptions configures RunSuite.
type SuiteOptions struct {
	// Parallelism bounds the scenarios run at once. Zero means GOMAXPROCS.
	Parallelism int

	// Update rewrites golden files instead of comparing against them.
	Update bool
}

// ScenarioOutcome is the result of one scenario file in a suite.
type ScenarioOutcome struct {
	Path          string   `json:"path"`
	Name          string   `json:"name"`
	Pass          bool     `json:"pass"`
	Events        int      `json:"events"`
	GoldenUpdated bool     `json:"golden_updated,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

// SuiteResult summarizes a suite run. Scenarios are in input order.
type SuiteResult struct {
	Scenarios []ScenarioOutcome `json:"scenarios"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Total     int               `json:"total"`
}

// RunSuite runs scenario files concurrently. Scenario failures are reported
// in the result; the error is non-nil only when ctx is cancelled.
func RunSuite(ctx context.Context, paths []string, opts SuiteOptions) (*SuiteResult, error) {
	limit := opts.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	outcomes := make([]ScenarioOutcome, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = RunFile(gctx, path, opts.Update)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &SuiteResult{Scenarios: outcomes, Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}
	return result, nil
}

// RunFile loads and runs one scenario file, then compares its trace with
// the golden file when one exists, or rewrites it when update is set.
func RunFile(ctx context.Context, path string, update bool) ScenarioOutcome {
	outcome := ScenarioOutcome{Path: path, Name: filepath.Base(path)}

	scenario, err := LoadScenario(path)
	if err != nil {
		outcome.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return outcome
	}
	outcome.Name = scenario.Name

	result, err := Run(ctx, scenario)
	if err != nil {
		outcome.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return outcome
	}
	outcome.Events = len(result.Trace)
	outcome.Errors = result.Errors

	trace := []byte(engine.FormatTrace(result.Trace))
	goldenPath := GoldenPath(path)
	if update {
		if err := writeGolden(goldenPath, trace); err != nil {
			outcome.Errors = append(outcome.Errors, err.Error())
			return outcome
		}
		outcome.GoldenUpdated = true
	} else if golden, err := os.ReadFile(goldenPath); err == nil {
		if !bytes.Equal(golden, trace) {
			outcome.Errors = append(outcome.Errors, "trace does not match golden file (run with --update to regenerate)")
		}
	} else if !os.IsNotExist(err) {
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("failed to read golden file: %v", err))
	}

	outcome.Pass = len(outcome.Errors) == 0
	return outcome
}

func writeGolden(path string, trace []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, trace, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}
