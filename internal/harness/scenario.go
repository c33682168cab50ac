package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/roach88/bandwalk/internal/datarow"
	"github.com/roach88/bandwalk/internal/engine"
	"github.com/roach88/bandwalk/internal/ir"
)

// Scenario defines a conformance test scenario: one report run over inline
// data, with assertions on the event trace it fires.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Report is the path of the CUE report definition (a file or a
	// directory), relative to the scenario file.
	Report string `yaml:"report"`

	// Rows are the main rows of the run, in order.
	Rows []map[string]any `yaml:"rows"`

	// Datasets are named datasets for sub-reports.
	Datasets map[string][]map[string]any `yaml:"datasets,omitempty"`

	// Restarts lists the steps (1-based) at which a layout restart is
	// simulated.
	Restarts []int `yaml:"restarts,omitempty"`

	// MaxSteps overrides the engine's step quota when positive.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// ExpectError names the error category the run must fail with. Empty
	// means the run must complete.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions validate the trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunID is a fixed run id for deterministic tests.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Dir is the directory relative paths resolve against. LoadScenario sets
	// it to the scenario file's directory.
	Dir string `yaml:"-"`
}

// Assertion validates the trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "event_count": events carrying every flag of Event number exactly Count
	// - "event_order": Events appear in this order, not necessarily adjacent
	// - "first_event": the first event's code is exactly Event
	// - "last_event": the last event's code is exactly Event
	// - "no_event": no event carries every flag of Event
	// - "handler_sequence": Handlers fire in this order, not necessarily adjacent
	// - "step_count": the run took exactly Count steps
	Type string `yaml:"type"`

	// Event is an event code as rendered in traces, e.g. "group-started" or
	// "items-advanced|deep".
	Event string `yaml:"event,omitempty"`

	// Events is the expected event order (used by event_order).
	Events []string `yaml:"events,omitempty"`

	// Handlers is the expected handler order (used by handler_sequence).
	Handlers []string `yaml:"handlers,omitempty"`

	// Count is the expected number (used by event_count and step_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertEventCount      = "event_count"
	AssertEventOrder      = "event_order"
	AssertFirstEvent      = "first_event"
	AssertLastEvent       = "last_event"
	AssertNoEvent         = "no_event"
	AssertHandlerSequence = "handler_sequence"
	AssertStepCount       = "step_count"
)

// Error categories for ExpectError.
const (
	ErrorIllegalTraversal = "illegal_traversal"
	ErrorInvalidStructure = "invalid_report_structure"
	ErrorStepsExceeded    = "steps_exceeded"
	ErrorUnknownDataset   = "unknown_dataset"
)

var errorCategories = map[string]bool{
	ErrorIllegalTraversal: true,
	ErrorInvalidStructure: true,
	ErrorStepsExceeded:    true,
	ErrorUnknownDataset:   true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve scenario path: %w", err)
	}
	scenario.Dir = filepath.Dir(abs)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}

	return &scenario, nil
}

// ReportPath returns the report path resolved against Dir.
func (s *Scenario) ReportPath() string {
	if filepath.IsAbs(s.Report) || s.Dir == "" {
		return s.Report
	}
	return filepath.Join(s.Dir, s.Report)
}

// Dataset converts the inline rows and datasets to a datarow.Dataset.
func (s *Scenario) Dataset() (*datarow.Dataset, error) {
	rows, err := datarow.RowsFromGo(s.Rows)
	if err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	ds := &datarow.Dataset{Rows: rows, Datasets: make(map[string][]ir.IRObject, len(s.Datasets))}
	for name, raw := range s.Datasets {
		rows, err := datarow.RowsFromGo(raw)
		if err != nil {
			return nil, fmt.Errorf("datasets.%s: %w", name, err)
		}
		ds.Datasets[name] = rows
	}
	return ds, nil
}

// validateScenario checks that required fields are present and valid. Every
// problem is reported, not just the first.
func validateScenario(s *Scenario) error {
	var errs error

	if s.Name == "" {
		errs = multierr.Append(errs, fmt.Errorf("name is required"))
	}
	if s.Description == "" {
		errs = multierr.Append(errs, fmt.Errorf("description is required"))
	}

	if s.Report == "" {
		errs = multierr.Append(errs, fmt.Errorf("report is required"))
	} else if _, err := os.Stat(s.ReportPath()); os.IsNotExist(err) {
		errs = multierr.Append(errs, fmt.Errorf("report not found: %s", s.ReportPath()))
	}

	if s.ExpectError != "" && !errorCategories[s.ExpectError] {
		errs = multierr.Append(errs, fmt.Errorf("unknown expect_error %q", s.ExpectError))
	}
	if s.ExpectError == "" && len(s.Assertions) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("assertions list is required unless expect_error is set"))
	}
	if s.MaxSteps < 0 {
		errs = multierr.Append(errs, fmt.Errorf("max_steps must be non-negative"))
	}
	for i, step := range s.Restarts {
		if step < 1 {
			errs = multierr.Append(errs, fmt.Errorf("restarts[%d]: step must be at least 1", i))
		}
	}

	for i := range s.Assertions {
		errs = multierr.Append(errs, validateAssertion(i, &s.Assertions[i]))
	}

	return errs
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEventCount, AssertFirstEvent, AssertLastEvent, AssertNoEvent:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for %s", index, a.Type)
		}
		if _, ok := engine.ParseEventCode(a.Event); !ok {
			return fmt.Errorf("assertions[%d]: unknown event code %q", index, a.Event)
		}
		if a.Type == AssertEventCount && a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for event_order", index)
		}
		for _, ev := range a.Events {
			if _, ok := engine.ParseEventCode(ev); !ok {
				return fmt.Errorf("assertions[%d]: unknown event code %q", index, ev)
			}
		}
	case AssertHandlerSequence:
		if len(a.Handlers) == 0 {
			return fmt.Errorf("assertions[%d]: handlers list is required for handler_sequence", index)
		}
	case AssertStepCount:
		if a.Count <= 0 {
			return fmt.Errorf("assertions[%d]: count must be positive for step_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
