package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/bandwalk/internal/engine"
	"github.com/roach88/bandwalk/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string           // Assertion type for categorization
	Expected string           // Human-readable expected outcome
	Actual   string           // Human-readable actual outcome
	Trace    []ir.EventRecord // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, r := range e.Trace {
		fmt.Fprintf(&buf, "  %s\n", engine.FormatRecord(r))
	}

	return buf.String()
}

// parseCode parses an assertion event code.
func parseCode(s string) (engine.EventCode, error) {
	code, ok := engine.ParseEventCode(s)
	if !ok {
		return 0, fmt.Errorf("unknown event code %q", s)
	}
	return code, nil
}

// assertEventCount checks that exactly Count events carry every flag of
// Event.
func assertEventCount(trace []ir.EventRecord, assertion Assertion) error {
	mask, err := parseCode(assertion.Event)
	if err != nil {
		return err
	}

	count := len(engine.FilterRecords(trace, mask))
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%s exactly %d times", mask, assertion.Count),
			Actual:   fmt.Sprintf("found %d times", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertNoEvent checks that no event carries every flag of Event.
func assertNoEvent(trace []ir.EventRecord, assertion Assertion) error {
	mask, err := parseCode(assertion.Event)
	if err != nil {
		return err
	}

	if matched := engine.FilterRecords(trace, mask); len(matched) > 0 {
		return &AssertionError{
			Type:     AssertNoEvent,
			Expected: fmt.Sprintf("no %s event", mask),
			Actual:   fmt.Sprintf("first at step %d", matched[0].Step),
			Trace:    trace,
		}
	}
	return nil
}

// assertBoundaryEvent checks the exact code of the first or last event.
func assertBoundaryEvent(trace []ir.EventRecord, assertion Assertion) error {
	want, err := parseCode(assertion.Event)
	if err != nil {
		return err
	}

	if len(trace) == 0 {
		return &AssertionError{
			Type:     assertion.Type,
			Expected: want.String(),
			Actual:   "empty trace",
			Trace:    trace,
		}
	}

	r := trace[0]
	if assertion.Type == AssertLastEvent {
		r = trace[len(trace)-1]
	}
	if got := engine.EventCode(r.Code); got != want {
		return &AssertionError{
			Type:     assertion.Type,
			Expected: want.String(),
			Actual:   got.String(),
			Trace:    trace,
		}
	}
	return nil
}

// assertEventOrder checks that events matching Events appear in that order.
// Events don't need to be consecutive (intervening events are allowed), and
// each expected event must match a later event than the one before it.
func assertEventOrder(trace []ir.EventRecord, assertion Assertion) error {
	pos := 0
	for i, name := range assertion.Events {
		mask, err := parseCode(name)
		if err != nil {
			return err
		}
		for pos < len(trace) && !engine.EventCode(trace[pos].Code).Has(mask) {
			pos++
		}
		if pos == len(trace) {
			return &AssertionError{
				Type:     AssertEventOrder,
				Expected: fmt.Sprintf("events in order: %v", assertion.Events),
				Actual:   fmt.Sprintf("no %s after event %d of the expected order", name, i),
				Trace:    trace,
			}
		}
		pos++
	}
	return nil
}

// assertHandlerSequence checks that events fired by Handlers appear in that
// order, not necessarily adjacent.
func assertHandlerSequence(trace []ir.EventRecord, assertion Assertion) error {
	pos := 0
	for i, handler := range assertion.Handlers {
		for pos < len(trace) && trace[pos].Handler != handler {
			pos++
		}
		if pos == len(trace) {
			return &AssertionError{
				Type:     AssertHandlerSequence,
				Expected: fmt.Sprintf("handlers in order: %v", assertion.Handlers),
				Actual:   fmt.Sprintf("no %s after handler %d of the expected order", handler, i),
				Trace:    trace,
			}
		}
		pos++
	}
	return nil
}

// assertStepCount checks the number of steps the run took.
func assertStepCount(result *Result, assertion Assertion) error {
	if result.Steps != assertion.Count {
		return &AssertionError{
			Type:     AssertStepCount,
			Expected: fmt.Sprintf("%d steps", assertion.Count),
			Actual:   fmt.Sprintf("%d steps", result.Steps),
			Trace:    result.Trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, assertion := range assertions {
		var err error
		switch assertion.Type {
		case AssertEventCount:
			err = assertEventCount(result.Trace, assertion)
		case AssertEventOrder:
			err = assertEventOrder(result.Trace, assertion)
		case AssertFirstEvent, AssertLastEvent:
			err = assertBoundaryEvent(result.Trace, assertion)
		case AssertNoEvent:
			err = assertNoEvent(result.Trace, assertion)
		case AssertHandlerSequence:
			err = assertHandlerSequence(result.Trace, assertion)
		case AssertStepCount:
			err = assertStepCount(result, assertion)
		default:
			err = fmt.Errorf("unknown assertion type %q", assertion.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, assertion.Type, err))
		}
	}
	return errs
}
