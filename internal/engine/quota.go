package engine

import (
	"errors"
	"fmt"
)

// QuotaEnforcer counts the steps of one traversal and enforces a limit.
//
// A finite report over finite data always terminates, in a number of steps
// proportional to rows times nesting depth. The quota turns a controller that
// never runs out of rows (or a handler bug) into an error instead of a hang.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{
		maxSteps: maxSteps,
		current:  0,
	}
}

// Check increments the step counter and validates against the limit.
// Call it before every step.
func (q *QuotaEnforcer) Check(runID string) error {
	q.current++
	if q.current > q.maxSteps {
		return &StepsExceededError{
			RunID: runID,
			Steps: q.current,
			Limit: q.maxSteps,
		}
	}
	return nil
}

// Reset resets the step counter to 0.
func (q *QuotaEnforcer) Reset() {
	q.current = 0
}

// Current returns the current step count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the maximum steps limit.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError is returned when a traversal exceeds its step quota.
type StepsExceededError struct {
	RunID string // The run (or sub-report) that exceeded the quota
	Steps int    // Number of steps taken
	Limit int    // Maximum allowed steps
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("STEPS_EXCEEDED: run %s exceeded max steps quota: %d steps > %d limit",
		e.RunID, e.Steps, e.Limit)
}

// IsQuotaError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsQuotaError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
