package engine

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is for every TraversalError of that code.
var (
	ErrIllegalTraversal       = errors.New("illegal traversal")
	ErrInvalidReportStructure = errors.New("invalid report structure")
)

// TraversalError is a fatal error of one traversal run.
//
// Traversal errors are never retried: any of them aborts the run.
type TraversalError struct {
	// Code identifies the error category.
	Code TraversalErrorCode

	// Message is a human-readable description.
	Message string

	// Handler is the handler that was running, if any.
	Handler string

	// Group is the name of the current group, if any.
	Group string

	// Seq is the sequence number of the state involved.
	Seq int64

	// Cause is the underlying error (e.g. definition validation failures).
	Cause error
}

// TraversalErrorCode categorizes traversal errors.
type TraversalErrorCode string

const (
	// ErrCodeIllegalTraversal indicates advance or commit was called out of
	// order, on a finished state, or on a stale state.
	ErrCodeIllegalTraversal TraversalErrorCode = "ILLEGAL_TRAVERSAL"

	// ErrCodeInvalidStructure indicates the report definition violates a
	// structural rule.
	ErrCodeInvalidStructure TraversalErrorCode = "INVALID_REPORT_STRUCTURE"
)

// Error implements the error interface.
func (e *TraversalError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Handler != "" && e.Group != "" {
		msg = fmt.Sprintf("%s (handler=%s, group=%s)", msg, e.Handler, e.Group)
	} else if e.Handler != "" {
		msg = fmt.Sprintf("%s (handler=%s)", msg, e.Handler)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap exposes the code's sentinel and the cause.
func (e *TraversalError) Unwrap() []error {
	var errs []error
	switch e.Code {
	case ErrCodeIllegalTraversal:
		errs = append(errs, ErrIllegalTraversal)
	case ErrCodeInvalidStructure:
		errs = append(errs, ErrInvalidReportStructure)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// IsIllegalTraversal returns true if err is an illegal traversal error.
// Uses errors.Is to handle wrapped errors.
func IsIllegalTraversal(err error) bool {
	return errors.Is(err, ErrIllegalTraversal)
}

// IsInvalidStructure returns true if err is an invalid report structure error.
func IsInvalidStructure(err error) bool {
	return errors.Is(err, ErrInvalidReportStructure)
}

func newTraversalError(code TraversalErrorCode, s *ProcessState, format string, args ...any) *TraversalError {
	e := &TraversalError{Code: code, Message: fmt.Sprintf(format, args...)}
	if s != nil {
		e.Handler = s.handler.String()
		e.Seq = s.seq
		if g := s.Group(); g != nil {
			e.Group = g.Name
		}
	}
	return e
}

func newIllegalTraversal(s *ProcessState, format string, args ...any) *TraversalError {
	return newTraversalError(ErrCodeIllegalTraversal, s, format, args...)
}

func newInvalidStructure(s *ProcessState, format string, args ...any) *TraversalError {
	return newTraversalError(ErrCodeInvalidStructure, s, format, args...)
}
