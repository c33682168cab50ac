// Package engine traverses a banded report definition as a state machine.
//
// A traversal is a sequence of steps. Each step is two calls:
//
//	t, err := e.Advance(s) // runs s's handler, fires its event, returns tentative t
//	s, err = e.Commit(t)   // picks the handler for the next step
//
// States are immutable. A caller that must retry a step (a page overflowed)
// keeps the last committed state, passes it through RestartOnNewPage and
// carries on from there; only the newest tentative state may be committed.
//
// Handlers form a closed set of kinds (see Kind) dispatched through one
// table. Begin-Report starts every traversal and End-Report ends it; after
// that every Advance fails with an illegal traversal error.
//
// ARCHITECTURE:
//
// Single goroutine, synchronous:
// There is no concurrency inside a traversal. Listeners run on the caller's
// goroutine before Advance returns, in firing order. The flow controller is
// called only at step boundaries.
//
// Sub-reports:
// Process-Details runs each sub-report of the row to completion with a
// nested runtime sharing the clock and layout. Nested events are re-fired
// to the parent's listeners marked DeepTraversing, with Origin set to the
// nested state.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Every state is stamped from Clock.Next(). Sequence numbers detect stale
// commits and make traces comparable across runs.
//
// Fail fast:
// Structural problems only visible during traversal (a crosstab-column group
// at the root, an axis that is owned by the wrong kind of group) raise
// ErrInvalidReportStructure and are never corrected silently.
package engine
