// Package report defines the read-only report-definition tree consumed by the
// traversal engine.
//
// A Definition holds a flattened group stack ordered from the outermost group
// to the innermost one, an optional details (item) band, and banded
// sub-reports that are inlined once per detail row. Crosstabs occupy the tail
// of the stack: one Crosstab group, then one or more CrosstabRow groups, then
// one or more CrosstabColumn groups.
//
// Definitions are never mutated by the engine. Build them once (by hand, or
// through the compiler package), call Validate, and share them freely between
// concurrently held process states.
package report
