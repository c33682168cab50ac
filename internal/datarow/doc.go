// Package datarow is the flow controller boundary of the traversal engine.
//
// The engine never touches row data directly. It holds an immutable Cursor
// and asks a Controller to move it, to tell whether more rows remain, and to
// decide where group instances end. Table is the in-memory Controller used
// by the CLI, the harness and the tests; Recorder wraps any Controller and
// keeps a replay log of the calls the engine made.
//
// Group boundaries are decided on canonical JSON (see package ir): two rows
// belong to the same instance of group g when the canonical encodings of
// their key fields for groups 0..g are identical.
package datarow
