package datarow

import (
	"errors"

	"github.com/roach88/bandwalk/internal/ir"
	"github.com/roach88/bandwalk/internal/report"
)

// BeforeFirst is the cursor index before the first row.
const BeforeFirst = -1

var (
	// ErrNoMoreRows is returned when advancing past the last row.
	ErrNoMoreRows = errors.New("no more rows")

	// ErrCursorOutOfRange is returned for cursors that do not address a row
	// of the controller (or the before-first position).
	ErrCursorOutOfRange = errors.New("cursor out of range")

	// ErrUnknownDataset is returned when a sub-report names a dataset the
	// controller was not given.
	ErrUnknownDataset = errors.New("unknown dataset")
)

// Cursor is an immutable handle into a controller's rows.
// The zero value is NOT the before-first cursor; use Start.
type Cursor struct {
	Index int
}

// Start returns the before-first cursor.
func Start() Cursor {
	return Cursor{Index: BeforeFirst}
}

// IsBeforeFirst reports whether the cursor has not reached any row yet.
func (c Cursor) IsBeforeFirst() bool {
	return c.Index == BeforeFirst
}

// Controller supplies and consumes row-cursor state for one traversal.
//
// Implementations may be slow (e.g. backed by I/O) but the engine only calls
// them at step boundaries, from a single goroutine.
type Controller interface {
	// AdvanceCursor returns the cursor of the row after c.
	AdvanceCursor(c Cursor) (Cursor, error)

	// IsAdvanceable reports whether a row exists after c.
	IsAdvanceable(c Cursor) bool

	// IsLastItemInGroup reports whether the row at c is the last row of the
	// current instance of group g. For report.BeforeFirstGroup it reports
	// whether c is the last row.
	IsLastItemInGroup(c Cursor, g int) bool

	// CommitCursor records c as the committed position.
	CommitCursor(c Cursor) error

	// Refresh re-validates c after a layout restart and returns the cursor
	// processing should resume from.
	Refresh(c Cursor) (Cursor, error)

	// Row returns the row addressed by c.
	Row(c Cursor) (ir.IRObject, error)

	// SubReport returns a controller over the rows of sr's dataset that
	// match the parameters of the row at c.
	SubReport(sr *report.SubReport, c Cursor) (Controller, error)
}
