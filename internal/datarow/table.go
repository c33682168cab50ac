package datarow

import (
	"fmt"
	"sync"

	"github.com/roach88/bandwalk/internal/ir"
	"github.com/roach88/bandwalk/internal/report"
)

// Table is an in-memory Controller over a fixed list of rows.
//
// Rows are expected in group order: consecutive rows with equal keys form one
// group instance. When the definition contains a crosstab the rows are passed
// through NormalizeCrosstab first, so every row axis carries every column.
//
// Thread-safety: reads are safe for concurrent use; the committed position is
// guarded by a mutex.
type Table struct {
	def      *report.Definition
	rows     []ir.IRObject
	keys     [][]string // keys[g][i]: canonical key of row i for groups 0..g
	datasets map[string][]ir.IRObject

	mu        sync.Mutex
	committed Cursor
	commits   []Cursor
}

// TableOption configures a Table.
type TableOption func(*Table)

// WithDatasets makes named datasets available to sub-reports.
func WithDatasets(datasets map[string][]ir.IRObject) TableOption {
	return func(t *Table) {
		t.datasets = datasets
	}
}

// NewTable builds a controller over rows for def.
func NewTable(def *report.Definition, rows []ir.IRObject, opts ...TableOption) (*Table, error) {
	if def.HasCrosstab() {
		normalized, err := NormalizeCrosstab(def, rows)
		if err != nil {
			return nil, err
		}
		rows = normalized
	}

	t := &Table{
		def:       def,
		rows:      rows,
		keys:      make([][]string, def.GroupCount()),
		committed: Start(),
	}
	for _, opt := range opts {
		opt(t)
	}

	for g := range t.keys {
		fields := def.KeyFields(g)
		t.keys[g] = make([]string, len(rows))
		for i, row := range rows {
			key, err := keyOf(row, fields)
			if err != nil {
				return nil, fmt.Errorf("row %d, group %q: %w", i, def.Group(g).Name, err)
			}
			t.keys[g][i] = key
		}
	}
	return t, nil
}

func keyOf(row ir.IRObject, fields []string) (string, error) {
	b, err := ir.MarshalCanonical(row.Project(fields))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Len returns the number of rows, padding rows included.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns the rows in traversal order.
func (t *Table) Rows() []ir.IRObject {
	return t.rows
}

// AdvanceCursor implements Controller.
func (t *Table) AdvanceCursor(c Cursor) (Cursor, error) {
	if c.Index < BeforeFirst || c.Index >= len(t.rows) {
		return c, fmt.Errorf("advance from %d: %w", c.Index, ErrCursorOutOfRange)
	}
	if c.Index+1 >= len(t.rows) {
		return c, fmt.Errorf("advance from %d of %d rows: %w", c.Index, len(t.rows), ErrNoMoreRows)
	}
	return Cursor{Index: c.Index + 1}, nil
}

// IsAdvanceable implements Controller.
func (t *Table) IsAdvanceable(c Cursor) bool {
	return c.Index >= BeforeFirst && c.Index+1 < len(t.rows)
}

// IsLastItemInGroup implements Controller.
func (t *Table) IsLastItemInGroup(c Cursor, g int) bool {
	i := c.Index
	if i+1 >= len(t.rows) {
		return true
	}
	if g >= len(t.keys) {
		g = len(t.keys) - 1
	}
	if i < 0 || g < 0 {
		return false
	}
	return t.keys[g][i] != t.keys[g][i+1]
}

// CommitCursor implements Controller. Committing an earlier cursor after a
// rollback is allowed; every commit is recorded.
func (t *Table) CommitCursor(c Cursor) error {
	if c.Index < BeforeFirst || c.Index >= len(t.rows) {
		return fmt.Errorf("commit %d: %w", c.Index, ErrCursorOutOfRange)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.committed = c
	t.commits = append(t.commits, c)
	return nil
}

// Committed returns the most recently committed cursor.
func (t *Table) Committed() Cursor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.committed
}

// Commits returns every committed cursor in order.
func (t *Table) Commits() []Cursor {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Cursor, len(t.commits))
	copy(out, t.commits)
	return out
}

// Refresh implements Controller. Rows are immutable, so a valid cursor is
// returned unchanged.
func (t *Table) Refresh(c Cursor) (Cursor, error) {
	if c.Index < BeforeFirst || c.Index >= len(t.rows) {
		return c, fmt.Errorf("refresh %d: %w", c.Index, ErrCursorOutOfRange)
	}
	return c, nil
}

// Row implements Controller.
func (t *Table) Row(c Cursor) (ir.IRObject, error) {
	if c.Index < 0 || c.Index >= len(t.rows) {
		return nil, fmt.Errorf("row %d: %w", c.Index, ErrCursorOutOfRange)
	}
	return t.rows[c.Index], nil
}

// SubReport implements Controller. The child table shares this table's
// datasets so sub-reports can nest.
func (t *Table) SubReport(sr *report.SubReport, c Cursor) (Controller, error) {
	parent, err := t.Row(c)
	if err != nil {
		return nil, fmt.Errorf("sub-report %q: %w", sr.Name, err)
	}
	source, ok := t.datasets[sr.DatasetName()]
	if !ok {
		return nil, fmt.Errorf("sub-report %q: %w %q", sr.Name, ErrUnknownDataset, sr.DatasetName())
	}

	want, err := keyOf(parent, sr.Parameters)
	if err != nil {
		return nil, fmt.Errorf("sub-report %q parameters: %w", sr.Name, err)
	}
	var rows []ir.IRObject
	for i, row := range source {
		got, err := keyOf(row, sr.Parameters)
		if err != nil {
			return nil, fmt.Errorf("sub-report %q, dataset row %d: %w", sr.Name, i, err)
		}
		if got == want {
			rows = append(rows, row)
		}
	}

	return NewTable(sr.Definition, rows, WithDatasets(t.datasets))
}
