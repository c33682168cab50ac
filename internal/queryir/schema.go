package queryir

// Table describes a stored table: its columns in schema order and the key
// rows are returned in.
type Table struct {
	Name     string
	Columns  []string
	OrderKey string

	// Integer columns may be used with HasFlags.
	Integer map[string]bool
}

// HasColumn reports whether the table has the named column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// EventsTable is the per-step event trace.
var EventsTable = Table{
	Name: "events",
	Columns: []string{
		"step", "seq", "code", "handler", "group_index", "axis_row", "axis_col",
		"cursor", "artificial", "deep", "origin_handler", "origin_seq",
	},
	OrderKey: "step ASC",
	Integer: map[string]bool{
		"step": true, "seq": true, "code": true, "group_index": true,
		"axis_row": true, "axis_col": true, "cursor": true,
		"artificial": true, "deep": true, "origin_seq": true,
	},
}

// RunsTable holds one row per stored run.
var RunsTable = Table{
	Name: "runs",
	Columns: []string{
		"id", "report_name", "definition_json", "dataset_json", "definition_hash",
		"dataset_hash", "trace_digest", "event_count", "restarts", "max_steps",
		"status", "error", "engine_version",
	},
	OrderKey: "id COLLATE BINARY ASC",
	Integer:  map[string]bool{"event_count": true, "max_steps": true},
}

// Filter-only columns that are not read back into records.
var filterColumns = map[string][]string{
	"events": {"run_id"},
}

// LookupTable returns the table with the given name.
func LookupTable(name string) (Table, bool) {
	switch name {
	case EventsTable.Name:
		return EventsTable, true
	case RunsTable.Name:
		return RunsTable, true
	default:
		return Table{}, false
	}
}

// filterable reports whether a predicate may reference the column.
func (t Table) filterable(name string) bool {
	if t.HasColumn(name) {
		return true
	}
	for _, c := range filterColumns[t.Name] {
		if c == name {
			return true
		}
	}
	return false
}
