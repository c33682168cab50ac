package engine

import (
	"strings"

	"github.com/roach88/bandwalk/internal/ir"
)

// EventCode is a bitmask classifying an event. A code combines one phase
// flag with optional marker flags (Crosstab*, Artificial, DeepTraversing).
type EventCode uint32

const (
	ReportStarted EventCode = 1 << iota
	ReportFinished
	ReportDone
	GroupStarted
	GroupFinished
	GroupBodyStarted
	GroupBodyFinished
	ItemsStarted
	ItemsAdvanced
	ItemsFinished
	SummaryRow

	// CrosstabTable marks events of the crosstab group itself.
	CrosstabTable
	// CrosstabRow marks events of a crosstab row axis.
	CrosstabRow
	// CrosstabColumn marks events of a crosstab column axis.
	CrosstabColumn

	// Artificial marks events fired by a restart replay step rather than by
	// forward progress.
	Artificial
	// DeepTraversing marks sub-report events re-fired through the parent.
	DeepTraversing
)

// Crosstab marks fact (item) events inside a crosstab.
const Crosstab = CrosstabTable | CrosstabRow | CrosstabColumn

// PhaseMask selects the phase flags of a code.
const PhaseMask = ReportStarted | ReportFinished | ReportDone |
	GroupStarted | GroupFinished | GroupBodyStarted | GroupBodyFinished |
	ItemsStarted | ItemsAdvanced | ItemsFinished | SummaryRow

var eventCodeNames = []struct {
	code EventCode
	name string
}{
	{ReportStarted, "report-started"},
	{ReportFinished, "report-finished"},
	{ReportDone, "report-done"},
	{GroupStarted, "group-started"},
	{GroupFinished, "group-finished"},
	{GroupBodyStarted, "group-body-started"},
	{GroupBodyFinished, "group-body-finished"},
	{ItemsStarted, "items-started"},
	{ItemsAdvanced, "items-advanced"},
	{ItemsFinished, "items-finished"},
	{SummaryRow, "summary-row"},
	{Crosstab, "crosstab"},
	{CrosstabTable, "crosstab-table"},
	{CrosstabRow, "crosstab-row"},
	{CrosstabColumn, "crosstab-column"},
	{Artificial, "artificial"},
	{DeepTraversing, "deep"},
}

// Has reports whether every flag of mask is set.
func (c EventCode) Has(mask EventCode) bool {
	return mask != 0 && c&mask == mask
}

// Phase returns the phase flags of c.
func (c EventCode) Phase() EventCode {
	return c & PhaseMask
}

// String renders the set flags joined by "|", e.g.
// "items-advanced|crosstab|deep". The crosstab fact marker is rendered as
// "crosstab" instead of its three axis flags.
func (c EventCode) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	rest := c
	for _, n := range eventCodeNames {
		if rest&n.code == n.code {
			parts = append(parts, n.name)
			rest &^= n.code
		}
	}
	if rest != 0 {
		parts = append(parts, "unknown")
	}
	return strings.Join(parts, "|")
}

// ParseEventCode parses a code rendered by String. Each "|"-separated name
// may be any flag name.
func ParseEventCode(s string) (EventCode, bool) {
	var code EventCode
	for _, part := range strings.Split(s, "|") {
		found := false
		for _, n := range eventCodeNames {
			if n.name == strings.TrimSpace(part) {
				code |= n.code
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return code, true
}

// Event is fired once per advance that produces one. State is the state the
// event was fired through; Origin is the state that produced it. They differ
// only for sub-report events re-fired in the parent.
type Event struct {
	Code   EventCode
	State  *ProcessState
	Origin *ProcessState
}

// IsDeep reports whether the event came from a nested sub-report.
func (e Event) IsDeep() bool {
	return e.Code.Has(DeepTraversing)
}

// Record converts the event to its store-layer form. step is the 1-based
// position of the event in its run.
func (e Event) Record(step int) ir.EventRecord {
	row, col := e.State.axisRow, e.State.axisCol
	rec := ir.EventRecord{
		Step:       step,
		Seq:        e.State.seq,
		Code:       uint32(e.Code),
		Handler:    e.State.handler.String(),
		Group:      e.State.groupIndex,
		AxisRow:    row,
		AxisCol:    col,
		Cursor:     e.State.cursor.Index,
		Artificial: e.State.artificial,
		Deep:       e.IsDeep(),
	}
	if e.Origin != nil && e.Origin != e.State {
		rec.OriginHandler = e.Origin.handler.String()
		rec.OriginSeq = e.Origin.seq
	}
	return rec
}

// Listener receives events synchronously, in firing order. Listeners must
// not retain or mutate the states they receive beyond reading them.
type Listener interface {
	OnEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(e Event) {
	f(e)
}
