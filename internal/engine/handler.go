package engine

import "fmt"

// Kind enumerates the traversal phases. Every kind has an entry in the
// handler table; the set is closed.
type Kind uint8

const (
	KindBeginReport Kind = iota
	KindFinishReport
	KindReportDone
	KindEndReport

	KindBeginGroup
	KindEndGroup
	KindBeginDetails
	KindProcessDetails
	KindJoinDetails
	KindEndDetails

	KindBeginCrosstab
	KindEndCrosstab
	KindBeginCrosstabRowAxis
	KindBeginCrosstabRowBody
	KindEndCrosstabRowBody
	KindEndCrosstabRowAxis
	KindJoinEndCrosstabRowAxis
	KindBeginCrosstabColumnAxis
	KindBeginCrosstabColumnBody
	KindBeginCrosstabFact
	KindProcessCrosstabFact
	KindJoinCrosstabFact
	KindEndCrosstabFact
	KindEndCrosstabColumnBody
	KindEndCrosstabColumnAxis
	KindJoinEndCrosstabColumnAxis
	KindPrintSummaryEndCrosstabColumnAxis
	KindJoinPrintSummaryEndCrosstabColumnAxis

	KindRestartOnNewPage

	kindCount
)

// Handler is the transition logic of the current phase. It is a plain value:
// a kind tag, plus the deferred kind for the restart wrapper.
type Handler struct {
	kind    Kind
	wrapped Kind
}

// Kind returns the handler's kind.
func (h Handler) Kind() Kind { return h.kind }

// Wrapped returns the kind a restart wrapper resumes with.
func (h Handler) Wrapped() (Kind, bool) {
	if h.kind != KindRestartOnNewPage {
		return 0, false
	}
	return h.wrapped, true
}

// EventCode returns the code the handler's advance fires. Join handlers fire
// nothing and return 0. The restart wrapper fires Artificial alone; the
// deferred kind is available through Wrapped.
func (h Handler) EventCode() EventCode {
	if h.kind == KindRestartOnNewPage {
		return Artificial
	}
	return handlers[h.kind].code
}

// IsFinish reports whether the handler is the terminal one.
func (h Handler) IsFinish() bool { return h.kind == KindEndReport }

// IsRestoreHandler reports whether the handler only resumes processing after
// a restart.
func (h Handler) IsRestoreHandler() bool { return h.kind == KindRestartOnNewPage }

func (h Handler) String() string {
	if h.kind == KindRestartOnNewPage {
		return fmt.Sprintf("%s(%s)", h.kind, h.wrapped)
	}
	return h.kind.String()
}

func (k Kind) String() string {
	if k < kindCount && handlers[k].name != "" {
		return handlers[k].name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// handlerSpec is one row of the dispatch table.
//
// advance receives a derived tentative state still owned by the engine: it
// may move the state and fire events through it. commit receives a derived
// copy of the committed tentative state and must install the next handler.
type handlerSpec struct {
	name    string
	code    EventCode
	advance func(n *ProcessState) error
	commit  func(n *ProcessState) error
}

var handlers [kindCount]handlerSpec

func init() {
	handlers = [kindCount]handlerSpec{
		KindBeginReport:  {name: "begin-report", code: ReportStarted, advance: fireOnly, commit: commitBeginReport},
		KindFinishReport: {name: "finish-report", code: ReportFinished, advance: fireOnly, commit: goTo(KindReportDone)},
		KindReportDone:   {name: "report-done", code: ReportDone, advance: fireOnly, commit: goTo(KindEndReport)},
		KindEndReport:    {name: "end-report", advance: advanceFinished, commit: commitFinished},

		KindBeginGroup:     {name: "begin-group", code: GroupStarted, advance: advanceEnterGroup, commit: commitBeginGroup},
		KindEndGroup:       {name: "end-group", code: GroupFinished, advance: fireOnly, commit: commitLeaveGroup},
		KindBeginDetails:   {name: "begin-details", code: ItemsStarted, advance: advanceBeginItems, commit: goTo(KindProcessDetails)},
		KindProcessDetails: {name: "process-details", code: ItemsAdvanced, advance: advanceProcessDetails, commit: commitProcessDetails},
		KindJoinDetails:    {name: "join-details", advance: join, commit: goTo(KindProcessDetails)},
		KindEndDetails:     {name: "end-details", code: ItemsFinished, advance: advanceEndItems, commit: commitEndDetails},

		KindBeginCrosstab:                         {name: "begin-crosstab", code: GroupStarted | CrosstabTable, advance: advanceEnterGroup, commit: commitBeginCrosstab},
		KindEndCrosstab:                           {name: "end-crosstab", code: GroupFinished | CrosstabTable, advance: fireOnly, commit: commitLeaveGroup},
		KindBeginCrosstabRowAxis:                  {name: "begin-crosstab-row-axis", code: GroupStarted | CrosstabRow, advance: advanceEnterGroup, commit: goTo(KindBeginCrosstabRowBody)},
		KindBeginCrosstabRowBody:                  {name: "begin-crosstab-row-body", code: GroupBodyStarted | CrosstabRow, advance: fireOnly, commit: commitBeginCrosstabRowBody},
		KindEndCrosstabRowBody:                    {name: "end-crosstab-row-body", code: GroupBodyFinished | CrosstabRow, advance: fireOnly, commit: goTo(KindEndCrosstabRowAxis)},
		KindEndCrosstabRowAxis:                    {name: "end-crosstab-row-axis", code: GroupFinished | CrosstabRow, advance: fireOnly, commit: goTo(KindJoinEndCrosstabRowAxis)},
		KindJoinEndCrosstabRowAxis:                {name: "join-end-crosstab-row-axis", advance: join, commit: commitJoinEndCrosstabRowAxis},
		KindBeginCrosstabColumnAxis:               {name: "begin-crosstab-column-axis", code: GroupStarted | CrosstabColumn, advance: advanceEnterGroup, commit: goTo(KindBeginCrosstabColumnBody)},
		KindBeginCrosstabColumnBody:               {name: "begin-crosstab-column-body", code: GroupBodyStarted | CrosstabColumn, advance: fireOnly, commit: commitBeginCrosstabColumnBody},
		KindBeginCrosstabFact:                     {name: "begin-crosstab-fact", code: ItemsStarted | Crosstab, advance: advanceBeginItems, commit: goTo(KindProcessCrosstabFact)},
		KindProcessCrosstabFact:                   {name: "process-crosstab-fact", code: ItemsAdvanced | Crosstab, advance: advanceProcessFact, commit: commitProcessCrosstabFact},
		KindJoinCrosstabFact:                      {name: "join-crosstab-fact", advance: join, commit: goTo(KindProcessCrosstabFact)},
		KindEndCrosstabFact:                       {name: "end-crosstab-fact", code: ItemsFinished | Crosstab, advance: advanceEndItems, commit: goTo(KindEndCrosstabColumnBody)},
		KindEndCrosstabColumnBody:                 {name: "end-crosstab-column-body", code: GroupBodyFinished | CrosstabColumn, advance: fireOnly, commit: goTo(KindEndCrosstabColumnAxis)},
		KindEndCrosstabColumnAxis:                 {name: "end-crosstab-column-axis", code: GroupFinished | CrosstabColumn, advance: fireOnly, commit: goTo(KindJoinEndCrosstabColumnAxis)},
		KindJoinEndCrosstabColumnAxis:             {name: "join-end-crosstab-column-axis", advance: join, commit: commitJoinEndCrosstabColumnAxis},
		KindPrintSummaryEndCrosstabColumnAxis:     {name: "print-summary-end-crosstab-column-axis", code: SummaryRow | CrosstabColumn, advance: advancePrintSummary, commit: goTo(KindJoinPrintSummaryEndCrosstabColumnAxis)},
		KindJoinPrintSummaryEndCrosstabColumnAxis: {name: "join-print-summary-end-crosstab-column-axis", advance: join, commit: commitJoinPrintSummary},

		KindRestartOnNewPage: {name: "restart-on-new-page", advance: advanceRestart, commit: commitRestart},
	}

	for k, h := range handlers {
		if h.name == "" || h.advance == nil || h.commit == nil {
			panic(fmt.Sprintf("engine: handler table has no entry for kind %d", k))
		}
	}
}

// goTo is a commit that installs a fixed next handler.
func goTo(next Kind) func(*ProcessState) error {
	return func(n *ProcessState) error {
		n.handler = Handler{kind: next}
		return nil
	}
}

// fireOnly is an advance that fires the handler's code and moves nothing.
func fireOnly(n *ProcessState) error {
	n.fire(n.handler.EventCode())
	return nil
}

// join is the advance of join points: the state is re-derived and no event
// fires.
func join(*ProcessState) error {
	return nil
}

func advanceFinished(n *ProcessState) error {
	return newIllegalTraversal(n, "advance called on a finished traversal")
}

func commitFinished(n *ProcessState) error {
	return newIllegalTraversal(n, "commit called on a finished traversal")
}
