package engine

import "github.com/roach88/bandwalk/internal/report"

func commitBeginCrosstab(n *ProcessState) error {
	def := n.rt.def
	next := n.groupIndex + 1
	if !def.HasGroup(next) || def.Group(next).Kind != report.CrosstabRow {
		return newInvalidStructure(n, "crosstab %q must start with a crosstab-row group", def.Group(n.groupIndex).Name)
	}
	n.handler = Handler{kind: KindBeginCrosstabRowAxis}
	return nil
}

func commitBeginCrosstabRowBody(n *ProcessState) error {
	def := n.rt.def
	next := n.groupIndex + 1
	if !def.HasGroup(next) {
		return newInvalidStructure(n, "crosstab-row group %q has no crosstab-column group inside it", def.Group(n.groupIndex).Name)
	}
	h, err := beginHandlerFor(n, next)
	if err != nil {
		return err
	}
	n.handler = h
	return nil
}

func commitBeginCrosstabColumnBody(n *ProcessState) error {
	next := n.groupIndex + 1
	if !n.rt.def.HasGroup(next) {
		n.handler = Handler{kind: KindBeginCrosstabFact}
		return nil
	}
	h, err := beginHandlerFor(n, next)
	if err != nil {
		return err
	}
	n.handler = h
	return nil
}

func advanceProcessFact(n *ProcessState) error {
	if err := advanceRow(n); err != nil {
		return err
	}
	n.fire(n.handler.EventCode())
	return nil
}

func commitProcessCrosstabFact(n *ProcessState) error {
	if n.rt.ctrl.IsLastItemInGroup(n.cursor, n.groupIndex) {
		n.handler = Handler{kind: KindEndCrosstabFact}
	} else {
		n.handler = Handler{kind: KindJoinCrosstabFact}
	}
	return nil
}

// commitJoinEndCrosstabColumnAxis leaves a column group and decides, from
// the axis owning it, whether the next column instance begins or the owning
// body closes.
func commitJoinEndCrosstabColumnAxis(n *ProcessState) error {
	left := n.leaveGroup()
	owner, hasOwner := ownerKind(n)
	if !hasOwner {
		return newInvalidStructure(n, "crosstab-column group %q cannot be the root group", left.Name)
	}
	if owner != report.CrosstabRow && owner != report.CrosstabColumn {
		return newInvalidStructure(n, "crosstab-column group %q must be enclosed by a crosstab-row or crosstab-column group, not %s group %q",
			left.Name, owner, n.Group().Name)
	}

	switch {
	case !n.rt.ctrl.IsLastItemInGroup(n.cursor, n.groupIndex):
		n.handler = Handler{kind: KindBeginCrosstabColumnAxis}
	case left.PrintSummary:
		n.handler = Handler{kind: KindPrintSummaryEndCrosstabColumnAxis}
	default:
		n.handler = endBodyFor(owner)
	}
	return nil
}

// advancePrintSummary fires the summary of the column group just left. The
// state is already positioned on the owning axis.
func advancePrintSummary(n *ProcessState) error {
	def := n.rt.def
	summarized := n.groupIndex + 1
	if def.HasGroup(summarized) && def.Group(summarized).Kind == report.CrosstabColumn {
		n.fire(n.handler.EventCode())
	}
	return nil
}

func commitJoinPrintSummary(n *ProcessState) error {
	owner, hasOwner := ownerKind(n)
	if !hasOwner || (owner != report.CrosstabRow && owner != report.CrosstabColumn) {
		return newInvalidStructure(n, "summary row is not inside a crosstab-row or crosstab-column group")
	}
	n.handler = endBodyFor(owner)
	return nil
}

// commitJoinEndCrosstabRowAxis leaves a row group. A row group is owned by
// an outer row group or by the crosstab itself.
func commitJoinEndCrosstabRowAxis(n *ProcessState) error {
	left := n.leaveGroup()
	owner, hasOwner := ownerKind(n)
	more := hasOwner && !n.rt.ctrl.IsLastItemInGroup(n.cursor, n.groupIndex)

	switch {
	case hasOwner && owner == report.CrosstabRow:
		if more {
			n.handler = Handler{kind: KindBeginCrosstabRowAxis}
		} else {
			n.handler = Handler{kind: KindEndCrosstabRowBody}
		}
	case hasOwner && owner == report.Crosstab:
		if more {
			n.handler = Handler{kind: KindBeginCrosstabRowAxis}
		} else {
			n.handler = Handler{kind: KindEndCrosstab}
		}
	default:
		return newInvalidStructure(n, "crosstab-row group %q must be enclosed by a crosstab or crosstab-row group", left.Name)
	}
	return nil
}

// ownerKind returns the kind of the state's current group; false before the
// first group.
func ownerKind(n *ProcessState) (report.GroupKind, bool) {
	g := n.Group()
	if g == nil {
		return 0, false
	}
	return g.Kind, true
}

func endBodyFor(owner report.GroupKind) Handler {
	if owner == report.CrosstabRow {
		return Handler{kind: KindEndCrosstabRowBody}
	}
	return Handler{kind: KindEndCrosstabColumnBody}
}
