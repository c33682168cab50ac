package engine

import "github.com/roach88/bandwalk/internal/report"

func advanceBeginItems(n *ProcessState) error {
	n.inItemGroup = true
	n.fire(n.handler.EventCode())
	return nil
}

func advanceEndItems(n *ProcessState) error {
	n.inItemGroup = false
	n.fire(n.handler.EventCode())
	return nil
}

// advanceRow moves the cursor to the next row. Controller errors are
// returned as they are.
func advanceRow(n *ProcessState) error {
	c, err := n.rt.ctrl.AdvanceCursor(n.cursor)
	if err != nil {
		return err
	}
	n.cursor = c
	return nil
}

func advanceProcessDetails(n *ProcessState) error {
	if err := advanceRow(n); err != nil {
		return err
	}
	n.fire(n.handler.EventCode())
	return inlineSubReports(n)
}

func commitProcessDetails(n *ProcessState) error {
	if n.rt.ctrl.IsLastItemInGroup(n.cursor, n.groupIndex) {
		n.handler = Handler{kind: KindEndDetails}
	} else {
		n.handler = Handler{kind: KindJoinDetails}
	}
	return nil
}

func commitEndDetails(n *ProcessState) error {
	if n.groupIndex == report.BeforeFirstGroup {
		n.handler = Handler{kind: KindFinishReport}
	} else {
		n.handler = Handler{kind: KindEndGroup}
	}
	return nil
}
