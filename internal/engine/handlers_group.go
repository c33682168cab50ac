package engine

import (
	"github.com/roach88/bandwalk/internal/report"
)

func advanceEnterGroup(n *ProcessState) error {
	n.enterGroup()
	n.fire(n.handler.EventCode())
	return nil
}

func commitBeginGroup(n *ProcessState) error {
	next := n.groupIndex + 1
	if !n.rt.def.HasGroup(next) {
		n.handler = Handler{kind: KindBeginDetails}
		return nil
	}
	h, err := beginHandlerFor(n, next)
	if err != nil {
		return err
	}
	n.handler = h
	return nil
}

// commitLeaveGroup closes a relational group or a crosstab and decides
// whether the enclosing group starts another instance of it or closes too.
func commitLeaveGroup(n *ProcessState) error {
	left := n.leaveGroup()
	ctrl := n.rt.ctrl

	p := n.groupIndex
	if p == report.BeforeFirstGroup {
		if ctrl.IsAdvanceable(n.cursor) {
			h, err := beginHandlerFor(n, 0)
			if err != nil {
				return err
			}
			n.handler = h
		} else {
			n.handler = Handler{kind: KindFinishReport}
		}
		return nil
	}

	if !ctrl.IsLastItemInGroup(n.cursor, p) {
		h, err := beginHandlerFor(n, p+1)
		if err != nil {
			return err
		}
		n.handler = h
		return nil
	}

	if parent := n.rt.def.Group(p); parent.Kind != report.Relational {
		return newInvalidStructure(n, "%s group %q cannot be closed into %s group %q",
			left.Kind, left.Name, parent.Kind, parent.Name)
	}
	n.handler = Handler{kind: KindEndGroup}
	return nil
}
