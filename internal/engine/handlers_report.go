package engine

import "github.com/roach88/bandwalk/internal/report"

func commitBeginReport(n *ProcessState) error {
	switch {
	case !n.rt.ctrl.IsAdvanceable(n.cursor):
		n.handler = Handler{kind: KindReportDone}
	case n.rt.def.IsEmpty():
		n.handler = Handler{kind: KindBeginDetails}
	default:
		h, err := beginHandlerFor(n, 0)
		if err != nil {
			return err
		}
		n.handler = h
	}
	return nil
}

// beginHandlerFor returns the handler that enters group idx from the
// current position, after checking that the group may sit where it does.
func beginHandlerFor(n *ProcessState, idx int) (Handler, error) {
	def := n.rt.def
	g := def.Group(idx)
	parent, hasParent := parentKind(def, idx)

	switch g.Kind {
	case report.Relational, report.Crosstab:
		if hasParent && parent != report.Relational {
			return Handler{}, newInvalidStructure(n, "%s group %q cannot be nested inside %s group %q",
				g.Kind, g.Name, parent, def.Group(idx-1).Name)
		}
		if g.Kind == report.Crosstab {
			return Handler{kind: KindBeginCrosstab}, nil
		}
		return Handler{kind: KindBeginGroup}, nil

	case report.CrosstabRow:
		if !hasParent || (parent != report.Crosstab && parent != report.CrosstabRow) {
			return Handler{}, newInvalidStructure(n, "crosstab-row group %q must be enclosed by a crosstab or crosstab-row group", g.Name)
		}
		return Handler{kind: KindBeginCrosstabRowAxis}, nil

	case report.CrosstabColumn:
		if err := checkColumnParent(n, idx); err != nil {
			return Handler{}, err
		}
		return Handler{kind: KindBeginCrosstabColumnAxis}, nil
	}
	return Handler{}, newInvalidStructure(n, "group %q has unknown kind %s", g.Name, g.Kind)
}

// parentKind returns the kind of the group enclosing idx; false for the root.
func parentKind(def *report.Definition, idx int) (report.GroupKind, bool) {
	if idx <= 0 {
		return 0, false
	}
	return def.Group(idx - 1).Kind, true
}

// checkColumnParent classifies the axis owning column group idx. Only a row
// or column group can own a column axis; a column group at the root is never
// valid.
func checkColumnParent(n *ProcessState, idx int) error {
	def := n.rt.def
	g := def.Group(idx)
	parent, hasParent := parentKind(def, idx)
	if !hasParent {
		return newInvalidStructure(n, "crosstab-column group %q cannot be the root group", g.Name)
	}
	if parent != report.CrosstabRow && parent != report.CrosstabColumn {
		return newInvalidStructure(n, "crosstab-column group %q must be enclosed by a crosstab-row or crosstab-column group, not %s group %q",
			g.Name, parent, def.Group(idx-1).Name)
	}
	return nil
}
