package app

import (
	"github.com/jinhealth/reconcile/internal/dragdrop"
	"github.com/jinhealth/reconcile/internal/editor"
	"github.com/jinhealth/reconcile/internal/ui/panes"
)

// unclassifiedRows lists the Unclassified pane after filtering.
func unclassifiedRows(ed *editor.Editor, filter string) (rows []panes.Row, total int) {
	all := ed.Unclassified()
	for _, n := range ed.Filter(all, filter) {
		rows = append(rows, panes.Row{Kind: panes.KindName, Name: n})
	}
	return rows, len(all)
}

// groupRows lists each group header followed by its members. A group is shown
// whole when its name or any member matches the filter.
func groupRows(ed *editor.Editor, filter string) (rows []panes.Row, total int) {
	groups := ed.Groups()
	for _, g := range groups {
		match := ed.Matches(g.Name, filter)
		for _, m := range g.Members {
			match = match || ed.Matches(m, filter)
		}
		if !match {
			continue
		}
		rows = append(rows, panes.Row{Kind: panes.KindGroup, Name: g.Name, Group: g.Name, Count: len(g.Members), Flagged: g.Excluded})
		for i, m := range g.Members {
			rows = append(rows, panes.Row{Kind: panes.KindMember, Name: m, Group: g.Name, Index: i, Count: len(g.Members)})
		}
	}
	return rows, len(groups)
}

// excludedRows lists the exclusion list in insertion order.
func excludedRows(ed *editor.Editor, filter string) (rows []panes.Row, total int) {
	entries := ed.Excluded()
	for _, e := range entries {
		if !ed.Matches(e.Name, filter) {
			continue
		}
		r := panes.Row{Kind: panes.KindExcludedName, Name: e.Name}
		if e.Group {
			r.Kind, r.Group = panes.KindExcludedGroup, e.Name
		}
		rows = append(rows, r)
	}
	return rows, len(entries)
}

// dragItem converts a pane row into the item a drag carries.
func dragItem(r panes.Row) dragdrop.Item {
	switch r.Kind {
	case panes.KindGroup:
		return dragdrop.Item{Name: r.Name, Pane: dragdrop.PaneGroups, Group: r.Name, Header: true}
	case panes.KindMember:
		return dragdrop.Item{Name: r.Name, Pane: dragdrop.PaneGroups, Group: r.Group}
	case panes.KindExcludedName:
		return dragdrop.Item{Name: r.Name, Pane: dragdrop.PaneExcluded}
	case panes.KindExcludedGroup:
		return dragdrop.Item{Name: r.Name, Pane: dragdrop.PaneExcluded, Group: r.Name}
	default:
		return dragdrop.Item{Name: r.Name, Pane: dragdrop.PaneUnclassified}
	}
}

// dropTarget is where a drop lands when released on row r of pane p, or on
// the pane background when hasRow is false.
func dropTarget(p dragdrop.Pane, r panes.Row, hasRow bool) dragdrop.Target {
	if p == dragdrop.PaneGroups && hasRow {
		switch r.Kind {
		case panes.KindGroup:
			return dragdrop.OnGroup(r.Name)
		case panes.KindMember:
			return dragdrop.OnMember(r.Group, r.Index)
		}
	}
	return dragdrop.OnPane(p)
}

// rowKey is the panes.Row key of a dragged item, for highlighting it.
func rowKey(it dragdrop.Item) string {
	var r panes.Row
	switch {
	case it.Pane == dragdrop.PaneUnclassified:
		r = panes.Row{Kind: panes.KindName, Name: it.Name}
	case it.Pane == dragdrop.PaneGroups && it.Header:
		r = panes.Row{Kind: panes.KindGroup, Name: it.Name, Group: it.Group}
	case it.Pane == dragdrop.PaneGroups:
		r = panes.Row{Kind: panes.KindMember, Name: it.Name, Group: it.Group}
	case it.Group != "":
		r = panes.Row{Kind: panes.KindExcludedGroup, Name: it.Name, Group: it.Group}
	default:
		r = panes.Row{Kind: panes.KindExcludedName, Name: it.Name}
	}
	return r.Key()
}
