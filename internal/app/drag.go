package app

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jinhealth/reconcile/internal/dragdrop"
	"github.com/jinhealth/reconcile/internal/log"
	"github.com/jinhealth/reconcile/internal/registry"
	"github.com/jinhealth/reconcile/internal/ui/modal"
	"github.com/jinhealth/reconcile/internal/ui/panes"
	"github.com/jinhealth/reconcile/internal/ui/toaster"
)

// newGroupZoneHeight is the box shown under the Groups pane while dragging.
const newGroupZoneHeight = 3

const newGroupZoneID = "newgroup"

func (m Model) beginDrag(row panes.Row, byMouse bool) (tea.Model, tea.Cmd) {
	it := dragItem(row)
	if !m.drag.Begin(it) {
		return m, nil
	}
	m.byMouse = byMouse
	src := m.pane(it.Pane)
	*src = src.SetGrabbed(rowKey(it))
	m.hover, m.hoverNew = it.Pane, false
	m.layout()
	m.markTarget()
	return m, nil
}

// handleDragKey moves a keyboard drag between panes and drops it.
func (m Model) handleDragKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.pane(m.focus)
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.drag.Cancel()
		m.clearDragHighlight()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		*p = p.Move(-1)
	case key.Matches(msg, m.keys.Down):
		*p = p.Move(1)
	case key.Matches(msg, m.keys.Top):
		*p = p.Top()
	case key.Matches(msg, m.keys.Bottom):
		*p = p.Bottom()
	case key.Matches(msg, m.keys.NextPane):
		m.setFocus(m.focus%dragdrop.PaneExcluded + 1)
	case key.Matches(msg, m.keys.PrevPane):
		m.setFocus((m.focus+1)%3 + 1)
	case key.Matches(msg, m.keys.NewGroup):
		return m.finishDrop(m.drag.Drop(dragdrop.NewGroupZone()))
	case key.Matches(msg, m.keys.Drop):
		row, ok := p.Selected()
		return m.finishDrop(m.drag.Drop(dropTarget(m.focus, row, ok)))
	}
	m.hover, m.hoverNew = m.focus, false
	m.markTarget()
	return m, nil
}

// finishDrop applies the outcome of a drop to the view. A drop on the
// new-group zone leaves the drag prompting until the dialog closes.
func (m Model) finishDrop(res dragdrop.Result) (tea.Model, tea.Cmd) {
	it := m.drag.Item()
	if m.drag.State() == dragdrop.StatePrompting {
		m.hoverNew = true
		m.markTarget()
		return m.openModal(modal.Config{
			Purpose: purposeNewGroup,
			Title:   "New group",
			Message: "Standard name for the new group. Press enter to keep the dragged name.",
			Inputs: []modal.Input{{
				Key:   "name",
				Label: "Standard name",
				Value: res.Suggested,
				Limit: m.nameLimit(),
			}},
			Confirm: "Create",
		})
	}

	m.clearDragHighlight()
	switch {
	case res.Outcome == dragdrop.OutcomeCancelled:
		log.Debug(log.CatUI, "Drop refused")
		return m.toast("Groups cannot be dropped there", toaster.Warn)
	case res.Changed:
		m.refresh()
		if it.Name != "" {
			m.reveal(it)
		}
	}
	return m, nil
}

// reveal moves focus and selection to where a dropped item ended up.
func (m *Model) reveal(it dragdrop.Item) {
	var (
		pane dragdrop.Pane
		row  panes.Row
	)
	loc := m.ed.Registry().Locate(it.Name)
	switch {
	case it.Header:
		pane, row = dragdrop.PaneGroups, panes.Row{Kind: panes.KindGroup, Name: it.Group, Group: it.Group}
		if m.ed.Registry().IsExcluded(it.Group) {
			pane, row = dragdrop.PaneExcluded, panes.Row{Kind: panes.KindExcludedGroup, Name: it.Group, Group: it.Group}
		}
	case loc.Bucket == registry.BucketUnclassified:
		pane, row = dragdrop.PaneUnclassified, panes.Row{Kind: panes.KindName, Name: it.Name}
	case loc.Bucket == registry.BucketGroup:
		pane, row = dragdrop.PaneGroups, panes.Row{Kind: panes.KindMember, Name: it.Name, Group: loc.Group}
	case loc.Bucket == registry.BucketExcluded:
		pane, row = dragdrop.PaneExcluded, panes.Row{Kind: panes.KindExcludedName, Name: it.Name}
	default:
		return
	}
	if m.pane(pane).Select(row.Key()) {
		m.setFocus(pane)
	}
}

// markTarget highlights the pane or zone the drag hovers.
func (m *Model) markTarget() {
	for i := range m.panes {
		p := dragdrop.Pane(i) + dragdrop.PaneUnclassified
		m.panes[i] = m.panes[i].SetDropTarget(m.drag.Dragging() && !m.hoverNew && p == m.hover)
	}
}

// clearDragHighlight resets drag decoration once the controller is idle.
func (m *Model) clearDragHighlight() {
	if m.drag.Dragging() {
		return
	}
	for i := range m.panes {
		m.panes[i] = m.panes[i].SetGrabbed("").SetDropTarget(false)
	}
	m.hover, m.hoverNew, m.byMouse = dragdrop.PaneNone, false, false
	m.layout()
}
