package app

import (
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/jinhealth/reconcile/internal/dragdrop"
	"github.com/jinhealth/reconcile/internal/ui/panes"
)

// handleMouse implements pointer drag and drop: press picks up the row under
// the pointer, motion tracks the hovered target, release drops.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	m.mouseX, m.mouseY = msg.X, msg.Y

	switch {
	case msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown:
		if p := m.paneAt(msg); p != dragdrop.PaneNone {
			delta := 1
			if msg.Button == tea.MouseButtonWheelUp {
				delta = -1
			}
			*m.pane(p) = m.pane(p).Move(delta)
		}
		return m, nil

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if m.drag.Dragging() {
			return m, nil
		}
		p := m.paneAt(msg)
		if p == dragdrop.PaneNone {
			return m, nil
		}
		m.setFocus(p)
		i, ok := m.pane(p).HitRow(msg)
		if !ok {
			return m, nil
		}
		*m.pane(p) = m.pane(p).SetCursor(i)
		row, _ := m.pane(p).Selected()
		return m.beginDrag(row, true)

	case msg.Action == tea.MouseActionMotion:
		if !m.byMouse || m.drag.State() != dragdrop.StateDragging {
			return m, nil
		}
		m.hoverNew = inZone(newGroupZoneID, msg)
		m.hover = m.paneAt(msg)
		m.markTarget()
		return m, nil

	case msg.Action == tea.MouseActionRelease:
		if !m.byMouse || m.drag.State() != dragdrop.StateDragging {
			return m, nil
		}
		t, ok := m.mouseTarget(msg)
		if !ok {
			m.drag.Cancel()
			m.clearDragHighlight()
			return m, nil
		}
		return m.finishDrop(m.drag.Drop(t))
	}
	return m, nil
}

// mouseTarget resolves the drop target under the pointer. It reports false
// outside every pane and on the dragged row itself, which cancels the drag.
func (m *Model) mouseTarget(msg tea.MouseMsg) (dragdrop.Target, bool) {
	if inZone(newGroupZoneID, msg) {
		return dragdrop.NewGroupZone(), true
	}
	p := m.paneAt(msg)
	if p == dragdrop.PaneNone {
		return dragdrop.Target{}, false
	}
	pane := m.pane(p)
	i, hit := pane.HitRow(msg)
	if !hit {
		return dropTarget(p, panes.Row{}, false), true
	}
	row := pane.Rows()[i]
	if row.Key() == rowKey(m.drag.Item()) {
		return dragdrop.Target{}, false
	}
	return dropTarget(p, row, true), true
}

func (m *Model) paneAt(msg tea.MouseMsg) dragdrop.Pane {
	for i := range m.panes {
		if m.panes[i].Contains(msg) {
			return dragdrop.Pane(i) + dragdrop.PaneUnclassified
		}
	}
	return dragdrop.PaneNone
}

func inZone(id string, msg tea.MouseMsg) bool {
	z := zone.Get(id)
	return z != nil && z.InBounds(msg)
}
