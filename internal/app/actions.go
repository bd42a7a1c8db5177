package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jinhealth/reconcile/internal/config"
	"github.com/jinhealth/reconcile/internal/dragdrop"
	"github.com/jinhealth/reconcile/internal/editor"
	"github.com/jinhealth/reconcile/internal/log"
	"github.com/jinhealth/reconcile/internal/mode"
	"github.com/jinhealth/reconcile/internal/registry"
	"github.com/jinhealth/reconcile/internal/ui/modal"
	"github.com/jinhealth/reconcile/internal/ui/panes"
	"github.com/jinhealth/reconcile/internal/ui/toaster"
)

// Modal purposes.
const (
	purposeNewGroup     = "new-group"
	purposeRename       = "rename"
	purposeManualMerge  = "manual-merge"
	purposeQuickExclude = "quick-exclude"
	purposeUnmerge      = "unmerge"
	purposeDeleteGroup  = "delete-group"
	purposeReload       = "reload"
	purposeQuit         = "quit"
)

const candidateLimit = 5

func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.pane(m.focus)
	row, hasRow := p.Selected()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
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
	case key.Matches(msg, m.keys.MappingView):
		return m.switchMode(mode.MappingTable), nil
	case key.Matches(msg, m.keys.ChangesView):
		return m.switchMode(mode.Changes), nil
	case key.Matches(msg, m.keys.Save):
		return m.save()
	case key.Matches(msg, m.keys.Reload):
		return m.reload()
	case key.Matches(msg, m.keys.ToggleCounts):
		return m.toggleCounts()
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.filter.SetValue(p.Filter())
		m.filter.CursorEnd()
		return m, m.filter.Focus()
	case key.Matches(msg, m.keys.ManualMerge):
		source := ""
		if hasRow && row.Kind == panes.KindName {
			source = row.Name
		}
		return m.openModal(modal.Config{
			Purpose: purposeManualMerge,
			Title:   "Merge by name",
			Message: "Move an unclassified company into a group. The group is created when it does not exist.",
			Inputs: []modal.Input{
				{Key: "source", Label: "Company", Value: source, Placeholder: "unclassified name"},
				{Key: "target", Label: "Standard name", Placeholder: "group name", Limit: m.nameLimit()},
			},
		})
	case key.Matches(msg, m.keys.QuickExclude):
		return m.openModal(modal.Config{
			Purpose: purposeQuickExclude,
			Title:   "Exclude by name",
			Message: "Type an unclassified name or a group name to leave out of statistics.",
			Inputs:  []modal.Input{{Key: "name", Label: "Name"}},
			Variant: modal.Danger,
			Confirm: "Exclude",
		})
	}
	if !hasRow {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Grab):
		return m.beginDrag(row, false)
	case key.Matches(msg, m.keys.Exclude):
		if row.Kind == panes.KindExcludedName || row.Kind == panes.KindExcludedGroup {
			return m, nil
		}
		m.apply(m.ed.Exclude(row.Name))
	case key.Matches(msg, m.keys.Release):
		switch row.Kind {
		case panes.KindMember:
			m.subject = row.Group
			if m.opts.Config.UI.ConfirmDestructive {
				return m.openModal(modal.Config{
					Purpose: purposeUnmerge,
					Title:   "Unmerge",
					Message: fmt.Sprintf("Move %q out of %q back to Unclassified?", row.Name, row.Group),
					Confirm: "Unmerge",
					Variant: modal.Danger,
				})
			}
			m.apply(m.ed.Unmerge(row.Name, row.Group))
		case panes.KindExcludedName, panes.KindExcludedGroup:
			m.apply(m.ed.Restore(row.Name))
		}
	case key.Matches(msg, m.keys.Rename):
		if row.Group == "" {
			return m, nil
		}
		m.subject = row.Group
		return m.openModal(modal.Config{
			Purpose: purposeRename,
			Title:   "Rename group",
			Inputs:  []modal.Input{{Key: "name", Label: "Standard name", Value: row.Group, Limit: m.nameLimit()}},
		})
	case key.Matches(msg, m.keys.Promote):
		if row.Kind != panes.KindMember {
			return m, nil
		}
		if err := m.ed.Promote(row.Group, row.Name); err != nil {
			return m.toast(err.Error(), toaster.Error)
		}
		m.refresh()
		m.pane(dragdrop.PaneGroups).Select(groupKey(row.Name))
	case key.Matches(msg, m.keys.DeleteGroup):
		if row.Kind != panes.KindGroup && row.Kind != panes.KindMember {
			return m, nil
		}
		m.subject = row.Group
		if m.opts.Config.UI.ConfirmDestructive {
			return m.openModal(modal.Config{
				Purpose: purposeDeleteGroup,
				Title:   "Delete group",
				Message: fmt.Sprintf("Dissolve %q? Its members return to Unclassified.", row.Group),
				Confirm: "Delete",
				Variant: modal.Danger,
			})
		}
		m.apply(m.ed.DeleteGroup(row.Group))
	}
	return m, nil
}

// apply refreshes the panes after an editor call that reported a change.
func (m *Model) apply(changed bool) {
	if changed {
		m.refresh()
	}
}

func (m Model) nameLimit() int {
	return m.opts.Config.UI.MaxNameLength
}

func (m Model) openModal(cfg modal.Config) (tea.Model, tea.Cmd) {
	md := modal.New(cfg)
	m.modal = &md
	return m, md.Init()
}

func (m Model) closeModal() Model {
	m.modal = nil
	m.subject = ""
	return m
}

// submit dispatches a confirmed dialog.
func (m Model) submit(msg modal.SubmitMsg) (tea.Model, tea.Cmd) {
	if m.modal == nil || m.modal.Purpose() != msg.Purpose {
		return m, nil
	}
	var err error
	switch msg.Purpose {
	case purposeNewGroup:
		_, err = m.drag.ConfirmNewGroup(msg.Values["name"])
		if err == nil {
			m.clearDragHighlight()
			m.refresh()
			m.setFocus(dragdrop.PaneGroups)
			m.pane(dragdrop.PaneGroups).Select(groupKey(editor.Clean(msg.Values["name"])))
		}
	case purposeRename:
		name := editor.Clean(msg.Values["name"])
		if err = m.ed.Rename(m.subject, name); err == nil {
			m.refresh()
			m.pane(dragdrop.PaneGroups).Select(groupKey(name))
		}
	case purposeManualMerge:
		if err = m.ed.ManualMerge(msg.Values["source"], msg.Values["target"]); err == nil {
			m.refresh()
		}
	case purposeQuickExclude:
		if err = m.ed.QuickExclude(msg.Values["name"]); err == nil {
			m.refresh()
		}
	case purposeUnmerge:
		if row, ok := m.pane(dragdrop.PaneGroups).Selected(); ok && row.Kind == panes.KindMember && row.Group == m.subject {
			m.apply(m.ed.Unmerge(row.Name, row.Group))
		}
	case purposeDeleteGroup:
		if m.ed.Registry().HasGroup(m.subject) {
			m.apply(m.ed.DeleteGroup(m.subject))
		}
	case purposeReload:
		m = m.closeModal()
		return m.startLoad()
	case purposeQuit:
		return m.closeModal(), tea.Quit
	}
	if err != nil {
		md := m.modal.SetError(describe(err))
		m.modal = &md
		return m, nil
	}
	return m.closeModal(), nil
}

func (m Model) cancelModal(msg modal.CancelMsg) (tea.Model, tea.Cmd) {
	if m.modal == nil || m.modal.Purpose() != msg.Purpose {
		return m, nil
	}
	if msg.Purpose == purposeNewGroup {
		m.drag.Cancel()
		m.clearDragHighlight()
	}
	return m.closeModal(), nil
}

// describe turns editor errors into prompt feedback.
func describe(err error) string {
	if errors.Is(err, registry.ErrNameCollision) {
		return "A group with that name already exists."
	}
	if errors.Is(err, registry.ErrNameExcluded) {
		return "That name is excluded. Restore it first or pick another name."
	}
	msg := err.Error()
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func groupKey(name string) string {
	return panes.Row{Kind: panes.KindGroup, Name: name, Group: name}.Key()
}

// candidateHint lists quick-exclude matches for the prompt.
func (m Model) candidateHint(query string) string {
	cands := m.ed.QuickExcludeCandidates(query, candidateLimit)
	if len(cands) == 0 {
		if strings.TrimSpace(query) == "" {
			return ""
		}
		return "no match"
	}
	parts := make([]string, len(cands))
	for i, c := range cands {
		parts[i] = c.Name
		if c.Group {
			parts[i] += " (group)"
		}
	}
	return strings.Join(parts, " · ")
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.pane(m.focus)
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		*p = p.SetFilter("")
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	*p = p.SetFilter(strings.TrimSpace(m.filter.Value()))
	m.refresh()
	return m, cmd
}

func (m Model) save() (tea.Model, tea.Cmd) {
	switch {
	case m.saving || m.gw.Saving():
		return m.toast("A save is already in progress", toaster.Warn)
	case m.loading:
		return m.toast("Wait for the load to finish", toaster.Warn)
	case !m.loaded:
		return m.toast("Nothing loaded; reload with ctrl+r first", toaster.Warn)
	case !m.ed.Dirty():
		return m.toast("No unsaved changes", toaster.Info)
	}
	m.saving = true
	p := m.gw.Prepare()
	log.Info(log.CatUI, "Saving", "maps", len(p.Request.Maps), "excludes", len(p.Request.Excludes))
	return m, m.push(p)
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	if m.loading || m.saving {
		return m, nil
	}
	if m.ed.Dirty() {
		return m.openModal(modal.Config{
			Purpose: purposeReload,
			Title:   "Reload",
			Message: "Discard unsaved changes and reload from the backend?",
			Confirm: "Discard",
			Variant: modal.Danger,
		})
	}
	return m.startLoad()
}

func (m Model) startLoad() (tea.Model, tea.Cmd) {
	m.loading = true
	return m, m.load()
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.ed.Dirty() && m.opts.Config.UI.ConfirmDestructive {
		return m.openModal(modal.Config{
			Purpose: purposeQuit,
			Title:   "Quit",
			Message: "There are unsaved changes. Quit anyway?",
			Confirm: "Quit",
			Variant: modal.Danger,
		})
	}
	return m, tea.Quit
}

func (m Model) toggleCounts() (tea.Model, tea.Cmd) {
	m.opts.Config.UI.ShowCounts = !m.opts.Config.UI.ShowCounts
	if m.opts.ConfigPath == "" {
		return m, nil
	}
	if err := config.SaveUI(m.opts.ConfigPath, m.opts.Config.UI); err != nil {
		log.ErrorErr(log.CatConfig, "Saving UI settings failed", err)
		return m.toast("Could not save settings: "+err.Error(), toaster.Error)
	}
	return m, nil
}
