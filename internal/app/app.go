// Package app contains the root application model.
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jinhealth/reconcile/internal/config"
	"github.com/jinhealth/reconcile/internal/dragdrop"
	"github.com/jinhealth/reconcile/internal/editor"
	"github.com/jinhealth/reconcile/internal/keys"
	"github.com/jinhealth/reconcile/internal/log"
	"github.com/jinhealth/reconcile/internal/mode"
	"github.com/jinhealth/reconcile/internal/pubsub"
	"github.com/jinhealth/reconcile/internal/syncgw"
	"github.com/jinhealth/reconcile/internal/ui/help"
	"github.com/jinhealth/reconcile/internal/ui/logoverlay"
	"github.com/jinhealth/reconcile/internal/ui/modal"
	"github.com/jinhealth/reconcile/internal/ui/panes"
	"github.com/jinhealth/reconcile/internal/ui/styles"
	"github.com/jinhealth/reconcile/internal/ui/toaster"
)

// Options carries settings that are not part of the editor state.
type Options struct {
	Config     config.Config
	ConfigPath string // where UI toggles are persisted; empty disables saving
}

type loadedMsg struct {
	snap syncgw.Snapshot
	err  error
}

type savedMsg struct {
	pending syncgw.Pending
	err     error
}

// Model is the root application state.
type Model struct {
	ctx  context.Context
	ed   *editor.Editor
	gw   *syncgw.Gateway
	drag *dragdrop.Controller
	opts Options
	keys keys.KeyMap

	mode  mode.AppMode
	prev  mode.AppMode
	panes [3]panes.Pane
	focus dragdrop.Pane

	// mouse drag bookkeeping
	hover    dragdrop.Pane
	hoverNew bool
	mouseX   int
	mouseY   int
	byMouse  bool

	modal   *modal.Model
	subject string // group or name a confirmation or rename refers to

	filtering bool
	filter    textinput.Model

	table   viewport.Model
	changes viewport.Model
	help    help.Model

	toaster toaster.Model
	logs    logoverlay.Model

	loading bool
	loaded  bool
	loadErr error
	saving  bool

	syncEvents *pubsub.Listener[syncgw.Event]
	logLines   *log.Listener

	width  int
	height int
}

// New wires the root model. ctx bounds backend calls and event listeners.
func New(ctx context.Context, ed *editor.Editor, gw *syncgw.Gateway, opts Options) Model {
	fi := textinput.New()
	fi.Prompt = "/"
	fi.Placeholder = "filter"
	fi.CharLimit = 100

	km := keys.DefaultKeyMap()
	m := Model{
		ctx:  ctx,
		ed:   ed,
		gw:   gw,
		drag: dragdrop.New(ed),
		opts: opts,
		keys: km,
		panes: [3]panes.Pane{
			panes.New("unclassified", "Unclassified", styles.UnclassifiedColor),
			panes.New("groups", "Groups", styles.GroupColor),
			panes.New("excluded", "Excluded", styles.ExcludedColor),
		},
		focus:      dragdrop.PaneUnclassified,
		filter:     fi,
		help:       help.New(km, opts.Config.UI.MarkdownStyle),
		toaster:    toaster.New(),
		logs:       logoverlay.New(),
		loading:    true,
		syncEvents: pubsub.Listen[syncgw.Event](ctx, gw.Events()),
		logLines:   log.NewListener(ctx),
	}
	m.setFocus(dragdrop.PaneUnclassified)
	return m
}

// Init loads from the backend and starts the event listeners.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.syncEvents.Next(), m.logLines.Next())
}

func (m Model) load() tea.Cmd {
	ctx, gw := m.ctx, m.gw
	return func() tea.Msg {
		snap, err := gw.Fetch(ctx)
		return loadedMsg{snap: snap, err: err}
	}
}

func (m Model) push(p syncgw.Pending) tea.Cmd {
	ctx, gw := m.ctx, m.gw
	return func() tea.Msg {
		_, err := gw.Push(ctx, p)
		return savedMsg{pending: p, err: err}
	}
}

// Mode returns the active view.
func (m Model) Mode() mode.AppMode { return m.mode }

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err
			log.ErrorErr(log.CatSync, "Load failed", msg.err)
			return m.toast(fmt.Sprintf("Load failed: %v", msg.err), toaster.Error)
		}
		m.loadErr = nil
		m.loaded = true
		m.drag.Cancel()
		m.gw.Apply(msg.snap)
		m.refresh()
		return m, nil

	case savedMsg:
		m.saving = false
		if msg.err != nil {
			return m.toast(fmt.Sprintf("Save failed, edits kept: %v", msg.err), toaster.Error)
		}
		m.gw.Commit(msg.pending)
		m.refresh()
		return m, nil

	case pubsub.Event[syncgw.Event]:
		next := m.syncEvents.Next()
		switch msg.Kind {
		case pubsub.KindLoaded:
			var cmd tea.Cmd
			m, cmd = m.toast(fmt.Sprintf("Loaded %d mappings and %d exclusions", msg.Data.Maps, msg.Data.Excludes), toaster.Info)
			return m, tea.Batch(next, cmd)
		case pubsub.KindSynced:
			text, level := fmt.Sprintf("Saved %d mappings and %d exclusions; statistics will recalculate", msg.Data.Maps, msg.Data.Excludes), toaster.Success
			if !msg.Data.Clean {
				text, level = "Saved, but edits made during the save are still unsaved", toaster.Warn
			}
			var cmd tea.Cmd
			m, cmd = m.toast(text, level)
			return m, tea.Batch(next, cmd)
		}
		return m, next

	case pubsub.Event[string]:
		m.logs = m.logs.Append(msg.Data)
		return m, m.logLines.Next()

	case toaster.DismissMsg:
		m.toaster = m.toaster.Update(msg)
		return m, nil

	case modal.SubmitMsg:
		return m.submit(msg)

	case modal.CancelMsg:
		return m.cancelModal(msg)

	case tea.MouseMsg:
		if m.modal != nil || m.logs.Visible() || m.mode != mode.Editor {
			return m.forwardScroll(msg)
		}
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.modal != nil {
		md, cmd := m.modal.Update(msg)
		m.modal = &md
		return m, cmd
	}
	if m.filtering {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.logs.Visible() {
		var cmd tea.Cmd
		m.logs, cmd = m.logs.Update(msg)
		return m, cmd
	}
	if m.modal != nil {
		md, cmd := m.modal.Update(msg)
		m.modal = &md
		if md.Purpose() == purposeQuickExclude {
			m.modal = ptr(md.SetHint(m.candidateHint(md.Value("name"))))
		}
		return m, cmd
	}
	if m.filtering {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Logs):
		m.logs = m.logs.Toggle()
		return m, nil
	case key.Matches(msg, m.keys.Help):
		if m.mode == mode.Help {
			return m.switchMode(m.prev), nil
		}
		return m.switchMode(mode.Help), nil
	}

	if m.mode != mode.Editor {
		return m.handleViewKey(msg)
	}
	if m.drag.Dragging() {
		return m.handleDragKey(msg)
	}
	return m.handleEditorKey(msg)
}

// handleViewKey serves the read-only views.
func (m Model) handleViewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.mode == mode.Help {
			return m.switchMode(m.prev), nil
		}
		return m.switchMode(mode.Editor), nil
	case key.Matches(msg, m.keys.EditorView):
		return m.switchMode(mode.Editor), nil
	case key.Matches(msg, m.keys.MappingView):
		return m.switchMode(mode.MappingTable), nil
	case key.Matches(msg, m.keys.ChangesView):
		return m.switchMode(mode.Changes), nil
	case key.Matches(msg, m.keys.Save):
		return m.save()
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	}

	var cmd tea.Cmd
	switch m.mode {
	case mode.Help:
		m.help, cmd = m.help.Update(msg)
	case mode.MappingTable:
		m.table, cmd = m.table.Update(msg)
	case mode.Changes:
		m.changes, cmd = m.changes.Update(msg)
	}
	return m, cmd
}

func (m Model) forwardScroll(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.modal != nil || m.logs.Visible():
	case m.mode == mode.Help:
		m.help, cmd = m.help.Update(msg)
	case m.mode == mode.MappingTable:
		m.table, cmd = m.table.Update(msg)
	case m.mode == mode.Changes:
		m.changes, cmd = m.changes.Update(msg)
	}
	return m, cmd
}

func (m Model) switchMode(to mode.AppMode) Model {
	if to == m.mode {
		return m
	}
	m.drag.Cancel()
	m.clearDragHighlight()
	if m.mode != mode.Help {
		m.prev = m.mode
	}
	m.mode = to
	switch to {
	case mode.MappingTable:
		m.table.SetContent(m.renderMappingTable())
		m.table.GotoTop()
	case mode.Changes:
		m.changes.SetContent(m.renderChanges())
		m.changes.GotoTop()
	}
	log.Debug(log.CatUI, "Switched view", "mode", to)
	return m
}

func (m Model) toast(text string, level toaster.Level) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.toaster, cmd = m.toaster.Show(text, level)
	return m, cmd
}

func (m *Model) pane(p dragdrop.Pane) *panes.Pane {
	return &m.panes[p-dragdrop.PaneUnclassified]
}

func (m *Model) setFocus(p dragdrop.Pane) {
	if p < dragdrop.PaneUnclassified || p > dragdrop.PaneExcluded {
		return
	}
	m.focus = p
	for i := range m.panes {
		m.panes[i] = m.panes[i].SetFocused(dragdrop.Pane(i)+dragdrop.PaneUnclassified == p)
	}
}

// refresh rebuilds every pane from the editor.
func (m *Model) refresh() {
	rows, total := unclassifiedRows(m.ed, m.pane(dragdrop.PaneUnclassified).Filter())
	*m.pane(dragdrop.PaneUnclassified) = m.pane(dragdrop.PaneUnclassified).SetRows(rows, total)
	rows, total = groupRows(m.ed, m.pane(dragdrop.PaneGroups).Filter())
	*m.pane(dragdrop.PaneGroups) = m.pane(dragdrop.PaneGroups).SetRows(rows, total)
	rows, total = excludedRows(m.ed, m.pane(dragdrop.PaneExcluded).Filter())
	*m.pane(dragdrop.PaneExcluded) = m.pane(dragdrop.PaneExcluded).SetRows(rows, total)

	switch m.mode {
	case mode.MappingTable:
		m.table.SetContent(m.renderMappingTable())
	case mode.Changes:
		m.changes.SetContent(m.renderChanges())
	}
}

// layout sizes every component from the terminal size.
func (m *Model) layout() {
	bodyH := max(m.height-2, 3)
	third := m.width / 3
	widths := [3]int{third, third, m.width - 2*third}
	for i := range m.panes {
		h := bodyH
		if dragdrop.Pane(i)+dragdrop.PaneUnclassified == dragdrop.PaneGroups && m.drag.Dragging() {
			h -= newGroupZoneHeight
		}
		m.panes[i] = m.panes[i].SetSize(widths[i], h)
	}
	m.table.Width, m.table.Height = m.width, bodyH
	m.changes.Width, m.changes.Height = m.width, bodyH
	m.help = m.help.SetSize(m.width, bodyH)
	m.logs = m.logs.SetSize(m.width, m.height)
	m.filter.Width = max(m.width-20, 10)
}

func ptr[T any](v T) *T { return &v }
