package app

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/teatest"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinhealth/reconcile/internal/api"
	"github.com/jinhealth/reconcile/internal/config"
	"github.com/jinhealth/reconcile/internal/dragdrop"
	"github.com/jinhealth/reconcile/internal/editor"
	"github.com/jinhealth/reconcile/internal/mode"
	"github.com/jinhealth/reconcile/internal/registry"
	"github.com/jinhealth/reconcile/internal/syncgw"
	"github.com/jinhealth/reconcile/internal/ui/modal"
	"github.com/jinhealth/reconcile/internal/ui/panes"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

// memBackend serves the sync contract from memory.
type memBackend struct {
	mu       sync.Mutex
	names    []string
	maps     []api.MapRow
	excludes []string
	loadErr  error
	syncErr  error
	synced   []api.SyncRequest
}

func (b *memBackend) CompanyList(context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.names, b.loadErr
}

func (b *memBackend) CompanyMap(context.Context) ([]api.MapRow, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.maps, nil
}

func (b *memBackend) CompanyExcludes(context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.excludes, nil
}

func (b *memBackend) Sync(_ context.Context, req api.SyncRequest) (api.SyncResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.syncErr != nil {
		return api.SyncResponse{}, b.syncErr
	}
	b.synced = append(b.synced, req)
	return api.SyncResponse{Status: api.StatusSynced, Maps: len(req.Maps), Excludes: len(req.Excludes)}, nil
}

func (b *memBackend) syncCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.synced)
}

func seededBackend() *memBackend {
	return &memBackend{
		names: []string{"A Corp", "A Co.", "B Inc", "C Ltd", "D LLC"},
		maps: []api.MapRow{
			{OriginalName: "A Co.", StandardName: "A Corp"},
			{OriginalName: "A Corp", StandardName: "A Corp"},
		},
		excludes: []string{"C Ltd"},
	}
}

// newTestModel builds a sized model without loading.
func newTestModel(t *testing.T, b *memBackend) Model {
	t.Helper()
	ed := editor.New(registry.New(registry.Strict()))
	gw := syncgw.New(b, ed)
	t.Cleanup(gw.Close)
	cfg := config.Defaults()
	cfg.UI.ConfirmDestructive = false
	m := New(t.Context(), ed, gw, Options{Config: cfg})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	return m
}

// loadedModel builds a model and runs the initial load synchronously.
func loadedModel(t *testing.T, b *memBackend) Model {
	t.Helper()
	m := newTestModel(t, b)
	m, _ = update(t, m, m.load()())
	require.True(t, m.loaded)
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func press(t *testing.T, m Model, ks ...any) Model {
	t.Helper()
	for _, k := range ks {
		var msg tea.KeyMsg
		switch k := k.(type) {
		case string:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		case tea.KeyType:
			msg = tea.KeyMsg{Type: k}
		}
		m, _ = update(t, m, msg)
	}
	return m
}

func rowNames(m Model, p dragdrop.Pane) []string {
	var out []string
	for _, r := range m.pane(p).Rows() {
		out = append(out, r.Name)
	}
	return out
}

func members(t *testing.T, m Model, group string) []string {
	t.Helper()
	g, ok := m.ed.Registry().Group(group)
	require.True(t, ok, "group %q", group)
	return g.Members
}

func TestApp_LoadFillsPanes(t *testing.T) {
	m := loadedModel(t, seededBackend())

	assert.Equal(t, []string{"B Inc", "D LLC"}, rowNames(m, dragdrop.PaneUnclassified))
	assert.Equal(t, []string{"A Corp", "A Co.", "A Corp"}, rowNames(m, dragdrop.PaneGroups))
	assert.Equal(t, []string{"C Ltd"}, rowNames(m, dragdrop.PaneExcluded))
	assert.False(t, m.ed.Dirty())
	assert.False(t, m.loading)
}

func TestApp_LoadFailureKeepsState(t *testing.T) {
	b := seededBackend()
	m := loadedModel(t, b)
	m = press(t, m, "x")
	require.True(t, m.ed.Dirty())

	b.loadErr = errors.New("backend down")
	m, _ = update(t, m, m.load()())

	assert.Error(t, m.loadErr)
	assert.True(t, m.ed.Dirty(), "a failed reload must not touch the editor")
	assert.Contains(t, m.toaster.Message(), "Load failed")
	assert.Equal(t, []string{"C Ltd", "B Inc"}, rowNames(m, dragdrop.PaneExcluded))
}

func TestApp_KeyboardDragMergesIntoGroup(t *testing.T) {
	m := loadedModel(t, seededBackend())

	m = press(t, m, "m")
	require.True(t, m.drag.Dragging())
	require.Equal(t, "B Inc", m.drag.Item().Name)

	m = press(t, m, tea.KeyTab, tea.KeyEnter)

	assert.False(t, m.drag.Dragging())
	assert.Equal(t, []string{"A Co.", "A Corp", "B Inc"}, members(t, m, "A Corp"))
	assert.Equal(t, []string{"D LLC"}, rowNames(m, dragdrop.PaneUnclassified))
	assert.Equal(t, dragdrop.PaneGroups, m.focus)
	assert.True(t, m.ed.Dirty())
}

func TestApp_KeyboardDragOntoExcluded(t *testing.T) {
	m := loadedModel(t, seededBackend())

	m = press(t, m, "m", tea.KeyShiftTab, tea.KeyEnter)

	assert.Equal(t, []string{"C Ltd", "B Inc"}, rowNames(m, dragdrop.PaneExcluded))
	assert.Equal(t, dragdrop.PaneExcluded, m.focus, "focus follows the dropped name")
}

func TestApp_NewGroupZonePromptsForName(t *testing.T) {
	m := loadedModel(t, seededBackend())

	m = press(t, m, "m", "n")
	require.NotNil(t, m.modal)
	require.Equal(t, purposeNewGroup, m.modal.Purpose())
	assert.Equal(t, "B Inc", m.modal.Value("name"), "prompt starts with the dragged name")
	assert.Equal(t, dragdrop.StatePrompting, m.drag.State())

	m, _ = update(t, m, modal.SubmitMsg{Purpose: purposeNewGroup, Values: map[string]string{"name": "  Bravo "}})

	assert.Nil(t, m.modal)
	assert.False(t, m.drag.Dragging())
	assert.Equal(t, []string{"B Inc"}, members(t, m, "Bravo"))
	row, ok := m.pane(dragdrop.PaneGroups).Selected()
	require.True(t, ok)
	assert.Equal(t, panes.KindGroup, row.Kind)
	assert.Equal(t, "Bravo", row.Name)
}

func TestApp_RejectedNewGroupNameKeepsPromptOpen(t *testing.T) {
	m := loadedModel(t, seededBackend())

	m = press(t, m, "m", "n")
	m, _ = update(t, m, modal.SubmitMsg{Purpose: purposeNewGroup, Values: map[string]string{"name": "   "}})

	require.NotNil(t, m.modal, "a rejected name keeps the prompt open")
	assert.Equal(t, dragdrop.StatePrompting, m.drag.State())
	assert.Contains(t, ansi.Strip(m.modal.View()), "Name is empty")
	assert.False(t, m.ed.Dirty())
}

func TestApp_CancelNewGroupLeavesModelUntouched(t *testing.T) {
	m := loadedModel(t, seededBackend())
	before := m.ed.Payload()

	m = press(t, m, "m", "n")
	m, _ = update(t, m, modal.CancelMsg{Purpose: purposeNewGroup})

	assert.Nil(t, m.modal)
	assert.False(t, m.drag.Dragging())
	assert.Equal(t, before, m.ed.Payload())
	assert.False(t, m.ed.Dirty())
}

func TestApp_EscCancelsDrag(t *testing.T) {
	m := loadedModel(t, seededBackend())

	m = press(t, m, "m", tea.KeyTab, tea.KeyEsc)

	assert.False(t, m.drag.Dragging())
	assert.False(t, m.ed.Dirty())
}

func TestApp_ExcludeAndRestore(t *testing.T) {
	m := loadedModel(t, seededBackend())

	m = press(t, m, "x")
	assert.Equal(t, []string{"C Ltd", "B Inc"}, rowNames(m, dragdrop.PaneExcluded))

	m.setFocus(dragdrop.PaneExcluded)
	m = press(t, m, "G", "u")
	assert.Equal(t, []string{"C Ltd"}, rowNames(m, dragdrop.PaneExcluded))
	assert.Contains(t, rowNames(m, dragdrop.PaneUnclassified), "B Inc")
}

func TestApp_ExcludingGroupFlagsItInPlace(t *testing.T) {
	m := loadedModel(t, seededBackend())
	m.setFocus(dragdrop.PaneGroups)

	m = press(t, m, "x")

	row := m.pane(dragdrop.PaneGroups).Rows()[0]
	assert.True(t, row.Flagged)
	assert.Equal(t, []string{"A Co.", "A Corp"}, members(t, m, "A Corp"))
	assert.Contains(t, rowNames(m, dragdrop.PaneExcluded), "A Corp")
}

func TestApp_ReleaseMemberUnmerges(t *testing.T) {
	m := loadedModel(t, seededBackend())
	m.setFocus(dragdrop.PaneGroups)

	m = press(t, m, "j", "u")

	assert.Equal(t, []string{"A Corp"}, members(t, m, "A Corp"))
	assert.Contains(t, rowNames(m, dragdrop.PaneUnclassified), "A Co.")
}

func TestApp_ReleaseAsksFirstWhenConfigured(t *testing.T) {
	m := loadedModel(t, seededBackend())
	m.opts.Config.UI.ConfirmDestructive = true
	m.setFocus(dragdrop.PaneGroups)

	m = press(t, m, "j", "u")
	require.NotNil(t, m.modal)
	require.Equal(t, purposeUnmerge, m.modal.Purpose())
	assert.False(t, m.ed.Dirty())

	m, _ = update(t, m, modal.SubmitMsg{Purpose: purposeUnmerge})
	assert.Equal(t, []string{"A Corp"}, members(t, m, "A Corp"))
}

func TestApp_RenameAndPromote(t *testing.T) {
	m := loadedModel(t, seededBackend())
	m.setFocus(dragdrop.PaneGroups)

	m = press(t, m, "r")
	require.NotNil(t, m.modal)
	m, _ = update(t, m, modal.SubmitMsg{Purpose: purposeRename, Values: map[string]string{"name": "Acme"}})
	require.Nil(t, m.modal)
	assert.Equal(t, []string{"A Co.", "A Corp"}, members(t, m, "Acme"))

	m = press(t, m, "j", "p")
	assert.True(t, m.ed.Registry().HasGroup("A Co."))
	row, _ := m.pane(dragdrop.PaneGroups).Selected()
	assert.Equal(t, "A Co.", row.Group)
}

func TestApp_RenameCollisionShowsError(t *testing.T) {
	b := seededBackend()
	b.maps = append(b.maps, api.MapRow{OriginalName: "D LLC", StandardName: "Delta"})
	m := loadedModel(t, b)
	m.setFocus(dragdrop.PaneGroups)

	m = press(t, m, "r")
	m, _ = update(t, m, modal.SubmitMsg{Purpose: purposeRename, Values: map[string]string{"name": "Delta"}})

	require.NotNil(t, m.modal)
	assert.Contains(t, ansi.Strip(m.modal.View()), "already exists")
	assert.True(t, m.ed.Registry().HasGroup("A Corp"))
}

func TestApp_RenameOntoExcludedNameShowsError(t *testing.T) {
	m := loadedModel(t, seededBackend())
	m.setFocus(dragdrop.PaneGroups)

	m = press(t, m, "r")
	m, _ = update(t, m, modal.SubmitMsg{Purpose: purposeRename, Values: map[string]string{"name": "C Ltd"}})

	require.NotNil(t, m.modal)
	assert.Contains(t, ansi.Strip(m.modal.View()), "excluded")
	g, ok := m.ed.Registry().Group("A Corp")
	require.True(t, ok)
	assert.False(t, g.Excluded)
	assert.False(t, m.ed.Dirty())
}

func TestApp_DeleteGroup(t *testing.T) {
	m := loadedModel(t, seededBackend())
	m.setFocus(dragdrop.PaneGroups)

	m = press(t, m, "D")

	assert.False(t, m.ed.Registry().HasGroup("A Corp"))
	assert.Equal(t, []string{"A Co.", "A Corp", "B Inc", "D LLC"}, rowNames(m, dragdrop.PaneUnclassified))
}

func TestApp_ManualMergeAndQuickExclude(t *testing.T) {
	m := loadedModel(t, seededBackend())

	m = press(t, m, "M")
	require.NotNil(t, m.modal)
	assert.Equal(t, "B Inc", m.modal.Value("source"), "prefilled from the selection")
	m, _ = update(t, m, modal.SubmitMsg{Purpose: purposeManualMerge, Values: map[string]string{"source": "B Inc", "target": "Bravo"}})
	assert.Nil(t, m.modal)
	assert.Equal(t, []string{"B Inc"}, members(t, m, "Bravo"))

	m = press(t, m, "X", "D", " ", "L")
	require.NotNil(t, m.modal)
	assert.Contains(t, ansi.Strip(m.modal.View()), "D LLC")

	m, _ = update(t, m, modal.SubmitMsg{Purpose: purposeQuickExclude, Values: map[string]string{"name": "nobody"}})
	require.NotNil(t, m.modal, "unknown names keep the prompt open")
	m, _ = update(t, m, modal.SubmitMsg{Purpose: purposeQuickExclude, Values: map[string]string{"name": "D LLC"}})
	assert.Nil(t, m.modal)
	assert.Contains(t, rowNames(m, dragdrop.PaneExcluded), "D LLC")
}

func TestApp_FilterNarrowsFocusedPane(t *testing.T) {
	m := loadedModel(t, seededBackend())

	m = press(t, m, "/", "d")
	require.True(t, m.filtering)
	assert.Equal(t, []string{"D LLC"}, rowNames(m, dragdrop.PaneUnclassified))
	assert.Len(t, rowNames(m, dragdrop.PaneGroups), 3, "other panes are not filtered")

	m = press(t, m, tea.KeyEnter)
	assert.False(t, m.filtering)
	assert.Equal(t, "d", m.pane(dragdrop.PaneUnclassified).Filter())

	m = press(t, m, "/", tea.KeyEsc)
	assert.Equal(t, []string{"B Inc", "D LLC"}, rowNames(m, dragdrop.PaneUnclassified))
}

func TestApp_SaveClearsDirty(t *testing.T) {
	b := seededBackend()
	m := loadedModel(t, b)
	m = press(t, m, "x")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.True(t, m.saving)
	require.NotNil(t, cmd)

	m, _ = update(t, m, cmd())

	assert.False(t, m.saving)
	assert.False(t, m.ed.Dirty())
	require.Equal(t, 1, b.syncCount())
	assert.ElementsMatch(t, []string{"C Ltd", "B Inc"}, b.synced[0].Excludes)
	assert.Len(t, b.synced[0].Maps, 2)
}

func TestApp_SaveFailureKeepsEdits(t *testing.T) {
	b := seededBackend()
	b.syncErr = errors.New("connection refused")
	m := loadedModel(t, b)
	m = press(t, m, "x")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, _ = update(t, m, cmd())

	assert.False(t, m.saving)
	assert.True(t, m.ed.Dirty())
	assert.Contains(t, m.toaster.Message(), "Save failed")
	assert.Contains(t, rowNames(m, dragdrop.PaneExcluded), "B Inc")
}

func TestApp_EditDuringSaveStaysDirty(t *testing.T) {
	m := loadedModel(t, seededBackend())
	m = press(t, m, "x")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	msg := cmd()
	m = press(t, m, "x") // excludes D LLC while the save is out

	m, _ = update(t, m, msg)
	assert.True(t, m.ed.Dirty())
}

func TestApp_SaveGuards(t *testing.T) {
	m := loadedModel(t, seededBackend())

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.False(t, m.saving)
	assert.Contains(t, m.toaster.Message(), "No unsaved changes")
	assert.NotNil(t, cmd, "toast dismiss timer")

	m = press(t, m, "x", tea.KeyCtrlS)
	require.True(t, m.saving)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Contains(t, m.toaster.Message(), "already in progress")
}

func TestApp_ReloadAndQuitConfirmWhenDirty(t *testing.T) {
	m := loadedModel(t, seededBackend())
	m.opts.Config.UI.ConfirmDestructive = true

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd(), "clean editor quits at once")

	m = press(t, m, "x", "q")
	require.NotNil(t, m.modal)
	assert.Equal(t, purposeQuit, m.modal.Purpose())
	m, _ = update(t, m, modal.CancelMsg{Purpose: purposeQuit})
	assert.Nil(t, m.modal)

	m = press(t, m, tea.KeyCtrlR)
	require.NotNil(t, m.modal)
	assert.Equal(t, purposeReload, m.modal.Purpose())
	m, cmd = update(t, m, modal.SubmitMsg{Purpose: purposeReload})
	require.True(t, m.loading)
	m, _ = update(t, m, cmd())
	assert.False(t, m.ed.Dirty(), "reload discards edits")
	assert.Equal(t, []string{"C Ltd"}, rowNames(m, dragdrop.PaneExcluded))
}

func TestApp_ViewsSwitch(t *testing.T) {
	m := loadedModel(t, seededBackend())
	m = press(t, m, "x")

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "Unclassified")
	assert.Contains(t, view, "Excluded")
	assert.Contains(t, view, "● unsaved")

	m = press(t, m, "2")
	require.Equal(t, mode.MappingTable, m.Mode())
	view = ansi.Strip(m.View())
	assert.Contains(t, view, "Standard name")
	assert.Contains(t, view, "A Co.")

	m = press(t, m, "3")
	view = ansi.Strip(m.View())
	assert.Contains(t, view, "+ exclude B Inc")

	m = press(t, m, "?")
	require.Equal(t, mode.Help, m.Mode())
	m = press(t, m, tea.KeyEsc)
	assert.Equal(t, mode.Changes, m.Mode(), "help returns to the previous view")

	m = press(t, m, "1")
	assert.Equal(t, mode.Editor, m.Mode())
}

func TestApp_ToggleCountsPersists(t *testing.T) {
	path := t.TempDir() + "/config.yaml"
	require.NoError(t, config.WriteDefaultConfig(path))

	m := loadedModel(t, seededBackend())
	m.opts.ConfigPath = path
	before := m.opts.Config.UI.ShowCounts

	m = press(t, m, "c")
	assert.Equal(t, !before, m.opts.Config.UI.ShowCounts)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	if before {
		assert.Contains(t, string(data), "show_counts: false")
	} else {
		assert.Contains(t, string(data), "show_counts: true")
	}
}

func zoneOf(t *testing.T, id string) *zone.ZoneInfo {
	t.Helper()
	var z *zone.ZoneInfo
	require.Eventually(t, func() bool {
		z = zone.Get(id)
		return z != nil && !z.IsZero()
	}, time.Second, 5*time.Millisecond)
	return z
}

func TestApp_MouseDragOntoGroup(t *testing.T) {
	m := loadedModel(t, seededBackend())
	m.View()
	src := zoneOf(t, m.panes[0].RowID(0))
	dst := zoneOf(t, m.panes[1].RowID(0))

	m, _ = update(t, m, tea.MouseMsg{X: src.StartX + 2, Y: src.StartY, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	require.True(t, m.drag.Dragging())
	require.True(t, m.byMouse)

	m, _ = update(t, m, tea.MouseMsg{X: dst.StartX + 2, Y: dst.StartY, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	assert.Equal(t, dragdrop.PaneGroups, m.hover)
	assert.Contains(t, ansi.Strip(m.View()), "New group", "the new group zone shows while dragging")

	m, _ = update(t, m, tea.MouseMsg{X: dst.StartX + 2, Y: dst.StartY, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	assert.False(t, m.drag.Dragging())
	assert.Contains(t, members(t, m, "A Corp"), "B Inc")
}

func TestApp_MouseReleaseOnSourceCancels(t *testing.T) {
	m := loadedModel(t, seededBackend())
	m.View()
	src := zoneOf(t, m.panes[0].RowID(0))
	at := tea.MouseMsg{X: src.StartX + 2, Y: src.StartY, Button: tea.MouseButtonLeft}

	at.Action = tea.MouseActionPress
	m, _ = update(t, m, at)
	at.Action = tea.MouseActionRelease
	m, _ = update(t, m, at)

	assert.False(t, m.drag.Dragging())
	assert.False(t, m.ed.Dirty())
}

func TestApp_TeatestSaveRoundTrip(t *testing.T) {
	b := seededBackend()
	m := newTestModel(t, b)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 30))
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), "D LLC")
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlS})
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), "Saved 2 mappings")
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final := tm.FinalModel(t).(Model)
	assert.False(t, final.ed.Dirty())
	assert.Equal(t, 1, b.syncCount())
}
