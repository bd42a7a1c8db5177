// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings of the editor.
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	NextPane key.Binding
	PrevPane key.Binding

	// Drag and drop
	Grab     key.Binding
	Drop     key.Binding
	NewGroup key.Binding
	Cancel   key.Binding

	// Editing
	Exclude      key.Binding
	Release      key.Binding // unmerge a member or restore an excluded name
	Rename       key.Binding
	Promote      key.Binding
	DeleteGroup  key.Binding
	ManualMerge  key.Binding
	QuickExclude key.Binding
	Filter       key.Binding

	// Sync
	Save   key.Binding
	Reload key.Binding

	// Views
	EditorView   key.Binding
	MappingView  key.Binding
	ChangesView  key.Binding
	ToggleCounts key.Binding
	Logs         key.Binding
	Help         key.Binding
	Quit         key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first item"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last item"),
		),
		NextPane: key.NewBinding(
			key.WithKeys("tab", "l", "right"),
			key.WithHelp("tab/l", "next pane"),
		),
		PrevPane: key.NewBinding(
			key.WithKeys("shift+tab", "h", "left"),
			key.WithHelp("shift+tab/h", "previous pane"),
		),

		Grab: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "pick up item"),
		),
		Drop: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "drop here"),
		),
		NewGroup: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "drop into a new group"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),

		Exclude: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "exclude"),
		),
		Release: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unmerge / restore"),
		),
		Rename: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rename group"),
		),
		Promote: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "make representative"),
		),
		DeleteGroup: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete group"),
		),
		ManualMerge: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "merge by name"),
		),
		QuickExclude: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "exclude by name"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter pane"),
		),

		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reload from backend"),
		),

		EditorView: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "editor"),
		),
		MappingView: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "mapping table"),
		),
		ChangesView: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "pending changes"),
		),
		ToggleCounts: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "toggle counts"),
		),
		Logs: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "toggle log"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp is the status bar hint line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Grab, k.Drop, k.Exclude, k.Save, k.Help, k.Quit}
}

// FullHelp groups every binding for the help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.NextPane, k.PrevPane},
		{k.Grab, k.Drop, k.NewGroup, k.Cancel},
		{k.Exclude, k.Release, k.Rename, k.Promote, k.DeleteGroup, k.ManualMerge, k.QuickExclude, k.Filter},
		{k.Save, k.Reload},
		{k.EditorView, k.MappingView, k.ChangesView, k.ToggleCounts, k.Logs, k.Help, k.Quit},
	}
}

// Sections names the FullHelp groups in order.
func Sections() []string {
	return []string{"Navigation", "Drag and drop", "Editing", "Sync", "Views"}
}
