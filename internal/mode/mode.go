// Package mode enumerates the top-level views of the editor.
package mode

// AppMode identifies the active view.
type AppMode int

const (
	// Editor is the three-pane drag and drop view.
	Editor AppMode = iota
	// MappingTable lists every original name beside its standard name.
	MappingTable
	// Changes shows what a save would send compared with the last load.
	Changes
	// Help shows keybindings.
	Help
)

func (m AppMode) String() string {
	switch m {
	case Editor:
		return "editor"
	case MappingTable:
		return "mapping"
	case Changes:
		return "changes"
	case Help:
		return "help"
	default:
		return "unknown"
	}
}

// Title is the label shown in the tab bar.
func (m AppMode) Title() string {
	switch m {
	case Editor:
		return "Editor"
	case MappingTable:
		return "Mapping table"
	case Changes:
		return "Pending changes"
	case Help:
		return "Help"
	default:
		return ""
	}
}

// Tabs are the modes reachable from the tab bar, in order.
func Tabs() []AppMode { return []AppMode{Editor, MappingTable, Changes} }
