package editor

import (
	"slices"
	"strings"

	"github.com/jinhealth/reconcile/internal/registry"
)

// MappingRow is one line of the merge overview table.
type MappingRow struct {
	Standard string
	Original string
	Excluded bool
}

// Counts summarizes the panes for titles and the status bar.
type Counts struct {
	Unclassified int
	Groups       int
	Members      int
	Excluded     int
}

// Candidate is a quick-exclude search hit.
type Candidate struct {
	Name  string
	Group bool
}

// Unclassified returns the Unclassified pane in collation order.
func (e *Editor) Unclassified() []string {
	names := e.reg.Unclassified()
	e.collator.SortStrings(names)
	return names
}

// Groups returns groups in collation order; members keep their own order.
func (e *Editor) Groups() []registry.Group {
	groups := e.reg.Groups()
	slices.SortStableFunc(groups, func(a, b registry.Group) int {
		return e.collator.CompareString(a.Name, b.Name)
	})
	return groups
}

// Excluded returns the exclusion list in the order entries were added.
func (e *Editor) Excluded() []registry.ExcludedEntry {
	return e.reg.Excluded()
}

// MappingTable returns one row per group member ordered by standard then original name.
func (e *Editor) MappingTable() []MappingRow {
	var rows []MappingRow
	for _, g := range e.reg.Groups() {
		for _, m := range g.Members {
			rows = append(rows, MappingRow{Standard: g.Name, Original: m, Excluded: g.Excluded})
		}
	}
	slices.SortStableFunc(rows, func(a, b MappingRow) int {
		if c := e.collator.CompareString(a.Standard, b.Standard); c != 0 {
			return c
		}
		return e.collator.CompareString(a.Original, b.Original)
	})
	return rows
}

// Counts tallies every pane.
func (e *Editor) Counts() Counts {
	u, g, x := e.reg.Len()
	c := Counts{Unclassified: u, Groups: g, Excluded: x}
	for _, grp := range e.reg.Groups() {
		c.Members += len(grp.Members)
	}
	return c
}

// Matches reports whether s contains query, ignoring case. An empty query matches everything.
func (e *Editor) Matches(s, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return strings.Contains(e.fold.String(s), e.fold.String(query))
}

// Filter keeps the names matching query.
func (e *Editor) Filter(names []string, query string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if e.Matches(n, query) {
			out = append(out, n)
		}
	}
	return out
}

// QuickExcludeCandidates lists Unclassified names and unflagged groups matching
// query, groups first, at most limit entries when limit > 0.
func (e *Editor) QuickExcludeCandidates(query string, limit int) []Candidate {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	var out []Candidate
	for _, g := range e.Groups() {
		if !g.Excluded && e.Matches(g.Name, query) {
			out = append(out, Candidate{Name: g.Name, Group: true})
		}
	}
	for _, n := range e.Filter(e.Unclassified(), query) {
		out = append(out, Candidate{Name: n})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
