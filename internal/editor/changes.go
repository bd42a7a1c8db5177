package editor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/jinhealth/reconcile/internal/api"
)

// ChangeOp says whether a line appears only before or only after the edits.
type ChangeOp int

const (
	ChangeAdded ChangeOp = iota
	ChangeRemoved
)

// Change is one line of the pending-changes diff.
type Change struct {
	Op   ChangeOp
	Text string
}

func (c Change) String() string {
	if c.Op == ChangeAdded {
		return "+ " + c.Text
	}
	return "- " + c.Text
}

// PendingChanges diffs the last loaded or saved state against the current one.
func (e *Editor) PendingChanges() []Change {
	return Diff(e.baseline, e.reg.Flatten())
}

// Diff lists the map and exclude rows that differ between two payloads.
func Diff(before, after api.SyncRequest) []Change {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(render(before), render(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []Change
	for _, d := range diffs {
		var op ChangeOp
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = ChangeAdded
		case diffmatchpatch.DiffDelete:
			op = ChangeRemoved
		default:
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			if line != "" {
				out = append(out, Change{Op: op, Text: line})
			}
		}
	}
	return out
}

// render writes one sorted line per row so the diff is order-insensitive.
func render(req api.SyncRequest) string {
	lines := make([]string, 0, len(req.Maps)+len(req.Excludes))
	for _, m := range req.Maps {
		lines = append(lines, fmt.Sprintf("merge   %s → %s", m.OriginalName, m.StandardName))
	}
	for _, x := range req.Excludes {
		lines = append(lines, "exclude "+x)
	}
	sort.Strings(lines)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
