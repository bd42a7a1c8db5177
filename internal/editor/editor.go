// Package editor is the single-writer facade the UI drives. Each user action
// maps to one method; every change to the partition marks the editor dirty
// until a save confirms it.
package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/jinhealth/reconcile/internal/api"
	"github.com/jinhealth/reconcile/internal/log"
	"github.com/jinhealth/reconcile/internal/registry"
)

var (
	// ErrNotFound means a typed name is not available for the requested action.
	ErrNotFound = errors.New("name not found")
	// ErrEmptyName means a typed name was blank after trimming.
	ErrEmptyName = errors.New("name is empty")
	// ErrNameTooLong means a typed group name exceeds the configured limit.
	ErrNameTooLong = errors.New("name is too long")
)

// Option configures an Editor.
type Option func(*Editor)

// WithLocale sets the collation used by sorted projections.
func WithLocale(tag language.Tag) Option {
	return func(e *Editor) { e.collator = collate.New(tag) }
}

// WithMaxNameLength caps typed group names, in grapheme clusters. Zero disables the cap.
func WithMaxNameLength(n int) Option {
	return func(e *Editor) { e.maxName = n }
}

// Editor wraps the registry it is given; the registry must not be mutated elsewhere.
type Editor struct {
	reg      *registry.Registry
	dirty    bool
	revision uint64
	baseline api.SyncRequest
	collator *collate.Collator
	fold     cases.Caser
	maxName  int
}

// New returns an editor over reg with the current state as its clean baseline.
func New(reg *registry.Registry, opts ...Option) *Editor {
	e := &Editor{
		reg:      reg,
		collator: collate.New(language.Korean),
		fold:     cases.Fold(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.baseline = reg.Flatten()
	return e
}

// Registry exposes the wrapped registry for read-only queries.
func (e *Editor) Registry() *registry.Registry { return e.reg }

// Dirty reports unsaved edits.
func (e *Editor) Dirty() bool { return e.dirty }

// Revision increases with every change, including Replace.
func (e *Editor) Revision() uint64 { return e.revision }

// Payload flattens the current partition into the sync request body.
func (e *Editor) Payload() api.SyncRequest { return e.reg.Flatten() }

// Replace swaps in a backend snapshot and starts clean.
func (e *Editor) Replace(names []string, maps []api.MapRow, excludes []string) {
	e.reg.Reset(names, maps, excludes)
	e.revision++
	e.dirty = false
	e.baseline = e.reg.Flatten()
	u, g, x := e.reg.Len()
	log.Info(log.CatEditor, "Loaded snapshot", "unclassified", u, "groups", g, "excluded", x)
}

// MarkSaved records that saved reached the backend. Dirty clears only when no
// edit happened after rev was taken. It reports whether the editor is clean.
func (e *Editor) MarkSaved(rev uint64, saved api.SyncRequest) bool {
	e.baseline = saved
	if rev == e.revision {
		e.dirty = false
	} else {
		log.Debug(log.CatEditor, "Edits made during save, staying dirty", "saved_rev", rev, "rev", e.revision)
	}
	return !e.dirty
}

func (e *Editor) touch(action string, changed bool, fields ...any) bool {
	if !changed {
		return false
	}
	e.dirty = true
	e.revision++
	log.Debug(log.CatEditor, action, fields...)
	return true
}

// Merge moves an Unclassified name into an existing or new group.
func (e *Editor) Merge(member, group string) bool {
	return e.touch("Merge", e.reg.MergeInto(member, group), "member", member, "group", group)
}

// MoveToGroup moves a name from any pane into group.
func (e *Editor) MoveToGroup(member, group string) bool {
	return e.touch("MoveToGroup", e.reg.CreateGroupWith(group, member), "member", member, "group", group)
}

// Unmerge returns a member to Unclassified.
func (e *Editor) Unmerge(member, group string) bool {
	return e.touch("Unmerge", e.reg.Unmerge(member, group), "member", member, "group", group)
}

// Exclude puts a raw name or group on the exclusion list.
func (e *Editor) Exclude(name string) bool {
	return e.touch("Exclude", e.reg.MoveToExcluded(name), "name", name)
}

// Restore takes an entry off the exclusion list, or a member out of its group.
func (e *Editor) Restore(name string) bool {
	return e.touch("Restore", e.reg.MoveToUnclassified(name), "name", name)
}

// DeleteGroup dissolves a group, returning its members to Unclassified.
func (e *Editor) DeleteGroup(group string) bool {
	return e.touch("DeleteGroup", e.reg.DeleteGroup(group), "group", group)
}

// Reorder moves a member within its group.
func (e *Editor) Reorder(group, member string, index int) bool {
	return e.touch("Reorder", e.reg.ReorderMember(group, member, index), "group", group, "member", member, "index", index)
}

// Rename relabels a group with a typed name.
func (e *Editor) Rename(group, typed string) error {
	name, err := e.groupName(typed)
	if err != nil {
		return err
	}
	changed, err := e.reg.RenameGroup(group, name)
	if err != nil {
		return err
	}
	e.touch("Rename", changed, "from", group, "to", name)
	return nil
}

// Promote makes member the representative of its group.
func (e *Editor) Promote(group, member string) error {
	changed, err := e.reg.SetRepresentative(group, member)
	if err != nil {
		return err
	}
	e.touch("Promote", changed, "group", group, "member", member)
	return nil
}

// CreateGroupFromDrop puts member into the group named by typed, creating it
// if needed. It reports whether the model changed.
func (e *Editor) CreateGroupFromDrop(member, typed string) (bool, error) {
	name, err := e.groupName(typed)
	if err != nil {
		return false, err
	}
	if member != name && e.reg.ExcludedRaw(name) {
		return false, fmt.Errorf("%q: %w", name, registry.ErrNameExcluded)
	}
	return e.touch("CreateGroupFromDrop", e.reg.CreateGroupWith(name, member), "member", member, "group", name), nil
}

// ManualMerge merges a typed Unclassified name into a typed group name.
func (e *Editor) ManualMerge(source, target string) error {
	src := Clean(source)
	if src == "" {
		return fmt.Errorf("source: %w", ErrEmptyName)
	}
	dst, err := e.groupName(target)
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}
	if !e.reg.IsUnclassified(src) {
		return fmt.Errorf("%q is not unclassified: %w", src, ErrNotFound)
	}
	if src != dst && e.reg.ExcludedRaw(dst) {
		return fmt.Errorf("target %q: %w", dst, registry.ErrNameExcluded)
	}
	e.touch("ManualMerge", e.reg.MergeInto(src, dst), "member", src, "group", dst)
	return nil
}

// QuickExclude excludes a typed Unclassified name or group name.
func (e *Editor) QuickExclude(typed string) error {
	name := Clean(typed)
	if name == "" {
		return ErrEmptyName
	}
	if !e.reg.IsUnclassified(name) && !e.reg.HasGroup(name) {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	e.Exclude(name)
	return nil
}

// Clean trims surrounding space and normalizes to NFC.
func Clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func (e *Editor) groupName(typed string) (string, error) {
	name := Clean(typed)
	if name == "" {
		return "", ErrEmptyName
	}
	if e.maxName > 0 && uniseg.GraphemeClusterCount(name) > e.maxName {
		return "", fmt.Errorf("%d characters allowed: %w", e.maxName, ErrNameTooLong)
	}
	return name, nil
}
