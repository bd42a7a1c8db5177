// Package registry holds the partition of raw company names into Unclassified,
// merged Groups and Excluded.
//
// The exclusion list is keyed by reporting name: a raw name that is not merged
// reports under itself, and a group's members report under the group's
// representative. Flagging a group excluded therefore means putting its
// representative on the list, and an unmerged raw name with the same spelling
// shares that fate. Every operation keeps this coupling intact so that
// Flatten followed by Reconstruct reproduces the same partition.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jinhealth/reconcile/internal/log"
)

// ErrNameCollision is returned when a rename targets a representative another group already uses.
var ErrNameCollision = errors.New("group name already in use")

// ErrNameExcluded is returned when a group would take the name of an excluded
// raw name, which would silently exclude the whole group.
var ErrNameExcluded = errors.New("name is on the exclusion list")

// Bucket identifies which pane a raw name lives in.
type Bucket int

const (
	BucketUnknown Bucket = iota
	BucketUnclassified
	BucketGroup
	BucketExcluded
)

func (b Bucket) String() string {
	switch b {
	case BucketUnclassified:
		return "unclassified"
	case BucketGroup:
		return "group"
	case BucketExcluded:
		return "excluded"
	default:
		return "unknown"
	}
}

// Location is where a raw name currently sits. Group is set for BucketGroup.
type Location struct {
	Bucket Bucket
	Group  string
}

// Group is a read-only copy of one group.
type Group struct {
	Name     string
	Members  []string
	Excluded bool
}

// ExcludedEntry is one row of the exclusion list. A name can be both a flagged
// group and an unmerged raw name.
type ExcludedEntry struct {
	Name  string
	Group bool
	Raw   bool
}

// PreconditionError describes a call the UI layer should never have made.
type PreconditionError struct {
	Op     string
	Name   string
	Group  string
	Reason string
}

func (e *PreconditionError) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("%s(%q, %q): %s", e.Op, e.Name, e.Group, e.Reason)
	}
	return fmt.Sprintf("%s(%q): %s", e.Op, e.Name, e.Reason)
}

// Option configures a Registry.
type Option func(*Registry)

// WithViolationHandler replaces the default handler, which logs and carries on.
func WithViolationHandler(fn func(*PreconditionError)) Option {
	return func(r *Registry) {
		if fn != nil {
			r.onViolation = fn
		}
	}
}

// Strict makes precondition violations panic.
func Strict() Option {
	return WithViolationHandler(func(e *PreconditionError) { panic(e) })
}

type group struct {
	members orderedSet
}

// Registry is the single owner of the partition. It is not safe for
// concurrent use; callers mutate it from one goroutine.
type Registry struct {
	known        orderedSet // every raw name
	unclassified orderedSet
	excluded     orderedSet // reporting names on the exclusion list
	groups       map[string]*group
	memberOf     map[string]string
	onViolation  func(*PreconditionError)
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		known:        newOrderedSet(),
		unclassified: newOrderedSet(),
		excluded:     newOrderedSet(),
		groups:       make(map[string]*group),
		memberOf:     make(map[string]string),
		onViolation:  logViolation,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func logViolation(e *PreconditionError) {
	log.Error(log.CatRegistry, "Precondition violated, ignoring call",
		"op", e.Op, "name", e.Name, "group", e.Group, "reason", e.Reason)
}

func (r *Registry) violate(op, name, grp, reason string) {
	r.onViolation(&PreconditionError{Op: op, Name: name, Group: grp, Reason: reason})
}

// Add registers raw names as Unclassified. Names already known and empty strings are skipped.
func (r *Registry) Add(names ...string) {
	for _, n := range names {
		if n == "" || !r.known.add(n) {
			continue
		}
		r.unclassified.add(n)
	}
}

// Names returns every known raw name in first-seen order.
func (r *Registry) Names() []string { return r.known.list() }

// Known reports whether name is a registered raw name.
func (r *Registry) Known(name string) bool { return r.known.has(name) }

// Unclassified returns the Unclassified pane in insertion order.
func (r *Registry) Unclassified() []string { return r.unclassified.list() }

// IsUnclassified reports whether name sits in the Unclassified pane.
func (r *Registry) IsUnclassified(name string) bool { return r.unclassified.has(name) }

// HasGroup reports whether a group uses name as its representative.
func (r *Registry) HasGroup(name string) bool {
	_, ok := r.groups[name]
	return ok
}

// IsExcluded reports whether name is on the exclusion list, as a raw name or a group.
func (r *Registry) IsExcluded(name string) bool { return r.excluded.has(name) }

// ExcludedRaw reports whether name is on the exclusion list without naming a group.
func (r *Registry) ExcludedRaw(name string) bool {
	return r.excluded.has(name) && !r.HasGroup(name)
}

// Locate returns the bucket of a raw name.
func (r *Registry) Locate(name string) Location {
	switch {
	case !r.known.has(name):
		return Location{Bucket: BucketUnknown}
	case r.memberOf[name] != "":
		return Location{Bucket: BucketGroup, Group: r.memberOf[name]}
	case r.excluded.has(name):
		return Location{Bucket: BucketExcluded}
	default:
		return Location{Bucket: BucketUnclassified}
	}
}

// Group returns a copy of the group named name.
func (r *Registry) Group(name string) (Group, bool) {
	g, ok := r.groups[name]
	if !ok {
		return Group{}, false
	}
	return Group{Name: name, Members: g.members.list(), Excluded: r.excluded.has(name)}, true
}

// Groups returns every group ordered by representative.
func (r *Registry) Groups() []Group {
	names := make([]string, 0, len(r.groups))
	for name := range r.groups {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Group, 0, len(names))
	for _, name := range names {
		g, _ := r.Group(name)
		out = append(out, g)
	}
	return out
}

// Excluded returns the exclusion list in insertion order.
func (r *Registry) Excluded() []ExcludedEntry {
	out := make([]ExcludedEntry, 0, r.excluded.len())
	for _, name := range r.excluded.items {
		out = append(out, ExcludedEntry{
			Name:  name,
			Group: r.HasGroup(name),
			Raw:   r.rawUnmerged(name),
		})
	}
	return out
}

// Len returns the sizes of the three panes.
func (r *Registry) Len() (unclassified, groups, excluded int) {
	return r.unclassified.len(), len(r.groups), r.excluded.len()
}

func (r *Registry) rawUnmerged(name string) bool {
	_, merged := r.memberOf[name]
	return r.known.has(name) && !merged
}
