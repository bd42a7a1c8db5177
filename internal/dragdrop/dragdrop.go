// Package dragdrop turns drag gestures between the three panes into editor
// calls. Mouse and keyboard input both drive the same state machine:
//
//	Idle -> Dragging -> Idle          (dropped on a pane or group, or cancelled)
//	Idle -> Dragging -> Prompting -> Idle  (dropped on the new-group zone)
package dragdrop

import (
	"github.com/jinhealth/reconcile/internal/log"
)

// Pane is one of the editor's lists.
type Pane int

const (
	PaneNone Pane = iota
	PaneUnclassified
	PaneGroups
	PaneExcluded
)

func (p Pane) String() string {
	switch p {
	case PaneUnclassified:
		return "unclassified"
	case PaneGroups:
		return "groups"
	case PaneExcluded:
		return "excluded"
	default:
		return "none"
	}
}

// State is the controller's phase.
type State int

const (
	StateIdle State = iota
	StateDragging
	StatePrompting
)

// Outcome is how a gesture ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeDroppedOnPane
	OutcomeDroppedOnGroup
	OutcomeDroppedOnNewGroup
	OutcomeCancelled
)

// Item is the thing being dragged. Group is the owning group for members and
// the group itself when Header is set.
type Item struct {
	Name   string
	Pane   Pane
	Group  string
	Header bool
}

// TargetKind distinguishes drop targets.
type TargetKind int

const (
	TargetPane TargetKind = iota
	TargetGroup
	TargetNewGroup
)

// Target is where an item was released. Index is the member slot within a
// group, or -1 when the drop landed on the group header.
type Target struct {
	Kind  TargetKind
	Pane  Pane
	Group string
	Index int
}

// OnPane targets a pane's background.
func OnPane(p Pane) Target { return Target{Kind: TargetPane, Pane: p, Index: -1} }

// OnGroup targets a group header.
func OnGroup(group string) Target {
	return Target{Kind: TargetGroup, Pane: PaneGroups, Group: group, Index: -1}
}

// OnMember targets a member slot inside a group.
func OnMember(group string, index int) Target {
	return Target{Kind: TargetGroup, Pane: PaneGroups, Group: group, Index: index}
}

// NewGroupZone targets the transient create-group area.
func NewGroupZone() Target { return Target{Kind: TargetNewGroup, Index: -1} }

// Result reports what a drop did.
type Result struct {
	Outcome Outcome
	Changed bool
	// Suggested pre-fills the new group prompt when Outcome is OutcomeDroppedOnNewGroup.
	Suggested string
}

// Editor is the subset of the reconciliation editor a drop can call.
type Editor interface {
	Merge(member, group string) bool
	MoveToGroup(member, group string) bool
	Unmerge(member, group string) bool
	Exclude(name string) bool
	Restore(name string) bool
	Reorder(group, member string, index int) bool
	CreateGroupFromDrop(member, typed string) (bool, error)
}

// Controller holds at most one drag in flight.
type Controller struct {
	ed    Editor
	state State
	item  Item
}

// New returns an idle controller that applies drops through ed.
func New(ed Editor) *Controller {
	return &Controller{ed: ed}
}

// State returns the current phase.
func (c *Controller) State() State { return c.state }

// Item returns the dragged item. It is zero when idle.
func (c *Controller) Item() Item { return c.item }

// Dragging reports whether an item is picked up, including while prompting.
func (c *Controller) Dragging() bool { return c.state != StateIdle }

// Begin picks up item. It fails while another gesture is in progress.
func (c *Controller) Begin(item Item) bool {
	if c.state != StateIdle || item.Name == "" || item.Pane == PaneNone {
		return false
	}
	c.state = StateDragging
	c.item = item
	log.Debug(log.CatDragDrop, "Drag started", "name", item.Name, "pane", item.Pane, "group", item.Group)
	return true
}

// Cancel abandons the gesture; the item stays where it was.
func (c *Controller) Cancel() Result {
	if c.state == StateIdle {
		return Result{}
	}
	log.Debug(log.CatDragDrop, "Drag cancelled", "name", c.item.Name)
	c.reset()
	return Result{Outcome: OutcomeCancelled}
}

// Drop releases the item over t.
func (c *Controller) Drop(t Target) Result {
	if c.state != StateDragging {
		return Result{}
	}
	it := c.item

	switch t.Kind {
	case TargetNewGroup:
		return c.prompt(it)
	case TargetGroup:
		return c.dropOnGroup(it, t)
	default:
		if t.Pane == PaneGroups && it.Pane != PaneGroups {
			return c.prompt(it)
		}
		return c.dropOnPane(it, t.Pane)
	}
}

// ConfirmNewGroup finishes a new-group drop with the typed name. On error the
// prompt stays open so the caller can ask again or Cancel.
func (c *Controller) ConfirmNewGroup(typed string) (Result, error) {
	if c.state != StatePrompting {
		return Result{}, nil
	}
	it := c.item
	changed, err := c.ed.CreateGroupFromDrop(it.Name, typed)
	if err != nil {
		log.Debug(log.CatDragDrop, "New group rejected", "name", it.Name, "typed", typed, "error", err)
		return Result{Outcome: OutcomeDroppedOnNewGroup}, err
	}
	c.reset()
	return Result{Outcome: OutcomeDroppedOnNewGroup, Changed: changed}, nil
}

func (c *Controller) prompt(it Item) Result {
	if it.Header || (it.Pane == PaneExcluded && it.Group != "") {
		return c.Cancel()
	}
	c.state = StatePrompting
	return Result{Outcome: OutcomeDroppedOnNewGroup, Suggested: it.Name}
}

func (c *Controller) dropOnGroup(it Item, t Target) Result {
	defer c.reset()
	res := Result{Outcome: OutcomeDroppedOnGroup}

	switch {
	case it.Header || (it.Pane == PaneExcluded && it.Group != ""):
		// Groups do not nest.
		return Result{Outcome: OutcomeCancelled}
	case it.Pane == PaneGroups && it.Group == t.Group:
		if t.Index >= 0 {
			res.Changed = c.ed.Reorder(t.Group, it.Name, t.Index)
		}
	case it.Pane == PaneUnclassified:
		res.Changed = c.ed.Merge(it.Name, t.Group)
	default:
		res.Changed = c.ed.MoveToGroup(it.Name, t.Group)
	}
	return res
}

func (c *Controller) dropOnPane(it Item, p Pane) Result {
	defer c.reset()
	res := Result{Outcome: OutcomeDroppedOnPane}
	if p == it.Pane || p == PaneNone {
		return res
	}

	switch p {
	case PaneUnclassified:
		switch {
		case it.Pane == PaneExcluded:
			res.Changed = c.ed.Restore(it.Name)
		case it.Pane == PaneGroups && !it.Header:
			res.Changed = c.ed.Unmerge(it.Name, it.Group)
		default:
			return Result{Outcome: OutcomeCancelled}
		}
	case PaneExcluded:
		res.Changed = c.ed.Exclude(it.Name)
	}
	return res
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.item = Item{}
}
