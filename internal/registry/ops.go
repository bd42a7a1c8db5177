package registry

import "fmt"

// MoveToUnclassified takes name off the exclusion list or out of its group.
// Restoring a flagged group's representative only clears the flag.
// It reports whether anything changed.
func (r *Registry) MoveToUnclassified(name string) bool {
	if r.excluded.has(name) {
		r.unexclude(name)
		return true
	}
	if key, ok := r.memberOf[name]; ok {
		r.removeMember(key, name)
		return true
	}
	if r.unclassified.has(name) {
		return false
	}
	r.violate("MoveToUnclassified", name, "", "unknown name")
	return false
}

// MoveToExcluded puts name on the exclusion list. A group representative is
// flagged in place with its members untouched; a merged raw name leaves its
// group first.
func (r *Registry) MoveToExcluded(name string) bool {
	if r.HasGroup(name) {
		if r.excluded.has(name) {
			return false
		}
		r.exclude(name)
		return true
	}
	if key, ok := r.memberOf[name]; ok {
		r.removeMember(key, name)
		r.exclude(name)
		return true
	}
	if r.unclassified.has(name) {
		r.exclude(name)
		return true
	}
	if r.excluded.has(name) {
		return false
	}
	r.violate("MoveToExcluded", name, "", "unknown name")
	return false
}

// CreateGroupWith appends member to the group rep, creating the group when
// needed. The member leaves whatever bucket held it.
func (r *Registry) CreateGroupWith(rep, member string) bool {
	if rep == "" {
		r.violate("CreateGroupWith", member, rep, "empty group name")
		return false
	}
	if !r.known.has(member) {
		r.violate("CreateGroupWith", member, rep, "unknown name")
		return false
	}
	if r.memberOf[member] == rep {
		return false
	}

	r.detach(member)

	g, ok := r.groups[rep]
	if !ok {
		g = &group{members: newOrderedSet()}
		r.groups[rep] = g
	}
	g.members.add(member)
	r.memberOf[member] = rep
	r.prune(member)
	return true
}

// MergeInto merges an Unclassified name into rep.
func (r *Registry) MergeInto(member, rep string) bool {
	if !r.unclassified.has(member) {
		r.violate("MergeInto", member, rep, "name is not unclassified")
		return false
	}
	return r.CreateGroupWith(rep, member)
}

// Unmerge returns member from group rep to Unclassified. An emptied group is dissolved.
func (r *Registry) Unmerge(member, rep string) bool {
	if !r.HasGroup(rep) || r.memberOf[member] != rep {
		r.violate("Unmerge", member, rep, "name is not a member of the group")
		return false
	}
	r.removeMember(rep, member)
	return true
}

// RenameGroup re-keys a group. An excluded flag follows the group. An
// unflagged group cannot take an excluded name.
func (r *Registry) RenameGroup(oldName, newName string) (bool, error) {
	if newName == oldName {
		return false, nil
	}
	g, ok := r.groups[oldName]
	if !ok {
		r.violate("RenameGroup", newName, oldName, "no such group")
		return false, nil
	}
	if newName == "" {
		r.violate("RenameGroup", newName, oldName, "empty group name")
		return false, nil
	}
	if r.HasGroup(newName) {
		return false, fmt.Errorf("rename %q to %q: %w", oldName, newName, ErrNameCollision)
	}

	flagged := r.excluded.has(oldName)
	if !flagged && r.excluded.has(newName) {
		return false, fmt.Errorf("rename %q to %q: %w", oldName, newName, ErrNameExcluded)
	}
	delete(r.groups, oldName)
	r.groups[newName] = g
	for _, m := range g.members.items {
		r.memberOf[m] = newName
	}
	r.prune(oldName)
	if flagged {
		r.exclude(newName)
	}
	return true, nil
}

// SetRepresentative relabels group rep with the name of one of its members.
func (r *Registry) SetRepresentative(rep, member string) (bool, error) {
	if r.memberOf[member] != rep || !r.HasGroup(rep) {
		r.violate("SetRepresentative", member, rep, "name is not a member of the group")
		return false, nil
	}
	return r.RenameGroup(rep, member)
}

// DeleteGroup dissolves rep and returns all of its members to Unclassified.
func (r *Registry) DeleteGroup(rep string) bool {
	g, ok := r.groups[rep]
	if !ok {
		r.violate("DeleteGroup", rep, "", "no such group")
		return false
	}
	members := g.members.list()
	for _, m := range members {
		delete(r.memberOf, m)
	}
	delete(r.groups, rep)
	r.prune(rep)
	for _, m := range members {
		r.settle(m)
	}
	return true
}

// ReorderMember moves member to index within its group.
func (r *Registry) ReorderMember(rep, member string, index int) bool {
	g, ok := r.groups[rep]
	if !ok || r.memberOf[member] != rep {
		r.violate("ReorderMember", member, rep, "name is not a member of the group")
		return false
	}
	return g.members.move(member, index)
}

// detach removes a raw name from its current bucket without placing it anywhere.
// An excluded raw name comes off the list unless a group shares its name.
func (r *Registry) detach(name string) {
	if key, ok := r.memberOf[name]; ok {
		delete(r.memberOf, name)
		r.dropMember(key, name)
		return
	}
	if r.unclassified.remove(name) {
		return
	}
	if r.excluded.has(name) && !r.HasGroup(name) {
		r.excluded.remove(name)
	}
}

// removeMember takes name out of group key and settles it as unmerged.
func (r *Registry) removeMember(key, name string) {
	delete(r.memberOf, name)
	r.dropMember(key, name)
	r.settle(name)
}

func (r *Registry) dropMember(key, name string) {
	g := r.groups[key]
	g.members.remove(name)
	if g.members.len() == 0 {
		delete(r.groups, key)
		r.prune(key)
	}
}

// settle places an unmerged raw name: Excluded when its name is listed, else Unclassified.
func (r *Registry) settle(name string) {
	if r.excluded.has(name) {
		return
	}
	r.unclassified.add(name)
}

// exclude lists name, pulling a matching unmerged raw name out of Unclassified.
func (r *Registry) exclude(name string) {
	r.excluded.add(name)
	r.unclassified.remove(name)
}

// unexclude delists name, returning a matching unmerged raw name to Unclassified.
func (r *Registry) unexclude(name string) {
	r.excluded.remove(name)
	if r.rawUnmerged(name) {
		r.unclassified.add(name)
	}
}

// prune delists name once neither a group nor an unmerged raw name carries it.
func (r *Registry) prune(name string) {
	if r.excluded.has(name) && !r.HasGroup(name) && !r.rawUnmerged(name) {
		r.excluded.remove(name)
	}
}
