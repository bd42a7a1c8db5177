package registry

import "fmt"

// Check verifies the partition invariant and returns the first breach found.
func (r *Registry) Check() error {
	for _, n := range r.known.items {
		key, merged := r.memberOf[n]
		inU := r.unclassified.has(n)
		inE := r.excluded.has(n)
		switch {
		case merged:
			g, ok := r.groups[key]
			if !ok || !g.members.has(n) {
				return fmt.Errorf("%q: recorded under missing group %q", n, key)
			}
			if inU {
				return fmt.Errorf("%q: merged into %q and unclassified", n, key)
			}
		case inU && inE:
			return fmt.Errorf("%q: both unclassified and excluded", n)
		case !inU && !inE:
			return fmt.Errorf("%q: in no bucket", n)
		}
	}

	for _, n := range r.unclassified.items {
		if !r.known.has(n) {
			return fmt.Errorf("unclassified %q is not a known name", n)
		}
	}

	for key, g := range r.groups {
		if key == "" {
			return fmt.Errorf("group with empty name")
		}
		if g.members.len() == 0 {
			return fmt.Errorf("group %q has no members", key)
		}
		for _, m := range g.members.items {
			if !r.known.has(m) {
				return fmt.Errorf("group %q: member %q is not a known name", key, m)
			}
			if r.memberOf[m] != key {
				return fmt.Errorf("group %q: member %q recorded under %q", key, m, r.memberOf[m])
			}
		}
	}

	for _, n := range r.excluded.items {
		if !r.HasGroup(n) && !r.rawUnmerged(n) {
			return fmt.Errorf("excluded %q names neither a group nor an unmerged name", n)
		}
	}
	return nil
}
