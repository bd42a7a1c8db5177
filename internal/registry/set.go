package registry

import "slices"

// orderedSet is a string set that remembers insertion order.
type orderedSet struct {
	items []string
	index map[string]struct{}
}

func newOrderedSet() orderedSet {
	return orderedSet{index: make(map[string]struct{})}
}

func (s *orderedSet) has(v string) bool {
	_, ok := s.index[v]
	return ok
}

// add appends v when absent and reports whether it did.
func (s *orderedSet) add(v string) bool {
	if s.has(v) {
		return false
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

func (s *orderedSet) remove(v string) bool {
	if !s.has(v) {
		return false
	}
	delete(s.index, v)
	if i := slices.Index(s.items, v); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	}
	return true
}

// move relocates v to position i, clamped to the valid range.
func (s *orderedSet) move(v string, i int) bool {
	from := slices.Index(s.items, v)
	if from < 0 {
		return false
	}
	i = max(0, min(i, len(s.items)-1))
	if i == from {
		return false
	}
	s.items = slices.Delete(s.items, from, from+1)
	s.items = slices.Insert(s.items, i, v)
	return true
}

func (s *orderedSet) len() int { return len(s.items) }

func (s *orderedSet) list() []string { return slices.Clone(s.items) }
