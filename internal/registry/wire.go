package registry

import (
	"github.com/jinhealth/reconcile/internal/api"
	"github.com/jinhealth/reconcile/internal/log"
)

// Flatten renders the partition as the sync payload: one map row per group
// member, including a self row when a member names its own group, and the
// exclusion list as-is. A flagged group travels as its representative.
func (r *Registry) Flatten() api.SyncRequest {
	req := api.SyncRequest{
		Maps:     make([]api.MapRow, 0, len(r.memberOf)),
		Excludes: r.excluded.list(),
	}
	if req.Excludes == nil {
		req.Excludes = []string{}
	}
	for _, g := range r.Groups() {
		for _, m := range g.Members {
			req.Maps = append(req.Maps, api.MapRow{OriginalName: m, StandardName: g.Name})
		}
	}
	return req
}

// Reconstruct builds a registry from a backend snapshot. Map rows become group
// membership, exclude rows go on the exclusion list, and every remaining name
// is Unclassified. Names that only appear in map or exclude rows are still
// registered.
func Reconstruct(allNames []string, maps []api.MapRow, excludes []string, opts ...Option) *Registry {
	r := New(opts...)

	for _, n := range allNames {
		if n != "" {
			r.known.add(n)
		}
	}

	for _, row := range maps {
		orig, std := row.OriginalName, row.StandardName
		if orig == "" || std == "" {
			log.Warn(log.CatRegistry, "Skipping incomplete map row", "original", orig, "standard", std)
			continue
		}
		if cur, ok := r.memberOf[orig]; ok {
			if cur != std {
				log.Warn(log.CatRegistry, "Name mapped twice, keeping first", "original", orig, "kept", cur, "dropped", std)
			}
			continue
		}
		r.known.add(orig)
		g, ok := r.groups[std]
		if !ok {
			g = &group{members: newOrderedSet()}
			r.groups[std] = g
		}
		g.members.add(orig)
		r.memberOf[orig] = std
	}

	for _, n := range excludes {
		if n == "" {
			continue
		}
		if _, merged := r.memberOf[n]; merged && !r.HasGroup(n) {
			log.Warn(log.CatRegistry, "Ignoring exclusion of a merged name", "name", n, "group", r.memberOf[n])
			continue
		}
		if !r.HasGroup(n) {
			r.known.add(n)
		}
		r.excluded.add(n)
	}

	for _, n := range r.known.items {
		if r.rawUnmerged(n) && !r.excluded.has(n) {
			r.unclassified.add(n)
		}
	}
	return r
}

// Reset replaces the whole partition with a snapshot, keeping r's options.
// It is the only way to repopulate a registry that other components already hold.
func (r *Registry) Reset(allNames []string, maps []api.MapRow, excludes []string) {
	fresh := Reconstruct(allNames, maps, excludes, WithViolationHandler(r.onViolation))
	*r = *fresh
}
