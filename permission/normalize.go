package permission

import "sort"

// Normalize returns a canonical copy of s: each action list deduplicated and
// ordered by [CanonicalOrder], with every configured key kept, including those
// with empty lists. A SuperAdmin set normalizes to the bare SuperAdmin singleton.
//
// Normalize is pure and idempotent.
func Normalize(s *Set) *Set {
	if s.IsSuperAdmin() {
		return SuperAdminSet()
	}
	out := NewSet()
	for _, k := range s.Keys() {
		out.put(k, NormalizeActions(s.modules[k]))
	}
	return out
}

// NormalizeActions deduplicates actions and sorts them into canonical order.
// Actions outside the canonical list follow, in first-seen order. The result is
// never nil.
func NormalizeActions(actions []Action) []Action {
	out := make([]Action, 0, len(actions))
	seen := make(map[Action]struct{}, len(actions))
	for _, a := range actions {
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i]) < rank(out[j])
	})
	return out
}

func rank(a Action) int {
	if r, ok := canonicalRank[a]; ok {
		return r
	}
	return len(CanonicalOrder)
}
