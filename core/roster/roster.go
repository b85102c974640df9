// Package roster reconciles class memberships: it merges the members already assigned to a
// class with the pool of unassigned candidates, tracks what the user selected, and computes
// the change between two memberships.
package roster

// Member is a teacher or student eligible for (or part of) a class.
// Identity is the ID; Name is display only.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Merge returns the union of assigned and candidates keyed by Member.ID.
//
// Assigned members come first and win over candidates sharing their id. Candidates whose id
// is new are appended in their order. Duplicates inside either input collapse to their first
// occurrence. Merging a result again with either input yields the same result.
func Merge(assigned, candidates []Member) []Member {
	merged := make([]Member, 0, len(assigned)+len(candidates))
	seen := make(map[string]struct{}, len(assigned)+len(candidates))
	merged = appendNew(merged, seen, assigned)
	return appendNew(merged, seen, candidates)
}

func appendNew(dst []Member, seen map[string]struct{}, src []Member) []Member {
	for _, m := range src {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		dst = append(dst, m)
	}
	return dst
}

// IDs returns the ids of members, in order.
func IDs(members []Member) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	return ids
}

// Find returns the member with the given id.
func Find(members []Member, id string) (Member, bool) {
	for _, m := range members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// Change is the difference between two memberships.
type Change struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

func (c Change) IsEmpty() bool { return len(c.Added) == 0 && len(c.Removed) == 0 }

// Diff reports which ids of after are not in before (Added) and which ids of before are not
// in after (Removed). Order follows the respective input.
func Diff(before, after []string) Change {
	inBefore := make(map[string]struct{}, len(before))
	for _, id := range before {
		inBefore[id] = struct{}{}
	}
	inAfter := make(map[string]struct{}, len(after))
	for _, id := range after {
		inAfter[id] = struct{}{}
	}

	c := Change{Added: []string{}, Removed: []string{}}
	for _, id := range after {
		if _, ok := inBefore[id]; !ok {
			c.Added = append(c.Added, id)
			inBefore[id] = struct{}{} // report duplicates once
		}
	}
	for _, id := range before {
		if _, ok := inAfter[id]; !ok {
			c.Removed = append(c.Removed, id)
			inAfter[id] = struct{}{}
		}
	}
	return c
}
