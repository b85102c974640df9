package roster

// Selection is the ordered set of member ids chosen in an editor.
// The zero value is an empty selection ready to use.
type Selection struct {
	ids   []string
	index map[string]struct{}
}

func NewSelection(ids ...string) *Selection {
	s := new(Selection)
	s.Set(ids...)
	return s
}

// Set replaces the selection with ids; duplicates are ignored.
func (s *Selection) Set(ids ...string) {
	s.ids = make([]string, 0, len(ids))
	s.index = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
}

// Add appends id unless it is already selected.
func (s *Selection) Add(id string) {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *Selection) Remove(id string) {
	if _, ok := s.index[id]; !ok {
		return
	}
	delete(s.index, id)
	for i, sid := range s.ids {
		if sid == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
}

func (s *Selection) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s *Selection) Len() int { return len(s.ids) }

// IDs returns a copy of the selected ids, in selection order. Never nil.
func (s *Selection) IDs() []string {
	return append(make([]string, 0, len(s.ids)), s.ids...)
}

// Members resolves the selection against options, in selection order.
// Selected ids missing from options are skipped.
func (s *Selection) Members(options []Member) []Member {
	byID := make(map[string]Member, len(options))
	for _, m := range options {
		byID[m.ID] = m
	}
	members := make([]Member, 0, len(s.ids))
	for _, id := range s.ids {
		if m, ok := byID[id]; ok {
			members = append(members, m)
		}
	}
	return members
}

// Missing returns the selected ids that are not present in options.
func (s *Selection) Missing(options []Member) []string {
	offered := make(map[string]struct{}, len(options))
	for _, m := range options {
		offered[m.ID] = struct{}{}
	}
	var missing []string
	for _, id := range s.ids {
		if _, ok := offered[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
