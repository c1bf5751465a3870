package model

// Selection is the toggle-set used to assemble a campaign audience. Toggling
// an id that is already selected removes it, so a double toggle always
// round-trips to the prior state and duplicates cannot occur.
type Selection struct {
	order []string
	set   map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{set: make(map[string]struct{})}
}

// Toggle adds the id if absent, removes it if present, and reports whether
// the id is selected afterwards. Malformed ids are rejected at this boundary
// and leave the selection untouched.
func (s *Selection) Toggle(id string) bool {
	norm := NormalizeContactIDs([]string{id})
	if len(norm) == 0 {
		return false
	}
	id = norm[0]
	if _, ok := s.set[id]; ok {
		delete(s.set, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return false
	}
	s.set[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Contains reports whether the id is currently selected.
func (s *Selection) Contains(id string) bool {
	_, ok := s.set[id]
	return ok
}

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.order)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.order = nil
	s.set = make(map[string]struct{})
}
