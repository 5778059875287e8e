package model

// Snapshot is an ordered copy of the active toasts, oldest first.
// Receivers own their snapshot and may keep it.
type Snapshot []Toast

// Clone returns a copy that shares no backing array with s.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

// IDs returns the toast ids in order.
func (s Snapshot) IDs() []string {
	ids := make([]string, len(s))
	for i, t := range s {
		ids[i] = t.ID
	}
	return ids
}

// Index returns the position of id, or -1.
func (s Snapshot) Index(id string) int {
	for i, t := range s {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether id is present.
func (s Snapshot) Contains(id string) bool {
	return s.Index(id) >= 0
}

// Newest returns the most recently created toast.
func (s Snapshot) Newest() (Toast, bool) {
	if len(s) == 0 {
		return Toast{}, false
	}
	return s[len(s)-1], true
}

// Diff reports which toasts appear in next but not prev (added), and
// which appear in prev but not next (removed). Both keep snapshot order.
func Diff(prev, next Snapshot) (added, removed []Toast) {
	before := make(map[string]struct{}, len(prev))
	for _, t := range prev {
		before[t.ID] = struct{}{}
	}
	after := make(map[string]struct{}, len(next))
	for _, t := range next {
		after[t.ID] = struct{}{}
		if _, ok := before[t.ID]; !ok {
			added = append(added, t)
		}
	}
	for _, t := range prev {
		if _, ok := after[t.ID]; !ok {
			removed = append(removed, t)
		}
	}
	return added, removed
}
