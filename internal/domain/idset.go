package domain

import "slices"

// IDSet is an insertion-ordered set of identifiers. Add and Remove are
// idempotent, so reapplying the same membership change is harmless.
type IDSet []string

// Has reports membership.
func (s IDSet) Has(id string) bool { return slices.Contains(s, id) }

// Add inserts id when absent and reports whether the set changed.
func (s *IDSet) Add(id string) bool {
	if id == "" || s.Has(id) {
		return false
	}
	*s = append(*s, id)
	return true
}

// Remove deletes id when present and reports whether the set changed.
func (s *IDSet) Remove(id string) bool {
	i := slices.Index(*s, id)
	if i < 0 {
		return false
	}
	*s = slices.Delete(*s, i, i+1)
	return true
}

// Clone returns an independent copy. A nil set clones to an empty one so the
// JSON form is always an array.
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	copy(out, s)
	return out
}
