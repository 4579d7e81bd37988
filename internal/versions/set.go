package versions

import (
	"sort"
)

// Set is an immutable collection of version strings observed in one source.
//
// A nil *Set means the source had no data (unreachable or not found), while a
// non-nil empty Set means the source answered but listed no versions. All
// methods are safe to call on a nil receiver.
type Set struct {
	values map[string]struct{}
}

// New builds a Set from raw version strings. Empty strings are dropped and
// duplicates collapse.
func New(raw ...string) *Set {
	s := &Set{values: make(map[string]struct{}, len(raw))}
	for _, v := range raw {
		if v == "" {
			continue
		}
		s.values[v] = struct{}{}
	}
	return s
}

// Len returns the number of distinct versions.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Contains reports whether v was observed.
func (s *Set) Contains(v string) bool {
	if s == nil {
		return false
	}
	_, ok := s.values[v]
	return ok
}

// Values returns the versions in ascending version order.
// Versions that compare equal are ordered lexicographically.
func (s *Set) Values() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.values))
	for v := range s.values {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := Compare(out[i], out[j]); cmp != 0 {
			return cmp < 0
		}
		return out[i] < out[j]
	})
	return out
}

// Highest returns the highest version in the set.
// Returns false if the set is absent or empty.
func (s *Set) Highest() (string, bool) {
	if s.Len() == 0 {
		return "", false
	}
	var highest string
	first := true
	for v := range s.values {
		if first {
			highest, first = v, false
			continue
		}
		cmp := Compare(v, highest)
		if cmp > 0 || (cmp == 0 && v > highest) {
			highest = v
		}
	}
	return highest, true
}
