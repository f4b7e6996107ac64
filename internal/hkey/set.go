package hkey

// Set is a membership set of keys. The zero value is not usable; use NewSet.
type Set struct {
	m    map[string]struct{}
	keys []Key
}

// NewSet creates a set holding the given keys.
func NewSet(keys ...Key) *Set {
	s := &Set{m: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts k. Returns false if it was already present.
func (s *Set) Add(k Key) bool {
	enc := k.encode()
	if _, ok := s.m[enc]; ok {
		return false
	}
	s.m[enc] = struct{}{}
	s.keys = append(s.keys, k)
	return true
}

// Has reports whether k is in the set.
func (s *Set) Has(k Key) bool {
	_, ok := s.m[k.encode()]
	return ok
}

// Len returns the number of distinct keys.
func (s *Set) Len() int {
	return len(s.m)
}

// Sorted returns the members in Compare order.
func (s *Set) Sorted() []Key {
	out := make([]Key, len(s.keys))
	copy(out, s.keys)
	Sort(out)
	return out
}

// Index maps keys to a row position. Used by joins to find the rows that
// share a prefix.
type Index struct {
	m map[string][]int
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{m: make(map[string][]int)}
}

// Add records row under k.
func (ix *Index) Add(k Key, row int) {
	enc := k.encode()
	ix.m[enc] = append(ix.m[enc], row)
}

// Rows returns every row recorded under k, in insertion order.
func (ix *Index) Rows(k Key) []int {
	return ix.m[k.encode()]
}
