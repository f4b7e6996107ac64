package hkey

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// Conventional depths of the detector hierarchy.
const (
	Event       = 1
	Interaction = 2
	Primary     = 3
	Daughter    = 4
)

// Absent pads the key of an unmatched row when an outer merge widens a table
// to a depth the row has no real component for. It sorts before every real
// component.
const Absent int64 = math.MinInt64

// AnchorSlot is the last component given to anchor rows by a stack. Callers
// should use Entity rather than compare against it.
const AnchorSlot int64 = -1

// Key is a hierarchical row key.
type Key []int64

// New creates a key from components.
func New(components ...int64) Key {
	return Key(slices.Clone(components))
}

// Depth returns the number of components.
func (k Key) Depth() int {
	return len(k)
}

// Last returns the final component. Panics on an empty key.
func (k Key) Last() int64 {
	return k[len(k)-1]
}

// HasAbsent reports whether any component is padding from an outer merge.
func (k Key) HasAbsent() bool {
	return slices.Contains(k, Absent)
}

// Append returns a new key with c appended. k is not modified.
func (k Key) Append(c int64) Key {
	out := make(Key, len(k), len(k)+1)
	copy(out, k)
	return append(out, c)
}

// Equal reports whether two keys have identical components.
func (k Key) Equal(other Key) bool {
	return slices.Equal(k, other)
}

// String renders the key as "(1, 2, 3)". Absent components render as "_".
func (k Key) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, c := range k {
		if i > 0 {
			b.WriteString(", ")
		}
		if c == Absent {
			b.WriteByte('_')
			continue
		}
		b.WriteString(strconv.FormatInt(c, 10))
	}
	b.WriteByte(')')
	return b.String()
}

// encode returns a compact map key. Distinct keys never encode equal.
func (k Key) encode() string {
	var b strings.Builder
	for i, c := range k {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(strconv.FormatInt(c, 36))
	}
	return b.String()
}

// Ancestor returns k with its last drop components removed.
//
// Fails with *DepthError when drop is negative or would leave fewer than one
// component.
func Ancestor(k Key, drop int) (Key, error) {
	if drop < 0 || drop >= len(k) {
		return nil, &DepthError{Op: "ancestor", Depth: len(k), Requested: len(k) - drop}
	}
	return Key(slices.Clone(k[:len(k)-drop])), nil
}

// Prefix returns the first depth components of k.
//
// Fails with *DepthError unless 1 <= depth <= k.Depth().
func Prefix(k Key, depth int) (Key, error) {
	if depth < 1 || depth > len(k) {
		return nil, &DepthError{Op: "prefix", Depth: len(k), Requested: depth}
	}
	return Key(slices.Clone(k[:depth])), nil
}

// SameAncestor reports whether a and b agree on components [0, depth).
// Keys shorter than depth never share an ancestor at that depth.
func SameAncestor(a, b Key, depth int) bool {
	if depth < 0 || len(a) < depth || len(b) < depth {
		return false
	}
	return slices.Equal(a[:depth], b[:depth])
}

// Compare orders keys lexicographically by component; a shorter key that is
// a prefix of a longer one sorts first.
func Compare(a, b Key) int {
	return slices.Compare(a, b)
}

// Sort sorts keys in place by Compare.
func Sort(keys []Key) {
	slices.SortFunc(keys, Compare)
}
