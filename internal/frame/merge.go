package frame

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/hierframe/internal/hkey"
)

// Cardinality declares the relationship a merge expects between the rows of
// its two sides. The merge validates it and fails loudly on violation.
type Cardinality int

const (
	// OneToOne is an inner join where each join prefix matches at most one
	// row on each side.
	OneToOne Cardinality = iota + 1
	// OneToMany is an inner join where the left side is the "one" side:
	// each left prefix is unique, the right side may repeat it.
	OneToMany
	// LeftOuter keeps every left row, matched or not. The left side is the
	// "one" side, as for OneToMany.
	LeftOuter
)

// String returns the configuration spelling of the cardinality.
func (c Cardinality) String() string {
	switch c {
	case OneToOne:
		return "one_to_one"
	case OneToMany:
		return "one_to_many"
	case LeftOuter:
		return "left_outer"
	default:
		return fmt.Sprintf("Cardinality(%d)", int(c))
	}
}

// ParseCardinality reads the configuration spelling.
func ParseCardinality(s string) (Cardinality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "one_to_one", "1:1":
		return OneToOne, nil
	case "one_to_many", "1:n":
		return OneToMany, nil
	case "left_outer", "left":
		return LeftOuter, nil
	default:
		return 0, fmt.Errorf("unknown cardinality %q: must be one_to_one, one_to_many or left_outer", s)
	}
}

// MergeOption adjusts a merge.
type MergeOption func(*mergeConfig)

type mergeConfig struct {
	keepUnmatched bool
	fill          Value
}

// KeepUnmatched keeps left rows without a right match, as LeftOuter does,
// while still enforcing the declared cardinality.
func KeepUnmatched() MergeOption {
	return func(c *mergeConfig) {
		c.keepUnmatched = true
	}
}

// FillWith sets the value written into right-side columns of unmatched left
// rows. The default is Null.
func FillWith(v Value) MergeOption {
	return func(c *mergeConfig) {
		c.fill = v
	}
}

// Merge joins left and right on the first joinDepth key components.
//
// Result depth is the larger of the two depths; each result row takes its
// key from the deeper side. Unmatched left rows kept by LeftOuter or
// KeepUnmatched are padded with hkey.Absent up to the result depth.
//
// Errors (first violation wins):
//   - *hkey.DepthError if joinDepth is outside [1, min depth]
//   - *ColumnCollisionError if a record group appears on both sides
//   - *CardinalityError if a prefix repeats where the cardinality forbids it
func Merge(left, right *Table, joinDepth int, card Cardinality, opts ...MergeOption) (*Table, error) {
	cfg := mergeConfig{fill: Null{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if card < OneToOne || card > LeftOuter {
		return nil, fmt.Errorf("merge: unknown cardinality %d", int(card))
	}

	minDepth := min(left.depth, right.depth)
	if joinDepth < 1 || joinDepth > minDepth {
		return nil, &hkey.DepthError{Op: "merge", Depth: minDepth, Requested: joinDepth}
	}

	if shared := sharedGroups(left, right); len(shared) > 0 {
		return nil, &ColumnCollisionError{Op: "merge", Groups: shared}
	}

	if err := checkPrefixUnique(left, joinDepth, "left", card); err != nil {
		return nil, err
	}
	if card == OneToOne {
		if err := checkPrefixUnique(right, joinDepth, "right", card); err != nil {
			return nil, err
		}
	}

	rightIndex := hkey.NewIndex()
	for i, k := range right.keys {
		rightIndex.Add(k[:joinDepth], i)
	}

	outer := card == LeftOuter || cfg.keepUnmatched
	depth := max(left.depth, right.depth)
	keyFromRight := right.depth >= left.depth

	var (
		keys     []hkey.Key
		leftRows []int
		rightRow []int // -1 for unmatched
	)
	for i, lk := range left.keys {
		matches := rightIndex.Rows(lk[:joinDepth])
		if len(matches) == 0 {
			if outer {
				keys = append(keys, pad(lk, depth))
				leftRows = append(leftRows, i)
				rightRow = append(rightRow, -1)
			}
			continue
		}
		for _, r := range matches {
			k := lk
			if keyFromRight {
				k = right.keys[r]
			}
			keys = append(keys, k)
			leftRows = append(leftRows, i)
			rightRow = append(rightRow, r)
		}
	}

	cols := make(map[ColumnRef][]Value, len(left.cols)+len(right.cols))
	for ref, c := range left.cols {
		nc := make([]Value, len(keys))
		for i, l := range leftRows {
			nc[i] = c[l]
		}
		cols[ref] = nc
	}
	for ref, c := range right.cols {
		nc := make([]Value, len(keys))
		for i, r := range rightRow {
			if r < 0 {
				nc[i] = cfg.fill
				continue
			}
			nc[i] = c[r]
		}
		cols[ref] = nc
	}

	// Merge results are never ragged: ragged inputs are aggregated first.
	out, err := assemble("merge", depth, false, keys, cols)
	if err != nil {
		var kc *KeyCollisionError
		if errors.As(err, &kc) {
			// A repeated result key means both sides fanned out under one
			// prefix: many-to-many, which no cardinality permits.
			return nil, &CardinalityError{Cardinality: card, Side: "both", Prefix: hkey.New(kc.Key[:joinDepth]...), Count: 2}
		}
		return nil, err
	}
	return out, nil
}

// checkPrefixUnique fails if two rows of t share a join prefix. Rows are
// sorted, so rows sharing a prefix are adjacent.
func checkPrefixUnique(t *Table, depth int, side string, card Cardinality) error {
	for i := 0; i < len(t.keys); {
		j := i + 1
		for j < len(t.keys) && hkey.SameAncestor(t.keys[i], t.keys[j], depth) {
			j++
		}
		if j-i > 1 {
			return &CardinalityError{
				Cardinality: card,
				Side:        side,
				Prefix:      hkey.New(t.keys[i][:depth]...),
				Count:       j - i,
			}
		}
		i = j
	}
	return nil
}

func sharedGroups(left, right *Table) []string {
	var shared []string
	rg := right.Groups()
	for _, g := range left.Groups() {
		if slices.Contains(rg, g) {
			shared = append(shared, g)
		}
	}
	return shared
}

// pad extends k with hkey.Absent components up to depth.
func pad(k hkey.Key, depth int) hkey.Key {
	if k.Depth() >= depth {
		return k
	}
	out := make(hkey.Key, depth)
	copy(out, k)
	for i := k.Depth(); i < depth; i++ {
		out[i] = hkey.Absent
	}
	return out
}
