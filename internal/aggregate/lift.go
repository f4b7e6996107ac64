package aggregate

import (
	"fmt"

	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/hkey"
)

// LiftAny lifts a Bool column to an ancestor depth with "exists" semantics:
// the ancestor is true iff at least one descendant row has pred == true.
// Null and false never match, and neither do padding rows from an outer
// merge: an interaction without primaries reads false.
//
// The result has one row per distinct ancestor prefix of the whole input
// table, sorted, with a single Bool column out. Its key set is exactly the
// input's ancestor set at depth: no ancestor dropped, none invented.
func LiftAny(t *frame.Table, pred frame.ColumnRef, depth int, out frame.ColumnRef) (*frame.Table, error) {
	const op = "lift_any"
	if !t.Has(pred) {
		return nil, fmt.Errorf("%s: unknown column %s", op, pred)
	}
	if err := checkBool(op, t, pred); err != nil {
		return nil, err
	}
	ancestors, err := ancestorsOf(op, t, depth)
	if err != nil {
		return nil, err
	}

	matched := hkey.NewSet()
	for i := 0; i < t.Len(); i++ {
		k := t.Key(i)
		if descends(k, depth) && frame.IsTrue(t.Value(i, pred)) {
			matched.Add(k[:depth])
		}
	}

	b := frame.NewBuilder(depth, frame.Columns(out))
	for _, a := range ancestors {
		b.Add(a, frame.Row{out: frame.Bool(matched.Has(a))})
	}
	return b.Build()
}

// Attach joins an ancestor-level derived table onto target by full key.
// Target rows with no derived row get fill in every derived column, so a
// lifted flag reads false and a count reads 0 rather than missing.
//
// Both tables must have the same depth; derived columns move depth only
// through LiftAny, CountMatching and First.
func Attach(target, derived *frame.Table, fill frame.Value) (*frame.Table, error) {
	if target.Depth() != derived.Depth() {
		return nil, &hkey.DepthError{Op: "attach", Depth: target.Depth(), Requested: derived.Depth()}
	}
	return frame.Merge(target, derived, target.Depth(), frame.OneToOne,
		frame.KeepUnmatched(), frame.FillWith(fill))
}

// ancestorsOf returns the distinct prefixes at depth that name a real
// ancestor, i.e. contain no hkey.Absent padding.
func ancestorsOf(op string, t *frame.Table, depth int) ([]hkey.Key, error) {
	if depth < 1 || depth > t.Depth() {
		return nil, &hkey.DepthError{Op: op, Depth: t.Depth(), Requested: depth}
	}
	all, err := t.Prefixes(depth)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if !p.HasAbsent() {
			out = append(out, p)
		}
	}
	return out, nil
}

// descends reports whether the row keyed k stands for an entity at or below
// depth. An outer merge pads an unmatched row with hkey.Absent; such a row
// stands for its deepest real ancestor, so once the padding starts at or
// above depth+1 the row is that ancestor itself and has no descendant to
// contribute.
func descends(k hkey.Key, depth int) bool {
	if depth >= len(k) {
		return !k.HasAbsent()
	}
	return !k[:depth+1].HasAbsent()
}

// checkBool rejects predicate columns holding anything but Bool or Null.
// Truthiness of numbers or strings is never inferred.
func checkBool(op string, t *frame.Table, ref frame.ColumnRef) error {
	for i := 0; i < t.Len(); i++ {
		v := t.Value(i, ref)
		if frame.IsNull(v) {
			continue
		}
		if _, ok := v.(frame.Bool); !ok {
			return fmt.Errorf("%s: column %s row %s holds %s, want bool", op, ref, t.Key(i), frame.TypeName(v))
		}
	}
	return nil
}
