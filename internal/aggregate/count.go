package aggregate

import (
	"fmt"

	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/hkey"
)

// DefaultCut is the kinetic energy cut used when none is configured.
const DefaultCut = 0.0

// Threshold is a kinetic energy cut. The zero value applies DefaultCut.
type Threshold struct {
	// Cut is the minimum kinetic energy, in the energy column's units, for a
	// particle to count. The comparison is strict.
	Cut float64
}

// Apply adds a Bool column out that is true where energy - mass > Cut.
// A row with a Null or non-numeric energy is false. mass is supplied by
// the caller, typically from the physics constants table.
func (th Threshold) Apply(t *frame.Table, energy frame.ColumnRef, mass float64, out frame.ColumnRef) (*frame.Table, error) {
	if !t.Has(energy) {
		return nil, fmt.Errorf("threshold: unknown column %s", energy)
	}
	return t.Map(out, func(i int) frame.Value {
		e, ok := t.Float(i, energy)
		return frame.Bool(ok && e-mass > th.Cut)
	})
}

// CountMatching counts, for every distinct ancestor prefix at groupDepth,
// the descendant rows whose pred is true. The result has one row per
// ancestor and an Int column out; ancestors without matches get 0. Padding
// rows from an outer merge are not descendants, whatever pred holds there.
func CountMatching(t *frame.Table, groupDepth int, pred frame.ColumnRef, out frame.ColumnRef) (*frame.Table, error) {
	const op = "count_matching"
	if !t.Has(pred) {
		return nil, fmt.Errorf("%s: unknown column %s", op, pred)
	}
	if err := checkBool(op, t, pred); err != nil {
		return nil, err
	}
	ancestors, err := ancestorsOf(op, t, groupDepth)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(ancestors))
	for i := 0; i < t.Len(); i++ {
		k := t.Key(i)
		if descends(k, groupDepth) && frame.IsTrue(t.Value(i, pred)) {
			counts[k[:groupDepth].String()]++
		}
	}

	b := frame.NewBuilder(groupDepth, frame.Columns(out))
	for _, a := range ancestors {
		b.Add(a, frame.Row{out: frame.Int(counts[a.String()])})
	}
	return b.Build()
}

// Count counts the rows of t per ancestor prefix. Padding rows from an outer
// merge are not rows of t's level and are never counted.
func Count(t *frame.Table, groupDepth int, out frame.ColumnRef) (*frame.Table, error) {
	ancestors, err := ancestorsOf("count", t, groupDepth)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(ancestors))
	for _, k := range t.Keys() {
		if !k.HasAbsent() {
			counts[k[:groupDepth].String()]++
		}
	}
	b := frame.NewBuilder(groupDepth, frame.Columns(out))
	for _, a := range ancestors {
		b.Add(a, frame.Row{out: frame.Int(counts[a.String()])})
	}
	return b.Build()
}

// First collapses t to groupDepth by keeping the cells of the first row, in
// key order, under each ancestor. The input may be ragged.
func First(t *frame.Table, groupDepth int) (*frame.Table, error) {
	return collapse("first", t, groupDepth, false)
}

// Unique collapses t to groupDepth like First but requires at most one row
// per ancestor, failing with *frame.CardinalityError otherwise.
func Unique(t *frame.Table, groupDepth int) (*frame.Table, error) {
	return collapse("unique", t, groupDepth, true)
}

func collapse(op string, t *frame.Table, depth int, strict bool) (*frame.Table, error) {
	if _, err := ancestorsOf(op, t, depth); err != nil {
		return nil, err
	}
	b := frame.NewBuilder(depth, frame.Columns(t.Columns()...))
	var last hkey.Key
	seen := 0
	for i := 0; i < t.Len(); i++ {
		k := t.Key(i)
		p := k[:depth]
		if p.HasAbsent() {
			continue
		}
		if last != nil && last.Equal(p) {
			seen++
			if strict {
				return nil, &frame.CardinalityError{Cardinality: frame.OneToOne, Side: "right", Prefix: hkey.New(p...), Count: seen}
			}
			continue
		}
		last, seen = p, 1
		b.Add(p, t.Row(i))
	}
	return b.Build()
}
