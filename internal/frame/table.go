package frame

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/roach88/hierframe/internal/hkey"
)

// Table is an entity table: rows addressed by a hierarchical key, columns
// addressed by (record group, field).
//
// INVARIANTS:
//   - every key has exactly Depth() components
//   - rows are sorted by hkey.Compare (stable for ragged duplicates)
//   - keys are unique unless the table was built Ragged
//   - every column has Len() cells; missing cells hold Null
//
// Tables are immutable. Every transformation returns a new table; column
// slices are shared between tables and never written after construction.
type Table struct {
	depth  int
	ragged bool
	keys   []hkey.Key
	refs   []ColumnRef // sorted by compareRefs
	cols   map[ColumnRef][]Value
}

// Row is one row's cells keyed by column. Used for building and inspection.
type Row map[ColumnRef]Value

// Empty returns a table of the given depth with no rows and no columns.
func Empty(depth int) *Table {
	return &Table{depth: depth, cols: map[ColumnRef][]Value{}}
}

// Depth returns the number of key components per row.
func (t *Table) Depth() int { return t.depth }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.keys) }

// Ragged reports whether duplicate keys are allowed.
func (t *Table) Ragged() bool { return t.ragged }

// Key returns the key of row i.
func (t *Table) Key(i int) hkey.Key { return t.keys[i] }

// Keys returns a copy of all row keys in row order.
func (t *Table) Keys() []hkey.Key {
	return slices.Clone(t.keys)
}

// Columns returns the column references in canonical order.
func (t *Table) Columns() []ColumnRef {
	return slices.Clone(t.refs)
}

// Groups returns the distinct record groups, sorted.
func (t *Table) Groups() []string {
	var groups []string
	for _, r := range t.refs {
		if len(groups) == 0 || groups[len(groups)-1] != r.Group {
			groups = append(groups, r.Group)
		}
	}
	return groups
}

// Has reports whether the table has the column.
func (t *Table) Has(ref ColumnRef) bool {
	_, ok := t.cols[ref]
	return ok
}

// Column returns a copy of a column's cells.
func (t *Table) Column(ref ColumnRef) ([]Value, bool) {
	c, ok := t.cols[ref]
	if !ok {
		return nil, false
	}
	return slices.Clone(c), true
}

// Value returns the cell at row i. Unknown columns read as Null.
func (t *Table) Value(i int, ref ColumnRef) Value {
	c, ok := t.cols[ref]
	if !ok {
		return Null{}
	}
	return c[i]
}

// Float returns the numeric value of a cell; ok is false for Null or
// non-numeric cells.
func (t *Table) Float(i int, ref ColumnRef) (float64, bool) {
	return AsFloat(t.Value(i, ref))
}

// Int returns an Int cell.
func (t *Table) Int(i int, ref ColumnRef) (int64, bool) {
	v, ok := t.Value(i, ref).(Int)
	return int64(v), ok
}

// Bool returns a Bool cell.
func (t *Table) Bool(i int, ref ColumnRef) (bool, bool) {
	v, ok := t.Value(i, ref).(Bool)
	return bool(v), ok
}

// Str returns a String cell.
func (t *Table) Str(i int, ref ColumnRef) (string, bool) {
	v, ok := t.Value(i, ref).(String)
	return string(v), ok
}

// Row returns the cells of row i.
func (t *Table) Row(i int) Row {
	row := make(Row, len(t.refs))
	for _, r := range t.refs {
		row[r] = t.cols[r][i]
	}
	return row
}

// Prefixes returns the distinct key prefixes at depth, sorted.
func (t *Table) Prefixes(depth int) ([]hkey.Key, error) {
	if depth < 1 || depth > t.depth {
		return nil, &hkey.DepthError{Op: "prefixes", Depth: t.depth, Requested: depth}
	}
	var out []hkey.Key
	for _, k := range t.keys {
		p := k[:depth]
		// Rows are sorted, so equal prefixes are adjacent.
		if len(out) > 0 && out[len(out)-1].Equal(p) {
			continue
		}
		out = append(out, hkey.New(p...))
	}
	return out, nil
}

// WithColumn returns a table with one more column. Derived columns are
// additive: writing over an existing column is a *ColumnCollisionError.
func (t *Table) WithColumn(ref ColumnRef, values []Value) (*Table, error) {
	if t.Has(ref) {
		return nil, &ColumnCollisionError{Op: "with_column", Column: &ref}
	}
	if len(values) != t.Len() {
		return nil, fmt.Errorf("with_column %s: %d values for %d rows", ref, len(values), t.Len())
	}
	cols := maps.Clone(t.cols)
	cols[ref] = slices.Clone(values)
	return t.derive(t.keys, cols), nil
}

// Map returns a table with a column computed row by row.
func (t *Table) Map(ref ColumnRef, fn func(i int) Value) (*Table, error) {
	values := make([]Value, t.Len())
	for i := range values {
		v := fn(i)
		if v == nil {
			v = Null{}
		}
		values[i] = v
	}
	return t.WithColumn(ref, values)
}

// RenameGroup moves every column of record group from to group to.
// Fails with *ColumnCollisionError if group to already exists.
func (t *Table) RenameGroup(from, to string) (*Table, error) {
	if from == to {
		return t, nil
	}
	if slices.Contains(t.Groups(), to) {
		return nil, &ColumnCollisionError{Op: "rename_group", Groups: []string{to}}
	}
	cols := make(map[ColumnRef][]Value, len(t.cols))
	for r, c := range t.cols {
		if r.Group == from {
			r.Group = to
		}
		cols[r] = c
	}
	return t.derive(t.keys, cols), nil
}

// RenameColumn moves a single column. Fails if from is missing or to exists.
func (t *Table) RenameColumn(from, to ColumnRef) (*Table, error) {
	c, ok := t.cols[from]
	if !ok {
		return nil, fmt.Errorf("rename_column: unknown column %s", from)
	}
	if t.Has(to) {
		return nil, &ColumnCollisionError{Op: "rename_column", Column: &to}
	}
	cols := maps.Clone(t.cols)
	delete(cols, from)
	cols[to] = c
	return t.derive(t.keys, cols), nil
}

// Select keeps only the given columns.
func (t *Table) Select(refs ...ColumnRef) (*Table, error) {
	cols := make(map[ColumnRef][]Value, len(refs))
	for _, r := range refs {
		c, ok := t.cols[r]
		if !ok {
			return nil, fmt.Errorf("select: unknown column %s", r)
		}
		cols[r] = c
	}
	return t.derive(t.keys, cols), nil
}

// Drop removes columns; unknown columns are ignored.
func (t *Table) Drop(refs ...ColumnRef) *Table {
	cols := maps.Clone(t.cols)
	for _, r := range refs {
		delete(cols, r)
	}
	return t.derive(t.keys, cols)
}

// DropGroup removes every column of a record group.
func (t *Table) DropGroup(group string) *Table {
	cols := maps.Clone(t.cols)
	maps.DeleteFunc(cols, func(r ColumnRef, _ []Value) bool { return r.Group == group })
	return t.derive(t.keys, cols)
}

// Filter keeps the rows whose mask entry is true. Row order is preserved.
func (t *Table) Filter(mask []bool) (*Table, error) {
	if len(mask) != t.Len() {
		return nil, fmt.Errorf("filter: mask of %d for %d rows", len(mask), t.Len())
	}
	var keep []int
	for i, m := range mask {
		if m {
			keep = append(keep, i)
		}
	}
	return t.take(keep), nil
}

// take builds a table from the given rows, in the given order.
func (t *Table) take(rows []int) *Table {
	keys := make([]hkey.Key, len(rows))
	for i, r := range rows {
		keys[i] = t.keys[r]
	}
	cols := make(map[ColumnRef][]Value, len(t.cols))
	for ref, c := range t.cols {
		nc := make([]Value, len(rows))
		for i, r := range rows {
			nc[i] = c[r]
		}
		cols[ref] = nc
	}
	return t.derive(keys, cols)
}

// derive builds a sibling table with the same depth and ragged flag.
func (t *Table) derive(keys []hkey.Key, cols map[ColumnRef][]Value) *Table {
	return &Table{
		depth:  t.depth,
		ragged: t.ragged,
		keys:   keys,
		refs:   sortedRefs(cols),
		cols:   cols,
	}
}

func sortedRefs(cols map[ColumnRef][]Value) []ColumnRef {
	refs := slices.Collect(maps.Keys(cols))
	slices.SortFunc(refs, compareRefs)
	return refs
}

// assemble sorts rows by key and validates depth and uniqueness. It is the
// single construction path for tables built from unsorted rows.
func assemble(op string, depth int, ragged bool, keys []hkey.Key, cols map[ColumnRef][]Value) (*Table, error) {
	for _, k := range keys {
		if k.Depth() != depth {
			return nil, &hkey.DepthError{Op: op, Depth: depth, Requested: k.Depth()}
		}
	}

	perm := make([]int, len(keys))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		return hkey.Compare(keys[perm[a]], keys[perm[b]]) < 0
	})

	sortedKeys := make([]hkey.Key, len(keys))
	for i, p := range perm {
		sortedKeys[i] = keys[p]
		if !ragged && i > 0 && sortedKeys[i-1].Equal(sortedKeys[i]) {
			return nil, &KeyCollisionError{Op: op, Key: sortedKeys[i]}
		}
	}

	sortedCols := make(map[ColumnRef][]Value, len(cols))
	for ref, c := range cols {
		nc := make([]Value, len(perm))
		for i, p := range perm {
			v := c[p]
			if v == nil {
				v = Null{}
			}
			nc[i] = v
		}
		sortedCols[ref] = nc
	}

	return &Table{
		depth:  depth,
		ragged: ragged,
		keys:   sortedKeys,
		refs:   sortedRefs(sortedCols),
		cols:   sortedCols,
	}, nil
}
