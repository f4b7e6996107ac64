package frame

import (
	"github.com/roach88/hierframe/internal/hkey"
)

// BuildOption configures a Builder.
type BuildOption func(*Builder)

// Ragged allows duplicate keys. Used for raw child records that are
// aggregated before they are joined anywhere.
func Ragged() BuildOption {
	return func(b *Builder) {
		b.ragged = true
	}
}

// Columns declares columns the table has even when no row sets them, so an
// empty table still carries its schema.
func Columns(refs ...ColumnRef) BuildOption {
	return func(b *Builder) {
		b.declared = append(b.declared, refs...)
	}
}

// Builder accumulates rows for a table of a fixed depth.
//
// Rows may be added in any order; Build sorts them by key and validates the
// table invariants. Columns missing from a row read as Null.
type Builder struct {
	depth    int
	ragged   bool
	declared []ColumnRef
	keys     []hkey.Key
	rows     []Row
}

// NewBuilder creates a builder for a table of the given depth.
func NewBuilder(depth int, opts ...BuildOption) *Builder {
	b := &Builder{depth: depth}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add appends a row. The key is copied; the row map is not retained.
func (b *Builder) Add(k hkey.Key, row Row) *Builder {
	copied := make(Row, len(row))
	for r, v := range row {
		copied[r] = v
	}
	b.keys = append(b.keys, hkey.New(k...))
	b.rows = append(b.rows, copied)
	return b
}

// Len returns the number of rows added so far.
func (b *Builder) Len() int {
	return len(b.rows)
}

// Build validates and returns the table.
//
// Fails with *hkey.DepthError if a key has the wrong number of components and
// with *KeyCollisionError on a duplicate key (unless Ragged).
func (b *Builder) Build() (*Table, error) {
	if b.depth < 1 {
		return nil, &hkey.DepthError{Op: "build", Depth: b.depth, Requested: b.depth}
	}

	cols := make(map[ColumnRef][]Value)
	for _, r := range b.declared {
		cols[r] = make([]Value, len(b.rows))
	}
	for _, row := range b.rows {
		for r := range row {
			if _, ok := cols[r]; !ok {
				cols[r] = make([]Value, len(b.rows))
			}
		}
	}
	for i, row := range b.rows {
		for r, c := range cols {
			v, ok := row[r]
			if !ok || v == nil {
				v = Null{}
			}
			c[i] = v
		}
	}

	return assemble("build", b.depth, b.ragged, b.keys, cols)
}
