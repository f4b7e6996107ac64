package frame

import (
	"testing"

	"github.com/roach88/hierframe/internal/hkey"
)

var (
	nuE     = Col("nu", "E")
	primPDG = Col("prim", "pdg")
	dauE    = Col("dau", "E")
)

func build(t *testing.T, b *Builder) *Table {
	t.Helper()
	tbl, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	return tbl
}

// interactions returns a depth-2 table with one "nu.E" cell per row.
func interactions(t *testing.T, keys ...hkey.Key) *Table {
	t.Helper()
	b := NewBuilder(hkey.Interaction)
	for i, k := range keys {
		b.Add(k, Row{nuE: Float(float64(i) + 1)})
	}
	return build(t, b)
}

// primaries returns a depth-3 table with prim.pdg = 13 for every row.
func primaries(t *testing.T, keys ...hkey.Key) *Table {
	t.Helper()
	b := NewBuilder(hkey.Primary)
	for _, k := range keys {
		b.Add(k, Row{primPDG: Int(13)})
	}
	return build(t, b)
}

// daughters returns a depth-4 table with dau.E per row.
func daughters(t *testing.T, keys ...hkey.Key) *Table {
	t.Helper()
	b := NewBuilder(hkey.Daughter)
	for i, k := range keys {
		b.Add(k, Row{dauE: Float(0.1 * float64(i+1))})
	}
	return build(t, b)
}
