package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hierframe/internal/hkey"
)

func TestBuilder_SortsRowsByKey(t *testing.T) {
	tbl := interactions(t, hkey.New(2, 0), hkey.New(0, 1), hkey.New(0, 0))

	assert.Equal(t, []hkey.Key{{0, 0}, {0, 1}, {2, 0}}, tbl.Keys())
	// Cells follow their keys through the sort.
	v, ok := tbl.Float(2, nuE)
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestBuilder_FillsMissingCellsWithNull(t *testing.T) {
	b := NewBuilder(1)
	b.Add(hkey.New(0), Row{Col("a", "x"): Int(1)})
	b.Add(hkey.New(1), Row{Col("b", "y"): Bool(true)})
	tbl := build(t, b)

	assert.True(t, IsNull(tbl.Value(0, Col("b", "y"))))
	assert.True(t, IsNull(tbl.Value(1, Col("a", "x"))))
	assert.Equal(t, []string{"a", "b"}, tbl.Groups())
}

func TestBuilder_RejectsWrongDepth(t *testing.T) {
	b := NewBuilder(2)
	b.Add(hkey.New(0, 1), nil)
	b.Add(hkey.New(0, 1, 2), nil)

	_, err := b.Build()
	require.Error(t, err)
	assert.True(t, hkey.IsDepthError(err))
}

func TestBuilder_RejectsDuplicateKeys(t *testing.T) {
	b := NewBuilder(2)
	b.Add(hkey.New(0, 1), nil)
	b.Add(hkey.New(0, 1), nil)

	_, err := b.Build()
	require.Error(t, err)
	assert.True(t, IsKeyCollisionError(err))
	assert.Equal(t, ErrCodeKeyCollision, ErrorCode(err))
}

func TestBuilder_RaggedAllowsDuplicates(t *testing.T) {
	b := NewBuilder(2, Ragged())
	b.Add(hkey.New(0, 1), Row{nuE: Float(1)})
	b.Add(hkey.New(0, 1), Row{nuE: Float(2)})
	b.Add(hkey.New(0, 0), Row{nuE: Float(3)})

	tbl := build(t, b)
	assert.True(t, tbl.Ragged())
	assert.Equal(t, 3, tbl.Len())

	// Stable sort keeps insertion order among duplicates.
	v, _ := tbl.Float(1, nuE)
	assert.Equal(t, 1.0, v)
	v, _ = tbl.Float(2, nuE)
	assert.Equal(t, 2.0, v)
}

func TestWithColumn_IsAdditive(t *testing.T) {
	tbl := interactions(t, hkey.New(0, 0), hkey.New(0, 1))

	out, err := tbl.WithColumn(Col("flag", ""), []Value{Bool(true), Bool(false)})
	require.NoError(t, err)
	assert.True(t, out.Has(Col("flag", "")))
	assert.False(t, tbl.Has(Col("flag", "")), "input table unchanged")

	_, err = out.WithColumn(Col("flag", ""), []Value{Bool(true), Bool(false)})
	assert.True(t, IsColumnCollisionError(err))

	_, err = tbl.WithColumn(Col("short", ""), []Value{Bool(true)})
	assert.Error(t, err)
}

func TestMap(t *testing.T) {
	tbl := interactions(t, hkey.New(0, 0), hkey.New(0, 1))

	out, err := tbl.Map(Col("double", ""), func(i int) Value {
		e, _ := tbl.Float(i, nuE)
		return Float(2 * e)
	})
	require.NoError(t, err)

	v, _ := out.Float(1, Col("double", ""))
	assert.Equal(t, 4.0, v)
}

func TestRenameGroup(t *testing.T) {
	b := NewBuilder(1)
	b.Add(hkey.New(0), Row{Col("nu", "pdg"): Int(-14), Col("nu", "E"): Float(1)})
	tbl := build(t, b)

	out, err := tbl.RenameGroup("nu", "mcnu")
	require.NoError(t, err)
	assert.Equal(t, []string{"mcnu"}, out.Groups())
	pdg, _ := out.Int(0, Col("mcnu", "pdg"))
	assert.Equal(t, int64(-14), pdg)

	b2 := NewBuilder(1)
	b2.Add(hkey.New(0), Row{Col("a", ""): Int(1), Col("b", ""): Int(2)})
	_, err = build(t, b2).RenameGroup("a", "b")
	assert.True(t, IsColumnCollisionError(err))
}

func TestRenameColumn(t *testing.T) {
	b := NewBuilder(1)
	b.Add(hkey.New(0), Row{Col("nu", "pdg"): Int(-14)})
	tbl := build(t, b)

	out, err := tbl.RenameColumn(Col("nu", "pdg"), Col("nu_pdg", ""))
	require.NoError(t, err)
	assert.Equal(t, []ColumnRef{{Group: "nu_pdg"}}, out.Columns())

	_, err = tbl.RenameColumn(Col("nu", "missing"), Col("x", ""))
	assert.Error(t, err)
}

func TestFilterSelectDrop(t *testing.T) {
	b := NewBuilder(1)
	for i := int64(0); i < 4; i++ {
		b.Add(hkey.New(i), Row{Col("a", ""): Int(i), Col("b", ""): Int(10 * i)})
	}
	tbl := build(t, b)

	f, err := tbl.Filter([]bool{true, false, true, false})
	require.NoError(t, err)
	assert.Equal(t, []hkey.Key{{0}, {2}}, f.Keys())
	v, _ := f.Int(1, Col("b", ""))
	assert.Equal(t, int64(20), v)

	_, err = tbl.Filter([]bool{true})
	assert.Error(t, err)

	s, err := tbl.Select(Col("a", ""))
	require.NoError(t, err)
	assert.Equal(t, []ColumnRef{{Group: "a"}}, s.Columns())
	_, err = tbl.Select(Col("zzz", ""))
	assert.Error(t, err)

	d := tbl.Drop(Col("a", ""), Col("unknown", ""))
	assert.Equal(t, []ColumnRef{{Group: "b"}}, d.Columns())
	assert.Empty(t, tbl.DropGroup("a").DropGroup("b").Columns())
}

func TestPrefixes(t *testing.T) {
	tbl := daughters(t,
		hkey.New(0, 0, 1, 5),
		hkey.New(0, 0, 1, 6),
		hkey.New(0, 1, 2, 5),
		hkey.New(1, 0, 0, 0),
	)

	p, err := tbl.Prefixes(2)
	require.NoError(t, err)
	assert.Equal(t, []hkey.Key{{0, 0}, {0, 1}, {1, 0}}, p)

	_, err = tbl.Prefixes(5)
	assert.True(t, hkey.IsDepthError(err))
}

func TestRef(t *testing.T) {
	r, err := Ref("nu.position.x")
	require.NoError(t, err)
	assert.Equal(t, ColumnRef{Group: "nu", Field: "position.x"}, r)
	assert.Equal(t, "nu.position.x", r.String())

	r, err = Ref("nmuplus")
	require.NoError(t, err)
	assert.Equal(t, ColumnRef{Group: "nmuplus"}, r)

	_, err = Ref("")
	assert.Error(t, err)
	_, err = Ref(".x")
	assert.Error(t, err)
}

func TestBuilder_DeclaredColumnsOnEmptyTable(t *testing.T) {
	tbl := build(t, NewBuilder(2, Columns(nuE)))
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, []ColumnRef{nuE}, tbl.Columns())

	b := NewBuilder(1, Columns(nuE))
	b.Add(hkey.New(0), Row{Col("x", ""): Int(1)})
	tbl = build(t, b)
	assert.True(t, IsNull(tbl.Value(0, nuE)), "declared column reads Null where no row sets it")
}
