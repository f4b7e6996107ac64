package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/hkey"
)

var (
	nuE      = frame.Col("nu", "E")
	dauE     = frame.Col("dau", "E")
	passCut  = frame.Col("pass", "")
	hasMatch = frame.Col("has_match", "")
	nPass    = frame.Col("npass", "")
	primPDG  = frame.Col("prim", "pdg")
	notMuon  = frame.Col("not_mu", "")
)

type dau struct {
	key hkey.Key
	e   float64
}

func daughterTable(t *testing.T, rows ...dau) *frame.Table {
	t.Helper()
	b := frame.NewBuilder(hkey.Daughter)
	for _, r := range rows {
		b.Add(r.key, frame.Row{dauE: frame.Float(r.e)})
	}
	tbl, err := b.Build()
	require.NoError(t, err)
	return tbl
}

func interactionTable(t *testing.T, keys ...hkey.Key) *frame.Table {
	t.Helper()
	b := frame.NewBuilder(hkey.Interaction)
	for _, k := range keys {
		b.Add(k, frame.Row{nuE: frame.Float(1)})
	}
	tbl, err := b.Build()
	require.NoError(t, err)
	return tbl
}

func boolColumn(t *testing.T, tbl *frame.Table, ref frame.ColumnRef) []bool {
	t.Helper()
	out := make([]bool, tbl.Len())
	for i := range out {
		v, ok := tbl.Bool(i, ref)
		require.True(t, ok, "row %s: %s is not a bool", tbl.Key(i), ref)
		out[i] = v
	}
	return out
}

func intColumn(t *testing.T, tbl *frame.Table, ref frame.ColumnRef) []int64 {
	t.Helper()
	out := make([]int64, tbl.Len())
	for i := range out {
		v, ok := tbl.Int(i, ref)
		require.True(t, ok, "row %s: %s is not an int", tbl.Key(i), ref)
		out[i] = v
	}
	return out
}

// notMuonMerge left-outer merges interactions (0,0) and (0,1) with a single
// muon primary under (0,0), then derives not_mu = !(prim.pdg == 13). The
// padding row of (0,1) has a Null pdg, so not_mu is true there.
func notMuonMerge(t *testing.T) *frame.Table {
	t.Helper()
	prims := frame.NewBuilder(hkey.Primary)
	prims.Add(hkey.New(0, 0, 0), frame.Row{primPDG: frame.Int(13)})
	pt, err := prims.Build()
	require.NoError(t, err)

	merged, err := frame.Merge(interactionTable(t, hkey.New(0, 0), hkey.New(0, 1)), pt, hkey.Interaction, frame.LeftOuter)
	require.NoError(t, err)
	require.Equal(t, []hkey.Key{{0, 0, 0}, {0, 1, hkey.Absent}}, merged.Keys())

	merged, err = merged.Map(notMuon, func(i int) frame.Value {
		pdg, ok := merged.Int(i, primPDG)
		return frame.Bool(!(ok && pdg == 13))
	})
	require.NoError(t, err)
	return merged
}
