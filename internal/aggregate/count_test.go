package aggregate

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/hkey"
)

func TestThreshold_KineticEnergy(t *testing.T) {
	b := frame.NewBuilder(3)
	b.Add(hkey.New(0, 0, 1), frame.Row{dauE: frame.Float(0.2)})
	b.Add(hkey.New(0, 0, 2), frame.Row{dauE: frame.Float(0.106)})
	b.Add(hkey.New(0, 0, 3), frame.Row{dauE: frame.Null{}})
	b.Add(hkey.New(0, 0, 4), frame.Row{dauE: frame.Int(1)})
	tbl, err := b.Build()
	require.NoError(t, err)

	const muonMass = 0.1057
	out, err := Threshold{Cut: 0.05}.Apply(tbl, dauE, muonMass, passCut)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false, true}, boolColumn(t, out, passCut))

	// Zero value is the documented default cut: strictly positive KE.
	out, err = Threshold{}.Apply(tbl, dauE, 0.2, passCut)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false, true}, boolColumn(t, out, passCut))

	_, err = Threshold{}.Apply(tbl, frame.Col("dau", "missing"), 0, passCut)
	assert.Error(t, err)
}

func TestCountMatching_ZeroNotMissing(t *testing.T) {
	b := frame.NewBuilder(3)
	b.Add(hkey.New(0, 0, 1), frame.Row{passCut: frame.Bool(true)})
	b.Add(hkey.New(0, 0, 2), frame.Row{passCut: frame.Bool(true)})
	b.Add(hkey.New(0, 1, 1), frame.Row{passCut: frame.Bool(false)})
	b.Add(hkey.New(1, 0, 5), frame.Row{passCut: frame.Null{}})
	tbl, err := b.Build()
	require.NoError(t, err)

	counts, err := CountMatching(tbl, 2, passCut, nPass)
	require.NoError(t, err)
	assert.Equal(t, []hkey.Key{{0, 0}, {0, 1}, {1, 0}}, counts.Keys())
	assert.Equal(t, []int64{2, 0, 0}, intColumn(t, counts, nPass))

	perEvent, err := CountMatching(tbl, 1, passCut, nPass)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 0}, intColumn(t, perEvent, nPass))
}

func TestCountMatching_AttachFillsZero(t *testing.T) {
	target := interactionTable(t, hkey.New(0, 0), hkey.New(0, 1))
	daus := daughterTable(t, dau{hkey.New(0, 0, 1, 40), 0.6})
	daus, err := Threshold{Cut: 0.5}.Apply(daus, dauE, 0, passCut)
	require.NoError(t, err)

	counts, err := CountMatching(daus, 2, passCut, nPass)
	require.NoError(t, err)
	out, err := Attach(target, counts, frame.Int(0))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 0}, intColumn(t, out, nPass))
}

func TestCountMatching_SumProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for iter := 0; iter < 50; iter++ {
		b := frame.NewBuilder(hkey.Primary, frame.Columns(passCut))
		manual := map[string]int64{}
		var total int64
		n := rng.IntN(40)
		for i := 0; i < n; i++ {
			k := hkey.New(rng.Int64N(4), rng.Int64N(2), int64(i))
			v := rng.IntN(2) == 0
			b.Add(k, frame.Row{passCut: frame.Bool(v)})
			if v {
				manual[hkey.New(k[:2]...).String()]++
				total++
			}
		}
		tbl, err := b.Build()
		require.NoError(t, err)

		counts, err := CountMatching(tbl, 2, passCut, nPass)
		require.NoError(t, err)

		if n == 0 {
			assert.Equal(t, 0, counts.Len(), "no rows, no ancestors")
		}
		var sum int64
		for i, c := range intColumn(t, counts, nPass) {
			require.GreaterOrEqual(t, c, int64(0))
			assert.Equal(t, manual[counts.Key(i).String()], c)
			sum += c
		}
		assert.Equal(t, total, sum)
	}
}

func TestCountMatching_PaddingIsNotADescendant(t *testing.T) {
	merged := notMuonMerge(t)

	counts, err := CountMatching(merged, hkey.Interaction, notMuon, nPass)
	require.NoError(t, err)
	assert.Equal(t, []hkey.Key{{0, 0}, {0, 1}}, counts.Keys())
	assert.Equal(t, []int64{0, 0}, intColumn(t, counts, nPass),
		"an interaction without primaries counts zero")
}

func TestCountMatching_EmptyInput(t *testing.T) {
	empty, err := frame.NewBuilder(hkey.Primary, frame.Columns(passCut)).Build()
	require.NoError(t, err)

	counts, err := CountMatching(empty, hkey.Interaction, passCut, nPass)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Len())
	assert.Equal(t, hkey.Interaction, counts.Depth())
	assert.Equal(t, []frame.ColumnRef{nPass}, counts.Columns())
}

func TestCount_SkipsPadding(t *testing.T) {
	prims := frame.NewBuilder(3)
	prims.Add(hkey.New(0, 0, 1), frame.Row{passCut: frame.Bool(true)})
	prims.Add(hkey.New(0, 0, 2), frame.Row{passCut: frame.Bool(false)})
	pt, err := prims.Build()
	require.NoError(t, err)

	merged, err := frame.Merge(interactionTable(t, hkey.New(0, 0), hkey.New(0, 1)), pt, 2, frame.LeftOuter)
	require.NoError(t, err)

	n, err := Count(merged, 2, frame.Col("nprim", ""))
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 0}, intColumn(t, n, frame.Col("nprim", "")))
}

func TestFirstAndUnique(t *testing.T) {
	b := frame.NewBuilder(3, frame.Ragged())
	b.Add(hkey.New(0, 0, 1), frame.Row{nuE: frame.Float(1)})
	b.Add(hkey.New(0, 0, 2), frame.Row{nuE: frame.Float(2)})
	b.Add(hkey.New(0, 1, 1), frame.Row{nuE: frame.Float(3)})
	tbl, err := b.Build()
	require.NoError(t, err)

	first, err := First(tbl, 2)
	require.NoError(t, err)
	assert.Equal(t, []hkey.Key{{0, 0}, {0, 1}}, first.Keys())
	e, _ := first.Float(0, nuE)
	assert.Equal(t, 1.0, e)

	_, err = Unique(tbl, 2)
	var ce *frame.CardinalityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, hkey.Key{0, 0}, ce.Prefix)

	one, err := tbl.Filter([]bool{true, false, true})
	require.NoError(t, err)
	u, err := Unique(one, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, u.Len())
}
