package aggregate

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/hkey"
)

func TestLiftAny_ExistsOverCompleteAncestorSet(t *testing.T) {
	daus := daughterTable(t,
		dau{hkey.New(0, 0, 1, 40), 0.6},
		dau{hkey.New(0, 0, 1, 41), 0.1},
		dau{hkey.New(0, 1, 3, 7), 0.2},
		dau{hkey.New(2, 0, 0, 9), 0.9},
	)
	daus, err := Threshold{Cut: 0.5}.Apply(daus, dauE, 0, passCut)
	require.NoError(t, err)

	lifted, err := LiftAny(daus, passCut, hkey.Interaction, hasMatch)
	require.NoError(t, err)

	assert.Equal(t, []hkey.Key{{0, 0}, {0, 1}, {2, 0}}, lifted.Keys())
	assert.Equal(t, []bool{true, false, true}, boolColumn(t, lifted, hasMatch))
	assert.Equal(t, []frame.ColumnRef{hasMatch}, lifted.Columns())
}

func TestLiftAny_NullNeverMatches(t *testing.T) {
	b := frame.NewBuilder(3)
	b.Add(hkey.New(0, 0, 1), frame.Row{passCut: frame.Null{}})
	b.Add(hkey.New(0, 1, 1), frame.Row{passCut: frame.Bool(false)})
	b.Add(hkey.New(0, 1, 2), frame.Row{passCut: frame.Bool(true)})
	tbl, err := b.Build()
	require.NoError(t, err)

	lifted, err := LiftAny(tbl, passCut, 2, hasMatch)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, boolColumn(t, lifted, hasMatch))
}

func TestLiftAny_SkipsAbsentPadding(t *testing.T) {
	// Interaction (0,1) has no primaries: the outer merge pads its key.
	prims := frame.NewBuilder(3)
	prims.Add(hkey.New(0, 0, 1), frame.Row{passCut: frame.Bool(true)})
	pt, err := prims.Build()
	require.NoError(t, err)

	merged, err := frame.Merge(interactionTable(t, hkey.New(0, 0), hkey.New(0, 1)), pt, 2, frame.LeftOuter)
	require.NoError(t, err)

	toInteraction, err := LiftAny(merged, passCut, 2, hasMatch)
	require.NoError(t, err)
	assert.Equal(t, []hkey.Key{{0, 0}, {0, 1}}, toInteraction.Keys())
	assert.Equal(t, []bool{true, false}, boolColumn(t, toInteraction, hasMatch))

	toPrimary, err := LiftAny(merged, passCut, 3, hasMatch)
	require.NoError(t, err)
	assert.Equal(t, []hkey.Key{{0, 0, 1}}, toPrimary.Keys(), "padding is not an ancestor")
}

func TestLiftAny_Errors(t *testing.T) {
	daus := daughterTable(t, dau{hkey.New(0, 0, 1, 1), 1})

	_, err := LiftAny(daus, passCut, 2, hasMatch)
	assert.Error(t, err, "unknown predicate column")

	_, err = LiftAny(daus, dauE, 2, hasMatch)
	assert.ErrorContains(t, err, "want bool")

	withPass, err := Threshold{}.Apply(daus, dauE, 0, passCut)
	require.NoError(t, err)
	for _, d := range []int{0, 5} {
		_, err = LiftAny(withPass, passCut, d, hasMatch)
		assert.True(t, hkey.IsDepthError(err), "depth %d", d)
	}
}

func TestLiftAny_PaddingNeverMatchesNegatedPredicate(t *testing.T) {
	merged := notMuonMerge(t)

	lifted, err := LiftAny(merged, notMuon, hkey.Interaction, hasMatch)
	require.NoError(t, err)
	assert.Equal(t, []hkey.Key{{0, 0}, {0, 1}}, lifted.Keys())
	assert.Equal(t, []bool{false, false}, boolColumn(t, lifted, hasMatch),
		"an interaction without primaries has nothing to lift")
}

func TestLiftAny_PaddedDescendantStillCounts(t *testing.T) {
	// Primary (0,0,1) has no daughters: its padded row is still a primary
	// under interaction (0,0).
	daus := frame.NewBuilder(4)
	daus.Add(hkey.New(0, 0, 2, 40), frame.Row{dauE: frame.Float(0.1)})
	dt, err := daus.Build()
	require.NoError(t, err)

	prims := frame.NewBuilder(3)
	prims.Add(hkey.New(0, 0, 1), frame.Row{passCut: frame.Bool(true)})
	prims.Add(hkey.New(0, 0, 2), frame.Row{passCut: frame.Bool(false)})
	pt, err := prims.Build()
	require.NoError(t, err)

	merged, err := frame.Merge(pt, dt, hkey.Primary, frame.LeftOuter)
	require.NoError(t, err)
	require.Equal(t, []hkey.Key{{0, 0, 1, hkey.Absent}, {0, 0, 2, 40}}, merged.Keys())

	lifted, err := LiftAny(merged, passCut, hkey.Interaction, hasMatch)
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, boolColumn(t, lifted, hasMatch))

	counts, err := CountMatching(merged, hkey.Interaction, passCut, nPass)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, intColumn(t, counts, nPass))
}

func TestAttach_FillsAncestorsWithoutDescendants(t *testing.T) {
	target := interactionTable(t, hkey.New(0, 0), hkey.New(0, 1), hkey.New(1, 0))
	daus := daughterTable(t, dau{hkey.New(0, 1, 2, 3), 1.0})
	daus, err := Threshold{}.Apply(daus, dauE, 0, passCut)
	require.NoError(t, err)

	lifted, err := LiftAny(daus, passCut, 2, hasMatch)
	require.NoError(t, err)

	out, err := Attach(target, lifted, frame.Bool(false))
	require.NoError(t, err)
	assert.Equal(t, target.Keys(), out.Keys(), "no row lost, none invented")
	assert.Equal(t, []bool{false, true, false}, boolColumn(t, out, hasMatch))

	_, err = Attach(target, daus, frame.Bool(false))
	assert.True(t, hkey.IsDepthError(err))

	_, err = Attach(out, lifted, frame.Bool(false))
	assert.True(t, frame.IsColumnCollisionError(err), "attaching twice collides")
}

// Randomised check of the key-set property: for any table, the lifted key
// set equals the distinct ancestor prefixes and false marks "no match".
func TestLiftAny_KeySetProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for iter := 0; iter < 50; iter++ {
		b := frame.NewBuilder(hkey.Daughter)
		want := map[string]bool{}
		seen := hkey.NewSet()
		n := rng.IntN(30)
		for i := 0; i < n; i++ {
			k := hkey.New(rng.Int64N(3), rng.Int64N(3), rng.Int64N(3), int64(i))
			v := rng.IntN(3) == 0
			b.Add(k, frame.Row{passCut: frame.Bool(v)})
			anc := hkey.New(k[:2]...)
			seen.Add(anc)
			want[anc.String()] = want[anc.String()] || v
		}
		tbl, err := b.Build()
		require.NoError(t, err)

		lifted, err := LiftAny(tbl, passCut, 2, hasMatch)
		require.NoError(t, err)
		require.Equal(t, seen.Sorted(), lifted.Keys())
		for i := 0; i < lifted.Len(); i++ {
			v, ok := lifted.Bool(i, hasMatch)
			require.True(t, ok, "never missing")
			assert.Equal(t, want[lifted.Key(i).String()], v)
		}
	}
}
