package harness

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/store"
)

// Snapshot renders the tables selected by golden, in name order, followed by
// the failed batches:
//
//	# antinu_basic
//
//	== kmc_0 depth=2 rows=5
//	key	nmuplus	true_type
//	(0, 0)	1	SIGNAL
//
//	!! batch 0 output kaon: CARDINALITY_ERROR
func Snapshot(ctx context.Context, st *store.Store, name string, result *Result, golden map[string][]string) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", name)

	names := make([]string, 0, len(golden))
	for n := range golden {
		names = append(names, n)
	}
	slices.Sort(names)

	for _, n := range names {
		t, meta, err := st.ReadTable(ctx, n)
		if err != nil {
			return nil, err
		}
		refs := make([]frame.ColumnRef, 0, len(golden[n]))
		for _, c := range golden[n] {
			ref, err := frame.Ref(c)
			if err != nil {
				return nil, fmt.Errorf("golden %s: %w", n, err)
			}
			refs = append(refs, ref)
		}
		fmt.Fprintf(&buf, "\n== %s depth=%d rows=%d\n", meta.Name, meta.Depth, meta.RowCount)
		if err := frame.WriteTSV(&buf, t, refs...); err != nil {
			return nil, fmt.Errorf("golden %s: %w", n, err)
		}
	}

	for _, f := range result.Failures {
		fmt.Fprintf(&buf, "\n!! batch %d output %s: %s\n", f.Seq, f.Output, f.Code)
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	result, err := run(ctx, st, scenario)
	if err != nil {
		return nil, err
	}

	snap, err := Snapshot(ctx, st, scenario.Name, result, scenario.Golden)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snap)
	return result, nil
}
