package study

import (
	"context"

	"github.com/roach88/hierframe/internal/classify"
	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/source"
)

var sliceFields = []string{"vertex.x", "vertex.y", "vertex.z", "is_clear_cosmic", "nu_score"}

var (
	colSliceFV     = frame.Col("slc_in_fv", "")
	colClearCosmic = frame.Col(source.GroupSlice, "is_clear_cosmic")
)

// buildReco produces the reconstructed-slice table shared by both studies:
// the slices whose vertex lies in the fiducial volume and which are not
// tagged as a clear cosmic. A slice with a Null vertex or cosmic tag is
// dropped.
func buildReco(ctx context.Context, cfg Config, src source.Source) (*frame.Table, error) {
	slc, err := src.Load(source.GroupSlice, sliceFields)
	if err != nil {
		return nil, err
	}
	return pipeline(ctx, slc,
		func(t *frame.Table) (*frame.Table, error) {
			return cfg.Fiducial.Apply(t, source.GroupSlice, "vertex", colSliceFV)
		},
		func(t *frame.Table) (*frame.Table, error) {
			return classify.Mask(t, classify.AllOf(
				classify.Col{Ref: colSliceFV},
				classify.Equals{Ref: colClearCosmic, Value: frame.Int(0)},
			))
		},
		func(t *frame.Table) (*frame.Table, error) {
			return t.Drop(colSliceFV), nil
		},
	)
}
