package study

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/hierframe/internal/aggregate"
	"github.com/roach88/hierframe/internal/classify"
	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/source"
)

type buildFunc func(ctx context.Context, cfg Config, src source.Source) (*frame.Table, error)

type builder struct {
	build      buildFunc
	classifies bool
	signals    func() []classify.Signal
	trueType   func() *classify.TrueType
}

var builders = map[string]builder{
	KindAntinu:     {build: buildAntinu, classifies: true, signals: AntinuSignals, trueType: AntinuTrueType},
	KindAntinuLite: {build: buildAntinuLite},
	KindKaon:       {build: buildKaon, classifies: true, signals: KaonSignals, trueType: KaonTrueType},
	KindHeader:     {build: buildHeader},
	KindReco:       {build: buildReco},
}

func lookup(kind string) (builder, error) {
	b, ok := builders[kind]
	if !ok {
		return builder{}, fmt.Errorf("unknown builder %q: must be one of %s", kind, strings.Join(Kinds(), ", "))
	}
	return b, nil
}

// Build produces the table for one output from one batch of input.
//
// Classifying builders finish with the output's signals (or the builder's
// defaults) followed by its true-type classification.
func (c Config) Build(ctx context.Context, out Output, src source.Source) (*frame.Table, error) {
	b, err := lookup(out.Builder)
	if err != nil {
		return nil, err
	}
	t, err := b.build(ctx, c, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", out.Builder, err)
	}
	if !b.classifies {
		return t, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	signals := out.Signals
	if signals == nil {
		signals = b.signals()
	}
	t, err = classify.ApplySignals(t, signals...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", out.Builder, err)
	}
	tt := out.TrueType
	if tt == nil {
		tt = b.trueType()
	}
	t, err = tt.Classify(t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", out.Builder, err)
	}
	if !c.TruthColumns {
		t = t.Drop(truthColumns...)
	}
	return t, nil
}

// attachAt joins flags computed at an ancestor depth onto target.
//
// Equal depths use aggregate.Attach. Shallower flags are broadcast: each
// target row reads the flag row of its ancestor, or fill when there is none.
func attachAt(target, flags *frame.Table, fill frame.Value) (*frame.Table, error) {
	if flags.Depth() == target.Depth() {
		return aggregate.Attach(target, flags, fill)
	}
	if flags.Depth() > target.Depth() {
		return nil, fmt.Errorf("attach: flags at depth %d are deeper than target depth %d", flags.Depth(), target.Depth())
	}
	d := flags.Depth()
	index := make(map[string]int, flags.Len())
	for i, k := range flags.Keys() {
		index[k.String()] = i
	}
	out := target
	for _, ref := range flags.Columns() {
		next, err := out.Map(ref, func(i int) frame.Value {
			r, ok := index[target.Key(i)[:d].String()]
			if !ok {
				return fill
			}
			return flags.Value(r, ref)
		})
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// pipeline runs steps in order, stopping at the first error or when ctx
// is done.
func pipeline(ctx context.Context, t *frame.Table, steps ...func(*frame.Table) (*frame.Table, error)) (*frame.Table, error) {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := step(t)
		if err != nil {
			return nil, err
		}
		t = next
	}
	return t, nil
}
