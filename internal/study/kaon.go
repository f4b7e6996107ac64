package study

import (
	"context"

	"github.com/roach88/hierframe/internal/aggregate"
	"github.com/roach88/hierframe/internal/classify"
	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/hkey"
	"github.com/roach88/hierframe/internal/physics"
	"github.com/roach88/hierframe/internal/source"
)

// kaonKind is one kaon species the kaon study tracks. Its columns are
// n<Name> (count above the cut), <Name>.* (the kaon primary) and
// n<Name>_daughters.
type kaonKind struct {
	Name     string
	Particle string
}

var kaonKinds = []kaonKind{
	{Name: "kplus", Particle: physics.KaonPlus},
	{Name: "kzero", Particle: physics.KaonZero},
}

func (k kaonKind) count() frame.ColumnRef     { return frame.Col("n"+k.Name, "") }
func (k kaonKind) daughters() frame.ColumnRef { return frame.Col("n"+k.Name+"_daughters", "") }

// buildKaon produces the interaction table of the kaon study.
func buildKaon(ctx context.Context, cfg Config, src source.Source) (*frame.Table, error) {
	nu, err := loadInteractions(cfg, src)
	if err != nil {
		return nil, err
	}
	prim, err := src.Load(source.GroupPrimary, particleFields)
	if err != nil {
		return nil, err
	}
	dau, err := src.Load(source.GroupDaughter, particleFields)
	if err != nil {
		return nil, err
	}

	steps := make([]func(*frame.Table) (*frame.Table, error), len(kaonKinds))
	for i, k := range kaonKinds {
		steps[i] = func(t *frame.Table) (*frame.Table, error) {
			return kaonColumns(t, cfg, k, prim, dau)
		}
	}
	return pipeline(ctx, nu, steps...)
}

// kaonColumns adds the columns of one kaon species to nu. An interaction
// holding two primaries of the species fails with *frame.CardinalityError.
func kaonColumns(nu *frame.Table, cfg Config, k kaonKind, prim, dau *frame.Table) (*frame.Table, error) {
	p := physics.MustLookup(k.Particle)

	counts, err := countAbove(prim, cfg.Cut, p.Mass, p.PDG, k.count())
	if err != nil {
		return nil, err
	}
	out, err := aggregate.Attach(nu, counts, frame.Int(0))
	if err != nil {
		return nil, err
	}

	kp, err := classify.Mask(prim, classify.Equals{Ref: colPrimPDG, Value: frame.Int(p.PDG)})
	if err != nil {
		return nil, err
	}
	kp, err = kp.RenameGroup(source.GroupPrimary, k.Name)
	if err != nil {
		return nil, err
	}

	withDaughters, err := frame.Merge(kp, dau, hkey.Primary, frame.OneToMany)
	if err != nil {
		return nil, err
	}
	nd, err := aggregate.Count(withDaughters, hkey.Interaction, k.daughters())
	if err != nil {
		return nil, err
	}

	one, err := aggregate.Unique(kp, hkey.Interaction)
	if err != nil {
		return nil, err
	}
	if out, err = aggregate.Attach(out, one, frame.Null{}); err != nil {
		return nil, err
	}
	return aggregate.Attach(out, nd, frame.Int(0))
}
