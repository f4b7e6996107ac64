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

// Fields read from the source per level.
var (
	interactionFields = []string{"pdg", "iscc", "E", "position.x", "position.y", "position.z"}
	particleFields    = []string{"G4ID", "pdg", "genE", "end.x", "end.y", "end.z"}
	headerFields      = []string{"run", "subrun", "evt"}
)

const groupParticle = "part"

var (
	colNuPDG            = frame.Col("nu_pdg", "")
	colTrueFV           = frame.Col("is_true_fv", "")
	colNMuPlus          = frame.Col("nmuplus", "")
	colHasDaughter      = frame.Col("has_daughter", "")
	colHasDaughterCont  = frame.Col("has_daughter_cont", "")
	colMarker           = frame.Col("is_primary", "")
	colPrimPDG          = frame.Col(source.GroupPrimary, "pdg")
	colPrimGenE         = frame.Col(source.GroupPrimary, "genE")
	colPrimG4ID         = frame.Col(source.GroupPrimary, "G4ID")
	colFirstG4ID        = frame.Col("first_g4id", "")
	colPartPDG          = frame.Col(groupParticle, "pdg")
	colEndInAV          = frame.Col("end_in_av", "")
	colKEPass           = frame.Col("ke_pass", "")
	colSelected         = frame.Col("selected", "")
	colIsAnchor         = frame.Col("is_anchor", "")
	colIsSecondary      = frame.Col("is_secondary", "")
	colIsMuon           = frame.Col("is_mu", "")
	colIsElectron       = frame.Col("is_e", "")
	colIsElectronCont   = frame.Col("is_e_cont", "")
	colHasMuon          = frame.Col("has_mu", "")
	colHasElectron      = frame.Col("has_e", "")
	colHasElectronCont  = frame.Col("has_e_cont", "")
	colMuonDecay        = frame.Col("mu_decay", "")
	colMuonDecayContain = frame.Col("mu_decay_cont", "")
)

// truthColumns are dropped from classified outputs unless Config.TruthColumns.
var truthColumns = []frame.ColumnRef{colHasDaughter, colHasDaughterCont}

// PDG codes with sign: the antimuon and positron of a mu+ decay chain.
const (
	pdgMuPlus   = -13
	pdgPositron = -11
)

// buildAntinu produces the interaction table of the antineutrino study:
// interaction truth, the count of mu+ primaries above the cut, whether a
// mu+ decays to a positron (anywhere, and contained in the active volume)
// and fiducial containment.
func buildAntinu(ctx context.Context, cfg Config, src source.Source) (*frame.Table, error) {
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
	muon := physics.MustLookup(physics.Muon)

	return pipeline(ctx, nu,
		func(t *frame.Table) (*frame.Table, error) {
			counts, err := countAbove(prim, cfg.Cut, muon.Mass, pdgMuPlus, colNMuPlus)
			if err != nil {
				return nil, err
			}
			return aggregate.Attach(t, counts, frame.Int(0))
		},
		func(t *frame.Table) (*frame.Table, error) {
			return decayFlags(t, cfg, prim, dau)
		},
	)
}

// loadInteractions loads the interaction table, renames nu.pdg to nu_pdg
// and adds fiducial containment of the interaction vertex.
func loadInteractions(cfg Config, src source.Source) (*frame.Table, error) {
	nu, err := src.Load(source.GroupInteraction, interactionFields)
	if err != nil {
		return nil, err
	}
	nu, err = nu.RenameColumn(frame.Col(source.GroupInteraction, "pdg"), colNuPDG)
	if err != nil {
		return nil, err
	}
	return cfg.Fiducial.Apply(nu, source.GroupInteraction, "position", colTrueFV)
}

// countAbove counts, per interaction, the primaries with the given signed
// PDG code whose kinetic energy passes the cut.
func countAbove(prim *frame.Table, cut, mass float64, pdg int64, out frame.ColumnRef) (*frame.Table, error) {
	passed, err := aggregate.Threshold{Cut: cut}.Apply(prim, colPrimGenE, mass, colKEPass)
	if err != nil {
		return nil, err
	}
	sel, err := classify.Derive(passed, colSelected, classify.AllOf(
		classify.Col{Ref: colKEPass},
		classify.Equals{Ref: colPrimPDG, Value: frame.Int(pdg)},
	))
	if err != nil {
		return nil, err
	}
	return aggregate.CountMatching(sel, hkey.Interaction, colSelected, out)
}

// particles stacks primaries and their daughters into one table under the
// interaction, both renamed to the shared particle group.
func particles(cfg Config, prim, dau *frame.Table) (*frame.Table, error) {
	p, err := prim.RenameGroup(source.GroupPrimary, groupParticle)
	if err != nil {
		return nil, err
	}
	d, err := dau.RenameGroup(source.GroupDaughter, groupParticle)
	if err != nil {
		return nil, err
	}
	return frame.Stack(colMarker,
		frame.StackPart{Table: p, Tag: cfg.Markers[0]},
		frame.StackPart{Table: d, Tag: cfg.Markers[1]},
	)
}

// decayFlags adds has_daughter and has_daughter_cont to nu.
//
// A primary mu+ with a positron daughter is paired at primary depth; the
// pair flag is then lifted to cfg.LiftDepth over the interaction-particle
// merge, so an interaction without particles still reads false.
// roles adds Bool columns for the stacked entity role of each row. Padding
// rows from an outer merge have no entity and are neither.
func roles(t *frame.Table, cfg Config) (*frame.Table, error) {
	secondary := t.IsTag(colMarker, cfg.Markers[1])
	out, err := t.Map(colIsAnchor, func(i int) frame.Value {
		e, ok := t.Entity(i, colMarker, cfg.Markers[0])
		return frame.Bool(ok && e.IsAnchor())
	})
	if err != nil {
		return nil, err
	}
	return out.Map(colIsSecondary, func(i int) frame.Value {
		return frame.Bool(secondary[i])
	})
}

func decayFlags(nu *frame.Table, cfg Config, prim, dau *frame.Table) (*frame.Table, error) {
	parts, err := particles(cfg, prim, dau)
	if err != nil {
		return nil, err
	}
	merged, err := frame.Merge(nu, parts, hkey.Interaction, cfg.Cardinality)
	if err != nil {
		return nil, err
	}
	merged, err = cfg.Active.Apply(merged, groupParticle, "end", colEndInAV)
	if err != nil {
		return nil, err
	}

	if merged, err = roles(merged, cfg); err != nil {
		return nil, err
	}

	isMuon := classify.AllOf(
		classify.Col{Ref: colIsAnchor},
		classify.Equals{Ref: colPartPDG, Value: frame.Int(pdgMuPlus)},
	)
	isElectron := classify.AllOf(
		classify.Col{Ref: colIsSecondary},
		classify.Equals{Ref: colPartPDG, Value: frame.Int(pdgPositron)},
	)
	for _, d := range []classify.Signal{
		{Out: colIsMuon, Expr: isMuon},
		{Out: colIsElectron, Expr: isElectron},
		{Out: colIsElectronCont, Expr: classify.AllOf(isElectron, classify.Col{Ref: colEndInAV})},
	} {
		if merged, err = classify.Derive(merged, d.Out, d.Expr); err != nil {
			return nil, err
		}
	}

	var pairs *frame.Table
	for _, l := range []struct{ pred, out frame.ColumnRef }{
		{colIsMuon, colHasMuon},
		{colIsElectron, colHasElectron},
		{colIsElectronCont, colHasElectronCont},
	} {
		lifted, err := aggregate.LiftAny(merged, l.pred, hkey.Primary, l.out)
		if err != nil {
			return nil, err
		}
		if pairs == nil {
			pairs = lifted
			continue
		}
		if pairs, err = frame.Merge(pairs, lifted, hkey.Primary, frame.OneToOne); err != nil {
			return nil, err
		}
	}
	pairs, err = classify.Derive(pairs, colMuonDecay, classify.AllOf(classify.Col{Ref: colHasMuon}, classify.Col{Ref: colHasElectron}))
	if err != nil {
		return nil, err
	}
	pairs, err = classify.Derive(pairs, colMuonDecayContain, classify.AllOf(classify.Col{Ref: colHasMuon}, classify.Col{Ref: colHasElectronCont}))
	if err != nil {
		return nil, err
	}

	out := nu
	for _, l := range []struct{ pred, out frame.ColumnRef }{
		{colMuonDecay, colHasDaughter},
		{colMuonDecayContain, colHasDaughterCont},
	} {
		lifted, err := aggregate.LiftAny(pairs, l.pred, cfg.LiftDepth, l.out)
		if err != nil {
			return nil, err
		}
		if out, err = attachAt(out, lifted, frame.Bool(false)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// buildAntinuLite lists the interactions with at least one mu+ primary
// above the cut, with their count.
func buildAntinuLite(ctx context.Context, cfg Config, src source.Source) (*frame.Table, error) {
	prim, err := src.Load(source.GroupPrimary, particleFields)
	if err != nil {
		return nil, err
	}
	muon := physics.MustLookup(physics.Muon)
	counts, err := countAbove(prim, cfg.Cut, muon.Mass, pdgMuPlus, colNMuPlus)
	if err != nil {
		return nil, err
	}
	return pipeline(ctx, counts,
		func(t *frame.Table) (*frame.Table, error) {
			return frame.Merge(t, prim, hkey.Interaction, frame.OneToMany)
		},
		func(t *frame.Table) (*frame.Table, error) {
			return classify.Mask(t, classify.Compare{Ref: colNMuPlus, Op: classify.Greater, Value: frame.Int(0)})
		},
		func(t *frame.Table) (*frame.Table, error) {
			return t.Select(colNMuPlus, colPrimG4ID)
		},
		func(t *frame.Table) (*frame.Table, error) {
			return aggregate.First(t, hkey.Interaction)
		},
		func(t *frame.Table) (*frame.Table, error) {
			return t.RenameColumn(colPrimG4ID, colFirstG4ID)
		},
	)
}

// buildHeader produces the per-event run, subrun and event numbers.
func buildHeader(ctx context.Context, _ Config, src source.Source) (*frame.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return src.Load(source.GroupHeader, headerFields)
}
