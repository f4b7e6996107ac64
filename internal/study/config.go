// Package study holds the per-domain table builders and the configuration
// that selects and parameterises them.
//
// A study run produces one table per Output. Every builder follows the same
// pipeline order: load base fields, apply thresholds, lift predicates, then
// classify. Each stage returns a new, wider table.
package study

import (
	"errors"
	"fmt"

	"github.com/roach88/hierframe/internal/aggregate"
	"github.com/roach88/hierframe/internal/classify"
	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/hkey"
	"github.com/roach88/hierframe/internal/physics"
)

// Builder kinds.
const (
	KindAntinu     = "antinu"
	KindAntinuLite = "antinu_lite"
	KindKaon       = "kaon"
	KindHeader     = "hdr"
	KindReco       = "reco"
)

// Kinds lists every registered builder kind.
func Kinds() []string {
	return []string{KindAntinu, KindAntinuLite, KindHeader, KindKaon, KindReco}
}

// Output is one table a study persists per batch, as "<Name>_<seq>".
//
// Signals and TrueType override the builder's defaults. Builders without a
// classification stage (hdr, antinu_lite, reco) reject them.
type Output struct {
	Name     string
	Builder  string
	Signals  []classify.Signal
	TrueType *classify.TrueType
}

// Config is the thin per-study configuration.
type Config struct {
	Name    string
	Outputs []Output

	// Cut is the kinetic energy cut for a particle to count (cut_value).
	Cut float64
	// Cardinality of the interaction-to-particle merge.
	Cardinality frame.Cardinality
	// LiftDepth is the depth lifted predicates land on (lift_to_depth).
	LiftDepth int
	// Markers are the (anchor, secondary) tags of the particle stack.
	Markers [2]string

	Fiducial physics.Box
	Active   physics.Box

	// TruthColumns keeps the intermediate has_daughter flags.
	TruthColumns bool
}

// Defaults returns the documented defaults: cut 0, left outer particle
// merge, flags lifted to interaction depth and the SBND volumes.
func Defaults() Config {
	return Config{
		Cut:         aggregate.DefaultCut,
		Cardinality: frame.LeftOuter,
		LiftDepth:   hkey.Interaction,
		Markers:     [2]string{"primary", "daughter"},
		Fiducial:    physics.SBNDFiducial,
		Active:      physics.SBNDActive,
	}
}

// Validate checks the configuration before any batch is processed.
func (c Config) Validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if len(c.Outputs) == 0 {
		errs = append(errs, errors.New("at least one output is required"))
	}
	names := map[string]bool{}
	for _, o := range c.Outputs {
		if o.Name == "" {
			errs = append(errs, errors.New("output name is required"))
		}
		if names[o.Name] {
			errs = append(errs, fmt.Errorf("duplicate output %q", o.Name))
		}
		names[o.Name] = true
		b, err := lookup(o.Builder)
		if err != nil {
			errs = append(errs, fmt.Errorf("output %q: %w", o.Name, err))
			continue
		}
		if !b.classifies && (o.Signals != nil || o.TrueType != nil) {
			errs = append(errs, fmt.Errorf("output %q: builder %s takes no signals", o.Name, o.Builder))
		}
		errs = append(errs, validateSignals(o)...)
	}
	if c.Cut < 0 {
		errs = append(errs, fmt.Errorf("cut_value %g is negative", c.Cut))
	}
	if c.Cardinality < frame.OneToOne || c.Cardinality > frame.LeftOuter {
		errs = append(errs, fmt.Errorf("unknown cardinality %d", int(c.Cardinality)))
	}
	if c.LiftDepth < hkey.Event || c.LiftDepth > hkey.Interaction {
		errs = append(errs, fmt.Errorf("lift_to_depth %d outside [%d, %d]", c.LiftDepth, hkey.Event, hkey.Interaction))
	}
	if c.Markers[0] == "" || c.Markers[1] == "" || c.Markers[0] == c.Markers[1] {
		errs = append(errs, fmt.Errorf("marker_values must be two distinct tags, got %q", c.Markers))
	}
	for _, b := range []physics.Box{c.Fiducial, c.Active} {
		if err := b.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func validateSignals(o Output) []error {
	var errs []error
	outs := map[frame.ColumnRef]bool{}
	for _, s := range o.Signals {
		if s.Expr == nil {
			errs = append(errs, fmt.Errorf("output %q: signal %s has no expression", o.Name, s.Out))
			continue
		}
		if outs[s.Out] {
			errs = append(errs, fmt.Errorf("output %q: duplicate signal %s", o.Name, s.Out))
		}
		outs[s.Out] = true
		for _, e := range classify.Check(s.Expr, nil) {
			errs = append(errs, fmt.Errorf("output %q: signal %s: %w", o.Name, s.Out, e))
		}
	}
	if o.TrueType != nil {
		if err := o.TrueType.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("output %q: %w", o.Name, err))
		}
	}
	return errs
}
