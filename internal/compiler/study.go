// Package compiler turns a CUE study file into a validated study.Config.
//
// The file is unified with an embedded schema that fills in the documented
// defaults, then decoded. Expression strings are parsed with the classify
// grammar; every failure carries the position of the offending CUE value.
package compiler

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/hierframe/internal/classify"
	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/physics"
	"github.com/roach88/hierframe/internal/study"
)

//go:embed schema.cue
var schemaSource string

// studyFile mirrors #Study after defaults are applied.
type studyFile struct {
	Name         string       `json:"name"`
	CutValue     float64      `json:"cut_value"`
	Cardinality  string       `json:"cardinality"`
	LiftToDepth  int          `json:"lift_to_depth"`
	MarkerValues []string     `json:"marker_values"`
	TruthColumns bool         `json:"truth_columns"`
	Geometry     *geometry    `json:"geometry"`
	Outputs      []outputFile `json:"outputs"`
}

type geometry struct {
	Fiducial *boxFile `json:"fiducial"`
	Active   *boxFile `json:"active"`
}

type boxFile struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

type outputFile struct {
	Name     string        `json:"name"`
	Builder  string        `json:"builder"`
	Signals  []signalFile  `json:"signals"`
	TrueType *trueTypeFile `json:"true_type"`
}

type signalFile struct {
	Out  string `json:"out"`
	Expr string `json:"expr"`
}

type trueTypeFile struct {
	Out        string         `json:"out"`
	Fallback   string         `json:"fallback"`
	Categories []categoryFile `json:"categories"`
}

type categoryFile struct {
	Tag   string `json:"tag"`
	Label string `json:"label"`
	Expr  string `json:"expr"`
}

// Schema returns the #Study definition compiled in the context of v.
func Schema(ctx *cue.Context) (cue.Value, error) {
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile schema: %w", err)
	}
	return schema.LookupPath(cue.ParsePath("#Study")), nil
}

// CompileFile reads and compiles a single study file. Package loading with
// imports is the CLI loader's job.
func CompileFile(path string) (*study.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read study: %w", err)
	}
	return CompileStudy(cuecontext.New().CompileBytes(data, cue.Filename(path)))
}

// CompileStudy compiles one study value into a validated configuration.
func CompileStudy(v cue.Value) (*study.Config, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def, err := Schema(v.Context())
	if err != nil {
		return nil, err
	}
	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var f studyFile
	if err := unified.Decode(&f); err != nil {
		return nil, formatCUEError(err)
	}

	cfg := study.Defaults()
	cfg.Name = f.Name
	cfg.Cut = f.CutValue
	cfg.LiftDepth = f.LiftToDepth
	cfg.TruthColumns = f.TruthColumns
	copy(cfg.Markers[:], f.MarkerValues)

	card, err := frame.ParseCardinality(f.Cardinality)
	if err != nil {
		return nil, fieldError(v, err.Error(), cue.Str("cardinality"))
	}
	cfg.Cardinality = card

	if g := f.Geometry; g != nil {
		if g.Fiducial != nil {
			cfg.Fiducial = g.Fiducial.box()
		}
		if g.Active != nil {
			cfg.Active = g.Active.box()
		}
	}

	for i, of := range f.Outputs {
		out, err := compileOutput(v, i, of)
		if err != nil {
			return nil, err
		}
		cfg.Outputs = append(cfg.Outputs, out)
	}

	if err := cfg.Validate(); err != nil {
		return nil, &CompileError{Field: "study", Message: err.Error(), Pos: v.Pos()}
	}
	return &cfg, nil
}

func compileOutput(v cue.Value, i int, of outputFile) (study.Output, error) {
	out := study.Output{Name: of.Name, Builder: of.Builder}
	at := func(sels ...cue.Selector) []cue.Selector {
		return append([]cue.Selector{cue.Str("outputs"), cue.Index(i)}, sels...)
	}

	if of.Signals != nil {
		out.Signals = make([]classify.Signal, 0, len(of.Signals))
	}
	for j, sf := range of.Signals {
		ref, err := frame.Ref(sf.Out)
		if err != nil {
			return out, fieldError(v, err.Error(), at(cue.Str("signals"), cue.Index(j), cue.Str("out"))...)
		}
		expr, err := classify.Parse(sf.Expr)
		if err != nil {
			return out, fieldError(v, err.Error(), at(cue.Str("signals"), cue.Index(j), cue.Str("expr"))...)
		}
		out.Signals = append(out.Signals, classify.Signal{Out: ref, Expr: expr})
	}

	if tf := of.TrueType; tf != nil {
		ref, err := frame.Ref(tf.Out)
		if err != nil {
			return out, fieldError(v, err.Error(), at(cue.Str("true_type"), cue.Str("out"))...)
		}
		tt := &classify.TrueType{Out: ref, Fallback: tf.Fallback}
		for k, cf := range tf.Categories {
			expr, err := classify.Parse(cf.Expr)
			if err != nil {
				return out, fieldError(v, err.Error(),
					at(cue.Str("true_type"), cue.Str("categories"), cue.Index(k), cue.Str("expr"))...)
			}
			tt.Categories = append(tt.Categories, classify.Category{Tag: cf.Tag, Label: cf.Label, Expr: expr})
		}
		out.TrueType = tt
	}
	return out, nil
}

// fieldError builds a CompileError positioned at the value under sels.
func fieldError(v cue.Value, msg string, sels ...cue.Selector) *CompileError {
	path := cue.MakePath(sels...)
	return &CompileError{
		Field:   displayPath(sels),
		Message: msg,
		Pos:     v.LookupPath(path).Pos(),
	}
}

func displayPath(sels []cue.Selector) string {
	s := ""
	for i, sel := range sels {
		if sel.Type() == cue.IndexLabel {
			s += fmt.Sprintf("[%s]", sel.String())
			continue
		}
		if i > 0 {
			s += "."
		}
		s += sel.String()
	}
	return s
}

func (b boxFile) box() physics.Box {
	var out physics.Box
	copy(out.Min[:], b.Min)
	copy(out.Max[:], b.Max)
	return out
}
