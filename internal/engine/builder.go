package engine

import (
	"context"

	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/source"
	"github.com/roach88/hierframe/internal/study"
)

// Builder produces one table from one batch of input.
//
// Implementations must not retain src or share mutable state between calls:
// workers call Build concurrently on different batches.
type Builder interface {
	Build(ctx context.Context, src source.Source) (*frame.Table, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context, src source.Source) (*frame.Table, error)

// Build calls f.
func (f BuilderFunc) Build(ctx context.Context, src source.Source) (*frame.Table, error) {
	return f(ctx, src)
}

// Output is one named table the runner persists per batch.
type Output struct {
	Name    string
	Builder Builder
}

// StudyOutputs binds every output of cfg to a builder. The configuration is
// copied, so later changes to cfg do not reach running workers.
func StudyOutputs(cfg study.Config) []Output {
	outs := make([]Output, len(cfg.Outputs))
	for i, o := range cfg.Outputs {
		outs[i] = Output{
			Name: o.Name,
			Builder: BuilderFunc(func(ctx context.Context, src source.Source) (*frame.Table, error) {
				return cfg.Build(ctx, o, src)
			}),
		}
	}
	return outs
}

// Batch is a bounded slice of events with its identity within a run.
type Batch struct {
	ID     string
	Seq    int64
	Source source.Source
}
