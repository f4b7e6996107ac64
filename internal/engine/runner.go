package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/source"
	"github.com/roach88/hierframe/internal/store"
)

// DefaultWorkers is the worker count when none is configured.
const DefaultWorkers = 4

// TableWriter persists built tables. Implemented by *store.Store.
type TableWriter interface {
	WriteTable(ctx context.Context, meta store.TableMeta, t *frame.Table) (store.TableMeta, bool, error)
}

// Runner processes batches of a study with a pool of workers and a single
// writer.
//
// Thread-safety model:
//   - Run(): may be called repeatedly, not concurrently
//   - Builders: called concurrently, one batch per worker at a time
//   - TableWriter: called only from the writer goroutine
type Runner struct {
	study           string
	outputs         []Output
	writer          TableWriter
	ids             IDGenerator
	clock           *Clock
	workers         int
	continueOnError bool
	now             func() time.Time
	logger          *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers sets the number of concurrent batch builders. Values below 1
// are ignored.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithContinueOnError keeps processing other batches after a batch fails.
// By default the first failure stops the run.
func WithContinueOnError() RunnerOption {
	return func(r *Runner) {
		r.continueOnError = true
	}
}

// WithIDGenerator replaces the UUIDv7 batch id generator.
func WithIDGenerator(g IDGenerator) RunnerOption {
	return func(r *Runner) {
		r.ids = g
	}
}

// WithClock sets the clock batch sequence numbers are drawn from.
func WithClock(c *Clock) RunnerOption {
	return func(r *Runner) {
		r.clock = c
	}
}

// WithNow sets the wall clock stamped into table metadata.
func WithNow(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a runner for the named study. Outputs are built in the
// given order for every batch.
func NewRunner(studyName string, outputs []Output, w TableWriter, opts ...RunnerOption) *Runner {
	r := &Runner{
		study:   studyName,
		outputs: slices.Clone(outputs),
		writer:  w,
		ids:     UUIDv7Generator{},
		clock:   NewClock(),
		workers: DefaultWorkers,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result summarizes a run.
type Result struct {
	// Batches is the number of batches handed to workers.
	Batches int
	// Written lists stored tables, ordered by seq then output order.
	Written []store.TableMeta
	// Unchanged counts tables already stored with identical content.
	Unchanged int
	// Failed lists aborted batches in seq order. Only populated with
	// WithContinueOnError; otherwise the first failure is returned.
	Failed []*BatchError
}

// built is what a worker hands the writer: every table of one batch, or the
// error that aborted it.
type built struct {
	batch  Batch
	tables []*frame.Table
	err    *BatchError
}

// Run numbers the sources as batches and processes them.
//
// Without WithContinueOnError the first failed batch cancels the run and its
// *BatchError is returned along with whatever was written before. Store
// failures always stop the run.
func (r *Runner) Run(ctx context.Context, sources []source.Source) (Result, error) {
	if len(r.outputs) == 0 {
		return Result{}, errors.New("run: no outputs")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	batches := make([]Batch, len(sources))
	for i, src := range sources {
		batches[i] = Batch{ID: r.ids.Generate(), Seq: r.clock.Next(), Source: src}
	}

	r.logger.Info("run starting",
		"study", r.study,
		"batches", len(batches),
		"outputs", len(r.outputs),
		"workers", r.workers,
	)

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan Batch)
	results := make(chan built)

	g.Go(func() error {
		defer close(jobs)
		for _, b := range batches {
			select {
			case jobs <- b:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	workers := min(r.workers, max(len(batches), 1))
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for b := range jobs {
				res := r.build(gctx, b)
				select {
				case results <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	res := Result{Batches: len(batches)}
	g.Go(func() error {
		for b := range results {
			if err := r.persist(gctx, b, &res); err != nil {
				return err
			}
		}
		return nil
	})

	err := g.Wait()
	sortResult(&res)

	if err != nil {
		r.logger.Error("run failed", "study", r.study, "error", err, "code", ErrorCode(err))
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	r.logger.Info("run finished",
		"study", r.study,
		"written", len(res.Written),
		"unchanged", res.Unchanged,
		"failed", len(res.Failed),
	)
	return res, nil
}

// build runs every output builder over one batch. Called from a worker.
func (r *Runner) build(ctx context.Context, b Batch) built {
	start := time.Now()
	tables := make([]*frame.Table, 0, len(r.outputs))
	for _, out := range r.outputs {
		t, err := out.Builder.Build(ctx, b.Source)
		if err != nil {
			return built{batch: b, err: &BatchError{BatchID: b.ID, Seq: b.Seq, Output: out.Name, Err: err}}
		}
		tables = append(tables, t)
	}
	r.logger.Debug("batch built",
		"batch", b.ID,
		"seq", b.Seq,
		"events", b.Source.Events(),
		"elapsed", time.Since(start),
	)
	return built{batch: b, tables: tables}
}

// persist writes one batch. Called only from the writer goroutine.
func (r *Runner) persist(ctx context.Context, b built, res *Result) error {
	if b.err != nil {
		r.logger.Error("batch failed",
			"batch", b.batch.ID,
			"seq", b.batch.Seq,
			"output", b.err.Output,
			"code", ErrorCode(b.err),
			"error", b.err.Err,
		)
		if !r.continueOnError {
			return b.err
		}
		res.Failed = append(res.Failed, b.err)
		return nil
	}

	for i, t := range b.tables {
		out := r.outputs[i]
		meta := store.TableMeta{
			Name:      store.TableName(out.Name, b.batch.Seq),
			Study:     r.study,
			Output:    out.Name,
			BatchID:   b.batch.ID,
			Seq:       b.batch.Seq,
			CreatedAt: r.now(),
		}
		stored, inserted, err := r.writer.WriteTable(ctx, meta, t)
		if err != nil {
			return &BatchError{BatchID: b.batch.ID, Seq: b.batch.Seq, Output: out.Name, Err: &writeError{err: err}}
		}
		if !inserted {
			res.Unchanged++
			r.logger.Debug("table unchanged", "table", meta.Name, "hash", stored.ContentHash)
			continue
		}
		res.Written = append(res.Written, stored)
		r.logger.Info("table written",
			"table", stored.Name,
			"batch", b.batch.ID,
			"rows", stored.RowCount,
		)
	}
	return nil
}

func sortResult(res *Result) {
	slices.SortStableFunc(res.Written, func(a, b store.TableMeta) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	slices.SortFunc(res.Failed, func(a, b *BatchError) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
}

// String renders a one-line summary for logs and the CLI.
func (r Result) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d batches, %d tables written, %d unchanged", r.Batches, len(r.Written), r.Unchanged)
	if len(r.Failed) > 0 {
		fmt.Fprintf(&b, ", %d failed", len(r.Failed))
	}
	return b.String()
}
