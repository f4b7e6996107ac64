package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/hierframe/internal/compiler"
	"github.com/roach88/hierframe/internal/engine"
	"github.com/roach88/hierframe/internal/source"
	"github.com/roach88/hierframe/internal/store"
	"github.com/roach88/hierframe/internal/testutil"
)

// Run executes a scenario against a fresh in-memory store and evaluates its
// assertions.
//
// Execution flow:
//  1. Compile the study file
//  2. Read the events and split them into batches
//  3. Run the study with fixed batch ids, collecting failed batches
//  4. Evaluate assertions against the stored tables
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	result, err := run(context.Background(), st, scenario)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RunSnapshot is Run that also renders the scenario's snapshot before the
// store closes.
func RunSnapshot(scenario *Scenario) (*Result, []byte, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	result, err := run(ctx, st, scenario)
	if err != nil {
		return nil, nil, err
	}
	snap, err := Snapshot(ctx, st, scenario.Name, result, scenario.Golden)
	if err != nil {
		return nil, nil, err
	}
	return result, snap, nil
}

// run does the work of Run against a caller-owned store, so RunWithGolden
// can read tables back before the store closes.
func run(ctx context.Context, st *store.Store, scenario *Scenario) (*Result, error) {
	cfg, err := compiler.CompileFile(scenario.Study)
	if err != nil {
		return nil, fmt.Errorf("failed to compile study: %w", err)
	}

	events, err := source.ReadFile(scenario.Events)
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	sources := testutil.Sources(events, scenario.BatchSize)

	ids := make([]string, len(sources))
	for i := range ids {
		ids[i] = fmt.Sprintf("batch-%04d", i)
	}

	runner := engine.NewRunner(cfg.Name, engine.StudyOutputs(*cfg), st,
		engine.WithIDGenerator(engine.NewFixedGenerator(ids...)),
		engine.WithNow(testutil.NewStepClock(time.Second).Now),
		engine.WithContinueOnError(),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	)
	res, err := runner.Run(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("failed to run study: %w", err)
	}

	result := NewResult()
	result.Tables = append(result.Tables, res.Written...)
	for _, f := range res.Failed {
		result.Failures = append(result.Failures, BatchFailure{
			Seq:     f.Seq,
			Output:  f.Output,
			Code:    engine.ErrorCode(f),
			Message: f.Err.Error(),
		})
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}
