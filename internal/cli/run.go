package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/hierframe/internal/engine"
	"github.com/roach88/hierframe/internal/source"
	"github.com/roach88/hierframe/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database        string
	Workers         int
	BatchSize       int
	ContinueOnError bool
	Append          bool

	// IDGenerator allows overriding the batch id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator engine.IDGenerator

	// Now allows overriding the table creation clock (for testing).
	Now func() time.Time
}

// TableSummary is the short form of a stored table used in command output.
type TableSummary struct {
	Name    string `json:"name"`
	Study   string `json:"study"`
	Output  string `json:"output"`
	BatchID string `json:"batch_id"`
	Seq     int64  `json:"seq"`
	Depth   int    `json:"depth"`
	Rows    int    `json:"rows"`
	Hash    string `json:"content_hash"`
}

// FailureSummary is one aborted batch in command output.
type FailureSummary struct {
	BatchID string `json:"batch_id"`
	Seq     int64  `json:"seq"`
	Output  string `json:"output"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RunSummary is the result of the run command.
type RunSummary struct {
	Study     string           `json:"study"`
	Batches   int              `json:"batches"`
	Written   []TableSummary   `json:"written"`
	Unchanged int              `json:"unchanged"`
	Failed    []FailureSummary `json:"failed,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <study> <events.yaml>",
		Short: "Build and store a study's tables",
		Long: `Run a study over an event file and store one table per output and batch.

Events are split into batches of --batch-size events (0 keeps them in one
batch). Batches are built concurrently and written by a single writer as
"<output>_<seq>". Running the same study over the same events again is a
no-op; different content under an existing table name is refused.

With --append, sequence numbers continue after the study's highest stored
seq instead of starting at 0.

Exit codes:
  0 - Every batch was stored
  1 - A batch failed to build or write
  2 - Command error (bad study, unreadable events, database error, etc.)

Example:
  hierframe run --db ./kmc.db study.cue events.yaml
  hierframe run --db ./kmc.db --batch-size 100 --workers 8 ./study events.yaml`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireDatabase(opts.Database); err != nil {
				return err
			}
			return runStudy(opts, args[0], args[1], cmd)
		},
	}

	databaseFlag(cmd, &opts.Database, rootOpts.Env)
	cmd.Flags().IntVar(&opts.Workers, "workers", rootOpts.Env.workers(), "concurrent batch builders")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", rootOpts.Env.BatchSize, "events per batch (0 for a single batch)")
	cmd.Flags().BoolVar(&opts.ContinueOnError, "continue-on-error", false, "keep going after a failed batch")
	cmd.Flags().BoolVar(&opts.Append, "append", false, "number batches after the highest stored seq")

	return cmd
}

func runStudy(opts *RunOptions, studyPath, eventsPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	if opts.BatchSize < 0 {
		return commandError(formatter, ErrCodeBadInput, fmt.Sprintf("--batch-size must not be negative, got %d", opts.BatchSize))
	}

	loadResult, err := LoadStudy(studyPath)
	if err != nil {
		return commandError(formatter, loadErrorCode(err), err.Error())
	}
	cfg := loadResult.Study
	logger.Debug("study compiled", "study", cfg.Name, "outputs", len(cfg.Outputs))

	events, err := source.ReadFile(eventsPath)
	if err != nil {
		return commandError(formatter, ErrCodeBadInput, err.Error())
	}
	batches := events.Batches(opts.BatchSize)
	sources := make([]source.Source, len(batches))
	for i, b := range batches {
		sources[i] = b
	}
	logger.Debug("events read", "path", eventsPath, "events", events.Events(), "batches", len(sources))

	st, err := store.Open(opts.Database)
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, err.Error())
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	clock := engine.NewClock()
	if opts.Append {
		next, err := nextSeq(ctx, st, cfg.Name)
		if err != nil {
			return commandError(formatter, ErrCodeDatabase, err.Error())
		}
		clock = engine.NewClockAt(next)
	}

	runnerOpts := []engine.RunnerOption{
		engine.WithWorkers(opts.Workers),
		engine.WithClock(clock),
		engine.WithLogger(logger),
	}
	if opts.ContinueOnError {
		runnerOpts = append(runnerOpts, engine.WithContinueOnError())
	}
	if opts.IDGenerator != nil {
		runnerOpts = append(runnerOpts, engine.WithIDGenerator(opts.IDGenerator))
	}
	if opts.Now != nil {
		runnerOpts = append(runnerOpts, engine.WithNow(opts.Now))
	}

	runner := engine.NewRunner(cfg.Name, engine.StudyOutputs(*cfg), st, runnerOpts...)
	res, err := runner.Run(ctx, sources)
	if err != nil {
		code := engine.ErrorCode(err)
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, code, err)
	}

	summary := RunSummary{
		Study:     cfg.Name,
		Batches:   res.Batches,
		Written:   summarizeTables(res.Written),
		Unchanged: res.Unchanged,
	}
	for _, f := range res.Failed {
		summary.Failed = append(summary.Failed, FailureSummary{
			BatchID: f.BatchID,
			Seq:     f.Seq,
			Output:  f.Output,
			Code:    engine.ErrorCode(f),
			Message: f.Err.Error(),
		})
	}
	return outputRunSummary(formatter, summary, res.String())
}

// nextSeq returns one past the highest stored seq of a study, or 0 when
// nothing is stored.
func nextSeq(ctx context.Context, st *store.Store, studyName string) (int64, error) {
	metas, err := st.ListTables(ctx, studyName)
	if err != nil {
		return 0, err
	}
	next := int64(0)
	for _, m := range metas {
		next = max(next, m.Seq+1)
	}
	return next, nil
}

func loadErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}

func summarizeTables(metas []store.TableMeta) []TableSummary {
	out := make([]TableSummary, 0, len(metas))
	for _, m := range metas {
		out = append(out, TableSummary{
			Name:    m.Name,
			Study:   m.Study,
			Output:  m.Output,
			BatchID: m.BatchID,
			Seq:     m.Seq,
			Depth:   m.Depth,
			Rows:    m.RowCount,
			Hash:    m.ContentHash,
		})
	}
	return out
}

func outputRunSummary(formatter *OutputFormatter, summary RunSummary, line string) error {
	var exitErr error
	if len(summary.Failed) > 0 {
		exitErr = NewExitError(ExitFailure, fmt.Sprintf("%d batch(es) failed", len(summary.Failed)))
	}

	if formatter.Format == "json" {
		if err := formatter.JSON(summary); err != nil {
			return err
		}
		return exitErr
	}

	w := formatter.Writer
	mark := "✓"
	if exitErr != nil {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s: %s\n", mark, summary.Study, line)
	for _, t := range summary.Written {
		fmt.Fprintf(w, "  %s  %d rows  %s\n", t.Name, t.Rows, shortHash(t.Hash))
	}
	for _, f := range summary.Failed {
		fmt.Fprintf(w, "  batch %d output %s: %s\n", f.Seq, f.Output, f.Message)
	}
	return exitErr
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
