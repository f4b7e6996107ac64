package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hierframe/internal/store"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Database string
	Study    string
}

// VerifyTableResult holds the verification result for a single table.
type VerifyTableResult struct {
	Name     string `json:"name"`
	Intact   bool   `json:"intact"`
	Computed string `json:"computed,omitempty"`
	Error    string `json:"error,omitempty"`
}

// VerifyResult holds the overall verification result.
type VerifyResult struct {
	Tables      []VerifyTableResult `json:"tables"`
	TotalTables int                 `json:"total_tables"`
	AllIntact   bool                `json:"all_intact"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify [table...]",
		Short: "Re-hash stored tables and check their content hashes",
		Long: `Re-read stored tables and check that their content still hashes to the
content hash recorded when they were written.

With no table names every table (of --study, if given) is verified.

Exit codes:
  0 - All tables are intact
  1 - At least one table does not match its recorded hash
  2 - Command error (database not found, unknown table, etc.)

Examples:
  hierframe verify --db ./kmc.db
  hierframe verify --db ./kmc.db kmc_0 kmc_1
  hierframe verify --db ./kmc.db --study kmc --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireDatabase(opts.Database); err != nil {
				return err
			}
			return runVerify(opts, args, cmd)
		},
	}

	databaseFlag(cmd, &opts.Database, rootOpts.Env)
	cmd.Flags().StringVar(&opts.Study, "study", "", "only verify tables of this study")

	return cmd
}

func runVerify(opts *VerifyOptions, names []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	st, err := openExisting(opts.Database)
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, err.Error())
	}
	defer st.Close()

	if len(names) == 0 {
		metas, err := st.ListTables(ctx, opts.Study)
		if err != nil {
			return commandError(formatter, ErrCodeDatabase, err.Error())
		}
		for _, m := range metas {
			names = append(names, m.Name)
		}
	}

	result := VerifyResult{
		Tables:      make([]VerifyTableResult, 0, len(names)),
		TotalTables: len(names),
		AllIntact:   true,
	}
	for _, name := range names {
		formatter.VerboseLog("Verifying table: %s", name)
		_, err := st.VerifyTable(ctx, name)
		var mismatch *store.HashMismatchError
		switch {
		case err == nil:
			result.Tables = append(result.Tables, VerifyTableResult{Name: name, Intact: true})
		case errors.As(err, &mismatch):
			result.AllIntact = false
			result.Tables = append(result.Tables, VerifyTableResult{
				Name:     name,
				Computed: mismatch.Computed,
				Error:    err.Error(),
			})
		case errors.Is(err, store.ErrNotFound):
			return commandError(formatter, ErrCodeNotFound, err.Error())
		default:
			return commandError(formatter, ErrCodeDatabase, err.Error())
		}
	}

	var exitErr error
	if !result.AllIntact {
		exitErr = NewExitError(ExitFailure, "content hash verification failed")
	}

	if formatter.Format == "json" {
		if err := formatter.JSON(result); err != nil {
			return err
		}
		return exitErr
	}

	w := formatter.Writer
	for _, t := range result.Tables {
		if t.Intact {
			fmt.Fprintf(w, "✓ %s\n", t.Name)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n  %s\n", t.Name, t.Error)
	}
	fmt.Fprintln(w)
	if result.AllIntact {
		fmt.Fprintf(w, "%d table(s) intact\n", result.TotalTables)
	} else {
		fmt.Fprintln(w, "Content hash verification failed")
	}
	return exitErr
}
