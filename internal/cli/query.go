package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hierframe/internal/classify"
	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/querysql"
	"github.com/roach88/hierframe/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Database string
	Where    string
	Limit    int
	Columns  []string
}

// QueryRow is one row of query output. Cells holds the canonical cell
// object, keyed by dotted column name.
type QueryRow struct {
	Key   json.RawMessage `json:"key"`
	Cells json.RawMessage `json:"cells"`
}

// QueryResult is the JSON form of query output.
type QueryResult struct {
	Table string     `json:"table"`
	Depth int        `json:"depth"`
	Rows  []QueryRow `json:"rows"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Read rows of a stored table",
		Long: `Read the rows of a stored table in key order.

--where takes the same expression language as study signals and
categories. It is evaluated by SQLite over the stored cells, and a Null
cell never satisfies a comparison.

Examples:
  hierframe query --db ./kmc.db kmc_0
  hierframe query --db ./kmc.db kmc_0 --where 'nmuplus > 0 && !is_signal'
  hierframe query --db ./kmc.db kmc_0 --columns nu.E,true_type --limit 10`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireDatabase(opts.Database); err != nil {
				return err
			}
			return runQuery(opts, args[0], cmd)
		},
	}

	databaseFlag(cmd, &opts.Database, rootOpts.Env)
	cmd.Flags().StringVar(&opts.Where, "where", "", "row filter expression")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rows (0 for all)")
	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "columns to print (default all)")

	return cmd
}

func runQuery(opts *QueryOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	q := querysql.Select{Table: name, Limit: opts.Limit}
	if opts.Where != "" {
		filter, err := classify.Parse(opts.Where)
		if err != nil {
			return commandError(formatter, ErrCodeBadInput, fmt.Sprintf("--where: %v", err))
		}
		q.Filter = filter
	}
	refs := make([]frame.ColumnRef, 0, len(opts.Columns))
	for _, c := range opts.Columns {
		ref, err := frame.Ref(c)
		if err != nil {
			return commandError(formatter, ErrCodeBadInput, fmt.Sprintf("--columns: %v", err))
		}
		refs = append(refs, ref)
	}

	st, err := openExisting(opts.Database)
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, err.Error())
	}
	defer st.Close()

	t, meta, err := st.QueryRows(cmd.Context(), q)
	if errors.Is(err, store.ErrNotFound) {
		return commandError(formatter, ErrCodeNotFound, err.Error())
	}
	if err != nil {
		return commandError(formatter, ErrCodeBadInput, err.Error())
	}
	formatter.VerboseLog("%s: %d of %d rows", meta.Name, t.Len(), meta.RowCount)

	if formatter.Format != "json" {
		if err := frame.WriteTSV(formatter.Writer, t, refs...); err != nil {
			return commandError(formatter, ErrCodeBadInput, err.Error())
		}
		return nil
	}

	if len(refs) > 0 {
		if t, err = t.Select(refs...); err != nil {
			return commandError(formatter, ErrCodeBadInput, err.Error())
		}
	}
	result := QueryResult{Table: meta.Name, Depth: meta.Depth, Rows: make([]QueryRow, 0, t.Len())}
	for i := range t.Len() {
		cells, err := t.MarshalCells(i)
		if err != nil {
			return commandError(formatter, ErrCodeGeneric, err.Error())
		}
		result.Rows = append(result.Rows, QueryRow{Key: frame.MarshalKey(t.Key(i)), Cells: cells})
	}
	return formatter.JSON(result)
}
