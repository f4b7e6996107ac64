package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/hierframe/internal/store"
)

// TableDetail is the full metadata of a stored table.
type TableDetail struct {
	TableSummary
	Ragged    bool      `json:"ragged"`
	Columns   []string  `json:"columns"`
	CreatedAt time.Time `json:"created_at"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "show <table>",
		Short: "Show a stored table's metadata",
		Long: `Show the metadata recorded when a table was written: the study, output,
batch and seq it came from, its depth, its columns and its content hash.

Use query to read the rows.

Examples:
  hierframe show --db ./kmc.db kmc_0
  hierframe show --db ./kmc.db kmc_0 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireDatabase(database); err != nil {
				return err
			}
			return runShow(rootOpts, database, args[0], cmd)
		},
	}

	databaseFlag(cmd, &database, rootOpts.Env)

	return cmd
}

func runShow(opts *RootOptions, database, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	st, err := openExisting(database)
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, err.Error())
	}
	defer st.Close()

	meta, err := st.ReadMeta(cmd.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		return commandError(formatter, ErrCodeNotFound, err.Error())
	}
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, err.Error())
	}

	detail := TableDetail{
		TableSummary: summarizeTables([]store.TableMeta{meta})[0],
		Ragged:       meta.Ragged,
		Columns:      make([]string, 0, len(meta.Columns)),
		CreatedAt:    meta.CreatedAt,
	}
	for _, c := range meta.Columns {
		detail.Columns = append(detail.Columns, c.String())
	}

	if formatter.Format == "json" {
		return formatter.JSON(detail)
	}

	depth := fmt.Sprintf("%d", detail.Depth)
	if detail.Ragged {
		depth += ", ragged"
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s\n", detail.Name)
	fmt.Fprintf(w, "  study:    %s\n", detail.Study)
	fmt.Fprintf(w, "  output:   %s\n", detail.Output)
	fmt.Fprintf(w, "  batch:    %s (seq %d)\n", detail.BatchID, detail.Seq)
	fmt.Fprintf(w, "  depth:    %s\n", depth)
	fmt.Fprintf(w, "  rows:     %d\n", detail.Rows)
	fmt.Fprintf(w, "  hash:     %s\n", detail.Hash)
	fmt.Fprintf(w, "  created:  %s\n", detail.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "  columns:  %s\n", strings.Join(detail.Columns, ", "))
	return nil
}
