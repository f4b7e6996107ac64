package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/hierframe/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Database string
	Study    string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored tables",
		Long: `List the tables stored in a database, ordered by study, output and seq.

Examples:
  hierframe list --db ./kmc.db
  hierframe list --db ./kmc.db --study kmc --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireDatabase(opts.Database); err != nil {
				return err
			}
			return runList(opts, cmd)
		},
	}

	databaseFlag(cmd, &opts.Database, rootOpts.Env)
	cmd.Flags().StringVar(&opts.Study, "study", "", "only list tables of this study")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openExisting(opts.Database)
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, err.Error())
	}
	defer st.Close()

	metas, err := st.ListTables(cmd.Context(), opts.Study)
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, err.Error())
	}
	tables := summarizeTables(metas)

	if formatter.Format == "json" {
		return formatter.JSON(tables)
	}
	if len(tables) == 0 {
		formatter.VerboseLog("database %s holds no tables", opts.Database)
		return nil
	}
	rows := make([][]string, 0, len(tables))
	for _, t := range tables {
		rows = append(rows, []string{
			t.Name, t.Study, t.Output,
			strconv.FormatInt(t.Seq, 10),
			strconv.Itoa(t.Depth),
			strconv.Itoa(t.Rows),
			shortHash(t.Hash),
		})
	}
	return formatter.Table([]string{"name", "study", "output", "seq", "depth", "rows", "hash"}, rows)
}

// openExisting opens a database that must already exist. Read commands
// never create one.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found: %s", path)
	}
	return store.Open(path)
}
