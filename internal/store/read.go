package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/hierframe/internal/classify"
	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/hkey"
	"github.com/roach88/hierframe/internal/querysql"
)

// ErrNotFound is returned, wrapped, when a named table is not stored.
var ErrNotFound = errors.New("table not found")

const metaColumns = `name, study, output, batch_id, seq, depth, ragged, columns, row_count, content_hash, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanMeta(row scanner) (TableMeta, error) {
	var (
		m       TableMeta
		columns string
		created int64
	)
	if err := row.Scan(&m.Name, &m.Study, &m.Output, &m.BatchID, &m.Seq, &m.Depth, &m.Ragged,
		&columns, &m.RowCount, &m.ContentHash, &created); err != nil {
		return TableMeta{}, err
	}
	refs, err := unmarshalColumns(columns)
	if err != nil {
		return TableMeta{}, err
	}
	m.Columns = refs
	m.CreatedAt = time.Unix(0, created).UTC()
	return m, nil
}

// ReadMeta returns the metadata of a stored table.
func (s *Store) ReadMeta(ctx context.Context, name string) (TableMeta, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+metaColumns+` FROM tables WHERE name = ?`, name)
	m, err := scanMeta(row)
	if isNoRows(err) {
		return TableMeta{}, fmt.Errorf("read table %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return TableMeta{}, fmt.Errorf("read table %s: %w", name, err)
	}
	return m, nil
}

// ListTables returns the metadata of every stored table of a study, or of
// all studies when study is empty. Results are ordered by study, output
// and seq.
func (s *Store) ListTables(ctx context.Context, study string) ([]TableMeta, error) {
	query := `SELECT ` + metaColumns + ` FROM tables`
	var args []any
	if study != "" {
		query += ` WHERE study = ?`
		args = append(args, study)
	}
	query += ` ORDER BY study COLLATE BINARY ASC, output COLLATE BINARY ASC, seq ASC, name COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	metas := []TableMeta{}
	for rows.Next() {
		m, err := scanMeta(rows)
		if err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return metas, nil
}

// ReadTable reconstructs a stored table. The result has the stored depth
// and columns even when it has no rows.
func (s *Store) ReadTable(ctx context.Context, name string) (*frame.Table, TableMeta, error) {
	return s.QueryRows(ctx, querysql.Select{Table: name})
}

// QueryRows reads the rows of a stored table matching q.Filter, as a table
// with the stored depth and columns.
func (s *Store) QueryRows(ctx context.Context, q querysql.Select) (*frame.Table, TableMeta, error) {
	meta, err := s.ReadMeta(ctx, q.Table)
	if err != nil {
		return nil, TableMeta{}, err
	}
	if q.Filter != nil {
		if errs := checkColumns(q, meta); len(errs) > 0 {
			return nil, meta, fmt.Errorf("query %s: %w", q.Table, errors.Join(errs...))
		}
	}

	query, params, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, meta, fmt.Errorf("query %s: %w", q.Table, err)
	}
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, meta, fmt.Errorf("query %s: %w", q.Table, err)
	}
	defer rows.Close()

	var (
		keys  []hkey.Key
		cells []frame.Row
	)
	for rows.Next() {
		var (
			idx       int
			keyJSON   string
			cellsJSON string
		)
		if err := rows.Scan(&idx, &keyJSON, &cellsJSON); err != nil {
			return nil, meta, fmt.Errorf("query %s: %w", q.Table, err)
		}
		k, err := frame.UnmarshalKey([]byte(keyJSON))
		if err != nil {
			return nil, meta, fmt.Errorf("query %s row %d: %w", q.Table, idx, err)
		}
		row, err := frame.UnmarshalCells([]byte(cellsJSON))
		if err != nil {
			return nil, meta, fmt.Errorf("query %s row %d: %w", q.Table, idx, err)
		}
		keys = append(keys, k)
		cells = append(cells, row)
	}
	if err := rows.Err(); err != nil {
		return nil, meta, fmt.Errorf("iterate %s: %w", q.Table, err)
	}

	t, err := frame.FromRows(meta.Depth, meta.Ragged, keys, cells, frame.Columns(meta.Columns...))
	if err != nil {
		return nil, meta, fmt.Errorf("query %s: %w", q.Table, err)
	}
	return t, meta, nil
}

// checkColumns rejects filters naming columns the table does not have,
// which SQL would silently treat as Null.
func checkColumns(q querysql.Select, meta TableMeta) []error {
	known := make(map[frame.ColumnRef]bool, len(meta.Columns))
	for _, r := range meta.Columns {
		known[r] = true
	}
	var errs []error
	for _, r := range classify.Refs(q.Filter) {
		if !known[r] {
			errs = append(errs, fmt.Errorf("unknown column %s", r))
		}
	}
	return errs
}

// VerifyTable re-reads a stored table and checks its content hash against
// the one recorded at write time.
func (s *Store) VerifyTable(ctx context.Context, name string) (TableMeta, error) {
	t, meta, err := s.ReadTable(ctx, name)
	if err != nil {
		return meta, err
	}
	got, err := t.ContentHash()
	if err != nil {
		return meta, fmt.Errorf("verify %s: %w", name, err)
	}
	if got != meta.ContentHash {
		return meta, &HashMismatchError{Name: name, Stored: meta.ContentHash, Computed: got}
	}
	return meta, nil
}

// HashMismatchError reports a stored table whose content no longer hashes
// to its recorded content hash.
type HashMismatchError struct {
	Name     string
	Stored   string
	Computed string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("table %s: stored hash %s, content hashes to %s", e.Name, e.Stored, e.Computed)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
