package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/hierframe/internal/frame"
)

// TableMeta describes one persisted table.
type TableMeta struct {
	Name        string
	Study       string
	Output      string
	BatchID     string
	Seq         int64
	Depth       int
	Ragged      bool
	Columns     []frame.ColumnRef
	RowCount    int
	ContentHash string
	CreatedAt   time.Time
}

// TableName returns the persisted name of an output's table for batch seq.
func TableName(output string, seq int64) string {
	return fmt.Sprintf("%s_%d", output, seq)
}

// ConflictError reports a write of different content under an existing
// table name.
type ConflictError struct {
	Name         string
	ExistingHash string
	NewHash      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("table %s already stored with hash %s, refusing %s", e.Name, e.ExistingHash, e.NewHash)
}

// IsConflictError returns true if err is or wraps a *ConflictError.
func IsConflictError(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// WriteTable persists t with its metadata in one transaction.
//
// Depth, columns, row count and content hash are taken from t; Name
// defaults to TableName(Output, Seq). Writing the same content under the
// same name again is a no-op reporting inserted=false. Different content
// under an existing name fails with *ConflictError.
func (s *Store) WriteTable(ctx context.Context, meta TableMeta, t *frame.Table) (TableMeta, bool, error) {
	if meta.Output == "" {
		return meta, false, fmt.Errorf("write table: output name is required")
	}
	if meta.Name == "" {
		meta.Name = TableName(meta.Output, meta.Seq)
	}
	hash, err := t.ContentHash()
	if err != nil {
		return meta, false, fmt.Errorf("write table %s: %w", meta.Name, err)
	}
	meta.Depth = t.Depth()
	meta.Ragged = t.Ragged()
	meta.Columns = t.Columns()
	meta.RowCount = t.Len()
	meta.ContentHash = hash

	columnsJSON, err := marshalColumns(meta.Columns)
	if err != nil {
		return meta, false, fmt.Errorf("write table %s: %w", meta.Name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return meta, false, fmt.Errorf("write table %s: begin tx: %w", meta.Name, err)
	}
	defer tx.Rollback() // No-op if committed

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT content_hash FROM tables WHERE name = ?`, meta.Name).Scan(&existing)
	switch {
	case err == nil:
		if existing != hash {
			return meta, false, &ConflictError{Name: meta.Name, ExistingHash: existing, NewHash: hash}
		}
		return meta, false, nil
	case !isNoRows(err):
		return meta, false, fmt.Errorf("write table %s: %w", meta.Name, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tables
		(name, study, output, batch_id, seq, depth, ragged, columns, row_count, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		meta.Name,
		meta.Study,
		meta.Output,
		meta.BatchID,
		meta.Seq,
		meta.Depth,
		meta.Ragged,
		columnsJSON,
		meta.RowCount,
		meta.ContentHash,
		meta.CreatedAt.UnixNano(),
	)
	if err != nil {
		return meta, false, fmt.Errorf("write table %s: %w", meta.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO rows (table_name, idx, key, cells) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return meta, false, fmt.Errorf("write table %s: prepare rows: %w", meta.Name, err)
	}
	defer stmt.Close()

	for i := 0; i < t.Len(); i++ {
		cells, err := t.MarshalCells(i)
		if err != nil {
			return meta, false, fmt.Errorf("write table %s: %w", meta.Name, err)
		}
		if _, err := stmt.ExecContext(ctx, meta.Name, i, string(frame.MarshalKey(t.Key(i))), string(cells)); err != nil {
			return meta, false, fmt.Errorf("write table %s row %d: %w", meta.Name, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return meta, false, fmt.Errorf("write table %s: commit: %w", meta.Name, err)
	}
	return meta, true, nil
}

// DeleteTable removes a table and its rows. Deleting a missing table is
// not an error.
func (s *Store) DeleteTable(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tables WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete table %s: %w", name, err)
	}
	return nil
}
