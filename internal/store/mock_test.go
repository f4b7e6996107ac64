package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sqlmock tests cover driver failures a real SQLite file will not produce
// on demand.

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func expectFreshInsert(mock sqlmock.Sqlmock, name string) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT content_hash FROM tables WHERE name = ?`)).
		WithArgs(name).
		WillReturnRows(sqlmock.NewRows([]string{"content_hash"}))
	mock.ExpectExec(`INSERT INTO tables`).WillReturnResult(sqlmock.NewResult(1, 1))
}

func TestWriteTable_RowFailureRollsBack(t *testing.T) {
	s, mock := newMockStore(t)
	tbl := createTestTable(t)

	expectFreshInsert(mock, "kmc_0")
	prep := mock.ExpectPrepare(`INSERT INTO rows`)
	prep.ExpectExec().
		WithArgs("kmc_0", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	_, inserted, err := s.WriteTable(context.Background(), createTestMeta("kmc", 0), tbl)
	require.Error(t, err)
	assert.False(t, inserted)
	assert.Contains(t, err.Error(), "write table kmc_0 row 0")
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteTable_CommitFailure(t *testing.T) {
	s, mock := newMockStore(t)
	tbl := createTestTable(t)

	expectFreshInsert(mock, "kmc_3")
	prep := mock.ExpectPrepare(`INSERT INTO rows`)
	for range tbl.Len() {
		prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	_, inserted, err := s.WriteTable(context.Background(), createTestMeta("kmc", 3), tbl)
	require.Error(t, err)
	assert.False(t, inserted)
	assert.Contains(t, err.Error(), "commit")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadMeta_DriverErrorIsNotNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM tables WHERE name = \?`).
		WithArgs("kmc_0").
		WillReturnError(errors.New("database is locked"))

	_, err := s.ReadMeta(context.Background(), "kmc_0")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "database is locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTables_ScansMetadata(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Unix(1700000000, 0).UTC()

	rows := sqlmock.NewRows([]string{
		"name", "study", "output", "batch_id", "seq", "depth", "ragged",
		"columns", "row_count", "content_hash", "created_at",
	}).AddRow("kmc_2", "kmc", "kmc", "b-2", int64(2), int64(2), int64(0),
		`["nmuplus","nu.E","true_type"]`, int64(5), "abc123", created.UnixNano())
	mock.ExpectQuery(`FROM tables WHERE study = \? ORDER BY study`).
		WithArgs("kmc").
		WillReturnRows(rows)

	metas, err := s.ListTables(context.Background(), "kmc")
	require.NoError(t, err)
	require.Len(t, metas, 1)

	m := metas[0]
	assert.Equal(t, "kmc_2", m.Name)
	assert.Equal(t, int64(2), m.Seq)
	assert.False(t, m.Ragged)
	assert.Equal(t, 5, m.RowCount)
	assert.Equal(t, created, m.CreatedAt)
	require.Len(t, m.Columns, 3)
	assert.Equal(t, "nu.E", m.Columns[1].String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTables_BadColumnsJSON(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{
		"name", "study", "output", "batch_id", "seq", "depth", "ragged",
		"columns", "row_count", "content_hash", "created_at",
	}).AddRow("kmc_0", "kmc", "kmc", "b-0", int64(0), int64(2), int64(0),
		`not json`, int64(0), "abc", int64(0))
	mock.ExpectQuery(`FROM tables ORDER BY study`).WillReturnRows(rows)

	_, err := s.ListTables(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal columns")
}
