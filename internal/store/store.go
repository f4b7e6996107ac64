package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store persists built tables in SQLite, one metadata row in tables and one
// row per table row in rows.
type Store struct {
	db *sql.DB
}

// connParams are go-sqlite3 DSN options, applied to every connection the
// driver opens. _txlock=immediate takes the write lock at BEGIN, so the
// exists-then-insert check in WriteTable cannot race another process.
var connParams = url.Values{
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_busy_timeout": {"5000"},
	"_foreign_keys": {"on"},
	"_txlock":       {"immediate"},
}

// bulkPragmas tune the single connection for large row inserts. They are
// per connection and not expressible as DSN options.
var bulkPragmas = []string{
	"PRAGMA temp_store = MEMORY",
	"PRAGMA cache_size = -32768", // KiB
}

// migration upgrades a database whose user_version is below version.
type migration struct {
	version int
	stmt    string
}

// migrations run in order after schema.sql. Each must be idempotent, since
// a fresh database already has the objects schema.sql creates.
var migrations = []migration{
	// Databases written before study listing was indexed.
	{version: 1, stmt: `CREATE INDEX IF NOT EXISTS idx_tables_study ON tables(study, output, seq)`},
}

// Open creates or opens the table store at path, then brings its schema up
// to date. Opening an existing store is a no-op apart from pending
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?"+connParams.Encode())
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	// One connection: a single writer, and bulkPragmas stay in effect.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, p := range bulkPragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("open store %s: %q: %w", path, p, err)
		}
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// New wraps an already opened database. Unlike Open it applies no pragmas
// or schema; the caller owns both.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database. A zero Store closes cleanly.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the handle for read-only SQL over stored tables.
func (s *Store) DB() *sql.DB {
	return s.db
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("schema: user_version: %w", err)
	}
	for _, m := range migrations {
		if version >= m.version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("schema: migrate to v%d: %w", m.version, err)
		}
		version = m.version
	}
	// PRAGMA takes no bind parameters.
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("schema: set user_version: %w", err)
	}
	return nil
}

// pragma reads a pragma's current value as text.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("pragma %s: %w", name, err)
	}
	return value, nil
}
