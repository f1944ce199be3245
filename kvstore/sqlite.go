package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by a single SQLite database file. It uses the
// cgo-free modernc.org/sqlite driver, so the resulting binary stays fully
// static.
//
// Layout is a single table kv(key TEXT PRIMARY KEY, value BLOB NOT NULL). In
// write mode the database runs in WAL journal mode and the connection pool is
// capped at one connection, giving a single-writer discipline. In read-only
// mode the file is opened with mode=ro and multiple connections may serve
// concurrent readers.
type SQLiteStore struct {
	db       *sql.DB
	readOnly bool

	// hasTable is false when a read-only open finds no kv table (for example
	// an empty database file). Such a store behaves as empty rather than
	// erroring on every read.
	hasTable bool
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (and in write mode, creates) the SQLite-backed store at
// path. A read-only open of a missing file fails immediately rather than on
// first use.
func OpenSQLite(path string, readOnly bool) (*SQLiteStore, error) {
	dsn := path
	if readOnly {
		// SQLite URI filenames treat ? and # as metacharacters.
		r := strings.NewReplacer("?", "%3f", "#", "%23")
		dsn = "file:" + r.Replace(path) + "?mode=ro"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open sqlite %q: %w", path, err)
	}

	s := &SQLiteStore{db: db, readOnly: readOnly, hasTable: true}

	if readOnly {
		// sql.Open is lazy; ping now so a missing or unreadable file is
		// reported by Open instead of by the first query.
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("kvstore: open sqlite %q: %w", path, err)
		}
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'kv'`).Scan(&name)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			s.hasTable = false
		case err != nil:
			db.Close()
			return nil, fmt.Errorf("kvstore: probe sqlite %q: %w", path, err)
		}
		return s, nil
	}

	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA synchronous = NORMAL`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("kvstore: configure sqlite %q: %w", path, err)
		}
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value BLOB NOT NULL)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("kvstore: init sqlite %q: %w", path, err)
	}
	return s, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !s.hasTable {
		return nil, false, nil
	}
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("kvstore: get %q: %w", key, err)
	}
	return value, true, nil
}

// Put implements Store. A nil value is stored as an empty one; the value
// column is NOT NULL.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("kvstore: put %q: %w", key, err)
	}
	return nil
}

// ForEach implements Store.
func (s *SQLiteStore) ForEach(ctx context.Context, fn func(key string, value []byte) error) error {
	if !s.hasTable {
		return nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM kv ORDER BY key`)
	if err != nil {
		return fmt.Errorf("kvstore: iterate: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("kvstore: iterate: %w", err)
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("kvstore: iterate: %w", err)
	}
	return nil
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	if !s.hasTable {
		return 0, nil
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv`).Scan(&n); err != nil {
		return 0, fmt.Errorf("kvstore: count: %w", err)
	}
	return n, nil
}

// ReadOnly implements Store.
func (s *SQLiteStore) ReadOnly() bool {
	return s.readOnly
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return os.ErrClosed
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("kvstore: close sqlite: %w", err)
	}
	return nil
}
