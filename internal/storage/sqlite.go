package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/runnerr0/visitlog/internal/record"
)

// SQLiteLog stores the same chunks as FileLog, one row per record, in a
// SQLite table ordered by insertion sequence.
type SQLiteLog struct {
	db       *sql.DB
	location string
	ownsDB   bool

	insertChunk *sql.Stmt
}

// OpenSQLiteLog opens (creating if needed) the database at path, applies
// migrations and returns a log that closes the database on Close.
func OpenSQLiteLog(path, journalMode string) (*SQLiteLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if journalMode == "" {
		journalMode = "wal"
	}
	if err := NewMigrationRunner(db).RunWithJournalMode(journalMode); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	l, err := NewSQLiteLog(db, path)
	if err != nil {
		db.Close()
		return nil, err
	}
	l.ownsDB = true
	return l, nil
}

// NewSQLiteLog wraps an already-opened and migrated database. The caller
// keeps ownership of db.
func NewSQLiteLog(db *sql.DB, location string) (*SQLiteLog, error) {
	l := &SQLiteLog{db: db, location: location}

	var err error
	l.insertChunk, err = db.Prepare(`
		INSERT INTO history_chunks (url, visited_at, chunk)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}
	return l, nil
}

// Location returns the database path.
func (l *SQLiteLog) Location() string { return l.location }

// LoadAll streams chunks in write order. Query failures are logged and
// treated as an empty history.
func (l *SQLiteLog) LoadAll(ctx context.Context) (ChunkIterator, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT chunk FROM history_chunks ORDER BY seq")
	if err != nil {
		storeLog.Warn("history_query_failed", slog.String("path", l.location), slog.String("error", err.Error()))
		return emptyIterator{}, nil
	}
	return &rowsIterator{rows: rows}, nil
}

// AppendFrom inserts the unsaved prefix in one transaction.
func (l *SQLiteLog) AppendFrom(ctx context.Context, cursor record.Key, entries []record.Entry) (int, error) {
	prefix, err := UnsavedPrefix(cursor, entries)
	if err != nil {
		return 0, err
	}
	if len(prefix) == 0 {
		return 0, nil
	}

	if err := l.inTx(ctx, func(tx *sql.Tx) error {
		return l.insertOldestFirst(ctx, tx, prefix)
	}); err != nil {
		return 0, fmt.Errorf("append history: %w", err)
	}
	return len(prefix), nil
}

// RewriteAll replaces every row inside a single transaction.
func (l *SQLiteLog) RewriteAll(ctx context.Context, entries []record.Entry) error {
	err := l.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM history_chunks"); err != nil {
			return fmt.Errorf("clear chunks: %w", err)
		}
		return l.insertOldestFirst(ctx, tx, entries)
	})
	if err != nil {
		return fmt.Errorf("rewrite history: %w", err)
	}
	return nil
}

// Count returns the number of stored rows.
func (l *SQLiteLog) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM history_chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// Close releases the prepared statement, and the database if this log
// opened it.
func (l *SQLiteLog) Close() error {
	if l.insertChunk != nil {
		l.insertChunk.Close()
	}
	if l.ownsDB {
		return l.db.Close()
	}
	return nil
}

func (l *SQLiteLog) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (l *SQLiteLog) insertOldestFirst(ctx context.Context, tx *sql.Tx, entries []record.Entry) error {
	stmt := tx.StmtContext(ctx, l.insertChunk)
	defer stmt.Close()

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		chunk, err := record.Encode(e)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, e.URL, e.VisitedAt.Unix(), chunk); err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}
	return nil
}

type rowsIterator struct {
	rows  *sql.Rows
	chunk []byte
	err   error
}

func (it *rowsIterator) Next() bool {
	if !it.rows.Next() {
		it.err = it.rows.Err()
		it.chunk = nil
		return false
	}
	var chunk []byte
	if err := it.rows.Scan(&chunk); err != nil {
		it.err = fmt.Errorf("scan chunk: %w", err)
		it.chunk = nil
		return false
	}
	it.chunk = chunk
	return true
}

func (it *rowsIterator) Chunk() []byte   { return it.chunk }
func (it *rowsIterator) Err() error      { return it.err }
func (it *rowsIterator) Truncated() bool { return false }
func (it *rowsIterator) Close() error    { return it.rows.Close() }
