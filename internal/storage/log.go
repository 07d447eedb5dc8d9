package storage

import (
	"context"
	"errors"

	"github.com/runnerr0/visitlog/internal/record"
)

var (
	// ErrCursorNotFound means AppendFrom was given a cursor that is not in
	// the collection, so the unsaved prefix cannot be determined.
	ErrCursorNotFound = errors.New("persistence cursor not found in history")

	// ErrUnknownBackend is returned by Open for an unrecognised backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Log is the persistent, append-only record of history chunks.
type Log interface {
	// LoadAll returns every stored chunk, oldest first.
	LoadAll(ctx context.Context) (ChunkIterator, error)

	// AppendFrom appends the entries newer than cursor. entries is
	// newest first; the written prefix goes oldest first. It returns the
	// number of entries written.
	AppendFrom(ctx context.Context, cursor record.Key, entries []record.Entry) (int, error)

	// RewriteAll atomically replaces the log with entries (newest first in
	// memory, written oldest first).
	RewriteAll(ctx context.Context, entries []record.Entry) error

	// Location describes where the log lives.
	Location() string

	Close() error
}

// ChunkIterator is a lazy, single-pass sequence of raw chunks.
type ChunkIterator interface {
	Next() bool
	Chunk() []byte
	// Err returns the first hard read error. A truncated trailing frame is
	// not an error; see Truncated.
	Err() error
	// Truncated reports whether iteration stopped at a partial or corrupt
	// trailing frame.
	Truncated() bool
	Close() error
}

// UnsavedPrefix returns the entries strictly newer than cursor, i.e.
// those preceding it in the newest-first slice.
func UnsavedPrefix(cursor record.Key, entries []record.Entry) ([]record.Entry, error) {
	for i, e := range entries {
		if e.Key() == cursor {
			return entries[:i], nil
		}
	}
	return nil, ErrCursorNotFound
}

type emptyIterator struct{}

func (emptyIterator) Next() bool      { return false }
func (emptyIterator) Chunk() []byte   { return nil }
func (emptyIterator) Err() error      { return nil }
func (emptyIterator) Truncated() bool { return false }
func (emptyIterator) Close() error    { return nil }
