package storage

import (
	"fmt"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Options selects and locates a Log.
type Options struct {
	Backend string
	Dir     string

	// HistoryFile is the file name used by the file backend.
	HistoryFile string

	// SQLiteFile and JournalMode configure the sqlite backend.
	SQLiteFile  string
	JournalMode string
}

// Open returns the Log described by opts.
func Open(opts Options) (Log, error) {
	switch opts.Backend {
	case "", BackendFile:
		name := opts.HistoryFile
		if name == "" {
			name = "history"
		}
		return NewFileLog(filepath.Join(opts.Dir, name)), nil
	case BackendSQLite:
		name := opts.SQLiteFile
		if name == "" {
			name = "history.db"
		}
		return OpenSQLiteLog(filepath.Join(opts.Dir, name), opts.JournalMode)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
