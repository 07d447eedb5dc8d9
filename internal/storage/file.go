package storage

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/runnerr0/visitlog/internal/logging"
	"github.com/runnerr0/visitlog/internal/record"
)

// MaxFrameSize bounds a single chunk. A larger length prefix is treated
// as corruption.
const MaxFrameSize = 16 << 20

var storeLog = logging.ForComponent(logging.CompStorage)

// FileLog stores chunks in a single file as uint32 big-endian length
// prefixed frames, oldest first.
type FileLog struct {
	path string
}

// NewFileLog returns a FileLog backed by path. The file is created on the
// first save.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

// Location returns the backing file path.
func (l *FileLog) Location() string { return l.path }

// Close is a no-op; files are opened per operation.
func (l *FileLog) Close() error { return nil }

// LoadAll opens the backing file for a single sequential read. A missing
// or unreadable file yields an empty iterator.
func (l *FileLog) LoadAll(ctx context.Context) (ChunkIterator, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			storeLog.Warn("history_open_failed", slog.String("path", l.path), slog.String("error", err.Error()))
		}
		return emptyIterator{}, nil
	}
	return &fileIterator{ctx: ctx, f: f, r: bufio.NewReader(f)}, nil
}

// AppendFrom appends the unsaved prefix of entries to the end of the file.
func (l *FileLog) AppendFrom(ctx context.Context, cursor record.Key, entries []record.Entry) (int, error) {
	prefix, err := UnsavedPrefix(cursor, entries)
	if err != nil {
		return 0, err
	}
	if len(prefix) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return 0, fmt.Errorf("create history directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return 0, fmt.Errorf("open history for append: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("stat history: %w", err)
	}
	start := info.Size()

	if err := writeFrames(ctx, f, prefix); err != nil {
		if terr := f.Truncate(start); terr != nil {
			storeLog.Warn("history_truncate_failed", slog.String("path", l.path), slog.String("error", terr.Error()))
		}
		f.Close()
		return 0, fmt.Errorf("append history: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close history: %w", err)
	}
	return len(prefix), nil
}

// RewriteAll writes entries to a temporary file beside the log and renames
// it over the log. The previous file is untouched if any step fails.
func (l *FileLog) RewriteAll(ctx context.Context, entries []record.Entry) error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary history: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := writeFrames(ctx, tmp, entries); err != nil {
		tmp.Close()
		return fmt.Errorf("write temporary history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temporary history: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("chmod temporary history: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	committed = true
	return nil
}

// writeFrames writes entries (newest first) to f oldest first and syncs.
func writeFrames(ctx context.Context, f *os.File, entries []record.Entry) error {
	w := bufio.NewWriter(f)
	var size [4]byte
	for i := len(entries) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, err := record.Encode(entries[i])
		if err != nil {
			return err
		}
		if len(chunk) > MaxFrameSize {
			return fmt.Errorf("record for %s is %d bytes, over the %d byte frame limit", entries[i].URL, len(chunk), MaxFrameSize)
		}
		binary.BigEndian.PutUint32(size[:], uint32(len(chunk)))
		if _, err := w.Write(size[:]); err != nil {
			return err
		}
		if _, err := w.Write(chunk); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

type fileIterator struct {
	ctx       context.Context
	f         *os.File
	r         *bufio.Reader
	chunk     []byte
	err       error
	truncated bool
	done      bool
}

func (it *fileIterator) Next() bool {
	if it.done {
		return false
	}
	if err := it.ctx.Err(); err != nil {
		return it.stop(err, false)
	}

	var size [4]byte
	if _, err := io.ReadFull(it.r, size[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return it.stop(nil, false)
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return it.stop(nil, true)
		}
		return it.stop(fmt.Errorf("read history frame: %w", err), false)
	}

	n := binary.BigEndian.Uint32(size[:])
	if n > MaxFrameSize {
		return it.stop(nil, true)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(it.r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return it.stop(nil, true)
		}
		return it.stop(fmt.Errorf("read history frame: %w", err), false)
	}
	it.chunk = buf
	return true
}

func (it *fileIterator) stop(err error, truncated bool) bool {
	it.done = true
	it.chunk = nil
	it.err = err
	it.truncated = truncated
	return false
}

func (it *fileIterator) Chunk() []byte   { return it.chunk }
func (it *fileIterator) Err() error      { return it.err }
func (it *fileIterator) Truncated() bool { return it.truncated }
func (it *fileIterator) Close() error    { return it.f.Close() }
