package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/runnerr0/visitlog/internal/metrics"
	"github.com/runnerr0/visitlog/internal/record"
)

// Load replaces the collection with the contents of the log. Malformed
// records are skipped. Adjacent duplicates are merged, back-filling an
// empty title. If the log was out of order or ended in a partial record,
// the next save rewrites it.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlock()

	if s.closed {
		return ErrClosed
	}

	it, err := s.log.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	defer it.Close()

	var (
		list     []record.Entry
		last     record.Entry
		needSort bool
		skipped  int
	)
	for it.Next() {
		e, err := record.Decode(it.Chunk())
		if err != nil {
			skipped++
			metrics.MalformedRecordsTotal.Inc()
			histLog.Debug("history_record_skipped", slog.String("error", err.Error()))
			continue
		}

		if len(list) > 0 && e.Key() == last.Key() {
			if last.Title == "" {
				list[len(list)-1].Title = e.Title
			}
			continue
		}
		if !needSort && len(list) > 0 && last.Newer(e) {
			needSort = true
		}
		list = append(list, e)
		last = e
	}
	if err := it.Err(); err != nil {
		histLog.Warn("history_read_failed",
			slog.String("path", s.log.Location()),
			slog.Int("loaded", len(list)),
			slog.String("error", err.Error()))
	}
	truncated := it.Truncated()

	// Read oldest first; the collection is newest first.
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	if needSort {
		sortNewestFirst(list)
	}

	s.setHistoryLocked(list, true)
	if needSort || truncated {
		s.cursor = record.Key{}
		s.markDirtyLocked()
	}

	histLog.Info("history_loaded",
		slog.String("path", s.log.Location()),
		slog.Int("entries", len(s.entries)),
		slog.Int("skipped", skipped),
		slog.Bool("resorted", needSort),
		slog.Bool("truncated", truncated))
	return nil
}

// Save persists unsaved changes. It appends when the cursor marks a known
// saved prefix with newer entries in front of it, and rewrites otherwise.
// On failure memory stays authoritative and the next save retries.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlock()

	if s.closed {
		return ErrClosed
	}
	return s.saveLocked(ctx)
}

func (s *Store) saveIfDirty() error {
	s.mu.Lock()
	defer s.unlock()

	if s.closed || !s.dirty {
		return nil
	}
	return s.saveLocked(context.Background())
}

func (s *Store) saveLocked(ctx context.Context) error {
	mode := metrics.ModeAppend
	written := 0
	var err error

	if s.needsRewriteLocked() {
		mode = metrics.ModeRewrite
		written = len(s.entries)
		err = s.log.RewriteAll(ctx, s.entries)
	} else {
		written, err = s.log.AppendFrom(ctx, s.cursor, s.entries)
	}

	if err != nil {
		// A failed append may have left frames on disk; the retry must
		// rewrite the whole log.
		if mode == metrics.ModeAppend {
			s.cursor = record.Key{}
		}
		metrics.SaveFailuresTotal.Inc()
		histLog.Warn("history_save_failed",
			slog.String("path", s.log.Location()),
			slog.String("mode", mode),
			slog.String("error", err.Error()))
		return fmt.Errorf("save history: %w", err)
	}

	metrics.SavesTotal.WithLabelValues(mode).Inc()
	if len(s.entries) > 0 {
		s.cursor = s.entries[0].Key()
	} else {
		s.cursor = record.Key{}
	}
	s.dirty = false
	histLog.Debug("history_saved", slog.String("mode", mode), slog.Int("written", written))
	return nil
}

func (s *Store) needsRewriteLocked() bool {
	if s.cursor.IsZero() || len(s.entries) == 0 {
		return true
	}
	if s.entries[0].Key() == s.cursor {
		return true
	}
	return s.indexOfLocked(s.cursor) < 0
}
