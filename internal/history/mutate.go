package history

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/runnerr0/visitlog/internal/metrics"
	"github.com/runnerr0/visitlog/internal/record"
)

// AddEntry records a visit to rawURL at now. It returns false when the
// visit is ignored: private browsing, an ignored scheme or excluded host,
// an unparseable URL, or an exact duplicate of an existing visit.
func (s *Store) AddEntry(rawURL string, now time.Time) (record.Entry, bool) {
	cleaned, scheme, err := record.CleanURL(rawURL)
	if err != nil {
		histLog.Debug("history_url_rejected", slog.String("url", rawURL), slog.String("error", err.Error()))
		return record.Entry{}, false
	}

	s.mu.Lock()
	defer s.unlock()

	if s.closed || s.private || s.ignored[scheme] || s.excludedHost(cleaned) {
		return record.Entry{}, false
	}

	e := record.Entry{URL: cleaned, VisitedAt: time.Unix(now.Unix(), 0)}
	ts := e.VisitedAt.Unix()

	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].VisitedAt.Unix() <= ts
	})
	for j := i; j < len(s.entries) && s.entries[j].VisitedAt.Unix() == ts; j++ {
		if s.entries[j].URL == cleaned {
			return record.Entry{}, false
		}
	}

	becameOldest := i == len(s.entries)
	s.entries = append(s.entries, record.Entry{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e

	// Anything older than the cursor is already behind the append point.
	if !s.cursor.IsZero() && ts < s.cursor.Unix {
		s.cursor = record.Key{}
	}

	s.rememberLocked(e)
	metrics.EntriesAddedTotal.Inc()
	metrics.Entries.Set(float64(len(s.entries)))
	s.markDirtyLocked()
	s.emit(event{kind: eventAdded, entry: e})

	if becameOldest {
		s.checkExpiredLocked()
	}
	return e, true
}

// UpdateTitle sets the title of the most recent visit to rawURL.
func (s *Store) UpdateTitle(rawURL, title string) bool {
	u := cleanForLookup(rawURL)

	s.mu.Lock()
	defer s.unlock()

	if s.closed {
		return false
	}
	for i := range s.entries {
		if s.entries[i].URL != u {
			continue
		}
		s.entries[i].Title = title

		// A record at or behind the cursor is already on disk.
		if !s.cursor.IsZero() {
			if c := s.indexOfLocked(s.cursor); c < 0 || i >= c {
				s.cursor = record.Key{}
			}
		}
		s.markDirtyLocked()
		s.emit(event{kind: eventUpdated, index: i, entry: s.entries[i]})
		return true
	}
	return false
}

// RemoveEntry removes the visit with e's identity.
func (s *Store) RemoveEntry(e record.Entry) bool {
	s.mu.Lock()
	defer s.unlock()

	if s.closed {
		return false
	}
	i := s.indexOfLocked(e.Key())
	if i < 0 {
		return false
	}
	s.removeAtLocked(i)
	return true
}

// RemoveByURL removes the most recent visit to rawURL whose title matches.
// An empty title matches any.
func (s *Store) RemoveByURL(rawURL, title string) bool {
	u := cleanForLookup(rawURL)

	s.mu.Lock()
	defer s.unlock()

	if s.closed {
		return false
	}
	for i, e := range s.entries {
		if e.URL == u && (title == "" || e.Title == title) {
			s.removeAtLocked(i)
			return true
		}
	}
	return false
}

// PruneBefore removes every visit older than cutoff and returns how many
// were removed.
func (s *Store) PruneBefore(cutoff time.Time) int {
	s.mu.Lock()
	defer s.unlock()

	if s.closed {
		return 0
	}
	keep := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].VisitedAt.Before(cutoff)
	})
	return s.truncateLocked(keep)
}

func (s *Store) removeAtLocked(i int) {
	e := s.entries[i]
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.forgetLocked(e)
	s.cursor = record.Key{}
	metrics.Entries.Set(float64(len(s.entries)))
	s.markDirtyLocked()
	s.emit(event{kind: eventRemoved, entry: e})
}

// truncateLocked drops entries from index keep onwards, oldest first.
func (s *Store) truncateLocked(keep int) int {
	n := len(s.entries) - keep
	if n <= 0 {
		return 0
	}
	for i := len(s.entries) - 1; i >= keep; i-- {
		e := s.entries[i]
		s.forgetLocked(e)
		s.emit(event{kind: eventRemoved, entry: e})
	}
	clear(s.entries[keep:])
	s.entries = s.entries[:keep]
	s.cursor = record.Key{}
	metrics.Entries.Set(float64(len(s.entries)))
	s.markDirtyLocked()
	return n
}

// SetHistory replaces the collection. Unless loadedAndSorted, entries are
// sorted newest first and the next save rewrites everything.
func (s *Store) SetHistory(entries []record.Entry, loadedAndSorted bool) {
	s.mu.Lock()
	defer s.unlock()

	if s.closed {
		return
	}
	s.setHistoryLocked(append([]record.Entry(nil), entries...), loadedAndSorted)
}

func (s *Store) setHistoryLocked(entries []record.Entry, loadedAndSorted bool) {
	if !loadedAndSorted {
		sortNewestFirst(entries)
	}
	s.entries = entries
	s.rebuildLocked()

	if loadedAndSorted && len(entries) > 0 {
		s.cursor = entries[0].Key()
	} else {
		s.cursor = record.Key{}
	}
	if !loadedAndSorted {
		s.markDirtyLocked()
	}

	s.checkExpiredLocked()
	s.emit(event{kind: eventReset})
}

// SetLimit changes the retention horizon and applies it immediately.
func (s *Store) SetLimit(days int) {
	s.mu.Lock()
	defer s.unlock()

	if s.closed || days == s.limit {
		return
	}
	s.limit = days
	histLog.Info("history_limit_changed", slog.Int("limit_days", days))
	s.checkExpiredLocked()
	s.markDirtyLocked()
}

// Clear empties the history and saves immediately. Observers get a single
// reset rather than per-entry removals.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlock()

	if s.closed {
		return ErrClosed
	}
	s.entries = nil
	s.rebuildLocked()
	s.cursor = record.Key{}
	s.expiry.Stop()
	s.markDirtyLocked()
	s.emit(event{kind: eventReset})
	return s.saveLocked(ctx)
}
