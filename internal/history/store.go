// Package history owns the in-memory visit log: its ordering, retention,
// persistence cursor and change notifications.
package history

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/runnerr0/visitlog/internal/autosave"
	"github.com/runnerr0/visitlog/internal/clock"
	"github.com/runnerr0/visitlog/internal/completion"
	"github.com/runnerr0/visitlog/internal/expiry"
	"github.com/runnerr0/visitlog/internal/logging"
	"github.com/runnerr0/visitlog/internal/metrics"
	"github.com/runnerr0/visitlog/internal/record"
	"github.com/runnerr0/visitlog/internal/storage"
)

// ErrClosed is returned by Save after Close.
var ErrClosed = errors.New("history store is closed")

// DefaultIgnoredSchemes are the application's own pseudo-schemes, never
// recorded.
var DefaultIgnoredSchemes = []string{"rekonq"}

var histLog = logging.ForComponent(logging.CompHistory)

// Options configures a Store.
type Options struct {
	// LimitDays is the retention horizon. expiry.Unlimited keeps
	// everything; zero expires entries on the next check.
	LimitDays int

	// Clock drives expiry and autosave timers. Nil uses the wall clock.
	Clock clock.Clock

	// IgnoredSchemes are never recorded. Nil selects DefaultIgnoredSchemes.
	IgnoredSchemes []string

	// ExcludedHosts are never recorded. Subdomains of a listed host are
	// excluded too.
	ExcludedHosts []string

	// Private starts the store with private browsing on.
	Private bool

	// Autosave timings. Zero selects the autosave package defaults.
	AutosaveDelay   time.Duration
	AutosaveMaxWait time.Duration
}

// Store is the history collection. The collection, cursor, limit and dirty
// flag are guarded by one mutex.
type Store struct {
	log        storage.Log
	clock      clock.Clock
	ignored    map[string]bool
	excluded   []string
	completion *completion.Index
	expiry     *expiry.Scheduler
	autosave   *autosave.Saver

	mu        sync.Mutex
	entries   []record.Entry
	urls      map[string]int
	limit     int
	cursor    record.Key
	dirty     bool
	changed   bool
	private   bool
	closed    bool
	pending   []event
	observers map[int]Observer
	nextObs   int
	ticket    uint64

	// served counts finished deliveries; guarded by deliverMu.
	deliverMu sync.Mutex
	turn      *sync.Cond
	served    uint64
}

// New returns an empty store persisting to log. The caller keeps ownership
// of log and closes it after Close.
func New(log storage.Log, opts Options) *Store {
	c := opts.Clock
	if c == nil {
		c = clock.Real()
	}
	schemes := opts.IgnoredSchemes
	if schemes == nil {
		schemes = DefaultIgnoredSchemes
	}

	s := &Store{
		log:        log,
		clock:      c,
		ignored:    make(map[string]bool, len(schemes)),
		completion: completion.New(),
		urls:       make(map[string]int),
		limit:      opts.LimitDays,
		private:    opts.Private,
		observers:  make(map[int]Observer),
	}
	for _, scheme := range schemes {
		s.ignored[strings.ToLower(strings.TrimSuffix(scheme, ":"))] = true
	}
	for _, h := range opts.ExcludedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			s.excluded = append(s.excluded, strings.TrimPrefix(h, "."))
		}
	}
	s.turn = sync.NewCond(&s.deliverMu)
	s.expiry = expiry.NewScheduler(c, s.CheckForExpired)
	s.autosave = autosave.New(c, opts.AutosaveDelay, opts.AutosaveMaxWait, s.saveIfDirty)
	return s
}

// Open returns a store loaded from log.
func Open(ctx context.Context, log storage.Log, opts Options) (*Store, error) {
	s := New(log, opts)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close stops the expiry and autosave timers and flushes unsaved changes.
// It is safe to call more than once.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.expiry.Stop()
	s.autosave.Stop()

	if !s.dirty {
		return nil
	}
	return s.saveLocked(ctx)
}

// Subscribe registers o and returns a function that removes it.
func (s *Store) Subscribe(o Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = o
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// History returns a copy of the collection, newest first.
func (s *Store) History() []record.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]record.Entry(nil), s.entries...)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Contains reports whether any entry has exactly this URL after cleaning.
func (s *Store) Contains(rawURL string) bool {
	u := cleanForLookup(rawURL)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.urls[u] > 0
}

// Limit returns the retention horizon in days.
func (s *Store) Limit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limit
}

// CursorURL returns the URL of the newest durably saved entry, or "".
func (s *Store) CursorURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor.URL
}

// Dirty reports whether there are unsaved changes.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Private reports whether private browsing is on.
func (s *Store) Private() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.private
}

// SetPrivate toggles private browsing. While on, AddEntry records nothing.
func (s *Store) SetPrivate(on bool) {
	s.mu.Lock()
	s.private = on
	s.mu.Unlock()
}

// Completion returns the autocomplete index. It has its own lock and may
// be queried concurrently with mutations.
func (s *Store) Completion() *completion.Index {
	return s.completion
}

// Location describes where the history is persisted.
func (s *Store) Location() string {
	return s.log.Location()
}

// unlock releases mu, then delivers queued notifications and tells the
// autosaver about changes. Deliveries take a ticket under mu so that
// concurrent mutators notify observers in the order they held the lock.
func (s *Store) unlock() {
	events := s.pending
	s.pending = nil
	changed := s.changed
	s.changed = false

	var obs []Observer
	var ticket uint64
	if len(events) > 0 && len(s.observers) > 0 {
		ids := make([]int, 0, len(s.observers))
		for id := range s.observers {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		obs = make([]Observer, len(ids))
		for i, id := range ids {
			obs[i] = s.observers[id]
		}
		ticket = s.ticket
		s.ticket++
	}
	s.mu.Unlock()

	if len(obs) > 0 {
		s.deliver(ticket, events, obs)
	}
	if changed {
		s.autosave.ChangeOccurred()
	}
}

// deliver waits for earlier tickets to finish, then runs the callbacks.
func (s *Store) deliver(ticket uint64, events []event, obs []Observer) {
	s.deliverMu.Lock()
	for s.served != ticket {
		s.turn.Wait()
	}
	s.deliverMu.Unlock()

	defer func() {
		s.deliverMu.Lock()
		s.served++
		s.turn.Broadcast()
		s.deliverMu.Unlock()
	}()
	for _, ev := range events {
		for _, o := range obs {
			ev.deliver(o)
		}
	}
}

func (s *Store) emit(ev event) {
	s.pending = append(s.pending, ev)
}

func (s *Store) markDirtyLocked() {
	s.dirty = true
	if !s.closed {
		s.changed = true
	}
}

func (s *Store) indexOfLocked(k record.Key) int {
	for i, e := range s.entries {
		if e.Key() == k {
			return i
		}
	}
	return -1
}

// rememberLocked and forgetLocked keep the URL set and completion index
// in step with the collection.
func (s *Store) rememberLocked(e record.Entry) {
	s.urls[e.URL]++
	s.completion.Add(e.URL)
}

func (s *Store) forgetLocked(e record.Entry) {
	if s.urls[e.URL] <= 1 {
		delete(s.urls, e.URL)
	} else {
		s.urls[e.URL]--
	}
	s.completion.Remove(e.URL)
}

func (s *Store) rebuildLocked() {
	s.urls = make(map[string]int, len(s.entries))
	s.completion.Reset()
	for _, e := range s.entries {
		s.rememberLocked(e)
	}
	metrics.Entries.Set(float64(len(s.entries)))
}

func (s *Store) excludedHost(cleanedURL string) bool {
	if len(s.excluded) == 0 {
		return false
	}
	host := record.Domain(cleanedURL)
	for _, h := range s.excluded {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func cleanForLookup(rawURL string) string {
	if u, _, err := record.CleanURL(rawURL); err == nil {
		return u
	}
	return strings.TrimSpace(rawURL)
}

func sortNewestFirst(entries []record.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Newer(entries[j])
	})
}
