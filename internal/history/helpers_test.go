package history

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runnerr0/visitlog/internal/clock"
	"github.com/runnerr0/visitlog/internal/expiry"
	"github.com/runnerr0/visitlog/internal/record"
	"github.com/runnerr0/visitlog/internal/storage"
)

// base is mid-January so day arithmetic never crosses a DST change.
var base = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

// memLog is an in-memory storage.Log that records how it was written.
type memLog struct {
	mu        sync.Mutex
	chunks    [][]byte
	truncated bool
	appends   int
	rewrites  int
	appended  int
	failNext  error
}

func (l *memLog) LoadAll(ctx context.Context) (storage.ChunkIterator, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &memIterator{chunks: append([][]byte(nil), l.chunks...), truncated: l.truncated}, nil
}

func (l *memLog) AppendFrom(ctx context.Context, cursor record.Key, entries []record.Entry) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.takeFailure(); err != nil {
		return 0, err
	}
	prefix, err := storage.UnsavedPrefix(cursor, entries)
	if err != nil {
		return 0, err
	}
	for i := len(prefix) - 1; i >= 0; i-- {
		l.chunks = append(l.chunks, mustEncode(prefix[i]))
	}
	l.appends++
	l.appended = len(prefix)
	return len(prefix), nil
}

func (l *memLog) RewriteAll(ctx context.Context, entries []record.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.takeFailure(); err != nil {
		return err
	}
	l.chunks = nil
	for i := len(entries) - 1; i >= 0; i-- {
		l.chunks = append(l.chunks, mustEncode(entries[i]))
	}
	l.truncated = false
	l.rewrites++
	return nil
}

func (l *memLog) Location() string { return "memory" }
func (l *memLog) Close() error     { return nil }

func (l *memLog) takeFailure() error {
	err := l.failNext
	l.failNext = nil
	return err
}

func (l *memLog) counts() (appends, rewrites int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appends, l.rewrites
}

// stored decodes the log contents in write order.
func (l *memLog) stored(t *testing.T) []record.Entry {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]record.Entry, 0, len(l.chunks))
	for _, c := range l.chunks {
		e, err := record.Decode(c)
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

func (l *memLog) put(entries ...record.Entry) {
	for _, e := range entries {
		l.chunks = append(l.chunks, mustEncode(e))
	}
}

type memIterator struct {
	chunks    [][]byte
	cur       []byte
	truncated bool
}

func (it *memIterator) Next() bool {
	if len(it.chunks) == 0 {
		it.cur = nil
		return false
	}
	it.cur, it.chunks = it.chunks[0], it.chunks[1:]
	return true
}

func (it *memIterator) Chunk() []byte   { return it.cur }
func (it *memIterator) Err() error      { return nil }
func (it *memIterator) Truncated() bool { return it.truncated }
func (it *memIterator) Close() error    { return nil }

func mustEncode(e record.Entry) []byte {
	b, err := record.Encode(e)
	if err != nil {
		panic(err)
	}
	return b
}

func entryAt(url string, at time.Time, title string) record.Entry {
	return record.Entry{URL: url, VisitedAt: time.Unix(at.Unix(), 0), Title: title}
}

func newTestStore(t *testing.T, l storage.Log, limitDays int) (*Store, *clock.Fake) {
	t.Helper()
	fc := clock.NewFake(base)
	s := New(l, Options{LimitDays: limitDays, Clock: fc})
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s, fc
}

func openTestStore(t *testing.T, l storage.Log, limitDays int) (*Store, *clock.Fake) {
	t.Helper()
	s, fc := newTestStore(t, l, limitDays)
	require.NoError(t, s.Load(context.Background()))
	return s, fc
}

func urls(entries []record.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.URL
	}
	return out
}

// recorder collects notifications as readable strings.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) EntryAdded(e record.Entry)   { r.add("added " + e.URL) }
func (r *recorder) EntryRemoved(e record.Entry) { r.add("removed " + e.URL) }
func (r *recorder) EntryUpdated(index int)      { r.add("updated " + strconv.Itoa(index)) }
func (r *recorder) HistoryReset()               { r.add("reset") }

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.events = append(r.events, s)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

var unlimited = expiry.Unlimited

// expiringCtx reports cancellation once its Err budget is spent.
type expiringCtx struct {
	context.Context
	left int
}

func (c *expiringCtx) Err() error {
	if c.left <= 0 {
		return context.Canceled
	}
	c.left--
	return nil
}
