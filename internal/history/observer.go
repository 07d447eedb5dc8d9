package history

import "github.com/runnerr0/visitlog/internal/record"

// Observer receives change notifications. Callbacks run after the store's
// lock is released, so they may call read methods. Notifications arrive in
// emission order across goroutines; a callback that mutates the store
// deadlocks.
type Observer interface {
	EntryAdded(e record.Entry)
	EntryRemoved(e record.Entry)
	// EntryUpdated reports a title change of the entry at index.
	EntryUpdated(index int)
	// HistoryReset means the whole collection was replaced. Consumers
	// should discard cached projections and re-read History.
	HistoryReset()
}

// ObserverFuncs adapts optional callbacks to Observer.
type ObserverFuncs struct {
	Added   func(record.Entry)
	Removed func(record.Entry)
	Updated func(int)
	Reset   func()
}

func (f ObserverFuncs) EntryAdded(e record.Entry) {
	if f.Added != nil {
		f.Added(e)
	}
}

func (f ObserverFuncs) EntryRemoved(e record.Entry) {
	if f.Removed != nil {
		f.Removed(e)
	}
}

func (f ObserverFuncs) EntryUpdated(index int) {
	if f.Updated != nil {
		f.Updated(index)
	}
}

func (f ObserverFuncs) HistoryReset() {
	if f.Reset != nil {
		f.Reset()
	}
}

type eventKind int

const (
	eventAdded eventKind = iota
	eventRemoved
	eventUpdated
	eventReset
)

type event struct {
	kind  eventKind
	entry record.Entry
	index int
}

func (ev event) deliver(o Observer) {
	switch ev.kind {
	case eventAdded:
		o.EntryAdded(ev.entry)
	case eventRemoved:
		o.EntryRemoved(ev.entry)
	case eventUpdated:
		o.EntryUpdated(ev.index)
	case eventReset:
		o.HistoryReset()
	}
}
