package record

import "time"

// Entry is a single recorded visit.
type Entry struct {
	URL       string
	VisitedAt time.Time
	Title     string
}

// Key identifies a visit. Repeated visits to the same URL are distinct keys.
type Key struct {
	URL  string
	Unix int64
}

// Key returns the identity of e.
func (e Entry) Key() Key {
	return Key{URL: e.URL, Unix: e.VisitedAt.Unix()}
}

// IsZero reports whether k is the unset key.
func (k Key) IsZero() bool {
	return k.URL == "" && k.Unix == 0
}

// Newer reports whether e was visited strictly after other.
func (e Entry) Newer(other Entry) bool {
	return e.VisitedAt.Unix() > other.VisitedAt.Unix()
}
