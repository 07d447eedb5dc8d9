package history

import (
	"sort"
	"strings"
	"time"

	"github.com/runnerr0/visitlog/internal/record"
)

// Query filters History. Zero fields do not filter.
type Query struct {
	// Text matches case-insensitively against URL and title.
	Text   string
	Since  time.Time
	Until  time.Time
	Limit  int
	Offset int
}

// Stats summarises the collection.
type Stats struct {
	Total      int
	Oldest     time.Time
	Newest     time.Time
	LimitDays  int
	TopDomains []DomainCount
}

// DomainCount pairs a domain with its visit count.
type DomainCount struct {
	Domain string
	Count  int
}

// Search returns matching visits, newest first.
func (s *Store) Search(q Query) []record.Entry {
	needle := strings.ToLower(strings.TrimSpace(q.Text))

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []record.Entry
	skip := q.Offset
	for _, e := range s.entries {
		if !q.Until.IsZero() && !e.VisitedAt.Before(q.Until) {
			continue
		}
		if !q.Since.IsZero() && e.VisitedAt.Before(q.Since) {
			// Sorted newest first, so nothing further can match.
			break
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(e.URL), needle) &&
			!strings.Contains(strings.ToLower(e.Title), needle) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, e)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out
}

// Stats returns aggregate counts with up to topN domains.
func (s *Store) Stats(topN int) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Total: len(s.entries), LimitDays: s.limit}
	if len(s.entries) == 0 {
		return st
	}
	st.Newest = s.entries[0].VisitedAt
	st.Oldest = s.entries[len(s.entries)-1].VisitedAt

	counts := make(map[string]int)
	for _, e := range s.entries {
		if d := record.Domain(e.URL); d != "" {
			counts[d]++
		}
	}
	for d, n := range counts {
		st.TopDomains = append(st.TopDomains, DomainCount{Domain: d, Count: n})
	}
	sort.Slice(st.TopDomains, func(i, j int) bool {
		a, b := st.TopDomains[i], st.TopDomains[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Domain < b.Domain
	})
	if topN > 0 && len(st.TopDomains) > topN {
		st.TopDomains = st.TopDomains[:topN]
	}
	return st
}
