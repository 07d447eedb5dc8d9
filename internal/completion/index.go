// Package completion keeps a weighted set of normalized URLs for
// location-bar autocompletion. It is a cache derived from history and is
// never persisted.
package completion

import (
	"sort"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
)

var transportPrefixes = []string{"http://", "https://", "ftp://"}

// Normalize strips a leading transport prefix and a single trailing
// slash. Every Index operation normalizes its argument with it.
func Normalize(s string) string {
	lower := strings.ToLower(s)
	for _, p := range transportPrefixes {
		if strings.HasPrefix(lower, p) {
			s = s[len(p):]
			break
		}
	}
	return strings.TrimSuffix(s, "/")
}

// Match is one completion candidate.
type Match struct {
	Text   string
	Weight int
}

// Index maps normalized URLs to visit counts. It is safe for concurrent
// use.
type Index struct {
	mu      sync.RWMutex
	weights map[string]int
	keys    []string // sorted, for prefix lookups
}

// New returns an empty Index.
func New() *Index {
	return &Index{weights: make(map[string]int)}
}

// Add records one more visit to url.
func (x *Index) Add(url string) {
	key := Normalize(url)
	if key == "" {
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.weights[key]; !ok {
		i := sort.SearchStrings(x.keys, key)
		x.keys = append(x.keys, "")
		copy(x.keys[i+1:], x.keys[i:])
		x.keys[i] = key
	}
	x.weights[key]++
}

// Remove drops one visit from url, deleting it once no visits remain.
func (x *Index) Remove(url string) {
	key := Normalize(url)

	x.mu.Lock()
	defer x.mu.Unlock()

	w, ok := x.weights[key]
	if !ok {
		return
	}
	if w > 1 {
		x.weights[key] = w - 1
		return
	}

	delete(x.weights, key)
	i := sort.SearchStrings(x.keys, key)
	if i < len(x.keys) && x.keys[i] == key {
		x.keys = append(x.keys[:i], x.keys[i+1:]...)
	}
}

// Reset empties the index.
func (x *Index) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.weights = make(map[string]int)
	x.keys = nil
}

// Contains reports whether fragment, once normalized, is a known key.
func (x *Index) Contains(fragment string) bool {
	return x.Weight(fragment) > 0
}

// Weight returns the visit count for fragment.
func (x *Index) Weight(fragment string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.weights[Normalize(fragment)]
}

// Len returns the number of distinct keys.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.keys)
}

// Complete returns keys starting with prefix, heaviest first. A
// non-positive limit returns every match.
func (x *Index) Complete(prefix string, limit int) []Match {
	p := Normalize(prefix)

	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []Match
	for i := sort.SearchStrings(x.keys, p); i < len(x.keys); i++ {
		k := x.keys[i]
		if !strings.HasPrefix(k, p) {
			break
		}
		out = append(out, Match{Text: k, Weight: x.weights[k]})
	}
	return rank(out, limit)
}

// Search returns keys containing substr (case-insensitive), heaviest
// first.
func (x *Index) Search(substr string, limit int) []Match {
	q := strings.ToLower(Normalize(substr))

	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []Match
	for _, k := range x.keys {
		if strings.Contains(strings.ToLower(k), q) {
			out = append(out, Match{Text: k, Weight: x.weights[k]})
		}
	}
	return rank(out, limit)
}

// keySource implements fuzzy.Source over a snapshot of keys.
type keySource []string

func (s keySource) String(i int) string { return s[i] }
func (s keySource) Len() int            { return len(s) }

// Fuzzy returns keys fuzzily matching query. Results are ordered by fuzzy
// score, with visit weight breaking ties.
func (x *Index) Fuzzy(query string, limit int) []Match {
	q := Normalize(query)
	if q == "" {
		return nil
	}

	x.mu.RLock()
	keys := keySource(append([]string(nil), x.keys...))
	weights := make([]int, len(keys))
	for i, k := range keys {
		weights[i] = x.weights[k]
	}
	x.mu.RUnlock()

	matches := fuzzy.FindFrom(q, keys)
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return weights[matches[i].Index] > weights[matches[j].Index]
	})

	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		out = append(out, Match{Text: keys[m.Index], Weight: weights[m.Index]})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func rank(ms []Match, limit int) []Match {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].Weight != ms[j].Weight {
			return ms[i].Weight > ms[j].Weight
		}
		return ms[i].Text < ms[j].Text
	})
	if limit > 0 && len(ms) > limit {
		ms = ms[:limit]
	}
	return ms
}
