package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedQueryStore(t *testing.T) *Store {
	t.Helper()
	s, _ := newTestStore(t, &memLog{}, unlimited)
	visits := []struct {
		url   string
		title string
		at    time.Duration
	}{
		{"https://go.dev/doc/", "Documentation - The Go Programming Language", -5 * time.Hour},
		{"https://github.com/golang/go", "golang/go", -4 * time.Hour},
		{"https://go.dev/blog/", "The Go Blog", -3 * time.Hour},
		{"https://news.example/", "News", -2 * time.Hour},
		{"https://go.dev/doc/", "Documentation - The Go Programming Language", -time.Hour},
	}
	for _, v := range visits {
		_, ok := s.AddEntry(v.url, base.Add(v.at))
		require.True(t, ok)
		s.UpdateTitle(v.url, v.title)
	}
	return s
}

func TestSearch(t *testing.T) {
	s := seedQueryStore(t)

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"all", Query{}, []string{
			"https://go.dev/doc/", "https://news.example/", "https://go.dev/blog/",
			"https://github.com/golang/go", "https://go.dev/doc/",
		}},
		{"url substring", Query{Text: "go.dev"}, []string{
			"https://go.dev/doc/", "https://go.dev/blog/", "https://go.dev/doc/",
		}},
		{"title case-insensitive", Query{Text: "BLOG"}, []string{"https://go.dev/blog/"}},
		{"limit", Query{Text: "go", Limit: 2}, []string{"https://go.dev/doc/", "https://go.dev/blog/"}},
		{"offset", Query{Text: "go", Offset: 1, Limit: 1}, []string{"https://go.dev/blog/"}},
		{"since", Query{Since: base.Add(-150 * time.Minute)}, []string{
			"https://go.dev/doc/", "https://news.example/",
		}},
		{"until", Query{Until: base.Add(-150 * time.Minute), Text: "github"}, []string{"https://github.com/golang/go"}},
		{"no match", Query{Text: "nothing-here"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Search(tt.q)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, urls(got))
		})
	}
}

func TestStats(t *testing.T) {
	s := seedQueryStore(t)

	st := s.Stats(2)
	assert.Equal(t, 5, st.Total)
	assert.Equal(t, unlimited, st.LimitDays)
	assert.True(t, st.Newest.Equal(base.Add(-time.Hour)))
	assert.True(t, st.Oldest.Equal(base.Add(-5*time.Hour)))
	require.Len(t, st.TopDomains, 2)
	assert.Equal(t, DomainCount{Domain: "go.dev", Count: 3}, st.TopDomains[0])
	assert.Equal(t, DomainCount{Domain: "github.com", Count: 1}, st.TopDomains[1])
}

func TestStats_Empty(t *testing.T) {
	s, _ := newTestStore(t, &memLog{}, unlimited)
	st := s.Stats(10)
	assert.Zero(t, st.Total)
	assert.True(t, st.Oldest.IsZero())
	assert.Empty(t, st.TopDomains)
}
