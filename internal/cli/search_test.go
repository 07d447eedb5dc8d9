package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/visitlog/internal/clock"
	"github.com/runnerr0/visitlog/internal/history"
)

func seedSearch(t *testing.T) (*history.Store, *clock.Fake) {
	t.Helper()
	store, fc := testStore(t)
	seed(t, store, fc,
		visit{url: "https://go.dev/doc/", title: "Documentation - The Go Programming Language", age: time.Hour},
		visit{url: "https://pkg.go.dev/fmt", title: "fmt package", age: 2 * day},
		visit{url: "https://example.com/golang-tips", title: "Tips", age: 10 * day},
		visit{url: "https://news.example/", title: "News", age: 3 * day},
		visit{url: "https://go.dev/blog/", title: "The Go Blog", age: 45 * day},
	)
	return store, fc
}

func TestSearchCommand_Keyword(t *testing.T) {
	store, fc := seedSearch(t)

	cmd := &SearchCommand{Since: "30d", Limit: 10, globals: &GlobalFlags{}, now: fc.Now}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, []string{"go"}))
	})

	assert.Contains(t, output, `Found 3 results for "go" (since 30d)`)
	assert.Contains(t, output, "1. Documentation - The Go Programming Language · go.dev")
	assert.Contains(t, output, "   https://pkg.go.dev/fmt")
	assert.Contains(t, output, "golang-tips")
	assert.NotContains(t, output, "go.dev/blog", "older than --since")
	assert.NotContains(t, output, "news.example")
}

func TestSearchCommand_JSONAndPaging(t *testing.T) {
	store, fc := seedSearch(t)

	cmd := &SearchCommand{Limit: 2, Offset: 1, globals: &GlobalFlags{JSON: true}, now: fc.Now}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, nil))
	})

	var out jsonSearchOutput
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, 2, out.Count)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "https://pkg.go.dev/fmt", out.Results[0].URL)
	assert.Equal(t, "https://news.example/", out.Results[1].URL)
	assert.Equal(t, "pkg.go.dev", out.Results[0].Domain)
}

func TestSearchCommand_Until(t *testing.T) {
	store, fc := seedSearch(t)

	cmd := &SearchCommand{Since: "30d", Until: "2d", Limit: 10, globals: &GlobalFlags{JSON: true}, now: fc.Now}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, nil))
	})

	var out jsonSearchOutput
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	got := make([]string, len(out.Results))
	for i, r := range out.Results {
		got[i] = r.URL
	}
	// Until is exclusive, so the visit exactly two days old is left out.
	assert.Equal(t, []string{"https://news.example/", "https://example.com/golang-tips"}, got)
}

func TestSearchCommand_NoResults(t *testing.T) {
	store, fc := seedSearch(t)

	cmd := &SearchCommand{Since: "30d", Limit: 10, globals: &GlobalFlags{}, now: fc.Now}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, []string{"rust"}))
	})
	assert.Contains(t, output, `No results found for "rust" (since 30d)`)
}

func TestSearchCommand_InvalidDuration(t *testing.T) {
	store, fc := testStore(t)

	err := (&SearchCommand{Since: "soon", globals: &GlobalFlags{}, now: fc.Now}).executeWithStore(store, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--since")

	err = (&SearchCommand{Until: "7y", globals: &GlobalFlags{}, now: fc.Now}).executeWithStore(store, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--until")
}
