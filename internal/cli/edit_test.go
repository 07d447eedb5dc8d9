package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleCommand_UpdatesMostRecentVisit(t *testing.T) {
	store, fc := testStore(t)
	seed(t, store, fc,
		visit{url: "https://example.com/", title: "Old", age: time.Hour},
		visit{url: "https://example.com/", title: "Older", age: 2 * time.Hour},
	)

	cmd := &TitleCommand{URL: "https://example.com/", Title: "New", globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})

	entries := store.History()
	assert.Equal(t, "New", entries[0].Title)
	assert.Equal(t, "Older", entries[1].Title)
	assert.Contains(t, output, "Updated title of https://example.com/")
}

func TestTitleCommand_UnknownURL(t *testing.T) {
	store, _ := testStore(t)

	err := (&TitleCommand{URL: "https://nowhere.example/", Title: "X", globals: &GlobalFlags{}}).executeWithStore(store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no visit")
}

func TestRemoveCommand_RemovesMostRecentVisit(t *testing.T) {
	store, fc := testStore(t)
	seed(t, store, fc,
		visit{url: "https://example.com/", title: "First", age: time.Hour},
		visit{url: "https://example.com/", title: "Second", age: 2 * time.Hour},
		visit{url: "https://other.example/", age: 3 * time.Hour},
	)

	cmd := &RemoveCommand{URL: "https://example.com/", globals: &GlobalFlags{}}
	_ = captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store))
	})

	entries := store.History()
	require.Len(t, entries, 2)
	assert.Equal(t, "Second", entries[0].Title)
	assert.True(t, store.Contains("https://example.com/"))
}

func TestRemoveCommand_TitleFilter(t *testing.T) {
	store, fc := testStore(t)
	seed(t, store, fc,
		visit{url: "https://example.com/", title: "First", age: time.Hour},
		visit{url: "https://example.com/", title: "Second", age: 2 * time.Hour},
	)

	err := (&RemoveCommand{URL: "https://example.com/", Title: "Nope", globals: &GlobalFlags{}}).executeWithStore(store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `titled "Nope"`)
	assert.Equal(t, 2, store.Len())

	_ = captureOutput(t, func() {
		require.NoError(t, (&RemoveCommand{URL: "https://example.com/", Title: "Second", globals: &GlobalFlags{}}).executeWithStore(store))
	})
	entries := store.History()
	require.Len(t, entries, 1)
	assert.Equal(t, "First", entries[0].Title)
}

func TestRemoveCommand_LastVisitDropsFromCompletion(t *testing.T) {
	store, fc := testStore(t)
	seed(t, store, fc, visit{url: "https://example.com/page", age: time.Minute})
	require.True(t, store.Completion().Contains("example.com/page"))

	_ = captureOutput(t, func() {
		require.NoError(t, (&RemoveCommand{URL: "https://example.com/page", globals: &GlobalFlags{}}).executeWithStore(store))
	})
	assert.False(t, store.Completion().Contains("example.com/page"))
}
