package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runnerr0/visitlog/internal/clock"
	"github.com/runnerr0/visitlog/internal/expiry"
	"github.com/runnerr0/visitlog/internal/history"
	"github.com/runnerr0/visitlog/internal/storage"
)

// testNow is the fake clock's starting point for command tests.
var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	fn()

	w.Close()
	os.Stdout = old
	return <-done
}

// testStore opens an unlimited history store on a file log in a temp dir,
// driven by a fake clock.
func testStore(t *testing.T) (*history.Store, *clock.Fake) {
	t.Helper()
	fc := clock.NewFake(testNow)
	l := storage.NewFileLog(filepath.Join(t.TempDir(), "history"))
	store, err := history.Open(context.Background(), l, history.Options{
		LimitDays: expiry.Unlimited,
		Clock:     fc,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store, fc
}

// seed records visits at the given ages relative to the fake clock.
func seed(t *testing.T, store *history.Store, fc *clock.Fake, visits ...visit) {
	t.Helper()
	for _, v := range visits {
		e, ok := store.AddEntry(v.url, fc.Now().Add(-v.age))
		require.True(t, ok, "seed %s", v.url)
		if v.title != "" {
			require.True(t, store.UpdateTitle(e.URL, v.title))
		}
	}
}

type visit struct {
	url   string
	title string
	age   time.Duration
}

const day = 24 * time.Hour

// writeConfig writes a config file keeping storage and logs under a temp
// dir and returns its path.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("storage:\n  path: %s\n  backend: file\n%s", filepath.Join(dir, "data"), extra)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}
