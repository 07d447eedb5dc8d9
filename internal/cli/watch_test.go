package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/visitlog/internal/config"
)

func TestWatch_RecordsStdinLines(t *testing.T) {
	store, _ := testStore(t)

	input := strings.Join([]string{
		"https://a.example/\tPage A",
		"",
		"# comment",
		"rekonq:settings",
		"https://b.example/",
		"not a url",
	}, "\n")

	cmd := &WatchCommand{globals: &GlobalFlags{}, in: strings.NewReader(input)}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), store, "", ""))
	})

	assert.Contains(t, output, "Read 4 lines: 2 recorded, 2 ignored")
	assert.True(t, store.Contains("https://a.example/"))
	assert.True(t, store.Contains("https://b.example/"))

	var titled bool
	for _, e := range store.History() {
		if e.URL == "https://a.example/" {
			titled = e.Title == "Page A"
		}
	}
	assert.True(t, titled)
}

func TestWatch_StampsVisitsWithInjectedClock(t *testing.T) {
	store, fc := testStore(t)

	cmd := &WatchCommand{globals: &GlobalFlags{}, in: strings.NewReader("https://a.example/\n"), now: fc.Now}
	_ = captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), store, "", ""))
	})

	h := store.History()
	require.Len(t, h, 1)
	assert.True(t, h[0].VisitedAt.Equal(testNow), "got %s", h[0].VisitedAt)
}

func TestWatch_JSONSummary(t *testing.T) {
	store, _ := testStore(t)

	cmd := &WatchCommand{globals: &GlobalFlags{JSON: true}, in: strings.NewReader("https://a.example/\n")}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), store, "", ""))
	})

	var stats watchStats
	require.NoError(t, json.Unmarshal([]byte(output), &stats))
	assert.Equal(t, watchStats{Lines: 1, Recorded: 1}, stats)
}

func TestWatch_StopsOnCancel(t *testing.T) {
	store, _ := testStore(t)

	// A pipe that never reaches EOF.
	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cmd := &WatchCommand{globals: &GlobalFlags{}, in: r}

	done := make(chan error, 1)
	_ = captureOutput(t, func() {
		go func() { done <- cmd.executeWithStore(ctx, store, "", "") }()
		_, err := w.Write([]byte("https://a.example/\n"))
		require.NoError(t, err)
		require.Eventually(t, func() bool {
			return store.Contains("https://a.example/")
		}, 5*time.Second, 10*time.Millisecond)
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("watch did not stop after cancel")
		}
	})
}

func TestWatch_WithConfigWatcherExitsAtEOF(t *testing.T) {
	store, _ := testStore(t)
	cfgPath := writeConfig(t, "")

	cmd := &WatchCommand{globals: &GlobalFlags{}, in: strings.NewReader("https://a.example/\n")}
	_ = captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), store, cfgPath, ""))
	})
	assert.Equal(t, 1, store.Len())
}

func TestWatch_ConfigWatcherErrorSurfaces(t *testing.T) {
	store, _ := testStore(t)
	missing := filepath.Join(t.TempDir(), "gone", "config.yaml")

	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })

	cmd := &WatchCommand{globals: &GlobalFlags{}, in: r}
	err := cmd.executeWithStore(context.Background(), store, missing, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watching")
}

func TestWatch_MetricsListenError(t *testing.T) {
	store, _ := testStore(t)

	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })

	cmd := &WatchCommand{globals: &GlobalFlags{}, in: r}
	err := cmd.executeWithStore(context.Background(), store, "", "not-an-address")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics server")
}

func TestApplyConfig(t *testing.T) {
	store, _ := testStore(t)

	cfg := config.DefaultConfig()
	cfg.History.ExpireHistory = 0
	cfg.History.PrivateBrowsing = true
	applyConfig(store, cfg)

	assert.Equal(t, 1, store.Limit())
	assert.True(t, store.Private())
}

func TestReadVisits_ScannerError(t *testing.T) {
	store, _ := testStore(t)
	var stats watchStats

	err := readVisits(context.Background(), io.MultiReader(strings.NewReader("https://a.example/\n"), errReader{}), store, nil, &stats)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read visits")
	assert.Equal(t, 1, stats.Recorded)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("device gone") }
