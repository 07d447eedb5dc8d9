package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionFlag(t *testing.T) {
	var err error
	output := captureOutput(t, func() {
		err = RunWithArgs("0.1.0-test", []string{"--version"})
	})

	assert.NoError(t, err)
	assert.Equal(t, "visitlog 0.1.0-test", strings.TrimSpace(output))
}

func TestHelpIsNotAnError(t *testing.T) {
	_ = captureOutput(t, func() {
		assert.NoError(t, RunWithArgs("test", []string{"--help"}))
	})
}

func TestAllSubcommandsRegistered(t *testing.T) {
	parser, _, _ := buildParser("test")
	for _, name := range []string{"status", "visit", "title", "remove", "search", "complete", "prune", "purge", "watch"} {
		assert.NotNil(t, parser.Find(name), "missing subcommand %q", name)
	}
}

func TestUnknownSubcommandErrors(t *testing.T) {
	parser, _, _ := buildParser("test")
	parser.Options = 0
	_, err := parser.ParseArgs([]string{"frobnicate"})
	assert.Error(t, err)
}

func TestFlagsBindToCommands(t *testing.T) {
	parser, globals, cmds := buildParser("test")
	parser.Options = 0
	// purge without --all fails before touching any storage.
	_, err := parser.ParseArgs([]string{"--json", "purge", "--force"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--all")
	assert.True(t, globals.JSON)
	assert.True(t, cmds.Purge.Force)
	assert.Same(t, globals, cmds.Purge.globals)
}

func TestEndToEnd_VisitThenSearch(t *testing.T) {
	cfg := writeConfig(t, "")

	_ = captureOutput(t, func() {
		require.NoError(t, RunWithArgs("test", []string{"--config", cfg, "visit", "--url", "https://go.dev/doc/", "--title", "Documentation"}))
		require.NoError(t, RunWithArgs("test", []string{"--config", cfg, "visit", "--url", "https://example.com/"}))
	})

	output := captureOutput(t, func() {
		require.NoError(t, RunWithArgs("test", []string{"--config", cfg, "--json", "search", "doc"}))
	})

	var out jsonSearchOutput
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "doc", out.Query)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "https://go.dev/doc/", out.Results[0].URL)
	assert.Equal(t, "Documentation", out.Results[0].Title)
	assert.Equal(t, "go.dev", out.Results[0].Domain)

	// The history file and rotating log live under the configured storage path.
	dataDir := filepath.Join(filepath.Dir(cfg), "data")
	_, err := os.Stat(filepath.Join(dataDir, "history"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dataDir, "visitlog.log"))
	assert.NoError(t, err)
}

func TestEndToEnd_SQLiteBackend(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	body := "storage:\n  path: " + dir + "\n  backend: sqlite\n"
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0644))

	_ = captureOutput(t, func() {
		require.NoError(t, RunWithArgs("test", []string{"--config", cfg, "visit", "--url", "https://sqlite.org/"}))
	})
	output := captureOutput(t, func() {
		require.NoError(t, RunWithArgs("test", []string{"--config", cfg, "--json", "status"}))
	})

	var out statusJSON
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, 1, out.TotalEntries)
	assert.Equal(t, int64(1), out.StoredRecords)
	assert.Equal(t, filepath.Join(dir, "history.db"), out.Location)
}

func TestEndToEnd_InvalidConfig(t *testing.T) {
	cfg := writeConfig(t, "")
	require.NoError(t, os.WriteFile(cfg, []byte("storage:\n  backend: tape\n"), 0644))

	err := RunWithArgs("test", []string{"--config", cfg, "status"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}
