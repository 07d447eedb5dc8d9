package cli

import (
	"io"
	"time"
)

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Log to stderr at debug level"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// StatusCommand shows history size, retention and storage location.
type StatusCommand struct {
	Top int `long:"top" description:"Number of top domains to list" default:"5"`

	globals *GlobalFlags
	version string
}

// VisitCommand records a visit.
type VisitCommand struct {
	URL   string `long:"url" description:"URL visited (required)"`
	Title string `long:"title" description:"Page title"`

	globals *GlobalFlags
	now     func() time.Time // nil means time.Now
}

// TitleCommand sets the title of the most recent visit to a URL.
type TitleCommand struct {
	URL   string `long:"url" description:"URL of the visit (required)"`
	Title string `long:"title" description:"New title (required)"`

	globals *GlobalFlags
}

// RemoveCommand deletes the most recent visit to a URL.
type RemoveCommand struct {
	URL   string `long:"url" description:"URL of the visit (required)"`
	Title string `long:"title" description:"Only remove a visit with this title"`

	globals *GlobalFlags
}

// SearchCommand searches visits by keyword with time filters.
type SearchCommand struct {
	Since  string `long:"since" description:"Only visits newer than duration (e.g., 7d, 24h, 2w)" default:"30d"`
	Until  string `long:"until" description:"Only visits older than duration"`
	Limit  int    `long:"limit" description:"Maximum results" default:"10"`
	Offset int    `long:"offset" description:"Skip first N results" default:"0"`

	globals *GlobalFlags
	now     func() time.Time
}

// CompleteCommand prints location-bar suggestions for a typed prefix.
type CompleteCommand struct {
	Limit int  `long:"limit" description:"Maximum suggestions (default from config)"`
	Fuzzy bool `long:"fuzzy" description:"Fuzzy match instead of prefix match"`

	globals *GlobalFlags
}

// PruneCommand applies the retention policy, or a one-off cutoff.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Remove visits older than duration instead of the configured retention (e.g., 30d)"`
	DryRun    bool   `long:"dry-run" description:"Show what would be pruned without deleting"`

	globals *GlobalFlags
	now     func() time.Time
}

// PurgeCommand deletes ALL history after a safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	in      io.Reader // nil means os.Stdin
}

// WatchCommand records visits streamed on stdin until EOF or interrupt.
type WatchCommand struct {
	MetricsListen string `long:"metrics-listen" description:"Serve Prometheus metrics on this address (overrides config)"`

	globals *GlobalFlags
	in      io.Reader
	now     func() time.Time
}
