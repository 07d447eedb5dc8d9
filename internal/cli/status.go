package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/runnerr0/visitlog/internal/history"
	"github.com/runnerr0/visitlog/internal/storage"
)

// rowCounter is implemented by backends that can count stored records.
type rowCounter interface {
	Count(ctx context.Context) (int64, error)
}

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version       string            `json:"version"`
	Location      string            `json:"location"`
	SizeBytes     int64             `json:"size_bytes"`
	TotalEntries  int               `json:"total_entries"`
	OldestEntry   string            `json:"oldest_entry,omitempty"`
	NewestEntry   string            `json:"newest_entry,omitempty"`
	RetentionDays int               `json:"retention_days"`
	Expired       int               `json:"expired"`
	Private       bool              `json:"private_browsing"`
	SavedThrough  string            `json:"saved_through,omitempty"`
	StoredRecords int64             `json:"stored_records,omitempty"`
	TopDomains    []domainCountJSON `json:"top_domains"`
}

type domainCountJSON struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	sess, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer sess.Close()

	return c.executeWithStore(sess.store, sess.log)
}

// executeWithStore runs status against a provided store (for testing). log
// may be nil; backends that count their rows report the stored total.
func (c *StatusCommand) executeWithStore(store *history.Store, log storage.Log) error {
	stats := store.Stats(c.Top)
	size := storageSize(store.Location())
	expired := store.ExpiredCount()

	var stored int64
	if rc, ok := log.(rowCounter); ok {
		n, err := rc.Count(context.Background())
		if err != nil {
			return err
		}
		stored = n
	}

	if wantJSON(c.globals) {
		return c.printStatusJSON(store, stats, size, expired, stored)
	}
	return c.printStatusHuman(store, stats, size, expired, stored)
}

func (c *StatusCommand) printStatusHuman(store *history.Store, stats history.Stats, size int64, expired int, stored int64) error {
	fmt.Println("visitlog Status")
	fmt.Println("===============")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Storage:       %s (%s)\n", store.Location(), formatBytes(size))
	fmt.Printf("Entries:       %s\n", formatNumber(stats.Total))
	if stored > 0 {
		fmt.Printf("Stored rows:   %s\n", formatNumber(int(stored)))
	}

	if stats.Total > 0 {
		fmt.Printf("Oldest:        %s\n", stats.Oldest.Local().Format("2006-01-02 15:04"))
		fmt.Printf("Newest:        %s\n", stats.Newest.Local().Format("2006-01-02 15:04"))
	}

	fmt.Printf("Retention:     %s\n", formatRetention(stats.LimitDays))
	if expired > 0 {
		fmt.Printf("Expired:       %s (pending removal)\n", formatNumber(expired))
	}
	if store.Private() {
		fmt.Println("Private:       on")
	} else {
		fmt.Println("Private:       off")
	}

	if len(stats.TopDomains) > 0 {
		fmt.Println()
		fmt.Println("Top Domains:")
		for _, d := range stats.TopDomains {
			fmt.Printf("  %-20s %s\n", d.Domain, formatNumber(d.Count))
		}
	}

	return nil
}

func (c *StatusCommand) printStatusJSON(store *history.Store, stats history.Stats, size int64, expired int, stored int64) error {
	out := statusJSON{
		Version:       c.version,
		Location:      store.Location(),
		SizeBytes:     size,
		TotalEntries:  stats.Total,
		RetentionDays: stats.LimitDays,
		Expired:       expired,
		Private:       store.Private(),
		SavedThrough:  store.CursorURL(),
		StoredRecords: stored,
		TopDomains:    make([]domainCountJSON, len(stats.TopDomains)),
	}

	if stats.Total > 0 {
		out.OldestEntry = stats.Oldest.UTC().Format(time.RFC3339)
		out.NewestEntry = stats.Newest.UTC().Format(time.RFC3339)
	}

	for i, d := range stats.TopDomains {
		out.TopDomains[i] = domainCountJSON{Domain: d.Domain, Count: d.Count}
	}

	return printJSON(out)
}

// storageSize returns the size of the history file, or 0 when it does not
// exist yet.
func storageSize(path string) int64 {
	if info, err := os.Stat(path); err == nil {
		return info.Size()
	}
	return 0
}
