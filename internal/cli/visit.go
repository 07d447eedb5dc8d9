package cli

import (
	"fmt"
	"time"

	"github.com/runnerr0/visitlog/internal/history"
)

// Execute implements the go-flags Commander interface for VisitCommand.
func (c *VisitCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for visit command")
	}

	sess, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer sess.Close()

	return c.executeWithStore(sess.store)
}

// executeWithStore runs the visit logic against a provided store (used by tests).
func (c *VisitCommand) executeWithStore(store *history.Store) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for visit command")
	}

	e, ok := store.AddEntry(c.URL, nowFunc(c.now))
	if !ok {
		return fmt.Errorf("visit to %q was not recorded: private browsing, ignored, excluded or already recorded", c.URL)
	}
	if c.Title != "" {
		store.UpdateTitle(e.URL, c.Title)
		e.Title = c.Title
	}

	if wantJSON(c.globals) {
		return printJSON(entryJSON{
			URL:       e.URL,
			Title:     e.Title,
			VisitedAt: e.VisitedAt.UTC().Format(time.RFC3339),
		})
	}

	fmt.Printf("Recorded visit (%s)\n", e.VisitedAt.Format(time.RFC3339))
	fmt.Printf("  URL: %s\n", e.URL)
	if e.Title != "" {
		fmt.Printf("  Title: %s\n", e.Title)
	}
	return nil
}

type entryJSON struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Domain    string `json:"domain,omitempty"`
	VisitedAt string `json:"visited_at"`
}
