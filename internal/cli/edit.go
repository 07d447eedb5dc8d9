package cli

import (
	"fmt"

	"github.com/runnerr0/visitlog/internal/history"
)

// Execute implements the go-flags Commander interface for TitleCommand.
func (c *TitleCommand) Execute(args []string) error {
	if c.URL == "" || c.Title == "" {
		return fmt.Errorf("--url and --title are required for title command")
	}

	sess, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer sess.Close()

	return c.executeWithStore(sess.store)
}

func (c *TitleCommand) executeWithStore(store *history.Store) error {
	if !store.UpdateTitle(c.URL, c.Title) {
		return fmt.Errorf("no visit to %q in history", c.URL)
	}

	if wantJSON(c.globals) {
		return printJSON(map[string]any{"url": c.URL, "title": c.Title, "updated": true})
	}
	fmt.Printf("Updated title of %s\n", c.URL)
	return nil
}

// Execute implements the go-flags Commander interface for RemoveCommand.
func (c *RemoveCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for remove command")
	}

	sess, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer sess.Close()

	return c.executeWithStore(sess.store)
}

func (c *RemoveCommand) executeWithStore(store *history.Store) error {
	if !store.RemoveByURL(c.URL, c.Title) {
		if c.Title != "" {
			return fmt.Errorf("no visit to %q titled %q in history", c.URL, c.Title)
		}
		return fmt.Errorf("no visit to %q in history", c.URL)
	}

	if wantJSON(c.globals) {
		return printJSON(map[string]any{"url": c.URL, "removed": true})
	}
	fmt.Printf("Removed visit to %s\n", c.URL)
	return nil
}
