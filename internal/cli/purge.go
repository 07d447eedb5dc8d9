package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/runnerr0/visitlog/internal/history"
)

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	if err := c.confirm(); err != nil {
		return err
	}

	sess, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer sess.Close()

	return c.executeWithStore(sess.store)
}

// confirm enforces --all and, unless --force, the typed confirmation.
func (c *PurgeCommand) confirm() error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}
	if c.Force {
		return nil
	}

	fmt.Println("⚠ WARNING: This will permanently delete ALL browsing history.")
	fmt.Println("  - All recorded visits")
	fmt.Println("  - All completion suggestions derived from them")
	fmt.Println()
	fmt.Println("This action cannot be undone.")
	fmt.Println()
	fmt.Print(`Type "PURGE" to confirm: `)

	var in io.Reader = os.Stdin
	if c.in != nil {
		in = c.in
	}
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return fmt.Errorf("aborted: no input received")
	}
	if strings.TrimSpace(scanner.Text()) != "PURGE" {
		return fmt.Errorf("aborted: confirmation text did not match")
	}
	return nil
}

// executeWithStore clears store. Confirmation has already happened.
func (c *PurgeCommand) executeWithStore(store *history.Store) error {
	removed := store.Len()
	if err := store.Clear(context.Background()); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	if wantJSON(c.globals) {
		return printJSON(map[string]any{
			"purged":  true,
			"removed": removed,
			"message": "all history deleted",
		})
	}

	fmt.Printf("Purged %s entries. History is empty.\n", formatNumber(removed))
	return nil
}
