package cli

import (
	"fmt"
	"strings"

	"github.com/runnerr0/visitlog/internal/completion"
	"github.com/runnerr0/visitlog/internal/history"
)

// Execute implements the go-flags Commander interface for CompleteCommand.
func (c *CompleteCommand) Execute(args []string) error {
	sess, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer sess.Close()

	return c.executeWithStore(sess.store, sess.cfg.Completion.MaxSuggestions, args)
}

// executeWithStore prints suggestions for the prefix in args. defaultLimit
// applies when --limit is not set.
func (c *CompleteCommand) executeWithStore(store *history.Store, defaultLimit int, args []string) error {
	prefix := strings.TrimSpace(strings.Join(args, " "))
	if prefix == "" {
		return fmt.Errorf("complete requires a PREFIX argument")
	}

	limit := c.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var matches []completion.Match
	if c.Fuzzy {
		matches = store.Completion().Fuzzy(prefix, limit)
	} else {
		matches = store.Completion().Complete(prefix, limit)
	}

	if wantJSON(c.globals) {
		out := make([]map[string]any, len(matches))
		for i, m := range matches {
			out[i] = map[string]any{"text": m.Text, "weight": m.Weight}
		}
		return printJSON(map[string]any{"prefix": prefix, "suggestions": out})
	}

	for _, m := range matches {
		fmt.Printf("%s\t%d\n", m.Text, m.Weight)
	}
	return nil
}
