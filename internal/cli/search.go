package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/visitlog/internal/history"
	"github.com/runnerr0/visitlog/internal/record"
)

// Execute implements the go-flags Commander interface for SearchCommand.
func (c *SearchCommand) Execute(args []string) error {
	sess, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer sess.Close()

	return c.executeWithStore(sess.store, args)
}

// executeWithStore runs the search against a provided store (for testing).
func (c *SearchCommand) executeWithStore(store *history.Store, args []string) error {
	query := strings.Join(args, " ")

	now := nowFunc(c.now)
	var since time.Time
	if c.Since != "" {
		dur, err := parseDuration(c.Since)
		if err != nil {
			return fmt.Errorf("invalid --since value %q: %w", c.Since, err)
		}
		since = now.Add(-dur)
	}

	var until time.Time
	if c.Until != "" {
		dur, err := parseDuration(c.Until)
		if err != nil {
			return fmt.Errorf("invalid --until value %q: %w", c.Until, err)
		}
		until = now.Add(-dur)
	}

	results := store.Search(history.Query{
		Text:   query,
		Since:  since,
		Until:  until,
		Limit:  c.Limit,
		Offset: c.Offset,
	})

	if wantJSON(c.globals) {
		return c.printJSON(query, results)
	}
	return c.printHuman(query, results)
}

func (c *SearchCommand) sinceLabel() string {
	if c.Since == "" {
		return "all time"
	}
	return "since " + c.Since
}

func (c *SearchCommand) printHuman(query string, results []record.Entry) error {
	if len(results) == 0 {
		if query != "" {
			fmt.Printf("No results found for %q (%s)\n", query, c.sinceLabel())
		} else {
			fmt.Printf("No results found (%s)\n", c.sinceLabel())
		}
		return nil
	}

	resultWord := "results"
	if len(results) == 1 {
		resultWord = "result"
	}
	if query != "" {
		fmt.Printf("Found %d %s for %q (%s)\n\n", len(results), resultWord, query, c.sinceLabel())
	} else {
		fmt.Printf("Found %d %s (%s)\n\n", len(results), resultWord, c.sinceLabel())
	}

	for i, e := range results {
		title := e.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%d. %s", i+1+c.Offset, title)
		if d := record.Domain(e.URL); d != "" {
			fmt.Printf(" · %s", d)
		}
		fmt.Println()

		fmt.Printf("   %s\n", e.URL)
		fmt.Printf("   %s\n", e.VisitedAt.Local().Format("2006-01-02 15:04"))

		if i < len(results)-1 {
			fmt.Println()
		}
	}

	return nil
}

type jsonSearchOutput struct {
	Count   int         `json:"count"`
	Query   string      `json:"query"`
	Results []entryJSON `json:"results"`
}

func (c *SearchCommand) printJSON(query string, results []record.Entry) error {
	out := jsonSearchOutput{
		Count:   len(results),
		Query:   query,
		Results: make([]entryJSON, len(results)),
	}

	for i, e := range results {
		out.Results[i] = entryJSON{
			URL:       e.URL,
			Title:     e.Title,
			Domain:    record.Domain(e.URL),
			VisitedAt: e.VisitedAt.UTC().Format(time.RFC3339),
		}
	}

	return printJSON(out)
}
